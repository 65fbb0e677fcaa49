package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"codescope/internal/metadata"
)

var collectCmd = &cobra.Command{
	Use:   "collect <path>",
	Short: "Extract per-file structural metadata from a repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		collector := metadata.NewCollector(root, flagOut, log)
		res, err := collector.Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println(successStyle.Render(fmt.Sprintf("Collected metadata for %d files", len(res.Records))))
		fmt.Printf("  Metadata:  %s\n", pathStyle.Render(res.MetadataPath))
		fmt.Printf("  README:    %s\n", pathStyle.Render(res.ReadmePath))
		fmt.Printf("  Structure: %s\n", pathStyle.Render(res.StructurePath))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(collectCmd)
}
