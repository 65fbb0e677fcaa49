package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"codescope/internal/fetcher"
)

var flagDest string

var fetchCmd = &cobra.Command{
	Use:   "fetch <github-url>",
	Short: "Clone a GitHub repository for indexing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := fetcher.New(flagDest)

		fmt.Printf("Fetching %s...\n", args[0])
		res, err := f.Fetch(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Println(successStyle.Render(fmt.Sprintf("Cloned %s/%s", res.Owner, res.Repo)))
		fmt.Printf("  Path:  %s\n", pathStyle.Render(res.LocalPath))
		fmt.Printf("  Files: %d\n", res.TotalFiles)
		fmt.Println(dimStyle.Render(fmt.Sprintf("Run 'codescope index %s' to build the index", res.LocalPath)))
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&flagDest, "dest", "repos", "directory to clone repositories into")
	rootCmd.AddCommand(fetchCmd)
}
