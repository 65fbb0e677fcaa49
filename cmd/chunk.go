package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"codescope/internal/artifact"
	"codescope/internal/chunk"
	"codescope/internal/metadata"
)

var chunkCmd = &cobra.Command{
	Use:   "chunk <path>",
	Short: "Generate embedding-ready chunks from collected metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		repoName := metadata.RepoName(root)

		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		orchestrator := chunk.NewOrchestrator(root, artifact.MetadataPath(flagOut, repoName), repoName, flagOut, log)
		chunksPath, chunks, err := orchestrator.Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println(successStyle.Render(fmt.Sprintf("Generated %d chunks", len(chunks))))
		fmt.Printf("  Chunks: %s\n", pathStyle.Render(chunksPath))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chunkCmd)
}
