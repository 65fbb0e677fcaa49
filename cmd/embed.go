package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"codescope/internal/artifact"
	"codescope/internal/embedder"
	"codescope/internal/metadata"
)

var flagBatchSize int

var embedCmd = &cobra.Command{
	Use:   "embed <path>",
	Short: "Embed generated chunks in resilient batches",
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

		emb := embedder.NewOllamaEmbedder(flagOllama, flagModel)
		generator := embedder.NewGenerator(emb, flagBatchSize, log)

		embeddingsPath, stats, err := generator.Run(cmd.Context(), artifact.ChunksPath(flagOut, repoName), flagOut, repoName)
		if err != nil {
			return err
		}

		fmt.Println(successStyle.Render(fmt.Sprintf("Embedded %d/%d chunks", stats.Embedded, stats.Total)))
		if stats.Failed > 0 {
			fmt.Println(errorStyle.Render(fmt.Sprintf("  Failed: %d (recorded with null embeddings)", stats.Failed)))
		}
		fmt.Printf("  Embeddings: %s\n", pathStyle.Render(embeddingsPath))
		return nil
	},
}

func init() {
	embedCmd.Flags().IntVar(&flagBatchSize, "batch-size", embedder.DefaultBatchSize, "chunks per embedding request")
	rootCmd.AddCommand(embedCmd)
}
