package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"codescope/internal/embedder"
	"codescope/internal/pipeline"
)

var indexCmd = &cobra.Command{
	Use:   "index <path>",
	Short: "Run the full pipeline: collect, chunk, embed, ingest",
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

		p, err := pipeline.New(pipeline.Config{
			Root:       root,
			OutDir:     flagOut,
			DBPath:     resolveDB(),
			OllamaURL:  flagOllama,
			EmbedModel: flagModel,
			BatchSize:  flagBatchSize,
			Dim:        flagDim,
			Log:        log,
		})
		if err != nil {
			return err
		}
		defer p.Close()

		fmt.Printf("Indexing %s...\n", root)
		start := time.Now()

		stats, err := p.Run(cmd.Context())
		if err != nil {
			return err
		}
		elapsed := time.Since(start)

		fmt.Println(successStyle.Render(fmt.Sprintf("Done in %s", elapsed.Round(time.Millisecond))))
		fmt.Printf("  Files:    %d\n", stats.Files)
		fmt.Printf("  Chunks:   %d\n", stats.Chunks)
		fmt.Printf("  Embedded: %d", stats.Embedded)
		if stats.Failed > 0 {
			fmt.Printf(" (%d failed)", stats.Failed)
		}
		fmt.Println()
		fmt.Printf("  Ingested: %d\n", stats.Ingested)
		return nil
	},
}

func init() {
	indexCmd.Flags().IntVar(&flagBatchSize, "batch-size", embedder.DefaultBatchSize, "chunks per embedding request")
	rootCmd.AddCommand(indexCmd)
}
