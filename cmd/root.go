package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"codescope/internal/store"
)

var (
	flagOut       string
	flagDB        string
	flagOllama    string
	flagModel     string
	flagChatModel string
	flagDim       int
	flagVerbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "codescope",
	Short: "Structural code search over source repositories",
	Long: `codescope indexes a source repository in stages: it walks the tree,
extracts functions and classes with tree-sitter, chunks them, embeds
the chunks, and serves similarity search over the result. Each stage
writes a JSON artifact so later stages can be re-run independently.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveDB returns the index database path, defaulting to a file
// inside the artifact directory.
func resolveDB() string {
	if flagDB != "" {
		return flagDB
	}
	return filepath.Join(flagOut, "index.db")
}

// newLogger builds the CLI logger. Progress detail is Info level and
// hidden unless --verbose is set.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if flagVerbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	return cfg.Build()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagOut, "out", ".codescope", "directory for stage artifacts and the index database")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "index database path (default <out>/index.db)")
	rootCmd.PersistentFlags().StringVar(&flagOllama, "ollama", "http://localhost:11434", "ollama base URL")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "nomic-embed-text", "embedding model")
	rootCmd.PersistentFlags().StringVar(&flagChatModel, "chat-model", "qwen3:8b", "generative model for answers and query expansion")
	rootCmd.PersistentFlags().IntVar(&flagDim, "dim", store.DefaultDim, "embedding dimension")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log per-stage progress")
}
