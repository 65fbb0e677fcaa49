package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"codescope/internal/artifact"
	"codescope/internal/embedder"
	"codescope/internal/llm"
	"codescope/internal/metadata"
	"codescope/internal/retrieve"
	"codescope/internal/store"
	"codescope/internal/walker"
)

var (
	flagK      int
	flagExpand int
)

var queryCmd = &cobra.Command{
	Use:   "query <path> <question>",
	Short: "Search the indexed repository for relevant code",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args[1:], " ")

		st, emb, err := openIndex()
		if err != nil {
			return err
		}
		defer st.Close()

		queries := expandQueries(cmd.Context(), args[0], question)

		results, err := retrieve.MultiQuery(cmd.Context(), st, emb, queries, flagK)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println(dimStyle.Render("No results."))
			return nil
		}

		for i, r := range results {
			header := fmt.Sprintf("%d. %s (lines %d-%d)", i+1, r.Document.FilePath, r.Document.StartLine, r.Document.EndLine)
			fmt.Println(titleStyle.Render(header))
			fmt.Println(dimStyle.Render(fmt.Sprintf("   relevance %.3f", r.Relevance)))
			fmt.Println(indent(r.Document.Content, "   "))
			fmt.Println()
		}
		return nil
	},
}

// openIndex opens the vector store and embedding client, checking that
// an index actually exists.
func openIndex() (*store.SQLiteStore, *embedder.OllamaEmbedder, error) {
	dbPath := resolveDB()
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("index not found at %s\nRun 'codescope index <path>' first to build the index", dbPath)
	}
	st, err := store.Open(dbPath, flagDim)
	if err != nil {
		return nil, nil, fmt.Errorf("open index: %w", err)
	}
	return st, embedder.NewOllamaEmbedder(flagOllama, flagModel), nil
}

// expandQueries returns the original question plus up to --expand
// model-generated rephrasings, primed with the repository's README and
// structure artifacts when they exist.
func expandQueries(ctx context.Context, repoPath, question string) []string {
	if flagExpand <= 0 {
		return []string{question}
	}

	root, err := filepath.Abs(repoPath)
	if err != nil {
		return []string{question}
	}
	repoName := metadata.RepoName(root)

	readme, err := artifact.LoadText("readme", artifact.ReadmePath(flagOut, repoName))
	if err != nil {
		readme = "(not available)"
	}

	chat := llm.NewOllamaChat(flagOllama, flagChatModel)
	return llm.ExpandQuery(ctx, chat, question, flagExpand, readme, structureContext(repoName))
}

// structureContext loads the directory tree artifact truncated to a
// shallow depth so the expansion prompt stays bounded.
func structureContext(repoName string) string {
	var tree walker.Tree
	if err := artifact.LoadJSON("structure", artifact.StructurePath(flagOut, repoName), &tree); err != nil {
		return "(not available)"
	}
	data, err := json.Marshal(tree.Truncate(3))
	if err != nil {
		return "(not available)"
	}
	return string(data)
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

func init() {
	queryCmd.Flags().IntVar(&flagK, "k", 5, "number of chunks to return")
	queryCmd.Flags().IntVar(&flagExpand, "expand", 0, "number of query rephrasings to generate (0 disables expansion)")
	rootCmd.AddCommand(queryCmd)
}
