package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"codescope/internal/llm"
	"codescope/internal/retrieve"
)

var askCmd = &cobra.Command{
	Use:   "ask <path> <question>",
	Short: "Ask a question about the indexed repository",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args[1:], " ")

		st, emb, err := openIndex()
		if err != nil {
			return err
		}
		defer st.Close()

		queries := expandQueries(cmd.Context(), args[0], question)

		fmt.Println(dimStyle.Render("[Searching...]"))
		results, err := retrieve.MultiQuery(cmd.Context(), st, emb, queries, flagK)
		if err != nil {
			return err
		}

		chat := llm.NewOllamaChat(flagOllama, flagChatModel)
		msgs := retrieve.BuildMessages(results, question)

		answer, err := chat.Generate(cmd.Context(), msgs)
		if err != nil {
			return fmt.Errorf("generate answer: %w", err)
		}

		rendered, err := renderMarkdown(answer)
		if err != nil {
			// Fall back to the raw answer if the terminal renderer
			// can't be built.
			rendered = answer
		}
		fmt.Println(rendered)

		if len(results) > 0 {
			fmt.Println(dimStyle.Render("Sources:"))
			for _, r := range results {
				fmt.Println(dimStyle.Render(fmt.Sprintf("  %s:%d-%d (%.3f)",
					r.Document.FilePath, r.Document.StartLine, r.Document.EndLine, r.Relevance)))
			}
		}
		return nil
	},
}

func renderMarkdown(md string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

func init() {
	askCmd.Flags().IntVar(&flagK, "k", 5, "number of chunks to retrieve")
	askCmd.Flags().IntVar(&flagExpand, "expand", 3, "number of query rephrasings to generate (0 disables expansion)")
	rootCmd.AddCommand(askCmd)
}
