package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"codescope/internal/artifact"
	"codescope/internal/embedder"
	"codescope/internal/retrieve"
	"codescope/internal/store"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing codebase search tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	st, emb, err := openIndex()
	if err != nil {
		return err
	}
	defer st.Close()

	s := mcpserver.NewMCPServer("codescope", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(searchCodebaseTool(), makeSearchHandler(st, emb))
	s.AddTool(getRepoReadmeTool(), makeReadmeHandler())
	s.AddTool(getRepoStructureTool(), makeStructureHandler())
	s.AddTool(indexStatsTool(), makeStatsHandler(st))

	return mcpserver.ServeStdio(s)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func searchCodebaseTool() mcp.Tool {
	return mcp.NewTool("search_codebase",
		mcp.WithDescription("Semantically search the indexed codebase using vector similarity. Returns relevant code chunks with file paths, line numbers, and relevance scores."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language or keyword query to search the codebase"),
		),
		mcp.WithNumber("k",
			mcp.Description("Maximum number of chunks to return (default 5)"),
		),
	)
}

func getRepoReadmeTool() mcp.Tool {
	return mcp.NewTool("get_repo_readme",
		mcp.WithDescription("Get the README corpus collected for an indexed repository."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("repo",
			mcp.Required(),
			mcp.Description("Repository name as indexed (the directory name it was indexed from)"),
		),
	)
}

func getRepoStructureTool() mcp.Tool {
	return mcp.NewTool("get_repo_structure",
		mcp.WithDescription("Get the directory structure collected for an indexed repository, as nested JSON."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("repo",
			mcp.Required(),
			mcp.Description("Repository name as indexed (the directory name it was indexed from)"),
		),
	)
}

func indexStatsTool() mcp.Tool {
	return mcp.NewTool("index_stats",
		mcp.WithDescription("Get the number of indexed chunks and the embedding model used."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

// --- Handler factories ---

func makeSearchHandler(st store.Store, emb *embedder.OllamaEmbedder) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		k := req.GetInt("k", 5)
		if k <= 0 {
			k = 5
		}

		results, err := retrieve.MultiQuery(ctx, st, emb, []string{query}, k)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}

		return mcp.NewToolResultText(formatSearchResults(query, results)), nil
	}
}

func makeReadmeHandler() mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		repo := req.GetString("repo", "")
		if repo == "" {
			return mcp.NewToolResultError("repo is required"), nil
		}
		text, err := artifact.LoadText("readme", artifact.ReadmePath(flagOut, repo))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("load readme failed: %v", err)), nil
		}
		if strings.TrimSpace(text) == "" {
			return mcp.NewToolResultText("No README content was found in this repository."), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func makeStructureHandler() mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		repo := req.GetString("repo", "")
		if repo == "" {
			return mcp.NewToolResultError("repo is required"), nil
		}
		text, err := artifact.LoadText("structure", artifact.StructurePath(flagOut, repo))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("load structure failed: %v", err)), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func makeStatsHandler(st store.Store) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		count, err := st.Count()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("count failed: %v", err)), nil
		}
		model, err := st.GetMeta("embedding_model")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("get meta failed: %v", err)), nil
		}
		if model == "" {
			model = "(unknown)"
		}
		return mcp.NewToolResultText(fmt.Sprintf("Indexed chunks: %d\nEmbedding model: %s", count, model)), nil
	}
}

// --- Formatting helpers ---

func formatSearchResults(query string, results []store.SearchResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for query: %q", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search results for %q (%d chunks)\n\n", query, len(results))

	for i, r := range results {
		fmt.Fprintf(&sb, "### Result %d: `%s`\n\n", i+1, r.Document.FilePath)
		fmt.Fprintf(&sb, "**Lines:** %d-%d  \n**Relevance:** %.3f\n\n",
			r.Document.StartLine, r.Document.EndLine, r.Relevance)
		fmt.Fprintf(&sb, "```\n%s\n```\n\n", r.Document.Content)
	}

	return sb.String()
}
