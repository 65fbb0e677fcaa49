// Package retrieve runs similarity search across one or more query
// variants and assembles language-model prompts from the results.
package retrieve

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"codescope/internal/llm"
	"codescope/internal/store"
)

// QueryEmbedder embeds a single query string. Satisfied by
// embedder.OllamaEmbedder.
type QueryEmbedder interface {
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
}

const systemPrompt = `You are a code intelligence assistant. You answer questions about a codebase using the retrieved source code context provided below.

Focus on answering how, why, and where questions about the code. Reference specific file paths and line numbers when relevant.

Do not generate new code unless explicitly asked. Keep answers concise and grounded in the provided context. If the context doesn't contain enough information to answer, say so.`

// MultiQuery searches once per query variant and merges the results:
// deduplicated by document, keeping each document's best relevance,
// sorted descending, truncated to k. A variant whose embedding call
// fails is skipped; an error is returned only when no variant could
// be searched.
func MultiQuery(ctx context.Context, st store.Store, emb QueryEmbedder, queries []string, k int) ([]store.SearchResult, error) {
	best := make(map[int64]store.SearchResult)
	var lastErr error
	searched := 0

	for _, q := range queries {
		vec, err := emb.EmbedSingle(ctx, q)
		if err != nil {
			lastErr = fmt.Errorf("embed query %q: %w", q, err)
			continue
		}
		results, err := st.Search(vec, k)
		if err != nil {
			lastErr = fmt.Errorf("search %q: %w", q, err)
			continue
		}
		searched++
		for _, r := range results {
			if prev, ok := best[r.Document.ID]; !ok || r.Relevance > prev.Relevance {
				best[r.Document.ID] = r
			}
		}
	}

	if searched == 0 && lastErr != nil {
		return nil, lastErr
	}

	merged := make([]store.SearchResult, 0, len(best))
	for _, r := range best {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Relevance > merged[j].Relevance
	})
	if len(merged) > k {
		merged = merged[:k]
	}
	return merged, nil
}

// BuildMessages constructs the message list for the LLM from retrieved
// documents and the current question.
func BuildMessages(results []store.SearchResult, question string) []llm.Message {
	msgs := []llm.Message{{Role: "system", Content: systemPrompt}}

	if len(results) > 0 {
		var ctx strings.Builder
		ctx.WriteString("Here is the relevant source code context:\n\n")
		for i, r := range results {
			fmt.Fprintf(&ctx, "--- Chunk %d: %s (lines %d-%d, relevance %.2f) ---\n",
				i+1, r.Document.FilePath, r.Document.StartLine, r.Document.EndLine, r.Relevance)
			ctx.WriteString(r.Document.Content)
			ctx.WriteString("\n\n")
		}
		msgs = append(msgs, llm.Message{Role: "user", Content: ctx.String()})
		msgs = append(msgs, llm.Message{Role: "assistant", Content: "I've reviewed the code context. What would you like to know?"})
	}

	msgs = append(msgs, llm.Message{Role: "user", Content: question})
	return msgs
}
