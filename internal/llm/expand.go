package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const expandPrompt = `You rewrite code-search queries. Given a user's question about a repository, produce %d alternate phrasings that would retrieve relevant code: use synonyms, likely identifier names, and more specific technical terms.

Return ONLY a JSON array of %d strings. No prose, no markdown fences.

Repository README (may be truncated):
%s

Repository structure:
%s

Original query: %q`

// ExpandQuery asks the chat model for n alternate phrasings of query
// and returns them prepended with the original. Expansion is best
// effort: any service or parse failure yields just the original
// query, never an error.
func ExpandQuery(ctx context.Context, chat *OllamaChat, query string, n int, readme, structure string) []string {
	prompt := fmt.Sprintf(expandPrompt, n, n, readme, structure, query)
	response, err := chat.Generate(ctx, []Message{{Role: "user", Content: prompt}})
	if err != nil {
		return []string{query}
	}
	variants := ParseQueryVariants(response)
	return append([]string{query}, variants...)
}

// ParseQueryVariants parses a model response expected to be a JSON
// array of strings. Markdown fences are tolerated. Any parse or shape
// failure means "no expansion available" and returns nil.
func ParseQueryVariants(raw string) []string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	var variants []string
	if err := json.Unmarshal([]byte(s), &variants); err != nil {
		return nil
	}

	out := variants[:0]
	for _, v := range variants {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
