// Package chunk converts extracted file metadata into retrieval-sized
// chunks and assembles them repository-wide.
package chunk

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"codescope/internal/extractor"
)

// Chunk is a retrievable unit of text: one entity's span, or a whole
// file when no entities were detected.
type Chunk struct {
	FilePath  string   `json:"file_path"`
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
	Symbols   []string `json:"symbols"`
	Text      string   `json:"text"`
}

var identifierPattern = regexp.MustCompile(`\b[a-zA-Z_][a-zA-Z0-9_]*\b`)

// ExtractSymbols tokenizes text into identifier-like tokens,
// deduplicated. Order within the set carries no meaning, but
// first-occurrence order keeps the output stable.
func ExtractSymbols(text string) []string {
	seen := make(map[string]bool)
	var symbols []string
	for _, tok := range identifierPattern.FindAllString(text, -1) {
		if !seen[tok] {
			seen[tok] = true
			symbols = append(symbols, tok)
		}
	}
	return symbols
}

// Generator produces the chunk sequence for one file.
type Generator struct {
	filePath string // path recorded on chunks (relative)
	src      string
	lines    []string
}

// NewGenerator reads the file at path and labels its chunks with
// filePath.
func NewGenerator(path, filePath string) (*Generator, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return NewGeneratorFromSource(filePath, string(src)), nil
}

// NewGeneratorFromSource builds a Generator over in-memory source.
func NewGeneratorFromSource(filePath, src string) *Generator {
	return &Generator{
		filePath: filePath,
		src:      src,
		lines:    strings.Split(src, "\n"),
	}
}

// Generate returns one chunk per entity, in entity order. With no
// entities the whole file becomes a single chunk spanning line 1
// through the file's line count.
func (g *Generator) Generate(entities []extractor.Entity) []Chunk {
	if len(entities) == 0 {
		numLines := extractor.CountLines([]byte(g.src))
		text := g.slice(1, numLines)
		return []Chunk{{
			FilePath:  g.filePath,
			StartLine: 1,
			EndLine:   numLines,
			Symbols:   ExtractSymbols(text),
			Text:      text,
		}}
	}

	chunks := make([]Chunk, 0, len(entities))
	for _, ent := range entities {
		text := g.slice(ent.StartLine, ent.EndLine)
		chunks = append(chunks, Chunk{
			FilePath:  g.filePath,
			StartLine: ent.StartLine,
			EndLine:   ent.EndLine,
			Symbols:   ExtractSymbols(text),
			Text:      text,
		})
	}
	return chunks
}

// slice returns the verbatim source text for [start, end], 1-indexed
// and inclusive on both ends.
func (g *Generator) slice(start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(g.lines) {
		end = len(g.lines)
	}
	if start > end {
		return ""
	}
	return strings.Join(g.lines[start-1:end], "\n")
}
