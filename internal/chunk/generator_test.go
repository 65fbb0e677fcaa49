package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codescope/internal/extractor"
)

func TestExtractSymbols(t *testing.T) {
	symbols := ExtractSymbols("def add(a, b):\n    return a + b\n")
	assert.Equal(t, []string{"def", "add", "a", "b", "return"}, symbols)
}

func TestExtractSymbolsEmpty(t *testing.T) {
	assert.Empty(t, ExtractSymbols("1 + 2"))
	assert.Empty(t, ExtractSymbols(""))
}

func TestGenerateOneChunkPerEntity(t *testing.T) {
	src := `def one():
    return 1


def two():
    return 2
`
	gen := NewGeneratorFromSource("lib.py", src)
	chunks := gen.Generate([]extractor.Entity{
		{Name: "one", StartLine: 1, EndLine: 2},
		{Name: "two", StartLine: 5, EndLine: 6},
	})

	require.Len(t, chunks, 2)
	assert.Equal(t, Chunk{
		FilePath:  "lib.py",
		StartLine: 1,
		EndLine:   2,
		Symbols:   []string{"def", "one", "return"},
		Text:      "def one():\n    return 1",
	}, chunks[0])
	assert.Equal(t, "def two():\n    return 2", chunks[1].Text)
	assert.Equal(t, 5, chunks[1].StartLine)
	assert.Equal(t, 6, chunks[1].EndLine)
}

func TestGenerateWholeFileFallback(t *testing.T) {
	src := "import os\n\nVALUE = 42\n"
	gen := NewGeneratorFromSource("config.py", src)
	chunks := gen.Generate(nil)

	require.Len(t, chunks, 1)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 3, chunks[0].EndLine)
	assert.Equal(t, "import os\n\nVALUE = 42", chunks[0].Text)
	assert.Equal(t, []string{"import", "os", "VALUE"}, chunks[0].Symbols)

	// The fallback text is the same line slice an entity spanning the
	// whole file would produce.
	assert.Equal(t, gen.slice(1, 3), chunks[0].Text)
}

func TestGenerateClampsOutOfRangeSpans(t *testing.T) {
	gen := NewGeneratorFromSource("short.py", "a = 1\nb = 2\n")
	chunks := gen.Generate([]extractor.Entity{
		{Name: "x", StartLine: 0, EndLine: 99},
	})

	require.Len(t, chunks, 1)
	assert.Equal(t, "a = 1\nb = 2\n", chunks[0].Text)
}
