package store

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codescope/internal/embedder"
)

func openTestStore(t *testing.T, dim int) *SQLiteStore {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "index.db"), dim)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func record(text string, vec []float32) embedder.Record {
	return embedder.Record{
		Content: text,
		Metadata: embedder.Metadata{
			FilePath:  "lib.py",
			StartLine: 1,
			EndLine:   2,
			Symbols:   []string{"def", text},
		},
		Embedding: vec,
	}
}

func TestIngestSkipsNullEmbeddings(t *testing.T) {
	st := openTestStore(t, 3)

	n, err := st.Ingest([]embedder.Record{
		record("a", []float32{1, 0, 0}),
		record("b", nil),
		record("c", []float32{0, 1, 0}),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := st.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestIngestRejectsWrongDimension(t *testing.T) {
	st := openTestStore(t, 3)

	_, err := st.Ingest([]embedder.Record{record("a", []float32{1, 0})})
	assert.ErrorContains(t, err, "dimension")
}

func TestSearchOrdersByDistance(t *testing.T) {
	st := openTestStore(t, 3)

	_, err := st.Ingest([]embedder.Record{
		record("exact", []float32{1, 0, 0}),
		record("near", []float32{0.9, 0.1, 0}),
		record("far", []float32{0, 0, 1}),
	})
	require.NoError(t, err)

	results, err := st.Search([]float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "exact", results[0].Document.Content)
	assert.Equal(t, "near", results[1].Document.Content)
	assert.Greater(t, results[0].Relevance, results[1].Relevance)
	assert.Equal(t, []string{"def", "exact"}, results[0].Document.Symbols)
}

func TestMetaRoundTrip(t *testing.T) {
	st := openTestStore(t, 3)

	value, err := st.GetMeta("embedding_model")
	require.NoError(t, err)
	assert.Equal(t, "", value)

	require.NoError(t, st.SetMeta("embedding_model", "nomic-embed-text"))
	require.NoError(t, st.SetMeta("embedding_model", "all-minilm"))

	value, err = st.GetMeta("embedding_model")
	require.NoError(t, err)
	assert.Equal(t, "all-minilm", value)
}

func TestDeleteAll(t *testing.T) {
	st := openTestStore(t, 3)

	_, err := st.Ingest([]embedder.Record{record("a", []float32{1, 0, 0})})
	require.NoError(t, err)

	require.NoError(t, st.DeleteAll())

	count, err := st.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRelevanceFromDistance(t *testing.T) {
	// Identical unit vectors: distance 0, full relevance.
	assert.InDelta(t, 1.0, RelevanceFromDistance(0), 1e-9)
	// Orthogonal unit vectors: distance sqrt(2), cosine 0.
	assert.InDelta(t, 0.5, RelevanceFromDistance(math.Sqrt2), 1e-9)
	// Opposite unit vectors: distance 2, cosine -1.
	assert.InDelta(t, 0.0, RelevanceFromDistance(2), 1e-9)
	// Out-of-band distances clamp instead of going negative.
	assert.Equal(t, 0.0, RelevanceFromDistance(10))

	// Monotonic: closer is never less relevant.
	prev := 1.1
	for d := 0.0; d <= 2.0; d += 0.05 {
		r := RelevanceFromDistance(d)
		assert.LessOrEqual(t, r, prev)
		prev = r
	}
}
