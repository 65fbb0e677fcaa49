package retrieve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codescope/internal/embedder"
	"codescope/internal/store"
)

// fakeEmbedder maps query text to a fixed vector; unknown queries fail.
type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vec, ok := f.vectors[text]
	if !ok {
		return nil, errors.New("embedding unavailable")
	}
	return vec, nil
}

// fakeStore answers searches from a canned result table keyed by the
// first vector component.
type fakeStore struct {
	results map[float32][]store.SearchResult
	err     error
}

func (f *fakeStore) Search(vec []float32, k int) ([]store.SearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results[vec[0]], nil
}

func (f *fakeStore) Ingest([]embedder.Record) (int, error) { return 0, nil }
func (f *fakeStore) Count() (int, error)                   { return 0, nil }
func (f *fakeStore) GetMeta(string) (string, error)        { return "", nil }
func (f *fakeStore) SetMeta(string, string) error          { return nil }
func (f *fakeStore) DeleteAll() error                      { return nil }
func (f *fakeStore) Close() error                          { return nil }

func result(id int64, path string, relevance float64) store.SearchResult {
	return store.SearchResult{
		Document:  store.Document{ID: id, FilePath: path, Content: "body"},
		Relevance: relevance,
	}
}

func TestMultiQueryMergesByBestRelevance(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"original": {1},
		"variant":  {2},
	}}
	st := &fakeStore{results: map[float32][]store.SearchResult{
		1: {result(10, "a.py", 0.6), result(20, "b.py", 0.5)},
		2: {result(10, "a.py", 0.9), result(30, "c.py", 0.4)},
	}}

	merged, err := MultiQuery(context.Background(), st, emb, []string{"original", "variant"}, 10)
	require.NoError(t, err)

	require.Len(t, merged, 3)
	// Document 10 appears once, with the better relevance from the
	// variant search, and results are sorted descending.
	assert.Equal(t, int64(10), merged[0].Document.ID)
	assert.Equal(t, 0.9, merged[0].Relevance)
	assert.Equal(t, int64(20), merged[1].Document.ID)
	assert.Equal(t, int64(30), merged[2].Document.ID)
}

func TestMultiQueryTruncatesToK(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{"q": {1}}}
	st := &fakeStore{results: map[float32][]store.SearchResult{
		1: {result(1, "a.py", 0.9), result(2, "b.py", 0.8), result(3, "c.py", 0.7)},
	}}

	merged, err := MultiQuery(context.Background(), st, emb, []string{"q"}, 2)
	require.NoError(t, err)
	require.Len(t, merged, 2)
	assert.Equal(t, int64(1), merged[0].Document.ID)
	assert.Equal(t, int64(2), merged[1].Document.ID)
}

func TestMultiQuerySkipsFailedVariants(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{"good": {1}}}
	st := &fakeStore{results: map[float32][]store.SearchResult{
		1: {result(1, "a.py", 0.9)},
	}}

	merged, err := MultiQuery(context.Background(), st, emb, []string{"good", "bad variant"}, 5)
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, int64(1), merged[0].Document.ID)
}

func TestMultiQueryErrorsWhenNothingSearched(t *testing.T) {
	emb := &fakeEmbedder{}
	st := &fakeStore{}

	_, err := MultiQuery(context.Background(), st, emb, []string{"q1", "q2"}, 5)
	assert.ErrorContains(t, err, "embedding unavailable")
}

func TestBuildMessages(t *testing.T) {
	results := []store.SearchResult{
		{
			Document:  store.Document{FilePath: "auth.py", StartLine: 10, EndLine: 20, Content: "def login(): ..."},
			Relevance: 0.92,
		},
	}

	msgs := BuildMessages(results, "how does login work?")

	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "user", msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "auth.py")
	assert.Contains(t, msgs[1].Content, "def login(): ...")
	assert.Equal(t, "assistant", msgs[2].Role)
	assert.Equal(t, "how does login work?", msgs[3].Content)
}

func TestBuildMessagesWithoutContext(t *testing.T) {
	msgs := BuildMessages(nil, "anything indexed?")

	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "anything indexed?", msgs[1].Content)
}
