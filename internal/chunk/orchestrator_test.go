package chunk

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"codescope/internal/artifact"
	"codescope/internal/extractor"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestOrchestratorRoundTrip(t *testing.T) {
	root := t.TempDir()
	outDir := t.TempDir()
	writeFile(t, root, "lib.py", "def one():\n    return 1\n")

	metadataPath := artifact.MetadataPath(outDir, "repo")
	require.NoError(t, artifact.SaveJSON(metadataPath, []extractor.FileRecord{
		{
			FilePath: "lib.py",
			Language: "python",
			Entities: []extractor.Entity{{Name: "one", Kind: "function", StartLine: 1, EndLine: 2}},
		},
	}))

	o := NewOrchestrator(root, metadataPath, "repo", outDir, zap.NewNop())
	outPath, chunks, err := o.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, chunks, 1)
	assert.Equal(t, "def one():\n    return 1", chunks[0].Text)
	assert.Equal(t, "lib.py", chunks[0].FilePath)

	// The artifact on disk matches what was returned.
	assert.Equal(t, artifact.ChunksPath(outDir, "repo"), outPath)
	var persisted []Chunk
	require.NoError(t, artifact.LoadJSON("chunks", outPath, &persisted))
	assert.Equal(t, chunks, persisted)
}

func TestOrchestratorMissingMetadataIsFatal(t *testing.T) {
	root := t.TempDir()
	outDir := t.TempDir()

	o := NewOrchestrator(root, artifact.MetadataPath(outDir, "repo"), "repo", outDir, zap.NewNop())
	_, _, err := o.Run(context.Background())

	var notFound *artifact.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "metadata", notFound.Stage)
}

func TestOrchestratorSkipsUnmatchedFiles(t *testing.T) {
	root := t.TempDir()
	outDir := t.TempDir()
	writeFile(t, root, "present.py", "x = 1\n")
	writeFile(t, root, "unlisted.py", "y = 2\n")

	metadataPath := artifact.MetadataPath(outDir, "repo")
	require.NoError(t, artifact.SaveJSON(metadataPath, []extractor.FileRecord{
		{FilePath: "present.py", Language: "python"},
		{FilePath: "deleted.py", Language: "python"},
	}))

	o := NewOrchestrator(root, metadataPath, "repo", outDir, zap.NewNop())
	_, chunks, err := o.Run(context.Background())
	require.NoError(t, err)

	// present.py had no entities, so it became a whole-file chunk.
	// unlisted.py has no metadata and deleted.py no file; both skipped.
	require.Len(t, chunks, 1)
	assert.Equal(t, "present.py", chunks[0].FilePath)
	assert.Equal(t, "x = 1", chunks[0].Text)
}
