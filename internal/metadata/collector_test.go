package metadata

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

func TestCollectorSeparatesDocsFromCode(t *testing.T) {
	root := t.TempDir()
	outDir := t.TempDir()
	writeFile(t, root, "README.md", "Hello\n")
	writeFile(t, root, "docs/readme.txt", "Nested docs\n")
	writeFile(t, root, "app/main.py", "def run():\n    pass\n")

	collector := NewCollector(root, outDir, zap.NewNop())
	res, err := collector.Run(context.Background())
	require.NoError(t, err)

	// Code side: only the python file produced a record, README files
	// never reach the extractor.
	require.Len(t, res.Records, 1)
	assert.Equal(t, "app/main.py", res.Records[0].FilePath)
	assert.Equal(t, "python", res.Records[0].Language)
	require.Len(t, res.Records[0].Entities, 1)
	assert.Equal(t, "run", res.Records[0].Entities[0].Name)

	// Docs side: both README files landed in the corpus, labeled and
	// delimited.
	assert.Contains(t, res.ReadmeCorpus, "file path-README.md\ncontent-Hello\n")
	assert.Contains(t, res.ReadmeCorpus, "file path-docs/readme.txt\ncontent-Nested docs\n")
	assert.Contains(t, res.ReadmeCorpus, corpusDelimiter)
}

func TestCollectorSkipsDisabledLanguages(t *testing.T) {
	root := t.TempDir()
	outDir := t.TempDir()
	writeFile(t, root, "server.go", "package main\n")
	writeFile(t, root, "lib.py", "x = 1\n")

	collector := NewCollector(root, outDir, zap.NewNop())
	res, err := collector.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	assert.Equal(t, "lib.py", res.Records[0].FilePath)
}

func TestCollectorSkipsEmptyDocs(t *testing.T) {
	root := t.TempDir()
	outDir := t.TempDir()
	writeFile(t, root, "README.md", "   \n")
	writeFile(t, root, "lib.py", "x = 1\n")

	collector := NewCollector(root, outDir, zap.NewNop())
	res, err := collector.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, res.ReadmeCorpus)
}

func TestCollectorPersistsArtifacts(t *testing.T) {
	root := filepath.Join(t.TempDir(), "myrepo")
	outDir := t.TempDir()
	writeFile(t, root, "README.md", "Hello\n")
	writeFile(t, root, "main.py", "def run():\n    pass\n")

	collector := NewCollector(root, outDir, zap.NewNop())
	res, err := collector.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(outDir, "myrepo_metadata.json"), res.MetadataPath)
	assert.Equal(t, filepath.Join(outDir, "myrepo_readme.txt"), res.ReadmePath)
	assert.Equal(t, filepath.Join(outDir, "myrepo_structure.json"), res.StructurePath)

	var records []extractor.FileRecord
	require.NoError(t, artifact.LoadJSON("metadata", res.MetadataPath, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "main.py", records[0].FilePath)

	corpus, err := artifact.LoadText("readme", res.ReadmePath)
	require.NoError(t, err)
	assert.Equal(t, res.ReadmeCorpus, corpus)
}

func TestRepoName(t *testing.T) {
	assert.Equal(t, "myrepo", RepoName("/tmp/work/myrepo"))
	assert.Equal(t, "myrepo", RepoName("/tmp/work/myrepo/"))
	assert.Equal(t, "myrepo", RepoName("myrepo"))
}
