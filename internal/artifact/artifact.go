// Package artifact defines the persisted stage outputs of the pipeline
// and the paths they live at. Every stage writes its artifact exactly
// once; downstream stages load by path and never mutate.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// NotFoundError reports a missing stage artifact. It names the stage
// that should have produced the file so a caller can tell which part
// of the pipeline has not run yet.
type NotFoundError struct {
	Stage string
	Path  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s artifact not found: %s", e.Stage, e.Path)
}

// MetadataPath is where the collector writes the FileRecord list.
func MetadataPath(outDir, repoName string) string {
	return filepath.Join(outDir, repoName+"_metadata.json")
}

// ReadmePath is where the collector writes the documentation corpus.
func ReadmePath(outDir, repoName string) string {
	return filepath.Join(outDir, repoName+"_readme.txt")
}

// StructurePath is where the collector writes the directory tree.
func StructurePath(outDir, repoName string) string {
	return filepath.Join(outDir, repoName+"_structure.json")
}

// ChunksPath is where the orchestrator writes the flattened chunk list.
func ChunksPath(outDir, repoName string) string {
	return filepath.Join(outDir, repoName+"_chunks.json")
}

// EmbeddingsPath is where the embedding generator writes its records.
func EmbeddingsPath(outDir, repoName string) string {
	return filepath.Join(outDir, repoName+"_embeddings.json")
}

// SaveJSON writes v as indented JSON, creating the directory if needed.
func SaveJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LoadJSON reads the artifact at path into v. A missing file yields a
// *NotFoundError carrying the stage name.
func LoadJSON(stage, path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{Stage: stage, Path: path}
		}
		return fmt.Errorf("read %s artifact: %w", stage, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s artifact %s: %w", stage, path, err)
	}
	return nil
}

// SaveText writes a plain-text artifact (the documentation corpus).
func SaveText(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LoadText reads a plain-text artifact, with the same missing-file
// semantics as LoadJSON.
func LoadText(stage, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &NotFoundError{Stage: stage, Path: path}
		}
		return "", fmt.Errorf("read %s artifact: %w", stage, err)
	}
	return string(data), nil
}
