// Package metadata drives extraction across an entire repository in a
// single traversal and persists the collected artifacts.
package metadata

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"codescope/internal/artifact"
	"codescope/internal/extractor"
	"codescope/internal/walker"
)

// Languages maps file extensions to language tags. The full table is
// kept for future extensibility; only languages in Enabled are
// actually extracted.
var Languages = map[string]string{
	".c":       "c",
	".h":       "c",
	".cpp":     "cpp",
	".hpp":     "cpp",
	".java":    "java",
	".py":      "python",
	".pyi":     "python",
	".js":      "javascript",
	".mjs":     "javascript",
	".cjs":     "javascript",
	".ts":      "typescript",
	".tsx":     "typescript",
	".go":      "go",
	".rb":      "ruby",
	".gemspec": "ruby",
}

// Enabled gates which languages run through the structural extractor.
var Enabled = map[string]bool{
	"python": true,
}

// readmePattern classifies documentation files by name.
var readmePattern = regexp.MustCompile(`(?i)^readme(\.(md|txt|rst))?$`)

// corpusDelimiter separates documentation snippets in the persisted
// README corpus.
const corpusDelimiter = "----------------------------------------"

// Result holds everything one collection pass produced, plus the paths
// the artifacts were persisted at.
type Result struct {
	Records      []extractor.FileRecord
	ReadmeCorpus string
	Structure    walker.Tree

	MetadataPath  string
	ReadmePath    string
	StructurePath string
}

// Collector walks a repository once, separating documentation files
// from code files, and persists three artifacts: structural metadata,
// the documentation corpus, and the directory tree.
type Collector struct {
	root      string
	outDir    string
	extractor *extractor.Extractor
	log       *zap.Logger
}

// NewCollector creates a Collector for the repository at root writing
// artifacts under outDir.
func NewCollector(root, outDir string, log *zap.Logger) *Collector {
	return &Collector{
		root:      root,
		outDir:    outDir,
		extractor: extractor.New(),
		log:       log.With(zap.String("stage", "collect")),
	}
}

// RepoName derives the repository's logical name from its root path.
func RepoName(root string) string {
	return filepath.Base(filepath.Clean(root))
}

// Run performs the traversal and persists the three artifacts. A
// failure on one file is logged and isolated; it never aborts the
// pass.
func (c *Collector) Run(ctx context.Context) (*Result, error) {
	files, tree, err := walker.Walk(c.root)
	if err != nil {
		return nil, err
	}

	var records []extractor.FileRecord
	var snippets []string

	for _, f := range files {
		if readmePattern.MatchString(filepath.Base(f.RelPath)) {
			snippet, err := readmeSnippet(f)
			if err != nil {
				c.log.Warn("read documentation file failed",
					zap.String("file", f.RelPath), zap.Error(err))
				continue
			}
			if snippet != "" {
				snippets = append(snippets, snippet)
			}
			continue
		}

		language, ok := Languages[f.Ext]
		if !ok || !Enabled[language] {
			continue
		}

		record, err := c.extractor.ExtractFile(ctx, f.Path, f.RelPath, language)
		if err != nil {
			c.log.Warn("extraction failed",
				zap.String("file", f.RelPath), zap.Error(err))
			continue
		}
		records = append(records, *record)
	}

	result := &Result{
		Records:      records,
		ReadmeCorpus: strings.Join(snippets, "\n"+corpusDelimiter+"\n"),
		Structure:    tree,
	}

	repoName := RepoName(c.root)
	result.MetadataPath = artifact.MetadataPath(c.outDir, repoName)
	result.ReadmePath = artifact.ReadmePath(c.outDir, repoName)
	result.StructurePath = artifact.StructurePath(c.outDir, repoName)

	if err := artifact.SaveJSON(result.MetadataPath, result.Records); err != nil {
		return nil, err
	}
	if err := artifact.SaveText(result.ReadmePath, result.ReadmeCorpus); err != nil {
		return nil, err
	}
	if err := artifact.SaveJSON(result.StructurePath, result.Structure); err != nil {
		return nil, err
	}

	c.log.Info("collection complete",
		zap.Int("files", len(files)),
		zap.Int("records", len(records)),
		zap.Int("readme_snippets", len(snippets)))
	return result, nil
}

// readmeSnippet loads a documentation file and labels it with its
// path. Empty files yield an empty snippet.
func readmeSnippet(f walker.FileInfo) (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", err
	}
	content := string(data)
	if strings.TrimSpace(content) == "" {
		return "", nil
	}
	return "file path-" + f.RelPath + "\ncontent-" + content, nil
}
