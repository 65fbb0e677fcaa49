// Package extractor parses one source file into its concrete syntax
// tree and pulls out the structural metadata that downstream chunking
// and retrieval stages consume.
package extractor

import (
	"context"
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Entity kinds.
const (
	KindFunction = "function"
	KindClass    = "class"
)

// Parameter kinds.
const (
	ParamPositional     = "positional"
	ParamTyped          = "typed"
	ParamDefaulted      = "defaulted"
	ParamTypedDefaulted = "typed-defaulted"
	ParamVariadicArgs   = "variadic-positional"
	ParamVariadicKwargs = "variadic-keyword"
)

// Param describes one parameter of a function entity.
type Param struct {
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	TypeAnnotation string `json:"type_annotation,omitempty"`
	DefaultValue   string `json:"default_value,omitempty"`
}

// MethodSummary is the lightweight method listing carried by a class
// entity. Methods also appear as full function entities in the file's
// entity list.
type MethodSummary struct {
	Name      string `json:"name"`
	Docstring string `json:"docstring,omitempty"`
}

// Entity is one extracted function or class definition.
type Entity struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	StartLine  int      `json:"start_line"`
	EndLine    int      `json:"end_line"`
	Docstring  string   `json:"docstring,omitempty"`
	Decorators []string `json:"decorators,omitempty"`
	Visibility string   `json:"visibility"`

	// Function-only fields.
	Parameters []Param `json:"parameters,omitempty"`
	ReturnType string  `json:"return_type_annotation,omitempty"`
	IsAsync    bool    `json:"is_async,omitempty"`

	// Class-only fields.
	BaseClasses []string        `json:"base_classes,omitempty"`
	Methods     []MethodSummary `json:"methods,omitempty"`
}

// FileRecord is the structural summary of one source file. It is
// created once by the extractor and immutable afterwards.
type FileRecord struct {
	FilePath      string   `json:"file_path"`
	Language      string   `json:"language"`
	NumLines      int      `json:"num_lines"`
	FileDocstring string   `json:"file_docstring,omitempty"`
	Imports       []string `json:"imports,omitempty"`
	Entities      []Entity `json:"entities"`
}

// Extractor parses source files with tree-sitter and extracts
// FileRecords. Languages are pluggable in principle; Python is the
// one wired in.
type Extractor struct{}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// ExtractFile reads path from disk and extracts its FileRecord,
// labeled with relPath.
func (e *Extractor) ExtractFile(ctx context.Context, path, relPath, language string) (*FileRecord, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return e.Extract(ctx, relPath, language, src)
}

// Extract parses src and extracts the FileRecord for it. Entities are
// returned sorted ascending by start line. A parse failure is returned
// as an error; callers batching over many files are expected to log
// and skip rather than abort.
func (e *Extractor) Extract(ctx context.Context, path, language string, src []byte) (*FileRecord, error) {
	lang, err := grammarFor(language)
	if err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	record := &FileRecord{
		FilePath:      path,
		Language:      language,
		NumLines:      CountLines(src),
		FileDocstring: fileDocstring(root, src),
		Imports:       collectImports(root, src),
		Entities:      collectEntities(root, src),
	}
	return record, nil
}

func grammarFor(language string) (*sitter.Language, error) {
	switch language {
	case "python":
		return python.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", language)
	}
}

// CountLines reports the number of lines in src, counting a trailing
// newline as terminating the last line rather than opening a new one.
func CountLines(src []byte) int {
	if len(src) == 0 {
		return 0
	}
	lines := strings.Split(string(src), "\n")
	if lines[len(lines)-1] == "" {
		return len(lines) - 1
	}
	return len(lines)
}
