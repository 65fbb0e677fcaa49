package walker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileInfo holds metadata about a discovered repository file.
type FileInfo struct {
	Path    string // absolute path on disk
	RelPath string // slash-separated path relative to the root
	Ext     string // lowercased extension including the dot
}

// Tree is a nested mapping mirroring the directory hierarchy under the
// root. Directories map to their children; files map to empty nodes.
type Tree map[string]Tree

// allowedExtensions is the fixed allow-list of source and documentation
// extensions considered part of the corpus. VCS internals and build
// output fall away because nothing inside them carries these
// extensions.
var allowedExtensions = map[string]bool{
	".c":       true,
	".h":       true,
	".cpp":     true,
	".hpp":     true,
	".java":    true,
	".py":      true,
	".pyi":     true,
	".js":      true,
	".mjs":     true,
	".cjs":     true,
	".ts":      true,
	".tsx":     true,
	".go":      true,
	".rb":      true,
	".gemspec": true,
	".md":      true,
	".txt":     true,
	".rst":     true,
}

// Walk traverses the directory tree rooted at root and returns the
// eligible files plus the directory tree. filepath.WalkDir visits
// entries in lexical order per directory, so the returned sequence is
// stable across runs for the same filesystem state.
func Walk(root string) ([]FileInfo, Tree, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, err
	}
	info, err := os.Stat(absRoot)
	if err != nil || !info.IsDir() {
		return nil, nil, fmt.Errorf("not a valid directory: %s", root)
	}

	var files []FileInfo
	tree := Tree{}

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entry, keep walking
		}
		if path == absRoot {
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			tree.insert(rel)
			return nil
		}

		// Skip symlinks.
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !allowedExtensions[ext] {
			return nil
		}

		tree.insert(rel)
		files = append(files, FileInfo{
			Path:    path,
			RelPath: rel,
			Ext:     ext,
		})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk %s: %w", root, err)
	}

	return files, tree, nil
}

func (t Tree) insert(rel string) {
	node := t
	for _, part := range strings.Split(rel, "/") {
		child, ok := node[part]
		if !ok {
			child = Tree{}
			node[part] = child
		}
		node = child
	}
}

// Truncate returns a copy of the tree cut off at the given depth.
// Used to keep prompt context bounded when the tree is handed to the
// language model.
func (t Tree) Truncate(depth int) Tree {
	if depth <= 0 {
		return Tree{}
	}
	out := make(Tree, len(t))
	for name, child := range t {
		out[name] = child.Truncate(depth - 1)
	}
	return out
}
