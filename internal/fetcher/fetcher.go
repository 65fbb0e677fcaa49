// Package fetcher turns a GitHub repository URL into a local clone
// ready for indexing.
package fetcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	git "github.com/go-git/go-git/v5"
)

// Result describes an acquired repository.
type Result struct {
	Owner      string
	Repo       string
	LocalPath  string
	TotalFiles int
	Status     string
}

var githubPattern = regexp.MustCompile(`^https://github\.com/([a-zA-Z0-9._-]+)/([a-zA-Z0-9._-]+)$`)

// ValidateURL normalizes a GitHub repository URL in its common
// variants and extracts owner and repository name.
func ValidateURL(rawURL string) (owner, repo string, err error) {
	url := strings.TrimSpace(rawURL)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	url = strings.Replace(url, "http://", "https://", 1)
	url = strings.Replace(url, "://www.github.com", "://github.com", 1)
	url = strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")

	m := githubPattern.FindStringSubmatch(url)
	if m == nil {
		return "", "", fmt.Errorf("invalid GitHub URL format, expected github.com/owner/repo: %s", rawURL)
	}
	return m[1], m[2], nil
}

// Fetcher clones repositories under a base directory.
type Fetcher struct {
	baseDir string
}

// New creates a Fetcher that clones under baseDir.
func New(baseDir string) *Fetcher {
	return &Fetcher{baseDir: baseDir}
}

// LocalPath returns where a repository is (or will be) cloned.
func (f *Fetcher) LocalPath(owner, repo string) string {
	return filepath.Join(f.baseDir, owner+"_"+repo)
}

// Fetch validates the URL, shallow-clones the repository, and reports
// the local path and file count. An existing clone at the target path
// is replaced.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	owner, repo, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	localPath := f.LocalPath(owner, repo)
	if err := os.RemoveAll(localPath); err != nil {
		return nil, fmt.Errorf("clear existing clone: %w", err)
	}
	if err := os.MkdirAll(f.baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create clone directory: %w", err)
	}

	_, err = git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{
		URL:   fmt.Sprintf("https://github.com/%s/%s", owner, repo),
		Depth: 1,
	})
	if err != nil {
		os.RemoveAll(localPath)
		return nil, fmt.Errorf("clone %s/%s: %w", owner, repo, err)
	}

	count, err := countFiles(localPath)
	if err != nil {
		return nil, err
	}

	return &Result{
		Owner:      owner,
		Repo:       repo,
		LocalPath:  localPath,
		TotalFiles: count,
		Status:     "cloned",
	}, nil
}

// countFiles counts regular files in the clone, excluding VCS
// internals.
func countFiles(root string) (int, error) {
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return count, nil
}
