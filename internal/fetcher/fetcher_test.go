package fetcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	cases := []struct {
		url   string
		owner string
		repo  string
	}{
		{"https://github.com/golang/go", "golang", "go"},
		{"http://github.com/golang/go", "golang", "go"},
		{"github.com/golang/go", "golang", "go"},
		{"https://www.github.com/golang/go", "golang", "go"},
		{"https://github.com/golang/go/", "golang", "go"},
		{"https://github.com/golang/go.git", "golang", "go"},
		{"  https://github.com/golang/go  ", "golang", "go"},
		{"github.com/some-user/repo.name_x", "some-user", "repo.name_x"},
	}
	for _, tc := range cases {
		owner, repo, err := ValidateURL(tc.url)
		require.NoError(t, err, "url %q", tc.url)
		assert.Equal(t, tc.owner, owner, "url %q", tc.url)
		assert.Equal(t, tc.repo, repo, "url %q", tc.url)
	}
}

func TestValidateURLRejectsNonRepoURLs(t *testing.T) {
	cases := []string{
		"",
		"https://github.com/golang",
		"https://github.com/golang/go/tree/master/src",
		"https://gitlab.com/group/project",
		"not a url",
	}
	for _, url := range cases {
		_, _, err := ValidateURL(url)
		assert.Error(t, err, "url %q", url)
	}
}

func TestLocalPath(t *testing.T) {
	f := New("repos")
	assert.Equal(t, "repos/golang_go", f.LocalPath("golang", "go"))
}
