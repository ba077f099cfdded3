package fetch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klauern/agentskills/internal/gitexec/gittest"
	"github.com/klauern/agentskills/internal/manifest"
	"github.com/klauern/agentskills/internal/store"
)

func TestSparsePatterns(t *testing.T) {
	tests := map[string]struct {
		skills []manifest.Skill
		want   []string
	}{
		"nested skill": {
			skills: []manifest.Skill{{Name: "pdf", Path: "skills/pdf"}},
			want:   []string{"/skills/pdf/SKILL.md", "/skills/pdf/references/**", "/skills/pdf/scripts/**"},
		},
		"path names SKILL.md": {
			skills: []manifest.Skill{{Name: "pdf", Path: "skills/pdf/SKILL.md"}},
			want:   []string{"/skills/pdf/SKILL.md", "/skills/pdf/references/**", "/skills/pdf/scripts/**"},
		},
		"root skill": {
			skills: []manifest.Skill{{Name: "root", Path: "."}},
			want:   []string{"/SKILL.md", "/references/**", "/scripts/**"},
		},
		"duplicates collapse": {
			skills: []manifest.Skill{{Name: "a", Path: "x"}, {Name: "b", Path: "x/"}},
			want:   []string{"/x/SKILL.md", "/x/references/**", "/x/scripts/**"},
		},
		"no skills": {},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, SparsePatterns(tt.skills))
		})
	}
}

func newFetcher(t *testing.T) (*Fetcher, *gittest.Fake) {
	t.Helper()
	git := gittest.NewFake()
	tmp := t.TempDir()
	work := filepath.Join(tmp, "work")
	require.NoError(t, os.MkdirAll(work, 0o750))
	return &Fetcher{
		Git:     git,
		Store:   store.New(filepath.Join(tmp, "store"), nil),
		TempDir: work,
	}, git
}

func TestFetcher_Export(t *testing.T) {
	f, git := newFetcher(t)
	git.SetRev("https://example.com/skills", "v1", gittest.Commit{
		SHA: "0123456789abcdef0123456789abcdef01234567",
		Files: map[string]string{
			"pdf/SKILL.md":          "pdf",
			"pdf/references/api.md": "api",
			"pdf/unrelated.txt":     "nope",
			"docx/SKILL.md":         "docx",
		},
	})

	skills := []manifest.Skill{{Name: "pdf", Path: "pdf"}}
	exp, err := f.Export(context.Background(), "https://example.com/skills", "v1", skills)
	require.NoError(t, err)

	assert.True(t, exp.Created)
	assert.Equal(t, "https__example__com__skills", exp.RepoID)
	assert.Equal(t, "0123456789abcdef0123456789abcdef01234567", exp.SHA)
	assert.FileExists(t, filepath.Join(exp.Path, "pdf", "references", "api.md"))
	assert.NoFileExists(t, filepath.Join(exp.Path, "pdf", "unrelated.txt"))
	assert.NoDirExists(t, filepath.Join(exp.Path, "docx"))

	dir, ok := VerifySkill(exp.Path, "pdf/SKILL.md")
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(exp.Path, "pdf"), dir)

	_, ok = VerifySkill(exp.Path, "docx")
	assert.False(t, ok)

	entries, err := os.ReadDir(f.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "worktrees are removed after export")

	again, err := f.Export(context.Background(), "https://example.com/skills", "v1", skills)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, exp.Path, again.Path)
}

func TestFetcher_ExportUnknownRev(t *testing.T) {
	f, git := newFetcher(t)
	git.SetRev("repo", "main", gittest.Commit{SHA: "abc1234"})

	_, err := f.Export(context.Background(), "repo", "nope", []manifest.Skill{{Name: "root", Path: "."}})
	require.Error(t, err)

	ids, err := f.Store.Repos()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFetcher_ExportRefreshesNarrowExport(t *testing.T) {
	f, git := newFetcher(t)
	git.SetRev("repo", "main", gittest.Commit{
		SHA: "abc1234",
		Files: map[string]string{
			"pdf/SKILL.md":  "pdf",
			"docx/SKILL.md": "docx",
		},
	})

	first, err := f.Export(context.Background(), "repo", "main", []manifest.Skill{{Name: "pdf", Path: "pdf"}})
	require.NoError(t, err)
	require.True(t, first.Created)
	assert.NoDirExists(t, filepath.Join(first.Path, "docx"))

	both := []manifest.Skill{{Name: "pdf", Path: "pdf"}, {Name: "docx", Path: "docx"}}
	second, err := f.Export(context.Background(), "repo", "main", both)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.True(t, second.Refreshed)
	assert.True(t, Complete(second.Path, both))

	third, err := f.Export(context.Background(), "repo", "main", both)
	require.NoError(t, err)
	assert.False(t, third.Refreshed)
}
