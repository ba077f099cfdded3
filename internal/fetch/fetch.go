// Package fetch materialises one revision of a skill repository into the
// export store using a sparse, shallow git checkout.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/klauern/agentskills/internal/gitexec"
	"github.com/klauern/agentskills/internal/logging"
	"github.com/klauern/agentskills/internal/manifest"
	"github.com/klauern/agentskills/internal/store"
)

// Auxiliary directories exported alongside each SKILL.md.
var auxDirs = []string{"references", "scripts"}

// SparsePatterns returns the non-cone sparse-checkout patterns selecting the
// declared skills. Patterns are anchored at the repository root and
// de-duplicated in declaration order.
func SparsePatterns(skills []manifest.Skill) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, s := range skills {
		dir := manifest.SkillDir(s.Path)
		add("/" + path.Join(dir, manifest.SkillFile))
		for _, aux := range auxDirs {
			add("/" + path.Join(dir, aux) + "/**")
		}
	}
	return out
}

// Export describes a revision present in the store.
type Export struct {
	RepoID  string
	SHA     string
	Path    string
	Created bool
	// Refreshed is set when an existing export lacked a declared skill and
	// was re-cut from the fresh checkout.
	Refreshed bool
}

// Fetcher resolves revisions and imports them into a Store.
type Fetcher struct {
	Git   gitexec.Runner
	Store *store.Store
	// TempDir hosts the throwaway worktrees. Empty means os.TempDir().
	TempDir string
	Logger  *slog.Logger
}

// Export checks out rev of the repository at locator restricted to the
// skills' sparse patterns, and imports the result into the store keyed by the
// resolved commit. An export already present for that commit is reused, unless
// it lacks a skill the new checkout provides, in which case it is replaced.
func (f *Fetcher) Export(ctx context.Context, locator, rev string, skills []manifest.Skill) (Export, error) {
	patterns := SparsePatterns(skills)
	logger := logging.OrDiscard(f.Logger).With(logging.Repo(locator), logging.Rev(rev))
	defer logging.Timer(logger, "fetch")()

	work, err := os.MkdirTemp(f.TempDir, "agentskills-worktree-")
	if err != nil {
		return Export{}, fmt.Errorf("failed to create worktree: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(work); err != nil {
			logger.Warn("failed to remove worktree", logging.Path(work), logging.Err(err))
		}
	}()

	wt := gitexec.Worktree{Git: f.Git, Dir: work}
	sha, err := wt.Checkout(ctx, locator, rev, patterns)
	if err != nil {
		return Export{}, err
	}
	logger = logger.With(logging.SHA(sha))

	id := store.RepoID(locator)
	exp := Export{RepoID: id, SHA: sha, Path: f.Store.Path(id, sha)}

	created, err := f.Store.Import(id, sha, afero.NewOsFs(), work)
	if err != nil {
		return Export{}, err
	}
	exp.Created = created
	switch {
	case created:
		logger.Info("exported revision", logging.Path(exp.Path))
	case !Complete(exp.Path, skills) && Complete(work, skills):
		if err := f.Store.Replace(id, sha, afero.NewOsFs(), work); err != nil {
			return Export{}, err
		}
		exp.Refreshed = true
		logger.Info("refreshed export for new skills", logging.Path(exp.Path))
	default:
		logger.Debug("export already present", logging.Path(exp.Path))
	}
	return exp, nil
}

// Complete reports whether the export holds SKILL.md for every skill.
func Complete(exportPath string, skills []manifest.Skill) bool {
	for _, s := range skills {
		if _, ok := VerifySkill(exportPath, s.Path); !ok {
			return false
		}
	}
	return true
}

// VerifySkill checks that the export holds SKILL.md for the skill at p.
func VerifySkill(exportPath, p string) (string, bool) {
	dir := filepath.Join(exportPath, filepath.FromSlash(manifest.SkillDir(p)))
	info, err := os.Stat(filepath.Join(dir, manifest.SkillFile))
	return dir, err == nil && info.Mode().IsRegular()
}
