package e2e

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauern/agentskills/internal/manifest"
	"github.com/klauern/agentskills/internal/store"
)

// newSkillRepo returns a repository holding two skills, tagged v1 on main.
func newSkillRepo(t *testing.T) (*GitRepo, string) {
	t.Helper()
	repo := NewGitRepo(t)
	repo.WriteSkill("skills/pdf", "pdf", "Read PDFs")
	repo.WriteFile("skills/pdf/scripts/extract.sh", "#!/bin/sh\necho extract\n")
	repo.WriteFile("skills/pdf/references/format.md", "# format\n")
	repo.WriteFile("skills/pdf/notes.md", "not exported\n")
	repo.WriteSkill("skills/xlsx", "xlsx", "Read spreadsheets")
	repo.WriteFile("README.md", "# skills\n")
	sha := repo.Commit("initial skills")
	repo.Tag("v1")
	return repo, sha
}

func (h *Harness) exportDir(locator, sha string) string {
	return filepath.Join(h.projectDir, manifest.DefaultStoreDir, store.RepoID(locator), sha)
}

func TestInitAndList(t *testing.T) {
	h := NewHarness(t)

	r := h.Run("init")
	AssertSuccess(t, r)
	AssertOutputContains(t, r, "Initialized "+h.ManifestPath())
	AssertFileExists(t, h.ManifestPath())

	r = h.Run("list")
	AssertSuccess(t, r)
	AssertOutputEquals(t, r, "No repos configured.\n")

	r = h.Run("init")
	AssertError(t, r)
	AssertErrorContains(t, r, "already exists")
}

func TestInstallExportsAndLinks(t *testing.T) {
	h := NewHarness(t)
	repo, sha := newSkillRepo(t)
	AssertSuccess(t, h.Run("init"))

	r := h.Run("install", "--rev", "v1", "--skill", "pdf", "--path", "skills/pdf", "-a", "claude", "-a", "codex", repo.URL())
	AssertSuccess(t, r)
	AssertOutputContains(t, r, "Updated "+h.ManifestPath())

	cfg := h.Manifest()
	got, ok := cfg.Repo(repo.URL())
	if !ok {
		t.Fatal("repo missing from manifest")
	}
	if got.ResolvedSHA != sha {
		t.Errorf("resolved_sha = %q, want %q", got.ResolvedSHA, sha)
	}

	export := h.exportDir(repo.URL(), sha)
	AssertFileExists(t, filepath.Join(export, "skills/pdf/SKILL.md"))
	AssertFileExists(t, filepath.Join(export, "skills/pdf/scripts/extract.sh"))
	AssertFileExists(t, filepath.Join(export, "skills/pdf/references/format.md"))
	AssertFileNotExists(t, filepath.Join(export, "skills/pdf/notes.md"))
	AssertFileNotExists(t, filepath.Join(export, "skills/xlsx/SKILL.md"))
	AssertFileNotExists(t, filepath.Join(export, "README.md"))
	AssertFileNotExists(t, filepath.Join(export, ".git"))

	project := h.Project()
	AssertSymlink(t, project.Path(".claude/skills/pdf"))
	AssertSymlink(t, project.Path(".codex/skills/pdf"))
	if project.Exists(".opencode/skills/pdf") {
		t.Error("skill linked for an agent it was not enabled for")
	}

	r = h.Run("list")
	AssertSuccess(t, r)
	AssertOutputContains(t, r, "  - pdf [claude, codex] (skills/pdf)")
}

func TestInstallRootSkill(t *testing.T) {
	h := NewHarness(t)
	repo := NewGitRepo(t)
	repo.WriteSkill(".", "root", "")
	repo.WriteFile("scripts/run.sh", "#!/bin/sh\n")
	sha := repo.Commit("root skill")
	AssertSuccess(t, h.Run("init"))

	r := h.Run("install", "--rev", "main", "--skill", "root", "--path", "SKILL.md", "-a", "claude", repo.URL())
	AssertSuccess(t, r)

	AssertSymlink(t, h.Project().Path(".claude/skills/root"))
	AssertFileExists(t, filepath.Join(h.exportDir(repo.URL(), sha), "scripts/run.sh"))
}

func TestSyncIsLockedUntilUpdate(t *testing.T) {
	h := NewHarness(t)
	repo, first := newSkillRepo(t)
	AssertSuccess(t, h.Run("init"))
	AssertSuccess(t, h.Run("install", "--rev", "main", "--skill", "pdf", "--path", "skills/pdf", "-a", "claude", repo.URL()))

	repo.WriteSkill("skills/pdf", "pdf", "Read PDFs, second edition")
	second := repo.Commit("update pdf")

	r := h.Run("sync")
	AssertSuccess(t, r)
	AssertOutputContains(t, r, "Sync complete.")
	if got, _ := h.Manifest().Repo(repo.URL()); got.ResolvedSHA != first {
		t.Errorf("sync moved a locked repo to %s", got.ResolvedSHA)
	}

	r = h.Run("update")
	AssertSuccess(t, r)
	AssertOutputContains(t, r, "Update complete.")
	if got, _ := h.Manifest().Repo(repo.URL()); got.ResolvedSHA != second {
		t.Errorf("update resolved %s, want %s", got.ResolvedSHA, second)
	}

	AssertFileContains(t, h.Project().Path(".claude/skills/pdf/SKILL.md"), "second edition")
	AssertFileNotExists(t, h.exportDir(repo.URL(), first))
}

func TestFailedInstallRollsBack(t *testing.T) {
	h := NewHarness(t)
	repo, sha := newSkillRepo(t)
	AssertSuccess(t, h.Run("init"))
	before := h.Project().ReadFile(manifest.DefaultFileName)

	r := h.Run("install", "--rev", "v1", "--skill", "ghost", "--path", "skills/ghost", "-a", "claude", repo.URL())
	AssertError(t, r)
	AssertErrorContains(t, r, "ghost")

	AssertFileEquals(t, h.ManifestPath(), before)
	AssertFileNotExists(t, h.exportDir(repo.URL(), sha))
}

func TestInstallUnknownRevision(t *testing.T) {
	h := NewHarness(t)
	repo, _ := newSkillRepo(t)
	AssertSuccess(t, h.Run("init"))
	before := h.Project().ReadFile(manifest.DefaultFileName)

	r := h.Run("install", "--rev", "does-not-exist", "--skill", "pdf", "--path", "skills/pdf", repo.URL())
	AssertError(t, r)
	AssertErrorContains(t, r, "fetch failed")
	AssertFileEquals(t, h.ManifestPath(), before)
}

func TestEnableThenSync(t *testing.T) {
	h := NewHarness(t)
	repo, _ := newSkillRepo(t)
	AssertSuccess(t, h.Run("init"))
	AssertSuccess(t, h.Run("install", "--rev", "v1", "--skill", "xlsx", "--path", "skills/xlsx", repo.URL()))

	if h.Project().Exists(".claude/skills/xlsx") {
		t.Fatal("unassigned skill should not be linked")
	}

	r := h.Run("enable", "-a", "claude", "xlsx")
	AssertSuccess(t, r)
	AssertOutputContains(t, r, "Enabled xlsx for claude")

	AssertSuccess(t, h.Run("sync"))
	AssertSymlink(t, h.Project().Path(".claude/skills/xlsx"))
}

func TestSyncConflictAndForce(t *testing.T) {
	h := NewHarness(t)
	repo, _ := newSkillRepo(t)
	AssertSuccess(t, h.Run("init"))
	AssertSuccess(t, h.Run("install", "--rev", "v1", "--skill", "pdf", "--path", "skills/pdf", "--no-sync", repo.URL()))
	AssertSuccess(t, h.Run("enable", "-a", "claude", "pdf"))

	h.Project().WriteFile(".claude/skills/pdf", "hand-written")

	r := h.Run("sync")
	AssertError(t, r)
	AssertErrorContains(t, r, "--force")

	AssertSuccess(t, h.Run("sync", "--force"))
	AssertSymlink(t, h.Project().Path(".claude/skills/pdf"))
}

func TestPruneRemovesUnrecordedExports(t *testing.T) {
	h := NewHarness(t)
	repo, sha := newSkillRepo(t)
	AssertSuccess(t, h.Run("init"))
	AssertSuccess(t, h.Run("install", "--rev", "v1", "--skill", "pdf", "--path", "skills/pdf", "-a", "claude", repo.URL()))

	storeDir := manifest.DefaultStoreDir
	project := h.Project()
	project.WriteFile(filepath.Join(storeDir, store.RepoID(repo.URL()), "deadbeef", "SKILL.md"), "stale")
	project.WriteFile(filepath.Join(storeDir, store.RepoID(repo.URL()), ".tmp-deadbeef-1", "SKILL.md"), "partial")
	project.WriteFile(filepath.Join(storeDir, "unknown__repo", "cafe", "SKILL.md"), "orphan")

	r := h.Run("prune")
	AssertSuccess(t, r)
	AssertOutputContains(t, r, "Pruned 3 store entries.")

	AssertFileExists(t, h.exportDir(repo.URL(), sha))
	for _, rel := range []string{
		filepath.Join(storeDir, store.RepoID(repo.URL()), "deadbeef"),
		filepath.Join(storeDir, store.RepoID(repo.URL()), ".tmp-deadbeef-1"),
		filepath.Join(storeDir, "unknown__repo"),
	} {
		if project.Exists(rel) {
			t.Errorf("%s survived prune", rel)
		}
	}
}

func TestManifestBackups(t *testing.T) {
	h := NewHarness(t)
	repo, _ := newSkillRepo(t)
	AssertSuccess(t, h.Run("init"))
	AssertSuccess(t, h.Run("install", "--rev", "v1", "--no-sync", repo.URL()))

	entries, err := os.ReadDir(filepath.Join(h.HomeDir(), "backups", store.RepoID(h.ProjectDir())))
	if err != nil {
		t.Fatalf("expected project backup directory: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 backup, got %d", len(entries))
	}
}
