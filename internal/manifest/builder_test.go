package manifest

import (
	"errors"
	"slices"
	"testing"
)

func testConfig() Config {
	return Config{
		Version:  Version,
		StoreDir: DefaultStoreDir,
		Agents:   map[string]Agent{"codex": {TargetDir: ".codex/skills"}},
		Repos: []Repo{
			{
				Repo:        "https://example.com/a",
				Rev:         "v1",
				ResolvedSHA: "aaaaaaa",
				Skills:      []Skill{{Name: "pdf", Path: "pdf", Agents: []string{"codex"}}},
			},
			{Repo: "https://example.com/b", Rev: "main"},
		},
	}
}

func TestBuilder_DoesNotAliasSource(t *testing.T) {
	cfg := testConfig()
	b := NewBuilder(cfg)

	b.SetResolved("https://example.com/a", "bbbbbbb")
	if _, err := b.EnableAgents("pdf", "claude"); err != nil {
		t.Fatalf("EnableAgents() error = %v", err)
	}

	if cfg.Repos[0].ResolvedSHA != "aaaaaaa" {
		t.Error("builder mutated the source config's resolved sha")
	}
	if len(cfg.Repos[0].Skills[0].Agents) != 1 {
		t.Error("builder mutated the source config's agents")
	}
}

func TestBuilder_SetResolved(t *testing.T) {
	b := NewBuilder(testConfig())

	if !b.SetResolved("https://example.com/b", "0123456") {
		t.Error("SetResolved() on a declared repo should report true")
	}
	if b.SetResolved("https://example.com/missing", "0123456") {
		t.Error("SetResolved() on an unknown repo should report false")
	}

	cfg, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if cfg.Repos[1].ResolvedSHA != "0123456" {
		t.Errorf("resolved sha = %q", cfg.Repos[1].ResolvedSHA)
	}
}

func TestBuilder_UpsertRepo(t *testing.T) {
	b := NewBuilder(testConfig())

	if b.UpsertRepo("https://example.com/a", "v1") {
		t.Error("existing repo reported as added")
	}
	if got := b.Snapshot().Repos[0].ResolvedSHA; got != "aaaaaaa" {
		t.Errorf("unchanged rev should keep resolved sha, got %q", got)
	}

	b.UpsertRepo("https://example.com/a", "v2")
	snap := b.Snapshot()
	if snap.Repos[0].Rev != "v2" || snap.Repos[0].ResolvedSHA != "" {
		t.Errorf("rev change should clear resolved sha, got %+v", snap.Repos[0])
	}

	if !b.UpsertRepo("https://example.com/c", "v3") {
		t.Error("new repo should be reported as added")
	}
	if n := len(b.Snapshot().Repos); n != 3 {
		t.Errorf("expected 3 repos, got %d", n)
	}
}

func TestBuilder_CollapseRepo(t *testing.T) {
	cfg := Config{
		Version:  Version,
		StoreDir: DefaultStoreDir,
		Repos: []Repo{
			{Repo: "r", Rev: "v1", Skills: []Skill{{Name: "a", Path: "a"}}},
			{Repo: "other", Rev: "v1"},
			{Repo: "r", Rev: "v2", Skills: []Skill{{Name: "a", Path: "a2"}, {Name: "b", Path: "b"}}},
		},
	}
	b := NewBuilder(cfg)

	if removed := b.CollapseRepo("r"); removed != 1 {
		t.Errorf("CollapseRepo() removed %d, want 1", removed)
	}

	out, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(out.Repos) != 2 || out.Repos[0].Repo != "r" || out.Repos[1].Repo != "other" {
		t.Fatalf("unexpected repos after collapse: %+v", out.Repos)
	}
	skills := out.Repos[0].Skills
	if len(skills) != 2 || skills[0].Path != "a" || skills[1].Name != "b" {
		t.Errorf("unexpected merged skills: %+v", skills)
	}
}

func TestBuilder_SkillEdits(t *testing.T) {
	b := NewBuilder(testConfig())

	if err := b.AddSkill("https://example.com/b", Skill{Name: "review", Path: "review"}); err != nil {
		t.Fatalf("AddSkill() error = %v", err)
	}
	if err := b.AddSkill("https://example.com/missing", Skill{Name: "x", Path: "x"}); !errors.Is(err, ErrRepoNotFound) {
		t.Errorf("AddSkill() to unknown repo error = %v, want ErrRepoNotFound", err)
	}

	added, err := b.EnableAgents("review", "codex", "claude", "codex")
	if err != nil {
		t.Fatalf("EnableAgents() error = %v", err)
	}
	if !slices.Equal(added, []string{"codex", "claude"}) {
		t.Errorf("EnableAgents() added %v", added)
	}
	if _, err := b.EnableAgents("missing", "codex"); !errors.Is(err, ErrSkillNotFound) {
		t.Errorf("EnableAgents() on unknown skill error = %v", err)
	}

	if n := b.RemoveSkill("pdf"); n != 1 {
		t.Errorf("RemoveSkill() = %d, want 1", n)
	}
	cfg, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(cfg.Repos[0].Skills) != 0 || len(cfg.Repos[1].Skills) != 1 {
		t.Errorf("unexpected skills after edits: %+v", cfg.Repos)
	}
}

func TestBuilder_BuildValidates(t *testing.T) {
	b := NewBuilder(testConfig())
	if err := b.AddSkill("https://example.com/b", Skill{Name: "pdf", Path: "other"}); err != nil {
		t.Fatalf("AddSkill() error = %v", err)
	}

	if _, err := b.Build(); err == nil {
		t.Error("Build() should reject a skill name declared in two repositories")
	}
}
