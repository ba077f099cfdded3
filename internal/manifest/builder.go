package manifest

import (
	"fmt"
	"slices"
)

// Builder is a mutable copy of a Config. Edits made during an install or a
// sync pass go through a Builder; Build re-validates and returns the new
// Config, leaving the original untouched.
type Builder struct {
	cfg Config
}

// NewBuilder returns a builder seeded with a deep copy of c.
func NewBuilder(c Config) *Builder {
	return &Builder{cfg: c.Clone()}
}

func (b *Builder) repo(locator string) *Repo {
	for i := range b.cfg.Repos {
		if b.cfg.Repos[i].Repo == locator {
			return &b.cfg.Repos[i]
		}
	}
	return nil
}

// SetResolved records the commit locator resolved to. It reports whether
// the repository is declared.
func (b *Builder) SetResolved(locator, sha string) bool {
	r := b.repo(locator)
	if r == nil {
		return false
	}
	r.ResolvedSHA = sha
	return true
}

// UpsertRepo declares locator at rev, appending it when missing. Changing the
// revision of an existing repository clears its resolved SHA. It reports
// whether a new entry was added.
func (b *Builder) UpsertRepo(locator, rev string) bool {
	r := b.repo(locator)
	if r == nil {
		b.cfg.Repos = append(b.cfg.Repos, Repo{Repo: locator, Rev: rev})
		return true
	}
	if r.Rev != rev {
		r.Rev = rev
		r.ResolvedSHA = ""
	}
	return false
}

// CollapseRepo merges duplicate entries for locator into the first one,
// keeping the first declaration of each skill name. It returns how many
// entries were removed.
func (b *Builder) CollapseRepo(locator string) int {
	first := -1
	removed := 0
	repos := b.cfg.Repos[:0]
	for _, r := range b.cfg.Repos {
		if r.Repo != locator {
			repos = append(repos, r)
			continue
		}
		if first < 0 {
			first = len(repos)
			repos = append(repos, r)
			continue
		}
		removed++
		kept := &repos[first]
		for _, s := range r.Skills {
			if !slices.ContainsFunc(kept.Skills, func(k Skill) bool { return k.Name == s.Name }) {
				kept.Skills = append(kept.Skills, s)
			}
		}
	}
	b.cfg.Repos = repos
	return removed
}

// AddSkill appends s to the repository declared as locator.
func (b *Builder) AddSkill(locator string, s Skill) error {
	r := b.repo(locator)
	if r == nil {
		return fmt.Errorf("%w: %s", ErrRepoNotFound, locator)
	}
	s.Agents = slices.Clone(s.Agents)
	r.Skills = append(r.Skills, s)
	return nil
}

// RemoveSkill deletes every skill called name, across all repositories, and
// returns how many were removed.
func (b *Builder) RemoveSkill(name string) int {
	removed := 0
	for i := range b.cfg.Repos {
		before := len(b.cfg.Repos[i].Skills)
		b.cfg.Repos[i].Skills = slices.DeleteFunc(b.cfg.Repos[i].Skills, func(s Skill) bool {
			return s.Name == name
		})
		removed += before - len(b.cfg.Repos[i].Skills)
	}
	return removed
}

// EnableAgents adds agents to the named skill, skipping ones already
// enabled, and returns the agents that were added.
func (b *Builder) EnableAgents(skill string, agents ...string) ([]string, error) {
	for i := range b.cfg.Repos {
		skills := b.cfg.Repos[i].Skills
		for j := range skills {
			if skills[j].Name != skill {
				continue
			}
			var added []string
			for _, a := range agents {
				if !slices.Contains(skills[j].Agents, a) {
					skills[j].Agents = append(skills[j].Agents, a)
					added = append(added, a)
				}
			}
			return added, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSkillNotFound, skill)
}

// Snapshot returns a copy of the current state without validating it.
func (b *Builder) Snapshot() Config {
	return b.cfg.Clone()
}

// Build validates the current state and returns it as a Config.
func (b *Builder) Build() (Config, error) {
	cfg := b.cfg.Clone()
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
