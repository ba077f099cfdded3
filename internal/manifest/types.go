package manifest

import (
	"maps"
	"slices"

	"gopkg.in/yaml.v3"
)

const (
	// Version is the only supported manifest version.
	Version = 1

	// DefaultStoreDir is the store location used when store_dir is omitted.
	DefaultStoreDir = ".agent-skills/store"

	// DefaultFileName is the conventional manifest file name.
	DefaultFileName = ".agent-skills.yaml"

	// SkillFile is the manifest file every skill directory must contain.
	SkillFile = "SKILL.md"
)

// Config is a validated manifest. Treat it as a value: mutate through a Builder.
type Config struct {
	Version  int              `yaml:"version"`
	StoreDir string           `yaml:"store_dir"`
	Agents   map[string]Agent `yaml:"agents,omitempty"`
	Repos    []Repo           `yaml:"repos,omitempty"`
}

// Agent is a named destination for skill links.
type Agent struct {
	// TargetDir is the project-relative directory holding one link per skill.
	// Empty means the agent is declared but not linked.
	TargetDir string `yaml:"target_dir,omitempty"`
}

// Repo declares a skill repository pinned to a revision.
type Repo struct {
	// Repo is the locator handed verbatim to git.
	Repo string `yaml:"repo"`
	// Rev is the branch, tag or (partial) commit to fetch.
	Rev string `yaml:"rev"`
	// ResolvedSHA caches the commit Rev last resolved to.
	ResolvedSHA string  `yaml:"resolved_sha,omitempty"`
	Skills      []Skill `yaml:"skills,omitempty"`
}

// Skill declares one skill directory inside a repository.
type Skill struct {
	Name string `yaml:"name"`
	// Path is relative to the repository root; it may point at the SKILL.md
	// file itself. See SkillDir.
	Path   string   `yaml:"path"`
	Agents []string `yaml:"agents,omitempty"`
}

// UnmarshalYAML accepts the legacy "location" key as an alias of "path".
func (s *Skill) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Name     string   `yaml:"name"`
		Path     string   `yaml:"path"`
		Location string   `yaml:"location"`
		Agents   []string `yaml:"agents"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	s.Name = raw.Name
	s.Path = raw.Path
	if s.Path == "" {
		s.Path = raw.Location
	}
	s.Agents = raw.Agents
	return nil
}

// Repo returns the repository declared with locator.
func (c Config) Repo(locator string) (Repo, bool) {
	for _, r := range c.Repos {
		if r.Repo == locator {
			return r, true
		}
	}
	return Repo{}, false
}

// FindSkill returns the skill named name and the repository that declares it.
func (c Config) FindSkill(name string) (Skill, Repo, bool) {
	for _, r := range c.Repos {
		for _, s := range r.Skills {
			if s.Name == name {
				return s, r, true
			}
		}
	}
	return Skill{}, Repo{}, false
}

// TargetDirs maps each agent with a configured target to its directory.
func (c Config) TargetDirs() map[string]string {
	targets := make(map[string]string, len(c.Agents))
	for name, agent := range c.Agents {
		if agent.TargetDir != "" {
			targets[name] = agent.TargetDir
		}
	}
	return targets
}

// AgentNames returns the declared agent names in sorted order.
func (c Config) AgentNames() []string {
	return slices.Sorted(maps.Keys(c.Agents))
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := Config{
		Version:  c.Version,
		StoreDir: c.StoreDir,
	}
	if c.Agents != nil {
		out.Agents = maps.Clone(c.Agents)
	}
	if c.Repos != nil {
		out.Repos = make([]Repo, len(c.Repos))
		for i, r := range c.Repos {
			out.Repos[i] = r.clone()
		}
	}
	return out
}

func (r Repo) clone() Repo {
	out := r
	if r.Skills != nil {
		out.Skills = make([]Skill, len(r.Skills))
		for i, s := range r.Skills {
			s.Agents = slices.Clone(s.Agents)
			out.Skills[i] = s
		}
	}
	return out
}

// Default returns the manifest written by "agentskills init".
func Default() Config {
	return Config{
		Version:  Version,
		StoreDir: DefaultStoreDir,
		Agents: map[string]Agent{
			"codex":    {TargetDir: ".codex/skills"},
			"claude":   {TargetDir: ".claude/skills"},
			"opencode": {TargetDir: ".opencode/skills"},
		},
	}
}
