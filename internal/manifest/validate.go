package manifest

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	shaPattern       = regexp.MustCompile(`^[0-9a-fA-F]{7,40}$`)
	agentNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	drivePattern     = regexp.MustCompile(`^[A-Za-z]:`)
)

// Validate checks the business rules the schema cannot express. It reports
// every violation it finds as Errors, or nil.
func Validate(c Config) error {
	var errs Errors

	if c.Version != Version {
		errs = append(errs, newError("version", "unsupported config version %d (expected %d)", c.Version, Version))
	}
	if err := checkRelPath(c.StoreDir, "store_dir"); err != nil {
		errs = append(errs, err)
	}

	for _, name := range c.AgentNames() {
		if !agentNamePattern.MatchString(name) {
			errs = append(errs, newError("agents", "invalid agent name: %q", name))
			continue
		}
		if dir := c.Agents[name].TargetDir; dir != "" {
			if err := checkRelPath(dir, "agents."+name+".target_dir"); err != nil {
				errs = append(errs, err)
			}
		}
	}

	repos := make(map[string]bool, len(c.Repos))
	skills := make(map[string]string)
	for i, r := range c.Repos {
		field := fmt.Sprintf("repos[%d]", i)
		if strings.TrimSpace(r.Repo) == "" {
			errs = append(errs, newError(field+".repo", "expected non-empty string"))
		} else if repos[r.Repo] {
			errs = append(errs, newError(field+".repo", "duplicate repo URL: %s", r.Repo))
		}
		repos[r.Repo] = true

		if strings.TrimSpace(r.Rev) == "" {
			errs = append(errs, newError(field+".rev", "expected non-empty string"))
		}
		if r.ResolvedSHA != "" && !shaPattern.MatchString(r.ResolvedSHA) {
			errs = append(errs, newError(field+".resolved_sha",
				"resolved_sha must be a 7-40 char hex string: %s", r.ResolvedSHA))
		}

		for j, s := range r.Skills {
			sfield := fmt.Sprintf("%s.skills[%d]", field, j)
			if strings.TrimSpace(s.Name) == "" {
				errs = append(errs, newError(sfield+".name", "expected non-empty string"))
			} else if err := checkSkillName(s.Name, sfield+".name"); err != nil {
				errs = append(errs, err)
			} else if owner, dup := skills[s.Name]; dup {
				errs = append(errs, newError(sfield+".name", "duplicate skill name: %s (already declared by %s)", s.Name, owner))
			} else {
				skills[s.Name] = r.Repo
			}
			if err := checkRelPath(s.Path, sfield+".path"); err != nil {
				errs = append(errs, err)
			}

			agents := make(map[string]bool, len(s.Agents))
			for _, a := range s.Agents {
				if strings.TrimSpace(a) == "" {
					errs = append(errs, newError(sfield+".agents", "agent names must be non-empty strings"))
					continue
				}
				if agents[a] {
					errs = append(errs, newError(sfield+".agents", "duplicate agent in skill %q: %s", s.Name, a))
				}
				agents[a] = true
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// checkRelPath rejects empty, absolute and parent-escaping paths.
// checkSkillName rejects names that would not stay a single entry inside an
// agent target directory.
func checkSkillName(name, field string) *Error {
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return newError(field, "invalid skill name: %q", name)
	}
	return nil
}

func checkRelPath(p, field string) *Error {
	if strings.TrimSpace(p) == "" {
		return newError(field, "expected non-empty string")
	}
	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\`) || filepath.IsAbs(p) || drivePattern.MatchString(p) {
		return newError(field, "path must be relative: %s", p)
	}
	for _, part := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return newError(field, "path cannot contain '..': %s", p)
		}
	}
	return nil
}
