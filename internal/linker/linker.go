// Package linker maintains the per-agent symlinks pointing into the store.
package linker

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauern/agentskills/internal/logging"
)

var (
	// ErrTargetMissing is returned when the directory a link should point at
	// does not exist.
	ErrTargetMissing = errors.New("skill directory does not exist")
	// ErrTargetNotDir is returned when the link target is not a directory.
	ErrTargetNotDir = errors.New("skill path is not a directory")
	// ErrConflict is returned when a non-link path occupies the link location
	// and replacing it was not allowed.
	ErrConflict = errors.New("path exists and is not a symlink (use --force to replace)")
	// ErrNonEmptyDir is returned when forcing would delete user content.
	ErrNonEmptyDir = errors.New("refusing to replace non-empty directory")
	// ErrInvalidName is returned for skill names that are not a single path element.
	ErrInvalidName = errors.New("skill name must be a single path element")
)

// Action records what EnsureSymlink did.
type Action int

// Link actions.
const (
	Unchanged Action = iota
	Created
	Replaced
	Skipped
)

func (a Action) String() string {
	switch a {
	case Unchanged:
		return "unchanged"
	case Created:
		return "created"
	case Replaced:
		return "replaced"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// EnsureSymlink makes link a symlink to the symlink-free absolute form of
// target. A link already resolving there is left alone and a link resolving
// elsewhere is replaced. Any other file or an empty directory at link is only
// replaced when force is set; a non-empty directory is never replaced.
func EnsureSymlink(link, target string, force bool) (Action, error) {
	resolved, err := resolveTarget(target)
	if err != nil {
		return Unchanged, err
	}

	info, err := os.Lstat(link)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(filepath.Dir(link), 0o750); err != nil {
			return Unchanged, fmt.Errorf("failed to create link directory: %w", err)
		}
		if err := os.Symlink(resolved, link); err != nil {
			return Unchanged, fmt.Errorf("failed to create symlink %s: %w", link, err)
		}
		return Created, nil
	case err != nil:
		return Unchanged, fmt.Errorf("failed to inspect %s: %w", link, err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		if current, err := filepath.EvalSymlinks(link); err == nil && current == resolved {
			return Unchanged, nil
		}
		if err := os.Remove(link); err != nil {
			return Unchanged, fmt.Errorf("failed to remove stale symlink %s: %w", link, err)
		}
		if err := os.Symlink(resolved, link); err != nil {
			return Unchanged, fmt.Errorf("failed to create symlink %s: %w", link, err)
		}
		return Replaced, nil
	}

	if !force {
		return Unchanged, fmt.Errorf("%w: %s", ErrConflict, link)
	}
	if info.IsDir() {
		empty, err := isEmptyDir(link)
		if err != nil {
			return Unchanged, fmt.Errorf("failed to inspect %s: %w", link, err)
		}
		if !empty {
			return Unchanged, fmt.Errorf("%w: %s", ErrNonEmptyDir, link)
		}
	}
	if err := os.Remove(link); err != nil {
		return Unchanged, fmt.Errorf("failed to remove %s: %w", link, err)
	}
	if err := os.Symlink(resolved, link); err != nil {
		return Unchanged, fmt.Errorf("failed to create symlink %s: %w", link, err)
	}
	return Replaced, nil
}

func resolveTarget(target string) (string, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", target, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrTargetMissing, target)
		}
		return "", fmt.Errorf("failed to resolve %s: %w", target, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", target, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrTargetNotDir, target)
	}
	return resolved, nil
}

func isEmptyDir(dir string) (bool, error) {
	f, err := os.Open(dir) // #nosec G304 - dir is a link location inside the project
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	_, err = f.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	return false, err
}

// Link is the outcome of linking one skill for one agent.
type Link struct {
	Agent  string
	Path   string
	Target string
	Action Action
}

// Linker links skills into agent target directories.
type Linker struct {
	// ProjectRoot anchors the relative agent target directories.
	ProjectRoot string
	// Targets maps agent name to its project-relative target directory.
	Targets map[string]string
	Force   bool
	Logger  *slog.Logger
}

// LinkSkill links skillDir as name into the target directory of each agent.
// Agents without a target directory are reported as Skipped.
func (l *Linker) LinkSkill(skillDir, name string, agents []string) ([]Link, error) {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	logger := logging.OrDiscard(l.Logger).With(logging.Skill(name))

	links := make([]Link, 0, len(agents))
	for _, agent := range agents {
		dir, ok := l.Targets[agent]
		if !ok || dir == "" {
			logger.Info("agent has no target directory, skipping", logging.Agent(agent))
			links = append(links, Link{Agent: agent, Target: skillDir, Action: Skipped})
			continue
		}

		path := filepath.Join(l.ProjectRoot, filepath.FromSlash(dir), name)
		action, err := EnsureSymlink(path, skillDir, l.Force)
		if err != nil {
			return links, err
		}
		if action != Unchanged {
			logger.Info("linked skill", logging.Agent(agent), logging.Path(path), slog.String("action", action.String()))
		}
		links = append(links, Link{Agent: agent, Path: path, Target: skillDir, Action: action})
	}
	return links, nil
}
