// Package gittest provides an in-process stand-in for the git binary.
package gittest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/klauern/agentskills/internal/gitexec"
)

// Commit is a scripted revision: its identifier and the files it contains,
// keyed by slash-separated repository path.
type Commit struct {
	SHA   string
	Files map[string]string
}

type worktree struct {
	remote   string
	patterns []string
	fetched  *Commit
}

// Fake implements gitexec.Runner against scripted repositories. Checkouts
// write real files so the rest of the pipeline can run on disk.
type Fake struct {
	// Fail, when set, is consulted before every command; a non-nil return
	// is reported as the command's failure.
	Fail func(args []string) error

	mu      sync.Mutex
	repos   map[string]map[string]Commit
	trees   map[string]*worktree
	calls   [][]string
	fetches map[string]int
}

var _ gitexec.Runner = (*Fake)(nil)

// NewFake returns a Fake with no repositories.
func NewFake() *Fake {
	return &Fake{
		repos:   make(map[string]map[string]Commit),
		trees:   make(map[string]*worktree),
		fetches: make(map[string]int),
	}
}

// SetRev makes rev in the repository at locator resolve to c.
func (f *Fake) SetRev(locator, rev string, c Commit) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.repos[locator] == nil {
		f.repos[locator] = make(map[string]Commit)
	}
	f.repos[locator][rev] = c
	f.repos[locator][c.SHA] = c
}

// Fetches reports how many fetches were issued against locator.
func (f *Fake) Fetches(locator string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[locator]
}

// Calls returns every command run so far.
func (f *Fake) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// Run implements gitexec.Runner.
func (f *Fake) Run(ctx context.Context, args ...string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, slices.Clone(args))

	if f.Fail != nil {
		if err := f.Fail(args); err != nil {
			return "", &gitexec.CommandError{Args: args, Stderr: err.Error(), Err: err}
		}
	}

	dir := ""
	if len(args) >= 2 && args[0] == "-C" {
		dir, args = args[1], args[2:]
	}
	if len(args) == 0 {
		return "", fail(args, "no command")
	}

	if args[0] == "init" {
		target := args[len(args)-1]
		if err := os.MkdirAll(filepath.Join(target, ".git"), 0o750); err != nil {
			return "", err
		}
		if err := os.WriteFile(filepath.Join(target, ".git", "HEAD"), []byte("ref: refs/heads/main\n"), 0o600); err != nil {
			return "", err
		}
		f.trees[target] = &worktree{}
		return "", nil
	}

	wt, ok := f.trees[dir]
	if !ok {
		return "", fail(args, "not a git repository: "+dir)
	}

	switch args[0] {
	case "remote":
		wt.remote = args[len(args)-1]
	case "sparse-checkout":
		if len(args) > 1 && args[1] == "set" {
			wt.patterns = slices.DeleteFunc(slices.Clone(args[2:]), func(a string) bool {
				return strings.HasPrefix(a, "--")
			})
		}
	case "fetch":
		f.fetches[wt.remote]++
		revs, ok := f.repos[wt.remote]
		if !ok {
			return "", fail(args, "repository '"+wt.remote+"' not found")
		}
		rev := args[len(args)-1]
		c, ok := revs[rev]
		if !ok {
			return "", fail(args, "couldn't find remote ref "+rev)
		}
		wt.fetched = &c
	case "checkout":
		if wt.fetched == nil {
			return "", fail(args, "invalid reference: FETCH_HEAD")
		}
		if err := materialise(dir, wt.fetched.Files, wt.patterns); err != nil {
			return "", err
		}
	case "rev-parse":
		if wt.fetched == nil {
			return "", fail(args, "ambiguous argument 'HEAD'")
		}
		return wt.fetched.SHA, nil
	default:
		return "", fail(args, "unsupported command "+args[0])
	}
	return "", nil
}

func fail(args []string, msg string) error {
	return &gitexec.CommandError{Args: args, Stderr: "fatal: " + msg, Err: fmt.Errorf("exit status 128")}
}

func materialise(dir string, files map[string]string, patterns []string) error {
	for name, content := range files {
		if len(patterns) > 0 && !MatchSparse(patterns, name) {
			continue
		}
		dst := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
			return err
		}
		if err := os.WriteFile(dst, []byte(content), 0o600); err != nil {
			return err
		}
	}
	return nil
}

// MatchSparse reports whether name is selected by one of the non-cone
// patterns. Only the forms the sync engine emits are understood: exact
// paths and directory prefixes ending in "/**".
func MatchSparse(patterns []string, name string) bool {
	for _, p := range patterns {
		p = strings.TrimPrefix(p, "/")
		if prefix, ok := strings.CutSuffix(p, "/**"); ok {
			if strings.HasPrefix(name, prefix+"/") {
				return true
			}
			continue
		}
		if p == name {
			return true
		}
	}
	return false
}
