// Package gitexec runs git as a subprocess.
//
// The sync engine only needs a handful of porcelain commands, so the
// capability is expressed as the narrow Runner interface. Exec is the real
// implementation; tests substitute gittest.Fake.
package gitexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// DefaultBinary is the git executable looked up on PATH.
const DefaultBinary = "git"

// ErrNotFound is returned when the git binary cannot be located.
var ErrNotFound = errors.New("git executable not found")

// Runner executes a git command and returns its trimmed standard output.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// CommandError describes a git invocation that exited unsuccessfully.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := "command failed: git " + strings.Join(e.Args, " ")
	if e.Stderr != "" {
		msg += " (" + e.Stderr + ")"
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Exec runs the system git binary.
type Exec struct {
	// Binary overrides the executable name or path. Empty means "git".
	Binary string
	// Env is appended to the inherited environment.
	Env []string
}

// New returns an Exec for binary.
func New(binary string) *Exec {
	return &Exec{Binary: binary}
}

// Run implements Runner.
func (e *Exec) Run(ctx context.Context, args ...string) (string, error) {
	bin := e.Binary
	if bin == "" {
		bin = DefaultBinary
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, bin)
	}

	// #nosec G204 - arguments are built by this package, never by a shell
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	cmd.Env = append(cmd.Env, e.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return "", &CommandError{
			Args:   args,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return strings.TrimSpace(stdout.String()), nil
}
