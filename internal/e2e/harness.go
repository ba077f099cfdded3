// Package e2e provides testing infrastructure for end-to-end CLI tests.
// It includes a harness for running CLI commands against an isolated tool
// home and project directory, plus helpers that build real git repositories.
package e2e

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/klauern/agentskills/internal/cli"
	"github.com/klauern/agentskills/internal/manifest"
	"github.com/klauern/agentskills/internal/util"
)

// Result contains the outcome of running a CLI command.
type Result struct {
	// Stdout contains the captured standard output.
	Stdout string
	// Stderr contains the captured standard error (logs and progress).
	Stderr string
	// Err is the error returned by the CLI command, if any.
	Err error
	// ExitCode is the inferred exit code (0 for success, 1 for error).
	ExitCode int
}

// Success returns true if the command completed without error.
func (r *Result) Success() bool {
	return r.Err == nil
}

// Harness provides a test harness for running E2E CLI tests.
// It manages environment isolation, temp directories, and output capture.
type Harness struct {
	t          *testing.T
	homeDir    string
	projectDir string
}

// NewHarness creates a new E2E test harness with an isolated AGENTSKILLS_HOME
// and an empty project directory.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	project, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("failed to resolve project dir: %v", err)
	}

	h := &Harness{
		t:          t,
		homeDir:    t.TempDir(),
		projectDir: project,
	}
	t.Setenv(util.HomeEnv, h.homeDir)
	t.Setenv("NO_COLOR", "1")

	return h
}

// HomeDir returns the isolated tool home for this harness.
func (h *Harness) HomeDir() string {
	return h.homeDir
}

// ProjectDir returns the project directory holding the manifest.
func (h *Harness) ProjectDir() string {
	return h.projectDir
}

// ManifestPath returns the manifest path passed to every command.
func (h *Harness) ManifestPath() string {
	return filepath.Join(h.projectDir, manifest.DefaultFileName)
}

// Project returns a fixture rooted at the project directory.
func (h *Harness) Project() *Fixture {
	return NewFixture(h.t, h.projectDir)
}

// Run executes a CLI command against the harness manifest and captures the
// output. The first argument is the subcommand; "--config <manifest>" is
// inserted right after it.
func (h *Harness) Run(args ...string) *Result {
	h.t.Helper()

	argv := []string{"agentskills", "--no-color"}
	if len(args) > 0 {
		argv = append(argv, args[0], "--config", h.ManifestPath())
		argv = append(argv, args[1:]...)
	}

	var stdout, stderr bytes.Buffer
	err := cli.RunWithIO(context.Background(), argv, &stdout, &stderr)

	exitCode := 0
	if err != nil {
		exitCode = 1
	}

	return &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Err:      err,
		ExitCode: exitCode,
	}
}

// Manifest loads and validates the harness manifest.
func (h *Harness) Manifest() manifest.Config {
	h.t.Helper()
	cfg, err := manifest.Load(h.ManifestPath())
	if err != nil {
		h.t.Fatalf("failed to load manifest: %v", err)
	}
	return cfg
}
