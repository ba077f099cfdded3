// Package cli provides the command-line interface for agentskills.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/klauern/agentskills/internal/config"
	"github.com/klauern/agentskills/internal/gitexec"
	"github.com/klauern/agentskills/internal/logging"
	"github.com/klauern/agentskills/internal/ui"
)

var (
	// Version is the current version of the application.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// BuildDate is the date and time of the build.
	BuildDate = "unknown"
)

// app carries the state shared by every command of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	// git overrides the runner built from settings. Tests inject a fake.
	git gitexec.Runner

	settings *config.Config
	logger   *slog.Logger
}

// Run executes the CLI application with the given context and arguments.
func Run(ctx context.Context, args []string) error {
	return RunWithIO(ctx, args, os.Stdout, os.Stderr)
}

// RunWithIO executes the CLI application writing regular output to stdout
// and diagnostics to stderr.
func RunWithIO(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{stdout: stdout, stderr: stderr}
	return a.command().Run(ctx, args)
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:      "agentskills",
		Usage:     "Sync agent skills from git repositories into project agent directories",
		Version:   Version,
		Writer:    a.stdout,
		ErrWriter: a.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the project manifest",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output (info level logging)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug output (debug level logging, implies verbose)",
			},
			&cli.BoolFlag{
				Name:  "log-json",
				Usage: "Emit logs as JSON",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			settings, err := config.Load()
			if err != nil {
				return ctx, fmt.Errorf("failed to load settings from %s: %w", config.FilePath(), err)
			}
			a.settings = settings
			a.configureColors(cmd)
			a.configureLogging(cmd)
			return logging.NewContext(ctx, a.logger), nil
		},
		Commands: []*cli.Command{
			a.initCommand(),
			a.listCommand(),
			a.installCommand(),
			a.enableCommand(),
			a.syncCommand(),
			a.updateCommand(),
			a.pruneCommand(),
			a.versionCommand(),
		},
	}
}

// configureColors sets up color output from settings and CLI flags.
func (a *app) configureColors(cmd *cli.Command) {
	switch a.settings.Output.Color {
	case "never":
		ui.DisableColors()
	case "always":
		ui.EnableColors()
	}
	if cmd.Bool("no-color") {
		ui.DisableColors()
	}
}

// configureLogging sets up the logging level based on CLI flags.
func (a *app) configureLogging(cmd *cli.Command) {
	opts := logging.DefaultOptions()
	opts.Output = a.stderr

	switch {
	case cmd.Bool("debug"):
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	case cmd.Bool("verbose") || a.settings.Output.Verbose:
		opts.Level = slog.LevelInfo
	}
	opts.JSON = cmd.Bool("log-json")

	a.logger = logging.New(opts)
	logging.SetDefault(a.logger)

	a.logger.Debug("logging configured", slog.String("level", opts.Level.String()))
}

func (a *app) gitRunner() gitexec.Runner {
	if a.git != nil {
		return a.git
	}
	return gitexec.New(a.settings.Git.Binary)
}

func (a *app) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.stdout, format, args...)
}
