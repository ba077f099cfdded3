package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/klauern/agentskills/internal/manifest"
	"github.com/klauern/agentskills/internal/sync"
	"github.com/klauern/agentskills/internal/ui"
)

func (a *app) initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create a default manifest",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing manifest",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			path, err := a.manifestPath(cmd)
			if err != nil {
				return err
			}
			if cmd.Bool("force") {
				a.backupManifest(path, "init")
			}
			if _, err := manifest.Init(path, cmd.Bool("force")); err != nil {
				if errors.Is(err, manifest.ErrExists) {
					return fmt.Errorf("%w (use --force to overwrite)", err)
				}
				return err
			}
			a.printf("Initialized %s\n", path)
			return nil
		},
	}
}

func (a *app) listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List configured repos and skills",
		Action: func(_ context.Context, cmd *cli.Command) error {
			path, err := a.manifestPath(cmd)
			if err != nil {
				return err
			}
			cfg, err := manifest.Load(path)
			if err != nil {
				return err
			}
			a.printf("%s", renderList(cfg))
			return nil
		},
	}
}

// renderList formats the repositories of cfg and their skills.
func renderList(cfg manifest.Config) string {
	if len(cfg.Repos) == 0 {
		return "No repos configured.\n"
	}

	var sb strings.Builder
	for _, repo := range cfg.Repos {
		sha := repo.ResolvedSHA
		if sha == "" {
			sha = "unresolved"
		}
		fmt.Fprintf(&sb, "%s %s\n", ui.Title(repo.Repo), ui.Muted(fmt.Sprintf("(%s, %s)", repo.Rev, sha)))
		if len(repo.Skills) == 0 {
			sb.WriteString("  - no skills\n")
			continue
		}
		for _, s := range repo.Skills {
			agents := "unassigned"
			if len(s.Agents) > 0 {
				agents = strings.Join(s.Agents, ", ")
			}
			fmt.Fprintf(&sb, "  - %s [%s] (%s)\n", ui.Bold(s.Name), agents, s.Path)
		}
	}
	return sb.String()
}

func (a *app) installCommand() *cli.Command {
	return &cli.Command{
		Name:      "install",
		Usage:     "Add a repo (and optionally a skill) and sync it",
		UsageText: "agentskills install <repo> --rev <rev> [--skill NAME --path PATH] [--agent A ...]",
		Description: `Declare a repository at a revision, optionally add one of its skills,
   then sync that repository. The manifest is only written when the sync succeeds.

   Examples:
     agentskills install https://github.com/org/skills --rev v1.2.0
     agentskills install https://github.com/org/skills --rev main --skill pdf --path skills/pdf -a claude`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "rev",
				Usage:    "Git revision (tag, branch or SHA)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "skill",
				Usage: "Skill name to add",
			},
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"remote-location"},
				Usage:   "Skill path in the repo",
			},
			&cli.StringSliceFlag{
				Name:    "agent",
				Aliases: []string{"a"},
				Usage:   "Agent to enable for the skill (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "reinstall",
				Usage: "Replace a skill with the same name and collapse duplicate repo entries",
			},
			&cli.BoolFlag{
				Name:  "no-sync",
				Usage: "Only update the manifest",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Replace files or empty directories where links belong",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return errors.New("install requires exactly 1 argument: <repo>")
			}
			locator := cmd.Args().First()

			path, err := a.manifestPath(cmd)
			if err != nil {
				return err
			}
			// Structural decode only: --reinstall may be repairing duplicates.
			cfg, err := manifest.LoadUnchecked(path)
			if err != nil {
				return err
			}

			updated, err := editForInstall(cfg, installRequest{
				Locator:   locator,
				Rev:       cmd.String("rev"),
				Skill:     cmd.String("skill"),
				Path:      cmd.String("path"),
				Agents:    cmd.StringSlice("agent"),
				Reinstall: cmd.Bool("reinstall"),
			})
			if err != nil {
				return err
			}

			if cmd.Bool("no-sync") {
				if err := a.saveManifest(path, updated, "install"); err != nil {
					return err
				}
				a.printf("Updated %s\n", path)
				return nil
			}

			res, err := a.runSync(ctx, path, updated, syncRequest{
				Filter: locator,
				Force:  cmd.Bool("force"),
				Reason: "install",
			})
			if err != nil {
				return err
			}
			a.printSyncResult(res)
			a.printf("Updated %s\n", path)
			return nil
		},
	}
}

// installRequest is the manifest edit performed by install.
type installRequest struct {
	Locator   string
	Rev       string
	Skill     string
	Path      string
	Agents    []string
	Reinstall bool
}

// editForInstall applies req to cfg and returns the validated result.
func editForInstall(cfg manifest.Config, req installRequest) (manifest.Config, error) {
	if (req.Skill == "") != (req.Path == "") {
		return manifest.Config{}, errors.New("both --skill and --path are required to add a skill")
	}

	b := manifest.NewBuilder(cfg)
	if req.Reinstall {
		b.CollapseRepo(req.Locator)
	}
	b.UpsertRepo(req.Locator, req.Rev)

	if req.Skill != "" {
		if req.Reinstall {
			b.RemoveSkill(req.Skill)
		} else if _, owner, ok := b.Snapshot().FindSkill(req.Skill); ok {
			return manifest.Config{}, fmt.Errorf("skill %q already declared by %s (use --reinstall to replace it)", req.Skill, owner.Repo)
		}
		var agents []string
		for _, ag := range req.Agents {
			if !slices.Contains(agents, ag) {
				agents = append(agents, ag)
			}
		}
		if err := b.AddSkill(req.Locator, manifest.Skill{Name: req.Skill, Path: req.Path, Agents: agents}); err != nil {
			return manifest.Config{}, err
		}
	}

	return b.Build()
}

func (a *app) enableCommand() *cli.Command {
	return &cli.Command{
		Name:      "enable",
		Usage:     "Enable a skill for one or more agents",
		UsageText: "agentskills enable <skill> --agent A [--agent B]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "agent",
				Aliases:  []string{"a"},
				Usage:    "Agent to enable for the skill (repeatable)",
				Required: true,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return errors.New("enable requires exactly 1 argument: <skill>")
			}
			skill := cmd.Args().First()
			agents := cmd.StringSlice("agent")

			path, err := a.manifestPath(cmd)
			if err != nil {
				return err
			}
			cfg, err := manifest.Load(path)
			if err != nil {
				return err
			}

			b := manifest.NewBuilder(cfg)
			if _, err := b.EnableAgents(skill, agents...); err != nil {
				if errors.Is(err, manifest.ErrSkillNotFound) {
					return fmt.Errorf("Skill not found: %s", skill) //nolint:staticcheck // user-facing message
				}
				return err
			}
			updated, err := b.Build()
			if err != nil {
				return err
			}
			if err := a.saveManifest(path, updated, "enable"); err != nil {
				return err
			}
			a.printf("Enabled %s for %s\n", skill, strings.Join(agents, ", "))
			return nil
		},
	}
}

// syncRequest describes one sync invocation from the CLI.
type syncRequest struct {
	Filter  string
	Force   bool
	Refresh bool
	Reason  string
}

// runSync runs a sync pass for the manifest at path, persisting the result
// through saveManifest.
func (a *app) runSync(ctx context.Context, path string, cfg manifest.Config, req syncRequest) (*sync.Result, error) {
	syncer := a.newSyncer(path)
	reporter := a.newReporter()

	opts := sync.Options{
		Force:   req.Force,
		Refresh: req.Refresh,
		Logger:  a.logger,
		Persist: func(c manifest.Config) error {
			return a.saveManifest(path, c, req.Reason)
		},
		Progress: reporter.Callback(),
	}

	if req.Filter != "" {
		return syncer.SyncRepo(ctx, cfg, req.Filter, opts)
	}
	return syncer.SyncAll(ctx, cfg, opts)
}
