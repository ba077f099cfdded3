package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/klauern/agentskills/internal/manifest"
	"github.com/klauern/agentskills/internal/progress"
	"github.com/klauern/agentskills/internal/sync"
	"github.com/klauern/agentskills/internal/ui"
)

func syncFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "force",
			Usage: "Replace files or empty directories where links belong",
		},
		&cli.StringFlag{
			Name:  "repo",
			Usage: "Only sync the repo with this locator",
		},
	}
}

func (a *app) syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Fetch repos, resolve revisions, and link skills",
		Description: `Export every declared repository into the store and link its skills into
   the agent directories. Repositories whose resolved_sha is already exported
   are not fetched again; use "update" to re-resolve revisions.

   Examples:
     agentskills sync
     agentskills sync --repo https://github.com/org/skills --force`,
		Flags: syncFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.syncAction(ctx, cmd, false, "Sync complete.")
		},
	}
}

func (a *app) updateCommand() *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "Re-resolve every revision and re-sync",
		Flags: syncFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.syncAction(ctx, cmd, true, "Update complete.")
		},
	}
}

func (a *app) syncAction(ctx context.Context, cmd *cli.Command, refresh bool, done string) error {
	path, err := a.manifestPath(cmd)
	if err != nil {
		return err
	}
	cfg, err := manifest.Load(path)
	if err != nil {
		return err
	}

	reason := "sync"
	if refresh {
		reason = "update"
	}
	res, err := a.runSync(ctx, path, cfg, syncRequest{
		Filter:  cmd.String("repo"),
		Force:   cmd.Bool("force"),
		Refresh: refresh,
		Reason:  reason,
	})
	if err != nil {
		return err
	}

	a.printSyncResult(res)
	a.printf("%s\n", ui.StatusSuccess(done))
	return nil
}

func (a *app) pruneCommand() *cli.Command {
	return &cli.Command{
		Name:  "prune",
		Usage: "Remove store exports not recorded in the manifest",
		Action: func(_ context.Context, cmd *cli.Command) error {
			path, err := a.manifestPath(cmd)
			if err != nil {
				return err
			}
			cfg, err := manifest.Load(path)
			if err != nil {
				return err
			}

			removed, err := a.newSyncer(path).Prune(cfg, a.logger)
			for _, dir := range removed {
				a.printf("  - %s\n", dir)
			}
			if err != nil {
				return err
			}
			a.printf("%s\n", ui.StatusSuccess(fmt.Sprintf("Pruned %d store entries.", len(removed))))
			return nil
		},
	}
}

func (a *app) newSyncer(manifestPath string) *sync.Syncer {
	s := sync.New(filepath.Dir(manifestPath), a.gitRunner())
	s.TempDir = a.settings.Git.TempDir
	return s
}

func (a *app) newReporter() *progress.SyncReporter {
	return progress.NewSyncReporter(progress.Options{
		Writer: a.stderr,
		Logger: a.logger,
	})
}
