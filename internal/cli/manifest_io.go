package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/klauern/agentskills/internal/backup"
	"github.com/klauern/agentskills/internal/logging"
	"github.com/klauern/agentskills/internal/manifest"
	"github.com/klauern/agentskills/internal/store"
)

// manifestPath returns the absolute manifest path for cmd: --config, else the
// configured file name in the working directory.
func (a *app) manifestPath(cmd *cli.Command) (string, error) {
	path := cmd.String("config")
	if path == "" {
		path = a.settings.Manifest.FileName
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve manifest path %q: %w", path, err)
	}
	return abs, nil
}

// saveManifest backs up the current manifest file, if any, then atomically
// replaces it with cfg.
func (a *app) saveManifest(path string, cfg manifest.Config, reason string) error {
	if err := manifest.Validate(cfg); err != nil {
		return err
	}
	a.backupManifest(path, reason)
	return manifest.Save(path, cfg)
}

// backupManifest copies the manifest at path into the backup directory and
// trims old copies. Failures are logged and do not block the save.
func (a *app) backupManifest(path, reason string) {
	if !a.settings.Backup.Enabled {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}

	project := store.RepoID(filepath.Dir(path))
	mgr := backup.New(a.settings.BackupDir())

	md, err := mgr.CreateBackup(path, backup.Options{Project: project, Description: reason})
	if err != nil {
		a.logger.Warn("manifest backup failed", logging.Path(path), logging.Err(err))
		return
	}
	a.logger.Debug("manifest backed up", logging.Path(md.BackupPath))

	opts := backup.DefaultCleanupOptions()
	opts.MaxBackups = a.settings.Backup.MaxBackups
	opts.Project = project
	deleted, err := mgr.CleanupBackups(opts)
	if err != nil {
		a.logger.Warn("backup cleanup failed", logging.Err(err))
		return
	}
	if len(deleted) > 0 {
		a.logger.Debug("old manifest backups removed", logging.Count(len(deleted)))
	}
}
