package backup

import (
	"fmt"
	"time"
)

// CleanupOptions configures backup cleanup behavior
type CleanupOptions struct {
	// MaxBackups limits the number of backups to keep per project (0 = unlimited)
	MaxBackups int

	// MaxAge is the maximum age of backups to keep (0 = unlimited)
	MaxAge time.Duration

	// KeepAtLeastOne ensures at least one backup is kept per project
	KeepAtLeastOne bool

	// Project filters cleanup to a single project (empty = all projects)
	Project string

	// DryRun previews what would be deleted without actually deleting
	DryRun bool
}

// DefaultCleanupOptions returns sensible defaults for cleanup
func DefaultCleanupOptions() CleanupOptions {
	return CleanupOptions{
		MaxBackups:     10,
		KeepAtLeastOne: true,
	}
}

// CleanupBackups removes old backups based on the specified options and
// returns the IDs deleted (or, in dry-run mode, the IDs that would be).
func (m *Manager) CleanupBackups(opts CleanupOptions) ([]string, error) {
	index, err := m.LoadIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to load backup index: %w", err)
	}

	groups := make(map[string][]Metadata)
	for _, b := range index.ListBackups(opts.Project) {
		groups[b.Project] = append(groups[b.Project], b)
	}

	var toDelete []string
	now := m.now()

	for _, backups := range groups {
		var doomed []string
		for idx, backup := range backups {
			tooOld := opts.MaxAge > 0 && now.Sub(backup.CreatedAt) > opts.MaxAge
			tooMany := opts.MaxBackups > 0 && idx >= opts.MaxBackups
			if tooOld || tooMany {
				doomed = append(doomed, backup.ID)
			}
		}

		// Spare the newest backup when everything would go
		if opts.KeepAtLeastOne && len(doomed) == len(backups) && len(doomed) > 0 {
			doomed = doomed[1:]
		}
		toDelete = append(toDelete, doomed...)
	}

	if opts.DryRun {
		return toDelete, nil
	}

	var deleted []string
	for _, backupID := range toDelete {
		if err := m.DeleteBackup(backupID); err != nil {
			return deleted, fmt.Errorf("failed to delete backup %q: %w", backupID, err)
		}
		deleted = append(deleted, backupID)
	}

	return deleted, nil
}
