// Package backup keeps rotating copies of the manifest taken before it is
// rewritten.
package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// BackupDirPerm is the permission for backup directories (rwxr-x---)
	BackupDirPerm = 0o750
	// BackupFilePerm is the permission for backup files (rw-r-----)
	BackupFilePerm = 0o640
)

// Options configures backup behavior
type Options struct {
	Project     string // Project key grouping backups of one manifest
	Description string // Human-readable description
}

// Manager stores backups under a directory with a JSON index.
type Manager struct {
	Dir string
	now func() time.Time
}

// New returns a Manager rooted at dir.
func New(dir string) *Manager {
	return &Manager{Dir: dir, now: time.Now}
}

// CreateBackup copies the file at sourcePath into the backup directory. When
// the newest backup of the same project already holds identical content, no
// copy is made and that backup is returned.
func (m *Manager) CreateBackup(sourcePath string, opts Options) (*Metadata, error) {
	sourceInfo, err := os.Stat(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat source path %q: %w", sourcePath, err)
	}

	// #nosec G304 - sourcePath is controlled by the caller
	content, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file %q: %w", sourcePath, err)
	}

	hash := sha256.Sum256(content)
	hashStr := hex.EncodeToString(hash[:])

	index, err := m.LoadIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to load backup index: %w", err)
	}
	if latest := index.ListBackups(opts.Project); len(latest) > 0 && latest[0].Hash == hashStr {
		return &latest[0], nil
	}

	createdAt := m.now()
	backupID := createdAt.Format("20060102-150405.000000-") + hashStr[:8]

	projectDir := filepath.Join(m.Dir, opts.Project)
	if err := os.MkdirAll(projectDir, BackupDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create project backup directory: %w", err)
	}

	backupPath := filepath.Join(projectDir, backupID+filepath.Ext(sourcePath))
	if err := os.WriteFile(backupPath, content, BackupFilePerm); err != nil {
		return nil, fmt.Errorf("failed to write backup file: %w", err)
	}

	metadata := &Metadata{
		ID:          backupID,
		SourcePath:  sourcePath,
		BackupPath:  backupPath,
		Project:     opts.Project,
		CreatedAt:   createdAt,
		ModifiedAt:  sourceInfo.ModTime(),
		Hash:        hashStr,
		Size:        sourceInfo.Size(),
		Description: opts.Description,
	}

	if err := m.addBackup(index, *metadata); err != nil {
		return nil, fmt.Errorf("failed to add backup to index: %w", err)
	}

	return metadata, nil
}

// RestoreBackup writes the content of a backup to targetPath, verifying its
// hash first.
func (m *Manager) RestoreBackup(backupID, targetPath string) error {
	metadata, err := m.find(backupID)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(metadata.BackupPath)
	if err != nil {
		return fmt.Errorf("failed to read backup file: %w", err)
	}

	hash := sha256.Sum256(content)
	if hex.EncodeToString(hash[:]) != metadata.Hash {
		return fmt.Errorf("backup file corrupted: hash mismatch")
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), BackupDirPerm); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}
	// #nosec G306 - restored manifests are shared project files
	if err := os.WriteFile(targetPath, content, 0o644); err != nil {
		return fmt.Errorf("failed to write target file: %w", err)
	}

	return nil
}

// ListBackups returns backups for project (all when empty), newest first.
func (m *Manager) ListBackups(project string) ([]Metadata, error) {
	index, err := m.LoadIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to load backup index: %w", err)
	}
	return index.ListBackups(project), nil
}

// DeleteBackup deletes a backup and removes it from the index.
func (m *Manager) DeleteBackup(backupID string) error {
	index, err := m.LoadIndex()
	if err != nil {
		return fmt.Errorf("failed to load backup index: %w", err)
	}

	metadata, exists := index.Backups[backupID]
	if !exists {
		return fmt.Errorf("backup %q not found", backupID)
	}

	if err := os.Remove(metadata.BackupPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete backup file: %w", err)
	}

	delete(index.Backups, backupID)
	return m.SaveIndex(index)
}

func (m *Manager) find(backupID string) (Metadata, error) {
	index, err := m.LoadIndex()
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to load backup index: %w", err)
	}
	metadata, exists := index.Backups[backupID]
	if !exists {
		return Metadata{}, fmt.Errorf("backup %q not found", backupID)
	}
	return metadata, nil
}
