package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Metadata contains metadata about a single backup
type Metadata struct {
	ID          string    `json:"id"`          // Unique backup identifier (timestamp-based)
	SourcePath  string    `json:"source_path"` // Original manifest path
	BackupPath  string    `json:"backup_path"` // Path to backup file
	Project     string    `json:"project"`     // Project key
	CreatedAt   time.Time `json:"created_at"`  // Backup creation timestamp
	ModifiedAt  time.Time `json:"modified_at"` // Source modification timestamp
	Hash        string    `json:"hash"`        // SHA256 hash of content
	Size        int64     `json:"size"`        // File size in bytes
	Description string    `json:"description,omitempty"`
}

// Index maintains an index of all backups
type Index struct {
	Version string              `json:"version"`
	Updated time.Time           `json:"updated"`
	Backups map[string]Metadata `json:"backups"` // Key: backup ID
}

const (
	// IndexVersion is the current version of the backup index format
	IndexVersion = "1.0"
	// IndexFilename is the name of the index file
	IndexFilename = "index.json"
)

// IndexPath returns the location of the index file.
func (m *Manager) IndexPath() string {
	return filepath.Join(m.Dir, IndexFilename)
}

// LoadIndex loads the backup index from disk
func (m *Manager) LoadIndex() (*Index, error) {
	// #nosec G304 - index path is derived from the configured backup directory
	data, err := os.ReadFile(m.IndexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return &Index{
				Version: IndexVersion,
				Updated: m.now(),
				Backups: make(map[string]Metadata),
			}, nil
		}
		return nil, fmt.Errorf("failed to read index file: %w", err)
	}

	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse index file: %w", err)
	}
	if index.Backups == nil {
		index.Backups = make(map[string]Metadata)
	}

	return &index, nil
}

// SaveIndex saves the backup index to disk
func (m *Manager) SaveIndex(index *Index) error {
	if err := os.MkdirAll(m.Dir, BackupDirPerm); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	index.Updated = m.now()

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	if err := os.WriteFile(m.IndexPath(), data, BackupFilePerm); err != nil {
		return fmt.Errorf("failed to write index file: %w", err)
	}

	return nil
}

func (m *Manager) addBackup(index *Index, metadata Metadata) error {
	if index.Backups == nil {
		index.Backups = make(map[string]Metadata)
	}
	index.Backups[metadata.ID] = metadata
	return m.SaveIndex(index)
}

// ListBackups returns the backups of project (all when empty) sorted by
// creation time, newest first.
func (idx *Index) ListBackups(project string) []Metadata {
	backups := make([]Metadata, 0, len(idx.Backups))
	for _, backup := range idx.Backups {
		if project == "" || backup.Project == project {
			backups = append(backups, backup)
		}
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})

	return backups
}
