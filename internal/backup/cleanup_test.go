package backup

import (
	"fmt"
	"testing"
	"time"

	"github.com/klauern/agentskills/internal/util"
)

// seedBackups writes n distinct backups for project and returns their IDs
// newest first.
func seedBackups(t *testing.T, m *Manager, dir, project string, n int) []string {
	t.Helper()
	source := writeManifest(t, dir, "")
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		util.WriteFile(t, source, fmt.Sprintf("%s-%d", project, i))
		md, err := m.CreateBackup(source, Options{Project: project})
		util.AssertNoError(t, err)
		ids = append([]string{md.ID}, ids...)
	}
	return ids
}

func TestDefaultCleanupOptions(t *testing.T) {
	opts := DefaultCleanupOptions()
	util.AssertEqual(t, opts.MaxBackups, 10)
	util.AssertEqual(t, opts.KeepAtLeastOne, true)
	util.AssertEqual(t, opts.DryRun, false)
}

func TestCleanupBackups(t *testing.T) {
	tests := map[string]struct {
		opts        CleanupOptions
		wantDeleted int
		wantLeft    map[string]int
	}{
		"max count per project": {
			opts:        CleanupOptions{MaxBackups: 2, KeepAtLeastOne: true},
			wantDeleted: 3,
			wantLeft:    map[string]int{"one": 2, "two": 2},
		},
		"unlimited": {
			opts:        CleanupOptions{},
			wantDeleted: 0,
			wantLeft:    map[string]int{"one": 4, "two": 3},
		},
		"project filter": {
			opts:        CleanupOptions{MaxBackups: 1, Project: "two"},
			wantDeleted: 2,
			wantLeft:    map[string]int{"one": 4, "two": 1},
		},
		"age keeps newest": {
			opts:        CleanupOptions{MaxAge: time.Nanosecond, KeepAtLeastOne: true},
			wantDeleted: 5,
			wantLeft:    map[string]int{"one": 1, "two": 1},
		},
		"age without keep": {
			opts:        CleanupOptions{MaxAge: time.Nanosecond},
			wantDeleted: 7,
			wantLeft:    map[string]int{"one": 0, "two": 0},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			m, dir := newTestManager(t)
			seedBackups(t, m, dir, "one", 4)
			seedBackups(t, m, dir, "two", 3)

			deleted, err := m.CleanupBackups(tt.opts)
			util.AssertNoError(t, err)
			util.AssertEqual(t, len(deleted), tt.wantDeleted)

			for project, want := range tt.wantLeft {
				left, err := m.ListBackups(project)
				util.AssertNoError(t, err)
				util.AssertEqual(t, len(left), want)
			}
		})
	}
}

func TestCleanupBackups_KeepsNewest(t *testing.T) {
	m, dir := newTestManager(t)
	ids := seedBackups(t, m, dir, "proj", 5)

	_, err := m.CleanupBackups(CleanupOptions{MaxBackups: 2})
	util.AssertNoError(t, err)

	left, err := m.ListBackups("proj")
	util.AssertNoError(t, err)
	util.AssertEqual(t, len(left), 2)
	util.AssertEqual(t, left[0].ID, ids[0])
	util.AssertEqual(t, left[1].ID, ids[1])
}

func TestCleanupBackups_DryRun(t *testing.T) {
	m, dir := newTestManager(t)
	seedBackups(t, m, dir, "proj", 3)

	wouldDelete, err := m.CleanupBackups(CleanupOptions{MaxBackups: 1, DryRun: true})
	util.AssertNoError(t, err)
	util.AssertEqual(t, len(wouldDelete), 2)

	left, err := m.ListBackups("proj")
	util.AssertNoError(t, err)
	util.AssertEqual(t, len(left), 3)
}

func TestCleanupBackups_EmptyIndex(t *testing.T) {
	m, _ := newTestManager(t)
	deleted, err := m.CleanupBackups(DefaultCleanupOptions())
	util.AssertNoError(t, err)
	util.AssertEqual(t, len(deleted), 0)
}
