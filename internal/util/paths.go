// Package util provides path helpers shared across agentskills packages.
//
//nolint:revive // var-naming - package name is meaningful
package util

import (
	"os"
	"path/filepath"
	"strings"
)

// HomeEnv overrides the agentskills tool directory.
const HomeEnv = "AGENTSKILLS_HOME"

// HomeDir returns the user's home directory
func HomeDir() string {
	home, _ := os.UserHomeDir()
	return home
}

// ToolHome returns the agentskills tool directory (~/.agentskills unless
// AGENTSKILLS_HOME is set).
func ToolHome() string {
	if v := os.Getenv(HomeEnv); v != "" {
		return v
	}
	return filepath.Join(HomeDir(), ".agentskills")
}

// BackupsPath returns the default manifest backup directory.
func BackupsPath() string {
	return filepath.Join(ToolHome(), "backups")
}

// ExpandPath expands a leading ~ to the home directory and resolves relative
// paths against baseDir. An empty path stays empty.
func ExpandPath(p, baseDir string) string {
	if p == "" {
		return ""
	}
	if p == "~" {
		return HomeDir()
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(HomeDir(), p[2:])
	}
	if filepath.IsAbs(p) || baseDir == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(baseDir, p)
}
