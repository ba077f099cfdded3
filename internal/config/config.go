// Package config provides user-level settings for agentskills.
// It supports a YAML settings file, environment variables, and sensible defaults.
// Project state lives in the manifest (see package manifest), not here.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/klauern/agentskills/internal/manifest"
	"github.com/klauern/agentskills/internal/util"
)

// Config represents the complete agentskills settings.
type Config struct {
	// Git configures the external git binary
	Git GitConfig `yaml:"git"`

	// Manifest configures manifest discovery
	Manifest ManifestConfig `yaml:"manifest"`

	// Output configures display preferences
	Output OutputConfig `yaml:"output"`

	// Backup configures manifest backups
	Backup BackupConfig `yaml:"backup"`
}

// GitConfig holds git invocation settings.
type GitConfig struct {
	// Binary is the git executable name or path
	Binary string `yaml:"binary"`
	// TempDir hosts throwaway worktrees; empty uses the system temp dir
	TempDir string `yaml:"temp_dir,omitempty"`
}

// ManifestConfig holds manifest discovery settings.
type ManifestConfig struct {
	// FileName is the manifest used when --config is not given
	FileName string `yaml:"file_name"`
}

// OutputConfig holds display preferences.
type OutputConfig struct {
	// Color controls color output (auto, always, never)
	Color string `yaml:"color"`
	// Verbose enables verbose output
	Verbose bool `yaml:"verbose"`
}

// BackupConfig holds backup settings.
type BackupConfig struct {
	// Enabled enables backups of the manifest before it is rewritten
	Enabled bool `yaml:"enabled"`
	// Location is the backup directory path
	Location string `yaml:"location"`
	// MaxBackups is the maximum number of backups to keep per project
	MaxBackups int `yaml:"max_backups"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Git: GitConfig{
			Binary: "git",
		},
		Manifest: ManifestConfig{
			FileName: manifest.DefaultFileName,
		},
		Output: OutputConfig{
			Color:   "auto",
			Verbose: false,
		},
		Backup: BackupConfig{
			Enabled:    true,
			Location:   util.BackupsPath(),
			MaxBackups: 10,
		},
	}
}

// configFileName is the name of the config file.
const configFileName = "config.yaml"

// FilePath returns the path to the config file.
func FilePath() string {
	return filepath.Join(util.ToolHome(), configFileName)
}

// Load loads the configuration from file, merging with defaults.
// If the config file doesn't exist, returns default configuration.
func Load() (*Config, error) {
	cfg := Default()

	// #nosec G304 - path is constructed from trusted config directory
	data, err := os.ReadFile(FilePath())
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvironment()
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnvironment()
	return cfg, nil
}

// LoadFromPath loads configuration from a specific path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	// #nosec G304 - path is provided by caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnvironment()
	return cfg, nil
}

// Save writes the configuration to the config file.
func (c *Config) Save() error {
	return c.SaveToPath(FilePath())
}

// SaveToPath writes the configuration to a specific path.
func (c *Config) SaveToPath(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	// #nosec G306 - config file should be readable by user
	return os.WriteFile(path, data, 0o644)
}

// applyEnvironment applies environment variable overrides.
// Environment variables follow the pattern AGENTSKILLS_<SECTION>_<KEY>.
func (c *Config) applyEnvironment() {
	// Git settings
	if v := os.Getenv("AGENTSKILLS_GIT_BINARY"); v != "" {
		c.Git.Binary = v
	}
	if v := os.Getenv("AGENTSKILLS_GIT_TEMP_DIR"); v != "" {
		c.Git.TempDir = v
	}

	if v := os.Getenv("AGENTSKILLS_MANIFEST"); v != "" {
		c.Manifest.FileName = v
	}

	// Output settings
	if v := os.Getenv("AGENTSKILLS_OUTPUT_COLOR"); v != "" {
		c.Output.Color = v
	}
	if v := os.Getenv("AGENTSKILLS_OUTPUT_VERBOSE"); v != "" {
		c.Output.Verbose = parseBool(v)
	}

	// Backup settings
	if v := os.Getenv("AGENTSKILLS_BACKUP_ENABLED"); v != "" {
		c.Backup.Enabled = parseBool(v)
	}
	if v := os.Getenv("AGENTSKILLS_BACKUP_LOCATION"); v != "" {
		c.Backup.Location = v
	}
	if v := os.Getenv("AGENTSKILLS_BACKUP_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Backup.MaxBackups = n
		}
	}
}

// parseBool parses a boolean from common string representations.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// BackupDir returns the expanded backup location.
func (c *Config) BackupDir() string {
	return util.ExpandPath(c.Backup.Location, util.ToolHome())
}

// Exists returns true if a config file exists.
func Exists() bool {
	_, err := os.Stat(FilePath())
	return err == nil
}
