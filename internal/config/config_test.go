package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauern/agentskills/internal/manifest"
)

func TestDefault(t *testing.T) {
	t.Setenv("AGENTSKILLS_HOME", t.TempDir())
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.Git.Binary != "git" {
		t.Errorf("expected git binary 'git', got %q", cfg.Git.Binary)
	}
	if cfg.Manifest.FileName != manifest.DefaultFileName {
		t.Errorf("expected manifest %q, got %q", manifest.DefaultFileName, cfg.Manifest.FileName)
	}
	if cfg.Output.Color != "auto" {
		t.Errorf("expected Output.Color to be 'auto', got %q", cfg.Output.Color)
	}
	if !cfg.Backup.Enabled {
		t.Error("expected Backup.Enabled to be true by default")
	}
	if cfg.Backup.MaxBackups != 10 {
		t.Errorf("expected Backup.MaxBackups to be 10, got %d", cfg.Backup.MaxBackups)
	}
	if cfg.Backup.Location != filepath.Join(os.Getenv("AGENTSKILLS_HOME"), "backups") {
		t.Errorf("unexpected backup location %q", cfg.Backup.Location)
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	cfg := Default()
	cfg.Git.Binary = "/opt/git/bin/git"
	cfg.Output.Verbose = true
	cfg.Backup.MaxBackups = 20

	if err := cfg.SaveToPath(configPath); err != nil {
		t.Fatalf("SaveToPath failed: %v", err)
	}

	loaded, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if loaded.Git.Binary != "/opt/git/bin/git" {
		t.Errorf("expected git binary to round trip, got %q", loaded.Git.Binary)
	}
	if !loaded.Output.Verbose {
		t.Error("expected Verbose to be true")
	}
	if loaded.Backup.MaxBackups != 20 {
		t.Errorf("expected MaxBackups 20, got %d", loaded.Backup.MaxBackups)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	tests := map[string]struct {
		envKey   string
		envValue string
		check    func(*Config) bool
	}{
		"git binary": {
			envKey:   "AGENTSKILLS_GIT_BINARY",
			envValue: "/usr/local/bin/git",
			check:    func(c *Config) bool { return c.Git.Binary == "/usr/local/bin/git" },
		},
		"git temp dir": {
			envKey:   "AGENTSKILLS_GIT_TEMP_DIR",
			envValue: "/scratch",
			check:    func(c *Config) bool { return c.Git.TempDir == "/scratch" },
		},
		"manifest": {
			envKey:   "AGENTSKILLS_MANIFEST",
			envValue: "skills.yaml",
			check:    func(c *Config) bool { return c.Manifest.FileName == "skills.yaml" },
		},
		"output verbose": {
			envKey:   "AGENTSKILLS_OUTPUT_VERBOSE",
			envValue: "true",
			check:    func(c *Config) bool { return c.Output.Verbose },
		},
		"output color": {
			envKey:   "AGENTSKILLS_OUTPUT_COLOR",
			envValue: "never",
			check:    func(c *Config) bool { return c.Output.Color == "never" },
		},
		"backup enabled": {
			envKey:   "AGENTSKILLS_BACKUP_ENABLED",
			envValue: "no",
			check:    func(c *Config) bool { return !c.Backup.Enabled },
		},
		"backup location": {
			envKey:   "AGENTSKILLS_BACKUP_LOCATION",
			envValue: "/var/backups/skills",
			check:    func(c *Config) bool { return c.Backup.Location == "/var/backups/skills" },
		},
		"backup max": {
			envKey:   "AGENTSKILLS_BACKUP_MAX",
			envValue: "3",
			check:    func(c *Config) bool { return c.Backup.MaxBackups == 3 },
		},
		"backup max ignores garbage": {
			envKey:   "AGENTSKILLS_BACKUP_MAX",
			envValue: "lots",
			check:    func(c *Config) bool { return c.Backup.MaxBackups == 10 },
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(tt.envKey, tt.envValue)

			cfg := Default()
			cfg.applyEnvironment()

			if !tt.check(cfg) {
				t.Errorf("environment override for %s did not apply correctly", tt.envKey)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"true", true},
		{"True", true},
		{"1", true},
		{"yes", true},
		{"on", true},
		{"ON", true},
		{"false", false},
		{"0", false},
		{"no", false},
		{"off", false},
		{"", false},
		{"invalid", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseBool(tt.input); got != tt.expected {
				t.Errorf("parseBool(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	t.Setenv("AGENTSKILLS_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() should not fail for non-existent file: %v", err)
	}
	if cfg.Git.Binary != "git" {
		t.Errorf("expected default git binary, got %q", cfg.Git.Binary)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	// #nosec G306 - test file permissions are acceptable
	if err := os.WriteFile(configPath, []byte("invalid: yaml: content:"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	if _, err := LoadFromPath(configPath); err == nil {
		t.Error("LoadFromPath should fail for invalid YAML")
	}
}

func TestPartialConfigMerge(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	partialConfig := `
git:
  binary: "/custom/git"
`
	// #nosec G306 - test file permissions are acceptable
	if err := os.WriteFile(configPath, []byte(partialConfig), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Git.Binary != "/custom/git" {
		t.Errorf("expected binary '/custom/git', got %q", cfg.Git.Binary)
	}
	if cfg.Backup.MaxBackups != 10 {
		t.Errorf("expected Backup.MaxBackups to retain default value 10, got %d", cfg.Backup.MaxBackups)
	}
	if cfg.Manifest.FileName != manifest.DefaultFileName {
		t.Errorf("expected manifest default to survive, got %q", cfg.Manifest.FileName)
	}
}

func TestExists(t *testing.T) {
	t.Setenv("AGENTSKILLS_HOME", t.TempDir())

	if Exists() {
		t.Error("Exists() should return false for non-existent config")
	}

	if err := Default().Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if !Exists() {
		t.Error("Exists() should return true after saving config")
	}
}

func TestBackupDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("AGENTSKILLS_HOME", home)

	cfg := Default()
	cfg.Backup.Location = "snapshots"
	if got := cfg.BackupDir(); got != filepath.Join(home, "snapshots") {
		t.Errorf("BackupDir() = %q", got)
	}
}
