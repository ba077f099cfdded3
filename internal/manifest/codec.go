package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Decode parses YAML and checks it against the manifest schema without
// applying the business rules in Validate. Use it when the caller is about
// to repair the document (for example collapsing duplicate repositories).
func Decode(data []byte) (Config, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, &Error{Message: "invalid YAML", Err: err}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	if _, ok := normalizeYAML(raw).(map[string]any); !ok {
		return Config{}, &Error{Message: "config must be a YAML mapping at the top level"}
	}

	issues, err := checkSchema(raw)
	if err != nil {
		return Config{}, err
	}
	if len(issues) > 0 {
		return Config{}, issuesToErrors(issues)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, &Error{Message: "invalid YAML", Err: err}
	}
	if cfg.StoreDir == "" {
		cfg.StoreDir = DefaultStoreDir
	}
	return cfg, nil
}

// Parse decodes and fully validates a manifest document.
func Parse(data []byte) (Config, error) {
	cfg, err := Decode(data)
	if err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and validates the manifest at path.
func Load(path string) (Config, error) {
	data, err := readManifest(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

// LoadUnchecked reads the manifest at path with schema checks only.
func LoadUnchecked(path string) (Config, error) {
	data, err := readManifest(path)
	if err != nil {
		return Config{}, err
	}
	return Decode(data)
}

func readManifest(path string) ([]byte, error) {
	// #nosec G304 - path is the manifest chosen by the user
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return data, nil
}

// Encode renders c as YAML.
func Encode(c Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// Save validates c and atomically replaces the file at path: the document is
// written to a temporary sibling and renamed over the target, so readers see
// either the old or the new manifest.
func Save(path string, c Config) error {
	if err := Validate(c); err != nil {
		return err
	}
	data, err := Encode(c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp config: %w", err)
	}
	// #nosec G302 - manifest is meant to be committed and shared
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to set config permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace config %s: %w", path, err)
	}
	return nil
}

// Init writes the default manifest to path. An existing file is only
// replaced when overwrite is set.
func Init(path string, overwrite bool) (Config, error) {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return Config{}, fmt.Errorf("%w: %s", ErrExists, path)
	}
	cfg := Default()
	if err := Save(path, cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
