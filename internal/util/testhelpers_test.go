//nolint:revive // var-naming - package name is meaningful
package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCreateTempDir(t *testing.T) {
	dir := CreateTempDir(t)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Errorf("CreateTempDir() did not create directory: %s", dir)
	}
}

func TestWriteFile(t *testing.T) {
	dir := CreateTempDir(t)
	path := filepath.Join(dir, "subdir", "test.txt")

	WriteFile(t, path, "test content")

	if got := ReadFile(t, path); got != "test content" {
		t.Errorf("file content = %q, want %q", got, "test content")
	}
}

func TestWriteSkill(t *testing.T) {
	dir := filepath.Join(CreateTempDir(t), "skills", "pdf")

	WriteSkill(t, dir, "pdf")

	got := ReadFile(t, filepath.Join(dir, "SKILL.md"))
	if !strings.Contains(got, "name: pdf") {
		t.Errorf("SKILL.md missing front matter name, got %q", got)
	}
}

func TestAssertEqual(t *testing.T) {
	AssertEqual(t, 42, 42)
	AssertEqual(t, "x", "x")
	AssertNoError(t, nil)
}
