// Package store manages the content-addressed export store.
//
// Exports live at <root>/<repo-id>/<sha>. A directory at that key is either
// absent or a complete export: Import assembles it in a sibling staging
// directory and renames it into place.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// TempPrefix marks staging directories inside a repository's subtree.
const TempPrefix = ".tmp-"

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]+`)

// RepoID derives the store directory name for a repository locator. Distinct
// locators can map to the same id; the store tolerates this because exports
// are further keyed by commit.
func RepoID(locator string) string {
	return strings.Trim(nonAlnum.ReplaceAllString(locator, "__"), "_")
}

// Store is an export store rooted at a directory.
type Store struct {
	root string
	fs   afero.Fs
}

// New returns a store rooted at root on fs. A nil fs means the operating
// system's filesystem.
func New(root string, fs afero.Fs) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{root: filepath.Clean(root), fs: fs}
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Init creates the root directory.
func (s *Store) Init() error {
	if err := s.fs.MkdirAll(s.root, 0o750); err != nil {
		return fmt.Errorf("failed to create store %s: %w", s.root, err)
	}
	return nil
}

// Path returns the filesystem path of the export for repoID at sha.
func (s *Store) Path(repoID, sha string) string {
	return filepath.Join(s.root, repoID, sha)
}

// Has reports whether a complete export exists for repoID at sha.
func (s *Store) Has(repoID, sha string) (bool, error) {
	ok, err := afero.DirExists(s.fs, s.Path(repoID, sha))
	if err != nil {
		return false, fmt.Errorf("failed to stat export %s: %w", s.Path(repoID, sha), err)
	}
	return ok, nil
}

// Import copies the tree rooted at dir in src into the store as the export
// for repoID at sha. Version control metadata (.git) is not copied.
//
// created is false when the export already existed, including when another
// writer finished first; in that case the staged copy is discarded.
func (s *Store) Import(repoID, sha string, src afero.Fs, dir string) (created bool, err error) {
	if exists, err := s.Has(repoID, sha); err != nil || exists {
		return false, err
	}

	repoDir := filepath.Join(s.root, repoID)
	if err := s.fs.MkdirAll(repoDir, 0o750); err != nil {
		return false, fmt.Errorf("failed to create repo directory %s: %w", repoDir, err)
	}

	staging := filepath.Join(repoDir, TempPrefix+sha+"-"+uuid.NewString())
	defer func() {
		if err != nil {
			err = multierr.Append(err, s.fs.RemoveAll(staging))
		}
	}()

	if err := copyTree(src, dir, s.fs, staging); err != nil {
		return false, fmt.Errorf("failed to stage export %s: %w", s.Path(repoID, sha), err)
	}

	if err := s.fs.Rename(staging, s.Path(repoID, sha)); err != nil {
		if exists, _ := s.Has(repoID, sha); exists {
			return false, s.fs.RemoveAll(staging)
		}
		return false, fmt.Errorf("failed to publish export %s: %w", s.Path(repoID, sha), err)
	}
	return true, nil
}

// Replace swaps the export for repoID at sha with a copy of dir in src. The
// final path is briefly absent during the swap but never holds a partial
// tree. It is used when an existing export was cut with a narrower sparse
// set than the one now declared.
func (s *Store) Replace(repoID, sha string, src afero.Fs, dir string) (err error) {
	repoDir := filepath.Join(s.root, repoID)
	staging := filepath.Join(repoDir, TempPrefix+sha+"-"+uuid.NewString())
	defer func() {
		if err != nil {
			err = multierr.Append(err, s.fs.RemoveAll(staging))
		}
	}()
	if err := copyTree(src, dir, s.fs, staging); err != nil {
		return fmt.Errorf("failed to stage export %s: %w", s.Path(repoID, sha), err)
	}

	final := s.Path(repoID, sha)
	retired := filepath.Join(repoDir, TempPrefix+sha+"-"+uuid.NewString())
	if err := s.fs.Rename(final, retired); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to retire export %s: %w", final, err)
	}
	if err := s.fs.Rename(staging, final); err != nil {
		err = fmt.Errorf("failed to publish export %s: %w", final, err)
		return multierr.Append(err, s.fs.Rename(retired, final))
	}
	if err := s.fs.RemoveAll(retired); err != nil {
		return fmt.Errorf("failed to remove retired export %s: %w", retired, err)
	}
	return nil
}

// Remove deletes the export for repoID at sha.
func (s *Store) Remove(repoID, sha string) error {
	if err := s.fs.RemoveAll(s.Path(repoID, sha)); err != nil {
		return fmt.Errorf("failed to remove export %s: %w", s.Path(repoID, sha), err)
	}
	return nil
}

// Repos lists the repository ids present in the store.
func (s *Store) Repos() ([]string, error) {
	return s.dirs(s.root)
}

// Exports lists the export and staging directories under repoID.
func (s *Store) Exports(repoID string) ([]string, error) {
	return s.dirs(filepath.Join(s.root, repoID))
}

func (s *Store) dirs(name string) ([]string, error) {
	infos, err := afero.ReadDir(s.fs, name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", name, err)
	}
	var out []string
	for _, fi := range infos {
		if fi.IsDir() {
			out = append(out, fi.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// PruneRepo removes every directory under repoID whose name is not in keep,
// staging leftovers included. It returns the removed paths. Failures do not
// stop the sweep; they are combined into the returned error.
func (s *Store) PruneRepo(repoID string, keep map[string]bool) ([]string, error) {
	names, err := s.Exports(repoID)
	if err != nil {
		return nil, err
	}

	var removed []string
	var errs error
	for _, name := range names {
		if keep[name] {
			continue
		}
		p := s.Path(repoID, name)
		if err := s.fs.RemoveAll(p); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to prune %s: %w", p, err))
			continue
		}
		removed = append(removed, p)
	}
	return removed, errs
}

// PruneTemp removes only the staging leftovers under repoID.
func (s *Store) PruneTemp(repoID string) ([]string, error) {
	names, err := s.Exports(repoID)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]bool, len(names))
	for _, name := range names {
		if !strings.HasPrefix(name, TempPrefix) {
			keep[name] = true
		}
	}
	return s.PruneRepo(repoID, keep)
}

// PruneOrphans removes every repository subtree whose id is not in keep.
func (s *Store) PruneOrphans(keep map[string]bool) ([]string, error) {
	ids, err := s.Repos()
	if err != nil {
		return nil, err
	}

	var removed []string
	var errs error
	for _, id := range ids {
		if keep[id] {
			continue
		}
		p := filepath.Join(s.root, id)
		if err := s.fs.RemoveAll(p); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to prune %s: %w", p, err))
			continue
		}
		removed = append(removed, p)
	}
	return removed, errs
}

func copyTree(src afero.Fs, srcDir string, dst afero.Fs, dstDir string) error {
	if err := dst.MkdirAll(dstDir, 0o750); err != nil {
		return err
	}

	return afero.Walk(src, srcDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if info.Name() == ".git" {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		target := filepath.Join(dstDir, rel)

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			return copyLink(src, p, dst, target)
		case info.IsDir():
			return dst.MkdirAll(target, 0o750)
		default:
			return copyFile(src, p, dst, target, info.Mode().Perm())
		}
	})
}

func copyFile(src afero.Fs, from string, dst afero.Fs, to string, perm os.FileMode) error {
	in, err := src.Open(from)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := dst.OpenFile(to, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// copyLink recreates a symlink verbatim when both filesystems support links.
func copyLink(src afero.Fs, from string, dst afero.Fs, to string) error {
	reader, ok := src.(afero.LinkReader)
	if !ok {
		return nil
	}
	linker, ok := dst.(afero.Linker)
	if !ok {
		return nil
	}
	target, err := reader.ReadlinkIfPossible(from)
	if err != nil {
		return err
	}
	return linker.SymlinkIfPossible(target, to)
}
