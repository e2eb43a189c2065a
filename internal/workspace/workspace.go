// Package workspace defines root-jailed filesystem access for one mount
// directory of the content database.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Dir provides filesystem access confined to a single mount root.
// All paths handed to its methods may be absolute (under the root) or
// relative to the root; anything escaping the root is rejected.
type Dir struct {
	root string // absolute path to the mount directory
}

// New creates a Dir rooted at the given directory. The directory must
// already exist.
func New(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("workspace: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("workspace: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace: root is not a directory: %s", abs)
	}
	return &Dir{root: abs}, nil
}

// Root returns the absolute mount root path.
func (d *Dir) Root() string {
	return d.root
}

// resolve turns path into an absolute path and rejects any result that
// escapes the mount root (directory traversal).
func (d *Dir) resolve(path string) (string, error) {
	if path == "" {
		return d.root, nil
	}
	cleaned := filepath.Clean(path)
	if !filepath.IsAbs(cleaned) {
		cleaned = filepath.Join(d.root, cleaned)
	}
	abs, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("workspace: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, d.root+string(os.PathSeparator)) && abs != d.root {
		return "", fmt.Errorf("workspace: path escapes mount root: %s", path)
	}
	return abs, nil
}

// ListFiles returns the absolute paths of the regular files directly
// inside dir, sorted by name. The listing is non-recursive.
func (d *Dir) ListFiles(dir string) ([]string, error) {
	return d.list(dir, false)
}

// ListDirs returns the absolute paths of the directories directly inside
// dir, sorted by name. The listing is non-recursive.
func (d *Dir) ListDirs(dir string) ([]string, error) {
	return d.list(dir, true)
}

func (d *Dir) list(dir string, dirs bool) ([]string, error) {
	abs, err := d.resolve(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("workspace: read dir %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() != dirs {
			continue
		}
		out = append(out, filepath.Join(abs, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// Exists reports whether path refers to an existing entry under the root.
func (d *Dir) Exists(path string) bool {
	abs, err := d.resolve(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}

// IsDir reports whether path refers to an existing directory under the root.
func (d *Dir) IsDir(path string) bool {
	abs, err := d.resolve(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && info.IsDir()
}

// Remove deletes a single file or empty directory under the root.
func (d *Dir) Remove(path string) error {
	abs, err := d.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("workspace: remove %s: %w", path, err)
	}
	return nil
}

// RemoveAll deletes path and everything below it. Removing the mount
// root itself is refused.
func (d *Dir) RemoveAll(path string) error {
	abs, err := d.resolve(path)
	if err != nil {
		return err
	}
	if abs == d.root {
		return fmt.Errorf("workspace: refusing to remove mount root %s", d.root)
	}
	if err := os.RemoveAll(abs); err != nil {
		return fmt.Errorf("workspace: remove all %s: %w", path, err)
	}
	return nil
}
