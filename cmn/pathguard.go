// Package cmn provides the configuration snapshot, the path allowlist guard
// and the atomic-file-write primitive shared by every component that
// persists state to disk. Naming and layering follow the teacher's
// top-level `cmn` convention: small, dependency-light, consulted by
// everything above it.
package cmn

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Allowlist is the compile-time set of directory roots under which all file
// I/O of the core must resolve, after symlink resolution. It is immutable
// once constructed.
type Allowlist struct {
	roots []string
}

// NewAllowlist resolves each root to its real (symlink-free) absolute path.
// A root that does not yet exist is resolved against its nearest existing
// ancestor so that first-run cache/state files can still be validated.
func NewAllowlist(roots ...string) (*Allowlist, error) {
	al := &Allowlist{roots: make([]string, 0, len(roots))}
	for _, r := range roots {
		real, err := resolveExisting(r)
		if err != nil {
			return nil, errors.Wrapf(err, "path allowlist: cannot resolve root %q", r)
		}
		al.roots = append(al.roots, real)
	}
	return al, nil
}

// resolveExisting walks up from path until it finds an existing ancestor,
// resolves symlinks on that ancestor, then re-appends the non-existing
// suffix.
func resolveExisting(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	suffix := ""
	cur := abs
	for {
		real, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(real, suffix), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", err
		}
		suffix = filepath.Join(filepath.Base(cur), suffix)
		cur = parent
	}
}

// Validate resolves path (symlinks included) and returns it if it lies
// inside one of the allowlisted roots. Non-existing paths are validated
// against their nearest existing ancestor, so a cache file that has not
// been written yet can still be checked before the first write.
func (al *Allowlist) Validate(path string) (string, error) {
	real, err := resolveExisting(path)
	if err != nil {
		return "", errors.Wrapf(err, "path allowlist: cannot resolve %q", path)
	}
	for _, root := range al.roots {
		if real == root || isWithin(real, root) {
			return real, nil
		}
	}
	return "", errors.Errorf("path allowlist: %q (resolved %q) is outside all allowed roots %v", path, real, al.roots)
}

func isWithin(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !hasDotDotPrefix(rel)
}

func hasDotDotPrefix(rel string) bool {
	return len(rel) >= 2 && rel[0] == '.' && rel[1] == '.' &&
		(len(rel) == 2 || rel[2] == filepath.Separator)
}
