package repository

import (
	"path/filepath"
	"strings"

	"github.com/oneconcern/confstore/pkg/repository/status"
)

const gitDir = ".git"

// within resolves p against base and rejects any result escaping base.
//
// Relative paths are joined to base; absolute paths are used as is.
func within(base, p string) (string, error) {
	var resolved string
	if filepath.IsAbs(p) {
		resolved = filepath.Clean(p)
	} else {
		resolved = filepath.Join(base, p)
	}

	rel, err := filepath.Rel(base, resolved)
	if err != nil {
		return "", status.ErrAccess.WrapMessage(err, "path %q cannot be resolved against %q", p, base)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", status.ErrAccess.Wrapf("path %q resolves outside of %q", p, base)
	}
	return resolved, nil
}

// resolve a path within the working directory. The git metadata directory is off limits.
func (r *Repository) resolve(p string) (string, string, error) {
	resolved, err := within(r.workDir, p)
	if err != nil {
		return "", "", status.ErrAccess.WrapMessage(err, "repository %q", r.name)
	}
	rel, _ := filepath.Rel(r.workDir, resolved)
	rel = filepath.ToSlash(rel)
	if rel == gitDir || strings.HasPrefix(rel, gitDir+"/") {
		return "", "", status.ErrAccess.Wrapf("path %q points to git metadata of repository %q", p, r.name)
	}
	return resolved, rel, nil
}

// resolveAll resolves all paths before any I/O takes place
func (r *Repository) resolveAll(paths []string) ([]string, []string, error) {
	abs := make([]string, 0, len(paths))
	rels := make([]string, 0, len(paths))
	for _, p := range paths {
		a, rel, err := r.resolve(p)
		if err != nil {
			return nil, nil, err
		}
		abs = append(abs, a)
		rels = append(rels, rel)
	}
	return abs, rels, nil
}
