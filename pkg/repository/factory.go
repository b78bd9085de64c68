package repository

import (
	"path/filepath"
	"sort"

	"github.com/oneconcern/confstore/pkg/repository/status"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Factory builds repositories located under a root directory
type Factory struct {
	settings
	root string
}

// NewFactory builds a Factory for repositories under root, which must be an existing directory
func NewFactory(root string, opts ...Option) (*Factory, error) {
	s := defaultSettings()
	for _, apply := range opts {
		apply(&s)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, status.ErrAccess.WrapMessage(err, "resolving repositories root %q", root)
	}
	isDir, err := afero.DirExists(s.fs, abs)
	if err != nil || !isDir {
		return nil, status.ErrAccess.Wrapf("repositories root %q does not exist or is not a directory", abs)
	}
	return &Factory{settings: s, root: abs}, nil
}

// Root directory of all repositories
func (f *Factory) Root() string {
	return f.root
}

// RepositoryByName builds the repository stored at root/name.
//
// The repository does not need to exist nor to be initialized. Names resolving outside of the root
// directory, or to the root itself, are rejected.
func (f *Factory) RepositoryByName(name string) (*Repository, error) {
	resolved, err := within(f.root, name)
	if err != nil {
		return nil, status.ErrAccess.WrapMessage(err, "repository %q", name)
	}
	if resolved == f.root {
		return nil, status.ErrAccess.Wrapf("repository %q resolves to the repositories root", name)
	}
	rel, _ := filepath.Rel(f.root, resolved)
	return newRepository(f.root, rel, f.settings), nil
}

// AllRepositories builds all initialized repositories found directly under the root directory, sorted by name
func (f *Factory) AllRepositories() ([]*Repository, error) {
	infos, err := afero.ReadDir(f.fs, f.root)
	if err != nil {
		return nil, status.ErrRead.WrapMessage(err, "listing repositories under %q", f.root)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

	repos := make([]*Repository, 0, len(infos))
	for _, info := range infos {
		if !info.IsDir() {
			continue
		}
		repo := newRepository(f.root, info.Name(), f.settings)
		if !repo.isInitialized() {
			f.l.Debug("skipping uninitialized directory", zap.String("repository", info.Name()))
			continue
		}
		repos = append(repos, repo)
	}
	return repos, nil
}
