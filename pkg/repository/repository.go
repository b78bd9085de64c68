package repository

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/oneconcern/confstore/pkg/repository/status"
	"github.com/spf13/afero"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
)

const (
	dirMode  os.FileMode = 0o755
	fileMode os.FileMode = 0o644
)

// File to write in a working directory
type File struct {
	// Path relative to the working directory
	Path    string
	Content string
}

// Repository is a named working directory backed by a git object store.
//
// A Repository is not initialized on construction: see Versioning.Init.
// The object store is opened on first use and released by Close.
//
// A Repository is not safe for concurrent use.
type Repository struct {
	settings

	name    string
	root    string
	workDir string

	repo    *git.Repository
	storage *filesystem.Storage

	closed   atomic.Bool
	releases atomic.Int32
}

func newRepository(root, name string, s settings) *Repository {
	return &Repository{
		settings: s,
		name:     name,
		root:     root,
		workDir:  filepath.Join(root, name),
	}
}

// Name of the repository
func (r *Repository) Name() string {
	return r.name
}

// WorkDir yields the path to the working directory
func (r *Repository) WorkDir() string {
	return r.workDir
}

// Encoding used for text I/O
func (r *Repository) Encoding() encoding.Encoding {
	return r.encoding
}

// Versioning operations on this repository
func (r *Repository) Versioning() *Versioning {
	return &Versioning{r: r}
}

// Exists tells if the working directory exists
func (r *Repository) Exists() bool {
	ok, err := afero.DirExists(r.fs, r.workDir)
	return err == nil && ok
}

// HasFile tells if a file exists in the working directory
func (r *Repository) HasFile(p string) (bool, error) {
	abs, _, err := r.resolve(p)
	if err != nil {
		return false, err
	}
	ok, err := afero.Exists(r.fs, abs)
	if err != nil {
		return false, status.ErrRead.WrapMessage(err, "checking %q in repository %q", p, r.name)
	}
	return ok, nil
}

func (r *Repository) isInitialized() bool {
	ok, err := afero.DirExists(r.fs, filepath.Join(r.workDir, gitDir, "objects"))
	return err == nil && ok
}

// open the object store, if not already done
func (r *Repository) open() (*git.Repository, error) {
	if r.closed.Load() {
		return nil, status.ErrAccess.Wrapf("repository %q is closed", r.name)
	}
	if r.repo != nil {
		return r.repo, nil
	}
	if !r.isInitialized() {
		return nil, status.ErrNotInitialized.Wrapf("repository %q", r.name)
	}

	st := filesystem.NewStorage(osfs.New(filepath.Join(r.workDir, gitDir)), cache.NewObjectLRUDefault())
	repo, err := git.Open(st, osfs.New(r.workDir))
	if err != nil {
		_ = st.Close()
		return nil, status.ErrRead.WrapMessage(err, "opening repository %q", r.name)
	}
	r.repo = repo
	r.storage = st
	return repo, nil
}

// create the object store with an initial branch
func (r *Repository) create() error {
	if r.closed.Load() {
		return status.ErrAccess.Wrapf("repository %q is closed", r.name)
	}
	if err := r.fs.MkdirAll(r.workDir, dirMode); err != nil {
		return status.ErrWrite.WrapMessage(err, "creating working directory of repository %q", r.name)
	}

	st := filesystem.NewStorage(osfs.New(filepath.Join(r.workDir, gitDir)), cache.NewObjectLRUDefault())
	repo, err := git.InitWithOptions(st, osfs.New(r.workDir), git.InitOptions{
		DefaultBranch: plumbing.NewBranchReferenceName(r.branch),
	})
	if err != nil {
		_ = st.Close()
		return status.ErrWrite.WrapMessage(err, "initializing repository %q", r.name)
	}
	r.repo = repo
	r.storage = st
	return nil
}

// release the object store handle. The repository may be reopened afterwards.
func (r *Repository) release() error {
	if r.storage == nil {
		return nil
	}
	err := r.storage.Close()
	r.releases.Inc()
	r.storage = nil
	r.repo = nil
	if err != nil {
		return status.ErrAccess.WrapMessage(err, "releasing object store of repository %q", r.name)
	}
	return nil
}

// Close the repository and release its object store. Close is idempotent.
func (r *Repository) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	r.l.Debug("closing repository", zap.String("repository", r.name))
	return r.release()
}

// WriteFiles writes text files to the working directory, creating parent directories as needed.
//
// All paths are checked before anything is written. It returns the absolute paths of the written files,
// in input order.
func (r *Repository) WriteFiles(files ...File) ([]string, error) {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	abs, _, err := r.resolveAll(paths)
	if err != nil {
		return nil, err
	}

	for i, f := range files {
		if err := r.fs.MkdirAll(filepath.Dir(abs[i]), dirMode); err != nil {
			return nil, status.ErrWrite.WrapMessage(err, "creating directory for %q in repository %q", f.Path, r.name)
		}
		data, err := encode(r.encoding, f.Content)
		if err != nil {
			return nil, status.ErrWrite.WrapMessage(err, "encoding %q in repository %q", f.Path, r.name)
		}
		if err := afero.WriteFile(r.fs, abs[i], data, fileMode); err != nil {
			return nil, status.ErrWrite.WrapMessage(err, "writing %q in repository %q", f.Path, r.name)
		}
	}
	r.l.Debug("wrote files", zap.String("repository", r.name), zap.Int("files", len(files)))
	return abs, nil
}

// DeleteFiles recursively deletes files or directories from the working directory.
//
// Missing paths are ignored. All paths are checked before anything is deleted.
func (r *Repository) DeleteFiles(paths ...string) error {
	abs, _, err := r.resolveAll(paths)
	if err != nil {
		return err
	}
	for i, p := range abs {
		if err := r.fs.RemoveAll(p); err != nil {
			return status.ErrDelete.WrapMessage(err, "deleting %q in repository %q", paths[i], r.name)
		}
	}
	r.l.Debug("deleted files", zap.String("repository", r.name), zap.Strings("paths", paths))
	return nil
}

// CurrentVersion reads the version checked out at HEAD.
//
// It returns false when the repository is not initialized or has no commit.
func (r *Repository) CurrentVersion() (Version, bool, error) {
	return r.Version(plumbing.HEAD.String())
}

// Version reads a version given a commit id, branch or tag.
//
// It returns false when the repository is not initialized or the version cannot be resolved.
func (r *Repository) Version(id string) (Version, bool, error) {
	if !r.isInitialized() {
		return Version{}, false, nil
	}
	repo, err := r.open()
	if err != nil {
		return Version{}, false, err
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(id))
	if err != nil {
		return Version{}, false, nil
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return Version{}, false, nil
	}

	tags, err := tagsFor(repo, commit.Hash)
	if err != nil {
		return Version{}, false, status.ErrRead.WrapMessage(err, "listing tags of %s in repository %q", commit.Hash, r.name)
	}

	tree, err := commit.Tree()
	if err != nil {
		return Version{}, false, status.ErrRead.WrapMessage(err, "reading tree of %s in repository %q", commit.Hash, r.name)
	}
	var objects []*Object
	err = tree.Files().ForEach(func(f *object.File) error {
		objects = append(objects, newObject(repo.Storer, f.Hash, f.Name, r.encoding, false))
		return nil
	})
	if err != nil {
		return Version{}, false, status.ErrRead.WrapMessage(err, "walking tree of %s in repository %q", commit.Hash, r.name)
	}

	return Version{id: commit.Hash.String(), tags: tags, objects: objects}, true, nil
}

// Rename the working directory. The new name must not be in use.
func (r *Repository) Rename(newName string) error {
	target, err := within(r.root, newName)
	if err != nil {
		return status.ErrAccess.WrapMessage(err, "renaming repository %q", r.name)
	}
	if filepath.Dir(target) != filepath.Clean(r.root) {
		return status.ErrAccess.Wrapf("renaming repository %q: %q is not a valid repository name", r.name, newName)
	}
	if exists, _ := afero.Exists(r.fs, target); exists {
		return status.ErrAlreadyExists.Wrapf("cannot rename repository %q to %q", r.name, newName)
	}
	if err := r.release(); err != nil {
		r.l.Warn("could not release object store before rename", zap.String("repository", r.name), zap.Error(err))
	}
	if err := r.fs.Rename(r.workDir, target); err != nil {
		return status.ErrWrite.WrapMessage(err, "renaming repository %q to %q", r.name, newName)
	}

	r.l.Info("renamed repository", zap.String("repository", r.name), zap.String("new_name", newName))
	r.name = filepath.Base(target)
	r.workDir = target
	return nil
}

// Delete the working directory and its object store
func (r *Repository) Delete() error {
	if err := r.release(); err != nil {
		r.l.Warn("could not release object store before delete", zap.String("repository", r.name), zap.Error(err))
	}
	if err := r.fs.RemoveAll(r.workDir); err != nil {
		return status.ErrDelete.WrapMessage(err, "deleting repository %q", r.name)
	}
	r.l.Info("deleted repository", zap.String("repository", r.name))
	return nil
}

// tagsFor lists the tags pointing exactly at a commit, sorted by name
func tagsFor(repo *git.Repository, commit plumbing.Hash) ([]string, error) {
	iter, err := repo.Tags()
	if err != nil {
		return nil, err
	}
	var tags []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		target, err := peelTag(repo, ref)
		if err != nil {
			return err
		}
		if target == commit {
			tags = append(tags, ref.Name().Short())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(tags)
	return tags, nil
}

// peelTag yields the commit targeted by a lightweight or annotated tag
func peelTag(repo *git.Repository, ref *plumbing.Reference) (plumbing.Hash, error) {
	tag, err := repo.TagObject(ref.Hash())
	switch err {
	case nil:
		commit, err := tag.Commit()
		if err != nil {
			return plumbing.ZeroHash, nil
		}
		return commit.Hash, nil
	case plumbing.ErrObjectNotFound:
		return ref.Hash(), nil
	default:
		return plumbing.ZeroHash, err
	}
}
