package repository

import (
	"strings"
	"time"
	"unicode"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/oneconcern/confstore/pkg/repository/status"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Versioning exposes the version control operations of a repository.
//
// All operations but Init and IsInitialized require an initialized repository.
type Versioning struct {
	r *Repository
}

// ListOption sets options for listing versions
type ListOption func(*listSettings)

type listSettings struct {
	start     string
	ascending bool
}

// StartingAt walks the history from some ref. It defaults to the default branch.
func StartingAt(ref string) ListOption {
	return func(s *listSettings) {
		if ref != "" {
			s.start = ref
		}
	}
}

// Ascending lists versions from the oldest to the most recent
func Ascending(ascending bool) ListOption {
	return func(s *listSettings) {
		s.ascending = ascending
	}
}

// Init creates the object store with its default branch. A repository cannot be initialized twice.
func (v *Versioning) Init() error {
	if v.r.isInitialized() {
		return status.ErrAlreadyExists.Wrapf("repository %q is already initialized", v.r.name)
	}
	if err := v.r.create(); err != nil {
		return err
	}
	v.r.l.Info("initialized repository", zap.String("repository", v.r.name), zap.String("branch", v.r.branch))
	return nil
}

// IsInitialized tells if the object store exists
func (v *Versioning) IsInitialized() bool {
	return v.r.isInitialized()
}

func (v *Versioning) worktree() (*git.Repository, *git.Worktree, error) {
	repo, err := v.r.open()
	if err != nil {
		return nil, nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, nil, status.ErrRead.WrapMessage(err, "opening working tree of repository %q", v.r.name)
	}
	return repo, wt, nil
}

// StageFiles stages files or directories of the working directory.
//
// Paths that do not exist are skipped. It returns the number of entries staged in total.
func (v *Versioning) StageFiles(paths ...string) (int, error) {
	abs, rels, err := v.r.resolveAll(paths)
	if err != nil {
		return 0, err
	}
	repo, wt, err := v.worktree()
	if err != nil {
		return 0, err
	}

	for i, rel := range rels {
		if exists, _ := afero.Exists(v.r.fs, abs[i]); !exists {
			continue
		}
		if rel == "." {
			err = wt.AddWithOptions(&git.AddOptions{All: true})
		} else {
			_, err = wt.Add(rel)
		}
		if err != nil {
			return 0, status.ErrVersioning.WrapMessage(err, "staging %q in repository %q", paths[i], v.r.name)
		}
	}
	return v.staged(repo)
}

// StageAll stages new and modified files of the working directory.
// It returns the number of entries staged in total.
func (v *Versioning) StageAll() (int, error) {
	repo, wt, err := v.worktree()
	if err != nil {
		return 0, err
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return 0, status.ErrVersioning.WrapMessage(err, "staging working directory of repository %q", v.r.name)
	}
	return v.staged(repo)
}

func (v *Versioning) staged(repo *git.Repository) (int, error) {
	idx, err := repo.Storer.Index()
	if err != nil {
		return 0, status.ErrRead.WrapMessage(err, "reading index of repository %q", v.r.name)
	}
	return len(idx.Entries), nil
}

// stageModified stages changes to tracked files only, including deletions
func (v *Versioning) stageModified(wt *git.Worktree) error {
	st, err := wt.Status()
	if err != nil {
		return err
	}
	for path, fs := range st {
		switch fs.Worktree {
		case git.Modified:
			if _, err := wt.Add(path); err != nil {
				return err
			}
		case git.Deleted:
			if _, err := wt.Remove(path); err != nil {
				return err
			}
		}
	}
	return nil
}

// Commit the staged changes onto the default branch. See CommitRef.
func (v *Versioning) Commit(message string, stageModified bool) (string, error) {
	return v.CommitRef(v.r.branch, message, stageModified)
}

// CommitRef commits the staged changes onto some ref and returns the new commit id.
//
// When the ref and HEAD point at the same commit, HEAD moves with the new commit (and so does the
// branch HEAD is attached to). Otherwise only the ref moves: a commit on the default branch issued
// after checking out an older version never re-attaches HEAD.
//
// When HEAD is attached to another branch at the same commit as ref, both that branch and ref move
// to the new commit. HEAD stays attached to its branch.
//
// When stageModified is set, changes to already tracked files are staged first. New files are not.
func (v *Versioning) CommitRef(ref, message string, stageModified bool) (string, error) {
	message = cleanupMessage(message)
	if message == "" {
		return "", status.ErrVersioning.Wrapf("commit message must not be blank in repository %q", v.r.name)
	}
	repo, wt, err := v.worktree()
	if err != nil {
		return "", err
	}
	if ref == "" {
		ref = v.r.branch
	}

	target, err := v.refToUpdate(repo, ref)
	if err != nil {
		return "", err
	}
	if stageModified {
		if err := v.stageModified(wt); err != nil {
			return "", status.ErrVersioning.WrapMessage(err, "staging modified files in repository %q", v.r.name)
		}
	}

	head, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", status.ErrRead.WrapMessage(err, "reading HEAD of repository %q", v.r.name)
	}
	headHash := resolveOrZero(repo, plumbing.HEAD)
	refHash := resolveOrZero(repo, target)
	followHEAD := headHash == refHash

	parent := refHash
	if followHEAD {
		parent = headHash
	}
	var parents []plumbing.Hash
	if !parent.IsZero() {
		parents = []plumbing.Hash{parent}
	}

	idx, err := repo.Storer.Index()
	if err != nil {
		return "", status.ErrRead.WrapMessage(err, "reading index of repository %q", v.r.name)
	}
	treeHash, err := writeTree(repo.Storer, idx)
	if err != nil {
		return "", status.ErrWrite.WrapMessage(err, "writing tree in repository %q", v.r.name)
	}
	sig := object.Signature{Name: v.r.author, Email: v.r.email, When: time.Now()}
	commitHash, err := writeCommit(repo.Storer, &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     treeHash,
		ParentHashes: parents,
	})
	if err != nil {
		return "", status.ErrWrite.WrapMessage(err, "writing commit in repository %q", v.r.name)
	}

	updates := []plumbing.ReferenceName{target}
	if followHEAD {
		moved := plumbing.HEAD
		if head.Type() == plumbing.SymbolicReference {
			moved = head.Target()
		}
		updates = []plumbing.ReferenceName{moved}
		if target != plumbing.HEAD && target != moved {
			updates = append(updates, target)
		}
	}
	for _, name := range updates {
		if err := repo.Storer.SetReference(plumbing.NewHashReference(name, commitHash)); err != nil {
			return "", status.ErrVersioning.WrapMessage(err, "updating %s in repository %q", name, v.r.name)
		}
	}

	v.r.l.Info("committed",
		zap.String("repository", v.r.name),
		zap.String("ref", ref),
		zap.Bool("head", followHEAD),
		zap.String("commit", commitHash.String()),
	)
	return commitHash.String(), nil
}

// refToUpdate maps a ref given by a caller to the reference a commit should update.
// Unknown short names are branches, possibly not created yet.
func (v *Versioning) refToUpdate(repo *git.Repository, ref string) (plumbing.ReferenceName, error) {
	switch {
	case ref == plumbing.HEAD.String():
		return plumbing.HEAD, nil
	case strings.HasPrefix(ref, "refs/heads/"):
		return plumbing.ReferenceName(ref), nil
	case strings.HasPrefix(ref, "refs/"), isHash(ref):
		return "", status.ErrVersioning.Wrapf("cannot commit onto %q in repository %q: not a branch", ref, v.r.name)
	}

	branch := plumbing.NewBranchReferenceName(ref)
	if _, err := repo.Reference(branch, false); err == nil {
		return branch, nil
	}
	if _, err := repo.Reference(plumbing.NewTagReferenceName(ref), false); err == nil {
		return "", status.ErrVersioning.Wrapf("cannot commit onto tag %q in repository %q", ref, v.r.name)
	}
	return branch, nil
}

// CurrentVersionID resolves HEAD. It returns false when the repository is not initialized or has no commit.
func (v *Versioning) CurrentVersionID() (string, bool, error) {
	if !v.r.isInitialized() {
		return "", false, nil
	}
	repo, err := v.r.open()
	if err != nil {
		return "", false, err
	}
	h := resolveOrZero(repo, plumbing.HEAD)
	if h.IsZero() {
		return "", false, nil
	}
	return h.String(), true, nil
}

// ListVersions walks the history of a ref, most recent version first.
//
// It returns an empty list when the repository is not initialized or the ref has no history.
func (v *Versioning) ListVersions(opts ...ListOption) ([]string, error) {
	s := listSettings{start: v.r.branch}
	for _, apply := range opts {
		apply(&s)
	}
	versions := []string{}
	if !v.r.isInitialized() {
		return versions, nil
	}
	repo, err := v.r.open()
	if err != nil {
		return nil, err
	}

	start, err := repo.ResolveRevision(plumbing.Revision(s.start))
	if err != nil {
		return versions, nil
	}
	iter, err := repo.Log(&git.LogOptions{From: *start})
	if err != nil {
		return nil, status.ErrRead.WrapMessage(err, "reading history of %q in repository %q", s.start, v.r.name)
	}
	err = iter.ForEach(func(c *object.Commit) error {
		versions = append(versions, c.Hash.String())
		return nil
	})
	if err != nil {
		return nil, status.ErrRead.WrapMessage(err, "reading history of %q in repository %q", s.start, v.r.name)
	}

	if s.ascending {
		for i, j := 0, len(versions)-1; i < j; i, j = i+1, j-1 {
			versions[i], versions[j] = versions[j], versions[i]
		}
	}
	return versions, nil
}

// CompareVersions computes the changes between two versions. Both versions must resolve to a commit.
func (v *Versioning) CompareVersions(oldRef, newRef string, includeUnchanged bool, pre Preprocessor) ([]DiffEntry, error) {
	repo, err := v.r.open()
	if err != nil {
		return nil, err
	}
	oldCommit, err := v.resolveCommit(repo, oldRef)
	if err != nil {
		return nil, err
	}
	newCommit, err := v.resolveCommit(repo, newRef)
	if err != nil {
		return nil, err
	}

	entries, err := NewDiffFormatter(v.r.name, repo.Storer, v.r.encoding, pre).Scan(oldCommit, newCommit, includeUnchanged)
	if err != nil {
		return nil, err
	}
	v.r.l.Debug("compared versions",
		zap.String("repository", v.r.name),
		zap.String("old", oldRef),
		zap.String("new", newRef),
		zap.Int("entries", len(entries)),
	)
	return entries, nil
}

// CommitTime yields the committer time of a version
func (v *Versioning) CommitTime(id string) (time.Time, error) {
	repo, err := v.r.open()
	if err != nil {
		return time.Time{}, err
	}
	commit, err := v.resolveCommit(repo, id)
	if err != nil {
		return time.Time{}, err
	}
	return commit.Committer.When, nil
}

func (v *Versioning) resolveCommit(repo *git.Repository, ref string) (*object.Commit, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, status.ErrVersioning.WrapMessage(err, "cannot resolve %q in repository %q", ref, v.r.name)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, status.ErrVersioning.WrapMessage(err, "commit %q not found in repository %q", ref, v.r.name)
	}
	return commit, nil
}

func resolveOrZero(repo *git.Repository, name plumbing.ReferenceName) plumbing.Hash {
	ref, err := repo.Reference(name, true)
	if err != nil {
		return plumbing.ZeroHash
	}
	return ref.Hash()
}

// cleanupMessage strips trailing whitespace from lines, leading and trailing blank lines,
// and collapses consecutive blank lines.
func cleanupMessage(message string) string {
	lines := strings.Split(strings.ReplaceAll(message, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	pendingBlank := false
	for _, line := range lines {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if line == "" {
			pendingBlank = len(out) > 0
			continue
		}
		if pendingBlank {
			out = append(out, "")
			pendingBlank = false
		}
		out = append(out, line)
	}
	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, "\n") + "\n"
}

func isHash(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return false
		}
	}
	return true
}
