package repository

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/oneconcern/confstore/pkg/repository/status"
	"go.uber.org/zap"
)

// CheckoutOption sets options for a checkout
type CheckoutOption func(*checkoutSettings)

type checkoutSettings struct {
	attach    bool
	preferred string
}

// Detached leaves HEAD detached, even when some branch points at the checked out version
func Detached() CheckoutOption {
	return func(s *checkoutSettings) {
		s.attach = false
	}
}

// PreferBranch picks the branch to attach HEAD to, when several branches point at the checked out version
func PreferBranch(branch string) CheckoutOption {
	return func(s *checkoutSettings) {
		s.preferred = branch
	}
}

// Checkout moves the working tree and HEAD to a version given by commit id, branch or tag.
//
// The checkout is forced: uncommitted changes are discarded. HEAD is attached to the branch pointing
// at the version, if there is exactly one. When several branches qualify, the preferred branch wins,
// then the default branch. Otherwise HEAD is detached.
//
// It returns the id of the checked out commit.
func (v *Versioning) Checkout(target string, opts ...CheckoutOption) (string, error) {
	s := checkoutSettings{attach: true}
	for _, apply := range opts {
		apply(&s)
	}

	repo, wt, err := v.worktree()
	if err != nil {
		return "", err
	}
	commit, err := v.resolveCommit(repo, target)
	if err != nil {
		return "", err
	}
	previous, err := headFiles(repo)
	if err != nil {
		return "", status.ErrRead.WrapMessage(err, "listing files at HEAD of repository %q", v.r.name)
	}

	co := &git.CheckoutOptions{Force: true}
	branch := ""
	if s.attach {
		branch, err = v.pickBranch(repo, commit.Hash, s.preferred)
		if err != nil {
			return "", err
		}
	}
	if branch != "" {
		co.Branch = plumbing.NewBranchReferenceName(branch)
	} else {
		co.Hash = commit.Hash
	}
	if err := wt.Checkout(co); err != nil {
		return "", status.ErrVersioning.WrapMessage(err, "checking out %q in repository %q", target, v.r.name)
	}
	if err := v.removeStale(previous, commit); err != nil {
		return "", err
	}

	v.r.l.Info("checked out",
		zap.String("repository", v.r.name),
		zap.String("target", target),
		zap.String("commit", commit.Hash.String()),
		zap.String("branch", branch),
	)
	return commit.Hash.String(), nil
}

func (v *Versioning) pickBranch(repo *git.Repository, commit plumbing.Hash, preferred string) (string, error) {
	iter, err := repo.Branches()
	if err != nil {
		return "", status.ErrRead.WrapMessage(err, "listing branches of repository %q", v.r.name)
	}
	var candidates []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Hash() == commit {
			candidates = append(candidates, ref.Name().Short())
		}
		return nil
	})
	if err != nil {
		return "", status.ErrRead.WrapMessage(err, "listing branches of repository %q", v.r.name)
	}

	switch len(candidates) {
	case 0:
		return "", nil
	case 1:
		return candidates[0], nil
	}
	for _, pick := range []string{preferred, v.r.branch} {
		for _, c := range candidates {
			if pick != "" && c == pick {
				return c, nil
			}
		}
	}
	return "", nil
}

// Reset moves the checked out ref (the branch HEAD is attached to, or HEAD itself) to some version
// and restores the working tree. Versions committed after it on that ref are no longer reachable.
//
// It returns the id of the commit reset to.
func (v *Versioning) Reset(target string) (string, error) {
	repo, wt, err := v.worktree()
	if err != nil {
		return "", err
	}
	commit, err := v.resolveCommit(repo, target)
	if err != nil {
		return "", err
	}
	previous, err := headFiles(repo)
	if err != nil {
		return "", status.ErrRead.WrapMessage(err, "listing files at HEAD of repository %q", v.r.name)
	}

	if err := wt.Reset(&git.ResetOptions{Commit: commit.Hash, Mode: git.HardReset}); err != nil {
		return "", status.ErrVersioning.WrapMessage(err, "resetting repository %q to %q", v.r.name, target)
	}
	if err := v.removeStale(previous, commit); err != nil {
		return "", err
	}

	v.r.l.Info("reset",
		zap.String("repository", v.r.name),
		zap.String("target", target),
		zap.String("commit", commit.Hash.String()),
	)
	return commit.Hash.String(), nil
}

// removeStale deletes from the working tree the files tracked before a checkout or reset
// that the new version does not have.
func (v *Versioning) removeStale(previous map[string]struct{}, commit *object.Commit) error {
	if len(previous) == 0 {
		return nil
	}
	current, err := commitFiles(commit)
	if err != nil {
		return status.ErrRead.WrapMessage(err, "listing files of %s in repository %q", commit.Hash, v.r.name)
	}
	for p := range previous {
		if _, ok := current[p]; ok {
			continue
		}
		if err := v.r.fs.RemoveAll(filepath.Join(v.r.workDir, filepath.FromSlash(p))); err != nil {
			return status.ErrDelete.WrapMessage(err, "removing %q from working tree of repository %q", p, v.r.name)
		}
	}
	return nil
}

func headFiles(repo *git.Repository) (map[string]struct{}, error) {
	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, err
	}
	return commitFiles(commit)
}

func commitFiles(commit *object.Commit) (map[string]struct{}, error) {
	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}
	files := make(map[string]struct{})
	err = tree.Files().ForEach(func(f *object.File) error {
		files[f.Name] = struct{}{}
		return nil
	})
	return files, err
}

// TagCommit tags an existing commit. Tag names are unique.
func (v *Versioning) TagCommit(commitID, tag string) error {
	if strings.TrimSpace(tag) == "" {
		return status.ErrVersioning.Wrapf("tag name must not be blank in repository %q", v.r.name)
	}
	repo, err := v.r.open()
	if err != nil {
		return err
	}
	commit, err := v.resolveCommit(repo, commitID)
	if err != nil {
		return err
	}
	if _, err := repo.CreateTag(tag, commit.Hash, nil); err != nil {
		if errors.Is(err, git.ErrTagExists) {
			return status.ErrVersioning.Wrapf("tag %q already exists in repository %q", tag, v.r.name)
		}
		return status.ErrVersioning.WrapMessage(err, "tagging %s as %q in repository %q", commit.Hash, tag, v.r.name)
	}
	v.r.l.Debug("tagged",
		zap.String("repository", v.r.name),
		zap.String("tag", tag),
		zap.String("commit", commit.Hash.String()),
	)
	return nil
}

// ListTagsForCommit lists the tags pointing exactly at a commit, sorted by name.
// The commit must exist.
func (v *Versioning) ListTagsForCommit(commitID string) ([]string, error) {
	repo, err := v.r.open()
	if err != nil {
		return nil, err
	}
	commit, err := v.resolveCommit(repo, commitID)
	if err != nil {
		return nil, err
	}
	tags, err := tagsFor(repo, commit.Hash)
	if err != nil {
		return nil, status.ErrRead.WrapMessage(err, "listing tags of %s in repository %q", commit.Hash, v.r.name)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

// ListTags lists all tags, sorted by name
func (v *Versioning) ListTags() ([]string, error) {
	repo, err := v.r.open()
	if err != nil {
		return nil, err
	}
	iter, err := repo.Tags()
	if err != nil {
		return nil, status.ErrRead.WrapMessage(err, "listing tags of repository %q", v.r.name)
	}
	tags := []string{}
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		tags = append(tags, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, status.ErrRead.WrapMessage(err, "listing tags of repository %q", v.r.name)
	}
	sort.Strings(tags)
	return tags, nil
}
