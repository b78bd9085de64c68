package repository

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/utils/merkletrie"
	"github.com/oneconcern/confstore/pkg/repository/status"
	"golang.org/x/text/encoding"
)

// Preprocessor transforms the content of an object before it is compared.
//
// A nil Preprocessor leaves contents untouched. Contents mapped to identical
// outputs do not produce any diff entry.
type Preprocessor func(content []byte) []byte

// DiffFormatter compares the trees of two commits and renders the differences as DiffEntry values
type DiffFormatter struct {
	name  string
	store storer.EncodedObjectStorer
	enc   encoding.Encoding
	pre   Preprocessor
}

// NewDiffFormatter builds a DiffFormatter reading objects from store
func NewDiffFormatter(name string, store storer.EncodedObjectStorer, enc encoding.Encoding, pre Preprocessor) *DiffFormatter {
	return &DiffFormatter{
		name:  name,
		store: store,
		enc:   enc,
		pre:   pre,
	}
}

// Scan compares two commits.
//
// Changed files come first, in tree order, followed by unchanged files of the old commit when
// includeUnchanged is set. Files whose preprocessed contents have no line edits produce no entry at all.
// Renames are not detected: a moved file is a delete and an add.
func (f *DiffFormatter) Scan(oldCommit, newCommit *object.Commit, includeUnchanged bool) ([]DiffEntry, error) {
	oldTree, err := oldCommit.Tree()
	if err != nil {
		return nil, status.ErrRead.WrapMessage(err, "reading tree of %s in repository %q", oldCommit.Hash, f.name)
	}
	newTree, err := newCommit.Tree()
	if err != nil {
		return nil, status.ErrRead.WrapMessage(err, "reading tree of %s in repository %q", newCommit.Hash, f.name)
	}

	changes, err := object.DiffTreeWithOptions(context.Background(), oldTree, newTree, &object.DiffTreeOptions{DetectRenames: false})
	if err != nil {
		return nil, status.ErrVersioning.WrapMessage(err,
			"comparing versions %s and %s in repository %q", oldCommit.Hash, newCommit.Hash, f.name)
	}

	entries := make([]DiffEntry, 0, len(changes))
	changed := make(map[string]struct{}, len(changes))
	for _, change := range changes {
		// suppressed changes stay out of the unchanged entries too
		changed[change.From.Name] = struct{}{}
		changed[change.To.Name] = struct{}{}

		entry, err := f.entryFor(change)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			continue
		}
		entries = append(entries, entry)
	}

	if !includeUnchanged {
		return entries, nil
	}

	unchanged, err := f.unchanged(oldTree, changed)
	if err != nil {
		return nil, status.ErrVersioning.WrapMessage(err, "walking tree of %s in repository %q", oldCommit.Hash, f.name)
	}
	return append(entries, unchanged...), nil
}

func (f *DiffFormatter) entryFor(change *object.Change) (DiffEntry, error) {
	action, err := change.Action()
	if err != nil {
		return nil, status.ErrVersioning.WrapMessage(err, "classifying change in repository %q", f.name)
	}

	h := changeHeader{
		oldPath: change.From.Name,
		newPath: change.To.Name,
		oldMode: change.From.TreeEntry.Mode,
		newMode: change.To.TreeEntry.Mode,
		oldID:   change.From.TreeEntry.Hash,
		newID:   change.To.TreeEntry.Hash,
	}

	var oldObj, newObj *Object
	var oldContent, newContent []byte

	switch action {
	case merkletrie.Insert:
		h.kind = DiffAdd
		newObj = f.sideObject(change.To)
		if newContent, err = f.contentOf(newObj); err != nil {
			return nil, err
		}
	case merkletrie.Delete:
		h.kind = DiffDelete
		oldObj = f.sideObject(change.From)
		if oldContent, err = f.contentOf(oldObj); err != nil {
			return nil, err
		}
	case merkletrie.Modify:
		h.kind = DiffModify
		h.renamed = change.From.Name != change.To.Name
		oldObj = f.sideObject(change.From)
		newObj = f.sideObject(change.To)
		if oldContent, err = f.contentOf(oldObj); err != nil {
			return nil, err
		}
		if newContent, err = f.contentOf(newObj); err != nil {
			return nil, err
		}
	default:
		return nil, status.ErrVersioning.Wrapf("unsupported change type %v in repository %q", action, f.name)
	}

	text, ok, err := f.unifiedDiff(h, oldContent, newContent)
	if err != nil || !ok {
		return nil, err
	}

	switch h.kind {
	case DiffAdd:
		return &AddEntry{New: newObj, diff: text}, nil
	case DiffDelete:
		return &DeleteEntry{Old: oldObj, diff: text}, nil
	default:
		return &ModifyEntry{Old: oldObj, New: newObj, diff: text}, nil
	}
}

// unifiedDiff renders the header and hunks of a change. It returns false when the
// contents have no line edits.
func (f *DiffFormatter) unifiedDiff(h changeHeader, oldContent, newContent []byte) (string, bool, error) {
	a, b := splitLines(oldContent), splitLines(newContent)
	codes := editScript(a, b)
	if len(codes) == 0 {
		return "", false, nil
	}

	var buf bytes.Buffer
	if err := formatHeader(&buf, h); err != nil {
		return "", false, err
	}
	formatHunks(&buf, a, b, codes)
	return decode(f.enc, buf.Bytes()), true, nil
}

func (f *DiffFormatter) unchanged(tree *object.Tree, changed map[string]struct{}) ([]DiffEntry, error) {
	var entries []DiffEntry
	walker := object.NewTreeWalker(tree, true, nil)
	defer walker.Close()

	for {
		name, entry, err := walker.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if !entry.Mode.IsFile() {
			continue
		}
		if _, ok := changed[name]; ok {
			continue
		}

		obj := newObject(f.store, entry.Hash, name, f.enc, false)
		content, err := f.contentOf(obj)
		if err != nil {
			return nil, err
		}
		if len(content) == 0 {
			continue
		}
		entries = append(entries, &UnchangedEntry{Unchanged: obj, content: decode(f.enc, content)})
	}
	return entries, nil
}

func (f *DiffFormatter) contentOf(o *Object) ([]byte, error) {
	raw, err := o.RawContent()
	if err != nil {
		return nil, err
	}
	if f.pre == nil {
		return raw, nil
	}
	return f.pre(raw), nil
}

// sideObject builds a cached object for one side of a change
func (f *DiffFormatter) sideObject(side object.ChangeEntry) *Object {
	return newObject(f.store, side.TreeEntry.Hash, side.Name, f.enc, true)
}
