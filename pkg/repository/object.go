package repository

import (
	"bytes"
	"io"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/oneconcern/confstore/pkg/repository/status"
	"golang.org/x/text/encoding"
)

// Object is a handle to a file blob at some version of a repository.
//
// The content is resolved lazily from the object store. When caching is enabled, the content
// is read at most once. The object store must outlive the Object.
type Object struct {
	id       plumbing.Hash
	path     []byte
	enc      encoding.Encoding
	store    storer.EncodedObjectStorer
	cache    bool
	resolved bool
	content  []byte
}

func newObject(store storer.EncodedObjectStorer, id plumbing.Hash, path string, enc encoding.Encoding, cache bool) *Object {
	return &Object{
		id:    id,
		path:  []byte(path),
		enc:   enc,
		store: store,
		cache: cache,
	}
}

// ID of the blob
func (o *Object) ID() string {
	return o.id.String()
}

// RawPath yields the path of the file relative to the repository root, as stored in the tree
func (o *Object) RawPath() []byte {
	return append([]byte(nil), o.path...)
}

// Path yields the decoded path of the file relative to the repository root
func (o *Object) Path() string {
	return decode(o.enc, o.path)
}

// PathMatches tells if the raw path of this object starts with prefix
func (o *Object) PathMatches(prefix string) bool {
	return bytes.HasPrefix(o.path, []byte(prefix))
}

// RawContent yields the content of the blob
func (o *Object) RawContent() ([]byte, error) {
	if o.resolved {
		return o.content, nil
	}
	if o.id.IsZero() {
		return nil, status.ErrRead.Wrapf("object %q has no id", o.Path())
	}

	content, err := readBlob(o.store, o.id)
	if err != nil {
		return nil, status.ErrRead.WrapMessage(err, "reading object %s at %q", o.id, o.Path())
	}
	if o.cache {
		o.content = content
		o.resolved = true
	}
	return content, nil
}

// Content yields the content of the blob, decoded
func (o *Object) Content() (string, error) {
	raw, err := o.RawContent()
	if err != nil {
		return "", err
	}
	return decode(o.enc, raw), nil
}

func readBlob(store storer.EncodedObjectStorer, id plumbing.Hash) ([]byte, error) {
	blob, err := object.GetBlob(store, id)
	if err != nil {
		return nil, err
	}
	rdr, err := blob.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rdr.Close()
	}()
	return io.ReadAll(rdr)
}

func decode(enc encoding.Encoding, b []byte) string {
	if enc == nil {
		return string(b)
	}
	s, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}

func encode(enc encoding.Encoding, s string) ([]byte, error) {
	if enc == nil {
		return []byte(s), nil
	}
	return enc.NewEncoder().Bytes([]byte(s))
}
