package repository

import (
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

const (
	// DefaultBranch is the branch created when a repository is initialized
	DefaultBranch = "main"

	defaultAuthorName  = "confstore"
	defaultAuthorEmail = "confstore@localhost"
)

// Option sets options for repositories built by a Factory
type Option func(*settings)

type settings struct {
	encoding encoding.Encoding
	branch   string
	l        *zap.Logger
	fs       afero.Fs
	author   string
	email    string
}

func defaultSettings() settings {
	return settings{
		encoding: unicode.UTF8,
		branch:   DefaultBranch,
		l:        zap.NewNop(),
		fs:       afero.NewOsFs(),
		author:   defaultAuthorName,
		email:    defaultAuthorEmail,
	}
}

// WithEncoding sets the character encoding used for all text read from and written to repositories.
// It defaults to UTF-8.
func WithEncoding(enc encoding.Encoding) Option {
	return func(s *settings) {
		if enc != nil {
			s.encoding = enc
		}
	}
}

// WithDefaultBranch sets the name of the branch created on init. It defaults to "main".
func WithDefaultBranch(branch string) Option {
	return func(s *settings) {
		if branch != "" {
			s.branch = branch
		}
	}
}

// WithLogger sets a logger
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.l = l
		}
	}
}

// WithFs sets the filesystem used for working directory operations.
//
// The git object store always lives on the OS filesystem: this option is meant for
// working directory I/O, e.g. to inject failures in tests.
func WithFs(fs afero.Fs) Option {
	return func(s *settings) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// WithSignature sets the author and committer of new commits
func WithSignature(name, email string) Option {
	return func(s *settings) {
		if name != "" {
			s.author = name
		}
		if email != "" {
			s.email = email
		}
	}
}
