// Package status exports errors produced by the repository package.
package status

import (
	"github.com/oneconcern/confstore/pkg/errors"
)

var (
	// ErrAccess signals a path escaping its repository or root directory, or an unusable root
	ErrAccess = errors.New("repository access error")

	// ErrNotInitialized indicates an operation that requires an initialized repository
	ErrNotInitialized = errors.New("repository not initialized")

	// ErrRead indicates a failure to read from the object store or the working directory
	ErrRead = errors.New("repository read error")

	// ErrWrite indicates a failure to write to the working directory or the object store
	ErrWrite = errors.New("repository write error")

	// ErrVersioning indicates an unresolvable ref, an invalid commit or tag, or an unsupported diff
	ErrVersioning = errors.New("repository versioning error")

	// ErrAlreadyExists indicates a repository name collision
	ErrAlreadyExists = errors.New("repository already exists")

	// ErrDelete indicates a failure to delete files or directories
	ErrDelete = errors.New("repository delete error")

	// ErrNotFound indicates a missing repository or version
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates invalid input, such as a blank commit message or a forbidden name
	ErrValidation = errors.New("validation error")
)
