// Package status exports errors produced by the core package.
package status

import (
	"github.com/oneconcern/confstore/pkg/errors"
)

var (
	// ErrNotFound indicates a missing configuration or configuration version
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a configuration name collision
	ErrAlreadyExists = errors.New("configuration already exists")

	// ErrValidation indicates an invalid configuration, configuration name or version name
	ErrValidation = errors.New("invalid configuration")

	// ErrCreate indicates a failure to create a configuration
	ErrCreate = errors.New("cannot create configuration")

	// ErrUpdate indicates a failure to save a new version of a configuration
	ErrUpdate = errors.New("cannot update configuration")

	// ErrGet indicates a failure to read configurations or their versions
	ErrGet = errors.New("cannot get configuration")

	// ErrDelete indicates a failure to delete a configuration
	ErrDelete = errors.New("cannot delete configuration")

	// ErrRename indicates a failure to rename a configuration
	ErrRename = errors.New("cannot rename configuration")

	// ErrCompare indicates a failure to compare versions of a configuration
	ErrCompare = errors.New("cannot compare configuration versions")

	// ErrCheckout indicates a failure to check out a version of a configuration
	ErrCheckout = errors.New("cannot checkout configuration version")

	// ErrReset indicates a failure to reset a configuration to some version
	ErrReset = errors.New("cannot reset configuration")

	// ErrTag indicates a failure to name a version of a configuration
	ErrTag = errors.New("cannot tag configuration version")
)

// Kinds lists the errors returned as is by the core package
func Kinds() []error {
	return []error{ErrNotFound, ErrAlreadyExists, ErrValidation}
}
