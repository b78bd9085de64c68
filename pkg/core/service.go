// Package core manages versioned configurations.
//
// Every configuration lives in its own repository, named after the configuration. Saving a configuration
// creates a new version, tagged with a generated version name and optionally with a custom name.
package core

import (
	"github.com/oneconcern/confstore/pkg/configio"
	"github.com/oneconcern/confstore/pkg/core/status"
	"github.com/oneconcern/confstore/pkg/errors"
	"github.com/oneconcern/confstore/pkg/model"
	"github.com/oneconcern/confstore/pkg/naming"
	"github.com/oneconcern/confstore/pkg/repository"
	repostatus "github.com/oneconcern/confstore/pkg/repository/status"
	"go.uber.org/zap"
)

// Service exposes configuration operations.
//
// Calls on the same configuration must be serialized by the caller.
type Service struct {
	manager *repository.Manager
	actions *configio.Actions
	l       *zap.Logger
}

// NewService builds a configuration service on top of a repository manager
func NewService(manager *repository.Manager, actions *configio.Actions, opts ...ServiceOption) *Service {
	s := &Service{
		manager: manager,
		actions: actions,
		l:       zap.NewNop(),
	}
	if s.actions == nil {
		s.actions = configio.NewActions()
	}
	for _, apply := range opts {
		apply(s)
	}
	return s
}

// classify reports an error as some operation failure, unless it is already a core error.
// Name collisions are reported as such.
func classify(err error, kind *errors.Error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	for _, k := range status.Kinds() {
		if errors.Is(err, k) {
			return err
		}
	}
	if errors.Is(err, repostatus.ErrAlreadyExists) {
		return status.ErrAlreadyExists.WrapMessage(err, format, args...)
	}
	return kind.WrapMessage(err, format, args...)
}

func validateName(name string) error {
	if err := naming.ValidateRepositoryName(name); err != nil {
		return status.ErrValidation.WrapMessage(err, "configuration name %q", name)
	}
	return nil
}

// encodeVersion turns a version given by the user into a ref. Generated version names and commit ids
// are left untouched by the encoding.
func encodeVersion(version string) string {
	return naming.EncodeVersionName(version, true)
}

func decodeVersion(v *model.ConfigurationVersion) {
	if v != nil && v.CustomName != "" {
		v.CustomName = naming.DecodeVersionName(v.CustomName)
	}
}

func decodeConfiguration(c *model.Configuration) *model.Configuration {
	if c != nil {
		decodeVersion(c.Version)
	}
	return c
}

// validateConfiguration checks the name and element ids of a configuration.
//
// Missing model ids of nodes and relations are filled in place.
func validateConfiguration(c *model.Configuration) error {
	if c == nil {
		return status.ErrValidation.Wrapf("no configuration")
	}
	if err := validateName(c.Name); err != nil {
		return err
	}

	p := model.NewProcessor(c)
	var failed error
	p.Nodes(func(n *model.Node, m *model.Model) {
		switch {
		case failed != nil:
		case n.ModelID == "":
			n.ModelID = m.ID
		case n.ModelID != m.ID:
			failed = status.ErrValidation.Wrapf("node %q does not belong to the model it is assigned to", n.ID)
		}
	})
	p.Relations(func(r *model.Relation, n *model.Node) {
		switch {
		case failed != nil:
		case r.ModelID == "":
			r.ModelID = n.ModelID
		case r.ModelID != n.ModelID:
			failed = status.ErrValidation.Wrapf("relation %q does not belong to the model it is assigned to", r.ID)
		}
	})
	if failed != nil {
		return failed
	}

	if dups := p.DuplicateIDs(); len(dups) > 0 {
		return status.ErrValidation.Wrapf("configuration %q contains %d duplicate element ids: %v", c.Name, len(dups), dups)
	}
	return nil
}

// customTag yields the encoded custom version name of a configuration, if any
func customTag(c *model.Configuration) string {
	return naming.EncodeVersionName(c.VersionCustomName(), true)
}

// requireInitialized fails with ErrNotFound for a configuration without repository
func requireInitialized(r *repository.Repository) error {
	if !r.Versioning().IsInitialized() {
		return status.ErrNotFound.Wrapf("configuration %q", r.Name())
	}
	return nil
}

// save replaces the working directory with a configuration, commits it and reads back the new version
func (s *Service) save(r *repository.Repository, c *model.Configuration) (*model.Configuration, error) {
	if err := s.actions.ClearConfiguration(r); err != nil {
		return nil, err
	}
	if _, err := s.actions.WriteConfiguration(r, c); err != nil {
		return nil, err
	}
	commit, err := s.actions.CommitChanges(r, customTag(c))
	if err != nil {
		return nil, err
	}
	return s.at(r, commit)
}

// current reads the current version of a configuration
func (s *Service) current(r *repository.Repository) (*model.Configuration, error) {
	c, ok, err := s.actions.ReadCurrentConfiguration(r)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, status.ErrNotFound.Wrapf("current version of configuration %q", r.Name())
	}
	return decodeConfiguration(c), nil
}

// at reads some version of a configuration
func (s *Service) at(r *repository.Repository, version string) (*model.Configuration, error) {
	c, ok, err := s.actions.ReadConfiguration(r, version)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, status.ErrNotFound.Wrapf("version %q of configuration %q", version, r.Name())
	}
	return decodeConfiguration(c), nil
}
