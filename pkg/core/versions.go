package core

import (
	"github.com/oneconcern/confstore/pkg/core/status"
	"github.com/oneconcern/confstore/pkg/model"
	"github.com/oneconcern/confstore/pkg/repository"
	"github.com/sourcegraph/go-diff/diff"
	"go.uber.org/zap"
)

// ListConfigurationVersions describes the versions of a configuration, most recent first
func (s *Service) ListConfigurationVersions(name string) ([]model.ConfigurationVersion, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	versions, err := repository.WithRepositoryResult(s.manager, name, func(r *repository.Repository) ([]model.ConfigurationVersion, error) {
		if err := requireInitialized(r); err != nil {
			return nil, err
		}
		return s.actions.AllVersionMetadata(r)
	})
	if err != nil {
		return nil, classify(err, status.ErrGet, "versions of configuration %q", name)
	}
	for i := range versions {
		decodeVersion(&versions[i])
	}
	s.l.Debug("listed versions", zap.String("configuration", name), zap.Int("versions", len(versions)))
	return versions, nil
}

// CompareConfigurationVersions lists the elements changed between two versions of a configuration.
//
// Changes to layout metadata are ignored. Unchanged elements are listed when includeUnchanged is set.
func (s *Service) CompareConfigurationVersions(name, oldVersion, newVersion string, includeUnchanged bool) (model.ConfigurationDiff, error) {
	if err := validateName(name); err != nil {
		return model.ConfigurationDiff{}, err
	}
	oldRef, newRef := encodeVersion(oldVersion), encodeVersion(newVersion)

	d, err := repository.WithRepositoryResult(s.manager, name, func(r *repository.Repository) (model.ConfigurationDiff, error) {
		if err := requireInitialized(r); err != nil {
			return model.ConfigurationDiff{}, err
		}
		return s.actions.CompareConfigurations(r, oldRef, newRef, includeUnchanged)
	})
	if err != nil {
		return model.ConfigurationDiff{}, classify(err, status.ErrCompare,
			"versions %q and %q of configuration %q", oldVersion, newVersion, name)
	}

	d.Elements(func(kind, id string, e *model.ElementDiff) {
		if e.DiffType == model.DiffUnchanged {
			return
		}
		stat, err := diffStat(e.Diff)
		if err != nil {
			s.l.Warn("cannot count changed lines", zap.String("kind", kind), zap.String("id", id), zap.Error(err))
			return
		}
		e.Stat = stat
	})

	s.l.Info("compared versions",
		zap.String("configuration", name),
		zap.String("old", oldVersion),
		zap.String("new", newVersion),
		zap.Int("changes", d.Len()),
	)
	return d, nil
}

// diffStat counts the changed lines of a unified diff. Adjacent removals and additions count as changes.
func diffStat(text string) (*model.DiffStat, error) {
	fd, err := diff.ParseFileDiff([]byte(text))
	if err != nil {
		return nil, err
	}
	stat := fd.Stat()
	return &model.DiffStat{
		Added:   int(stat.Added),
		Changed: int(stat.Changed),
		Deleted: int(stat.Deleted),
	}, nil
}

// CheckoutConfigurationVersion moves the working copy of a configuration to some version
func (s *Service) CheckoutConfigurationVersion(name, version string) (*model.Configuration, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	ref := encodeVersion(version)
	c, err := repository.WithRepositoryResult(s.manager, name, func(r *repository.Repository) (*model.Configuration, error) {
		if err := requireInitialized(r); err != nil {
			return nil, err
		}
		if _, err := r.Versioning().Checkout(ref); err != nil {
			return nil, err
		}
		return s.at(r, ref)
	})
	if err != nil {
		return nil, classify(err, status.ErrCheckout, "version %q of configuration %q", version, name)
	}

	s.l.Info("checked out version", zap.String("configuration", name), zap.String("version", version))
	return c, nil
}

// ResetConfiguration resets a configuration to some version, discarding the versions that follow.
// The current version is used when version is empty.
func (s *Service) ResetConfiguration(name, version string) (*model.Configuration, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	c, err := repository.WithRepositoryResult(s.manager, name, func(r *repository.Repository) (*model.Configuration, error) {
		if err := requireInitialized(r); err != nil {
			return nil, err
		}
		ref := encodeVersion(version)
		if version == "" {
			current, ok, err := r.Versioning().CurrentVersionID()
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, status.ErrNotFound.Wrapf("no version of configuration %q", name)
			}
			ref = current
		}
		if _, err := r.Versioning().Reset(ref); err != nil {
			return nil, err
		}
		return s.at(r, ref)
	})
	if err != nil {
		return nil, classify(err, status.ErrReset, "configuration %q", name)
	}

	s.l.Info("reset configuration", zap.String("configuration", name), zap.String("version", c.Version.Hash))
	return c, nil
}

// TagConfigurationVersion gives a custom name to a version of a configuration
func (s *Service) TagConfigurationVersion(name, version, customName string) (model.ConfigurationVersion, error) {
	if err := validateName(name); err != nil {
		return model.ConfigurationVersion{}, err
	}
	tag := encodeVersion(customName)
	if tag == "" {
		return model.ConfigurationVersion{}, status.ErrValidation.Wrapf("version name %q is empty once encoded", customName)
	}
	ref := encodeVersion(version)

	v, err := repository.WithRepositoryResult(s.manager, name, func(r *repository.Repository) (model.ConfigurationVersion, error) {
		if err := requireInitialized(r); err != nil {
			return model.ConfigurationVersion{}, err
		}
		meta, ok, err := s.actions.VersionMetadata(r, ref)
		if err != nil {
			return model.ConfigurationVersion{}, err
		}
		if !ok {
			return model.ConfigurationVersion{}, status.ErrNotFound.Wrapf("version %q of configuration %q", version, name)
		}
		if err := r.Versioning().TagCommit(meta.Hash, tag); err != nil {
			return model.ConfigurationVersion{}, err
		}
		if meta.CustomName == "" {
			meta.CustomName = tag
		}
		return meta, nil
	})
	if err != nil {
		return model.ConfigurationVersion{}, classify(err, status.ErrTag, "version %q of configuration %q", version, name)
	}
	decodeVersion(&v)

	s.l.Info("tagged version", zap.String("configuration", name), zap.String("version", v.Hash), zap.String("tag", customName))
	return v, nil
}
