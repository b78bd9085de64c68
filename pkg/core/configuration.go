package core

import (
	"github.com/oneconcern/confstore/pkg/core/status"
	"github.com/oneconcern/confstore/pkg/model"
	"github.com/oneconcern/confstore/pkg/repository"
	"go.uber.org/zap"
)

// CreateConfiguration stores a new configuration, as its first version.
//
// The configuration must not have a version yet. Missing element ids are generated in place.
// When anything fails after the repository is created, the repository is removed.
func (s *Service) CreateConfiguration(c *model.Configuration) (*model.Configuration, error) {
	if c != nil && c.VersionHash() != "" {
		return nil, status.ErrValidation.Wrapf("new configuration %q cannot have a version", c.Name)
	}
	if err := validateConfiguration(c); err != nil {
		return nil, err
	}
	s.l.Debug("creating configuration", zap.String("configuration", c.Name))

	saved, err := repository.WithRepositoryResult(s.manager, c.Name, func(r *repository.Repository) (*model.Configuration, error) {
		if err := r.Versioning().Init(); err != nil {
			return nil, err
		}
		saved, err := s.save(r, c)
		if err != nil {
			if rollback := r.Delete(); rollback != nil {
				s.l.Error("failed to roll back creation of configuration",
					zap.String("configuration", c.Name), zap.Error(rollback))
			}
			return nil, err
		}
		return saved, nil
	})
	if err != nil {
		return nil, classify(err, status.ErrCreate, "configuration %q", c.Name)
	}

	s.l.Info("created configuration", zap.String("configuration", c.Name), zap.String("version", saved.Version.Name))
	return saved, nil
}

// UpdateConfiguration saves a new version of an existing configuration.
//
// The elements of the configuration replace all elements of the current version.
func (s *Service) UpdateConfiguration(c *model.Configuration) (*model.Configuration, error) {
	if err := validateConfiguration(c); err != nil {
		return nil, err
	}
	s.l.Debug("updating configuration", zap.String("configuration", c.Name))

	saved, err := repository.WithRepositoryResult(s.manager, c.Name, func(r *repository.Repository) (*model.Configuration, error) {
		if err := requireInitialized(r); err != nil {
			return nil, err
		}
		return s.save(r, c)
	})
	if err != nil {
		return nil, classify(err, status.ErrUpdate, "configuration %q", c.Name)
	}

	s.l.Info("updated configuration", zap.String("configuration", c.Name), zap.String("version", saved.Version.Name))
	return saved, nil
}

// GetConfiguration reads the current version of a configuration
func (s *Service) GetConfiguration(name string) (*model.Configuration, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	c, err := repository.WithRepositoryResult(s.manager, name, func(r *repository.Repository) (*model.Configuration, error) {
		if err := requireInitialized(r); err != nil {
			return nil, err
		}
		return s.current(r)
	})
	if err != nil {
		return nil, classify(err, status.ErrGet, "current version of configuration %q", name)
	}
	return c, nil
}

// GetConfigurationVersion reads a version of a configuration, given by version name, custom name or commit id
func (s *Service) GetConfigurationVersion(name, version string) (*model.Configuration, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	ref := encodeVersion(version)
	c, err := repository.WithRepositoryResult(s.manager, name, func(r *repository.Repository) (*model.Configuration, error) {
		if err := requireInitialized(r); err != nil {
			return nil, err
		}
		return s.at(r, ref)
	})
	if err != nil {
		return nil, classify(err, status.ErrGet, "version %q of configuration %q", version, name)
	}
	return c, nil
}

// ListConfigurations reads the current version of all configurations.
// Configurations without any version are skipped.
func (s *Service) ListConfigurations() ([]*model.Configuration, error) {
	configurations, err := repository.WithAllRepositoriesResult(s.manager, func(repos []*repository.Repository) ([]*model.Configuration, error) {
		list := make([]*model.Configuration, 0, len(repos))
		for _, r := range repos {
			c, ok, err := s.actions.ReadCurrentConfiguration(r)
			if err != nil {
				return nil, err
			}
			if ok {
				list = append(list, decodeConfiguration(c))
			}
		}
		return list, nil
	})
	if err != nil {
		return nil, classify(err, status.ErrGet, "listing configurations")
	}
	s.l.Debug("listed configurations", zap.Int("configurations", len(configurations)))
	return configurations, nil
}

// RenameConfiguration renames a configuration and returns its current version
func (s *Service) RenameConfiguration(name, newName string) (*model.Configuration, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateName(newName); err != nil {
		return nil, err
	}
	if name == newName {
		return s.GetConfiguration(name)
	}

	c, err := repository.WithRepositoryResult(s.manager, name, func(r *repository.Repository) (*model.Configuration, error) {
		if err := requireInitialized(r); err != nil {
			return nil, err
		}
		if err := s.actions.RenameConfiguration(r, newName); err != nil {
			return nil, err
		}
		return s.current(r)
	})
	if err != nil {
		return nil, classify(err, status.ErrRename, "configuration %q to %q", name, newName)
	}

	s.l.Info("renamed configuration", zap.String("configuration", name), zap.String("new_name", newName))
	return c, nil
}

// DeleteConfiguration removes a configuration with all its versions
func (s *Service) DeleteConfiguration(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	err := s.manager.WithRepository(name, func(r *repository.Repository) error {
		if !r.Exists() {
			return status.ErrNotFound.Wrapf("configuration %q", name)
		}
		return r.Delete()
	})
	if err != nil {
		return classify(err, status.ErrDelete, "configuration %q", name)
	}

	s.l.Info("deleted configuration", zap.String("configuration", name))
	return nil
}
