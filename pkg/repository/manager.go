package repository

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Manager runs functions against repositories and guarantees they are closed afterwards
type Manager struct {
	factory *Factory
}

// NewManager builds a Manager for the repositories of a Factory
func NewManager(factory *Factory) *Manager {
	return &Manager{factory: factory}
}

// Factory used by this manager
func (m *Manager) Factory() *Factory {
	return m.factory
}

// WithRepository runs fn against a repository, then closes it
func (m *Manager) WithRepository(name string, fn func(*Repository) error) error {
	_, err := WithRepositoryResult(m, name, func(r *Repository) (struct{}, error) {
		return struct{}{}, fn(r)
	})
	return err
}

// WithRepositoryResult runs fn against a repository and returns its result. The repository is closed afterwards.
func WithRepositoryResult[T any](m *Manager, name string, fn func(*Repository) (T, error)) (T, error) {
	var zero T
	repo, err := m.factory.RepositoryByName(name)
	if err != nil {
		return zero, err
	}
	defer m.release(repo)

	return fn(repo)
}

// WithAllRepositories runs fn against all initialized repositories, then closes them all
func (m *Manager) WithAllRepositories(fn func([]*Repository) error) error {
	_, err := WithAllRepositoriesResult(m, func(repos []*Repository) (struct{}, error) {
		return struct{}{}, fn(repos)
	})
	return err
}

// WithAllRepositoriesResult runs fn against all initialized repositories and returns its result.
// All repositories are closed afterwards.
func WithAllRepositoriesResult[T any](m *Manager, fn func([]*Repository) (T, error)) (T, error) {
	var zero T
	repos, err := m.factory.AllRepositories()
	if err != nil {
		return zero, err
	}
	defer m.release(repos...)

	return fn(repos)
}

// release closes repositories. Failures are logged, not returned.
func (m *Manager) release(repos ...*Repository) {
	var err error
	for _, r := range repos {
		err = multierr.Append(err, r.Close())
	}
	if err != nil {
		m.factory.l.Warn("failed to release repositories", zap.Error(err))
	}
}
