package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oneconcern/confstore/pkg/configio"
	"github.com/oneconcern/confstore/pkg/core/status"
	"github.com/oneconcern/confstore/pkg/errors"
	"github.com/oneconcern/confstore/pkg/model"
	"github.com/oneconcern/confstore/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestService(t testing.TB) (*Service, string) {
	root := t.TempDir()
	f, err := repository.NewFactory(root)
	require.NoError(t, err)
	l := zaptest.NewLogger(t)
	return NewService(repository.NewManager(f), configio.NewActions(configio.WithLogger(l)), WithLogger(l)), root
}

func firstVersion(name, customName string) *model.Configuration {
	c := &model.Configuration{
		Name: name,
		Models: []*model.Model{
			{ID: "m1", Text: "Line", Nodes: []*model.Node{
				{ID: "n1", Text: "Robot", Relations: []*model.Relation{
					{ID: "r1", Target: &model.Endpoint{ID: "n2"}},
				}},
			}},
			{ID: "m2", Text: "Transport", Nodes: []*model.Node{{ID: "n2", Text: "Belt"}}},
		},
	}
	if customName != "" {
		c.Version = &model.ConfigurationVersion{CustomName: customName}
	}
	return c
}

func secondVersion(name string) *model.Configuration {
	c := firstVersion(name, "")
	c.Models[1].Text = "Conveyor"
	c.Models = append(c.Models, &model.Model{ID: "m3", Nodes: []*model.Node{{ID: "n3"}}})
	return c
}

func TestCreateConfiguration(t *testing.T) {
	s, _ := newTestService(t)

	created, err := s.CreateConfiguration(firstVersion("test", "release 1/a"))
	require.NoError(t, err)
	require.NotNil(t, created.Version)
	assert.Equal(t, "test", created.Name)
	assert.Equal(t, "v1.0.0", created.Version.Name)
	assert.Equal(t, "release 1/a", created.Version.CustomName)
	assert.NotEmpty(t, created.Version.Hash)
	assert.Equal(t, "m1", created.Models[0].Nodes[0].Relations[0].ModelID)

	byName, err := s.GetConfigurationVersion("test", "release 1/a")
	require.NoError(t, err)
	assert.Equal(t, created.Version.Hash, byName.Version.Hash)

	current, err := s.GetConfiguration("test")
	require.NoError(t, err)
	assert.Equal(t, created.Version.Hash, current.Version.Hash)

	_, err = s.CreateConfiguration(firstVersion("test", ""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrAlreadyExists))

	_, err = s.GetConfiguration("test")
	assert.NoError(t, err, "a name collision does not remove the existing configuration")
}

func TestCreateConfigurationValidation(t *testing.T) {
	s, root := newTestService(t)

	for _, tc := range []struct {
		name   string
		config *model.Configuration
	}{
		{name: "nil"},
		{name: "blank name", config: firstVersion(" ", "")},
		{name: "path name", config: firstVersion("../escape", "")},
		{name: "preset version", config: func() *model.Configuration {
			c := firstVersion("preset", "")
			c.Version = &model.ConfigurationVersion{Hash: "abc"}
			return c
		}()},
		{name: "duplicate ids", config: func() *model.Configuration {
			c := firstVersion("dups", "")
			c.Models[1].Nodes[0].ID = "n1"
			c.Models[1].Nodes[0].Relations = nil
			return c
		}()},
		{name: "node of another model", config: func() *model.Configuration {
			c := firstVersion("misplaced", "")
			c.Models[1].Nodes[0].ModelID = "m1"
			return c
		}()},
		{name: "relation of another model", config: func() *model.Configuration {
			c := firstVersion("misplaced", "")
			c.Models[0].Nodes[0].Relations[0].ModelID = "m2"
			return c
		}()},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.CreateConfiguration(tc.config)
			require.Error(t, err)
			assert.True(t, errors.Is(err, status.ErrValidation), err.Error())
		})
	}

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is created for an invalid configuration")
}

func TestCreateConfigurationRollback(t *testing.T) {
	s, root := newTestService(t)

	c := firstVersion("broken", "")
	c.Models[0].Nodes[0].Relations[0].Target.ID = "unknown"
	_, err := s.CreateConfiguration(c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrCreate))
	assert.NoDirExists(t, filepath.Join(root, "broken"))

	_, err = s.GetConfiguration("broken")
	assert.True(t, errors.Is(err, status.ErrNotFound))
}

func TestUpdateConfiguration(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.UpdateConfiguration(firstVersion("missing", ""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNotFound))

	first, err := s.CreateConfiguration(firstVersion("test", ""))
	require.NoError(t, err)
	second, err := s.UpdateConfiguration(secondVersion("test"))
	require.NoError(t, err)
	assert.Equal(t, "v1.0.1", second.Version.Name)
	models, nodes, relations := second.Counts()
	assert.Equal(t, []int{3, 3, 1}, []int{models, nodes, relations})

	versions, err := s.ListConfigurationVersions("test")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, second.Version.Hash, versions[0].Hash)
	assert.Equal(t, first.Version.Hash, versions[1].Hash)
	assert.Equal(t, "v1.0.0", versions[1].Name)

	_, err = s.ListConfigurationVersions("missing")
	assert.True(t, errors.Is(err, status.ErrNotFound))
}

func TestCompareConfigurationVersions(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.CreateConfiguration(firstVersion("test", ""))
	require.NoError(t, err)
	_, err = s.UpdateConfiguration(secondVersion("test"))
	require.NoError(t, err)

	d, err := s.CompareConfigurationVersions("test", "v1.0.0", "v1.0.1", false)
	require.NoError(t, err)
	require.Len(t, d.Models, 2)
	require.Len(t, d.Nodes, 1)
	assert.Empty(t, d.Relations)

	for _, md := range d.Models {
		require.NotNil(t, md.Stat, md.Model.ID)
		switch md.Model.ID {
		case "m2":
			assert.Equal(t, model.DiffModify, md.DiffType)
			assert.Equal(t, model.DiffStat{Changed: 1}, *md.Stat)
		case "m3":
			assert.Equal(t, model.DiffAdd, md.DiffType)
			assert.Zero(t, md.Stat.Deleted)
			assert.NotZero(t, md.Stat.Added)
		default:
			t.Errorf("unexpected model %q", md.Model.ID)
		}
	}

	d, err = s.CompareConfigurationVersions("test", "v1.0.0", "v1.0.1", true)
	require.NoError(t, err)
	assert.Equal(t, 7, d.Len(), "3 changes and 4 unchanged elements")
	d.Elements(func(_, id string, e *model.ElementDiff) {
		if e.DiffType == model.DiffUnchanged {
			assert.Nil(t, e.Stat, id)
		}
	})

	_, err = s.CompareConfigurationVersions("test", "v1.0.0", "v7.0.0", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrCompare))
}

func TestDiffStat(t *testing.T) {
	stat, err := diffStat("diff --git a/models/m.xml b/models/m.xml\n" +
		"index 1111111..2222222 100644\n" +
		"--- a/models/m.xml\n" +
		"+++ b/models/m.xml\n" +
		"@@ -1,3 +1,4 @@\n" +
		" <model>\n" +
		"-  <text>a</text>\n" +
		"+  <text>b</text>\n" +
		"+  <extra/>\n" +
		" </model>\n")
	require.NoError(t, err)
	assert.Equal(t, model.DiffStat{Added: 1, Changed: 1}, *stat)
}

func TestCheckoutAndReset(t *testing.T) {
	s, _ := newTestService(t)
	first, err := s.CreateConfiguration(firstVersion("test", ""))
	require.NoError(t, err)
	second, err := s.UpdateConfiguration(secondVersion("test"))
	require.NoError(t, err)

	checkedOut, err := s.CheckoutConfigurationVersion("test", "v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, first.Version.Hash, checkedOut.Version.Hash)
	current, err := s.GetConfiguration("test")
	require.NoError(t, err)
	assert.Equal(t, first.Version.Hash, current.Version.Hash)

	_, err = s.CheckoutConfigurationVersion("test", "v1.0.1")
	require.NoError(t, err)

	reset, err := s.ResetConfiguration("test", "v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, first.Version.Hash, reset.Version.Hash)
	versions, err := s.ListConfigurationVersions("test")
	require.NoError(t, err)
	require.Len(t, versions, 1, "reset discards the versions that follow")

	again, err := s.ResetConfiguration("test", "")
	require.NoError(t, err)
	assert.Equal(t, first.Version.Hash, again.Version.Hash)

	// same content as the discarded version: within the same second, git recreates the same commit
	recreated, err := s.UpdateConfiguration(secondVersion("test"))
	require.NoError(t, err)
	assert.Equal(t, "v1.0.2", recreated.Version.Name, "generated names are never reused")

	other := secondVersion("test")
	other.Models[1].Text = "Roller"
	third, err := s.UpdateConfiguration(other)
	require.NoError(t, err)
	assert.Equal(t, "v1.0.3", third.Version.Name)
	assert.NotEqual(t, second.Version.Hash, third.Version.Hash)
	assert.NotEqual(t, recreated.Version.Hash, third.Version.Hash)

	_, err = s.CheckoutConfigurationVersion("test", "unknown")
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrCheckout))
}

func TestTagConfigurationVersion(t *testing.T) {
	s, _ := newTestService(t)
	first, err := s.CreateConfiguration(firstVersion("test", ""))
	require.NoError(t, err)

	v, err := s.TagConfigurationVersion("test", "v1.0.0", "golden: build 1")
	require.NoError(t, err)
	assert.Equal(t, first.Version.Hash, v.Hash)
	assert.Equal(t, "golden: build 1", v.CustomName)

	c, err := s.GetConfigurationVersion("test", "golden: build 1")
	require.NoError(t, err)
	assert.Equal(t, "golden: build 1", c.Version.CustomName)

	_, err = s.TagConfigurationVersion("test", "v1.0.0", "golden: build 1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrTag))

	_, err = s.TagConfigurationVersion("test", "v1.0.0", "--")
	assert.True(t, errors.Is(err, status.ErrValidation))

	_, err = s.TagConfigurationVersion("test", "v3.0.0", "other")
	assert.True(t, errors.Is(err, status.ErrNotFound))
}

func TestListConfigurations(t *testing.T) {
	s, root := newTestService(t)
	for _, name := range []string{"b", "a"} {
		_, err := s.CreateConfiguration(firstVersion(name, ""))
		require.NoError(t, err)
	}
	require.NoError(t, os.MkdirAll(filepath.Join(root, "plain"), 0o755))

	list, err := s.ListConfigurations()
	require.NoError(t, err)
	var names []string
	for _, c := range list {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"a", "b"}, names)
}

func TestRenameConfiguration(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.CreateConfiguration(firstVersion("before", ""))
	require.NoError(t, err)
	_, err = s.CreateConfiguration(firstVersion("taken", ""))
	require.NoError(t, err)

	same, err := s.RenameConfiguration("before", "before")
	require.NoError(t, err)
	assert.Equal(t, "before", same.Name)

	_, err = s.RenameConfiguration("before", "taken")
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrAlreadyExists))

	renamed, err := s.RenameConfiguration("before", "after")
	require.NoError(t, err)
	assert.Equal(t, "after", renamed.Name)

	_, err = s.GetConfiguration("before")
	assert.True(t, errors.Is(err, status.ErrNotFound))

	_, err = s.RenameConfiguration("after", "bad/name")
	assert.True(t, errors.Is(err, status.ErrValidation))
}

func TestDeleteConfiguration(t *testing.T) {
	s, root := newTestService(t)
	_, err := s.CreateConfiguration(firstVersion("test", ""))
	require.NoError(t, err)

	require.NoError(t, s.DeleteConfiguration("test"))
	assert.NoDirExists(t, filepath.Join(root, "test"))

	err = s.DeleteConfiguration("test")
	assert.True(t, errors.Is(err, status.ErrNotFound))
}
