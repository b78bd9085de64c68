package configio

import (
	"fmt"
	"path/filepath"
	"sort"
	"testing"

	"github.com/go-test/deep"
	"github.com/oneconcern/confstore/pkg/dsl"
	"github.com/oneconcern/confstore/pkg/errors"
	"github.com/oneconcern/confstore/pkg/model"
	"github.com/oneconcern/confstore/pkg/repository"
	"github.com/oneconcern/confstore/pkg/repository/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestRepo(t testing.TB, name string) *repository.Repository {
	f, err := repository.NewFactory(t.TempDir())
	require.NoError(t, err)
	r, err := f.RepositoryByName(name)
	require.NoError(t, err)
	require.NoError(t, r.Versioning().Init())
	t.Cleanup(func() { _ = r.Close() })
	return r
}

// sequence yields id-1, id-2, ...
func sequence() IDGenerator {
	n := 0
	return IDGeneratorFunc(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
}

// smallConfiguration has 2 models, 2 nodes and 1 relation
func smallConfiguration() *model.Configuration {
	return &model.Configuration{
		Name: "test",
		Models: []*model.Model{
			{ID: "m1", Text: "Line", Type: "PPR", Nodes: []*model.Node{
				{
					ID: "n1", Text: "Robot", ElementType: "UMLClass",
					Tags: []string{"arm"},
					Metadata: &model.Metadata{
						Coordinates: &model.Coordinates{X: 10, Y: 20, W: 100, H: 50},
					},
					Relations: []*model.Relation{
						{ID: "r1", Text: "feeds", Type: "->", Target: &model.Endpoint{ID: "n2", Text: "Belt"}},
					},
				},
			}},
			{ID: "m2", Text: "Transport", Nodes: []*model.Node{
				{ID: "n2", Text: "Belt", Properties: []model.Property{{Key: "speed", Value: "3"}}},
			}},
		},
	}
}

// largerConfiguration has 3 models, 3 nodes and 2 relations. Model m2 is modified, node n1 only moved.
func largerConfiguration() *model.Configuration {
	c := smallConfiguration()
	c.Models[0].Nodes[0].Metadata.Coordinates.X = 500
	c.Models[1].Text = "Conveyor"
	c.Models[1].Nodes[0].Relations = []*model.Relation{
		{ID: "r2", Text: "delivers", Target: &model.Endpoint{ID: "n3"}},
	}
	c.Models = append(c.Models, &model.Model{
		ID: "m3", Text: "Storage", Nodes: []*model.Node{{ID: "n3", Text: "Shelf"}},
	})
	return c
}

func save(t testing.TB, a *Actions, r *repository.Repository, c *model.Configuration, tag string) string {
	require.NoError(t, a.ClearConfiguration(r))
	_, err := a.WriteConfiguration(r, c)
	require.NoError(t, err)
	commit, err := a.CommitChanges(r, tag)
	require.NoError(t, err)
	return commit
}

func TestRoundTrip(t *testing.T) {
	r := newTestRepo(t, "test")
	a := NewActions(WithLogger(zaptest.NewLogger(t)))

	want := smallConfiguration()
	paths, err := a.WriteConfiguration(r, want)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(r.WorkDir(), "models", "m1.xml"),
		filepath.Join(r.WorkDir(), "models", "m2.xml"),
		filepath.Join(r.WorkDir(), "nodes", "n1.xml"),
		filepath.Join(r.WorkDir(), "nodes", "n2.xml"),
		filepath.Join(r.WorkDir(), "relations", "r1.xml"),
	}, paths)

	// back-references are filled on write
	assert.Equal(t, "m1", want.Models[0].Nodes[0].ModelID)
	rel := want.Models[0].Nodes[0].Relations[0]
	assert.Equal(t, "m1", rel.ModelID)
	assert.Equal(t, &model.Endpoint{ID: "n1", Text: "Robot"}, rel.Source)

	commit, err := a.CommitChanges(r, "")
	require.NoError(t, err)

	got, ok, err := a.ReadCurrentConfiguration(r)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, got.Version)
	assert.Equal(t, commit, got.Version.Hash)
	assert.Equal(t, "v1.0.0", got.Version.Name)
	assert.Empty(t, got.Version.CustomName)
	assert.False(t, got.Version.Timestamp.IsZero())

	got.Version = nil
	want.Sort()
	assert.Nil(t, deep.Equal(want, got))

	byTag, ok, err := a.ReadConfiguration(r, "v1.0.0")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, commit, byTag.VersionHash())
}

func TestReadWithoutVersion(t *testing.T) {
	r := newTestRepo(t, "empty")
	a := NewActions()

	_, ok, err := a.ReadCurrentConfiguration(r)
	require.NoError(t, err)
	assert.False(t, ok)

	save(t, a, r, smallConfiguration(), "")
	_, ok, err = a.ReadConfiguration(r, "v9.9.9")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = a.VersionMetadata(r, "unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAssignMissingIDs(t *testing.T) {
	r := newTestRepo(t, "ids")
	_, err := r.WriteFiles(repository.File{Path: "nodes/id-1.xml", Content: "<node/>"})
	require.NoError(t, err)

	c := &model.Configuration{
		Name: "ids",
		Models: []*model.Model{{
			Nodes: []*model.Node{
				{ID: "id-3"},
				{Relations: []*model.Relation{{Target: &model.Endpoint{ID: "id-3"}}}},
			},
		}},
	}
	a := NewActions(WithIDGenerator(sequence()))
	_, err = a.WriteConfiguration(r, c)
	require.NoError(t, err)

	m := c.Models[0]
	assert.Equal(t, "id-2", m.ID, "id-1 is taken on disk")
	assert.Equal(t, "id-3", m.Nodes[0].ID)
	assert.Equal(t, "id-4", m.Nodes[1].ID, "id-3 is taken by the configuration")
	assert.Equal(t, "id-2", m.Nodes[1].ModelID)

	rel := m.Nodes[1].Relations[0]
	assert.Equal(t, "id-5", rel.ID)
	assert.Equal(t, "id-2", rel.ModelID)
	assert.Equal(t, "id-4", rel.Source.ID)

	for _, p := range []string{"models/id-2.xml", "nodes/id-3.xml", "nodes/id-4.xml", "relations/id-5.xml"} {
		ok, err := r.HasFile(p)
		require.NoError(t, err)
		assert.True(t, ok, p)
	}
}

func TestIDGenerators(t *testing.T) {
	for _, name := range []string{"", "uuid", "ksuid", "KSUID"} {
		g, ok := IDGeneratorByName(name)
		require.True(t, ok, name)
		a, b := g.NewID(), g.NewID()
		assert.NotEmpty(t, a)
		assert.NotEqual(t, a, b)
		assert.True(t, validID(a))
	}
	_, ok := IDGeneratorByName("sequence")
	assert.False(t, ok)

	// the generator must retry when it keeps colliding
	r := newTestRepo(t, "stuck")
	stuck := NewActions(WithIDGenerator(IDGeneratorFunc(func() string { return "same" })))
	_, err := stuck.WriteConfiguration(r, &model.Configuration{Models: []*model.Model{{}, {}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrWrite))
}

func TestWriteRejectsInconsistentConfiguration(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*model.Configuration)
	}{
		{name: "node of another model", mutate: func(c *model.Configuration) {
			c.Models[0].Nodes[0].ModelID = "m2"
		}},
		{name: "relation of another node", mutate: func(c *model.Configuration) {
			c.Models[0].Nodes[0].Relations[0].Source = &model.Endpoint{ID: "n2"}
		}},
		{name: "unknown target", mutate: func(c *model.Configuration) {
			c.Models[0].Nodes[0].Relations[0].Target.ID = "n9"
		}},
		{name: "path in id", mutate: func(c *model.Configuration) {
			c.Models[1].ID = "../m2"
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRepo(t, "invalid")
			c := smallConfiguration()
			tc.mutate(c)

			_, err := NewActions().WriteConfiguration(r, c)
			require.Error(t, err)
			assert.True(t, errors.Is(err, status.ErrWrite))

			ok, err := r.HasFile("models/m1.xml")
			require.NoError(t, err)
			assert.False(t, ok, "nothing is written")
		})
	}

	_, err := NewActions().WriteConfiguration(newTestRepo(t, "nil"), nil)
	assert.True(t, errors.Is(err, status.ErrWrite))
}

func TestReadDanglingReferences(t *testing.T) {
	modelDoc, err := dsl.MarshalModel(&model.Model{ID: "m1"})
	require.NoError(t, err)

	for _, tc := range []struct {
		name string
		node *model.Node
		rel  *model.Relation
		path string
	}{
		{name: "unknown model", node: &model.Node{ID: "n1", ModelID: "m9"}},
		{name: "unknown source", node: &model.Node{ID: "n1", ModelID: "m1"},
			rel: &model.Relation{ID: "r1", Source: &model.Endpoint{ID: "n9"}}},
		{name: "missing source", node: &model.Node{ID: "n1", ModelID: "m1"},
			rel: &model.Relation{ID: "r1"}},
		{name: "unknown target", node: &model.Node{ID: "n1", ModelID: "m1"},
			rel: &model.Relation{ID: "r1", Source: &model.Endpoint{ID: "n1"}, Target: &model.Endpoint{ID: "n9"}}},
		{name: "misplaced document", node: &model.Node{ID: "n1", ModelID: "m1"}, path: "nodes/other.xml"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRepo(t, "dangling")
			nodeDoc, err := dsl.MarshalNode(tc.node)
			require.NoError(t, err)
			nodePath := tc.path
			if nodePath == "" {
				nodePath = "nodes/" + tc.node.ID + ".xml"
			}
			files := []repository.File{
				{Path: "models/m1.xml", Content: modelDoc},
				{Path: nodePath, Content: nodeDoc},
			}
			if tc.rel != nil {
				relDoc, err := dsl.MarshalRelation(tc.rel)
				require.NoError(t, err)
				files = append(files, repository.File{Path: "relations/" + tc.rel.ID + ".xml", Content: relDoc})
			}
			_, err = r.WriteFiles(files...)
			require.NoError(t, err)

			a := NewActions()
			_, err = a.CommitChanges(r, "")
			require.NoError(t, err)

			_, _, err = a.ReadCurrentConfiguration(r)
			require.Error(t, err)
			assert.True(t, errors.Is(err, status.ErrRead))
		})
	}
}

func TestReadIgnoresOtherFiles(t *testing.T) {
	r := newTestRepo(t, "others")
	a := NewActions()
	_, err := a.WriteConfiguration(r, smallConfiguration())
	require.NoError(t, err)
	_, err = r.WriteFiles(
		repository.File{Path: "README.md", Content: "notes"},
		repository.File{Path: "models/notes.txt", Content: "notes"},
		repository.File{Path: "archive/models/m9.xml", Content: "<model/>"},
	)
	require.NoError(t, err)
	_, err = a.CommitChanges(r, "")
	require.NoError(t, err)

	got, ok, err := a.ReadCurrentConfiguration(r)
	require.NoError(t, err)
	require.True(t, ok)
	m, n, rel := got.Counts()
	assert.Equal(t, []int{2, 2, 1}, []int{m, n, rel})
}

func TestCommitChanges(t *testing.T) {
	r := newTestRepo(t, "tags")
	a := NewActions()

	c1 := save(t, a, r, smallConfiguration(), "")
	c2 := save(t, a, r, largerConfiguration(), "release-1")
	c3 := save(t, a, r, smallConfiguration(), "v1.0.2")

	v := r.Versioning()
	tags, err := v.ListTagsForCommit(c1)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1.0.0"}, tags)
	tags, err = v.ListTagsForCommit(c2)
	require.NoError(t, err)
	assert.Equal(t, []string{"release-1", "v1.0.1"}, tags)
	tags, err = v.ListTagsForCommit(c3)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1.0.2"}, tags, "a custom tag equal to the generated one is not added twice")

	history, err := r.Versioning().ListVersions()
	require.NoError(t, err)
	assert.Equal(t, []string{c3, c2, c1}, history)

	meta, err := a.AllVersionMetadata(r)
	require.NoError(t, err)
	require.Len(t, meta, 3)
	assert.Equal(t, c3, meta[0].Hash)
	assert.Equal(t, "v1.0.1", meta[1].Name)
	assert.Equal(t, "release-1", meta[1].CustomName)
	assert.Empty(t, meta[2].CustomName)

	one, ok, err := a.VersionMetadata(r, "release-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, c2, one.Hash)
	assert.Equal(t, "v1.0.1", one.Name)
}

func TestVersionMetadataSeveralNames(t *testing.T) {
	r := newTestRepo(t, "names")
	a := NewActions()

	c1 := save(t, a, r, smallConfiguration(), "")
	v := r.Versioning()
	for _, tag := range []string{"v1.0.10", "v1.0.2", "golden"} {
		require.NoError(t, v.TagCommit(c1, tag))
	}

	meta, ok, err := a.VersionMetadata(r, c1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v1.0.10", meta.Name, "the most recent generated name wins")
	assert.Equal(t, "golden", meta.CustomName)
}

func TestCommitMessage(t *testing.T) {
	assert.Equal(t, "Updated configuration 'test' with 5 changes staged", commitMessage("test", 5))
}

type diffKey struct {
	kind, id, diffType string
}

func diffKeys(d model.ConfigurationDiff) []diffKey {
	var keys []diffKey
	d.Elements(func(kind, id string, e *model.ElementDiff) {
		keys = append(keys, diffKey{kind: kind, id: id, diffType: e.DiffType})
	})
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].kind != keys[j].kind {
			return keys[i].kind < keys[j].kind
		}
		return keys[i].id < keys[j].id
	})
	return keys
}

func TestCompareConfigurations(t *testing.T) {
	r := newTestRepo(t, "test")
	a := NewActions()

	v1 := save(t, a, r, smallConfiguration(), "")
	v2 := save(t, a, r, largerConfiguration(), "")

	d, err := a.CompareConfigurations(r, v1, v2, false)
	require.NoError(t, err)
	assert.Equal(t, []diffKey{
		{"model", "m2", model.DiffModify},
		{"model", "m3", model.DiffAdd},
		{"node", "n3", model.DiffAdd},
		{"relation", "r2", model.DiffAdd},
	}, diffKeys(d), "moving n1 only changes its metadata")

	for _, md := range d.Models {
		if md.Model.ID == "m2" {
			assert.Equal(t, "Conveyor", md.Model.Text, "modified elements come from the new version")
			assert.Contains(t, md.Diff, "-  <text>Transport</text>")
			assert.Contains(t, md.Diff, "+  <text>Conveyor</text>")
		}
	}

	d, err = a.CompareConfigurations(r, v1, v2, true)
	require.NoError(t, err)
	assert.Equal(t, []diffKey{
		{"model", "m1", model.DiffUnchanged},
		{"model", "m2", model.DiffModify},
		{"model", "m3", model.DiffAdd},
		{"node", "n2", model.DiffUnchanged},
		{"node", "n3", model.DiffAdd},
		{"relation", "r1", model.DiffUnchanged},
		{"relation", "r2", model.DiffAdd},
	}, diffKeys(d), "an element whose metadata only changed is not listed")

	d, err = a.CompareConfigurations(r, v2, v1, false)
	require.NoError(t, err)
	assert.Equal(t, []diffKey{
		{"model", "m2", model.DiffModify},
		{"model", "m3", model.DiffDelete},
		{"node", "n3", model.DiffDelete},
		{"relation", "r2", model.DiffDelete},
	}, diffKeys(d))
	for _, nd := range d.Nodes {
		assert.Equal(t, "Shelf", nd.Node.Text, "deleted elements come from the old version")
	}

	_, err = a.CompareConfigurations(r, v1, "v9.9.9", false)
	require.Error(t, err)
}

func TestRenameConfiguration(t *testing.T) {
	r := newTestRepo(t, "before")
	a := NewActions()
	save(t, a, r, smallConfiguration(), "")

	require.NoError(t, a.RenameConfiguration(r, "after"))
	got, ok, err := a.ReadCurrentConfiguration(r)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "after", got.Name)
}
