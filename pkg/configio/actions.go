// Package configio maps configurations to the files of a repository.
//
// Every element is stored as an XML document, under models/, nodes/ or relations/, named after its id.
package configio

import (
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/oneconcern/confstore/pkg/dsl"
	"github.com/oneconcern/confstore/pkg/model"
	"github.com/oneconcern/confstore/pkg/naming"
	"github.com/oneconcern/confstore/pkg/repository"
	"github.com/oneconcern/confstore/pkg/repository/status"
	"go.uber.org/zap"
)

const (
	// ModelsDir holds model documents
	ModelsDir = "models"
	// NodesDir holds node documents
	NodesDir = "nodes"
	// RelationsDir holds relation documents
	RelationsDir = "relations"

	fileExt = ".xml"

	maxIDAttempts = 16
)

var rexMetadata = regexp.MustCompile(dsl.MetadataPattern)

// Actions reads and writes configurations in repositories
type Actions struct {
	ids IDGenerator
	l   *zap.Logger
}

// NewActions builds Actions with options
func NewActions(opts ...Option) *Actions {
	a := &Actions{
		ids: UUIDGenerator(),
		l:   zap.NewNop(),
	}
	for _, apply := range opts {
		apply(a)
	}
	return a
}

func elementPath(dir, id string) string {
	return path.Join(dir, id+fileExt)
}

// WriteConfiguration writes the elements of a configuration to the working directory.
//
// The configuration is completed in place: missing ids are generated, nodes get the id of their model,
// relations get their source node and the model id of that node.
// It returns the absolute paths of the written files.
func (a *Actions) WriteConfiguration(repo *repository.Repository, cfg *model.Configuration) ([]string, error) {
	if cfg == nil {
		return nil, status.ErrWrite.Wrapf("no configuration to write to repository %q", repo.Name())
	}
	if err := a.complete(repo, cfg); err != nil {
		return nil, err
	}

	var files []repository.File
	p := model.NewProcessor(cfg)
	var failed error
	addFile := func(dir, id string, text string, err error) {
		if failed != nil {
			return
		}
		if err != nil {
			failed = status.ErrWrite.WrapMessage(err, "serializing %s %q of configuration %q", dir, id, cfg.Name)
			return
		}
		files = append(files, repository.File{Path: elementPath(dir, id), Content: text})
	}
	p.Models(func(m *model.Model) {
		text, err := dsl.MarshalModel(m)
		addFile(ModelsDir, m.ID, text, err)
	})
	p.Nodes(func(n *model.Node, _ *model.Model) {
		text, err := dsl.MarshalNode(n)
		addFile(NodesDir, n.ID, text, err)
	})
	p.Relations(func(r *model.Relation, _ *model.Node) {
		text, err := dsl.MarshalRelation(r)
		addFile(RelationsDir, r.ID, text, err)
	})
	if failed != nil {
		return nil, failed
	}

	written, err := repo.WriteFiles(files...)
	if err != nil {
		return nil, err
	}
	models, nodes, relations := cfg.Counts()
	a.l.Info("wrote configuration",
		zap.String("repository", repo.Name()),
		zap.Int("models", models),
		zap.Int("nodes", nodes),
		zap.Int("relations", relations),
	)
	return written, nil
}

// complete assigns missing ids and back-references, then checks references
func (a *Actions) complete(repo *repository.Repository, cfg *model.Configuration) error {
	p := model.NewProcessor(cfg)
	used := make(map[string]struct{})
	for _, id := range p.IDs() {
		used[id] = struct{}{}
	}

	var failed error
	assign := func(id *string, kind string) {
		if failed != nil {
			return
		}
		if *id != "" {
			if !validID(*id) {
				failed = status.ErrWrite.Wrapf("%s id %q cannot be used as a file name", kind, *id)
			}
			return
		}
		*id, failed = a.uniqueID(repo, used)
	}

	p.Models(func(m *model.Model) {
		assign(&m.ID, "model")
	})
	p.Nodes(func(n *model.Node, m *model.Model) {
		assign(&n.ID, "node")
		if failed != nil {
			return
		}
		switch n.ModelID {
		case "":
			n.ModelID = m.ID
		case m.ID:
		default:
			failed = status.ErrWrite.Wrapf("node %q refers to model %q but belongs to model %q", n.ID, n.ModelID, m.ID)
		}
	})
	p.Relations(func(r *model.Relation, n *model.Node) {
		assign(&r.ID, "relation")
		if failed != nil {
			return
		}
		if r.ModelID == "" {
			r.ModelID = n.ModelID
		}
		switch {
		case r.Source == nil:
			r.Source = &model.Endpoint{ID: n.ID, Text: n.Text}
		case r.Source.ID == "":
			r.Source.ID = n.ID
		case r.Source.ID != n.ID:
			failed = status.ErrWrite.Wrapf("relation %q has source %q but belongs to node %q", r.ID, r.Source.ID, n.ID)
		}
	})
	if failed != nil {
		return failed
	}

	// targets are checked once all ids are known
	p = model.NewProcessor(cfg)
	p.Relations(func(r *model.Relation, _ *model.Node) {
		if failed != nil || r.Target == nil {
			return
		}
		if _, ok := p.NodeByID(r.Target.ID); !ok {
			failed = status.ErrWrite.Wrapf("relation %q targets unknown node %q", r.ID, r.Target.ID)
		}
	})
	return failed
}

// uniqueID generates an id unused by the configuration and by the files in the working directory
func (a *Actions) uniqueID(repo *repository.Repository, used map[string]struct{}) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := a.ids.NewID()
		if _, ok := used[id]; ok || !validID(id) {
			continue
		}
		taken := false
		for _, dir := range []string{ModelsDir, NodesDir, RelationsDir} {
			exists, err := repo.HasFile(elementPath(dir, id))
			if err != nil {
				return "", err
			}
			if exists {
				taken = true
				break
			}
		}
		if !taken {
			used[id] = struct{}{}
			return id, nil
		}
	}
	return "", status.ErrWrite.Wrapf("could not generate a unique id in repository %q", repo.Name())
}

func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

// ReadCurrentConfiguration reads the configuration at HEAD.
//
// It returns false when the repository has no version yet.
func (a *Actions) ReadCurrentConfiguration(repo *repository.Repository) (*model.Configuration, bool, error) {
	v, ok, err := repo.CurrentVersion()
	if err != nil || !ok {
		return nil, ok, err
	}
	return a.parseVersion(repo, v)
}

// ReadConfiguration reads the configuration at a version given by commit id, branch or tag.
//
// It returns false when the version cannot be resolved.
func (a *Actions) ReadConfiguration(repo *repository.Repository, version string) (*model.Configuration, bool, error) {
	v, ok, err := repo.Version(version)
	if err != nil || !ok {
		return nil, ok, err
	}
	return a.parseVersion(repo, v)
}

func (a *Actions) parseVersion(repo *repository.Repository, v repository.Version) (*model.Configuration, bool, error) {
	cfg, err := parseObjects(v.Objects())
	if err != nil {
		return nil, false, status.ErrRead.WrapMessage(err, "version %s of repository %q", v.ID(), repo.Name())
	}
	cfg.Name = repo.Name()
	meta, err := a.metadata(repo, v.ID(), v.Tags())
	if err != nil {
		return nil, false, err
	}
	cfg.Version = &meta

	models, nodes, relations := cfg.Counts()
	a.l.Debug("read configuration",
		zap.String("repository", repo.Name()),
		zap.String("version", v.ID()),
		zap.Int("models", models),
		zap.Int("nodes", nodes),
		zap.Int("relations", relations),
	)
	return cfg, true, nil
}

// parseObjects rebuilds the element tree from documents. Elements are sorted by id.
func parseObjects(objects []*repository.Object) (*model.Configuration, error) {
	cfg := &model.Configuration{}
	models := make(map[string]*model.Model)
	nodes := make(map[string]*model.Node)
	var (
		nodeList     []*model.Node
		relationList []*model.Relation
	)

	for _, o := range objects {
		dir, base := path.Split(o.Path())
		if !strings.HasSuffix(base, fileExt) {
			continue
		}
		id := strings.TrimSuffix(base, fileExt)
		dir = strings.TrimSuffix(dir, "/")
		if dir != ModelsDir && dir != NodesDir && dir != RelationsDir {
			continue
		}

		text, err := o.Content()
		if err != nil {
			return nil, err
		}
		switch dir {
		case ModelsDir:
			m, err := dsl.UnmarshalModel(text)
			if err != nil {
				return nil, status.ErrRead.WrapMessage(err, "file %q", o.Path())
			}
			if err := checkFileID(o, m.ID, id); err != nil {
				return nil, err
			}
			models[m.ID] = m
			cfg.Models = append(cfg.Models, m)
		case NodesDir:
			n, err := dsl.UnmarshalNode(text)
			if err != nil {
				return nil, status.ErrRead.WrapMessage(err, "file %q", o.Path())
			}
			if err := checkFileID(o, n.ID, id); err != nil {
				return nil, err
			}
			nodes[n.ID] = n
			nodeList = append(nodeList, n)
		case RelationsDir:
			r, err := dsl.UnmarshalRelation(text)
			if err != nil {
				return nil, status.ErrRead.WrapMessage(err, "file %q", o.Path())
			}
			if err := checkFileID(o, r.ID, id); err != nil {
				return nil, err
			}
			relationList = append(relationList, r)
		}
	}

	for _, n := range nodeList {
		m, ok := models[n.ModelID]
		if !ok {
			return nil, status.ErrRead.Wrapf("node %q refers to unknown model %q", n.ID, n.ModelID)
		}
		m.Nodes = append(m.Nodes, n)
	}
	for _, r := range relationList {
		if r.Source == nil {
			return nil, status.ErrRead.Wrapf("relation %q has no source", r.ID)
		}
		source, ok := nodes[r.Source.ID]
		if !ok {
			return nil, status.ErrRead.Wrapf("relation %q refers to unknown source node %q", r.ID, r.Source.ID)
		}
		if r.Target != nil {
			if _, ok := nodes[r.Target.ID]; !ok {
				return nil, status.ErrRead.Wrapf("relation %q refers to unknown target node %q", r.ID, r.Target.ID)
			}
		}
		source.Relations = append(source.Relations, r)
	}
	cfg.Sort()
	return cfg, nil
}

// checkFileID requires a document to be stored under its own id, which also makes ids unique per kind
func checkFileID(o *repository.Object, docID, fileID string) error {
	if docID != fileID {
		return status.ErrRead.Wrapf("file %q holds element %q", o.Path(), docID)
	}
	return nil
}

// ClearConfiguration deletes all element documents from the working directory
func (a *Actions) ClearConfiguration(repo *repository.Repository) error {
	if err := repo.DeleteFiles(ModelsDir, NodesDir, RelationsDir); err != nil {
		return err
	}
	a.l.Debug("cleared configuration", zap.String("repository", repo.Name()))
	return nil
}

// CompareConfigurations computes the element changes between two versions, ignoring layout metadata.
//
// Deleted elements are taken from the old version, all others from the new one.
func (a *Actions) CompareConfigurations(repo *repository.Repository, oldVersion, newVersion string, includeUnchanged bool) (model.ConfigurationDiff, error) {
	var diff model.ConfigurationDiff
	entries, err := repo.Versioning().CompareVersions(oldVersion, newVersion, includeUnchanged, stripMetadata)
	if err != nil {
		return diff, err
	}

	oldCfg, ok, err := a.ReadConfiguration(repo, oldVersion)
	if err != nil {
		return diff, err
	}
	if !ok {
		return diff, status.ErrRead.Wrapf("version %q not found in repository %q", oldVersion, repo.Name())
	}
	newCfg, ok, err := a.ReadConfiguration(repo, newVersion)
	if err != nil {
		return diff, err
	}
	if !ok {
		return diff, status.ErrRead.Wrapf("version %q not found in repository %q", newVersion, repo.Name())
	}
	oldProc, newProc := model.NewProcessor(oldCfg), model.NewProcessor(newCfg)

	for _, entry := range entries {
		proc := newProc
		if entry.Affected() == repository.AffectsOld {
			proc = oldProc
		}
		p := entry.Object().Path()
		id := strings.TrimSuffix(path.Base(p), fileExt)
		element := model.ElementDiff{DiffType: entry.Type().String(), Diff: entry.Diff()}

		switch path.Dir(p) {
		case ModelsDir:
			m, ok := proc.ModelByID(id)
			if !ok {
				return diff, status.ErrRead.Wrapf("model %q of diff entry not found in repository %q", id, repo.Name())
			}
			diff.Models = append(diff.Models, model.ModelDiff{Model: m, ElementDiff: element})
		case NodesDir:
			n, ok := proc.NodeByID(id)
			if !ok {
				return diff, status.ErrRead.Wrapf("node %q of diff entry not found in repository %q", id, repo.Name())
			}
			diff.Nodes = append(diff.Nodes, model.NodeDiff{Node: n, ElementDiff: element})
		case RelationsDir:
			r, ok := proc.RelationByID(id)
			if !ok {
				return diff, status.ErrRead.Wrapf("relation %q of diff entry not found in repository %q", id, repo.Name())
			}
			diff.Relations = append(diff.Relations, model.RelationDiff{Relation: r, ElementDiff: element})
		default:
			return diff, status.ErrRead.Wrapf("cannot tell the element kind of %q in repository %q", p, repo.Name())
		}
	}

	a.l.Debug("compared configurations",
		zap.String("repository", repo.Name()),
		zap.String("old", oldVersion),
		zap.String("new", newVersion),
		zap.Int("changes", diff.Len()),
	)
	return diff, nil
}

func stripMetadata(content []byte) []byte {
	return rexMetadata.ReplaceAll(content, nil)
}

// CommitChanges stages and commits the working directory, then tags the commit with the next
// generated version name and, when given and different, with a custom name.
//
// It returns the commit id.
func (a *Actions) CommitChanges(repo *repository.Repository, customTag string) (string, error) {
	v := repo.Versioning()
	changes, err := v.StageAll()
	if err != nil {
		return "", err
	}
	commit, err := v.Commit(commitMessage(repo.Name(), changes), true)
	if err != nil {
		return "", err
	}

	tags, err := v.ListTags()
	if err != nil {
		return "", err
	}
	next := naming.NextVersionName(tags)
	if err := v.TagCommit(commit, next); err != nil {
		return "", err
	}
	if customTag != "" && customTag != next {
		if err := v.TagCommit(commit, customTag); err != nil {
			return "", err
		}
	}

	a.l.Info("committed configuration",
		zap.String("repository", repo.Name()),
		zap.String("commit", commit),
		zap.String("version", next),
		zap.String("custom_name", customTag),
		zap.Int("changes", changes),
	)
	return commit, nil
}

func commitMessage(name string, changes int) string {
	return "Updated configuration '" + name + "' with " + strconv.Itoa(changes) + " changes staged"
}

// RenameConfiguration renames the repository of a configuration
func (a *Actions) RenameConfiguration(repo *repository.Repository, newName string) error {
	previous := repo.Name()
	if err := repo.Rename(newName); err != nil {
		return err
	}
	a.l.Debug("renamed configuration", zap.String("from", previous), zap.String("to", newName))
	return nil
}

// VersionMetadata describes a version given by commit id, branch or tag.
//
// It returns false when the version cannot be resolved.
func (a *Actions) VersionMetadata(repo *repository.Repository, version string) (model.ConfigurationVersion, bool, error) {
	v, ok, err := repo.Version(version)
	if err != nil || !ok {
		return model.ConfigurationVersion{}, ok, err
	}
	meta, err := a.metadata(repo, v.ID(), v.Tags())
	if err != nil {
		return model.ConfigurationVersion{}, false, err
	}
	return meta, true, nil
}

// AllVersionMetadata describes the history of the default branch, most recent version first
func (a *Actions) AllVersionMetadata(repo *repository.Repository) ([]model.ConfigurationVersion, error) {
	v := repo.Versioning()
	ids, err := v.ListVersions()
	if err != nil {
		return nil, err
	}
	versions := make([]model.ConfigurationVersion, 0, len(ids))
	for _, id := range ids {
		tags, err := v.ListTagsForCommit(id)
		if err != nil {
			return nil, err
		}
		meta, err := a.metadata(repo, id, tags)
		if err != nil {
			return nil, err
		}
		versions = append(versions, meta)
	}
	return versions, nil
}

func (a *Actions) metadata(repo *repository.Repository, id string, tags []string) (model.ConfigurationVersion, error) {
	when, err := repo.Versioning().CommitTime(id)
	if err != nil {
		return model.ConfigurationVersion{}, err
	}
	meta := model.ConfigurationVersion{Hash: id, Timestamp: when}
	// a commit recreated after a reset may carry several generated names
	meta.Name, _ = naming.MostRecentVersionName(tags)
	for _, tag := range tags {
		if !naming.IsAutoVersionName(tag) {
			meta.CustomName = tag
			break
		}
	}
	return meta, nil
}
