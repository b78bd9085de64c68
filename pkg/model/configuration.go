package model

import (
	"sort"
	"time"
)

// Configuration is a named tree of models, possibly at some version
type Configuration struct {
	Name    string                `json:"name" yaml:"name"`
	Version *ConfigurationVersion `json:"version,omitempty" yaml:"version,omitempty"`
	Models  []*Model              `json:"models,omitempty" yaml:"models,omitempty"`
	_       struct{}
}

// ConfigurationVersion identifies a version of a configuration
type ConfigurationVersion struct {
	// Hash of the commit
	Hash string `json:"hash,omitempty" yaml:"hash,omitempty"`
	// Name is the auto-generated version name, e.g. v1.0.3
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// CustomName is an optional name given by the user
	CustomName string    `json:"customName,omitempty" yaml:"customName,omitempty"`
	Timestamp  time.Time `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	_          struct{}
}

// VersionHash yields the version hash, if any
func (c *Configuration) VersionHash() string {
	if c.Version == nil {
		return ""
	}
	return c.Version.Hash
}

// VersionCustomName yields the custom version name, if any
func (c *Configuration) VersionCustomName() string {
	if c.Version == nil {
		return ""
	}
	return c.Version.CustomName
}

// Model groups nodes
type Model struct {
	ID         string     `json:"id,omitempty" yaml:"id,omitempty"`
	Text       string     `json:"text,omitempty" yaml:"text,omitempty"`
	Type       string     `json:"type,omitempty" yaml:"type,omitempty"`
	Properties []Property `json:"properties,omitempty" yaml:"properties,omitempty"`
	Nodes      []*Node    `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	_          struct{}
}

// Node is an element of a model, source of its relations
type Node struct {
	ID          string      `json:"id,omitempty" yaml:"id,omitempty"`
	ModelID     string      `json:"modelId,omitempty" yaml:"modelId,omitempty"`
	Text        string      `json:"text,omitempty" yaml:"text,omitempty"`
	ElementType string      `json:"elementType,omitempty" yaml:"elementType,omitempty"`
	Type        string      `json:"type,omitempty" yaml:"type,omitempty"`
	Tags        []string    `json:"tags,omitempty" yaml:"tags,omitempty"`
	Properties  []Property  `json:"properties,omitempty" yaml:"properties,omitempty"`
	Metadata    *Metadata   `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Relations   []*Relation `json:"relations,omitempty" yaml:"relations,omitempty"`
	_           struct{}
}

// Relation links a source node to a target node
type Relation struct {
	ID          string     `json:"id,omitempty" yaml:"id,omitempty"`
	ModelID     string     `json:"modelId,omitempty" yaml:"modelId,omitempty"`
	Text        string     `json:"text,omitempty" yaml:"text,omitempty"`
	ElementType string     `json:"elementType,omitempty" yaml:"elementType,omitempty"`
	Type        string     `json:"type,omitempty" yaml:"type,omitempty"`
	Source      *Endpoint  `json:"source,omitempty" yaml:"source,omitempty"`
	Target      *Endpoint  `json:"target,omitempty" yaml:"target,omitempty"`
	Properties  []Property `json:"properties,omitempty" yaml:"properties,omitempty"`
	Metadata    *Metadata  `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	_           struct{}
}

// Endpoint of a relation
type Endpoint struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
	_    struct{}
}

// Property is a key/value pair. Properties are ordered.
type Property struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
	_     struct{}
}

// Metadata holds the layout of an element in a diagram.
//
// Metadata is not semantic: it is ignored when comparing versions.
type Metadata struct {
	PanelAttributes      []Property   `json:"panelAttributes,omitempty" yaml:"panelAttributes,omitempty"`
	AdditionalAttributes []int        `json:"additionalAttributes,omitempty" yaml:"additionalAttributes,omitempty"`
	Coordinates          *Coordinates `json:"coordinates,omitempty" yaml:"coordinates,omitempty"`
	Positions            *Positions   `json:"positions,omitempty" yaml:"positions,omitempty"`
	_                    struct{}
}

// Coordinates of the bounding box of an element
type Coordinates struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
	_ struct{}
}

// Positions of the points of a relation
type Positions struct {
	Start *RelativePosition  `json:"start,omitempty" yaml:"start,omitempty"`
	Mid   []RelativePosition `json:"mid,omitempty" yaml:"mid,omitempty"`
	End   *RelativePosition  `json:"end,omitempty" yaml:"end,omitempty"`
	_     struct{}
}

// RelativePosition is a point given by its absolute position and its offset to the element
type RelativePosition struct {
	AbsX    int `json:"absX" yaml:"absX"`
	AbsY    int `json:"absY" yaml:"absY"`
	OffsetX int `json:"offsetX" yaml:"offsetX"`
	OffsetY int `json:"offsetY" yaml:"offsetY"`
	_       struct{}
}

// Sort orders models, nodes and relations by id, recursively
func (c *Configuration) Sort() {
	sort.SliceStable(c.Models, func(i, j int) bool { return c.Models[i].ID < c.Models[j].ID })
	for _, m := range c.Models {
		sort.SliceStable(m.Nodes, func(i, j int) bool { return m.Nodes[i].ID < m.Nodes[j].ID })
		for _, n := range m.Nodes {
			sort.SliceStable(n.Relations, func(i, j int) bool { return n.Relations[i].ID < n.Relations[j].ID })
		}
	}
}

// Counts yields the number of models, nodes and relations
func (c *Configuration) Counts() (models, nodes, relations int) {
	p := NewProcessor(c)
	p.Models(func(*Model) { models++ })
	p.Nodes(func(*Node, *Model) { nodes++ })
	p.Relations(func(*Relation, *Node) { relations++ })
	return
}
