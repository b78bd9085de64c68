package model

// Diff types of element diffs
const (
	DiffAdd       = "ADD"
	DiffModify    = "MODIFY"
	DiffDelete    = "DELETE"
	DiffUnchanged = "UNCHANGED"
)

// ElementDiff describes how an element changed between two versions.
// Diff holds the unified diff of the element, or its content when unchanged.
type ElementDiff struct {
	DiffType string    `json:"diffType" yaml:"diffType"`
	Diff     string    `json:"diff" yaml:"diff"`
	Stat     *DiffStat `json:"stat,omitempty" yaml:"stat,omitempty"`
}

// DiffStat counts changed lines
type DiffStat struct {
	Added   int `json:"added" yaml:"added"`
	Changed int `json:"changed" yaml:"changed"`
	Deleted int `json:"deleted" yaml:"deleted"`
}

// ModelDiff is a change to a model
type ModelDiff struct {
	Model       *Model `json:"model" yaml:"model"`
	ElementDiff `yaml:",inline"`
}

// NodeDiff is a change to a node
type NodeDiff struct {
	Node        *Node `json:"node" yaml:"node"`
	ElementDiff `yaml:",inline"`
}

// RelationDiff is a change to a relation
type RelationDiff struct {
	Relation    *Relation `json:"relation" yaml:"relation"`
	ElementDiff `yaml:",inline"`
}

// ConfigurationDiff groups the element diffs between two versions of a configuration
type ConfigurationDiff struct {
	Models    []ModelDiff    `json:"models,omitempty" yaml:"models,omitempty"`
	Nodes     []NodeDiff     `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Relations []RelationDiff `json:"relations,omitempty" yaml:"relations,omitempty"`
}

// Len is the total number of element diffs
func (d ConfigurationDiff) Len() int {
	return len(d.Models) + len(d.Nodes) + len(d.Relations)
}

// Elements calls fn for every element diff, models first
func (d *ConfigurationDiff) Elements(fn func(kind, id string, e *ElementDiff)) {
	for i := range d.Models {
		fn("model", d.Models[i].Model.ID, &d.Models[i].ElementDiff)
	}
	for i := range d.Nodes {
		fn("node", d.Nodes[i].Node.ID, &d.Nodes[i].ElementDiff)
	}
	for i := range d.Relations {
		fn("relation", d.Relations[i].Relation.ID, &d.Relations[i].ElementDiff)
	}
}
