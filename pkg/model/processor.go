package model

// Processor walks the elements of a configuration and looks them up by id.
//
// Lookups are indexed on first use: the configuration must not change afterwards.
type Processor struct {
	configuration *Configuration

	models    map[string]*Model
	nodes     map[string]*Node
	relations map[string]*Relation
}

// NewProcessor builds a Processor for a configuration
func NewProcessor(c *Configuration) *Processor {
	return &Processor{configuration: c}
}

// Models calls fn for every model
func (p *Processor) Models(fn func(*Model)) {
	if p.configuration == nil {
		return
	}
	for _, m := range p.configuration.Models {
		if m != nil {
			fn(m)
		}
	}
}

// Nodes calls fn for every node, with the model holding it
func (p *Processor) Nodes(fn func(*Node, *Model)) {
	p.Models(func(m *Model) {
		for _, n := range m.Nodes {
			if n != nil {
				fn(n, m)
			}
		}
	})
}

// Relations calls fn for every relation, with its source node
func (p *Processor) Relations(fn func(*Relation, *Node)) {
	p.Nodes(func(n *Node, _ *Model) {
		for _, r := range n.Relations {
			if r != nil {
				fn(r, n)
			}
		}
	})
}

// ModelByID looks up a model
func (p *Processor) ModelByID(id string) (*Model, bool) {
	if p.models == nil {
		p.models = make(map[string]*Model)
		p.Models(func(m *Model) { p.models[m.ID] = m })
	}
	m, ok := p.models[id]
	return m, ok
}

// NodeByID looks up a node
func (p *Processor) NodeByID(id string) (*Node, bool) {
	if p.nodes == nil {
		p.nodes = make(map[string]*Node)
		p.Nodes(func(n *Node, _ *Model) { p.nodes[n.ID] = n })
	}
	n, ok := p.nodes[id]
	return n, ok
}

// RelationByID looks up a relation
func (p *Processor) RelationByID(id string) (*Relation, bool) {
	if p.relations == nil {
		p.relations = make(map[string]*Relation)
		p.Relations(func(r *Relation, _ *Node) { p.relations[r.ID] = r })
	}
	r, ok := p.relations[id]
	return r, ok
}

// IDs lists the ids of all elements, in walk order. Elements without id are skipped.
func (p *Processor) IDs() []string {
	var ids []string
	add := func(id string) {
		if id != "" {
			ids = append(ids, id)
		}
	}
	p.Models(func(m *Model) { add(m.ID) })
	p.Nodes(func(n *Node, _ *Model) { add(n.ID) })
	p.Relations(func(r *Relation, _ *Node) { add(r.ID) })
	return ids
}

// DuplicateIDs lists the ids used by more than one element, in walk order
func (p *Processor) DuplicateIDs() []string {
	seen := make(map[string]int)
	var dups []string
	for _, id := range p.IDs() {
		seen[id]++
		if seen[id] == 2 {
			dups = append(dups, id)
		}
	}
	return dups
}
