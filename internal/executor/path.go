package executor

import (
	"encoding/json"
	"strconv"
	"strings"
)

// PathNode is one immutable segment of a response path. Each node points at
// its parent; the root of a path is the nil *PathNode. Nodes are shared by
// concurrent resolutions and never modified after construction.
type PathNode struct {
	parent  *PathNode
	key     string
	index   int
	isIndex bool
}

// Field returns a child node for a response key.
func (p *PathNode) Field(key string) *PathNode {
	return &PathNode{parent: p, key: key}
}

// Index returns a child node for a list index.
func (p *PathNode) Index(i int) *PathNode {
	return &PathNode{parent: p, index: i, isIndex: true}
}

func (p *PathNode) Parent() *PathNode {
	if p == nil {
		return nil
	}
	return p.parent
}

// Key returns the response key of a field segment.
func (p *PathNode) Key() string {
	if p == nil {
		return ""
	}
	return p.key
}

// IndexValue returns the list index of an index segment.
func (p *PathNode) IndexValue() (int, bool) {
	if p == nil || !p.isIndex {
		return 0, false
	}
	return p.index, true
}

// FieldName returns the key of the nearest field segment, skipping list
// indices.
func (p *PathNode) FieldName() string {
	for n := p; n != nil; n = n.parent {
		if !n.isIndex {
			return n.key
		}
	}
	return ""
}

func (p *PathNode) depth() int {
	d := 0
	for n := p; n != nil; n = n.parent {
		d++
	}
	return d
}

// Segments returns the path from the root as strings and ints, or nil for
// the root.
func (p *PathNode) Segments() []any {
	d := p.depth()
	if d == 0 {
		return nil
	}
	out := make([]any, d)
	for n := p; n != nil; n = n.parent {
		d--
		if n.isIndex {
			out[d] = n.index
		} else {
			out[d] = n.key
		}
	}
	return out
}

// String renders the path with dots, e.g. "users.0.name".
func (p *PathNode) String() string {
	segs := p.Segments()
	parts := make([]string, len(segs))
	for i, s := range segs {
		switch v := s.(type) {
		case int:
			parts[i] = strconv.Itoa(v)
		case string:
			parts[i] = v
		}
	}
	return strings.Join(parts, ".")
}

func (p *PathNode) MarshalJSON() ([]byte, error) {
	segs := p.Segments()
	if segs == nil {
		segs = []any{}
	}
	return json.Marshal(segs)
}
