// Package snapshot builds a fully resolved element tree from a base type
// catalog and a sparse profile differential.
//
// The builder is a pure derivation: it never fetches, never mutates its
// inputs, and rebuilds the whole tree per request. Incomplete catalogs are
// expected; an unknown type reference expands to a childless leaf instead
// of failing.
package snapshot

// ElementNode is one node of the resolved element tree.
type ElementNode struct {
	// ID uniquely identifies the node: parent.ID + "/" + segment.
	ID string

	// Name is the node's field name, slice name, or choice variant name.
	Name string

	// Type is the resolved type code, or "union" for a choice field.
	Type string

	// Resolved cardinality. Max is "*" for unbounded.
	Min int
	Max string

	// Flags.
	IsSummary   bool
	IsModifier  bool
	MustSupport bool

	// Description is the first non-empty of short, definition, comment,
	// requirements.
	Description string

	// Children are the node's resolved child elements, in declaration
	// order.
	Children []*ElementNode

	// SliceVariants holds one alternate child subtree per declared slice.
	// Only set for non-extension sliceable fields; the default view is
	// Children, and a consumer may swap a variant in.
	SliceVariants []SliceVariant
}

// SliceVariant is an alternate child subtree for one named slice.
type SliceVariant struct {
	Name     string
	Children []*ElementNode
}

// Walk visits the node and its children depth-first, pre-order. Slice
// variants are not visited; they are parallel views, not tree members.
func (n *ElementNode) Walk(fn func(*ElementNode)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Count returns the number of nodes in the tree rooted at n.
func (n *ElementNode) Count() int {
	count := 0
	n.Walk(func(*ElementNode) { count++ })
	return count
}
