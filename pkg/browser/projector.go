package browser

import "strings"

// Row is one entry of the flattened tree view, sized for a fixed-row-height
// virtualized list.
type Row struct {
	Node    *TreeNode
	Depth   int
	Matched bool
}

// Projection is the derived, read-only view over a store snapshot. It is
// recomputed wholesale on every state change.
type Projection struct {
	// Tree is the filtered tree: the canonical tree when the query is
	// blank, otherwise a pruned copy keeping matches and their ancestors.
	Tree []*TreeNode

	// Matches is the set of matching paths. Empty for a blank query.
	Matches map[string]bool

	// Rows is the pre-order flattening of Tree; a node appears only when
	// every ancestor is expanded.
	Rows []Row

	// Selected is resolved from the canonical tree, independent of the
	// current filter.
	Selected *TreeNode
}

// Project derives the projection from a state snapshot. It never fails: a
// non-matching query yields an empty tree and row list.
func Project(st State) Projection {
	p := Projection{
		Tree:    st.Roots,
		Matches: make(map[string]bool),
	}

	query := strings.TrimSpace(st.Query)
	if query != "" {
		p.Tree = prune(st.Roots, strings.ToLower(query), p.Matches)
	}
	p.Rows = flatten(p.Tree, st.Expanded, 0, p.Matches)
	if st.Selected != "" {
		p.Selected = findByPath(st.Roots, st.Selected)
	}
	return p
}

// matches tests the query against name, full path, resource id, resource
// type and canonical URL, case-insensitively.
func matches(n *TreeNode, query string) bool {
	query = strings.ToLower(query)
	if contains(n.Name, query) || contains(n.Path, query) {
		return true
	}
	if r := n.Resource; r != nil {
		return contains(r.ID, query) || contains(r.Type, query) || contains(r.URL, query)
	}
	return false
}

func contains(s, query string) bool {
	return s != "" && strings.Contains(strings.ToLower(s), query)
}

// prune copies the forest keeping nodes that match or have a matching
// descendant, preserving order. Matched paths are recorded in matched.
func prune(nodes []*TreeNode, query string, matched map[string]bool) []*TreeNode {
	var out []*TreeNode
	for _, n := range nodes {
		hit := matches(n, query)
		if hit {
			matched[n.Path] = true
		}
		kept := prune(n.Children, query, matched)
		if !hit && len(kept) == 0 {
			continue
		}
		c := *n
		c.Children = kept
		out = append(out, &c)
	}
	return out
}

// flatten walks the forest pre-order, descending only into expanded
// folders, so a row appears exactly when its full ancestor chain is
// expanded. Root nodes always appear.
func flatten(nodes []*TreeNode, expanded map[string]bool, depth int, matched map[string]bool) []Row {
	var rows []Row
	for _, n := range nodes {
		rows = append(rows, Row{Node: n, Depth: depth, Matched: matched[n.Path]})
		if expanded[n.Path] {
			rows = append(rows, flatten(n.Children, expanded, depth+1, matched)...)
		}
	}
	return rows
}
