package browser

// findByPath returns the node with the exact path, searching depth-first,
// or nil.
func findByPath(nodes []*TreeNode, path string) *TreeNode {
	for _, n := range nodes {
		if n.Path == path {
			return n
		}
		if found := findByPath(n.Children, path); found != nil {
			return found
		}
	}
	return nil
}

// findWithAncestors returns the node with the exact path and its ancestor
// chain, outermost first. Returns nil when the path does not resolve.
func findWithAncestors(nodes []*TreeNode, path string) (*TreeNode, []*TreeNode) {
	for _, n := range nodes {
		if n.Path == path {
			return n, nil
		}
		if found, chain := findWithAncestors(n.Children, path); found != nil {
			return found, append([]*TreeNode{n}, chain...)
		}
	}
	return nil, nil
}
