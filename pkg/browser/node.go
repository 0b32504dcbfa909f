// Package browser maintains the project artifact tree behind the resource
// browser: canonical tree state with incremental inserts, text-search
// filtering, and a flattened, depth-annotated row view for virtualized
// rendering.
//
// The Store owns the canonical state and serializes all writes; Project is
// a pure derivation over a state snapshot. Structural edits deep-clone the
// tree first, so a reader holding a prior reference never observes a
// mutation.
package browser

// Node kinds.
const (
	KindFolder = "folder"
	KindFile   = "file"
)

// TreeNode is one node of the project artifact tree.
//
// Invariant: every child's Path equals parent.Path + "/" + segment. Input
// violating this is programmer error and trips an assertion; it is never
// recovered.
type TreeNode struct {
	// Path is the slash-delimited unique path. The first segment is a
	// logical root group (e.g. "SD", "IR").
	Path string

	// Name is the display name.
	Name string

	// Kind is KindFolder or KindFile.
	Kind string

	// Children are ordered; only folders have them.
	Children []*TreeNode

	// Resource carries artifact metadata for file nodes.
	Resource *ResourceInfo
}

// ResourceInfo is the artifact metadata attached to file nodes.
type ResourceInfo struct {
	ID   string
	Type string
	Kind string
	URL  string
}

// CreatedArtifact describes a newly created artifact to insert into the
// tree.
type CreatedArtifact struct {
	// Path is the full slash-delimited target path, ending in the file
	// segment. Empty paths make the insert a no-op.
	Path string

	// FolderName is the display name for the final folder, when the insert
	// has to create it. Intermediate folders take their path segment.
	FolderName string

	ResourceID   string
	ResourceType string
	ResourceKind string
	URL          string
}

// cloneNodes deep-copies a forest. Resource metadata is immutable once
// attached and is shared.
func cloneNodes(nodes []*TreeNode) []*TreeNode {
	if nodes == nil {
		return nil
	}
	out := make([]*TreeNode, len(nodes))
	for i, n := range nodes {
		c := *n
		c.Children = cloneNodes(n.Children)
		out[i] = &c
	}
	return out
}

// prepend inserts n at the front of list.
func prepend(list []*TreeNode, n *TreeNode) []*TreeNode {
	out := make([]*TreeNode, 0, len(list)+1)
	out = append(out, n)
	return append(out, list...)
}
