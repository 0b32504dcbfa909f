package browser

import (
	"fmt"
	"strings"
	"sync"
)

// Store owns the canonical project tree, the expansion set, the query and
// the selection. All writes are serialized behind one mutex; State returns
// a consistent snapshot for derivation.
type Store struct {
	mu       sync.RWMutex
	rootID   string
	roots    []*TreeNode
	expanded map[string]bool
	query    string
	selected string // empty = no selection
}

// State is a consistent snapshot of the store for pure derivation. Roots
// are shared read-only; structural edits replace them wholesale.
type State struct {
	Roots    []*TreeNode
	Expanded map[string]bool
	Query    string
	Selected string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		expanded: make(map[string]bool),
	}
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expanded := make(map[string]bool, len(s.expanded))
	for p := range s.expanded {
		expanded[p] = true
	}
	return State{
		Roots:    s.roots,
		Expanded: expanded,
		Query:    s.query,
		Selected: s.selected,
	}
}

// Load replaces the canonical tree. An empty node list is ignored so a bad
// fetch never clobbers good state. The expansion set resets to the
// top-level folder paths; the selection survives only if its path still
// resolves.
func (s *Store) Load(rootID string, nodes []*TreeNode) {
	if len(nodes) == 0 {
		return
	}
	assertForest(nil, nodes)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rootID = rootID
	s.roots = nodes
	s.expanded = topLevelFolders(nodes)
	if s.selected != "" && findByPath(nodes, s.selected) == nil {
		s.selected = ""
	}
}

// RootID returns the id of the loaded project tree.
func (s *Store) RootID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rootID
}

// InsertArtifact inserts a created artifact, deep-cloning the tree first
// so prior State snapshots stay valid. Missing intermediate folders are
// created and prepended to their parent; the file node is prepended under
// the resolved folder. An empty path is a no-op.
func (s *Store) InsertArtifact(a CreatedArtifact) {
	if a.Path == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	segments := strings.Split(a.Path, "/")
	roots := cloneNodes(s.roots)

	children := &roots
	var parent *TreeNode
	for i := 0; i < len(segments)-1; i++ {
		path := strings.Join(segments[:i+1], "/")
		folder := findChild(*children, path)
		if folder == nil {
			name := segments[i]
			if i == len(segments)-2 && a.FolderName != "" {
				name = a.FolderName
			}
			folder = &TreeNode{Path: path, Name: name, Kind: KindFolder}
			*children = prepend(*children, folder)
		}
		assertExtends(parent, folder)
		parent = folder
		children = &folder.Children
	}

	file := &TreeNode{
		Path: a.Path,
		Name: segments[len(segments)-1],
		Kind: KindFile,
		Resource: &ResourceInfo{
			ID:   a.ResourceID,
			Type: a.ResourceType,
			Kind: a.ResourceKind,
			URL:  a.URL,
		},
	}
	*children = prepend(*children, file)
	s.roots = roots
}

// Toggle flips the expansion state of a path.
func (s *Store) Toggle(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expanded[path] {
		delete(s.expanded, path)
	} else {
		s.expanded[path] = true
	}
}

// Select resolves a path by depth-first exact match. On a hit it sets the
// selection and expands every ancestor folder so the node is revealed. A
// miss leaves the prior selection untouched.
func (s *Store) Select(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ancestors := findWithAncestors(s.roots, path)
	if node == nil {
		return
	}
	s.selected = path
	for _, a := range ancestors {
		if a.Kind == KindFolder {
			s.expanded[a.Path] = true
		}
	}
}

// ExpandAll expands every folder in the tree.
func (s *Store) ExpandAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded = allFolders(s.roots)
}

// CollapseAll collapses to the default top-level-only expansion.
func (s *Store) CollapseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded = topLevelFolders(s.roots)
}

// SetQuery sets the search query. A non-blank query forces full folder
// expansion so matches are revealed; clearing it restores the default
// top-level-only expansion.
func (s *Store) SetQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.query = query
	if strings.TrimSpace(query) != "" {
		s.expanded = allFolders(s.roots)
	} else {
		s.expanded = topLevelFolders(s.roots)
	}
}

// findChild returns the direct child with the given path, or nil.
func findChild(children []*TreeNode, path string) *TreeNode {
	for _, c := range children {
		if c.Path == path {
			return c
		}
	}
	return nil
}

// topLevelFolders returns the default expansion set.
func topLevelFolders(nodes []*TreeNode) map[string]bool {
	expanded := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if n.Kind == KindFolder {
			expanded[n.Path] = true
		}
	}
	return expanded
}

// allFolders returns the expansion set covering every folder.
func allFolders(nodes []*TreeNode) map[string]bool {
	expanded := make(map[string]bool)
	var walk func([]*TreeNode)
	walk = func(ns []*TreeNode) {
		for _, n := range ns {
			if n.Kind == KindFolder {
				expanded[n.Path] = true
				walk(n.Children)
			}
		}
	}
	walk(nodes)
	return expanded
}

// assertExtends enforces the path invariant on traversed nodes.
func assertExtends(parent, child *TreeNode) {
	if parent == nil {
		return
	}
	if !strings.HasPrefix(child.Path, parent.Path+"/") {
		panic(fmt.Sprintf("browser: path %q does not extend parent %q", child.Path, parent.Path))
	}
}

// assertForest enforces the path invariant across loaded input.
func assertForest(parent *TreeNode, nodes []*TreeNode) {
	for _, n := range nodes {
		assertExtends(parent, n)
		assertForest(n, n.Children)
	}
}
