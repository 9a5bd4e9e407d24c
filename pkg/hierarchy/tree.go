// Package hierarchy is the tree navigation engine: two synchronized
// views of the container hierarchy sharing one displayed root. Each view
// is a viewport in the strict sense — a root id plus a rebuild from the
// store — never an incrementally patched cache, so a refresh with an
// unchanged store always yields the same tree.
package hierarchy

import (
	"context"
	"fmt"
)

// Node is the display projection of one item id within a tree view.
type Node struct {
	ID       string
	Label    string
	Category string
	Children []*Node
	Parent   *Node // nil at the view root
	Depth    int
	Expanded bool
}

// Tree is one view: the materialized subtree under the shared base plus
// the per-view expand and selection state that survives rebuilds.
type Tree struct {
	root     *Node
	nodeMap  map[string]*Node
	flat     []*Node // visible nodes in display order
	expanded map[string]bool
	selected map[string]bool
}

// NewTree returns an empty view.
func NewTree() *Tree {
	return &Tree{
		nodeMap:  make(map[string]*Node),
		expanded: make(map[string]bool),
		selected: make(map[string]bool),
	}
}

// rebuild discards the node set and rebuilds it from the store starting
// at rootID. Expanded ids that survive the rebuild stay expanded; ids
// that vanished are forgotten, as are selections of vanished nodes.
func (t *Tree) rebuild(ctx context.Context, st Store, rootID string) error {
	rootItem, err := st.GetItem(ctx, rootID)
	if err != nil {
		return err
	}

	nodeMap := make(map[string]*Node)
	root := &Node{
		ID:       rootItem.ID,
		Label:    rootItem.DisplayName,
		Category: rootItem.Category,
	}
	nodeMap[root.ID] = root

	// Breadth-first from the store; visited guards against edge data that
	// somehow loops despite the store's cycle rejection.
	queue := []*Node{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		children, err := st.Children(ctx, n.ID)
		if err != nil {
			return fmt.Errorf("expanding %s: %w", n.ID, err)
		}
		for _, c := range children {
			if _, seen := nodeMap[c.ID]; seen {
				continue
			}
			child := &Node{
				ID:       c.ID,
				Label:    c.DisplayName,
				Category: c.Category,
				Parent:   n,
				Depth:    n.Depth + 1,
			}
			nodeMap[c.ID] = child
			n.Children = append(n.Children, child)
			queue = append(queue, child)
		}
	}

	// Carry over expand state for surviving ids; the root is always open.
	expanded := make(map[string]bool, len(t.expanded))
	for id, open := range t.expanded {
		if _, ok := nodeMap[id]; ok && open {
			expanded[id] = true
		}
	}
	expanded[root.ID] = true
	for id := range expanded {
		nodeMap[id].Expanded = true
	}

	selected := make(map[string]bool)
	for id := range t.selected {
		if _, ok := nodeMap[id]; ok {
			selected[id] = true
		}
	}

	t.root = root
	t.nodeMap = nodeMap
	t.expanded = expanded
	t.selected = selected
	t.rebuildFlat()
	return nil
}

// clear empties the view entirely.
func (t *Tree) clear() {
	t.root = nil
	t.nodeMap = make(map[string]*Node)
	t.flat = nil
	t.expanded = make(map[string]bool)
	t.selected = make(map[string]bool)
}

// rebuildFlat rebuilds the flattened list of visible nodes.
func (t *Tree) rebuildFlat() {
	t.flat = t.flat[:0]
	if t.root != nil {
		t.appendVisible(t.root)
	}
}

func (t *Tree) appendVisible(n *Node) {
	t.flat = append(t.flat, n)
	if n.Expanded {
		for _, c := range n.Children {
			t.appendVisible(c)
		}
	}
}

// Root returns the view root, nil when nothing is displayed.
func (t *Tree) Root() *Node { return t.root }

// Flat returns the visible nodes in display order.
func (t *Tree) Flat() []*Node { return t.flat }

// Node returns the node for id, nil when id is not in the view.
func (t *Tree) Node(id string) *Node { return t.nodeMap[id] }

// Contains reports whether id is materialized in this view.
func (t *Tree) Contains(id string) bool { return t.nodeMap[id] != nil }

// Len returns the number of materialized nodes.
func (t *Tree) Len() int { return len(t.nodeMap) }

// SetExpanded opens or closes a node and re-flattens.
func (t *Tree) SetExpanded(id string, open bool) {
	n := t.nodeMap[id]
	if n == nil {
		return
	}
	n.Expanded = open
	if open {
		t.expanded[id] = true
	} else {
		delete(t.expanded, id)
	}
	t.rebuildFlat()
}

// Select makes id the sole selection, expanding its ancestors so it is
// visible. Returns false when id is not in the view.
func (t *Tree) Select(id string) bool {
	n := t.nodeMap[id]
	if n == nil {
		return false
	}
	for a := n.Parent; a != nil; a = a.Parent {
		a.Expanded = true
		t.expanded[a.ID] = true
	}
	t.selected = map[string]bool{id: true}
	t.rebuildFlat()
	return true
}

// ClearSelection drops all highlights.
func (t *Tree) ClearSelection() {
	t.selected = make(map[string]bool)
}

// IsSelected reports whether id is highlighted.
func (t *Tree) IsSelected(id string) bool { return t.selected[id] }

// Selections returns the highlighted ids in display order.
func (t *Tree) Selections() []string {
	var out []string
	for _, n := range t.flat {
		if t.selected[n.ID] {
			out = append(out, n.ID)
		}
	}
	// Selected nodes hidden under a collapsed ancestor still count.
	if len(out) < len(t.selected) {
		for id := range t.selected {
			found := false
			for _, have := range out {
				if have == id {
					found = true
					break
				}
			}
			if !found {
				out = append(out, id)
			}
		}
	}
	return out
}

// OpenSelected expands every selected node so its children show.
func (t *Tree) OpenSelected() {
	for id := range t.selected {
		if n := t.nodeMap[id]; n != nil {
			n.Expanded = true
			t.expanded[id] = true
		}
	}
	t.rebuildFlat()
}

// ParentID returns the in-view parent of id, "" when id is the view root
// or not in the view at all.
func (t *Tree) ParentID(id string) string {
	n := t.nodeMap[id]
	if n == nil || n.Parent == nil {
		return ""
	}
	return n.Parent.ID
}
