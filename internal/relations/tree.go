package relations

import (
	"github.com/roach88/tagrel/internal/model"
	"github.com/roach88/tagrel/internal/query"
)

// Node is one group's position in the forest.
type Node struct {
	Group    model.SynonymGroup
	Parent   *Node
	Children []*Node
}

// Forest is the group hierarchy rebuilt from stored records. The synthetic
// Root (ID -1, no tags) parents every top-level group.
//
// A Forest is a snapshot; it is not updated by later mutations.
type Forest struct {
	Root  *Node
	nodes map[model.GroupID]*Node
}

// BuildForest reconstructs the forest from groups and edges in any order.
//
// Groups are inserted in the order given. A group whose parent is already in
// the tree is attached under it; otherwise it is parked at the root. After
// each insertion an adjustment pass moves root-level nodes under their parent
// if that parent has since arrived, so a child seen before its parent still
// ends up in the right place.
//
// Edges whose parent group does not exist leave their children at the root.
// The builder never attaches a node beneath its own descendant, so corrupt
// edge data cannot make it loop.
func BuildForest(groups []model.SynonymGroup, edges []model.HierarchyEdge) *Forest {
	f := &Forest{
		Root: &Node{Group: model.SynonymGroup{
			ID:   model.RootGroupID,
			Tags: model.TagSet{},
		}},
		nodes: make(map[model.GroupID]*Node, len(groups)),
	}

	for _, g := range groups {
		if _, dup := f.nodes[g.ID]; dup || g.ID == model.RootGroupID {
			continue
		}
		node := &Node{Group: g}
		f.nodes[g.ID] = node

		parent := f.Root
		if e, ok := parentEdge(edges, g.ID); ok {
			if p, present := f.nodes[e.Parent]; present && p != node {
				parent = p
			}
		}
		attach(node, parent)

		f.adjust(edges)
	}

	return f
}

// adjust re-parents root-level nodes whose parent group is now present.
func (f *Forest) adjust(edges []model.HierarchyEdge) {
	roots := make([]*Node, len(f.Root.Children))
	copy(roots, f.Root.Children)

	for _, n := range roots {
		e, ok := parentEdge(edges, n.Group.ID)
		if !ok {
			continue
		}
		p, present := f.nodes[e.Parent]
		if !present || p == n || isBelow(p, n) {
			continue
		}
		detach(n)
		attach(n, p)
	}
}

// parentEdge returns the edge listing group as a child. When corrupt data
// lists it in several edges, the first in storage order wins.
func parentEdge(edges []model.HierarchyEdge, group model.GroupID) (model.HierarchyEdge, bool) {
	pred := query.HasChild{Group: group}
	for _, e := range edges {
		if query.MatchEdge(pred, e) {
			return e, true
		}
	}
	return model.HierarchyEdge{}, false
}

// edgeAncestor reports whether ancestor is reachable from group by following
// parent edges. Stops on revisits so a cyclic edge set terminates.
func edgeAncestor(edges []model.HierarchyEdge, ancestor, group model.GroupID) bool {
	seen := map[model.GroupID]bool{group: true}
	cur := group
	for {
		e, ok := parentEdge(edges, cur)
		if !ok {
			return false
		}
		if e.Parent == ancestor {
			return true
		}
		if seen[e.Parent] {
			return false
		}
		seen[e.Parent] = true
		cur = e.Parent
	}
}

func attach(n, parent *Node) {
	n.Parent = parent
	parent.Children = append(parent.Children, n)
}

func detach(n *Node) {
	p := n.Parent
	if p == nil {
		return
	}
	for i, c := range p.Children {
		if c == n {
			p.Children = append(p.Children[:i:i], p.Children[i+1:]...)
			break
		}
	}
	n.Parent = nil
}

// isBelow reports whether n sits somewhere beneath ancestor.
func isBelow(n, ancestor *Node) bool {
	for cur := n.Parent; cur != nil; cur = cur.Parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// Node returns the node for a group ID.
func (f *Forest) Node(id model.GroupID) (*Node, bool) {
	n, ok := f.nodes[id]
	return n, ok
}

// Len returns the number of groups in the forest, excluding the root.
func (f *Forest) Len() int {
	return len(f.nodes)
}

// FindByTag returns the node whose group contains the tag.
func (f *Forest) FindByTag(tagID int64) (*Node, bool) {
	pred := query.HasTag{TagID: tagID}
	var found *Node
	f.Walk(func(n *Node) bool {
		if query.MatchGroup(pred, n.Group) {
			found = n
			return false
		}
		return true
	})
	return found, found != nil
}

// Walk visits every non-root node in pre-order, children in attachment order.
// Returning false from fn stops the walk.
func (f *Forest) Walk(fn func(n *Node) bool) {
	var visit func(n *Node) bool
	visit = func(n *Node) bool {
		for _, c := range n.Children {
			if !fn(c) || !visit(c) {
				return false
			}
		}
		return true
	}
	visit(f.Root)
}

// Ancestors returns the group names above n, nearest parent first.
// The synthetic root is excluded.
func (f *Forest) Ancestors(n *Node) []string {
	names := []string{}
	for cur := n.Parent; cur != nil && cur != f.Root; cur = cur.Parent {
		names = append(names, cur.Group.Name)
	}
	return names
}

// IsAncestor reports whether group a sits above group b.
func (f *Forest) IsAncestor(a, b model.GroupID) bool {
	na, ok := f.nodes[a]
	if !ok {
		return false
	}
	nb, ok := f.nodes[b]
	if !ok {
		return false
	}
	return isBelow(nb, na)
}

// Describe returns the read-side view of n.
func (f *Forest) Describe(n *Node) model.GroupDescription {
	return model.Describe(n.Group, f.Ancestors(n))
}

// Descriptions returns one description per group in walk order.
func (f *Forest) Descriptions() []model.GroupDescription {
	out := []model.GroupDescription{}
	f.Walk(func(n *Node) bool {
		out = append(out, f.Describe(n))
		return true
	})
	return out
}
