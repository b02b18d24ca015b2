// Package query defines the predicate IR accepted by the Relation Store.
//
// Predicate is a sealed interface: only types in this package implement it,
// so store backends can switch over it exhaustively. Each predicate targets
// either synonym groups, hierarchy edges, or both (All, ByID, And).
package query

import "github.com/roach88/tagrel/internal/model"

// Predicate is a filter condition over groups or edges.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Target names the record kind a predicate is evaluated against.
type Target string

const (
	TargetGroups Target = "groups"
	TargetEdges  Target = "edges"
)

// All matches every record.
type All struct{}

// ByID matches the record with the given primary key.
type ByID struct {
	ID int64
}

// NameIs matches the group with the given name. Groups only.
type NameIs struct {
	Name string
}

// HasTag matches the group containing the tag. Groups only.
type HasTag struct {
	TagID int64
}

// AutoOnly matches auto (placeholder) groups. Groups only.
type AutoOnly struct{}

// ParentIs matches the edge whose parent is the group. Edges only.
type ParentIs struct {
	Group model.GroupID
}

// HasChild matches edges listing the group among their children. Edges only.
type HasChild struct {
	Group model.GroupID
}

// And matches when every nested predicate matches. An empty And matches all.
type And struct {
	Predicates []Predicate
}

func (All) predicateNode()      {}
func (ByID) predicateNode()     {}
func (NameIs) predicateNode()   {}
func (HasTag) predicateNode()   {}
func (AutoOnly) predicateNode() {}
func (ParentIs) predicateNode() {}
func (HasChild) predicateNode() {}
func (And) predicateNode()      {}
