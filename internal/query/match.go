package query

import "github.com/roach88/tagrel/internal/model"

// MatchGroup evaluates p against an in-memory group.
// Edge-only predicates never match a group.
func MatchGroup(p Predicate, g model.SynonymGroup) bool {
	switch pred := p.(type) {
	case nil, All, *All:
		return true
	case ByID:
		return int64(g.ID) == pred.ID
	case *ByID:
		return int64(g.ID) == pred.ID
	case NameIs:
		return g.Name == pred.Name
	case *NameIs:
		return g.Name == pred.Name
	case HasTag:
		return g.Tags.Contains(pred.TagID)
	case *HasTag:
		return g.Tags.Contains(pred.TagID)
	case AutoOnly, *AutoOnly:
		return g.Auto
	case And:
		return matchAllGroups(pred.Predicates, g)
	case *And:
		return matchAllGroups(pred.Predicates, g)
	default:
		return false
	}
}

// MatchEdge evaluates p against an in-memory edge.
// Group-only predicates never match an edge.
func MatchEdge(p Predicate, e model.HierarchyEdge) bool {
	switch pred := p.(type) {
	case nil, All, *All:
		return true
	case ByID:
		return e.ID == pred.ID
	case *ByID:
		return e.ID == pred.ID
	case ParentIs:
		return e.Parent == pred.Group
	case *ParentIs:
		return e.Parent == pred.Group
	case HasChild:
		return e.Children.Contains(pred.Group)
	case *HasChild:
		return e.Children.Contains(pred.Group)
	case And:
		return matchAllEdges(pred.Predicates, e)
	case *And:
		return matchAllEdges(pred.Predicates, e)
	default:
		return false
	}
}

func matchAllGroups(preds []Predicate, g model.SynonymGroup) bool {
	for _, p := range preds {
		if !MatchGroup(p, g) {
			return false
		}
	}
	return true
}

func matchAllEdges(preds []Predicate, e model.HierarchyEdge) bool {
	for _, p := range preds {
		if !MatchEdge(p, e) {
			return false
		}
	}
	return true
}
