package relations

import (
	"context"

	"github.com/roach88/tagrel/internal/model"
	"github.com/roach88/tagrel/internal/query"
	"github.com/roach88/tagrel/internal/store"
)

// CanMerge reports whether groups a and b can share one forest position.
//
// They can when neither has a parent, when only one does (the merged group
// inherits it), or when both hang off the same edge. The returned edge is the
// one the merged group should stay under; nil means the merged group is a
// root. Parent edges are resolved with the same rule the forest builder uses.
func CanMerge(edges []model.HierarchyEdge, a, b model.GroupID) (bool, *model.HierarchyEdge) {
	ea, hasA := parentEdge(edges, a)
	eb, hasB := parentEdge(edges, b)

	switch {
	case !hasA && !hasB:
		return true, nil
	case hasA && !hasB:
		return true, &ea
	case !hasA && hasB:
		return true, &eb
	case ea.ID == eb.ID:
		return true, &ea
	default:
		return false, nil
	}
}

// merge replaces src and target with one group named after target that holds
// both tag sets. The merged group takes the sources' place as a child of the
// kept edge and as the parent of their children.
func merge(ctx context.Context, tx store.Tx, src, target model.SynonymGroup) (model.SynonymGroup, error) {
	edges, err := tx.QueryEdges(ctx, query.All{})
	if err != nil {
		return model.SynonymGroup{}, err
	}

	ok, keep := CanMerge(edges, src.ID, target.ID)
	if !ok {
		return model.SynonymGroup{}, conflict(CodeIncompatibleHierarchy,
			"groups %q and %q have different parents", src.Name, target.Name)
	}
	if edgeAncestor(edges, src.ID, target.ID) || edgeAncestor(edges, target.ID, src.ID) {
		return model.SynonymGroup{}, conflict(CodeIncompatibleHierarchy,
			"groups %q and %q are on the same branch", src.Name, target.Name)
	}

	// Sources go first: tag membership and group names are unique.
	if err := tx.RemoveGroup(ctx, src.ID); err != nil {
		return model.SynonymGroup{}, err
	}
	if err := tx.RemoveGroup(ctx, target.ID); err != nil {
		return model.SynonymGroup{}, err
	}
	merged, err := tx.AddGroup(ctx, model.SynonymGroup{
		Name: target.Name,
		Tags: target.Tags.Union(src.Tags),
	})
	if err != nil {
		return model.SynonymGroup{}, err
	}

	if keep != nil {
		keep.Children = keep.Children.Without(src.ID, target.ID).With(merged.ID)
		if err := tx.UpdateEdge(ctx, *keep); err != nil {
			return model.SynonymGroup{}, err
		}
	}

	if err := repointParentEdges(ctx, tx, edges, merged.ID, src.ID, target.ID); err != nil {
		return model.SynonymGroup{}, err
	}
	return merged, nil
}

// repointParentEdges moves the children of the merged sources under the new
// group. When both sources were parents their edges are folded into the first.
func repointParentEdges(ctx context.Context, tx store.Tx, edges []model.HierarchyEdge, merged model.GroupID, sources ...model.GroupID) error {
	var owned []model.HierarchyEdge
	for _, e := range edges {
		for _, s := range sources {
			if query.MatchEdge(query.ParentIs{Group: s}, e) {
				owned = append(owned, e)
				break
			}
		}
	}
	if len(owned) == 0 {
		return nil
	}

	first := owned[0]
	for _, e := range owned[1:] {
		first.Children = first.Children.Union(e.Children)
		// Children are unique per edge, so the duplicate must go before the fold is written.
		if err := tx.RemoveEdge(ctx, e.ID); err != nil {
			return err
		}
	}
	first.Parent = merged
	return tx.UpdateEdge(ctx, first)
}
