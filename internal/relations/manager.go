package relations

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/tagrel/internal/model"
	"github.com/roach88/tagrel/internal/query"
	"github.com/roach88/tagrel/internal/store"
)

// TxRunner opens one store transaction per call. *store.Store implements it.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(tx store.Tx) error) error
}

// Manager applies relation changes while keeping the partition, single-parent,
// forest and auto-group invariants.
//
// Every method runs as one transaction. Business-rule violations come back as
// *Failure and leave the store untouched; any other error is a store error.
// AddSynonym and AddChild register tags passed with a zero ID inside that
// transaction, so a rejected call leaves no new tags behind. A non-zero ID
// must already exist in the tag registry.
type Manager struct {
	store TxRunner
}

// New creates a Manager over the given store.
func New(s TxRunner) *Manager {
	return &Manager{store: s}
}

// AddSynonym puts tag into the group named groupName.
//
// An ungrouped tag joins the group (created if absent). A tag sitting alone in
// an auto group is merged into the target, which then takes over the auto
// group's hierarchy position if the two positions are compatible. A tag in
// another explicit group is rejected.
func (m *Manager) AddSynonym(ctx context.Context, tag model.TagRef, groupName string) error {
	if err := checkGroupName(groupName); err != nil {
		return err
	}

	return m.store.WithinTx(ctx, func(tx store.Tx) error {
		tag, err := resolveTag(ctx, tx, tag)
		if err != nil {
			return err
		}

		current, grouped, err := groupOf(ctx, tx, tag.ID)
		if err != nil {
			return err
		}

		if !grouped {
			target, err := ensureGroup(ctx, tx, groupName)
			if err != nil {
				return err
			}
			if target.Tags.Contains(tag.ID) {
				return conflict(CodeAlreadyMember, "tag %q is already a member of group %q", tag.Name, groupName)
			}
			target.Tags = target.Tags.With(tag)
			if err := tx.UpdateGroup(ctx, target); err != nil {
				return err
			}
			slog.Debug("synonym added", "tag", tag.Name, "group", groupName)
			return nil
		}

		if current.Name == groupName {
			return conflict(CodeAlreadyInGroup, "tag %q is already in group %q", tag.Name, groupName)
		}
		if !current.Auto {
			return conflict(CodeDifferentGroup, "tag %q already belongs to group %q", tag.Name, current.Name)
		}

		target, err := ensureGroup(ctx, tx, groupName)
		if err != nil {
			return err
		}
		merged, err := merge(ctx, tx, current, target)
		if err != nil {
			return err
		}
		slog.Debug("auto group merged",
			"tag", tag.Name,
			"from", current.Name,
			"group", merged.Name,
			"tags", len(merged.Tags))
		return nil
	})
}

// RemoveSynonym takes tag out of the group named groupName.
// The group is kept even when it ends up empty.
func (m *Manager) RemoveSynonym(ctx context.Context, tag model.TagRef, groupName string) error {
	return m.store.WithinTx(ctx, func(tx store.Tx) error {
		g, ok, err := groupByName(ctx, tx, groupName)
		if err != nil {
			return err
		}
		if !ok {
			return notFound(CodeGroupNotFound, "group %q does not exist", groupName)
		}
		if !g.Tags.Contains(tag.ID) {
			return notFound(CodeTagNotInGroup, "tag %q is not in group %q", tag.Name, groupName)
		}

		g.Tags = g.Tags.Without(tag.ID)
		if err := tx.UpdateGroup(ctx, g); err != nil {
			return err
		}
		slog.Debug("synonym removed", "tag", tag.Name, "group", groupName)
		return nil
	})
}

// AddChild makes the group of child a direct child of the group of parent.
// Ungrouped tags get an auto group first.
func (m *Manager) AddChild(ctx context.Context, child, parent model.TagRef) error {
	return m.store.WithinTx(ctx, func(tx store.Tx) error {
		child, err := resolveTag(ctx, tx, child)
		if err != nil {
			return err
		}
		parent, err := resolveTag(ctx, tx, parent)
		if err != nil {
			return err
		}
		if child.ID == parent.ID {
			return conflict(CodeAlreadySynonyms, "tag %q cannot be its own child", child.Name)
		}

		cg, childGrouped, err := groupOf(ctx, tx, child.ID)
		if err != nil {
			return err
		}
		pg, parentGrouped, err := groupOf(ctx, tx, parent.ID)
		if err != nil {
			return err
		}

		if childGrouped && parentGrouped && cg.ID == pg.ID {
			return conflict(CodeAlreadySynonyms, "tags %q and %q are already synonyms in group %q",
				child.Name, parent.Name, cg.Name)
		}

		if !childGrouped {
			if cg, err = ensureAutoGroup(ctx, tx, child); err != nil {
				return err
			}
		}
		if !parentGrouped {
			if pg, err = ensureAutoGroup(ctx, tx, parent); err != nil {
				return err
			}
		}

		// A reused placeholder keeps its old position, so check every child.
		e, ok, err := childEdge(ctx, tx, cg.ID)
		if err != nil {
			return err
		}
		if ok {
			if e.Parent == pg.ID {
				return conflict(CodeAlreadyChild, "group %q is already a child of group %q", cg.Name, pg.Name)
			}
			return conflict(CodeDifferentParent, "group %q already has a different parent", cg.Name)
		}

		edges, err := tx.QueryEdges(ctx, query.All{})
		if err != nil {
			return err
		}
		if edgeAncestor(edges, cg.ID, pg.ID) {
			return conflict(CodeCycle, "group %q is an ancestor of group %q", cg.Name, pg.Name)
		}

		if err := attachChild(ctx, tx, cg.ID, pg.ID); err != nil {
			return err
		}
		slog.Debug("child added", "child", cg.Name, "parent", pg.Name)
		return nil
	})
}

// RemoveChild detaches the group of child from the group of parent.
// The edge record stays even if it has no children left.
func (m *Manager) RemoveChild(ctx context.Context, child, parent model.TagRef) error {
	return m.store.WithinTx(ctx, func(tx store.Tx) error {
		cg, childGrouped, err := groupOf(ctx, tx, child.ID)
		if err != nil {
			return err
		}
		pg, parentGrouped, err := groupOf(ctx, tx, parent.ID)
		if err != nil {
			return err
		}
		if !childGrouped || !parentGrouped {
			return notFound(CodeNoSuchRelation, "%q is not a child of %q", child.Name, parent.Name)
		}

		edges, err := tx.QueryEdges(ctx, query.And{Predicates: []query.Predicate{
			query.ParentIs{Group: pg.ID},
			query.HasChild{Group: cg.ID},
		}})
		if err != nil {
			return err
		}
		if len(edges) == 0 {
			return notFound(CodeNoSuchRelation, "%q is not a child of %q", child.Name, parent.Name)
		}

		e := edges[0]
		e.Children = e.Children.Without(cg.ID)
		if err := tx.UpdateEdge(ctx, e); err != nil {
			return err
		}
		slog.Debug("child removed", "child", cg.Name, "parent", pg.Name)
		return nil
	})
}

// GetRelations describes the group holding tag, or every group when tag is nil.
//
// For a tag the result has at most one entry and is empty when the tag is
// ungrouped. Without a tag, groups come in forest pre-order.
func (m *Manager) GetRelations(ctx context.Context, tag *model.TagRef) ([]model.GroupDescription, error) {
	f, err := m.Forest(ctx)
	if err != nil {
		return nil, err
	}

	if tag == nil {
		return f.Descriptions(), nil
	}
	n, ok := f.FindByTag(tag.ID)
	if !ok {
		return []model.GroupDescription{}, nil
	}
	return []model.GroupDescription{f.Describe(n)}, nil
}

// Forest builds the current forest from a consistent snapshot of the store.
func (m *Manager) Forest(ctx context.Context) (*Forest, error) {
	var f *Forest
	err := m.store.WithinTx(ctx, func(tx store.Tx) error {
		groups, err := tx.QueryGroups(ctx, query.All{})
		if err != nil {
			return err
		}
		edges, err := tx.QueryEdges(ctx, query.All{})
		if err != nil {
			return err
		}
		f = BuildForest(groups, edges)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// CanMerge reports whether groups a and b could be merged right now, and the
// parent edge the merged group would sit under.
func (m *Manager) CanMerge(ctx context.Context, a, b model.GroupID) (bool, *model.HierarchyEdge, error) {
	var (
		ok   bool
		keep *model.HierarchyEdge
	)
	err := m.store.WithinTx(ctx, func(tx store.Tx) error {
		edges, err := tx.QueryEdges(ctx, query.All{})
		if err != nil {
			return err
		}
		ok, keep = CanMerge(edges, a, b)
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return ok, keep, nil
}

func checkGroupName(name string) error {
	if strings.TrimSpace(name) == "" {
		return conflict(CodeInvalidName, "group name is empty")
	}
	if model.IsReservedGroupName(name) {
		return conflict(CodeReservedName, "group name %q uses the reserved suffix %q", name, model.AutoGroupSuffix)
	}
	return nil
}

// resolveTag returns the registered identity of tag. A zero ID registers the
// name within tx; any other ID must already exist.
func resolveTag(ctx context.Context, tx store.Tx, tag model.TagRef) (model.TagRef, error) {
	if tag.ID == 0 {
		return tx.EnsureTag(ctx, tag.Name)
	}
	got, ok, err := tx.LookupTag(ctx, tag.ID)
	if err != nil {
		return model.TagRef{}, err
	}
	if !ok {
		return model.TagRef{}, invariant(CodeUnresolvedTag, "tag %q (id %d) is not registered", tag.Name, tag.ID)
	}
	return got, nil
}

// groupOf returns the group containing the tag, if any.
func groupOf(ctx context.Context, tx store.Tx, tagID int64) (model.SynonymGroup, bool, error) {
	groups, err := tx.QueryGroups(ctx, query.HasTag{TagID: tagID})
	if err != nil {
		return model.SynonymGroup{}, false, err
	}
	switch len(groups) {
	case 0:
		return model.SynonymGroup{}, false, nil
	case 1:
		return groups[0], true, nil
	default:
		return model.SynonymGroup{}, false, invariant(CodeDuplicateMembership,
			"tag %d belongs to %d groups", tagID, len(groups))
	}
}

func groupByName(ctx context.Context, tx store.Tx, name string) (model.SynonymGroup, bool, error) {
	groups, err := tx.QueryGroups(ctx, query.NameIs{Name: name})
	if err != nil {
		return model.SynonymGroup{}, false, err
	}
	if len(groups) == 0 {
		return model.SynonymGroup{}, false, nil
	}
	return groups[0], true, nil
}

// ensureGroup returns the explicit group named name, creating it empty if absent.
func ensureGroup(ctx context.Context, tx store.Tx, name string) (model.SynonymGroup, error) {
	g, ok, err := groupByName(ctx, tx, name)
	if err != nil || ok {
		return g, err
	}
	g, err = tx.AddGroup(ctx, model.SynonymGroup{Name: name, Tags: model.TagSet{}})
	if err != nil {
		return model.SynonymGroup{}, fmt.Errorf("create group %q: %w", name, err)
	}
	return g, nil
}

// ensureAutoGroup places an ungrouped tag in its placeholder group. A
// placeholder left empty by RemoveSynonym is reused.
func ensureAutoGroup(ctx context.Context, tx store.Tx, tag model.TagRef) (model.SynonymGroup, error) {
	name := model.AutoGroupName(tag)
	g, ok, err := groupByName(ctx, tx, name)
	if err != nil {
		return model.SynonymGroup{}, err
	}
	if ok {
		g.Tags = g.Tags.With(tag)
		if err := tx.UpdateGroup(ctx, g); err != nil {
			return model.SynonymGroup{}, err
		}
		return g, nil
	}

	g, err = tx.AddGroup(ctx, model.SynonymGroup{
		Name: name,
		Auto: true,
		Tags: model.NewTagSet(tag),
	})
	if err != nil {
		return model.SynonymGroup{}, fmt.Errorf("create auto group for %q: %w", tag.Name, err)
	}
	slog.Debug("auto group created", "tag", tag.Name, "group", g.Name)
	return g, nil
}

// childEdge returns the edge listing group as a child.
func childEdge(ctx context.Context, tx store.Tx, group model.GroupID) (model.HierarchyEdge, bool, error) {
	edges, err := tx.QueryEdges(ctx, query.HasChild{Group: group})
	if err != nil {
		return model.HierarchyEdge{}, false, err
	}
	switch len(edges) {
	case 0:
		return model.HierarchyEdge{}, false, nil
	case 1:
		return edges[0], true, nil
	default:
		return model.HierarchyEdge{}, false, invariant(CodeDuplicateMembership,
			"group %d is a child in %d edges", group, len(edges))
	}
}

// attachChild appends child to the parent's edge, creating the edge if the
// parent has none yet.
func attachChild(ctx context.Context, tx store.Tx, child, parent model.GroupID) error {
	edges, err := tx.QueryEdges(ctx, query.ParentIs{Group: parent})
	if err != nil {
		return err
	}
	if len(edges) > 0 {
		e := edges[0]
		e.Children = e.Children.With(child)
		return tx.UpdateEdge(ctx, e)
	}
	_, err = tx.AddEdge(ctx, model.HierarchyEdge{
		Parent:   parent,
		Children: model.NewGroupSet(child),
	})
	return err
}
