package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/tagrel/internal/model"
	"github.com/roach88/tagrel/internal/query"
	"github.com/roach88/tagrel/internal/querysql"
)

// Tx is the transactional view of the relation store handed to WithinTx callbacks.
//
// Query results are snapshots: mutating a returned group or edge changes
// nothing until it is written back with Update*.
type Tx interface {
	// LookupTag resolves a tag ID to its identity. ok is false if absent.
	LookupTag(ctx context.Context, id int64) (tag model.TagRef, ok bool, err error)
	// EnsureTag registers name if needed. The registration is rolled back
	// with the rest of the transaction.
	EnsureTag(ctx context.Context, name string) (model.TagRef, error)

	QueryGroups(ctx context.Context, p query.Predicate) ([]model.SynonymGroup, error)
	QueryEdges(ctx context.Context, p query.Predicate) ([]model.HierarchyEdge, error)

	// AddGroup inserts g and returns it with its assigned ID.
	AddGroup(ctx context.Context, g model.SynonymGroup) (model.SynonymGroup, error)
	UpdateGroup(ctx context.Context, g model.SynonymGroup) error
	RemoveGroup(ctx context.Context, id model.GroupID) error

	// AddEdge inserts e and returns it with its assigned ID.
	AddEdge(ctx context.Context, e model.HierarchyEdge) (model.HierarchyEdge, error)
	UpdateEdge(ctx context.Context, e model.HierarchyEdge) error
	RemoveEdge(ctx context.Context, id int64) error
}

// txn implements Tx on top of *sql.Tx.
type txn struct {
	tx *sql.Tx
}

func (t *txn) LookupTag(ctx context.Context, id int64) (model.TagRef, bool, error) {
	var tag model.TagRef
	err := t.tx.QueryRowContext(ctx, `SELECT id, name FROM tags WHERE id = ?`, id).Scan(&tag.ID, &tag.Name)
	if err == sql.ErrNoRows {
		return model.TagRef{}, false, nil
	}
	if err != nil {
		return model.TagRef{}, false, fmt.Errorf("lookup tag: %w", err)
	}
	return tag, true, nil
}

func (t *txn) EnsureTag(ctx context.Context, name string) (model.TagRef, error) {
	return ensureTag(ctx, t.tx, name)
}

// QueryGroups returns matching groups ordered by ID, each with its full tag set.
func (t *txn) QueryGroups(ctx context.Context, p query.Predicate) ([]model.SynonymGroup, error) {
	sel, err := querysql.CompileIDs(p, query.TargetGroups)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}

	rows, err := t.tx.QueryContext(ctx, `
		SELECT sg.id, sg.name, sg.auto, t.id, t.name
		FROM synonym_groups sg
		LEFT JOIN group_tags gt ON gt.group_id = sg.id
		LEFT JOIN tags t ON t.id = gt.tag_id
		WHERE sg.id IN (`+sel.SQL+`)
		ORDER BY sg.id ASC, t.id ASC
	`, sel.Params...)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	groups := []model.SynonymGroup{}
	for rows.Next() {
		var (
			id      int64
			name    string
			auto    bool
			tagID   sql.NullInt64
			tagName sql.NullString
		)
		if err := rows.Scan(&id, &name, &auto, &tagID, &tagName); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		if n := len(groups); n == 0 || groups[n-1].ID != model.GroupID(id) {
			groups = append(groups, model.SynonymGroup{
				ID:   model.GroupID(id),
				Name: name,
				Auto: auto,
				Tags: model.TagSet{},
			})
		}
		if tagID.Valid {
			g := &groups[len(groups)-1]
			g.Tags = append(g.Tags, model.TagRef{ID: tagID.Int64, Name: tagName.String})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}

	return groups, nil
}

// QueryEdges returns matching edges ordered by ID, each with its full child set.
func (t *txn) QueryEdges(ctx context.Context, p query.Predicate) ([]model.HierarchyEdge, error) {
	sel, err := querysql.CompileIDs(p, query.TargetEdges)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}

	rows, err := t.tx.QueryContext(ctx, `
		SELECT he.id, he.parent_group_id, ec.child_group_id
		FROM hierarchy_edges he
		LEFT JOIN edge_children ec ON ec.edge_id = he.id
		WHERE he.id IN (`+sel.SQL+`)
		ORDER BY he.id ASC, ec.child_group_id ASC
	`, sel.Params...)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	edges := []model.HierarchyEdge{}
	for rows.Next() {
		var (
			id     int64
			parent int64
			child  sql.NullInt64
		)
		if err := rows.Scan(&id, &parent, &child); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		if n := len(edges); n == 0 || edges[n-1].ID != id {
			edges = append(edges, model.HierarchyEdge{
				ID:       id,
				Parent:   model.GroupID(parent),
				Children: model.GroupSet{},
			})
		}
		if child.Valid {
			e := &edges[len(edges)-1]
			e.Children = append(e.Children, model.GroupID(child.Int64))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edges: %w", err)
	}

	return edges, nil
}

func (t *txn) AddGroup(ctx context.Context, g model.SynonymGroup) (model.SynonymGroup, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO synonym_groups (name, auto) VALUES (?, ?)`, g.Name, g.Auto)
	if err != nil {
		return model.SynonymGroup{}, wrapErr(fmt.Sprintf("add group %q", g.Name), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.SynonymGroup{}, fmt.Errorf("add group %q: last insert id: %w", g.Name, err)
	}
	g.ID = model.GroupID(id)

	if err := t.insertGroupTags(ctx, g); err != nil {
		return model.SynonymGroup{}, err
	}
	g.Tags = model.NewTagSet(g.Tags...)
	return g, nil
}

func (t *txn) UpdateGroup(ctx context.Context, g model.SynonymGroup) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE synonym_groups SET name = ?, auto = ? WHERE id = ?`, g.Name, g.Auto, int64(g.ID))
	if err != nil {
		return wrapErr(fmt.Sprintf("update group %d", g.ID), err)
	}
	if err := requireRow(res, "update group", int64(g.ID)); err != nil {
		return err
	}

	if _, err := t.tx.ExecContext(ctx, `DELETE FROM group_tags WHERE group_id = ?`, int64(g.ID)); err != nil {
		return fmt.Errorf("update group %d: clear tags: %w", g.ID, err)
	}
	return t.insertGroupTags(ctx, g)
}

func (t *txn) RemoveGroup(ctx context.Context, id model.GroupID) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM group_tags WHERE group_id = ?`, int64(id)); err != nil {
		return fmt.Errorf("remove group %d: clear tags: %w", id, err)
	}
	res, err := t.tx.ExecContext(ctx, `DELETE FROM synonym_groups WHERE id = ?`, int64(id))
	if err != nil {
		return fmt.Errorf("remove group %d: %w", id, err)
	}
	return requireRow(res, "remove group", int64(id))
}

func (t *txn) AddEdge(ctx context.Context, e model.HierarchyEdge) (model.HierarchyEdge, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO hierarchy_edges (parent_group_id) VALUES (?)`, int64(e.Parent))
	if err != nil {
		return model.HierarchyEdge{}, wrapErr("add edge", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.HierarchyEdge{}, fmt.Errorf("add edge: last insert id: %w", err)
	}
	e.ID = id

	if err := t.insertEdgeChildren(ctx, e); err != nil {
		return model.HierarchyEdge{}, err
	}
	e.Children = model.NewGroupSet(e.Children...)
	return e, nil
}

func (t *txn) UpdateEdge(ctx context.Context, e model.HierarchyEdge) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE hierarchy_edges SET parent_group_id = ? WHERE id = ?`, int64(e.Parent), e.ID)
	if err != nil {
		return wrapErr(fmt.Sprintf("update edge %d", e.ID), err)
	}
	if err := requireRow(res, "update edge", e.ID); err != nil {
		return err
	}

	if _, err := t.tx.ExecContext(ctx, `DELETE FROM edge_children WHERE edge_id = ?`, e.ID); err != nil {
		return fmt.Errorf("update edge %d: clear children: %w", e.ID, err)
	}
	return t.insertEdgeChildren(ctx, e)
}

func (t *txn) RemoveEdge(ctx context.Context, id int64) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM edge_children WHERE edge_id = ?`, id); err != nil {
		return fmt.Errorf("remove edge %d: clear children: %w", id, err)
	}
	res, err := t.tx.ExecContext(ctx, `DELETE FROM hierarchy_edges WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("remove edge %d: %w", id, err)
	}
	return requireRow(res, "remove edge", id)
}

func (t *txn) insertGroupTags(ctx context.Context, g model.SynonymGroup) error {
	for _, tag := range model.NewTagSet(g.Tags...) {
		if _, err := t.tx.ExecContext(ctx,
			`INSERT INTO group_tags (group_id, tag_id) VALUES (?, ?)`, int64(g.ID), tag.ID); err != nil {
			return wrapErr(fmt.Sprintf("group %q: add tag %q", g.Name, tag.Name), err)
		}
	}
	return nil
}

func (t *txn) insertEdgeChildren(ctx context.Context, e model.HierarchyEdge) error {
	for _, child := range model.NewGroupSet(e.Children...) {
		if _, err := t.tx.ExecContext(ctx,
			`INSERT INTO edge_children (edge_id, child_group_id) VALUES (?, ?)`, e.ID, int64(child)); err != nil {
			return wrapErr(fmt.Sprintf("edge %d: add child %d", e.ID, child), err)
		}
	}
	return nil
}

// requireRow fails when an UPDATE/DELETE touched no row.
func requireRow(res sql.Result, op string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d: rows affected: %w", op, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", op, id, sql.ErrNoRows)
	}
	return nil
}
