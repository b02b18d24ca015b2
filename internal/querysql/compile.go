// Package querysql compiles query predicates to parameterized SQLite.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/tagrel/internal/query"
)

// Table aliases used by the compiled SQL. The store selects from
// synonym_groups AS g and hierarchy_edges AS e.
const (
	GroupAlias = "g"
	EdgeAlias  = "e"
)

// Compiled is a compiled selection: a full SELECT of record IDs plus its params.
type Compiled struct {
	SQL    string
	Params []any
}

// CompileIDs compiles p into a query returning matching record IDs.
//
// MANDATORY: every query is ordered by primary key so reads are deterministic.
// MANDATORY: values are parameterized, never interpolated.
func CompileIDs(p query.Predicate, target query.Target) (Compiled, error) {
	if err := query.Validate(p, target); err != nil {
		return Compiled{}, err
	}

	var table, alias string
	switch target {
	case query.TargetGroups:
		table, alias = "synonym_groups", GroupAlias
	case query.TargetEdges:
		table, alias = "hierarchy_edges", EdgeAlias
	default:
		return Compiled{}, fmt.Errorf("unknown target %q", target)
	}

	where, params, err := compilePredicate(p, alias)
	if err != nil {
		return Compiled{}, fmt.Errorf("compile filter: %w", err)
	}

	sql := fmt.Sprintf("SELECT %s.id FROM %s AS %s WHERE %s ORDER BY %s.id ASC",
		alias, table, alias, where, alias)
	return Compiled{SQL: sql, Params: params}, nil
}

// compilePredicate compiles p to a WHERE fragment.
func compilePredicate(p query.Predicate, alias string) (string, []any, error) {
	switch pred := p.(type) {
	case nil, query.All, *query.All:
		return "1 = 1", nil, nil
	case query.ByID:
		return alias + ".id = ?", []any{pred.ID}, nil
	case *query.ByID:
		return alias + ".id = ?", []any{pred.ID}, nil
	case query.NameIs:
		return alias + ".name = ?", []any{pred.Name}, nil
	case *query.NameIs:
		return alias + ".name = ?", []any{pred.Name}, nil
	case query.HasTag:
		return hasTag(alias, pred.TagID)
	case *query.HasTag:
		return hasTag(alias, pred.TagID)
	case query.AutoOnly, *query.AutoOnly:
		return alias + ".auto = 1", nil, nil
	case query.ParentIs:
		return alias + ".parent_group_id = ?", []any{int64(pred.Group)}, nil
	case *query.ParentIs:
		return alias + ".parent_group_id = ?", []any{int64(pred.Group)}, nil
	case query.HasChild:
		return hasChild(alias, int64(pred.Group))
	case *query.HasChild:
		return hasChild(alias, int64(pred.Group))
	case query.And:
		return compileAnd(pred.Predicates, alias)
	case *query.And:
		return compileAnd(pred.Predicates, alias)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func hasTag(alias string, tagID int64) (string, []any, error) {
	return alias + ".id IN (SELECT group_id FROM group_tags WHERE tag_id = ?)", []any{tagID}, nil
}

func hasChild(alias string, groupID int64) (string, []any, error) {
	return alias + ".id IN (SELECT edge_id FROM edge_children WHERE child_group_id = ?)", []any{groupID}, nil
}

// compileAnd joins nested predicates with AND. An empty And is vacuously true.
func compileAnd(preds []query.Predicate, alias string) (string, []any, error) {
	if len(preds) == 0 {
		return "1 = 1", nil, nil
	}

	var parts []string
	var params []any
	for _, p := range preds {
		sql, ps, err := compilePredicate(p, alias)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+sql+")")
		params = append(params, ps...)
	}
	return strings.Join(parts, " AND "), params, nil
}
