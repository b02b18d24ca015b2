package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/tagrel/internal/model"
)

var (
	// ErrTagNotFound is returned by ResolveTag for unknown names.
	ErrTagNotFound = errors.New("tag not found")

	// ErrEmptyTagName rejects blank tag names.
	ErrEmptyTagName = errors.New("tag name is empty")
)

// queryer is the part of *sql.DB and *sql.Tx the tag registry needs.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// EnsureTag returns the tag with the given name, creating it if needed.
// Names are compared in NFC form.
func (s *Store) EnsureTag(ctx context.Context, name string) (model.TagRef, error) {
	return ensureTag(ctx, s.db, name)
}

// ResolveTag looks up a tag by name. Returns ErrTagNotFound if absent.
func (s *Store) ResolveTag(ctx context.Context, name string) (model.TagRef, error) {
	return resolveTag(ctx, s.db, name)
}

func ensureTag(ctx context.Context, q queryer, name string) (model.TagRef, error) {
	name = model.NormalizeTagName(name)
	if name == "" {
		return model.TagRef{}, ErrEmptyTagName
	}

	if _, err := q.ExecContext(ctx, `
		INSERT INTO tags (name) VALUES (?)
		ON CONFLICT(name) DO NOTHING
	`, name); err != nil {
		return model.TagRef{}, fmt.Errorf("ensure tag %q: %w", name, err)
	}

	return resolveTag(ctx, q, name)
}

func resolveTag(ctx context.Context, q queryer, name string) (model.TagRef, error) {
	name = model.NormalizeTagName(name)

	var tag model.TagRef
	err := q.QueryRowContext(ctx, `SELECT id, name FROM tags WHERE name = ?`, name).Scan(&tag.ID, &tag.Name)
	if err == sql.ErrNoRows {
		return model.TagRef{}, fmt.Errorf("resolve tag %q: %w", name, ErrTagNotFound)
	}
	if err != nil {
		return model.TagRef{}, fmt.Errorf("resolve tag %q: %w", name, err)
	}
	return tag, nil
}

// ListTags returns every tag ordered by ID.
// Returns an empty slice (not nil) when there are no tags.
func (s *Store) ListTags(ctx context.Context) ([]model.TagRef, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM tags ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := []model.TagRef{}
	for rows.Next() {
		var tag model.TagRef
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return tags, nil
}
