package store

import (
	"context"
	"fmt"

	"github.com/roach88/tagrel/internal/model"
)

// AppendJournal writes one journal entry. Seq must be unique and increasing;
// a duplicate seq is rejected with ErrConstraint.
func (s *Store) AppendJournal(ctx context.Context, e model.JournalEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal (seq, token, op, args, outcome, code, message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.Seq, e.Token, e.Op, e.Args, e.Outcome, e.Code, e.Message)
	if err != nil {
		return wrapErr(fmt.Sprintf("append journal seq %d", e.Seq), err)
	}
	return nil
}

// ReadJournal returns all entries ordered by seq.
// Returns an empty slice (not nil) if the journal is empty.
func (s *Store) ReadJournal(ctx context.Context) ([]model.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, token, op, args, outcome, code, message
		FROM journal
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	defer rows.Close()

	entries := []model.JournalEntry{}
	for rows.Next() {
		var e model.JournalEntry
		if err := rows.Scan(&e.Seq, &e.Token, &e.Op, &e.Args, &e.Outcome, &e.Code, &e.Message); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}

// LastJournalSeq returns the highest journal seq, or 0 for an empty journal.
// Used to resume the logical clock after reopening a database.
func (s *Store) LastJournalSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM journal`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last journal seq: %w", err)
	}
	return seq, nil
}
