package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/roach88/tagrel/internal/model"
)

func TestJournal_AppendAndRead(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	entries := []model.JournalEntry{
		{Seq: 1, Token: "tok-1", Op: "add_child", Args: `{"child":"Cat","parent":"Animal"}`, Outcome: model.OutcomeOK},
		{Seq: 2, Token: "tok-2", Op: "add_child", Args: `{"child":"Cat","parent":"Other"}`, Outcome: model.OutcomeFailed,
			Code: "different_parent", Message: "group \"Cat_auto\" already has a different parent"},
	}
	// Written out of order; read back by seq.
	for _, e := range []model.JournalEntry{entries[1], entries[0]} {
		if err := s.AppendJournal(ctx, e); err != nil {
			t.Fatalf("AppendJournal() failed: %v", err)
		}
	}

	got, err := s.ReadJournal(ctx)
	if err != nil {
		t.Fatalf("ReadJournal() failed: %v", err)
	}
	if !reflect.DeepEqual(got, entries) {
		t.Errorf("ReadJournal() = %+v, want %+v", got, entries)
	}
}

func TestJournal_DuplicateSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	e := model.JournalEntry{Seq: 1, Token: "a", Op: "add_synonym", Args: "{}", Outcome: model.OutcomeOK}
	if err := s.AppendJournal(ctx, e); err != nil {
		t.Fatalf("AppendJournal() failed: %v", err)
	}
	e.Token = "b"
	if err := s.AppendJournal(ctx, e); !errors.Is(err, ErrConstraint) {
		t.Errorf("expected ErrConstraint, got %v", err)
	}
}

func TestJournal_RejectsUnknownOutcome(t *testing.T) {
	s := createTestStore(t)

	e := model.JournalEntry{Seq: 1, Token: "a", Op: "add_synonym", Args: "{}", Outcome: "maybe"}
	if err := s.AppendJournal(context.Background(), e); err == nil {
		t.Error("expected CHECK constraint failure")
	}
}

func TestLastJournalSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.LastJournalSeq(ctx)
	if err != nil {
		t.Fatalf("LastJournalSeq() failed: %v", err)
	}
	if seq != 0 {
		t.Errorf("empty journal seq = %d, want 0", seq)
	}

	for _, n := range []int64{3, 7, 5} {
		e := model.JournalEntry{Seq: n, Token: "t", Op: "add_synonym", Args: "{}", Outcome: model.OutcomeOK}
		if err := s.AppendJournal(ctx, e); err != nil {
			t.Fatalf("AppendJournal() failed: %v", err)
		}
	}
	if seq, _ = s.LastJournalSeq(ctx); seq != 7 {
		t.Errorf("LastJournalSeq() = %d, want 7", seq)
	}
}

func TestReadJournal_Empty(t *testing.T) {
	s := createTestStore(t)

	got, err := s.ReadJournal(context.Background())
	if err != nil {
		t.Fatalf("ReadJournal() failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}
