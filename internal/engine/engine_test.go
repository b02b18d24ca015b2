package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tagrel/internal/model"
	"github.com/roach88/tagrel/internal/relations"
	"github.com/roach88/tagrel/internal/store"
	"github.com/roach88/tagrel/internal/testutil"
)

func setupTestStore(t *testing.T) *store.Store {
	return testutil.OpenStore(t)
}

// newTestEngine returns an engine with tokens op-1, op-2, ...
func newTestEngine(t *testing.T, s *store.Store) *Engine {
	t.Helper()
	e, err := New(context.Background(), s, WithTokenGenerator(testutil.NewSequentialTokens("op")))
	require.NoError(t, err)
	return e
}

func mustExecute(t *testing.T, e *Engine, cmd Command) Outcome {
	t.Helper()
	out, err := e.Execute(context.Background(), cmd)
	require.NoError(t, err, "%s", cmd)
	return out
}

func synonym(tag, group string) Command {
	return Command{Op: OpAddSynonym, Tag: tag, Group: group}
}

func child(c, p string) Command {
	return Command{Op: OpAddChild, Child: c, Parent: p}
}

func TestExecute_Success(t *testing.T) {
	e := newTestEngine(t, setupTestStore(t))

	out := mustExecute(t, e, synonym("Cat", "CatGroup"))

	assert.True(t, out.OK)
	assert.Equal(t, int64(1), out.Seq)
	assert.Equal(t, "op-1", out.Token)
	assert.Empty(t, out.Code)
}

func TestExecute_FailureIsOutcome(t *testing.T) {
	e := newTestEngine(t, setupTestStore(t))

	mustExecute(t, e, synonym("Cat", "G"))
	out := mustExecute(t, e, synonym("Cat", "G"))

	assert.False(t, out.OK)
	assert.Equal(t, string(relations.KindConflict), out.Kind)
	assert.Equal(t, string(relations.CodeAlreadyInGroup), out.Code)
	assert.NotEmpty(t, out.Message)
	assert.Equal(t, int64(2), out.Seq)
}

func TestExecute_JournalsMutations(t *testing.T) {
	s := setupTestStore(t)
	e := newTestEngine(t, s)

	mustExecute(t, e, child("Cat", "Animal"))
	mustExecute(t, e, Command{Op: OpGetRelations})
	mustExecute(t, e, child("Cat", "Plant"))

	entries, err := s.ReadJournal(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2, "reads are not journaled")

	assert.Equal(t, model.JournalEntry{
		Seq:     1,
		Token:   "op-1",
		Op:      "add_child",
		Args:    `{"child":"Cat","parent":"Animal"}`,
		Outcome: model.OutcomeOK,
	}, entries[0])

	assert.Equal(t, int64(2), entries[1].Seq)
	assert.Equal(t, model.OutcomeFailed, entries[1].Outcome)
	assert.Equal(t, string(relations.CodeDifferentParent), entries[1].Code)
}

func TestExecute_CommandErrors(t *testing.T) {
	s := setupTestStore(t)
	e := newTestEngine(t, s)

	tests := []struct {
		name string
		cmd  Command
	}{
		{"empty op", Command{}},
		{"unknown op", Command{Op: "rename", Tag: "Cat"}},
		{"missing group", Command{Op: OpAddSynonym, Tag: "Cat"}},
		{"missing tag", Command{Op: OpRemoveSynonym, Group: "G"}},
		{"blank child", Command{Op: OpAddChild, Child: " ", Parent: "Animal"}},
		{"missing parent", Command{Op: OpRemoveChild, Child: "Cat"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Execute(context.Background(), tt.cmd)
			require.Error(t, err)
			assert.True(t, IsCommandError(err))
		})
	}

	entries, err := s.ReadJournal(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, int64(0), e.clock.Current(), "rejected commands do not consume seqs")
}

func TestExecute_GetRelations(t *testing.T) {
	e := newTestEngine(t, setupTestStore(t))
	mustExecute(t, e, child("Cat", "Animal"))
	mustExecute(t, e, synonym("Cat", "CatGroup"))

	out := mustExecute(t, e, Command{Op: OpGetRelations, Tag: "Cat"})
	assert.True(t, out.OK)
	assert.Zero(t, out.Seq)
	assert.Equal(t, []model.GroupDescription{{
		GroupName: "CatGroup",
		Tags:      []string{"Cat"},
		Ancestors: []string{"Animal_auto"},
	}}, out.Relations)

	all := mustExecute(t, e, Command{Op: OpGetRelations})
	assert.Len(t, all.Relations, 2)

	unknown := mustExecute(t, e, Command{Op: OpGetRelations, Tag: "Nobody"})
	assert.True(t, unknown.OK)
	assert.Empty(t, unknown.Relations)
}

func TestExecute_RemovalsDoNotCreateTags(t *testing.T) {
	s := setupTestStore(t)
	e := newTestEngine(t, s)
	mustExecute(t, e, synonym("Cat", "CatGroup"))

	out := mustExecute(t, e, Command{Op: OpRemoveSynonym, Tag: "Ghost", Group: "CatGroup"})
	assert.Equal(t, string(relations.CodeTagNotInGroup), out.Code)

	out = mustExecute(t, e, Command{Op: OpRemoveSynonym, Tag: "Ghost", Group: "Nope"})
	assert.Equal(t, string(relations.CodeGroupNotFound), out.Code)

	out = mustExecute(t, e, Command{Op: OpRemoveChild, Child: "Ghost", Parent: "Cat"})
	assert.Equal(t, string(relations.CodeNoSuchRelation), out.Code)

	tags, err := s.ListTags(context.Background())
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "Cat", tags[0].Name)
}

func TestExecute_RemoveOperations(t *testing.T) {
	e := newTestEngine(t, setupTestStore(t))
	mustExecute(t, e, child("Cat", "Animal"))
	mustExecute(t, e, synonym("Dog", "Dogs"))

	assert.True(t, mustExecute(t, e, Command{Op: OpRemoveChild, Child: "Cat", Parent: "Animal"}).OK)
	assert.True(t, mustExecute(t, e, Command{Op: OpRemoveSynonym, Tag: "Dog", Group: "Dogs"}).OK)

	out := mustExecute(t, e, Command{Op: OpGetRelations, Tag: "Cat"})
	require.Len(t, out.Relations, 1)
	assert.Empty(t, out.Relations[0].Ancestors)
}

func TestNew_ResumesClockFromJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1, err := store.Open(path)
	require.NoError(t, err)
	e1 := newTestEngine(t, s1)
	mustExecute(t, e1, synonym("Cat", "A"))
	mustExecute(t, e1, synonym("Dog", "B"))
	require.NoError(t, s1.Close())

	s2, err := store.Open(path)
	require.NoError(t, err)
	defer s2.Close()
	e2, err := New(ctx, s2, WithTokenGenerator(NewFixedGenerator("later")))
	require.NoError(t, err)

	out := mustExecute(t, e2, synonym("Bird", "C"))
	assert.Equal(t, int64(3), out.Seq)
	assert.Equal(t, "later", out.Token)
}

func TestExecute_DefaultTokensAreUUIDs(t *testing.T) {
	e, err := New(context.Background(), setupTestStore(t))
	require.NoError(t, err)

	out := mustExecute(t, e, synonym("Cat", "A"))
	assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[0-9a-f]{4}-[0-9a-f]{12}$`, out.Token)
}

func TestExecute_NormalizesNames(t *testing.T) {
	s := setupTestStore(t)
	e := newTestEngine(t, s)

	mustExecute(t, e, synonym("caf\u00e9", "Drinks"))
	out := mustExecute(t, e, synonym("cafe\u0301", "Drinks"))
	assert.Equal(t, string(relations.CodeAlreadyInGroup), out.Code)
}

func TestExecute_RejectionRegistersNoTags(t *testing.T) {
	s := setupTestStore(t)
	e := newTestEngine(t, s)
	ctx := context.Background()

	mustExecute(t, e, child("Cat", "Animal"))
	out := mustExecute(t, e, child("Cat", "Plant"))
	require.False(t, out.OK)
	assert.Equal(t, string(relations.CodeDifferentParent), out.Code)

	_, err := s.ResolveTag(ctx, "Plant")
	assert.ErrorIs(t, err, store.ErrTagNotFound)

	out = mustExecute(t, e, Command{Op: OpAddSynonym, Tag: "Lion", Group: "Big" + model.AutoGroupSuffix})
	assert.Equal(t, string(relations.CodeReservedName), out.Code)
	_, err = s.ResolveTag(ctx, "Lion")
	assert.ErrorIs(t, err, store.ErrTagNotFound)

	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}

func journalSeqs(t *testing.T, s *store.Store) []int64 {
	t.Helper()
	entries, err := s.ReadJournal(context.Background())
	require.NoError(t, err)
	seqs := make([]int64, len(entries))
	for i, entry := range entries {
		seqs[i] = entry.Seq
	}
	return seqs
}

func TestExecute_StoreErrorConsumesNoSeq(t *testing.T) {
	s := setupTestStore(t)
	e := newTestEngine(t, s)

	mustExecute(t, e, synonym("Cat", "Feline"))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Execute(cancelled, synonym("Dog", "Canine"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)

	out := mustExecute(t, e, synonym("Dog", "Canine"))
	assert.Equal(t, int64(2), out.Seq)
	assert.Equal(t, []int64{1, 2}, journalSeqs(t, s))
}

func TestExecute_JournalFailureConsumesNoSeq(t *testing.T) {
	s := setupTestStore(t)
	e := newTestEngine(t, s)
	ctx := context.Background()

	mustExecute(t, e, synonym("Cat", "Feline"))

	// Occupy the next seq so the journal append is refused.
	require.NoError(t, s.AppendJournal(ctx, model.JournalEntry{
		Seq:     2,
		Token:   "elsewhere",
		Op:      string(OpAddSynonym),
		Args:    `{"tag":"Bird","group":"Avians"}`,
		Outcome: model.OutcomeOK,
	}))

	_, err := e.Execute(ctx, synonym("Dog", "Canine"))
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrConstraint)
	assert.Equal(t, int64(1), e.clock.Current())
}
