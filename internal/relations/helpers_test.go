package relations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/tagrel/internal/model"
	"github.com/roach88/tagrel/internal/query"
	"github.com/roach88/tagrel/internal/store"
	"github.com/roach88/tagrel/internal/testutil"
)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *store.Store
	m     *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := testutil.OpenStore(t)
	return &fixture{t: t, ctx: context.Background(), store: s, m: New(s)}
}

// tag registers name and returns its identity.
func (f *fixture) tag(name string) model.TagRef {
	f.t.Helper()
	tag, err := f.store.EnsureTag(f.ctx, name)
	require.NoError(f.t, err)
	return tag
}

func (f *fixture) addSynonym(tag, group string) error {
	return f.m.AddSynonym(f.ctx, f.tag(tag), group)
}

func (f *fixture) addChild(child, parent string) error {
	return f.m.AddChild(f.ctx, f.tag(child), f.tag(parent))
}

func (f *fixture) relationsOf(name string) []model.GroupDescription {
	f.t.Helper()
	tag := f.tag(name)
	descs, err := f.m.GetRelations(f.ctx, &tag)
	require.NoError(f.t, err)
	return descs
}

// only returns the single description for a tag, failing if there is none.
func (f *fixture) only(name string) model.GroupDescription {
	f.t.Helper()
	descs := f.relationsOf(name)
	require.Len(f.t, descs, 1, "tag %q should be in exactly one group", name)
	return descs[0]
}

func (f *fixture) snapshot() ([]model.SynonymGroup, []model.HierarchyEdge) {
	f.t.Helper()
	var (
		groups []model.SynonymGroup
		edges  []model.HierarchyEdge
	)
	err := f.store.WithinTx(f.ctx, func(tx store.Tx) error {
		var err error
		if groups, err = tx.QueryGroups(f.ctx, query.All{}); err != nil {
			return err
		}
		edges, err = tx.QueryEdges(f.ctx, query.All{})
		return err
	})
	require.NoError(f.t, err)
	return groups, edges
}

// checkInvariants asserts the partition, single-parent and forest invariants
// over the raw store contents.
func (f *fixture) checkInvariants() {
	f.t.Helper()
	groups, edges := f.snapshot()

	owner := map[int64]string{}
	for _, g := range groups {
		for _, tag := range g.Tags {
			prev, dup := owner[tag.ID]
			require.False(f.t, dup, "tag %q in groups %q and %q", tag.Name, prev, g.Name)
			owner[tag.ID] = g.Name
		}
	}

	parents := map[model.GroupID]int64{}
	for _, e := range edges {
		for _, c := range e.Children {
			prev, dup := parents[c]
			require.False(f.t, dup, "group %d is a child in edges %d and %d", c, prev, e.ID)
			parents[c] = e.ID
		}
	}

	for _, g := range groups {
		require.False(f.t, edgeAncestor(edges, g.ID, g.ID), "group %q is its own ancestor", g.Name)
	}
}

// permutations returns every ordering of 0..n-1.
func permutations(n int) [][]int {
	if n == 0 {
		return [][]int{{}}
	}
	var out [][]int
	for _, p := range permutations(n - 1) {
		for i := 0; i <= len(p); i++ {
			q := make([]int, 0, n)
			q = append(q, p[:i]...)
			q = append(q, n-1)
			q = append(q, p[i:]...)
			out = append(out, q)
		}
	}
	return out
}
