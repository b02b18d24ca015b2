package harness

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/tagrel/internal/engine"
	"github.com/roach88/tagrel/internal/model"
	"github.com/roach88/tagrel/internal/query"
	"github.com/roach88/tagrel/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Journaled commands for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s", event.Seq, event.Command, event.Outcome)
			if event.Code != "" {
				fmt.Fprintf(&buf, " (%s)", event.Code)
			}
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

// AssertionContext gives assertions read access to the scenario's store.
type AssertionContext struct {
	Ctx    context.Context
	Store  *store.Store
	Engine *engine.Engine
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var msgs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertForest:
			err = assertForest(result, assertion)
		case AssertJournal:
			err = assertJournal(result, assertion)
		case AssertRelations, AssertUngrouped, AssertInvariants:
			if actx == nil || actx.Store == nil || actx.Engine == nil {
				err = fmt.Errorf("assertion[%d]: %s requires a store", i, assertion.Type)
				break
			}
			switch assertion.Type {
			case AssertRelations:
				err = assertRelations(actx, result.Trace, assertion)
			case AssertUngrouped:
				err = assertUngrouped(actx, result.Trace, assertion)
			default:
				err = assertInvariants(actx)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	return msgs
}

// relationsOf returns the descriptions get_relations reports for a tag.
func relationsOf(actx *AssertionContext, tag string) ([]model.GroupDescription, error) {
	out, err := actx.Engine.Execute(actx.Ctx, engine.Command{Op: engine.OpGetRelations, Tag: tag})
	if err != nil {
		return nil, err
	}
	return out.Relations, nil
}

// assertRelations checks the group, members and ancestors reported for a tag.
func assertRelations(actx *AssertionContext, trace []TraceEvent, a Assertion) error {
	descs, err := relationsOf(actx, a.Tag)
	if err != nil {
		return err
	}
	if len(descs) == 0 {
		return &AssertionError{
			Type:     AssertRelations,
			Expected: fmt.Sprintf("tag %s in group %s", a.Tag, a.Group),
			Actual:   "tag is ungrouped",
			Trace:    trace,
		}
	}

	d := descs[0]
	if d.GroupName != a.Group {
		return &AssertionError{
			Type:     AssertRelations,
			Expected: fmt.Sprintf("tag %s in group %s", a.Tag, a.Group),
			Actual:   fmt.Sprintf("group %s", d.GroupName),
			Trace:    trace,
		}
	}

	if a.Tags != nil {
		want := slices.Clone(a.Tags)
		for i, name := range want {
			want[i] = model.NormalizeTagName(name)
		}
		slices.Sort(want)
		if !slices.Equal(want, d.Tags) {
			return &AssertionError{
				Type:     AssertRelations,
				Expected: fmt.Sprintf("group %s tags %v", a.Group, want),
				Actual:   fmt.Sprintf("tags %v", d.Tags),
				Trace:    trace,
			}
		}
	}

	want := a.Ancestors
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(want, d.Ancestors) {
		return &AssertionError{
			Type:     AssertRelations,
			Expected: fmt.Sprintf("group %s ancestors %v", a.Group, want),
			Actual:   fmt.Sprintf("ancestors %v", d.Ancestors),
			Trace:    trace,
		}
	}
	return nil
}

// assertUngrouped checks that a tag belongs to no group.
func assertUngrouped(actx *AssertionContext, trace []TraceEvent, a Assertion) error {
	descs, err := relationsOf(actx, a.Tag)
	if err != nil {
		return err
	}
	if len(descs) != 0 {
		return &AssertionError{
			Type:     AssertUngrouped,
			Expected: fmt.Sprintf("tag %s in no group", a.Tag),
			Actual:   fmt.Sprintf("group %s", descs[0].GroupName),
			Trace:    trace,
		}
	}
	return nil
}

// assertForest compares the pre-order group names of the final forest.
func assertForest(result *Result, a Assertion) error {
	got := make([]string, len(result.Relations))
	for i, d := range result.Relations {
		got[i] = d.GroupName
	}
	if !slices.Equal(a.Groups, got) {
		return &AssertionError{
			Type:     AssertForest,
			Expected: fmt.Sprintf("groups %v", a.Groups),
			Actual:   fmt.Sprintf("groups %v", got),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertJournal checks how many commands were journaled and rejected.
func assertJournal(result *Result, a Assertion) error {
	if a.Count != nil && len(result.Trace) != *a.Count {
		return &AssertionError{
			Type:     AssertJournal,
			Expected: fmt.Sprintf("%d journal entries", *a.Count),
			Actual:   fmt.Sprintf("%d entries", len(result.Trace)),
			Trace:    result.Trace,
		}
	}
	if a.Failed != nil && result.Failed() != *a.Failed {
		return &AssertionError{
			Type:     AssertJournal,
			Expected: fmt.Sprintf("%d rejected entries", *a.Failed),
			Actual:   fmt.Sprintf("%d rejected", result.Failed()),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertInvariants checks the stored rows directly rather than the built
// forest, so a violation cannot be hidden by the builder.
func assertInvariants(actx *AssertionContext) error {
	var groups []model.SynonymGroup
	var edges []model.HierarchyEdge
	err := actx.Store.WithinTx(actx.Ctx, func(tx store.Tx) error {
		var err error
		if groups, err = tx.QueryGroups(actx.Ctx, query.All{}); err != nil {
			return err
		}
		edges, err = tx.QueryEdges(actx.Ctx, query.All{})
		return err
	})
	if err != nil {
		return err
	}
	return CheckInvariants(groups, edges)
}

// ErrInvariant is wrapped by every CheckInvariants failure.
var ErrInvariant = errors.New("invariant violated")

// CheckInvariants verifies partition, single parent and cycle freedom.
func CheckInvariants(groups []model.SynonymGroup, edges []model.HierarchyEdge) error {
	owner := make(map[int64]string)
	for _, g := range groups {
		for _, t := range g.Tags {
			if prev, dup := owner[t.ID]; dup {
				return fmt.Errorf("%w: partition: tag %s in groups %s and %s", ErrInvariant, t.Name, prev, g.Name)
			}
			owner[t.ID] = g.Name
		}
	}

	parent := make(map[model.GroupID]model.GroupID)
	for _, e := range edges {
		for _, c := range e.Children {
			if _, dup := parent[c]; dup {
				return fmt.Errorf("%w: single parent: group %d has two parents", ErrInvariant, c)
			}
			parent[c] = e.Parent
		}
	}

	for start := range parent {
		seen := map[model.GroupID]bool{start: true}
		for cur, ok := parent[start]; ok; cur, ok = parent[cur] {
			if seen[cur] {
				return fmt.Errorf("%w: forest: group %d is on a cycle", ErrInvariant, cur)
			}
			seen[cur] = true
		}
	}
	return nil
}
