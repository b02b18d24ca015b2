package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tagrel/internal/engine"
	"github.com/roach88/tagrel/internal/model"
)

func step(op engine.Op, a, b string) Step {
	switch op {
	case engine.OpAddChild, engine.OpRemoveChild:
		return Step{Command: engine.Command{Op: op, Child: a, Parent: b}}
	default:
		return Step{Command: engine.Command{Op: op, Tag: a, Group: b}}
	}
}

func TestRun_MinimalScenario(t *testing.T) {
	scenario := &Scenario{
		Name:        "minimal",
		Description: "One synonym",
		TokenPrefix: "min",
		Steps:       []Step{step(engine.OpAddSynonym, "Cat", "Feline")},
		Assertions: []Assertion{
			{Type: AssertRelations, Tag: "Cat", Group: "Feline", Tags: []string{"Cat"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Trace, 1)
	assert.Equal(t, TraceEvent{
		Seq:     1,
		Token:   "min-1",
		Command: "add_synonym(Cat, Feline)",
		Outcome: model.OutcomeOK,
	}, result.Trace[0])

	assert.Equal(t, []model.GroupDescription{
		{GroupName: "Feline", Tags: []string{"Cat"}, Ancestors: []string{}},
	}, result.Relations)
}

func TestRun_DefaultTokenPrefix(t *testing.T) {
	scenario := &Scenario{
		Name:        "default_prefix",
		Description: "Tokens fall back to op-N",
		Steps:       []Step{step(engine.OpAddSynonym, "Cat", "Feline")},
		Assertions:  []Assertion{{Type: AssertInvariants}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, "op-1", result.Trace[0].Token)
}

func TestRun_ExpectedFailurePasses(t *testing.T) {
	rejected := step(engine.OpAddSynonym, "Cat", "Feline")
	rejected.Expect = "already_in_group"

	scenario := &Scenario{
		Name:        "expected_failure",
		Description: "A rejection that was expected",
		Steps:       []Step{step(engine.OpAddSynonym, "Cat", "Feline"), rejected},
		Assertions:  []Assertion{{Type: AssertInvariants}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 2)
	assert.Equal(t, model.OutcomeFailed, result.Trace[1].Outcome)
	assert.Equal(t, "already_in_group", result.Trace[1].Code)
	assert.Equal(t, 1, result.Failed())
}

func TestRun_UnexpectedFailureRecorded(t *testing.T) {
	scenario := &Scenario{
		Name:        "unexpected_failure",
		Description: "A step that should have succeeded",
		Steps: []Step{
			step(engine.OpAddSynonym, "Cat", "Feline"),
			step(engine.OpAddSynonym, "Cat", "Other"),
			step(engine.OpAddSynonym, "Dog", "Canine"),
		},
		Assertions: []Assertion{{Type: AssertInvariants}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "step 1 add_synonym(Cat, Other): expected ok, got different_group")

	// Later steps still run.
	assert.Len(t, result.Trace, 3)
}

func TestRun_UnexpectedSuccessRecorded(t *testing.T) {
	s := step(engine.OpAddSynonym, "Cat", "Feline")
	s.Expect = "already_in_group"

	scenario := &Scenario{
		Name:        "unexpected_success",
		Description: "A step that should have been rejected",
		Steps:       []Step{s},
		Assertions:  []Assertion{{Type: AssertInvariants}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected already_in_group, got ok")
}

func TestRun_FailedAssertionRecorded(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_assertion",
		Description: "Assertion that does not hold",
		Steps:       []Step{step(engine.OpAddSynonym, "Cat", "Feline")},
		Assertions: []Assertion{
			{Type: AssertRelations, Tag: "Cat", Group: "Canine"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Assertion failed: relations")
	assert.Contains(t, result.Errors[0], "group Feline")
}

func TestRun_IsolatedRuns(t *testing.T) {
	scenario := &Scenario{
		Name:        "isolated",
		Description: "Each run starts from an empty store",
		Steps:       []Step{step(engine.OpAddSynonym, "Cat", "Feline")},
		Assertions: []Assertion{
			{Type: AssertJournal, Count: intPtr(1)},
		},
	}

	for i := 0; i < 3; i++ {
		result, err := Run(scenario)
		require.NoError(t, err)
		assert.True(t, result.Pass, "run %d: %v", i, result.Errors)
		assert.Equal(t, int64(1), result.Trace[0].Seq)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scenario := &Scenario{
		Name:        "cancelled",
		Description: "Cancellation aborts the run",
		Steps:       []Step{step(engine.OpAddSynonym, "Cat", "Feline")},
		Assertions:  []Assertion{{Type: AssertInvariants}},
	}

	_, err := RunContext(ctx, scenario)
	require.Error(t, err)
}

func TestRun_Fixtures(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func intPtr(n int) *int { return &n }
