package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/tagrel/internal/engine"
	"github.com/roach88/tagrel/internal/store"
	"github.com/roach88/tagrel/internal/testutil"
)

// Harness executes one scenario against a private store.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation. A step
// whose outcome differs from its expectation is recorded in Result.Errors
// and the remaining steps still run. The returned error is reserved for
// failures of the harness itself, such as a store error.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	eng, err := engine.New(ctx, st,
		engine.WithTokenGenerator(testutil.NewSequentialTokens(scenario.TokenPrefix)),
		engine.WithClock(engine.NewClock()))
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	h := &Harness{
		store:  st,
		engine: eng,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	result := NewResult()
	if err := h.executeSteps(ctx, scenario.Steps, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}
	if err := h.collect(ctx, result); err != nil {
		return nil, err
	}

	actx := &AssertionContext{
		Ctx:    ctx,
		Store:  st,
		Engine: eng,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// executeSteps runs every step and compares its outcome with the expectation.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) error {
	for i, step := range steps {
		out, err := h.engine.Execute(ctx, step.Command)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}

		got := ExpectOK
		if !out.OK {
			got = out.Code
		}
		if want := step.Expected(); got != want {
			msg := fmt.Sprintf("step %d %s: expected %s, got %s", i, step.Command, want, got)
			if out.Message != "" {
				msg += " (" + out.Message + ")"
			}
			result.AddError(msg)
		}

		h.logger.Info("step completed",
			"step", i,
			"command", step.Command.String(),
			"seq", out.Seq,
			"token", out.Token,
			"outcome", got,
		)
	}
	return nil
}

// collect fills the trace from the journal and the final forest.
func (h *Harness) collect(ctx context.Context, result *Result) error {
	entries, err := h.store.ReadJournal(ctx)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	for _, e := range entries {
		cmd, err := engine.CommandFromJournal(e)
		if err != nil {
			return err
		}
		result.Trace = append(result.Trace, TraceEvent{
			Seq:     e.Seq,
			Token:   e.Token,
			Command: cmd.String(),
			Outcome: e.Outcome,
			Code:    e.Code,
		})
	}

	out, err := h.engine.Execute(ctx, engine.Command{Op: engine.OpGetRelations})
	if err != nil {
		return fmt.Errorf("failed to read relations: %w", err)
	}
	result.Relations = out.Relations
	return nil
}
