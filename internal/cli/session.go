package cli

import (
	"context"
	"errors"

	"github.com/roach88/tagrel/internal/engine"
	"github.com/roach88/tagrel/internal/store"
)

// openStore opens the database named by --db.
func openStore(opts *RootOptions) (*store.Store, error) {
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// openEngine opens the database and an engine over it. The caller closes
// the returned store.
func openEngine(ctx context.Context, opts *RootOptions) (*engine.Engine, *store.Store, error) {
	st, err := openStore(opts)
	if err != nil {
		return nil, nil, err
	}

	var engOpts []engine.Option
	if opts.Tokens != nil {
		engOpts = append(engOpts, engine.WithTokenGenerator(opts.Tokens))
	}
	eng, err := engine.New(ctx, st, engOpts...)
	if err != nil {
		st.Close()
		return nil, nil, WrapExitError(ExitCommandError, "failed to start engine", err)
	}
	return eng, st, nil
}

// execError maps an Execute error to an exit code. Business failures never
// reach here: Execute reports them in the Outcome.
func execError(err error) error {
	switch {
	case engine.IsCommandError(err):
		return WrapExitError(ExitCommandError, "invalid command", err)
	case errors.Is(err, context.Canceled):
		return WrapExitError(ExitFailure, "interrupted", err)
	default:
		return WrapExitError(ExitCommandError, "operation failed", err)
	}
}
