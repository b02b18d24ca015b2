package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tagrel/internal/engine"
	"github.com/roach88/tagrel/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Into string // optional database to rebuild; empty replays in memory
}

// ReplayResult holds the replay outcome.
type ReplayResult struct {
	engine.ReplayReport
	Into       string            `json:"into,omitempty"`
	Mismatches []engine.Mismatch `json:"mismatches"`
}

func (r ReplayResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Replayed %d entries: %d applied, %d rejected", r.Entries, r.Applied, r.Failed)
	if r.Into != "" {
		fmt.Fprintf(&b, " into %s", r.Into)
	}
	if len(r.Mismatches) == 0 {
		b.WriteString("\n✓ every outcome reproduced")
	}
	for _, m := range r.Mismatches {
		fmt.Fprintf(&b, "\n✗ seq %d %s %s: journal %s, replay %s", m.Seq, m.Op, m.Args, m.Want, m.Got)
	}
	return b.String()
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-run the journal and verify every outcome",
		Long: `Re-execute every journaled command, in seq order, against an empty
database and check that each one reproduces its recorded outcome.

With --into the journal is replayed into that database instead of an
in-memory one, rebuilding the relations and the journal there.

Exit codes:
  0 - Every outcome reproduced
  1 - One or more outcomes diverged
  2 - Command error (database not found, etc.)

Examples:
  tagrel replay --db ./tagrel.db
  tagrel replay --db ./tagrel.db --into ./rebuilt.db
  tagrel replay --db ./tagrel.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Into, "into", "", "database to rebuild from the journal")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	src, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer src.Close()

	entries, err := src.ReadJournal(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	var report engine.ReplayReport
	if opts.Into != "" {
		if opts.Into == opts.Database {
			return NewExitError(ExitCommandError, "--into must name a different database")
		}
		dst, err := store.Open(opts.Into)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open target database", err)
		}
		defer dst.Close()
		report, err = engine.ReplayInto(ctx, dst, entries)
	} else {
		report, err = engine.Replay(ctx, entries)
	}

	result := ReplayResult{ReplayReport: report, Into: opts.Into, Mismatches: []engine.Mismatch{}}
	var mismatch *engine.ReplayMismatchError
	if errors.As(err, &mismatch) {
		result.Mismatches = mismatch.Mismatches
	} else if err != nil {
		return execError(err)
	}

	f := newFormatter(opts.RootOptions, cmd)
	if len(result.Mismatches) > 0 {
		var details any = result
		if opts.Format != "json" {
			fmt.Fprintln(f.Writer, result)
			details = nil
		}
		if err := f.Error("E_REPLAY_DIVERGED", mismatch.Error(), details); err != nil {
			return err
		}
		return WrapExitError(ExitFailure, "replay is not deterministic", mismatch)
	}
	return f.Success(result)
}
