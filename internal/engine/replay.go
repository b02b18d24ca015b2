package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/tagrel/internal/model"
	"github.com/roach88/tagrel/internal/store"
)

// Mismatch is one journal entry whose replayed outcome differs.
// Want and Got are "ok" or the failure code.
type Mismatch struct {
	Seq  int64  `json:"seq"`
	Op   string `json:"op"`
	Args string `json:"args"`
	Want string `json:"want"`
	Got  string `json:"got"`
}

// ReplayReport summarizes a successful replay.
type ReplayReport struct {
	Entries int `json:"entries"`
	Applied int `json:"applied"`
	Failed  int `json:"failed"`
}

// Replay re-executes entries, in seq order, against a fresh in-memory store.
// See ReplayInto.
func Replay(ctx context.Context, entries []model.JournalEntry) (ReplayReport, error) {
	s, err := store.Open(":memory:")
	if err != nil {
		return ReplayReport{}, fmt.Errorf("replay: %w", err)
	}
	defer s.Close()

	return ReplayInto(ctx, s, entries)
}

// ReplayInto re-executes entries against dst, reusing the journaled tokens.
//
// Relations are a pure function of the command sequence, so every entry must
// reproduce its recorded outcome. Divergent entries are collected and
// returned as a *ReplayMismatchError after the whole journal has run.
func ReplayInto(ctx context.Context, dst *store.Store, entries []model.JournalEntry) (ReplayReport, error) {
	tokens := make([]string, len(entries))
	for i, e := range entries {
		tokens[i] = e.Token
	}

	start, err := dst.LastJournalSeq(ctx)
	if err != nil {
		return ReplayReport{}, fmt.Errorf("replay: %w", err)
	}
	eng, err := New(ctx, dst,
		WithClock(NewClockAt(start)),
		WithTokenGenerator(NewFixedGenerator(tokens...)))
	if err != nil {
		return ReplayReport{}, fmt.Errorf("replay: %w", err)
	}

	report := ReplayReport{Entries: len(entries)}
	var mismatches []Mismatch

	for _, entry := range entries {
		cmd, err := CommandFromJournal(entry)
		if err != nil {
			return report, err
		}
		if !cmd.Mutating() {
			return report, &CommandError{Op: entry.Op, Message: fmt.Sprintf("journal seq %d holds a read", entry.Seq)}
		}

		out, err := eng.Execute(ctx, cmd)
		if err != nil {
			return report, fmt.Errorf("replay seq %d: %w", entry.Seq, err)
		}
		if out.OK {
			report.Applied++
		} else {
			report.Failed++
		}

		want, got := recorded(entry), result(out)
		if want != got {
			slog.Warn("replay mismatch",
				"seq", entry.Seq,
				"op", entry.Op,
				"want", want,
				"got", got)
			mismatches = append(mismatches, Mismatch{
				Seq:  entry.Seq,
				Op:   entry.Op,
				Args: entry.Args,
				Want: want,
				Got:  got,
			})
		}
	}

	if len(mismatches) > 0 {
		return report, &ReplayMismatchError{Mismatches: mismatches}
	}
	return report, nil
}

func recorded(e model.JournalEntry) string {
	if e.Outcome == model.OutcomeOK {
		return model.OutcomeOK
	}
	return e.Code
}

func result(o Outcome) string {
	if o.OK {
		return model.OutcomeOK
	}
	return o.Code
}
