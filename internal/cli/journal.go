package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tagrel/internal/model"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	Since  int64 // only entries with a greater seq
	Failed bool  // only rejected entries
}

// journalView renders entries one per line.
type journalView []model.JournalEntry

func (v journalView) String() string {
	if len(v) == 0 {
		return "Journal is empty."
	}
	var b strings.Builder
	for i, e := range v {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d\t%s\t%s\t%s\t%s", e.Seq, e.Token, e.Op, e.Args, e.Outcome)
		if e.Code != "" {
			fmt.Fprintf(&b, "\t%s", e.Code)
		}
	}
	return b.String()
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Print the operation journal",
		Long: `Print journaled commands in seq order: seq, token, op, arguments,
outcome and, for rejected commands, the failure code.

Examples:
  tagrel journal
  tagrel journal --since 40 --failed
  tagrel journal --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(opts.RootOptions)
			if err != nil {
				return err
			}
			defer st.Close()

			entries, err := st.ReadJournal(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read journal", err)
			}
			return newFormatter(opts.RootOptions, cmd).Success(filterJournal(entries, opts))
		},
	}

	cmd.Flags().Int64Var(&opts.Since, "since", 0, "only show entries after this seq")
	cmd.Flags().BoolVar(&opts.Failed, "failed", false, "only show rejected commands")

	return cmd
}

func filterJournal(entries []model.JournalEntry, opts *JournalOptions) journalView {
	out := journalView{}
	for _, e := range entries {
		if e.Seq <= opts.Since {
			continue
		}
		if opts.Failed && e.Outcome != model.OutcomeFailed {
			continue
		}
		out = append(out, e)
	}
	return out
}
