package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tagrel/internal/seed"
)

// applyView is the output of the apply command.
type applyView struct {
	File string `json:"file"`
	seed.Report
}

func (v applyView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d tags, %d operations applied, %d rejected",
		v.File, v.Tags, v.Applied, len(v.Rejected))
	for _, r := range v.Rejected {
		fmt.Fprintf(&b, "\n  ✗ [%d] %s: %s", r.Index, r.Command, r.Code)
	}
	return b.String()
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <seed.cue>",
		Short: "Apply a CUE seed file",
		Long: `Register the tags and run the operations listed in a CUE seed file.

The file is validated against the seed schema before anything runs.
Each operation is journaled on its own; a rejected operation does not stop
the ones after it.

Exit codes:
  0 - Every operation applied
  1 - One or more operations were rejected
  2 - Command error (invalid seed file, database errors)

Example seed:
  tags: ["Cat", "Animal"]
  operations: [
  	{op: "add_child", child: "Cat", parent: "Animal"},
  	{op: "add_synonym", tag: "Pussy", group: "CatGroup"},
  ]`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := seed.LoadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid seed file", err)
			}

			ctx := cmd.Context()
			eng, st, err := openEngine(ctx, opts)
			if err != nil {
				return err
			}
			defer st.Close()

			report, err := seed.Apply(ctx, st, eng, s)
			if err != nil {
				return execError(err)
			}

			f := newFormatter(opts, cmd)
			view := applyView{File: args[0], Report: report}
			if n := len(report.Rejected); n > 0 {
				msg := fmt.Sprintf("%d seed operation(s) rejected", n)
				var details any = view
				if opts.Format != "json" {
					fmt.Fprintln(f.Writer, view)
					details = nil
				}
				if err := f.Error("E_SEED_REJECTED", msg, details); err != nil {
					return err
				}
				return NewExitError(ExitFailure, msg)
			}
			return f.Success(view)
		},
	}
}
