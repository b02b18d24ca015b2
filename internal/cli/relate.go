package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tagrel/internal/engine"
	"github.com/roach88/tagrel/internal/model"
)

// appliedView is the success output of a mutating command.
type appliedView struct {
	Command string `json:"command"`
	Seq     int64  `json:"seq"`
	Token   string `json:"token"`
}

func (v appliedView) String() string {
	return fmt.Sprintf("ok %s [seq %d, %s]", v.Command, v.Seq, v.Token)
}

// relationsView renders groups one per line:
//
//	CatGroup: Cat, Pussy < Animal_auto < AnimalBase_auto
type relationsView []model.GroupDescription

func (v relationsView) String() string {
	if len(v) == 0 {
		return "No groups."
	}
	var b strings.Builder
	for i, d := range v {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s", d.GroupName, strings.Join(d.Tags, ", "))
		for _, a := range d.Ancestors {
			fmt.Fprintf(&b, " < %s", a)
		}
	}
	return b.String()
}

// NewSynonymCommand creates the synonym command group.
func NewSynonymCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synonym",
		Short: "Add or remove tags in synonym groups",
	}
	cmd.AddCommand(newOpCommand(rootOpts, engine.OpAddSynonym, "add <tag> <group>",
		"Put a tag into a synonym group",
		`Put a tag into the named synonym group, creating the group if needed.

A tag that only sits in its placeholder group (created by "child add") is
merged into the named group, which takes over the placeholder's position
in the hierarchy.

Example:
  tagrel synonym add Pussy CatGroup`))
	cmd.AddCommand(newOpCommand(rootOpts, engine.OpRemoveSynonym, "remove <tag> <group>",
		"Take a tag out of a synonym group",
		`Take a tag out of the named synonym group. The group is kept even when
it ends up empty.

Example:
  tagrel synonym remove Pussy CatGroup`))
	return cmd
}

// NewChildCommand creates the child command group.
func NewChildCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "child",
		Short: "Add or remove hierarchy links between groups",
	}
	cmd.AddCommand(newOpCommand(rootOpts, engine.OpAddChild, "add <child> <parent>",
		"Make the child tag's group a child of the parent tag's group",
		`Make the child tag's group a direct child of the parent tag's group.
Ungrouped tags get a placeholder group named <tag>_auto.

A group has at most one parent and can never be its own ancestor.

Example:
  tagrel child add Cat Animal`))
	cmd.AddCommand(newOpCommand(rootOpts, engine.OpRemoveChild, "remove <child> <parent>",
		"Detach the child tag's group from the parent tag's group",
		`Detach the child tag's group from the parent tag's group.

Example:
  tagrel child remove Cat Animal`))
	return cmd
}

// newOpCommand builds a subcommand that runs one mutating op with two
// positional arguments.
func newOpCommand(opts *RootOptions, op engine.Op, use, short, long string) *cobra.Command {
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Long:          long,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := engine.Command{Op: op}
			switch op {
			case engine.OpAddChild, engine.OpRemoveChild:
				c.Child, c.Parent = args[0], args[1]
			default:
				c.Tag, c.Group = args[0], args[1]
			}
			return runOp(cmd, opts, c)
		},
	}
}

// runOp executes c and reports the outcome. A rejected command exits with
// ExitFailure after printing the failure.
func runOp(cmd *cobra.Command, opts *RootOptions, c engine.Command) error {
	ctx := cmd.Context()
	eng, st, err := openEngine(ctx, opts)
	if err != nil {
		return err
	}
	defer st.Close()

	out, err := eng.Execute(ctx, c)
	if err != nil {
		return execError(err)
	}

	f := newFormatter(opts, cmd)
	if !out.OK {
		if err := f.Error(out.Code, out.Message, out); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%s rejected: %s", c, out.Code))
	}

	f.VerboseLog("journaled %s as seq %d", c, out.Seq)
	return f.Success(appliedView{Command: c.String(), Seq: out.Seq, Token: out.Token})
}

// NewRelationsCommand creates the relations command.
func NewRelationsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "relations [tag]",
		Short: "Show synonym groups and their ancestors",
		Long: `Show the group of one tag, or every group in hierarchy order.

Each line lists a group, its tags, and its ancestors nearest first.
An ungrouped or unknown tag prints no groups.

Examples:
  tagrel relations
  tagrel relations Pussy --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := engine.Command{Op: engine.OpGetRelations}
			if len(args) == 1 {
				c.Tag = args[0]
			}

			ctx := cmd.Context()
			eng, st, err := openEngine(ctx, opts)
			if err != nil {
				return err
			}
			defer st.Close()

			out, err := eng.Execute(ctx, c)
			if err != nil {
				return execError(err)
			}
			return newFormatter(opts, cmd).Success(relationsView(out.Relations))
		},
	}
}
