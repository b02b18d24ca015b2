package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tagrel/internal/model"
)

// tagList renders tags one per line as "<id>\t<name>".
type tagList []model.TagRef

func (l tagList) String() string {
	if len(l) == 0 {
		return "No tags."
	}
	var b strings.Builder
	for i, t := range l {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d\t%s", t.ID, t.Name)
	}
	return b.String()
}

// NewTagCommand creates the tag command group.
func NewTagCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Register and list tags",
	}
	cmd.AddCommand(newTagAddCommand(rootOpts))
	cmd.AddCommand(newTagListCommand(rootOpts))
	return cmd
}

func newTagAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>...",
		Short: "Register tags",
		Long: `Register tags by name. Registering an existing name is a no-op.

Names are compared after Unicode NFC normalization.

Example:
  tagrel tag add Cat Dog "Golden Retriever"`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			tags := make(tagList, 0, len(args))
			for _, name := range args {
				t, err := st.EnsureTag(cmd.Context(), name)
				if err != nil {
					return WrapExitError(ExitCommandError, fmt.Sprintf("failed to register tag %q", name), err)
				}
				tags = append(tags, t)
			}
			return newFormatter(opts, cmd).Success(tags)
		},
	}
}

func newTagListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List registered tags",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			tags, err := st.ListTags(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to list tags", err)
			}
			return newFormatter(opts, cmd).Success(tagList(tags))
		},
	}
}
