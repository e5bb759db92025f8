// Package rmcmd implements the `greenroom rm` command.
package rmcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/greenroom-sh/greenroom/cmd/greenroom/shared"
	"github.com/greenroom-sh/greenroom/internal/service"
)

// Command implements `greenroom rm`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	force bool
}

// New creates the rm command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "rm <guest>",
		Short: "Delete a context document",
		Args:  cobra.ExactArgs(1),
		RunE:  c.run,
	}
	c.cmd.Flags().BoolVar(&c.force, "force", false, "Delete without confirmation")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	svc, err := service.New(c.ctx.Home)
	if err != nil {
		return err
	}
	defer svc.Close()

	doc, err := svc.ResolveContext(args[0])
	if err != nil {
		return err
	}

	if !c.force && !shared.Confirm(cmd, fmt.Sprintf("Delete context %q?", doc.Key)) {
		fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
		return nil
	}

	if err := svc.DeleteContext(doc.Key); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted context: %s\n", doc.Key)
	return nil
}
