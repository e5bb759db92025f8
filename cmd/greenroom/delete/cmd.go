// Package deletecmd implements the `greenroom delete` command.
package deletecmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/greenroom-sh/greenroom/cmd/greenroom/shared"
	"github.com/greenroom-sh/greenroom/internal/service"
)

// Command implements `greenroom delete`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	force bool
}

// New creates the delete command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete one session variable",
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

	if !c.force && !shared.Confirm(cmd, fmt.Sprintf("Delete variable %q?", args[0])) {
		fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
		return nil
	}

	existed, err := svc.DeleteVar(args[0])
	if err != nil {
		return err
	}
	if !existed {
		fmt.Fprintf(cmd.OutOrStdout(), "Variable %s did not exist\n", args[0])
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}
