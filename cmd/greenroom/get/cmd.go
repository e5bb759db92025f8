// Package getcmd implements the `greenroom get` command.
package getcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/greenroom-sh/greenroom/cmd/greenroom/shared"
	"github.com/greenroom-sh/greenroom/internal/service"
)

// Command implements `greenroom get`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the get command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "get <name>",
		Short: "Print one session variable",
		Long: `Print one session variable. Bare names resolve under the active session's
prefix; names containing a dot are treated as absolute store keys.`,
		Args: cobra.ExactArgs(1),
		RunE: c.run,
	}
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

	value, err := svc.GetVar(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}
