// Package unloadcmd implements the `greenroom unload` command.
package unloadcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/greenroom-sh/greenroom/cmd/greenroom/shared"
	"github.com/greenroom-sh/greenroom/internal/service"
)

// Command implements `greenroom unload`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	force bool
}

// New creates the unload command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "unload",
		Short: "Clear all variables from the active session",
		RunE:  c.run,
	}
	c.cmd.Flags().BoolVar(&c.force, "force", false, "Clear without confirmation")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	svc, err := service.New(c.ctx.Home)
	if err != nil {
		return err
	}
	defer svc.Close()

	if !c.force && !shared.Confirm(cmd, "Clear all session variables?") {
		fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
		return nil
	}

	if err := svc.UnloadContext(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Session cleared.")
	return nil
}
