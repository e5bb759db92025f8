// Package sessioncmd implements the `greenroom session` command.
package sessioncmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/greenroom-sh/greenroom/cmd/greenroom/shared"
	"github.com/greenroom-sh/greenroom/internal/service"
)

// Command implements `greenroom session`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	reset bool
	reap  bool
}

// New creates the session command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "session",
		Short: "Show or manage the active session",
		RunE:  c.run,
	}
	f := c.cmd.Flags()
	f.BoolVar(&c.reset, "reset", false, "Abandon the current session id and start fresh")
	f.BoolVar(&c.reap, "reap", false, "Delete variables left behind by abandoned sessions")
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

	out := cmd.OutOrStdout()

	if c.reset {
		if _, err := svc.ResetSession(); err != nil {
			return err
		}
		fmt.Fprintln(out, "Session reset.")
	}

	if c.reap {
		n, err := svc.ReapStaleSessions()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Reaped %d stale key(s).\n", n)
	}

	if c.reset || c.reap {
		return nil
	}

	info, err := svc.EnsureSession()
	if err != nil {
		return err
	}
	if info.Created {
		fmt.Fprintln(out, "Started a new session.")
	}
	fmt.Fprintf(out, "Session: %s\n", info.ID)
	fmt.Fprintf(out, "Namespace: %s\n", info.Namespace)
	fmt.Fprintf(out, "Prefix: %s\n", info.Prefix)

	guest, loaded, err := svc.LoadedGuest()
	if err != nil {
		return err
	}
	if loaded {
		fmt.Fprintf(out, "Loaded guest: %s\n", guest)
	} else {
		fmt.Fprintln(out, "No context loaded.")
	}
	return nil
}
