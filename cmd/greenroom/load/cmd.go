// Package loadcmd implements the `greenroom load` command.
package loadcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/greenroom-sh/greenroom/cmd/greenroom/shared"
	"github.com/greenroom-sh/greenroom/internal/service"
)

// Command implements `greenroom load`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	force bool
}

// New creates the load command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "load <guest|index>",
		Short: "Load a context document into the active session",
		Long: `Load a context document into the active session, replacing whatever was
loaded before. The argument is a guest name or a 1-based index from
` + "`greenroom list`" + `.`,
		Args: cobra.ExactArgs(1),
		RunE: c.run,
	}
	c.cmd.Flags().BoolVar(&c.force, "force", false, "Replace a loaded context without confirmation")
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

	if !c.force {
		guest, loaded, err := svc.LoadedGuest()
		if err != nil {
			return err
		}
		if loaded && !shared.Confirm(cmd, fmt.Sprintf("Session already has %q loaded. Replace it?", guest)) {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	doc, err := svc.LoadContext(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %s (%s) into the session\n", doc.Key, doc.GuestName)
	return nil
}
