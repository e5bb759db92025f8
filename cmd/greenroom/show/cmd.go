// Package showcmd implements the `greenroom show` command.
package showcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/greenroom-sh/greenroom/cmd/greenroom/shared"
	"github.com/greenroom-sh/greenroom/internal/service"
)

// Command implements `greenroom show`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	metaOnly bool
}

// New creates the show command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "show <guest>",
		Short: "Print a context document",
		Args:  cobra.ExactArgs(1),
		RunE:  c.run,
	}
	c.cmd.Flags().BoolVar(&c.metaOnly, "meta", false, "Print metadata only, not the brief body")
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

	out := cmd.OutOrStdout()
	if c.metaOnly {
		fmt.Fprintf(out, "Key: %s\n", doc.Key)
		fmt.Fprintf(out, "Guest: %s\n", doc.GuestName)
		if doc.FocusAreas != "" {
			fmt.Fprintf(out, "Focus: %s\n", doc.FocusAreas)
		}
		if !doc.CreatedAt.IsZero() {
			fmt.Fprintf(out, "Created: %s\n", doc.CreatedAt.UTC().Format("2006-01-02"))
		}
		return nil
	}

	fmt.Fprint(out, doc.Body)
	return nil
}
