// Package listcmd implements the `greenroom list` command.
package listcmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/greenroom-sh/greenroom/cmd/greenroom/shared"
	"github.com/greenroom-sh/greenroom/internal/service"
)

// Command implements `greenroom list`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the list command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "list",
		Short: "List prepared context documents",
		RunE:  c.run,
	}
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

	summaries, err := svc.ListContexts()
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No context documents. Create one with `greenroom new --guest <name>`.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tGUEST\tFOCUS\tCREATED")
	for i, s := range summaries {
		created := ""
		if !s.CreatedAt.IsZero() {
			created = s.CreatedAt.UTC().Format("2006-01-02")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, s.Key, s.FocusAreas, created)
	}
	return w.Flush()
}
