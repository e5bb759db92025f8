// Package varscmd implements the `greenroom vars` command.
package varscmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/greenroom-sh/greenroom/cmd/greenroom/shared"
	"github.com/greenroom-sh/greenroom/internal/service"
)

// Command implements `greenroom vars`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	all bool
}

// New creates the vars command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "vars",
		Short: "List variables in the active session",
		RunE:  c.run,
	}
	c.cmd.Flags().BoolVar(&c.all, "all", false, "Include vector-valued variables such as embeddings")
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

	vars, err := svc.Variables(c.all)
	if err != nil {
		return err
	}
	if len(vars) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No session variables. Load a context with `greenroom load <guest>`.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tKEY")
	for _, v := range vars {
		fmt.Fprintf(w, "%s\t%s\t%s\n", v.Name, v.Kind, v.Key)
	}
	return w.Flush()
}
