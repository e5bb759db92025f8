// Package newcmd implements the `greenroom new` command.
package newcmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/greenroom-sh/greenroom/cmd/greenroom/shared"
	"github.com/greenroom-sh/greenroom/internal/models"
	"github.com/greenroom-sh/greenroom/internal/service"
)

// Command implements `greenroom new`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	guest     string
	focus     string
	fromFile  string
	overwrite bool
	load      bool
}

// New creates the new command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "new",
		Short: "Research a guest and create a context document",
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.guest, "guest", "", "Guest name (required)")
	f.StringVar(&c.focus, "focus", "", "Comma-separated focus areas to steer the research")
	f.StringVar(&c.fromFile, "from-file", "", "Import a pre-written brief from a file instead of researching")
	f.BoolVar(&c.overwrite, "overwrite", false, "Replace an existing document for this guest")
	f.BoolVar(&c.load, "load", false, "Load the new document into the session after creating it")

	_ = c.cmd.MarkFlagRequired("guest")

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

	var doc *models.ContextDocument
	if c.fromFile != "" {
		data, err := os.ReadFile(c.fromFile)
		if err != nil {
			return fmt.Errorf("new: read %q: %w", c.fromFile, err)
		}
		doc, err = svc.ImportContext(c.guest, c.focus, string(data), c.overwrite)
		if err != nil {
			return err
		}
	} else {
		doc, err = svc.CreateContext(cmd.Context(), c.guest, c.focus, c.overwrite)
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created context: %s\n", doc.Key)

	if c.load {
		if _, err := svc.LoadContext(doc.Key); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Loaded %s into the session\n", doc.Key)
	}
	return nil
}
