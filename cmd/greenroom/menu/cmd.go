// Package menucmd implements the `greenroom menu` command, an interactive
// front-end over the same operations the flag-driven subcommands expose.
package menucmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/greenroom-sh/greenroom/cmd/greenroom/shared"
	"github.com/greenroom-sh/greenroom/internal/service"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	guestStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// Command implements `greenroom menu`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the menu command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "menu",
		Short: "Interactive menu for managing contexts and the session",
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

	out := cmd.OutOrStdout()
	in := bufio.NewScanner(cmd.InOrStdin())

	for {
		c.printStatus(cmd, svc)
		fmt.Fprintln(out, "  1) List contexts")
		fmt.Fprintln(out, "  2) Load a context")
		fmt.Fprintln(out, "  3) Show a context")
		fmt.Fprintln(out, "  4) New context")
		fmt.Fprintln(out, "  5) Unload session")
		fmt.Fprintln(out, "  6) Session variables")
		fmt.Fprintln(out, "  q) Quit")
		fmt.Fprint(out, "> ")

		if !in.Scan() {
			fmt.Fprintln(out)
			return in.Err()
		}
		choice := strings.TrimSpace(in.Text())

		var actionErr error
		switch choice {
		case "1":
			actionErr = c.list(cmd, svc)
		case "2":
			actionErr = c.load(cmd, svc, in)
		case "3":
			actionErr = c.show(cmd, svc, in)
		case "4":
			actionErr = c.create(cmd, svc, in)
		case "5":
			actionErr = c.unload(cmd, svc, in)
		case "6":
			actionErr = c.vars(cmd, svc)
		case "q", "quit", "exit":
			return nil
		case "":
			continue
		default:
			fmt.Fprintln(out, errStyle.Render("Unknown choice: "+choice))
			continue
		}
		if actionErr != nil {
			fmt.Fprintln(out, errStyle.Render(actionErr.Error()))
		}
		fmt.Fprintln(out)
	}
}

func (c *Command) printStatus(cmd *cobra.Command, svc *service.Service) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, headerStyle.Render("greenroom"))

	guest, loaded, err := svc.LoadedGuest()
	switch {
	case err != nil:
		fmt.Fprintln(out, dimStyle.Render("store unavailable: "+err.Error()))
	case loaded:
		fmt.Fprintln(out, "Loaded: "+guestStyle.Render(guest))
	default:
		fmt.Fprintln(out, dimStyle.Render("No context loaded."))
	}
}

func (c *Command) list(cmd *cobra.Command, svc *service.Service) error {
	summaries, err := svc.ListContexts()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(out, dimStyle.Render("No context documents yet."))
		return nil
	}
	for i, s := range summaries {
		line := fmt.Sprintf("  %d) %s", i+1, s.GuestName)
		if s.FocusAreas != "" {
			line += dimStyle.Render("  (" + s.FocusAreas + ")")
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func (c *Command) load(cmd *cobra.Command, svc *service.Service, in *bufio.Scanner) error {
	if err := c.list(cmd, svc); err != nil {
		return err
	}
	name, ok := ask(cmd, in, "Guest or number")
	if !ok || name == "" {
		return nil
	}
	doc, err := svc.LoadContext(name)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %s\n", guestStyle.Render(doc.GuestName))
	return nil
}

func (c *Command) show(cmd *cobra.Command, svc *service.Service, in *bufio.Scanner) error {
	name, ok := ask(cmd, in, "Guest or number")
	if !ok || name == "" {
		return nil
	}
	doc, err := svc.ResolveContext(name)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), doc.Body)
	return nil
}

func (c *Command) create(cmd *cobra.Command, svc *service.Service, in *bufio.Scanner) error {
	guest, ok := ask(cmd, in, "Guest name")
	if !ok || guest == "" {
		return nil
	}
	focus, ok := ask(cmd, in, "Focus areas (optional)")
	if !ok {
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("Researching..."))
	doc, err := svc.CreateContext(cmd.Context(), guest, focus, false)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", doc.Key)
	return nil
}

func (c *Command) unload(cmd *cobra.Command, svc *service.Service, in *bufio.Scanner) error {
	out := cmd.OutOrStdout()

	guest, loaded, err := svc.LoadedGuest()
	if err != nil {
		return err
	}
	if !loaded {
		fmt.Fprintln(out, dimStyle.Render("No context loaded."))
		return nil
	}

	answer, ok := ask(cmd, in, fmt.Sprintf("Clear all session variables for %s? [y/N]", guest))
	if !ok {
		return nil
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
	default:
		fmt.Fprintln(out, "Aborted.")
		return nil
	}

	if err := svc.UnloadContext(); err != nil {
		return err
	}
	fmt.Fprintln(out, "Session cleared.")
	return nil
}

func (c *Command) vars(cmd *cobra.Command, svc *service.Service) error {
	vars, err := svc.Variables(false)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(vars) == 0 {
		fmt.Fprintln(out, dimStyle.Render("No session variables."))
		return nil
	}
	for _, v := range vars {
		fmt.Fprintf(out, "  %s %s\n", v.Name, dimStyle.Render("["+v.Kind.String()+"]"))
	}
	return nil
}

// ask prompts and reads one line, reporting false on EOF.
func ask(cmd *cobra.Command, in *bufio.Scanner, prompt string) (string, bool) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ", prompt)
	if !in.Scan() {
		return "", false
	}
	return strings.TrimSpace(in.Text()), true
}
