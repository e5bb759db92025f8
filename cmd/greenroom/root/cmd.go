// Package rootcmd wires the root cobra.Command for the greenroom CLI binary.
package rootcmd

import (
	"github.com/spf13/cobra"

	deletecmd "github.com/greenroom-sh/greenroom/cmd/greenroom/delete"
	discovercmd "github.com/greenroom-sh/greenroom/cmd/greenroom/discover"
	getcmd "github.com/greenroom-sh/greenroom/cmd/greenroom/get"
	initcmd "github.com/greenroom-sh/greenroom/cmd/greenroom/init"
	listcmd "github.com/greenroom-sh/greenroom/cmd/greenroom/list"
	loadcmd "github.com/greenroom-sh/greenroom/cmd/greenroom/load"
	mcpcmd "github.com/greenroom-sh/greenroom/cmd/greenroom/mcp"
	menucmd "github.com/greenroom-sh/greenroom/cmd/greenroom/menu"
	newcmd "github.com/greenroom-sh/greenroom/cmd/greenroom/new"
	rmcmd "github.com/greenroom-sh/greenroom/cmd/greenroom/rm"
	sessioncmd "github.com/greenroom-sh/greenroom/cmd/greenroom/session"
	setcmd "github.com/greenroom-sh/greenroom/cmd/greenroom/set"
	"github.com/greenroom-sh/greenroom/cmd/greenroom/shared"
	showcmd "github.com/greenroom-sh/greenroom/cmd/greenroom/show"
	unloadcmd "github.com/greenroom-sh/greenroom/cmd/greenroom/unload"
	varscmd "github.com/greenroom-sh/greenroom/cmd/greenroom/vars"
)

// New creates and returns the root cobra.Command for the greenroom CLI.
func New() *cobra.Command {
	ctx := &shared.Context{}

	root := &cobra.Command{
		Use:           "greenroom",
		Short:         "Greenroom — interview context manager for podcast recording sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}

	root.PersistentFlags().StringVar(
		&ctx.Home, "home", "",
		"Override greenroom home directory (default: $GREENROOM_HOME env → persisted config → ~/.greenroom)",
	)

	root.AddCommand(
		initcmd.New(ctx).Cmd(),
		newcmd.New(ctx).Cmd(),
		listcmd.New(ctx).Cmd(),
		showcmd.New(ctx).Cmd(),
		rmcmd.New(ctx).Cmd(),
		loadcmd.New(ctx).Cmd(),
		unloadcmd.New(ctx).Cmd(),
		varscmd.New(ctx).Cmd(),
		getcmd.New(ctx).Cmd(),
		setcmd.New(ctx).Cmd(),
		deletecmd.New(ctx).Cmd(),
		sessioncmd.New(ctx).Cmd(),
		discovercmd.New(ctx).Cmd(),
		menucmd.New(ctx).Cmd(),
		mcpcmd.New(ctx).Cmd(),
	)

	return root
}
