// Package discovercmd implements the `greenroom discover` command.
package discovercmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/greenroom-sh/greenroom/cmd/greenroom/shared"
	"github.com/greenroom-sh/greenroom/internal/discover"
)

// Command implements `greenroom discover`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	container string
	network   string
	updateEnv string
}

// New creates the discover command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "discover",
		Short: "Find the session store's address by inspecting its Docker container",
		RunE:  c.run,
	}
	f := c.cmd.Flags()
	f.StringVar(&c.container, "container", "redis", "Store container name")
	f.StringVar(&c.network, "network", "", "Docker network to read the address from (default: first with an address)")
	f.StringVar(&c.updateEnv, "update-env", "", "Write the discovered host into this dotenv file as REDIS_HOST")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	d, err := discover.New()
	if err != nil {
		return err
	}
	defer d.Close()

	result, err := d.Discover(cmd.Context(), c.container, c.network)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Container: %s\n", shortID(result.ContainerID))
	fmt.Fprintf(out, "Network: %s\n", result.Network)
	fmt.Fprintf(out, "Address: %s\n", result.Address)

	if c.updateEnv != "" {
		if err := discover.UpdateEnvFile(c.updateEnv, result.Address); err != nil {
			return err
		}
		fmt.Fprintf(out, "Updated %s\n", c.updateEnv)
	}
	return nil
}

// shortID abbreviates a container id the way the docker CLI does, tolerating
// ids shorter than the usual 64 hex chars.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
