// Package initcmd implements the `greenroom init` command.
package initcmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/greenroom-sh/greenroom/cmd/greenroom/shared"
	"github.com/greenroom-sh/greenroom/internal/config"
	"github.com/greenroom-sh/greenroom/internal/repository"
)

const defaultConfigYAML = `# greenroom configuration
store:
  host: 127.0.0.1
  port: 6379
  # password: ""
  db: 0

namespace: default

research:
  base_url: https://api.qwello.com/v1
  # api_key comes from QWELLO_API_KEY

structurer:
  base_url: https://api.openai.com/v1
  # api_key comes from OPENAI_API_KEY
  model: gpt-4
`

// Command implements `greenroom init`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	persist bool
}

// New creates the init command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "init",
		Short: "Initialize the greenroom home directory",
		RunE:  c.run,
	}
	c.cmd.Flags().BoolVar(&c.persist, "persist", false,
		"Record this home directory in the global config for future runs")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	home := c.ctx.Home
	if home == "" {
		home = config.GetHome()
	}

	repo, err := repository.Open(home)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer repo.Close()

	cfgPath := filepath.Join(home, "config.yaml")
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := os.WriteFile(cfgPath, []byte(defaultConfigYAML), 0o644); err != nil {
			return fmt.Errorf("init: write config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote default config to %s\n", cfgPath)
	}

	if c.persist {
		path, err := config.SetPersistedHome(home)
		if err != nil {
			return fmt.Errorf("init: persist home: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recorded home in %s\n", path)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Greenroom initialized at %s\n", home)
	return nil
}
