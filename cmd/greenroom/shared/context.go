// Package shared holds the context passed to all CLI commands.
package shared

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// Context carries global CLI state (flags set on the root command).
type Context struct {
	// Home overrides the greenroom home directory.
	// When empty, resolution falls through to GREENROOM_HOME env var →
	// persisted config → ~/.greenroom.
	Home string
}

// Confirm prompts on the command's output stream and reads a yes/no answer
// from its input stream. Anything other than "y"/"yes" counts as no.
func Confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
