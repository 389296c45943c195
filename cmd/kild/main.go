// kild is a CLI for managing ephemeral development sessions: one git
// worktree plus one or more AI coding agents.
package main

import (
	"os"

	"github.com/kildtools/kild/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
