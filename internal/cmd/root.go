// Package cmd provides the CLI commands for the kild tool.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kildtools/kild/internal/errs"
	"github.com/kildtools/kild/internal/ui"
)

// Version is the CLI version reported by --version.
var Version = "0.1.0"

var verbose bool

var rootCmd = &cobra.Command{
	Use:     "kild",
	Short:   "kild - ephemeral dev session manager",
	Version: Version,
	Long: `kild manages ephemeral development sessions: a git worktree paired
with one or more AI agent processes, identified by project and branch.

Sessions are created, reopened additively, stopped, and destroyed;
kild tracks each agent through a local PID, a terminal window, or a
session daemon and resolves live status across all three.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

// Execute runs the root command and returns an exit code. The caller
// (main) should call os.Exit with this code. User errors print a short
// message; system faults print the full diagnostic chain.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if errs.IsUser(err) {
			fmt.Fprintln(os.Stderr, ui.Error("%v", err))
		} else {
			fmt.Fprintln(os.Stderr, ui.Error("error: %v", err))
		}
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
