package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kildtools/kild/internal/ui"
)

var openAgent string

var openCmd = &cobra.Command{
	Use:   "open <branch>",
	Short: "Add another agent to an existing session",
	Long: `Open launches a new agent in an existing session's worktree.

Open is additive: agents already running in the session are left
untouched, so two consecutive opens leave two agents running.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		projectID, err := a.projectID()
		if err != nil {
			return err
		}
		sess, err := a.mgr.Open(cmd.Context(), projectID, args[0], openAgent)
		if err != nil {
			return err
		}
		fmt.Println(ui.Success("opened session %s/%s (%d agents)", sess.ProjectID, sess.Branch, len(sess.Agents)))
		return nil
	},
}

func init() {
	openCmd.Flags().StringVar(&openAgent, "agent", "", "agent backend override")
	rootCmd.AddCommand(openCmd)
}
