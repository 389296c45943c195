package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kildtools/kild/internal/session"
	"github.com/kildtools/kild/internal/ui"
)

var (
	createAgent    string
	createTerminal string
	createNote     string
	createProject  string
	createWait     time.Duration
)

var createCmd = &cobra.Command{
	Use:   "create <branch>",
	Short: "Create a new session: worktree plus a running agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		projectPath := createProject
		if projectPath == "" {
			projectPath, err = os.Getwd()
			if err != nil {
				return err
			}
		}
		sess, err := a.mgr.Create(cmd.Context(), session.CreateOptions{
			ProjectPath:  projectPath,
			Branch:       args[0],
			AgentKind:    createAgent,
			TerminalKind: createTerminal,
			Note:         createNote,
		})
		if err != nil {
			return err
		}
		if createWait > 0 {
			if _, err := a.mgr.WaitRunning(cmd.Context(), sess.ProjectID, sess.Branch, createWait); err != nil {
				return err
			}
		}
		fmt.Println(ui.Success("created session %s/%s", sess.ProjectID, sess.Branch))
		fmt.Printf("  worktree: %s\n", sess.WorktreePath)
		fmt.Printf("  agent:    %s\n", sess.Agents[0].AgentKind)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createAgent, "agent", "", "agent backend (default from config)")
	createCmd.Flags().StringVar(&createTerminal, "terminal", "", "terminal backend, or 'none' for a bare process")
	createCmd.Flags().StringVar(&createNote, "note", "", "free-text note stored on the session")
	createCmd.Flags().StringVar(&createProject, "project", "", "repository path (default: current directory)")
	createCmd.Flags().DurationVar(&createWait, "wait", 0, "wait up to this long for the agent to come up")
	rootCmd.AddCommand(createCmd)
}
