package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kildtools/kild/internal/session"
	"github.com/kildtools/kild/internal/ui"
)

var statusWait time.Duration

var statusCmd = &cobra.Command{
	Use:   "status <branch>",
	Short: "Show a session's resolved runtime status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		projectID, err := a.projectID()
		if err != nil {
			return err
		}

		if statusWait > 0 {
			res, err := a.mgr.WaitRunning(cmd.Context(), projectID, args[0], statusWait)
			if err != nil {
				return err
			}
			fmt.Println(ui.Success("session %s/%s is %s", projectID, args[0], res.Status))
			return nil
		}

		sess, res, err := a.mgr.Get(cmd.Context(), projectID, args[0])
		if err != nil {
			return err
		}
		printStatus(sess, res)

		if info, err := a.mgr.AgentStatus(sess.ID); err == nil && info != nil {
			fmt.Printf("  activity: %s (updated %s)\n", info.Activity, info.UpdatedAt.Format(time.RFC3339))
		}
		return nil
	},
}

func printStatus(sess *session.Session, res session.Resolution) {
	line := fmt.Sprintf("session %s/%s: %s", sess.ProjectID, sess.Branch, res.Status)
	switch res.Status {
	case session.LivenessRunning:
		fmt.Println(ui.Success("%s", line))
	default:
		fmt.Println(ui.Dim("%s", line))
	}
	if res.AnyUnknown {
		fmt.Println(ui.Warn("  some agent checks failed; status may be incomplete"))
	}
	for _, a := range sess.Agents {
		fmt.Printf("  agent %s", a.AgentKind)
		if a.PID > 0 {
			fmt.Printf(" pid=%d", a.PID)
		}
		if a.TerminalWindowID != "" {
			fmt.Printf(" window=%s/%s", a.TerminalKind, a.TerminalWindowID)
		}
		if a.DaemonSessionID != "" {
			fmt.Printf(" daemon=%s", a.DaemonSessionID)
		}
		fmt.Println()
	}
}

func init() {
	statusCmd.Flags().DurationVar(&statusWait, "wait", 0, "wait up to this long for the session to be running")
	rootCmd.AddCommand(statusCmd)
}
