package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kildtools/kild/internal/session"
	"github.com/kildtools/kild/internal/ui"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List sessions with their resolved status",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		sessions, err := a.mgr.List()
		if err != nil {
			return err
		}

		type row struct {
			Project  string `json:"project"`
			Branch   string `json:"branch"`
			Status   string `json:"status"`
			Unknown  bool   `json:"any_unknown,omitempty"`
			Agents   int    `json:"agents"`
			Worktree string `json:"worktree"`
		}
		rows := make([]row, 0, len(sessions))
		for _, s := range sessions {
			res := session.Resolution{Status: session.LivenessStopped}
			if s.Status == session.StatusActive {
				res = resolveFor(cmd, a, s)
			}
			rows = append(rows, row{
				Project:  s.ProjectID,
				Branch:   s.Branch,
				Status:   res.Status.String(),
				Unknown:  res.AnyUnknown,
				Agents:   len(s.Agents),
				Worktree: s.WorktreePath,
			})
		}

		if listJSON {
			return json.NewEncoder(os.Stdout).Encode(rows)
		}
		if len(rows) == 0 {
			fmt.Println(ui.Dim("no sessions"))
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PROJECT\tBRANCH\tSTATUS\tAGENTS\tWORKTREE")
		for _, r := range rows {
			status := r.Status
			if r.Unknown {
				status += " (check failed)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", r.Project, r.Branch, status, r.Agents, r.Worktree)
		}
		return w.Flush()
	},
}

func resolveFor(cmd *cobra.Command, a *app, s *session.Session) session.Resolution {
	_, res, err := a.mgr.Get(cmd.Context(), s.ProjectID, s.Branch)
	if err != nil {
		return session.Resolution{Status: session.LivenessUnknown, AnyUnknown: true}
	}
	return res
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(listCmd)
}
