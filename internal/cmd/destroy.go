package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kildtools/kild/internal/ui"
)

var (
	destroyForce bool
	destroyYes   bool
)

var destroyCmd = &cobra.Command{
	Use:   "destroy <branch>",
	Short: "Stop a session and remove its worktree and record",
	Long: `Destroy stops the session's agents, removes the git worktree, and
deletes the session record and sidecar files.

Without --force, a worktree holding uncommitted changes is refused and
the session is left intact. --force discards the changes.`,
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

		if !destroyYes && ui.IsTerminal() {
			fmt.Printf("destroy session %s/%s? [y/N] ", projectID, args[0])
			reader := bufio.NewReader(os.Stdin)
			answer, _ := reader.ReadString('\n')
			if s := strings.ToLower(strings.TrimSpace(answer)); s != "y" && s != "yes" {
				fmt.Println("aborted")
				return nil
			}
		}

		if err := a.mgr.Destroy(cmd.Context(), projectID, args[0], destroyForce); err != nil {
			return err
		}
		fmt.Println(ui.Success("destroyed session %s/%s", projectID, args[0]))
		return nil
	},
}

func init() {
	destroyCmd.Flags().BoolVarP(&destroyForce, "force", "f", false, "discard uncommitted worktree changes")
	destroyCmd.Flags().BoolVarP(&destroyYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(destroyCmd)
}
