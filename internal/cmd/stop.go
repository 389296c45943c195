package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kildtools/kild/internal/ui"
)

var stopAll bool

var stopCmd = &cobra.Command{
	Use:   "stop [branch]",
	Short: "Stop a session's agents and clear their handles",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		if stopAll {
			res, err := a.mgr.StopAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(ui.Info("stopped %d session(s), %d failed", res.Succeeded, res.Failed))
			for key, err := range res.Errors {
				fmt.Println(ui.Warn("  %s: %v", key, err))
			}
			if res.Failed > 0 {
				return fmt.Errorf("%d session(s) failed to stop", res.Failed)
			}
			return nil
		}

		if len(args) != 1 {
			return fmt.Errorf("branch required unless --all is given")
		}
		projectID, err := a.projectID()
		if err != nil {
			return err
		}
		if err := a.mgr.Stop(cmd.Context(), projectID, args[0]); err != nil {
			return err
		}
		fmt.Println(ui.Success("stopped session %s/%s", projectID, args[0]))
		return nil
	},
}

func init() {
	stopCmd.Flags().BoolVar(&stopAll, "all", false, "stop every active session")
	rootCmd.AddCommand(stopCmd)
}
