package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var configsyncCmd = &cobra.Command{
	Use:   "configsync",
	Short: "Refresh the local scoring config snapshot from the remote",
	Long: `Fetch the score tuning document from the configured remote endpoint,
validate it, and save it as a timestamped local snapshot. Superseded
snapshots move to the archive subdirectory.

A snapshot newer than the freshness window is kept as-is unless --force
is given.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Tuning.RemoteURL == "" {
			return eris.New("configsync: no remote URL configured (TURBINE_TUNING_REMOTE_URL)")
		}

		force, _ := cmd.Flags().GetBool("force")

		path, err := newSyncer().Update(ctx, force)
		if err != nil {
			return err
		}

		fmt.Printf("Scoring config: %s\n", path)
		return nil
	},
}

var configsyncShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the path of the newest local config snapshot",
	RunE: func(_ *cobra.Command, _ []string) error {
		path, ok := newSyncer().LatestPath()
		if !ok {
			return eris.Errorf("configsync: no snapshot in %s", cfg.Tuning.Dir)
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	configsyncCmd.Flags().Bool("force", false, "fetch even when a fresh snapshot exists")
	configsyncCmd.AddCommand(configsyncShowCmd)
	rootCmd.AddCommand(configsyncCmd)
}
