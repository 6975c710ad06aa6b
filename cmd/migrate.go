package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the schedule tables and exit",
	Run: func(cmd *cobra.Command, _ []string) {
		defer StopApp()
		if err := scheduleStore.Init(cmd.Context()); err != nil {
			logrus.Fatalf("[MIGRATION] %v", err)
		}
		logrus.Info("[MIGRATION] Schedule tables are up to date")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
