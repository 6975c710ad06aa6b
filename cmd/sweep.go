package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one recurring sweep and exit",
	Long:  `Materializes every due recurrence rule once. Useful from an external cron when the background loop is disabled.`,
	Run:   sweepOnce,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func sweepOnce(cmd *cobra.Command, _ []string) {
	defer StopApp()

	res, err := sweepScheduler.RunOnce(cmd.Context())
	if err != nil {
		logrus.Errorf("[SWEEP] %v", err)
		return
	}

	fmt.Printf("processed %s rule(s): %s created, %s completed, %s failed, %s skipped\n",
		humanize.Comma(int64(res.Processed)),
		humanize.Comma(int64(res.Created)),
		humanize.Comma(int64(res.Completed)),
		humanize.Comma(int64(res.Failed)),
		humanize.Comma(int64(res.Skipped)),
	)
}
