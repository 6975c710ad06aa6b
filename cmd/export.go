package cmd

import (
	"fmt"
	"os"
	"time"

	coreconfig "github.com/Droze-svj/click-platform-sub013/core/config"
	domainScheduling "github.com/Droze-svj/click-platform-sub013/domains/scheduling"
	"github.com/Droze-svj/click-platform-sub013/pkg/utils"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a user's scheduled posts as an iCalendar file",
	Run:   exportCalendar,
}

func init() {
	exportCmd.Flags().String("user", "", "user whose calendar is exported (required)")
	exportCmd.Flags().String("platform", "", "only export posts for this platform")
	exportCmd.Flags().Int("days", 30, "number of days ahead to export")
	exportCmd.Flags().String("out", "", "output file (default <base dir>/exports/<user>.ics)")
	_ = exportCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(exportCmd)
}

func exportCalendar(cmd *cobra.Command, _ []string) {
	defer StopApp()

	userID, _ := cmd.Flags().GetString("user")
	platform, _ := cmd.Flags().GetString("platform")
	days, _ := cmd.Flags().GetInt("days")
	out, _ := cmd.Flags().GetString("out")

	if out == "" {
		var err error
		out, err = utils.ExportPath(coreconfig.Global.App.BaseDir, userID)
		if err != nil {
			logrus.Errorf("[EXPORT] %v", err)
			return
		}
	}

	now := time.Now().UTC()
	data, err := scheduleUsecase.ExportCalendar(cmd.Context(), domainScheduling.ExportCalendarRequest{
		UserID:   userID,
		Platform: platform,
		From:     now,
		To:       now.AddDate(0, 0, days),
	})
	if err != nil {
		logrus.Errorf("[EXPORT] %v", err)
		return
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		logrus.Errorf("[EXPORT] failed to write %s: %v", out, err)
		return
	}
	fmt.Printf("wrote %s (%s)\n", out, humanize.Bytes(uint64(len(data))))
}
