package cmd

import (
	"fmt"
	"time"

	"github.com/Digital-Shane/vod2strm/internal/log"
	"github.com/Digital-Shane/vod2strm/internal/report"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent export runs from the operation journal",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sessions, err := log.ReadSessions(cfg.JournalDir(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), report.History(report.NewTheme(), sessions, time.Now()))
	return nil
}
