package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"aviatorpro/internal/config"
	"aviatorpro/internal/signal"
)

var windowAt string

var windowCmd = &cobra.Command{
	Use:   "window",
	Short: "Show which platform is live and when it switches",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		loc, err := config.LoadLocation(cfg.Signal.GateTimezone)
		if err != nil {
			return fmt.Errorf("gate timezone: %w", err)
		}
		at := time.Now()
		if windowAt != "" {
			at, err = time.Parse(time.RFC3339, windowAt)
			if err != nil {
				return fmt.Errorf("--at: %w", err)
			}
		}
		gate := signal.Gate{EvenHour: cfg.Platforms.EvenHour, OddHour: cfg.Platforms.OddHour, Loc: loc}
		return writeJSON(cmd.OutOrStdout(), map[string]any{
			"at":              at.In(loc).Format(time.RFC3339),
			"gate_timezone":   loc.String(),
			"active_platform": gate.ActivePlatform(at),
			"next_switch":     gate.NextSwitch(at).Format(time.RFC3339),
		})
	},
}

func init() {
	rootCmd.AddCommand(windowCmd)
	windowCmd.Flags().StringVar(&windowAt, "at", "", "instant to evaluate, RFC3339 (default: now)")
}
