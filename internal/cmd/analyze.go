package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"aviatorpro/internal/classifier"
	"aviatorpro/internal/models"
	"aviatorpro/internal/pattern"
	"aviatorpro/internal/service"
	"aviatorpro/internal/signal"
)

var (
	analyzeFile       string
	analyzePlatform   string
	analyzeWindowSize int
	analyzeTTL        time.Duration
	analyzeNow        string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Classify a JSON file of rounds without touching the database",
	Long: `Read outcome records (the same shape POST /api/v1/outcomes accepts),
keep the newest window for one platform and print the signal the service
would generate from them.`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "JSON file of outcome records (- for stdin)")
	analyzeCmd.Flags().StringVarP(&analyzePlatform, "platform", "p", "", "platform to analyze (default: the only platform in the file)")
	analyzeCmd.Flags().IntVar(&analyzeWindowSize, "window-size", signal.DefaultWindowSize, "rounds per analysis window")
	analyzeCmd.Flags().DurationVar(&analyzeTTL, "ttl", classifier.DefaultTTL, "signal lifetime")
	analyzeCmd.Flags().StringVar(&analyzeNow, "now", "", "evaluation time, RFC3339 (default: current time)")
	_ = analyzeCmd.MarkFlagRequired("file")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, analyzeFile)
	if err != nil {
		return err
	}
	records, err := service.DecodeRecords(data)
	if err != nil {
		return fmt.Errorf("decode records: %w", err)
	}

	now := time.Now()
	if analyzeNow != "" {
		now, err = time.Parse(time.RFC3339, analyzeNow)
		if err != nil {
			return fmt.Errorf("--now: %w", err)
		}
	}

	events, platform, skipped, err := collectEvents(records, analyzePlatform)
	if err != nil {
		return err
	}
	if skipped > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %d invalid records\n", skipped)
	}
	if analyzeWindowSize > 0 && len(events) > analyzeWindowSize {
		events = events[:analyzeWindowSize]
	}

	sig := classifier.Classifier{TTL: analyzeTTL}.Classify(platform, pattern.Analyze(events, now), now)
	sig.WindowStart = signal.HourStart(now, now.Location())
	return writeJSON(cmd.OutOrStdout(), sig)
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// collectEvents validates records and returns the events for platform,
// newest first.
func collectEvents(records []service.OutcomeRecord, platform string) ([]models.OutcomeEvent, string, int, error) {
	parser := &service.OutcomeIngestService{}
	platform = strings.TrimSpace(platform)
	pinned := platform != ""
	skipped := 0
	var events []models.OutcomeEvent
	for _, rec := range records {
		row, err := parser.Parse(rec)
		if err != nil {
			skipped++
			continue
		}
		ev, err := row.Event()
		if err != nil {
			skipped++
			continue
		}
		if platform == "" {
			platform = ev.Platform
		}
		if ev.Platform != platform {
			if !pinned {
				return nil, "", 0, errors.New("records span several platforms, pass --platform")
			}
			continue
		}
		events = append(events, ev)
	}
	if len(events) == 0 {
		return nil, "", skipped, errors.New("no valid records for the platform")
	}
	slices.SortStableFunc(events, func(a, b models.OutcomeEvent) int {
		return b.RoundTime.Compare(a.RoundTime)
	})
	return events, platform, skipped, nil
}
