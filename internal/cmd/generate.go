package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"aviatorpro/internal/classifier"
	"aviatorpro/internal/config"
	"aviatorpro/internal/db"
	"aviatorpro/internal/guard"
	"aviatorpro/internal/logger"
	gormrepository "aviatorpro/internal/repository/gorm"
	"aviatorpro/internal/signal"
)

var generatePlatform string

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate this hour's signal for a platform against the database",
	Long: `Runs one generation pass exactly as the scheduler would, including the
hourly dedup. Prints the signal, or nothing when the hour already has one.`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&generatePlatform, "platform", "p", "", "platform (default: the one live now)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log, "signalctl")
	if err != nil {
		return err
	}
	defer log.Sync()

	windowLoc, err := config.LoadLocation(cfg.Signal.WindowTimezone)
	if err != nil {
		return fmt.Errorf("window timezone: %w", err)
	}
	platform := strings.TrimSpace(generatePlatform)
	if platform == "" {
		gateLoc, err := config.LoadLocation(cfg.Signal.GateTimezone)
		if err != nil {
			return fmt.Errorf("gate timezone: %w", err)
		}
		gate := signal.Gate{EvenHour: cfg.Platforms.EvenHour, OddHour: cfg.Platforms.OddHour, Loc: gateLoc}
		platform = gate.ActivePlatform(time.Now())
	}
	if !cfg.Platforms.Has(platform) {
		return fmt.Errorf("unknown platform %q (configured: %s)", platform, strings.Join(cfg.Platforms.Names(), ", "))
	}

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer db.Close(dbConn)
	if err := db.AutoMigrate(dbConn); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	opts := signal.Options{
		WindowSize: cfg.Signal.WindowSize,
		WindowLoc:  windowLoc,
		Classifier: classifier.Classifier{TTL: cfg.Signal.TTL},
	}
	if cfg.Redis.Enabled {
		client, err := guard.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, relying on the signals unique index", zap.Error(err))
		} else {
			defer client.Close()
			opts.Lock = guard.NewWindowLock(client, cfg.Redis.KeyPrefix, cfg.Redis.LockTTL)
		}
	}

	manager := signal.NewManager(gormrepository.New(dbConn.Gorm), log, opts)
	sig := manager.Generate(ctx, platform)
	if sig == nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "no signal generated for %s this hour\n", platform)
		return nil
	}
	return writeJSON(cmd.OutOrStdout(), sig)
}
