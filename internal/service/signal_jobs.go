package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"aviatorpro/internal/metrics"
	"aviatorpro/internal/models"
	"aviatorpro/internal/repository"
	"aviatorpro/internal/signal"
)

// Generator is the part of signal.Manager the scheduler drives.
type Generator interface {
	Generate(ctx context.Context, platform string) *models.Signal
}

// SignalScheduler runs one generation pass for whichever platform is live.
type SignalScheduler struct {
	Generator Generator
	Gate      signal.Gate
	Settings  *SystemSettingsService
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Clock     func() time.Time
}

func (s *SignalScheduler) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// Run is safe to call every minute; the manager makes repeat calls in the
// same hour no-ops.
func (s *SignalScheduler) Run(ctx context.Context) *models.Signal {
	if s == nil || s.Generator == nil {
		return nil
	}
	platform := s.Gate.ActivePlatform(s.now())
	if platform == "" {
		return nil
	}
	if !s.Settings.IsEnabled(ctx, FeatureSignalGenerator, true) {
		s.Metrics.Skipped(platform, metrics.SkipDisabled)
		return nil
	}
	sig := s.Generator.Generate(ctx, platform)
	if sig != nil && s.Logger != nil {
		s.Logger.Debug("scheduled generation produced signal",
			zap.String("platform", platform),
			zap.Bool("persisted", sig.Persisted()),
		)
	}
	return sig
}

// RetentionService removes signals older than Retention. Expiry itself is
// evaluated at read time and never needs this job.
type RetentionService struct {
	Repo      repository.SignalRepository
	Retention time.Duration
	Settings  *SystemSettingsService
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Clock     func() time.Time
}

func (s *RetentionService) Run(ctx context.Context) (int64, error) {
	if s == nil || s.Repo == nil || s.Retention <= 0 {
		return 0, nil
	}
	if !s.Settings.IsEnabled(ctx, FeatureSignalRetention, true) {
		return 0, nil
	}
	now := time.Now()
	if s.Clock != nil {
		now = s.Clock()
	}
	cutoff := now.Add(-s.Retention)
	n, err := s.Repo.DeleteSignalsBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.Metrics.RetentionRemoved(n)
	if s.Logger != nil && n > 0 {
		s.Logger.Info("old signals removed", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}

// SwitchedNotifier forwards to Next only while Key is enabled.
type SwitchedNotifier struct {
	Next     signal.Notifier
	Settings *SystemSettingsService
	Key      string
}

func (n *SwitchedNotifier) Name() string {
	if n == nil || n.Next == nil {
		return "switched"
	}
	return n.Next.Name()
}

func (n *SwitchedNotifier) Notify(ctx context.Context, sig models.Signal) error {
	if n == nil || n.Next == nil {
		return nil
	}
	if !n.Settings.IsEnabled(ctx, n.Key, true) {
		return nil
	}
	return n.Next.Notify(ctx, sig)
}
