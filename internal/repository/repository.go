package repository

import (
	"context"
	"errors"
	"time"

	"aviatorpro/internal/models"
)

// ErrSignalExists is returned by InsertSignal when the platform already has
// a signal for the same hour window.
var ErrSignalExists = errors.New("signal already exists for window")

// OutcomeRepository is the read side of the round feed plus the ingest path.
type OutcomeRepository interface {
	// ListRecentOutcomes returns up to limit rows, newest round first.
	ListRecentOutcomes(ctx context.Context, platform string, limit int) ([]models.OutcomeRow, error)
	// InsertOutcomes stores rows, skipping duplicates of (platform, round_time).
	InsertOutcomes(ctx context.Context, items []models.OutcomeRow) (int64, error)
}

type SignalRepository interface {
	ListSignalsInRange(ctx context.Context, platform string, from, to time.Time) ([]models.Signal, error)
	InsertSignal(ctx context.Context, item *models.Signal) error
	LatestActiveSignal(ctx context.Context, platform string, now time.Time) (*models.Signal, error)
	ListRecentSignals(ctx context.Context, platform string, limit int) ([]models.Signal, error)
	DeleteSignalsBefore(ctx context.Context, before time.Time) (int64, error)
}

type SettingsRepository interface {
	UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error
	GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error)
	ListSystemSettings(ctx context.Context, params ListSystemSettingsParams) ([]models.SystemSetting, error)
	CountSystemSettings(ctx context.Context, params ListSystemSettingsParams) (int64, error)
}

// Repository is everything the gorm store provides.
type Repository interface {
	OutcomeRepository
	SignalRepository
	SettingsRepository
}

type ListSystemSettingsParams struct {
	Limit   int
	Offset  int
	Prefix  *string
	OrderBy string
	Asc     *bool
}
