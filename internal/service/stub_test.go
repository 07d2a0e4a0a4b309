package service

import (
	"context"
	"sync"
	"time"

	"aviatorpro/internal/models"
	"aviatorpro/internal/repository"
)

type stubSettings struct {
	mu    sync.Mutex
	items map[string]models.SystemSetting
	err   error
}

func newStubSettings() *stubSettings {
	return &stubSettings{items: map[string]models.SystemSetting{}}
}

func (s *stubSettings) UpsertSystemSetting(_ context.Context, item *models.SystemSetting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.items[item.Key] = *item
	return nil
}

func (s *stubSettings) GetSystemSettingByKey(_ context.Context, key string) (*models.SystemSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	item, ok := s.items[key]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *stubSettings) ListSystemSettings(context.Context, repository.ListSystemSettingsParams) ([]models.SystemSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SystemSetting, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	return out, nil
}

func (s *stubSettings) CountSystemSettings(context.Context, repository.ListSystemSettingsParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.items)), nil
}

type stubOutcomes struct {
	rows []models.OutcomeRow
	err  error
}

func (s *stubOutcomes) ListRecentOutcomes(context.Context, string, int) ([]models.OutcomeRow, error) {
	return s.rows, s.err
}

func (s *stubOutcomes) InsertOutcomes(_ context.Context, items []models.OutcomeRow) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	seen := map[string]bool{}
	for _, r := range s.rows {
		seen[r.Platform+r.RoundTime.String()] = true
	}
	var n int64
	for _, it := range items {
		k := it.Platform + it.RoundTime.String()
		if seen[k] {
			continue
		}
		seen[k] = true
		s.rows = append(s.rows, it)
		n++
	}
	return n, nil
}

type stubSignals struct {
	deletedBefore time.Time
	deleted       int64
	err           error
}

func (s *stubSignals) ListSignalsInRange(context.Context, string, time.Time, time.Time) ([]models.Signal, error) {
	return nil, nil
}

func (s *stubSignals) InsertSignal(context.Context, *models.Signal) error { return nil }

func (s *stubSignals) LatestActiveSignal(context.Context, string, time.Time) (*models.Signal, error) {
	return nil, nil
}

func (s *stubSignals) ListRecentSignals(context.Context, string, int) ([]models.Signal, error) {
	return nil, nil
}

func (s *stubSignals) DeleteSignalsBefore(_ context.Context, before time.Time) (int64, error) {
	s.deletedBefore = before
	return s.deleted, s.err
}

type stubGenerator struct {
	platforms []string
}

func (g *stubGenerator) Generate(_ context.Context, platform string) *models.Signal {
	g.platforms = append(g.platforms, platform)
	return &models.Signal{ID: "x", Platform: platform}
}
