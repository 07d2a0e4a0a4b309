package signal

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"aviatorpro/internal/models"
	"aviatorpro/internal/repository"
)

// memStore mimics the gorm store, including the (platform, window_start)
// unique index.
type memStore struct {
	mu       sync.Mutex
	outcomes map[string][]models.OutcomeRow
	signals  []models.Signal
	seq      int

	outcomeErr error
	rangeErr   error
	insertErr  error
	activeErr  error
	recentErr  error

	outcomeCalls int
	insertCalls  int
}

func newMemStore() *memStore {
	return &memStore{outcomes: map[string][]models.OutcomeRow{}}
}

func (s *memStore) ListRecentOutcomes(_ context.Context, platform string, limit int) ([]models.OutcomeRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomeCalls++
	if s.outcomeErr != nil {
		return nil, s.outcomeErr
	}
	rows := s.outcomes[platform]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return append([]models.OutcomeRow(nil), rows...), nil
}

func (s *memStore) InsertOutcomes(_ context.Context, items []models.OutcomeRow) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		s.outcomes[it.Platform] = append([]models.OutcomeRow{it}, s.outcomes[it.Platform]...)
	}
	return int64(len(items)), nil
}

func (s *memStore) ListSignalsInRange(_ context.Context, platform string, from, to time.Time) ([]models.Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rangeErr != nil {
		return nil, s.rangeErr
	}
	var out []models.Signal
	for _, sig := range s.signals {
		if sig.Platform == platform && !sig.CreatedAt.Before(from) && sig.CreatedAt.Before(to) {
			out = append(out, sig)
		}
	}
	return out, nil
}

func (s *memStore) InsertSignal(_ context.Context, item *models.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertCalls++
	if s.insertErr != nil {
		return s.insertErr
	}
	for _, sig := range s.signals {
		if sig.Platform == item.Platform && sig.WindowStart.Equal(item.WindowStart) {
			return repository.ErrSignalExists
		}
	}
	s.seq++
	item.ID = fmt.Sprintf("sig-%d", s.seq)
	s.signals = append(s.signals, *item)
	return nil
}

func (s *memStore) LatestActiveSignal(_ context.Context, platform string, now time.Time) (*models.Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeErr != nil {
		return nil, s.activeErr
	}
	var best *models.Signal
	for i := range s.signals {
		sig := s.signals[i]
		if sig.Platform != platform || !sig.IsActive || !sig.ExpiresAt.After(now) {
			continue
		}
		if best == nil || sig.CreatedAt.After(best.CreatedAt) {
			best = &sig
		}
	}
	return best, nil
}

func (s *memStore) ListRecentSignals(_ context.Context, platform string, limit int) ([]models.Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recentErr != nil {
		return nil, s.recentErr
	}
	var out []models.Signal
	for _, sig := range s.signals {
		if sig.Platform == platform {
			out = append(out, sig)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) DeleteSignalsBefore(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.signals[:0]
	var n int64
	for _, sig := range s.signals {
		if sig.CreatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, sig)
	}
	s.signals = kept
	return n, nil
}

func (s *memStore) stored() []models.Signal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Signal(nil), s.signals...)
}

// seedRounds stores mults for platform, newest first, one round every 20s
// before now.
func (s *memStore) seedRounds(platform string, now time.Time, mults ...float64) {
	rows := make([]models.OutcomeRow, 0, len(mults))
	for i, m := range mults {
		ts := now.Add(-time.Duration(i) * 20 * time.Second)
		rows = append(rows, models.OutcomeRow{ID: uint64(len(mults) - i), Platform: platform, Multiplier: &m, RoundTime: &ts})
	}
	s.mu.Lock()
	s.outcomes[platform] = rows
	s.mu.Unlock()
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeLock struct {
	mu       sync.Mutex
	held     bool
	err      error
	acquired int
	released int
}

func (l *fakeLock) Acquire(context.Context, string, time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	if l.held {
		return false, nil
	}
	l.acquired++
	return true, nil
}

func (l *fakeLock) Release(context.Context, string, time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released++
	return nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	got  []models.Signal
	fail error
}

func (n *recordingNotifier) Name() string { return "recorder" }

func (n *recordingNotifier) Notify(_ context.Context, sig models.Signal) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, sig)
	return n.fail
}
