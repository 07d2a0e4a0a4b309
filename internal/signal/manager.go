// Package signal owns the signal lifecycle: hourly generation with
// deduplication, reads of the active and recent signals, the platform
// window gate and change fan-out.
package signal

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"aviatorpro/internal/classifier"
	"aviatorpro/internal/metrics"
	"aviatorpro/internal/models"
	"aviatorpro/internal/pattern"
	"aviatorpro/internal/repository"
)

const (
	DefaultWindowSize  = 200
	DefaultRecentLimit = 20
	MaxRecentLimit     = 500

	notifyTimeout = 5 * time.Second
)

// ErrNoOutcomes is returned by Preview when the platform has no usable rounds.
var ErrNoOutcomes = errors.New("no outcomes for platform")

// Store is the persistence the manager needs.
type Store interface {
	repository.OutcomeRepository
	repository.SignalRepository
}

// WindowLocker serializes generation of one platform hour across processes.
type WindowLocker interface {
	Acquire(ctx context.Context, platform string, windowStart time.Time) (bool, error)
	Release(ctx context.Context, platform string, windowStart time.Time) error
}

// Notifier receives every signal after it is stored.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, sig models.Signal) error
}

type Options struct {
	WindowSize int
	// WindowLoc is the timezone of the dedup hour. Nil means time.Local.
	WindowLoc  *time.Location
	Classifier classifier.Classifier
	Lock       WindowLocker
	Notifiers  []Notifier
	Metrics    *metrics.Metrics
	Clock      func() time.Time
}

type Manager struct {
	store      Store
	lock       WindowLocker
	notifiers  []Notifier
	classifier classifier.Classifier
	windowSize int
	loc        *time.Location
	clock      func() time.Time
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewManager(store Store, logger *zap.Logger, opts Options) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.WindowSize <= 0 {
		opts.WindowSize = DefaultWindowSize
	}
	if opts.WindowLoc == nil {
		opts.WindowLoc = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Manager{
		store:      store,
		lock:       opts.Lock,
		notifiers:  opts.Notifiers,
		classifier: opts.Classifier,
		windowSize: opts.WindowSize,
		loc:        opts.WindowLoc,
		clock:      opts.Clock,
		metrics:    opts.Metrics,
		logger:     logger,
	}
}

// AddNotifier appends n to the fan-out list. Not safe once Generate runs.
func (m *Manager) AddNotifier(n Notifier) {
	if m == nil || n == nil {
		return
	}
	m.notifiers = append(m.notifiers, n)
}

// Window returns the dedup hour containing now.
func (m *Manager) Window(now time.Time) (time.Time, time.Time) {
	start := HourStart(now, m.loc)
	return start, start.Add(time.Hour)
}

// Generate produces the platform's signal for the current hour. It returns
// nil when the hour already has one, when another process is generating it,
// or when there is nothing to analyze. A signal that could not be stored is
// still returned, with an empty ID.
func (m *Manager) Generate(ctx context.Context, platform string) *models.Signal {
	if m == nil || m.store == nil {
		return nil
	}
	now := m.clock()
	start, end := m.Window(now)
	log := m.logger.With(zap.String("platform", platform), zap.Time("window_start", start))

	existing, err := m.store.ListSignalsInRange(ctx, platform, start, end)
	if err != nil {
		log.Warn("signal dedup check failed", zap.Error(err))
		m.metrics.Skipped(platform, metrics.SkipCheckError)
		return nil
	}
	if len(existing) > 0 {
		m.metrics.Skipped(platform, metrics.SkipExisting)
		return nil
	}

	if m.lock != nil {
		ok, err := m.lock.Acquire(ctx, platform, start)
		switch {
		case err != nil:
			log.Warn("window lock unavailable, continuing", zap.Error(err))
		case !ok:
			m.metrics.Skipped(platform, metrics.SkipLocked)
			return nil
		default:
			defer m.release(platform, start, log)
		}
	}

	events, err := m.events(ctx, platform)
	if err != nil {
		log.Warn("fetch outcomes failed", zap.Error(err))
		m.metrics.Skipped(platform, metrics.SkipFetchError)
		return nil
	}
	if len(events) == 0 {
		m.metrics.Skipped(platform, metrics.SkipNoOutcomes)
		return nil
	}

	sig := m.classifier.Classify(platform, pattern.Analyze(events, now), now)
	sig.WindowStart = start

	if err := m.store.InsertSignal(ctx, &sig); err != nil {
		if errors.Is(err, repository.ErrSignalExists) {
			m.metrics.Skipped(platform, metrics.SkipConflict)
			return nil
		}
		log.Error("persist signal failed, returning unsaved", zap.Error(err))
		m.metrics.PersistFailed(platform)
		sig.ID = ""
		return &sig
	}

	m.metrics.Generated(platform, string(sig.PredictionType))
	log.Info("signal generated",
		zap.String("id", sig.ID),
		zap.String("type", string(sig.PredictionType)),
		zap.Float64("confidence", sig.Confidence),
	)
	m.notify(ctx, sig)
	return &sig
}

// Preview runs analysis and classification without storing anything.
func (m *Manager) Preview(ctx context.Context, platform string) (*models.Signal, error) {
	if m == nil || m.store == nil {
		return nil, ErrNoOutcomes
	}
	events, err := m.events(ctx, platform)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrNoOutcomes
	}
	now := m.clock()
	sig := m.classifier.Classify(platform, pattern.Analyze(events, now), now)
	sig.WindowStart, _ = m.Window(now)
	return &sig, nil
}

// Active returns the newest unexpired active signal, or nil.
func (m *Manager) Active(ctx context.Context, platform string) *models.Signal {
	if m == nil || m.store == nil {
		return nil
	}
	sig, err := m.store.LatestActiveSignal(ctx, platform, m.clock())
	if err != nil {
		m.logger.Warn("load active signal failed", zap.String("platform", platform), zap.Error(err))
		return nil
	}
	return sig
}

// Recent returns up to limit signals newest first, expired ones included.
func (m *Manager) Recent(ctx context.Context, platform string, limit int) []models.Signal {
	if m == nil || m.store == nil {
		return []models.Signal{}
	}
	items, err := m.store.ListRecentSignals(ctx, platform, NormalizeRecentLimit(limit))
	if err != nil {
		m.logger.Warn("load recent signals failed", zap.String("platform", platform), zap.Error(err))
		return []models.Signal{}
	}
	if items == nil {
		return []models.Signal{}
	}
	return items
}

func NormalizeRecentLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}
	return limit
}

// events loads the window and drops rows that fail validation.
func (m *Manager) events(ctx context.Context, platform string) ([]models.OutcomeEvent, error) {
	rows, err := m.store.ListRecentOutcomes(ctx, platform, m.windowSize)
	if err != nil {
		return nil, err
	}
	out := make([]models.OutcomeEvent, 0, len(rows))
	for _, row := range rows {
		ev, err := row.Event()
		if err != nil {
			m.logger.Debug("outcome row quarantined",
				zap.String("platform", platform),
				zap.Uint64("row_id", row.ID),
				zap.Error(err),
			)
			m.metrics.Quarantined(platform, "read")
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (m *Manager) release(platform string, start time.Time, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := m.lock.Release(ctx, platform, start); err != nil {
		log.Warn("window lock release failed", zap.Error(err))
	}
}

func (m *Manager) notify(ctx context.Context, sig models.Signal) {
	if len(m.notifiers) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, sig); err != nil {
			m.logger.Warn("signal notify failed",
				zap.String("notifier", n.Name()),
				zap.String("platform", sig.Platform),
				zap.Error(err),
			)
			m.metrics.NotifyFailed(n.Name())
		}
	}
}
