package gormrepository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"

	"aviatorpro/internal/db"
	"aviatorpro/internal/models"
	"aviatorpro/internal/repository"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	wrapped, err := db.Wrap(conn)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	return New(wrapped.Gorm), mock
}

var signalColumns = []string{
	"id", "created_at", "platform", "prediction_type", "confidence", "suggested_range",
	"reason", "analysis_data", "expires_at", "is_active", "window_start",
}

func TestListRecentOutcomes_NewestFirstWithNulls(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "outcome_events" WHERE platform = \$1 ORDER BY round_time desc nulls last`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "platform", "multiplier", "round_time", "ingested_at"}).
			AddRow(3, "aviator_a", 1.42, now, now).
			AddRow(2, "aviator_a", nil, now.Add(-time.Minute), now).
			AddRow(1, "aviator_a", 7.5, nil, now))

	rows, err := store.ListRecentOutcomes(context.Background(), "aviator_a", 0)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows=%d want=3", len(rows))
	}
	if rows[0].Multiplier == nil || *rows[0].Multiplier != 1.42 {
		t.Fatalf("row0 multiplier=%v", rows[0].Multiplier)
	}
	if rows[1].Multiplier != nil {
		t.Fatalf("row1 multiplier should be NULL")
	}
	if rows[2].RoundTime != nil {
		t.Fatalf("row2 round_time should be NULL")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertSignal_AssignsID(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO "signals"`).WillReturnResult(sqlmock.NewResult(0, 1))

	now := time.Now().UTC()
	sig := &models.Signal{
		CreatedAt:      now,
		Platform:       "aviator_a",
		PredictionType: models.PredictionNormal,
		Confidence:     0.25,
		SuggestedRange: "2x - 4x",
		Reason:         "normal game behavior.",
		AnalysisData:   datatypes.NewJSONType(models.PatternSummary{TotalRounds: 10}),
		ExpiresAt:      now.Add(time.Hour),
		IsActive:       true,
		WindowStart:    now.Truncate(time.Hour),
	}
	if err := store.InsertSignal(context.Background(), sig); err != nil {
		t.Fatalf("err=%v", err)
	}
	if sig.ID == "" {
		t.Fatalf("id not assigned")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertSignal_UniqueViolationMapsToExists(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO "signals"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := store.InsertSignal(context.Background(), &models.Signal{Platform: "aviator_a"})
	if !errors.Is(err, repository.ErrSignalExists) {
		t.Fatalf("err=%v want=%v", err, repository.ErrSignalExists)
	}
}

func TestInsertSignal_OtherErrorPassesThrough(t *testing.T) {
	store, mock := newMockStore(t)
	boom := errors.New("connection reset")
	mock.ExpectExec(`INSERT INTO "signals"`).WillReturnError(boom)

	err := store.InsertSignal(context.Background(), &models.Signal{Platform: "aviator_a"})
	if err == nil || errors.Is(err, repository.ErrSignalExists) {
		t.Fatalf("err=%v want passthrough", err)
	}
}

func TestLatestActiveSignal_NoneIsNil(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT \* FROM "signals" WHERE platform = \$1 AND is_active = \$2 AND expires_at > \$3`).
		WillReturnRows(sqlmock.NewRows(signalColumns))

	got, err := store.LatestActiveSignal(context.Background(), "aviator_a", time.Now())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if got != nil {
		t.Fatalf("got=%+v want nil", got)
	}
}

func TestLatestActiveSignal_DecodesAnalysis(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC)
	analysis := `{"low_streak":12,"minutes_since_high":50,"avg_multiplier":1.8,"distribution":{"1-2x":150,"2-5x":40,"5-10x":8,"10x+":2},"total_rounds":200}`
	mock.ExpectQuery(`SELECT \* FROM "signals"`).
		WillReturnRows(sqlmock.NewRows(signalColumns).AddRow(
			"2f6c9b8e-3d8a-4b61-9b55-0d3f1c7a1e20", now, "aviator_a", "WAIT_HIGH", 0.55, "2.5x - 6x",
			"12 low candles in a row", []byte(analysis), now.Add(time.Hour), true, now.Truncate(time.Hour),
		))

	got, err := store.LatestActiveSignal(context.Background(), "aviator_a", now)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if got == nil {
		t.Fatalf("expected signal")
	}
	summary := got.Summary()
	if summary.LowStreak != 12 || summary.Distribution.Low != 150 || summary.Distribution.VeryHigh != 2 {
		t.Fatalf("summary=%+v", summary)
	}
	if got.PredictionType != models.PredictionWaitHigh {
		t.Fatalf("type=%s", got.PredictionType)
	}
}

func TestListSignalsInRange_BoundsOnCreatedAt(t *testing.T) {
	store, mock := newMockStore(t)
	from := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)
	mock.ExpectQuery(`SELECT \* FROM "signals" WHERE platform = \$1 AND created_at >= \$2 AND created_at < \$3`).
		WithArgs("aviator_b", from, to).
		WillReturnRows(sqlmock.NewRows(signalColumns))

	items, err := store.ListSignalsInRange(context.Background(), "aviator_b", from, to)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(items) != 0 {
		t.Fatalf("items=%d want=0", len(items))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteSignalsBefore(t *testing.T) {
	store, mock := newMockStore(t)
	cutoff := time.Date(2026, 2, 22, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`DELETE FROM "signals" WHERE created_at < \$1`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.DeleteSignalsBefore(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if n != 3 {
		t.Fatalf("n=%d want=3", n)
	}

	n, err = store.DeleteSignalsBefore(context.Background(), time.Time{})
	if err != nil || n != 0 {
		t.Fatalf("zero cutoff: n=%d err=%v", n, err)
	}
}

func TestGetSystemSettingByKey_Missing(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT \* FROM "system_settings" WHERE key = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "key", "value", "description", "created_at", "updated_at"}))

	item, err := store.GetSystemSettingByKey(context.Background(), "feature.signal_generator")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if item != nil {
		t.Fatalf("item=%+v want nil", item)
	}
}

func TestNilStoreIsSafe(t *testing.T) {
	var s *Store
	if rows, err := s.ListRecentOutcomes(context.Background(), "a", 10); rows != nil || err != nil {
		t.Fatalf("rows=%v err=%v", rows, err)
	}
	if err := s.InsertSignal(context.Background(), &models.Signal{}); err != nil {
		t.Fatalf("err=%v", err)
	}
}

func TestNormalizeLimit(t *testing.T) {
	if got := normalizeLimit(0, 20); got != 20 {
		t.Fatalf("got=%d want=20", got)
	}
	if got := normalizeLimit(9999, 20); got != 500 {
		t.Fatalf("got=%d want=500", got)
	}
	if got := normalizeLimit(7, 20); got != 7 {
		t.Fatalf("got=%d want=7", got)
	}
}
