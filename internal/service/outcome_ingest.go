package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"aviatorpro/internal/messaging"
	"aviatorpro/internal/metrics"
	"aviatorpro/internal/models"
	"aviatorpro/internal/repository"
)

const MaxIngestBatch = 1000

var (
	ErrIngestDisabled = errors.New("outcome ingestion is disabled")
	ErrBatchTooLarge  = fmt.Errorf("batch exceeds %d records", MaxIngestBatch)
	ErrEmptyBatch     = errors.New("batch is empty")
)

// OutcomeRecord is one round as sent by a feed. Multiplier stays a
// json.Number so "2.10" and 2.1 are validated the same way.
type OutcomeRecord struct {
	Platform   string      `json:"platform"`
	Multiplier json.Number `json:"multiplier"`
	RoundTime  string      `json:"round_time"`
}

type RejectedRecord struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type IngestResult struct {
	Received int              `json:"received"`
	Accepted int              `json:"accepted"`
	Inserted int64            `json:"inserted"`
	Rejected []RejectedRecord `json:"rejected"`
}

type OutcomeIngestService struct {
	Repo     repository.OutcomeRepository
	Settings *SystemSettingsService
	// KnownPlatform rejects records for venues the service does not track.
	KnownPlatform func(string) bool
	Metrics       *metrics.Metrics
	Logger        *zap.Logger
}

// Ingest validates records and stores the valid ones. Duplicate
// (platform, round_time) pairs are skipped by the store, so Inserted can be
// lower than Accepted.
func (s *OutcomeIngestService) Ingest(ctx context.Context, source string, records []OutcomeRecord) (IngestResult, error) {
	res := IngestResult{Received: len(records), Rejected: []RejectedRecord{}}
	if s == nil || s.Repo == nil {
		return res, fmt.Errorf("outcome repository not configured")
	}
	if !s.Settings.IsEnabled(ctx, FeatureOutcomeIngest, true) {
		return res, ErrIngestDisabled
	}
	if len(records) == 0 {
		return res, ErrEmptyBatch
	}
	if len(records) > MaxIngestBatch {
		return res, ErrBatchTooLarge
	}

	rows := make([]models.OutcomeRow, 0, len(records))
	for i, rec := range records {
		row, err := s.Parse(rec)
		if err != nil {
			res.Rejected = append(res.Rejected, RejectedRecord{Index: i, Reason: err.Error()})
			s.Metrics.Quarantined(strings.TrimSpace(rec.Platform), "ingest")
			continue
		}
		rows = append(rows, row)
	}
	res.Accepted = len(rows)
	if len(rows) == 0 {
		return res, nil
	}

	inserted, err := s.Repo.InsertOutcomes(ctx, rows)
	if err != nil {
		return res, fmt.Errorf("insert outcomes: %w", err)
	}
	res.Inserted = inserted
	s.Metrics.Ingested(source, len(rows))
	if s.Logger != nil && len(res.Rejected) > 0 {
		s.Logger.Warn("outcome records rejected",
			zap.String("source", source),
			zap.Int("received", res.Received),
			zap.Int("rejected", len(res.Rejected)),
		)
	}
	return res, nil
}

// Parse validates one record and converts it to a storable row.
func (s *OutcomeIngestService) Parse(rec OutcomeRecord) (models.OutcomeRow, error) {
	platform := strings.TrimSpace(rec.Platform)
	if platform == "" {
		return models.OutcomeRow{}, models.ErrOutcomeMissingPlatform
	}
	if s.KnownPlatform != nil && !s.KnownPlatform(platform) {
		return models.OutcomeRow{}, fmt.Errorf("unknown platform %q", platform)
	}
	raw := strings.TrimSpace(rec.Multiplier.String())
	if raw == "" {
		return models.OutcomeRow{}, models.ErrOutcomeMissingMultiplier
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsPositive() {
		return models.OutcomeRow{}, models.ErrOutcomeInvalidMultiplier
	}
	mult := d.InexactFloat64()

	ts := strings.TrimSpace(rec.RoundTime)
	if ts == "" {
		return models.OutcomeRow{}, errors.New("round_time is required")
	}
	roundTime, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return models.OutcomeRow{}, fmt.Errorf("round_time must be RFC3339: %w", err)
	}
	roundTime = roundTime.UTC()

	row := models.OutcomeRow{Platform: platform, Multiplier: &mult, RoundTime: &roundTime}
	if _, err := row.Event(); err != nil {
		return models.OutcomeRow{}, err
	}
	return row, nil
}

// HandleMessage ingests a JetStream delivery. The payload is one record or
// an array of records; a record without a platform takes it from the
// subject's last token.
func (s *OutcomeIngestService) HandleMessage(ctx context.Context, subject string, data []byte) error {
	records, err := DecodeRecords(data)
	if err != nil {
		return fmt.Errorf("%w: %v", messaging.ErrMalformed, err)
	}
	fallback := messaging.PlatformFromSubject(subject)
	for i := range records {
		if strings.TrimSpace(records[i].Platform) == "" {
			records[i].Platform = fallback
		}
	}
	res, err := s.Ingest(ctx, "nats", records)
	switch {
	case errors.Is(err, ErrEmptyBatch), errors.Is(err, ErrBatchTooLarge):
		return fmt.Errorf("%w: %v", messaging.ErrMalformed, err)
	case err != nil:
		return err
	case res.Accepted == 0:
		return fmt.Errorf("%w: all %d records rejected", messaging.ErrMalformed, res.Received)
	}
	return nil
}

// DecodeRecords accepts a single JSON object or an array of them.
func DecodeRecords(data []byte) ([]OutcomeRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyBatch
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if data[0] == '[' {
		var out []OutcomeRecord
		if err := dec.Decode(&out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var one OutcomeRecord
	if err := dec.Decode(&one); err != nil {
		return nil, err
	}
	return []OutcomeRecord{one}, nil
}
