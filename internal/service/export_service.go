package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/anomaly"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/domain"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/storage"
)

// ExportService writes scan and pass results as CSV reports to the
// S3-compatible report bucket for downstream consumers.
type ExportService struct {
	bucket storage.ObjectStorage
}

func NewExportService(bucket storage.ObjectStorage) *ExportService {
	return &ExportService{bucket: bucket}
}

// ExportTransferReport uploads one optimizer pass as CSV, keyed by date.
func (s *ExportService) ExportTransferReport(ctx context.Context, recs []domain.TransferRecommendation, asOf time.Time) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"from_store_id", "to_store_id", "sku_id", "qty", "urgency_score", "rationale"}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("export: write header: %w", err)
	}
	for _, rec := range recs {
		row := []string{
			strconv.FormatInt(rec.FromStoreID, 10),
			strconv.FormatInt(rec.ToStoreID, 10),
			strconv.FormatInt(rec.SKUID, 10),
			strconv.Itoa(rec.Qty),
			strconv.FormatFloat(rec.UrgencyScore, 'f', 2, 64),
			rec.Rationale,
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("export: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("export: flush: %w", err)
	}

	key := fmt.Sprintf("reports/transfers/%s.csv", asOf.Format("2006-01-02"))
	if err := s.bucket.UploadObject(ctx, key, buf.Bytes()); err != nil {
		return "", err
	}

	log.Info().Str("key", key).Int("rows", len(recs)).Msg("transfer report exported")
	return key, nil
}

// ExportAnomalyReport uploads one scan's findings as CSV, keyed by date.
func (s *ExportService) ExportAnomalyReport(ctx context.Context, findings []anomaly.Finding, asOf time.Time) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"store_id", "sku_id", "date", "residual", "severity", "explanation"}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("export: write header: %w", err)
	}
	for _, f := range findings {
		row := []string{
			strconv.FormatInt(f.StoreID, 10),
			strconv.FormatInt(f.SKUID, 10),
			f.Date,
			strconv.FormatFloat(f.Residual, 'f', 2, 64),
			f.Severity,
			f.Explanation,
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("export: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("export: flush: %w", err)
	}

	key := fmt.Sprintf("reports/anomalies/%s.csv", asOf.Format("2006-01-02"))
	if err := s.bucket.UploadObject(ctx, key, buf.Bytes()); err != nil {
		return "", err
	}

	log.Info().Str("key", key).Int("rows", len(findings)).Msg("anomaly report exported")
	return key, nil
}
