package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kaching-analytics/internal/domain/metrics"
)

// MetricRepo 讀寫 daily_metrics，每個商家、指標、日期一筆。
type MetricRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewMetricRepo 建立 Postgres 指標儲存。
func NewMetricRepo(db *sql.DB) *MetricRepo {
	return &MetricRepo{db: db, now: time.Now}
}

// GetMetricHistory 取近 days 天（含今日）的樣本，依日期遞增，NULL 值由查詢過濾。
func (r *MetricRepo) GetMetricHistory(ctx context.Context, merchantID string, metric metrics.MetricType, days int) ([]metrics.MetricSample, error) {
	const q = `
SELECT metric_date, value
FROM daily_metrics
WHERE merchant_id = $1
  AND metric = $2
  AND metric_date > $3
  AND value IS NOT NULL
ORDER BY metric_date;
`
	since := metrics.DateOnly(r.now()).AddDate(0, 0, -days)
	rows, err := r.db.QueryContext(ctx, q, merchantID, string(metric), since)
	if err != nil {
		return nil, fmt.Errorf("query %s history: %w", metric, err)
	}
	defer rows.Close()

	var out []metrics.MetricSample
	for rows.Next() {
		var s metrics.MetricSample
		if err := rows.Scan(&s.Date, &s.Value); err != nil {
			return nil, fmt.Errorf("scan %s sample: %w", metric, err)
		}
		s.Date = metrics.DateOnly(s.Date)
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpsertSamples 以 (merchant_id, metric, metric_date) 為唯一鍵寫入或更新樣本，整批於同一交易內完成。
func (r *MetricRepo) UpsertSamples(ctx context.Context, merchantID string, metric metrics.MetricType, samples []metrics.MetricSample) error {
	const q = `
INSERT INTO daily_metrics (merchant_id, metric, metric_date, value)
VALUES ($1, $2, $3, $4)
ON CONFLICT (merchant_id, metric, metric_date)
DO UPDATE SET value = EXCLUDED.value, updated_at = NOW();
`
	if len(samples) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	for _, s := range samples {
		if _, err := tx.ExecContext(ctx, q, merchantID, string(metric), metrics.DateOnly(s.Date), s.Value); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert %s %s: %w", metric, s.Date.Format("2006-01-02"), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// ListMerchants 回傳有資料的商家 ID。
func (r *MetricRepo) ListMerchants(ctx context.Context) ([]string, error) {
	const q = `SELECT DISTINCT merchant_id FROM daily_metrics ORDER BY merchant_id;`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list merchants: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
