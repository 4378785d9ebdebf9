package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"adwatch/internal/core/domain"
)

// ReportRepository implements port.ReportSink: finalized check reports are
// written to an append-only audit table with per-ad results as JSONB.
type ReportRepository struct {
	pool *pgxpool.Pool
}

func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

func (r *ReportRepository) Save(ctx context.Context, report *domain.CheckReport) error {
	results, err := json.Marshal(report.Results)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO check_reports
    (owner_id, campaign_id, policy_id, period, date_from, date_to,
     started_at, finished_at, ads_checked, ads_paused, ads_skipped, ads_errored, results)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		report.OwnerID, report.CampaignID, report.PolicyID, string(report.Period),
		report.DateFrom, report.DateTo, report.StartedAt, report.FinishedAt,
		report.AdsChecked, report.AdsPaused, report.AdsSkipped, report.AdsErrored, results)
	return err
}

func (r *ReportRepository) ListRecent(ctx context.Context, ownerID int64, limit int) ([]domain.CheckReport, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `SELECT
    owner_id, campaign_id, policy_id, period, date_from, date_to,
    started_at, finished_at, ads_checked, ads_paused, ads_skipped, ads_errored, results
FROM check_reports WHERE owner_id = $1
ORDER BY created_at DESC LIMIT $2`, ownerID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CheckReport, error) {
		var (
			report  domain.CheckReport
			period  string
			results []byte
		)
		err := row.Scan(&report.OwnerID, &report.CampaignID, &report.PolicyID, &period,
			&report.DateFrom, &report.DateTo, &report.StartedAt, &report.FinishedAt,
			&report.AdsChecked, &report.AdsPaused, &report.AdsSkipped, &report.AdsErrored, &results)
		if err != nil {
			return report, err
		}
		report.Period = domain.CheckPeriod(period)
		if err := json.Unmarshal(results, &report.Results); err != nil {
			return report, err
		}
		return report, nil
	})
}
