package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"adwatch/internal/core/domain"
	"adwatch/internal/core/port"
)

// PolicyRepository implements port.PolicyRepository using pgxpool. A policy
// and its threshold entries are written atomically; deletion cascades to
// thresholds and campaign assignments via the schema.
type PolicyRepository struct {
	pool *pgxpool.Pool
}

func NewPolicyRepository(pool *pgxpool.Pool) *PolicyRepository {
	return &PolicyRepository{pool: pool}
}

func (r *PolicyRepository) Create(ctx context.Context, p *domain.Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `INSERT INTO policies
    (owner_id, name, check_interval_minutes, check_period, is_active)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at, updated_at`,
		p.OwnerID, p.Name, int(p.CheckInterval.Minutes()), string(p.CheckPeriod), p.Active,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return err
	}
	if err = insertThresholds(ctx, tx, p.ID, p.Thresholds); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PolicyRepository) Get(ctx context.Context, ownerID, id int64) (*domain.Policy, error) {
	p, err := scanPolicy(r.pool.QueryRow(ctx, `SELECT id, owner_id, name, check_interval_minutes,
       check_period, is_active, created_at, updated_at
FROM policies WHERE id = $1 AND owner_id = $2`, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, port.ErrPolicyNotFound
		}
		return nil, err
	}
	p.Thresholds, err = r.loadThresholds(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PolicyRepository) List(ctx context.Context, ownerID int64) ([]domain.Policy, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, owner_id, name, check_interval_minutes,
       check_period, is_active, created_at, updated_at
FROM policies WHERE owner_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, err
	}
	policies, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Policy, error) {
		p, err := scanPolicy(row)
		if err != nil {
			return domain.Policy{}, err
		}
		return *p, nil
	})
	if err != nil {
		return nil, err
	}
	for i := range policies {
		policies[i].Thresholds, err = r.loadThresholds(ctx, policies[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return policies, nil
}

func (r *PolicyRepository) Update(ctx context.Context, p *domain.Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE policies SET
    name = $1, check_interval_minutes = $2, check_period = $3, is_active = $4, updated_at = now()
WHERE id = $5 AND owner_id = $6`,
		p.Name, int(p.CheckInterval.Minutes()), string(p.CheckPeriod), p.Active, p.ID, p.OwnerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return port.ErrPolicyNotFound
	}
	// The threshold table is replaced wholesale; it is small by design.
	if _, err = tx.Exec(ctx, `DELETE FROM threshold_entries WHERE policy_id = $1`, p.ID); err != nil {
		return err
	}
	if err = insertThresholds(ctx, tx, p.ID, p.Thresholds); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PolicyRepository) Delete(ctx context.Context, ownerID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM policies WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return port.ErrPolicyNotFound
	}
	return nil
}

func (r *PolicyRepository) loadThresholds(ctx context.Context, policyID int64) ([]domain.ThresholdEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, policy_id, spend::text, min_conversions
FROM threshold_entries WHERE policy_id = $1 ORDER BY spend`, policyID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ThresholdEntry, error) {
		var (
			t        domain.ThresholdEntry
			spendStr string
		)
		if err := row.Scan(&t.ID, &t.PolicyID, &spendStr, &t.MinConversions); err != nil {
			return t, err
		}
		spend, err := decimal.NewFromString(spendStr)
		if err != nil {
			return t, fmt.Errorf("parse threshold spend %q: %w", spendStr, err)
		}
		t.Spend = spend
		return t, nil
	})
}

func insertThresholds(ctx context.Context, tx pgx.Tx, policyID int64, thresholds []domain.ThresholdEntry) error {
	for i := range thresholds {
		err := tx.QueryRow(ctx, `INSERT INTO threshold_entries (policy_id, spend, min_conversions)
VALUES ($1, $2::numeric, $3) RETURNING id`,
			policyID, thresholds[i].Spend.String(), thresholds[i].MinConversions,
		).Scan(&thresholds[i].ID)
		if err != nil {
			return err
		}
		thresholds[i].PolicyID = policyID
	}
	return nil
}

func scanPolicy(row pgx.Row) (*domain.Policy, error) {
	var (
		p       domain.Policy
		minutes int
		period  string
	)
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &minutes, &period, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.CheckInterval = time.Duration(minutes) * time.Minute
	p.CheckPeriod = domain.CheckPeriod(period)
	return &p, nil
}
