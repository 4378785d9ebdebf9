package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"adwatch/internal/core/domain"
	"adwatch/internal/core/port"
)

// AssignmentRepository implements port.AssignmentRepository. The schema's
// unique (owner_id, policy_id, campaign_id) index backs duplicate detection.
type AssignmentRepository struct {
	pool *pgxpool.Pool
}

func NewAssignmentRepository(pool *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

const assignmentColumns = `id, owner_id, policy_id, campaign_id, campaign_name,
       is_active, last_checked, created_at`

func (r *AssignmentRepository) Create(ctx context.Context, a *domain.CampaignAssignment) error {
	err := r.pool.QueryRow(ctx, `INSERT INTO campaign_assignments
    (owner_id, policy_id, campaign_id, campaign_name, is_active)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at`,
		a.OwnerID, a.PolicyID, a.CampaignID, a.CampaignName, a.Active,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return port.ErrDuplicateBinding
		}
		return err
	}
	return nil
}

func (r *AssignmentRepository) Get(ctx context.Context, ownerID, id int64) (*domain.CampaignAssignment, error) {
	a, err := scanAssignment(r.pool.QueryRow(ctx, `SELECT `+assignmentColumns+`
FROM campaign_assignments WHERE id = $1 AND owner_id = $2`, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, port.ErrAssignmentNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *AssignmentRepository) List(ctx context.Context, ownerID int64) ([]domain.CampaignAssignment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+assignmentColumns+`
FROM campaign_assignments WHERE owner_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CampaignAssignment, error) {
		a, err := scanAssignment(row)
		if err != nil {
			return domain.CampaignAssignment{}, err
		}
		return *a, nil
	})
}

func (r *AssignmentRepository) SetActive(ctx context.Context, ownerID, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE campaign_assignments SET is_active = $1
WHERE id = $2 AND owner_id = $3`, active, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return port.ErrAssignmentNotFound
	}
	return nil
}

func (r *AssignmentRepository) Delete(ctx context.Context, ownerID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM campaign_assignments
WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return port.ErrAssignmentNotFound
	}
	return nil
}

// ListActive returns active assignments of active policies, with the policy
// attached, for the scheduler sweep. Threshold entries are not loaded here;
// the check resolves the full policy itself.
func (r *AssignmentRepository) ListActive(ctx context.Context) ([]port.ScheduledAssignment, error) {
	rows, err := r.pool.Query(ctx, `SELECT
    a.id, a.owner_id, a.policy_id, a.campaign_id, a.campaign_name,
    a.is_active, a.last_checked, a.created_at,
    p.id, p.owner_id, p.name, p.check_interval_minutes, p.check_period,
    p.is_active, p.created_at, p.updated_at
FROM campaign_assignments a
JOIN policies p ON p.id = a.policy_id
WHERE a.is_active AND p.is_active
ORDER BY a.id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (port.ScheduledAssignment, error) {
		var (
			sa      port.ScheduledAssignment
			minutes int
			period  string
		)
		err := row.Scan(
			&sa.Assignment.ID, &sa.Assignment.OwnerID, &sa.Assignment.PolicyID,
			&sa.Assignment.CampaignID, &sa.Assignment.CampaignName,
			&sa.Assignment.Active, &sa.Assignment.LastChecked, &sa.Assignment.CreatedAt,
			&sa.Policy.ID, &sa.Policy.OwnerID, &sa.Policy.Name, &minutes, &period,
			&sa.Policy.Active, &sa.Policy.CreatedAt, &sa.Policy.UpdatedAt,
		)
		if err != nil {
			return sa, err
		}
		sa.Policy.CheckInterval = time.Duration(minutes) * time.Minute
		sa.Policy.CheckPeriod = domain.CheckPeriod(period)
		return sa, nil
	})
}

func (r *AssignmentRepository) TouchLastChecked(ctx context.Context, ownerID, policyID int64, campaignID string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE campaign_assignments SET last_checked = $1
WHERE owner_id = $2 AND policy_id = $3 AND campaign_id = $4`,
		at, ownerID, policyID, campaignID)
	return err
}

func scanAssignment(row pgx.Row) (*domain.CampaignAssignment, error) {
	var a domain.CampaignAssignment
	err := row.Scan(&a.ID, &a.OwnerID, &a.PolicyID, &a.CampaignID, &a.CampaignName,
		&a.Active, &a.LastChecked, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
