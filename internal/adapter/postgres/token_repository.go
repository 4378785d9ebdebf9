package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"adwatch/internal/core/domain"
	"adwatch/internal/core/port"
)

// TokenRepository implements port.TokenRepository. Token status transitions
// are written by an external validation process; the engine mostly reads.
type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

const tokenColumns = `id, owner_id, name, access_token, proxy_url, status,
       last_checked, error_message, created_at, updated_at`

func (r *TokenRepository) Create(ctx context.Context, t *domain.AccessToken) error {
	if t.Status == "" {
		t.Status = domain.TokenPending
	}
	return r.pool.QueryRow(ctx, `INSERT INTO access_tokens
    (owner_id, name, access_token, proxy_url, status)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at, updated_at`,
		t.OwnerID, t.Name, t.AccessToken, t.ProxyURL, string(t.Status),
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *TokenRepository) List(ctx context.Context, ownerID int64) ([]domain.AccessToken, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+tokenColumns+`
FROM access_tokens WHERE owner_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.AccessToken, error) {
		t, err := scanToken(row)
		if err != nil {
			return domain.AccessToken{}, err
		}
		return *t, nil
	})
}

func (r *TokenRepository) Delete(ctx context.Context, ownerID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM access_tokens
WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return port.ErrTokenNotFound
	}
	return nil
}

// FindValid returns the oldest valid token for the owner, mirroring the
// "first usable credential" selection the scheduler relies on.
func (r *TokenRepository) FindValid(ctx context.Context, ownerID int64) (*domain.AccessToken, error) {
	t, err := scanToken(r.pool.QueryRow(ctx, `SELECT `+tokenColumns+`
FROM access_tokens WHERE owner_id = $1 AND status = $2
ORDER BY id LIMIT 1`, ownerID, string(domain.TokenValid)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, port.ErrTokenNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *TokenRepository) UpdateStatus(ctx context.Context, id int64, status domain.TokenStatus, errMsg string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE access_tokens SET
    status = $1, error_message = $2, last_checked = now(), updated_at = now()
WHERE id = $3`, string(status), errMsg, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return port.ErrTokenNotFound
	}
	return nil
}

func scanToken(row pgx.Row) (*domain.AccessToken, error) {
	var (
		t      domain.AccessToken
		status string
	)
	err := row.Scan(&t.ID, &t.OwnerID, &t.Name, &t.AccessToken, &t.ProxyURL, &status,
		&t.LastChecked, &t.ErrorMessage, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = domain.TokenStatus(status)
	return &t, nil
}
