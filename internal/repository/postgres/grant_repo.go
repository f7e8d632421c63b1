package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/mealscan/entitled/internal/errs"
	"github.com/mealscan/entitled/internal/model"
)

// GrantRepo implements GrantRepository using PostgreSQL.
type GrantRepo struct{ db *DB }

// NewGrantRepo constructs a manual-grant repository.
func NewGrantRepo(db *DB) *GrantRepo { return &GrantRepo{db: db} }

// GetByUserID selects the manual grant for a user.
func (r *GrantRepo) GetByUserID(ctx context.Context, userID string) (*model.ManualGrant, error) {
	const q = `
SELECT id, user_id, granted, expires_at, created_at
FROM manual_grants WHERE user_id=$1`
	row := r.db.Pool.QueryRow(ctx, q, userID)
	var g model.ManualGrant
	if err := row.Scan(&g.ID, &g.UserID, &g.Granted, &g.ExpiresAt, &g.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// Upsert creates or replaces the grant for a user.
func (r *GrantRepo) Upsert(ctx context.Context, g *model.ManualGrant) error {
	if g.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		g.ID = id
	}
	const q = `
INSERT INTO manual_grants (id, user_id, granted, expires_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id)
DO UPDATE SET granted=EXCLUDED.granted, expires_at=EXCLUDED.expires_at`
	_, err := r.db.Pool.Exec(ctx, q, g.ID, g.UserID, g.Granted, g.ExpiresAt)
	return err
}

// Delete removes the grant for a user.
func (r *GrantRepo) Delete(ctx context.Context, userID string) error {
	const q = `DELETE FROM manual_grants WHERE user_id=$1`
	_, err := r.db.Pool.Exec(ctx, q, userID)
	return err
}
