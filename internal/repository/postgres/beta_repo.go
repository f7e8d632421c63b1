package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/mealscan/entitled/internal/errs"
	"github.com/mealscan/entitled/internal/model"
)

// BetaRepo implements BetaRepository using PostgreSQL.
type BetaRepo struct{ db *DB }

// NewBetaRepo constructs a beta-tester repository.
func NewBetaRepo(db *DB) *BetaRepo { return &BetaRepo{db: db} }

// GetByUserID selects the beta record for a user.
func (r *BetaRepo) GetByUserID(ctx context.Context, userID string) (*model.BetaRecord, error) {
	const q = `
SELECT id, user_id, active, program, invited_at, revoked_at, feedback_count
FROM beta_testers WHERE user_id=$1`
	row := r.db.Pool.QueryRow(ctx, q, userID)
	var rec model.BetaRecord
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Active, &rec.Program, &rec.InvitedAt, &rec.RevokedAt, &rec.FeedbackCount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Invite inserts a new beta record or reactivates an existing one for the user.
func (r *BetaRepo) Invite(ctx context.Context, rec *model.BetaRecord) error {
	if rec.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		rec.ID = id
	}
	const q = `
INSERT INTO beta_testers (id, user_id, active, program, invited_at, feedback_count)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id)
DO UPDATE SET active=EXCLUDED.active, program=EXCLUDED.program, invited_at=EXCLUDED.invited_at, revoked_at=NULL`
	_, err := r.db.Pool.Exec(ctx, q, rec.ID, rec.UserID, rec.Active, rec.Program, rec.InvitedAt, rec.FeedbackCount)
	return err
}

// Deactivate marks the record inactive and timestamps the revocation.
func (r *BetaRepo) Deactivate(ctx context.Context, userID string, at time.Time) error {
	const q = `UPDATE beta_testers SET active=FALSE, revoked_at=$2 WHERE user_id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, userID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
