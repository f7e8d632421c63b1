package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mealscan/entitled/internal/errs"
	"github.com/mealscan/entitled/internal/model"
)

// ProfileRepo implements ProfileRepository using PostgreSQL.
// premium_features is stored as JSONB.
type ProfileRepo struct{ db *DB }

// NewProfileRepo constructs a user-profile repository.
func NewProfileRepo(db *DB) *ProfileRepo { return &ProfileRepo{db: db} }

// GetByUserID selects the profile entitlement fields for a user.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID string) (*model.UserProfile, error) {
	const q = `
SELECT user_id, is_beta_tester, premium_access, premium_features, subscription_status, beta_access_granted, updated_at
FROM user_profiles WHERE user_id=$1`
	row := r.db.Pool.QueryRow(ctx, q, userID)
	var p model.UserProfile
	var features []byte
	if err := row.Scan(&p.UserID, &p.BetaTester, &p.PremiumAccess, &features, &p.SubscriptionStatus, &p.BetaAccessGranted, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &p.PremiumFeatures); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

// Upsert creates or replaces the profile entitlement fields.
func (r *ProfileRepo) Upsert(ctx context.Context, p *model.UserProfile) error {
	features, err := json.Marshal(p.PremiumFeatures)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO user_profiles (user_id, is_beta_tester, premium_access, premium_features, subscription_status, beta_access_granted, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id)
DO UPDATE SET is_beta_tester=EXCLUDED.is_beta_tester, premium_access=EXCLUDED.premium_access,
  premium_features=EXCLUDED.premium_features, subscription_status=EXCLUDED.subscription_status,
  beta_access_granted=EXCLUDED.beta_access_granted, updated_at=EXCLUDED.updated_at`
	_, err = r.db.Pool.Exec(ctx, q, p.UserID, p.BetaTester, p.PremiumAccess, features, p.SubscriptionStatus, p.BetaAccessGranted, p.UpdatedAt)
	return err
}
