package repository

import (
	"context"

	"github.com/mealscan/entitled/internal/model"
)

// ProfileRepository provides access to externally stored user-profile documents.
type ProfileRepository interface {
	// GetByUserID loads the profile for a user.
	GetByUserID(ctx context.Context, userID string) (*model.UserProfile, error)
	// Upsert creates or replaces the profile entitlement fields.
	Upsert(ctx context.Context, p *model.UserProfile) error
}
