package repository

import (
	"context"

	"github.com/mealscan/entitled/internal/model"
)

// GrantRepository provides access to manual-grant override documents.
type GrantRepository interface {
	// GetByUserID loads the manual grant for a user.
	GetByUserID(ctx context.Context, userID string) (*model.ManualGrant, error)
	// Upsert creates or replaces the grant for a user.
	Upsert(ctx context.Context, g *model.ManualGrant) error
	// Delete removes the grant for a user.
	Delete(ctx context.Context, userID string) error
}
