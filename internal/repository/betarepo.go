// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"time"

	"github.com/mealscan/entitled/internal/model"
)

// BetaRepository provides access to the beta-tester document collection.
// The resolver only reads; the admin surface writes.
type BetaRepository interface {
	// GetByUserID loads the beta record for a user.
	GetByUserID(ctx context.Context, userID string) (*model.BetaRecord, error)
	// Invite creates or reactivates a beta record for a user.
	Invite(ctx context.Context, rec *model.BetaRecord) error
	// Deactivate marks the record inactive and timestamps the revocation.
	Deactivate(ctx context.Context, userID string, at time.Time) error
}
