package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mealscan/entitled/internal/kvstore"
)

// Reconciler replays external profile writes that failed at confirmation
// time, converging the profile documents with the authoritative local cache.
// Scheduled periodically by the composition root.
type Reconciler struct {
	resolver *Resolver
	store    kvstore.Store
	log      *zap.Logger
}

// NewReconciler constructs a reconciler over the resolver's retry markers.
func NewReconciler(resolver *Resolver, store kvstore.Store, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{resolver: resolver, store: store, log: log}
}

// Run replays every pending profile write once. Failures keep their retry
// marker and are picked up on the next run.
func (r *Reconciler) Run(ctx context.Context) {
	keys, err := r.store.Keys(ctx, kvstore.ProfileRetryKey(""))
	if err != nil {
		r.log.Warn("retry marker scan failed", zap.Error(err))
		return
	}
	for _, key := range keys {
		userID := strings.TrimPrefix(key, kvstore.ProfileRetryKey(""))
		if userID == "" {
			continue
		}
		if err := r.resolver.ReplayProfile(ctx, userID); err != nil {
			r.log.Warn("profile replay failed", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		r.log.Info("profile write reconciled", zap.String("user_id", userID))
	}
}
