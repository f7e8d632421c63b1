// Package service contains the entitlement resolver and the feature gate.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mealscan/entitled/internal/errs"
	"github.com/mealscan/entitled/internal/kvstore"
	"github.com/mealscan/entitled/internal/model"
	"github.com/mealscan/entitled/internal/repository"
	"github.com/mealscan/entitled/internal/source"
)

const (
	// DefaultCacheTTL bounds how long a positive resolution is trusted
	// without re-querying the sources.
	DefaultCacheTTL = 24 * time.Hour
	// DefaultSourceTimeout bounds each remote source call.
	DefaultSourceTimeout = 5 * time.Second

	// SubscriptionStatusBeta is the subscription-status marker written to the
	// external profile on confirmation.
	SubscriptionStatusBeta = "beta_tester"
)

// Resolver orchestrates the cascading multi-source entitlement check,
// applies the caching policy, and persists the verdict.
//
// Resolve never fails: any internal fault degrades to Regular, so a user is
// never granted access because of an error.
type Resolver struct {
	sources  []source.Source
	store    kvstore.Store
	betas    repository.BetaRepository
	profiles repository.ProfileRepository
	log      *zap.Logger

	cacheTTL      time.Duration
	sourceTimeout time.Duration
	now           func() time.Time
}

// NewResolver constructs a resolver over the given sources, in cascade order.
func NewResolver(
	sources []source.Source,
	store kvstore.Store,
	betas repository.BetaRepository,
	profiles repository.ProfileRepository,
	log *zap.Logger,
) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		sources:       sources,
		store:         store,
		betas:         betas,
		profiles:      profiles,
		log:           log,
		cacheTTL:      DefaultCacheTTL,
		sourceTimeout: DefaultSourceTimeout,
		now:           time.Now,
	}
}

// WithCacheTTL overrides the positive-cache staleness bound.
func (r *Resolver) WithCacheTTL(ttl time.Duration) *Resolver {
	if ttl > 0 {
		r.cacheTTL = ttl
	}
	return r
}

// WithSourceTimeout overrides the per-source call timeout.
func (r *Resolver) WithSourceTimeout(d time.Duration) *Resolver {
	if d > 0 {
		r.sourceTimeout = d
	}
	return r
}

// WithNow overrides the clock, for tests.
func (r *Resolver) WithNow(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Resolve runs the cascade for the given identity and returns its status.
// The observable result is always one of the four statuses, never an error.
func (r *Resolver) Resolve(ctx context.Context, id model.Identity) (status model.EntitlementStatus) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("resolve panic, degrading to regular", zap.Any("reason", rec))
			status = model.StatusRegular
		}
	}()

	if id.UserID == "" {
		return model.StatusUnauthenticated
	}

	// A fresh positive cache entry short-circuits the cascade. A cached
	// Regular is never trusted: the set of confirmed users can only grow,
	// so negative results are re-verified on every call.
	if r.cachedConfirmed(ctx, id.UserID) {
		return model.StatusConfirmed
	}

	for _, src := range r.sources {
		v := r.checkSource(ctx, src, id)
		if v == source.Confirmed {
			r.confirm(ctx, id, src.Name())
			return model.StatusConfirmed
		}
	}

	// Terminal Regular still records a cache entry for diagnostics; the
	// cache read above deliberately ignores it on the next call.
	r.writeRecord(ctx, id.UserID, false)
	return model.StatusRegular
}

// cachedConfirmed reports whether a Confirmed record younger than cacheTTL
// exists for the user. The boundary is exclusive: a record aged exactly
// cacheTTL is stale.
func (r *Resolver) cachedConfirmed(ctx context.Context, userID string) bool {
	premium, ok, err := r.store.GetBool(ctx, kvstore.UserKey(userID, kvstore.KeyPremiumAccess))
	if err != nil || !ok || !premium {
		return false
	}
	ms, ok, err := r.store.GetInt64(ctx, kvstore.UserKey(userID, kvstore.KeyVerifiedTimestamp))
	if err != nil || !ok {
		return false
	}
	age := r.now().Sub(time.UnixMilli(ms))
	return age < r.cacheTTL
}

// checkSource runs one source with a bounded timeout. Unavailable collapses
// to NotConfirmed after logging: a failing source must not block or deny the
// rest of the cascade.
func (r *Resolver) checkSource(ctx context.Context, src source.Source, id model.Identity) source.Verdict {
	cctx, cancel := context.WithTimeout(ctx, r.sourceTimeout)
	defer cancel()

	v, err := src.Check(cctx, id)
	switch v {
	case source.Confirmed:
		r.log.Info("entitlement confirmed",
			zap.String("source", src.Name()),
			zap.String("user_id", id.UserID),
		)
	case source.Unavailable:
		r.log.Warn("entitlement source unavailable",
			zap.String("source", src.Name()),
			zap.String("user_id", id.UserID),
			zap.Error(err),
		)
		return source.NotConfirmed
	}
	return v
}

// confirm persists the positive verdict: the local record first (authoritative
// fast path, written before Resolve returns), then the external profile
// best-effort. A failed profile write is queued for reconciliation and never
// downgrades the already-decided status.
func (r *Resolver) confirm(ctx context.Context, id model.Identity, srcName string) {
	userID := id.UserID
	r.writeRecord(ctx, userID, true)
	if err := r.store.SetBool(ctx, kvstore.UserKey(userID, kvstore.KeyBetaTester), true); err != nil {
		r.log.Error("local beta flag write failed", zap.String("user_id", userID), zap.Error(err))
	}

	if err := r.writeProfile(ctx, userID); err != nil {
		r.log.Error("profile write failed, queued for reconciliation",
			zap.String("user_id", userID),
			zap.String("source", srcName),
			zap.Error(err),
		)
		if serr := r.store.SetBool(ctx, kvstore.ProfileRetryKey(userID), true); serr != nil {
			r.log.Error("retry marker write failed", zap.String("user_id", userID), zap.Error(serr))
		}
	}
}

// writeRecord writes a complete, self-consistent cache record. Concurrent
// resolutions are last-write-wins; each write covers every field.
func (r *Resolver) writeRecord(ctx context.Context, userID string, confirmed bool) {
	if err := r.store.SetBool(ctx, kvstore.UserKey(userID, kvstore.KeyPremiumAccess), confirmed); err != nil {
		r.log.Error("cache status write failed", zap.String("user_id", userID), zap.Error(err))
	}
	if err := r.store.SetInt64(ctx, kvstore.UserKey(userID, kvstore.KeyVerifiedTimestamp), r.now().UnixMilli()); err != nil {
		r.log.Error("cache timestamp write failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// writeProfile updates the external user-profile document with the full
// feature set and the beta subscription marker.
func (r *Resolver) writeProfile(ctx context.Context, userID string) error {
	return r.profiles.Upsert(ctx, &model.UserProfile{
		UserID:             userID,
		BetaTester:         true,
		PremiumAccess:      true,
		PremiumFeatures:    model.FullFeatureSet(),
		SubscriptionStatus: SubscriptionStatusBeta,
		BetaAccessGranted:  true,
		UpdatedAt:          r.now(),
	})
}

// ReplayProfile re-attempts the external profile write for a user whose
// confirmation-time write failed, clearing the retry marker on success.
func (r *Resolver) ReplayProfile(ctx context.Context, userID string) error {
	if err := r.writeProfile(ctx, userID); err != nil {
		return err
	}
	return r.store.Delete(ctx, kvstore.ProfileRetryKey(userID))
}

// Revoke marks the user's beta record inactive, timestamps the revocation,
// and clears the local cache flags. Other devices' caches self-correct at
// the next cache expiry.
func (r *Resolver) Revoke(ctx context.Context, userID string) error {
	// No beta record is fine: the user may have been confirmed by another source.
	if err := r.betas.Deactivate(ctx, userID, r.now()); err != nil && !errors.Is(err, errs.ErrNotFound) {
		return err
	}
	if err := r.store.SetBool(ctx, kvstore.UserKey(userID, kvstore.KeyPremiumAccess), false); err != nil {
		return err
	}
	if err := r.store.SetBool(ctx, kvstore.UserKey(userID, kvstore.KeyBetaTester), false); err != nil {
		return err
	}
	if err := r.store.Delete(ctx,
		kvstore.UserKey(userID, kvstore.KeyVerifiedTimestamp),
		kvstore.ProfileRetryKey(userID),
	); err != nil {
		return err
	}
	r.log.Info("entitlement revoked", zap.String("user_id", userID))
	return nil
}
