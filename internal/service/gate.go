package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mealscan/entitled/internal/kvstore"
	"github.com/mealscan/entitled/internal/model"
)

// DefaultDailyScanLimit is the free-tier metered scan quota per calendar day.
const DefaultDailyScanLimit = 5

// Notifier receives feature-specific subscription prompts when an
// authorization is denied and the caller supplied no fallback of its own.
// Implementations should be non-blocking and best-effort.
type Notifier interface {
	PromptSubscription(ctx context.Context, userID string, feature model.Feature)
}

// Gate is the access-control facade over the resolver's cached verdict.
// It is constructed once by the composition root and shared; all methods
// are safe for concurrent use.
type Gate struct {
	store    kvstore.Store
	resolver *Resolver
	log      *zap.Logger
	notifier Notifier

	// policy is the per-feature table for subscribed, non-beta users.
	// Currently every feature is allowed once subscribed; the table is the
	// extension point for future tiering.
	policy map[model.Feature]bool

	dailyLimit int64
	now        func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{} // user ids with a refresh in progress
}

// NewGate constructs the feature gate.
func NewGate(store kvstore.Store, resolver *Resolver, notifier Notifier, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	policy := make(map[model.Feature]bool, len(model.AllFeatures))
	for _, f := range model.AllFeatures {
		policy[f] = true
	}
	return &Gate{
		store:      store,
		resolver:   resolver,
		log:        log,
		notifier:   notifier,
		policy:     policy,
		dailyLimit: DefaultDailyScanLimit,
		now:        time.Now,
		inflight:   make(map[string]struct{}),
	}
}

// WithDailyLimit overrides the metered scan quota.
func (g *Gate) WithDailyLimit(n int64) *Gate {
	if n > 0 {
		g.dailyLimit = n
	}
	return g
}

// WithNow overrides the clock, for tests.
func (g *Gate) WithNow(now func() time.Time) *Gate {
	g.now = now
	return g
}

// HasPremiumAccess reads only the local cached flag. Cheap and synchronous;
// never triggers remote resolution, so it may be stale up to the cache TTL.
func (g *Gate) HasPremiumAccess(ctx context.Context, userID string) bool {
	v, ok, err := g.store.GetBool(ctx, kvstore.UserKey(userID, kvstore.KeyPremiumAccess))
	if err != nil {
		g.log.Warn("premium flag read failed", zap.String("user_id", userID), zap.Error(err))
		return false
	}
	return ok && v
}

// isBetaTester reads the local beta flag.
func (g *Gate) isBetaTester(ctx context.Context, userID string) bool {
	v, ok, err := g.store.GetBool(ctx, kvstore.UserKey(userID, kvstore.KeyBetaTester))
	if err != nil {
		return false
	}
	return ok && v
}

// HasFeatureAccess reports whether feature f is usable now. Beta testers
// bypass the per-feature policy table entirely.
func (g *Gate) HasFeatureAccess(ctx context.Context, userID string, f model.Feature) bool {
	if !g.HasPremiumAccess(ctx, userID) {
		return false
	}
	if g.isBetaTester(ctx, userID) {
		return true
	}
	return g.policy[f]
}

// Authorize evaluates feature access and returns an explicit decision.
// On denial the subscription prompt for the feature fires via the notifier.
// A beta tester reaching the denied branch is a logic-invariant violation:
// logged, never a crash.
func (g *Gate) Authorize(ctx context.Context, userID string, f model.Feature) model.Decision {
	if g.HasFeatureAccess(ctx, userID, f) {
		return model.GrantedDecision()
	}
	if g.isBetaTester(ctx, userID) {
		g.log.Error("beta tester denied feature access, invariant violated",
			zap.String("user_id", userID),
			zap.String("feature", string(f)),
		)
	}
	reason := model.DenyNoPremium
	if g.HasPremiumAccess(ctx, userID) {
		reason = model.DenyFeatureDisabled
	}
	g.prompt(ctx, userID, f)
	return model.DeniedDecision(reason)
}

// AuthorizeScan is the metered path for the one quota-limited feature.
// Entitled users always pass; free-tier usage is capped per calendar day.
// The quota counter is only ever touched for non-entitled users.
func (g *Gate) AuthorizeScan(ctx context.Context, userID string) model.Decision {
	if g.HasFeatureAccess(ctx, userID, model.FeatureUnlimitedScanning) {
		return model.GrantedDecision()
	}

	key := kvstore.UserKey(userID, kvstore.ScanKey(g.now()))
	// Atomic increment-then-compare: at most dailyLimit grants per day even
	// under concurrent calls. Denied attempts leave the counter past the
	// limit, which RemainingScans clamps to zero.
	n, err := g.store.Increment(ctx, key)
	if err != nil {
		g.log.Warn("scan quota increment failed", zap.String("user_id", userID), zap.Error(err))
		return model.DeniedDecision(model.DenyQuotaExhausted)
	}
	if n > g.dailyLimit {
		g.prompt(ctx, userID, model.FeatureUnlimitedScanning)
		return model.DeniedDecision(model.DenyQuotaExhausted)
	}
	return model.GrantedDecision()
}

// RemainingScans returns how many metered scans are left today, or
// model.UnlimitedScans for entitled users.
func (g *Gate) RemainingScans(ctx context.Context, userID string) int64 {
	if g.HasFeatureAccess(ctx, userID, model.FeatureUnlimitedScanning) {
		return model.UnlimitedScans
	}
	key := kvstore.UserKey(userID, kvstore.ScanKey(g.now()))
	n, _, err := g.store.GetInt64(ctx, key)
	if err != nil {
		g.log.Warn("scan quota read failed", zap.String("user_id", userID), zap.Error(err))
		return 0
	}
	left := g.dailyLimit - n
	if left < 0 {
		return 0
	}
	return left
}

// Status reports the current verdict without running the cascade: a fresh
// positive cache reads as Confirmed, an in-flight refresh as Pending.
func (g *Gate) Status(ctx context.Context, id model.Identity) model.EntitlementStatus {
	if id.UserID == "" {
		return model.StatusUnauthenticated
	}
	if g.HasPremiumAccess(ctx, id.UserID) {
		return model.StatusConfirmed
	}
	g.mu.Lock()
	_, busy := g.inflight[id.UserID]
	g.mu.Unlock()
	if busy {
		return model.StatusPending
	}
	return model.StatusRegular
}

// Refresh re-resolves entitlement asynchronously. Fire-and-forget for the
// caller; concurrent refreshes for the same user coalesce into one, and
// resolver cache writes are last-write-wins either way.
func (g *Gate) Refresh(id model.Identity) {
	if id.UserID == "" {
		return
	}
	g.mu.Lock()
	if _, busy := g.inflight[id.UserID]; busy {
		g.mu.Unlock()
		return
	}
	g.inflight[id.UserID] = struct{}{}
	g.mu.Unlock()

	go func() {
		defer func() {
			g.mu.Lock()
			delete(g.inflight, id.UserID)
			g.mu.Unlock()
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		status := g.resolver.Resolve(ctx, id)
		g.log.Info("entitlement refreshed",
			zap.String("user_id", id.UserID),
			zap.String("status", string(status)),
		)
	}()
}

// Resolve runs the full cascade synchronously via the resolver.
func (g *Gate) Resolve(ctx context.Context, id model.Identity) model.EntitlementStatus {
	return g.resolver.Resolve(ctx, id)
}

func (g *Gate) prompt(ctx context.Context, userID string, f model.Feature) {
	if g.notifier != nil {
		g.notifier.PromptSubscription(ctx, userID, f)
	}
}
