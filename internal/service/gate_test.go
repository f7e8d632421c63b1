package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mealscan/entitled/internal/kvstore"
	"github.com/mealscan/entitled/internal/model"
	"github.com/mealscan/entitled/internal/source"
)

type recordingNotifier struct {
	mu      sync.Mutex
	prompts []model.Feature
}

func (n *recordingNotifier) PromptSubscription(_ context.Context, _ string, f model.Feature) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.prompts = append(n.prompts, f)
}

func newTestGate(t *testing.T, store kvstore.Store, verdict source.Verdict) (*Gate, *recordingNotifier) {
	t.Helper()
	src := &scriptedSource{name: "beta_doc", verdict: verdict}
	r := newTestResolver([]*scriptedSource{src}, store, nil)
	n := &recordingNotifier{}
	return NewGate(store, r, n, zap.NewNop()), n
}

func confirmUser(t *testing.T, store kvstore.Store, userID string, beta bool) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.SetBool(ctx, kvstore.UserKey(userID, kvstore.KeyPremiumAccess), true))
	require.NoError(t, store.SetBool(ctx, kvstore.UserKey(userID, kvstore.KeyBetaTester), beta))
	require.NoError(t, store.SetInt64(ctx, kvstore.UserKey(userID, kvstore.KeyVerifiedTimestamp), time.Now().UnixMilli()))
}

func TestGate_HasPremiumAccess_LocalOnly(t *testing.T) {
	store := kvstore.NewMemory()
	g, _ := newTestGate(t, store, source.NotConfirmed)
	ctx := context.Background()

	require.False(t, g.HasPremiumAccess(ctx, "u1"))
	confirmUser(t, store, "u1", true)
	require.True(t, g.HasPremiumAccess(ctx, "u1"))
}

func TestGate_BetaTesterBypassesPolicyTable(t *testing.T) {
	store := kvstore.NewMemory()
	g, _ := newTestGate(t, store, source.NotConfirmed)
	ctx := context.Background()
	confirmUser(t, store, "u1", true)

	// Even with the policy table emptied, beta testers pass every feature.
	g.policy = map[model.Feature]bool{}
	for _, f := range model.AllFeatures {
		require.True(t, g.HasFeatureAccess(ctx, "u1", f), "feature %s", f)
	}
}

func TestGate_SubscriberUsesPolicyTable(t *testing.T) {
	store := kvstore.NewMemory()
	g, _ := newTestGate(t, store, source.NotConfirmed)
	ctx := context.Background()
	confirmUser(t, store, "u1", false)

	for _, f := range model.AllFeatures {
		require.True(t, g.HasFeatureAccess(ctx, "u1", f))
	}

	g.policy[model.FeatureVoiceAssistant] = false
	require.False(t, g.HasFeatureAccess(ctx, "u1", model.FeatureVoiceAssistant))
	require.True(t, g.HasFeatureAccess(ctx, "u1", model.FeatureAdvancedCoaching))
}

func TestGate_Authorize(t *testing.T) {
	store := kvstore.NewMemory()
	g, n := newTestGate(t, store, source.NotConfirmed)
	ctx := context.Background()

	d := g.Authorize(ctx, "u1", model.FeatureVoiceAssistant)
	require.False(t, d.Granted)
	require.Equal(t, model.DenyNoPremium, d.Reason)
	require.Equal(t, []model.Feature{model.FeatureVoiceAssistant}, n.prompts)

	confirmUser(t, store, "u1", false)
	d = g.Authorize(ctx, "u1", model.FeatureVoiceAssistant)
	require.True(t, d.Granted)

	g.policy[model.FeatureVoiceAssistant] = false
	d = g.Authorize(ctx, "u1", model.FeatureVoiceAssistant)
	require.False(t, d.Granted)
	require.Equal(t, model.DenyFeatureDisabled, d.Reason)
}

func TestGate_ScanQuota_FiveThenDenied(t *testing.T) {
	store := kvstore.NewMemory()
	g, n := newTestGate(t, store, source.NotConfirmed)
	ctx := context.Background()

	for i := 0; i < DefaultDailyScanLimit; i++ {
		d := g.AuthorizeScan(ctx, "u1")
		require.True(t, d.Granted, "scan %d should pass", i+1)
	}
	d := g.AuthorizeScan(ctx, "u1")
	require.False(t, d.Granted)
	require.Equal(t, model.DenyQuotaExhausted, d.Reason)
	require.Equal(t, []model.Feature{model.FeatureUnlimitedScanning}, n.prompts)
	require.Equal(t, int64(0), g.RemainingScans(ctx, "u1"))
}

func TestGate_ScanQuota_DayRolloverResets(t *testing.T) {
	store := kvstore.NewMemory()
	g, _ := newTestGate(t, store, source.NotConfirmed)
	ctx := context.Background()

	day1 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.Local)
	g.WithNow(func() time.Time { return day1 })
	for i := 0; i < DefaultDailyScanLimit+2; i++ {
		g.AuthorizeScan(ctx, "u1")
	}
	require.Equal(t, int64(0), g.RemainingScans(ctx, "u1"))

	// New calendar day: a new key, counter implicitly starts at 0.
	g.WithNow(func() time.Time { return day1.Add(24 * time.Hour) })
	require.Equal(t, int64(DefaultDailyScanLimit), g.RemainingScans(ctx, "u1"))
	require.True(t, g.AuthorizeScan(ctx, "u1").Granted)
}

func TestGate_EntitledUserNeverMetered(t *testing.T) {
	store := kvstore.NewMemory()
	g, _ := newTestGate(t, store, source.NotConfirmed)
	ctx := context.Background()
	confirmUser(t, store, "u1", true)

	for i := 0; i < 20; i++ {
		require.True(t, g.AuthorizeScan(ctx, "u1").Granted)
	}
	require.Equal(t, int64(model.UnlimitedScans), g.RemainingScans(ctx, "u1"))

	// Quota counter untouched for entitled users.
	_, ok, err := store.GetInt64(ctx, kvstore.UserKey("u1", kvstore.ScanKey(time.Now())))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGate_ScanQuota_ConcurrentIncrements(t *testing.T) {
	store := kvstore.NewMemory()
	g, _ := newTestGate(t, store, source.NotConfirmed)
	ctx := context.Background()

	var wg sync.WaitGroup
	granted := make(chan bool, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			granted <- g.AuthorizeScan(ctx, "u1").Granted
		}()
	}
	wg.Wait()
	close(granted)

	var ok int
	for v := range granted {
		if v {
			ok++
		}
	}
	require.Equal(t, DefaultDailyScanLimit, ok, "exactly the daily limit may pass")
}

func TestGate_Status(t *testing.T) {
	store := kvstore.NewMemory()
	g, _ := newTestGate(t, store, source.NotConfirmed)
	ctx := context.Background()

	require.Equal(t, model.StatusUnauthenticated, g.Status(ctx, model.Identity{}))
	require.Equal(t, model.StatusRegular, g.Status(ctx, model.Identity{UserID: "u1"}))
	confirmUser(t, store, "u1", true)
	require.Equal(t, model.StatusConfirmed, g.Status(ctx, model.Identity{UserID: "u1"}))
}

func TestGate_RefreshResolvesAsync(t *testing.T) {
	store := kvstore.NewMemory()
	g, _ := newTestGate(t, store, source.Confirmed)
	ctx := context.Background()
	id := model.Identity{UserID: "u1"}

	require.False(t, g.HasPremiumAccess(ctx, id.UserID))
	g.Refresh(id)

	require.Eventually(t, func() bool {
		return g.HasPremiumAccess(ctx, id.UserID)
	}, 2*time.Second, 10*time.Millisecond)
}
