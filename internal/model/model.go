// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// EntitlementStatus is the single source of truth for "is this user entitled".
// Produced only by the resolver; consumed by the feature gate and the cache.
type EntitlementStatus string

const (
	// StatusConfirmed means premium access is unlocked.
	StatusConfirmed EntitlementStatus = "confirmed"
	// StatusRegular means the user gets standard (non-premium) behavior.
	StatusRegular EntitlementStatus = "regular"
	// StatusUnauthenticated means no identity was supplied.
	StatusUnauthenticated EntitlementStatus = "unauthenticated"
	// StatusPending means a resolution is in flight and no verdict exists yet.
	StatusPending EntitlementStatus = "pending"
)

// Identity is the authenticated user as reported by the identity provider.
// Immutable for the session; the resolver treats it as input only.
type Identity struct {
	UserID string // opaque stable id
	Email  string // may be empty
}

// EntitlementRecord is the locally cached resolution result.
// VerifiedAt is monotonically non-decreasing for an identity until the
// cache is explicitly cleared.
type EntitlementRecord struct {
	Status     EntitlementStatus
	VerifiedAt time.Time
}

// Feature enumerates gateable premium features.
type Feature string

const (
	FeatureMultiAIRecognition Feature = "multi_ai_recognition"
	FeatureVoiceAssistant     Feature = "voice_assistant"
	FeatureAdvancedCoaching   Feature = "advanced_coaching"
	FeatureUnlimitedScanning  Feature = "unlimited_scanning"
	FeatureAdvancedAnalytics  Feature = "advanced_analytics"
	FeaturePrioritySupport    Feature = "priority_support"
	FeatureAllLanguages       Feature = "all_languages"
)

// AllFeatures lists every gateable feature, in a stable order.
var AllFeatures = []Feature{
	FeatureMultiAIRecognition,
	FeatureVoiceAssistant,
	FeatureAdvancedCoaching,
	FeatureUnlimitedScanning,
	FeatureAdvancedAnalytics,
	FeaturePrioritySupport,
	FeatureAllLanguages,
}

// Valid reports whether f names a known feature.
func (f Feature) Valid() bool {
	for _, k := range AllFeatures {
		if f == k {
			return true
		}
	}
	return false
}

// FeatureFlagSet maps features to enabled/disabled.
type FeatureFlagSet map[Feature]bool

// FullFeatureSet returns a flag set with every feature enabled.
func FullFeatureSet() FeatureFlagSet {
	s := make(FeatureFlagSet, len(AllFeatures))
	for _, f := range AllFeatures {
		s[f] = true
	}
	return s
}

// BetaRecord is a document in the beta-tester collection. The resolver only
// reads it; administrative tooling writes it.
type BetaRecord struct {
	ID            uuid.UUID // row PK
	UserID        string
	Active        bool
	Program       string
	InvitedAt     *time.Time
	RevokedAt     *time.Time
	FeedbackCount int
}

// ManualGrant is an administrative override granting entitlement
// independent of the other sources, optionally time-bounded.
type ManualGrant struct {
	ID        uuid.UUID // row PK
	UserID    string
	Granted   bool
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// ValidAt reports whether the grant confers entitlement at instant t:
// granted and either unbounded or strictly before expiry.
func (g ManualGrant) ValidAt(t time.Time) bool {
	if !g.Granted {
		return false
	}
	if g.ExpiresAt == nil {
		return true
	}
	return t.Before(*g.ExpiresAt)
}

// UserProfile is the externally stored profile document the resolver
// updates (best-effort) when entitlement is confirmed.
type UserProfile struct {
	UserID             string
	BetaTester         bool
	PremiumAccess      bool
	PremiumFeatures    FeatureFlagSet
	SubscriptionStatus string
	BetaAccessGranted  bool
	UpdatedAt          time.Time
}

// InstallMetadata describes how the app was installed on the device that
// issued the check: installing package plus signature/build info.
type InstallMetadata struct {
	InstallerPackage string
	SignatureDigest  string
	BuildVersion     string
}

// Decision is the outcome of a feature-gate authorization.
type Decision struct {
	Granted bool
	Reason  DenyReason // set only when Granted is false
}

// DenyReason explains a denied authorization.
type DenyReason string

const (
	// DenyNoPremium means the user has no premium entitlement.
	DenyNoPremium DenyReason = "no_premium"
	// DenyFeatureDisabled means the subscriber policy table disables the feature.
	DenyFeatureDisabled DenyReason = "feature_disabled"
	// DenyQuotaExhausted means the daily metered quota is used up.
	DenyQuotaExhausted DenyReason = "quota_exhausted"
)

// GrantedDecision allows the operation.
func GrantedDecision() Decision { return Decision{Granted: true} }

// DeniedDecision refuses the operation for the given reason.
func DeniedDecision(r DenyReason) Decision { return Decision{Granted: false, Reason: r} }

// UnlimitedScans is the sentinel RemainingScans value for entitled users.
const UnlimitedScans = -1
