package source

import (
	"context"
	"errors"
	"strings"

	"github.com/mealscan/entitled/internal/errs"
	"github.com/mealscan/entitled/internal/model"
)

// MetadataProvider supplies install-source metadata for the app installation
// that issued the check. Platform-specific; no network dependency.
type MetadataProvider interface {
	Metadata(ctx context.Context) (model.InstallMetadata, error)
}

// ChannelClassifier decides whether install metadata identifies a beta
// distribution channel. Pluggable: the secondary signature check is a
// heuristic, not literal detection logic.
type ChannelClassifier interface {
	IsBetaChannel(md model.InstallMetadata) bool
}

// StaticClassifier classifies against a fixed canonical installer package,
// a set of known beta build signature digests, and a beta version marker.
type StaticClassifier struct {
	StorePackage   string
	BetaSignatures map[string]struct{}
	BetaMarker     string
}

// IsBetaChannel requires the canonical installer AND a passing secondary
// check: a known beta signature or a beta marker in the build version.
func (c StaticClassifier) IsBetaChannel(md model.InstallMetadata) bool {
	if md.InstallerPackage != c.StorePackage {
		return false
	}
	if _, ok := c.BetaSignatures[md.SignatureDigest]; ok {
		return true
	}
	return c.BetaMarker != "" && strings.Contains(md.BuildVersion, c.BetaMarker)
}

// InstallChannel is the local, heuristic cascade step.
type InstallChannel struct {
	provider   MetadataProvider
	classifier ChannelClassifier
}

// NewInstallChannel constructs the install-channel source.
func NewInstallChannel(p MetadataProvider, c ChannelClassifier) *InstallChannel {
	return &InstallChannel{provider: p, classifier: c}
}

func (s *InstallChannel) Name() string { return "install_channel" }

// Check confirms only when the classifier recognizes a beta channel.
// A missing provider or a metadata read failure yields Unavailable.
func (s *InstallChannel) Check(ctx context.Context, _ model.Identity) (Verdict, error) {
	if s.provider == nil {
		return NotConfirmed, nil
	}
	md, err := s.provider.Metadata(ctx)
	if err != nil {
		// No metadata reported is a non-confirmation, not an outage.
		if errors.Is(err, errs.ErrNotFound) {
			return NotConfirmed, nil
		}
		return Unavailable, err
	}
	if s.classifier != nil && s.classifier.IsBetaChannel(md) {
		return Confirmed, nil
	}
	return NotConfirmed, nil
}

var _ Source = (*InstallChannel)(nil)
