package source

import (
	"context"
	"errors"
	"time"

	"github.com/mealscan/entitled/internal/errs"
	"github.com/mealscan/entitled/internal/model"
	"github.com/mealscan/entitled/internal/repository"
)

// ManualGrant checks the per-user administrative override document.
type ManualGrant struct {
	repo repository.GrantRepository
	now  func() time.Time
}

// NewManualGrant constructs the manual-grant source.
func NewManualGrant(repo repository.GrantRepository) *ManualGrant {
	return &ManualGrant{repo: repo, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *ManualGrant) WithNow(now func() time.Time) *ManualGrant {
	s.now = now
	return s
}

func (s *ManualGrant) Name() string { return "manual_grant" }

// Check confirms only a granted, unexpired override. An expired grant never
// confirms even when granted=true.
func (s *ManualGrant) Check(ctx context.Context, id model.Identity) (Verdict, error) {
	g, err := s.repo.GetByUserID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return NotConfirmed, nil
		}
		return Unavailable, err
	}
	if g.ValidAt(s.now()) {
		return Confirmed, nil
	}
	return NotConfirmed, nil
}

var _ Source = (*ManualGrant)(nil)
