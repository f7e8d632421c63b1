package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mealscan/entitled/internal/errs"
	"github.com/mealscan/entitled/internal/model"
)

type fakeGrantRepo struct {
	grant *model.ManualGrant
	err   error
}

func (f *fakeGrantRepo) GetByUserID(_ context.Context, _ string) (*model.ManualGrant, error) {
	return f.grant, f.err
}
func (f *fakeGrantRepo) Upsert(_ context.Context, _ *model.ManualGrant) error { return nil }
func (f *fakeGrantRepo) Delete(_ context.Context, _ string) error             { return nil }

func TestManualGrant_UnboundedGrantConfirms(t *testing.T) {
	s := NewManualGrant(&fakeGrantRepo{grant: &model.ManualGrant{UserID: "u", Granted: true}})
	v, err := s.Check(context.Background(), model.Identity{UserID: "u"})
	require.NoError(t, err)
	require.Equal(t, Confirmed, v)
}

func TestManualGrant_ExpiredNeverConfirms(t *testing.T) {
	now := time.Now()
	yesterday := now.Add(-24 * time.Hour)
	s := NewManualGrant(&fakeGrantRepo{grant: &model.ManualGrant{
		UserID: "u", Granted: true, ExpiresAt: &yesterday,
	}}).WithNow(func() time.Time { return now })

	v, err := s.Check(context.Background(), model.Identity{UserID: "u"})
	require.NoError(t, err)
	require.Equal(t, NotConfirmed, v)
}

func TestManualGrant_ExpiryBoundaryIsExclusive(t *testing.T) {
	now := time.Now()
	s := NewManualGrant(&fakeGrantRepo{grant: &model.ManualGrant{
		UserID: "u", Granted: true, ExpiresAt: &now,
	}}).WithNow(func() time.Time { return now })

	// now == expiry: not strictly before, so not confirmed.
	v, err := s.Check(context.Background(), model.Identity{UserID: "u"})
	require.NoError(t, err)
	require.Equal(t, NotConfirmed, v)
}

func TestManualGrant_NotGranted(t *testing.T) {
	s := NewManualGrant(&fakeGrantRepo{grant: &model.ManualGrant{UserID: "u", Granted: false}})
	v, err := s.Check(context.Background(), model.Identity{UserID: "u"})
	require.NoError(t, err)
	require.Equal(t, NotConfirmed, v)
}

func TestManualGrant_MissingAndFailure(t *testing.T) {
	s := NewManualGrant(&fakeGrantRepo{err: errs.ErrNotFound})
	v, err := s.Check(context.Background(), model.Identity{UserID: "u"})
	require.NoError(t, err)
	require.Equal(t, NotConfirmed, v)

	s = NewManualGrant(&fakeGrantRepo{err: errors.New("backend down")})
	v, err = s.Check(context.Background(), model.Identity{UserID: "u"})
	require.Error(t, err)
	require.Equal(t, Unavailable, v)
}
