package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/mealscan/entitled/internal/errs"
	"github.com/mealscan/entitled/internal/model"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func TestBetaRepo_GetByUserID(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewBetaRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	invited := time.Now().Add(-48 * time.Hour)

	mock.ExpectQuery(`SELECT id, user_id, active, program, invited_at, revoked_at, feedback_count FROM beta_testers WHERE user_id=\$1`).
		WithArgs("uid-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "active", "program", "invited_at", "revoked_at", "feedback_count"}).
			AddRow(id, "uid-1", true, "internal_testing", &invited, (*time.Time)(nil), 3))
	rec, err := r.GetByUserID(ctx, "uid-1")
	require.NoError(t, err)
	require.True(t, rec.Active)
	require.Equal(t, "internal_testing", rec.Program)
	require.NotNil(t, rec.InvitedAt)

	mock.ExpectQuery(`SELECT id, user_id, active, program, invited_at, revoked_at, feedback_count FROM beta_testers WHERE user_id=\$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByUserID(ctx, "missing")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestBetaRepo_Invite_AssignsID(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewBetaRepo(db)
	ctx := context.Background()
	invited := time.Now()

	rec := &model.BetaRecord{UserID: "uid-2", Active: true, Program: "internal_testing", InvitedAt: &invited}
	mock.ExpectExec(`INSERT INTO beta_testers`).
		WithArgs(pgxmock.AnyArg(), "uid-2", true, "internal_testing", &invited, 0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Invite(ctx, rec))
	require.NotEqual(t, uuid.Nil, rec.ID)
}

func TestBetaRepo_Deactivate(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewBetaRepo(db)
	ctx := context.Background()
	at := time.Now()

	mock.ExpectExec(`UPDATE beta_testers SET active=FALSE, revoked_at=\$2 WHERE user_id=\$1`).
		WithArgs("uid-3", at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.Deactivate(ctx, "uid-3", at))

	mock.ExpectExec(`UPDATE beta_testers SET active=FALSE, revoked_at=\$2 WHERE user_id=\$1`).
		WithArgs("missing", at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, r.Deactivate(ctx, "missing", at), errs.ErrNotFound)
}
