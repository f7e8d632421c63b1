package source

import (
	"context"
	"errors"

	"github.com/mealscan/entitled/internal/errs"
	"github.com/mealscan/entitled/internal/model"
	"github.com/mealscan/entitled/internal/repository"
)

// BetaDocument checks the per-user beta-tester document.
type BetaDocument struct {
	repo repository.BetaRepository
}

// NewBetaDocument constructs the document-store source.
func NewBetaDocument(repo repository.BetaRepository) *BetaDocument {
	return &BetaDocument{repo: repo}
}

func (s *BetaDocument) Name() string { return "beta_document" }

// Check confirms only when the document exists, is active, belongs to the
// internal testing program, and carries an invitation date. Missing document
// means not confirmed; a backend failure means unavailable.
func (s *BetaDocument) Check(ctx context.Context, id model.Identity) (Verdict, error) {
	rec, err := s.repo.GetByUserID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return NotConfirmed, nil
		}
		return Unavailable, err
	}
	if rec.Active && rec.Program == ProgramInternalTesting && rec.InvitedAt != nil {
		return Confirmed, nil
	}
	return NotConfirmed, nil
}

var _ Source = (*BetaDocument)(nil)
