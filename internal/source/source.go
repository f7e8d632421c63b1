// Package source contains the independent entitlement checks the resolver
// cascades over: install channel, remote allow-list, beta-tester documents,
// and manual grants.
package source

import (
	"context"

	"github.com/mealscan/entitled/internal/model"
)

// ProgramInternalTesting is the only beta program that confers entitlement.
const ProgramInternalTesting = "internal_testing"

// Verdict is the tri-state outcome of a single source check.
type Verdict int

const (
	// NotConfirmed means the source did not confirm entitlement.
	NotConfirmed Verdict = iota
	// Confirmed means the source positively confirmed entitlement.
	Confirmed
	// Unavailable means the source failed (network, timeout, backend error).
	// The cascade treats it like NotConfirmed but logs it.
	Unavailable
)

func (v Verdict) String() string {
	switch v {
	case Confirmed:
		return "confirmed"
	case Unavailable:
		return "unavailable"
	default:
		return "not_confirmed"
	}
}

// Source is one independent, possibly failing entitlement check.
// Check never returns an error to the caller's control flow: failures are
// reported as Unavailable with the cause attached for logging.
type Source interface {
	// Name identifies the source in logs.
	Name() string
	// Check evaluates the source for the given identity.
	Check(ctx context.Context, id model.Identity) (Verdict, error)
}
