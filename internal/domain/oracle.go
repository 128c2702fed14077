package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Oracle is the cumulative earnings ledger entry for one connected account.
// Earned and PlatformCut only ever grow; the cut is summed per charge at
// ingestion time, never recomputed from Earned.
type Oracle struct {
	AccountID   string
	DisplayName string
	Earned      decimal.Decimal
	PlatformCut decimal.Decimal
	FirstSeenAt time.Time
	UpdatedAt   time.Time
}

// ApplyResult reports what a ledger apply did.
type ApplyResult string

const (
	ResultApplied        ApplyResult = "applied"
	ResultAlreadyApplied ApplyResult = "already_applied"
	ResultSkipped        ApplyResult = "skipped"
)
