// Package fees computes the platform's take on a charge.
//
// All arithmetic runs in integer minor currency units; amounts are converted
// to two-decimal major units only at the return boundary, so repeated splits
// accumulate no rounding drift.
package fees

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultRateBps is the platform cut applied when none is configured: 10%.
const DefaultRateBps int64 = 1000

const bpsDenominator int64 = 10000

type Policy struct {
	rateBps int64
}

func NewPolicy(rateBps int64) (*Policy, error) {
	if rateBps < 0 || rateBps > bpsDenominator {
		return nil, fmt.Errorf("NewPolicy: rate must be between 0 and %d basis points, got %d", bpsDenominator, rateBps)
	}
	return &Policy{rateBps: rateBps}, nil
}

func (p *Policy) RateBps() int64 { return p.rateBps }

// Split returns the payee's earnings and the platform's cut for a charge of
// amountMinor minor units. The full charge amount is credited to the payee;
// the cut is tracked alongside it, not subtracted. The cut is rounded half up
// in minor units.
func (p *Policy) Split(amountMinor int64) (earned, platformCut decimal.Decimal, err error) {
	if amountMinor < 0 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("Split: amount %d is negative", amountMinor)
	}

	cutMinor := (amountMinor*p.rateBps + bpsDenominator/2) / bpsDenominator
	return decimal.New(amountMinor, -2), decimal.New(cutMinor, -2), nil
}
