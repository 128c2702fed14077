// Package events defines the downstream notifications emitted after ledger
// writes, for dashboards and analytics consumers.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const TopicOracleEarnings = "oracle_earnings"

type EarningsRecorded struct {
	EventID     string          `json:"event_id"`
	AccountID   string          `json:"account_id"`
	Earned      decimal.Decimal `json:"earned"`
	PlatformCut decimal.Decimal `json:"platform_cut"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
}

// Noop stands in when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }
