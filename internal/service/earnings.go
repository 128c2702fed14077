package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/situationship/oracle/internal/config"
	"github.com/situationship/oracle/internal/domain"
	"github.com/situationship/oracle/internal/events"
	"github.com/situationship/oracle/internal/fees"
	"github.com/situationship/oracle/internal/logging"
	"github.com/situationship/oracle/internal/repository"
	"github.com/situationship/oracle/internal/stripeconn"
)

type ledgerStore interface {
	Apply(ctx context.Context, p repository.ApplyParams) (domain.ApplyResult, error)
}

type nameResolver interface {
	Resolve(ctx context.Context, accountID string) string
}

// Earnings applies succeeded charges to the oracle ledger: dedupe, name
// resolution, fee split, atomic apply, and a best-effort downstream event.
type Earnings struct {
	ledger           ledgerStore
	resolver         nameResolver
	policy           *fees.Policy
	publisher        events.Publisher
	destinationField string
}

func NewEarnings(ledger ledgerStore, resolver nameResolver, policy *fees.Policy, publisher events.Publisher, destinationField string) *Earnings {
	return &Earnings{
		ledger:           ledger,
		resolver:         resolver,
		policy:           policy,
		publisher:        publisher,
		destinationField: destinationField,
	}
}

// Record processes one verified webhook event. Event types other than a
// succeeded charge, and charges with no connected-account recipient, are
// skipped without touching the ledger. Any error means the event was not
// durably applied and the caller must signal the processor to redeliver.
func (s *Earnings) Record(ctx context.Context, event *stripeconn.Event) (domain.ApplyResult, error) {
	log := logging.FromContext(ctx)

	if event.Type != domain.EventTypeChargeSucceeded {
		log.Debug("ignoring event type", "event_id", event.ID, "event_type", event.Type)
		return domain.ResultSkipped, nil
	}

	charge, err := event.Charge()
	if err != nil {
		return "", fmt.Errorf("Record: %w", err)
	}

	accountID := s.destination(charge)
	if accountID == "" {
		log.Info("charge has no connected-account destination, skipping",
			"event_id", event.ID,
			"charge_id", charge.ID,
		)
		return domain.ResultSkipped, nil
	}

	earned, cut, err := s.policy.Split(charge.Amount)
	if err != nil {
		return "", fmt.Errorf("Record: %w: %w", domain.ErrMalformedPayload, err)
	}

	// Resolved before the ledger transaction so the critical section never
	// waits on the account API.
	displayName := s.resolver.Resolve(ctx, accountID)

	result, err := s.ledger.Apply(ctx, repository.ApplyParams{
		EventID:     event.ID,
		EventType:   event.Type,
		AccountID:   accountID,
		DisplayName: displayName,
		Earned:      earned,
		PlatformCut: cut,
	})
	if err != nil {
		return "", fmt.Errorf("Record: %w", err)
	}

	switch result {
	case domain.ResultAlreadyApplied:
		log.Info("duplicate event delivery, ledger unchanged", "event_id", event.ID, "account_id", accountID)
	case domain.ResultApplied:
		log.Info("charge applied to ledger",
			"event_id", event.ID,
			"account_id", accountID,
			"amount", charge.Amount,
			"currency", charge.Currency,
			"platform_cut", cut.String(),
		)
		s.publish(ctx, event.ID, accountID, earned, cut)
	}

	return result, nil
}

func (s *Earnings) destination(charge *stripeconn.ChargeObject) string {
	switch s.destinationField {
	case config.DestinationFieldOnBehalfOf:
		return charge.OnBehalfOf
	case config.DestinationFieldTransferData:
		return charge.TransferData.Destination
	default:
		return charge.Destination
	}
}

// The ledger commit is the source of truth; a publish failure is logged and
// absorbed so the processor does not redeliver an already-applied event.
func (s *Earnings) publish(ctx context.Context, eventID, accountID string, earned, cut decimal.Decimal) {
	evt := events.EarningsRecorded{
		EventID:     eventID,
		AccountID:   accountID,
		Earned:      earned,
		PlatformCut: cut,
		OccurredAt:  time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, events.TopicOracleEarnings, evt); err != nil {
		logging.FromContext(ctx).Error("failed to publish earnings event",
			"event_id", eventID,
			"error", err,
		)
	}
}
