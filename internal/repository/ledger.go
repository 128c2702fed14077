package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/situationship/oracle/internal/domain"
)

const oracleColumns = `account_id, display_name, earned, platform_cut, first_seen_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

// LedgerRepository owns the oracles and webhook_events tables. All mutation
// goes through Apply; nothing else read-modify-writes a ledger row.
type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

type ApplyParams struct {
	EventID     string
	EventType   string
	AccountID   string
	DisplayName string
	Earned      decimal.Decimal
	PlatformCut decimal.Decimal
}

// Apply credits a charge to an account exactly once. The processed-event
// marker and the ledger delta commit in a single transaction: a redelivered
// event id conflicts on the webhook_events primary key and returns
// ResultAlreadyApplied with no mutation. Two concurrent deliveries of the
// same id serialize on that index; the loser observes the conflict once the
// winner commits.
func (r *LedgerRepository) Apply(ctx context.Context, p ApplyParams) (domain.ApplyResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("Apply: begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO webhook_events (event_id, event_type, processed_at)
		VALUES ($1, $2, now())
		ON CONFLICT (event_id) DO NOTHING`,
		p.EventID, p.EventType,
	)
	if err != nil {
		return "", fmt.Errorf("Apply: mark event: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("Apply: rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ResultAlreadyApplied, nil
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO oracles (account_id, display_name, earned, platform_cut, first_seen_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (account_id) DO UPDATE SET
			earned = oracles.earned + EXCLUDED.earned,
			platform_cut = oracles.platform_cut + EXCLUDED.platform_cut,
			updated_at = now()`,
		p.AccountID, p.DisplayName, p.Earned, p.PlatformCut,
	)
	if err != nil {
		return "", fmt.Errorf("Apply: upsert oracle: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("Apply: commit: %w", err)
	}
	return domain.ResultApplied, nil
}

func (r *LedgerRepository) Get(ctx context.Context, accountID string) (*domain.Oracle, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+oracleColumns+` FROM oracles WHERE account_id = $1`, accountID,
	)
	o, err := scanOracle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Get: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("Get: %w", err)
	}
	return o, nil
}

func (r *LedgerRepository) List(ctx context.Context) ([]domain.Oracle, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+oracleColumns+` FROM oracles ORDER BY earned DESC, account_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var oracles []domain.Oracle
	for rows.Next() {
		o, err := scanOracle(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		oracles = append(oracles, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return oracles, nil
}

func (r *LedgerRepository) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM webhook_events WHERE event_id = $1)`, eventID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("IsProcessed: %w", err)
	}
	return exists, nil
}

// PruneEventsBefore drops processed-event markers older than cutoff. Safe
// once cutoff exceeds the processor's redelivery horizon.
func (r *LedgerRepository) PruneEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM webhook_events WHERE processed_at < $1`, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("PruneEventsBefore: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("PruneEventsBefore: rows affected: %w", err)
	}
	return n, nil
}

func scanOracle(s scanner) (*domain.Oracle, error) {
	var o domain.Oracle
	err := s.Scan(
		&o.AccountID, &o.DisplayName, &o.Earned, &o.PlatformCut,
		&o.FirstSeenAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
