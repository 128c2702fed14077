package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func SeedOracle(t *testing.T, db *sql.DB, accountID, displayName string, earned, platformCut string) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO oracles (account_id, display_name, earned, platform_cut)
		 VALUES ($1, $2, $3, $4)`,
		accountID, displayName, earned, platformCut,
	)
	if err != nil {
		t.Fatalf("seed oracle %s: %v", accountID, err)
	}
}

func SeedProcessedEvent(t *testing.T, db *sql.DB, eventID, eventType string, processedAt time.Time) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO webhook_events (event_id, event_type, processed_at)
		 VALUES ($1, $2, $3)`,
		eventID, eventType, processedAt,
	)
	if err != nil {
		t.Fatalf("seed processed event %s: %v", eventID, err)
	}
}

func GetOracleTotals(t *testing.T, db *sql.DB, accountID string) (earned, platformCut decimal.Decimal) {
	t.Helper()

	err := db.QueryRow(
		`SELECT earned, platform_cut FROM oracles WHERE account_id = $1`, accountID,
	).Scan(&earned, &platformCut)
	if err != nil {
		t.Fatalf("get oracle totals %s: %v", accountID, err)
	}
	return earned, platformCut
}

func CountOracles(t *testing.T, db *sql.DB) int {
	t.Helper()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM oracles`).Scan(&count); err != nil {
		t.Fatalf("count oracles: %v", err)
	}
	return count
}

func CountProcessedEvents(t *testing.T, db *sql.DB) int {
	t.Helper()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM webhook_events`).Scan(&count); err != nil {
		t.Fatalf("count processed events: %v", err)
	}
	return count
}
