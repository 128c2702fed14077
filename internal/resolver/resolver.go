// Package resolver turns connected-account ids into display names.
//
// Resolution is best effort: a lookup failure yields a deterministic
// placeholder so that crediting the ledger is never blocked on the account
// API. Results are cached for the process lifetime.
package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/situationship/oracle/internal/logging"
	"github.com/situationship/oracle/internal/stripeconn"
)

type accountAPI interface {
	GetAccount(ctx context.Context, accountID string) (*stripeconn.Account, error)
}

type Resolver struct {
	api     accountAPI
	timeout time.Duration

	mu    sync.Mutex
	cache map[string]string
}

func New(api accountAPI, timeout time.Duration) *Resolver {
	return &Resolver{
		api:     api,
		timeout: timeout,
		cache:   make(map[string]string),
	}
}

// Resolve never fails; callers get either the account's display name or a
// placeholder derived from the id.
func (r *Resolver) Resolve(ctx context.Context, accountID string) string {
	r.mu.Lock()
	if name, ok := r.cache[accountID]; ok {
		r.mu.Unlock()
		return name
	}
	r.mu.Unlock()

	name := r.lookup(ctx, accountID)

	r.mu.Lock()
	r.cache[accountID] = name
	r.mu.Unlock()
	return name
}

func (r *Resolver) lookup(ctx context.Context, accountID string) string {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	account, err := r.api.GetAccount(ctx, accountID)
	if err != nil {
		logging.FromContext(ctx).Warn("account name resolution failed, using placeholder",
			"account_id", accountID,
			"error", err,
		)
		return Placeholder(accountID)
	}
	if name := account.DisplayName(); name != "" {
		return name
	}
	return Placeholder(accountID)
}

// Placeholder is the deterministic fallback name for an unresolvable account,
// built from the tail of its id.
func Placeholder(accountID string) string {
	tail := accountID
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}
	return "Oracle " + tail
}
