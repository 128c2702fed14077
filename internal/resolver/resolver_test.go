package resolver

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/situationship/oracle/internal/stripeconn"
)

type fakeAccountAPI struct {
	calls    int
	accounts map[string]*stripeconn.Account
	err      error
	delay    time.Duration
}

func (f *fakeAccountAPI) GetAccount(ctx context.Context, accountID string) (*stripeconn.Account, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if a, ok := f.accounts[accountID]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("no such account")
}

func namedAccount(id, name string) *stripeconn.Account {
	a := &stripeconn.Account{ID: id}
	a.BusinessProfile.Name = name
	return a
}

func TestResolveSuccess(t *testing.T) {
	api := &fakeAccountAPI{accounts: map[string]*stripeconn.Account{
		"acct_A": namedAccount("acct_A", "Madame Zostra"),
	}}
	r := New(api, time.Second)

	assert.Equal(t, "Madame Zostra", r.Resolve(context.Background(), "acct_A"))
}

func TestResolveFailureReturnsPlaceholder(t *testing.T) {
	api := &fakeAccountAPI{err: fmt.Errorf("connection refused")}
	r := New(api, time.Second)

	assert.Equal(t, "Oracle 1234", r.Resolve(context.Background(), "acct_1234"))
}

func TestResolveCachesResult(t *testing.T) {
	api := &fakeAccountAPI{accounts: map[string]*stripeconn.Account{
		"acct_A": namedAccount("acct_A", "Madame Zostra"),
	}}
	r := New(api, time.Second)

	for range 5 {
		r.Resolve(context.Background(), "acct_A")
	}
	assert.Equal(t, 1, api.calls)
}

func TestResolveTimeoutFallsBack(t *testing.T) {
	api := &fakeAccountAPI{
		accounts: map[string]*stripeconn.Account{"acct_slow": namedAccount("acct_slow", "Slow Oracle")},
		delay:    200 * time.Millisecond,
	}
	r := New(api, 10*time.Millisecond)

	start := time.Now()
	name := r.Resolve(context.Background(), "acct_slow")
	assert.Less(t, time.Since(start), 150*time.Millisecond)
	assert.Equal(t, "Oracle slow", name)
}

func TestResolveEmptyNameUsesPlaceholder(t *testing.T) {
	api := &fakeAccountAPI{accounts: map[string]*stripeconn.Account{
		"acct_X9": {ID: "acct_X9"},
	}}
	r := New(api, time.Second)

	assert.Equal(t, "Oracle t_X9", r.Resolve(context.Background(), "acct_X9"))
}

func TestPlaceholderShortID(t *testing.T) {
	assert.Equal(t, "Oracle ab", Placeholder("ab"))
}
