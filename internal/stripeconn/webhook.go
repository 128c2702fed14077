// Package stripeconn speaks the payment processor's surface: webhook
// signature verification, event envelope parsing, and the small slice of its
// REST API this service consumes.
package stripeconn

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/situationship/oracle/internal/domain"
)

// SignatureHeader carries the delivery timestamp and one or more HMAC
// candidates, e.g. "t=1712345678,v1=5257a8...". Multiple v1 entries appear
// during secret rotation; any valid one authenticates the delivery.
const SignatureHeader = "Stripe-Signature"

const signingVersion = "v1"

// Event is the processor's webhook envelope. Data.Object is left raw; only
// recognized event types are decoded further.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ChargeObject is the charge payload inside a charge.* event. The three
// destination candidates are all captured; which one is authoritative is a
// configuration decision made by the caller.
type ChargeObject struct {
	ID           string `json:"id"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Destination  string `json:"destination"`
	OnBehalfOf   string `json:"on_behalf_of"`
	TransferData struct {
		Destination string `json:"destination"`
	} `json:"transfer_data"`
	Created int64 `json:"created"`
}

// ConstructEvent verifies the signature header against the raw payload bytes
// and parses the envelope. The signature is computed over the payload exactly
// as received; callers must not re-serialize it first.
func ConstructEvent(payload []byte, sigHeader, secret string, tolerance time.Duration) (*Event, error) {
	if err := verifySignature(payload, sigHeader, secret, tolerance, time.Now()); err != nil {
		return nil, err
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("ConstructEvent: %w: %v", domain.ErrMalformedPayload, err)
	}
	if event.ID == "" || event.Type == "" {
		return nil, fmt.Errorf("ConstructEvent: missing event id or type: %w", domain.ErrMalformedPayload)
	}
	return &event, nil
}

// Charge decodes the event's payload as a charge object. Amount and currency
// are required; a missing destination is not an error here since charges
// without a connected-account recipient are legitimate.
func (e *Event) Charge() (*ChargeObject, error) {
	var charge ChargeObject
	if err := json.Unmarshal(e.Data.Object, &charge); err != nil {
		return nil, fmt.Errorf("Charge: %w: %v", domain.ErrMalformedPayload, err)
	}
	if charge.Currency == "" {
		return nil, fmt.Errorf("Charge: missing currency: %w", domain.ErrMalformedPayload)
	}
	if charge.Amount < 0 {
		return nil, fmt.Errorf("Charge: negative amount %d: %w", charge.Amount, domain.ErrMalformedPayload)
	}
	return &charge, nil
}

func verifySignature(payload []byte, sigHeader, secret string, tolerance time.Duration, now time.Time) error {
	if sigHeader == "" {
		return fmt.Errorf("verifySignature: missing header: %w", domain.ErrSignatureInvalid)
	}

	var ts int64 = -1
	var candidates []string
	for _, part := range strings.Split(sigHeader, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("verifySignature: bad timestamp %q: %w", v, domain.ErrSignatureInvalid)
			}
			ts = parsed
		case signingVersion:
			candidates = append(candidates, v)
		}
	}

	if ts < 0 || len(candidates) == 0 {
		return fmt.Errorf("verifySignature: header missing timestamp or %s entry: %w", signingVersion, domain.ErrSignatureInvalid)
	}

	age := now.Sub(time.Unix(ts, 0))
	if age > tolerance || age < -tolerance {
		return fmt.Errorf("verifySignature: timestamp outside tolerance: %w", domain.ErrSignatureInvalid)
	}

	expected := ComputeSignature(payload, ts, secret)
	for _, candidate := range candidates {
		if hmac.Equal([]byte(expected), []byte(candidate)) {
			return nil
		}
	}
	return fmt.Errorf("verifySignature: no matching signature: %w", domain.ErrSignatureInvalid)
}

// ComputeSignature produces the hex HMAC-SHA256 of "<timestamp>.<payload>".
// Exported for the mock processor and tests.
func ComputeSignature(payload []byte, ts int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignHeader builds a complete signature header for a payload, as the
// processor would send it.
func SignHeader(payload []byte, ts int64, secret string) string {
	return fmt.Sprintf("t=%d,%s=%s", ts, signingVersion, ComputeSignature(payload, ts, secret))
}
