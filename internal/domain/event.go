package domain

// EventTypeChargeSucceeded is the only processor event type that moves the
// ledger; everything else is acknowledged as a no-op.
const EventTypeChargeSucceeded = "charge.succeeded"
