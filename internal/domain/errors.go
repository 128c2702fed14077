package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrSignatureInvalid = errors.New("webhook signature invalid")
	ErrMalformedPayload = errors.New("malformed webhook payload")
)
