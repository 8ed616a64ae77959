package payee

import "errors"

var (
	// ErrInvalidHandle indicates a payout handle is not of the form alias@domain.
	ErrInvalidHandle = errors.New("payee: invalid payout handle")

	// ErrLookupFailed indicates a DNS TXT lookup failed.
	ErrLookupFailed = errors.New("payee: DNS lookup failed")

	// ErrNoAddress indicates the handle's domain publishes no address record.
	ErrNoAddress = errors.New("payee: no address record found")

	// ErrValidationFailed indicates the DNS response was not DNSSEC-authenticated.
	ErrValidationFailed = errors.New("payee: DNSSEC validation failed")
)
