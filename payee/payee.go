// Package payee resolves payout handles to ledger addresses.
//
// A handle has the form alias@domain. The domain owner publishes a TXT
// record at <alias>._campvault.<domain> whose value carries the payout
// address with a "campvault=" prefix, e.g. "campvault=1BvBMSEYstWet...".
// Resolution returns the address from the first matching record; the
// campaign core itself only ever sees plain addresses.
package payee

import (
	"fmt"
	"strings"
)

// txtPrefix marks the address value inside a handle's TXT record.
const txtPrefix = "campvault="

// Handle is a parsed payout handle.
type Handle struct {
	Alias  string
	Domain string
}

// String returns the handle in alias@domain form.
func (h Handle) String() string {
	return h.Alias + "@" + h.Domain
}

// ParseHandle parses an alias@domain payout handle.
// Both parts must be non-empty and the domain must not contain another '@'.
func ParseHandle(handle string) (Handle, error) {
	if handle == "" {
		return Handle{}, fmt.Errorf("%w: empty handle", ErrInvalidHandle)
	}

	parts := strings.SplitN(handle, "@", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Handle{}, fmt.Errorf("%w: %q", ErrInvalidHandle, handle)
	}
	if strings.Contains(parts[1], "@") {
		return Handle{}, fmt.Errorf("%w: %q", ErrInvalidHandle, handle)
	}

	return Handle{Alias: parts[0], Domain: parts[1]}, nil
}

// recordName returns the DNS name that carries a handle's TXT record.
func recordName(h Handle) string {
	return h.Alias + "._campvault." + h.Domain
}

// ResolveAddress resolves a payout handle to a ledger address using the
// default DNS resolver.
func ResolveAddress(handle string) (string, error) {
	return ResolveAddressWithResolver(handle, DefaultDNSResolver)
}

// ResolveAddressWithResolver resolves a payout handle using the provided
// DNS resolver.
//
// It looks up TXT records at <alias>._campvault.<domain> and returns the
// address from the first record with the "campvault=" prefix.
func ResolveAddressWithResolver(handle string, resolver DNSResolver) (string, error) {
	h, err := ParseHandle(handle)
	if err != nil {
		return "", err
	}

	name := recordName(h)
	txts, err := resolver.LookupTXT(name)
	if err != nil {
		return "", fmt.Errorf("%w: TXT lookup for %s: %w", ErrLookupFailed, name, err)
	}

	// Find the first TXT record with the "campvault=" prefix.
	for _, txt := range txts {
		txt = strings.TrimSpace(txt)
		if !strings.HasPrefix(txt, txtPrefix) {
			continue
		}
		addr := strings.TrimSpace(strings.TrimPrefix(txt, txtPrefix))
		if addr == "" {
			return "", fmt.Errorf("%w: empty campvault= record for %s", ErrNoAddress, name)
		}
		return addr, nil
	}

	return "", fmt.Errorf("%w: no campvault= TXT record for %s", ErrNoAddress, name)
}
