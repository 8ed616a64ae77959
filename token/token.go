// Package token defines the fungible-token service consumed by the campaign
// engine, an in-memory multi-token ledger, and a test mock.
//
// The engine never touches balances directly: every movement of funds goes
// through the Service interface, so deployments can back it with any ledger
// that speaks it.
package token

import "context"

// Output is a single payout leg in a batch transfer.
type Output struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// Service is the primary interface for fungible-token interaction.
// Token, holder, and spender values are opaque address strings; the empty
// string is the null address.
type Service interface {
	// BalanceOf returns the balance held by owner for the given token.
	BalanceOf(ctx context.Context, token, owner string) (uint64, error)

	// Transfer moves amount from one holder to another.
	Transfer(ctx context.Context, token, from, to string, amount uint64) error

	// TransferFrom moves amount between holders on behalf of spender,
	// consuming the allowance that from granted to spender.
	TransferFrom(ctx context.Context, token, spender, from, to string, amount uint64) error

	// Approve grants spender the right to move up to amount of owner's
	// funds. A second call replaces the previous allowance.
	Approve(ctx context.Context, token, owner, spender string, amount uint64) error

	// TransferBatch pays every output in order from a single holder.
	// The batch is atomic: either every output is paid or none is.
	TransferBatch(ctx context.Context, token, from string, outs []Output) error
}
