package token

import "errors"

var (
	// ErrUnknownToken indicates the token address is not registered in the ledger.
	ErrUnknownToken = errors.New("token: unknown token")

	// ErrTokenExists indicates a token is already registered at the address.
	ErrTokenExists = errors.New("token: token already exists")

	// ErrZeroAddress indicates an empty address where a real one is required.
	ErrZeroAddress = errors.New("token: zero address")

	// ErrInsufficientBalance indicates the holder's balance cannot cover the transfer.
	ErrInsufficientBalance = errors.New("token: insufficient balance")

	// ErrInsufficientAllowance indicates the spender's allowance cannot cover the transfer.
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")

	// ErrSupplyOverflow indicates a mint would overflow the token's total supply.
	ErrSupplyOverflow = errors.New("token: total supply overflow")
)
