package token

import (
	"context"
	"fmt"
	"sync"
)

// tokenState holds the full in-memory state of one token.
type tokenState struct {
	name        string
	symbol      string
	decimals    uint8
	totalSupply uint64
	balances    map[string]uint64
	allowances  map[string]map[string]uint64 // owner -> spender -> amount
}

// Info describes a registered token.
type Info struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	TotalSupply uint64 `json:"total_supply"`
}

// Ledger is an in-memory multi-token ledger implementing Service.
//
// It enforces balances, allowances, and supply arithmetic but not caller
// identity: authorization is the embedding application's concern. All
// methods are safe for concurrent use.
type Ledger struct {
	mu     sync.Mutex
	tokens map[string]*tokenState
}

// Compile-time interface check.
var _ Service = (*Ledger)(nil)

// NewLedger creates an empty ledger with no tokens registered.
func NewLedger() *Ledger {
	return &Ledger{tokens: make(map[string]*tokenState)}
}

// CreateToken registers a new token at the given address with zero supply.
func (l *Ledger) CreateToken(token, name, symbol string, decimals uint8) error {
	if token == "" {
		return fmt.Errorf("%w: token", ErrZeroAddress)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.tokens[token]; ok {
		return fmt.Errorf("%w: %s", ErrTokenExists, token)
	}
	l.tokens[token] = &tokenState{
		name:       name,
		symbol:     symbol,
		decimals:   decimals,
		balances:   make(map[string]uint64),
		allowances: make(map[string]map[string]uint64),
	}
	return nil
}

// Mint credits amount to the holder and grows the token's total supply.
func (l *Ledger) Mint(token, to string, amount uint64) error {
	if to == "" {
		return fmt.Errorf("%w: mint recipient", ErrZeroAddress)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	ts, err := l.lookup(token)
	if err != nil {
		return err
	}
	if ts.totalSupply+amount < ts.totalSupply {
		return fmt.Errorf("%w: minting %d", ErrSupplyOverflow, amount)
	}
	ts.totalSupply += amount
	ts.balances[to] += amount
	return nil
}

// TokenInfo returns the descriptive record for a registered token.
func (l *Ledger) TokenInfo(token string) (Info, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ts, err := l.lookup(token)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Name:        ts.name,
		Symbol:      ts.symbol,
		Decimals:    ts.decimals,
		TotalSupply: ts.totalSupply,
	}, nil
}

// BalanceOf returns the balance held by owner.
func (l *Ledger) BalanceOf(ctx context.Context, token, owner string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ts, err := l.lookup(token)
	if err != nil {
		return 0, err
	}
	return ts.balances[owner], nil
}

// Allowance returns how much spender may still move out of owner's balance.
func (l *Ledger) Allowance(ctx context.Context, token, owner, spender string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ts, err := l.lookup(token)
	if err != nil {
		return 0, err
	}
	return ts.allowances[owner][spender], nil
}

// Transfer moves amount from one holder to another.
func (l *Ledger) Transfer(ctx context.Context, token, from, to string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	ts, err := l.lookup(token)
	if err != nil {
		return err
	}
	return ts.transfer(from, to, amount)
}

// TransferFrom moves amount between holders on behalf of spender,
// consuming spender's allowance from the owner.
func (l *Ledger) TransferFrom(ctx context.Context, token, spender, from, to string, amount uint64) error {
	if spender == "" {
		return fmt.Errorf("%w: spender", ErrZeroAddress)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	ts, err := l.lookup(token)
	if err != nil {
		return err
	}
	grants := ts.allowances[from]
	granted := grants[spender]
	if granted < amount {
		return fmt.Errorf("%w: granted %d, need %d", ErrInsufficientAllowance, granted, amount)
	}
	if err := ts.transfer(from, to, amount); err != nil {
		return err
	}
	if grants == nil {
		grants = make(map[string]uint64)
		ts.allowances[from] = grants
	}
	grants[spender] = granted - amount
	return nil
}

// Approve sets spender's allowance over owner's balance, replacing any
// previous grant.
func (l *Ledger) Approve(ctx context.Context, token, owner, spender string, amount uint64) error {
	if owner == "" || spender == "" {
		return fmt.Errorf("%w: owner and spender", ErrZeroAddress)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	ts, err := l.lookup(token)
	if err != nil {
		return err
	}
	grants := ts.allowances[owner]
	if grants == nil {
		grants = make(map[string]uint64)
		ts.allowances[owner] = grants
	}
	grants[spender] = amount
	return nil
}

// TransferBatch pays every output in order from a single holder. The whole
// batch is validated before any balance moves, so a failure pays nobody.
func (l *Ledger) TransferBatch(ctx context.Context, token, from string, outs []Output) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	ts, err := l.lookup(token)
	if err != nil {
		return err
	}
	if from == "" {
		return fmt.Errorf("%w: batch sender", ErrZeroAddress)
	}
	var total uint64
	for i, out := range outs {
		if out.To == "" {
			return fmt.Errorf("%w: batch output %d", ErrZeroAddress, i)
		}
		if total+out.Amount < total {
			return fmt.Errorf("%w: batch total overflows", ErrInsufficientBalance)
		}
		total += out.Amount
	}
	if bal := ts.balances[from]; bal < total {
		return fmt.Errorf("%w: have %d, batch needs %d", ErrInsufficientBalance, bal, total)
	}
	for _, out := range outs {
		ts.balances[from] -= out.Amount
		ts.balances[out.To] += out.Amount
	}
	return nil
}

// lookup must be called with l.mu held.
func (l *Ledger) lookup(token string) (*tokenState, error) {
	ts, ok := l.tokens[token]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownToken, token)
	}
	return ts, nil
}

// transfer moves amount within one token's balances. Zero-amount transfers
// are permitted, matching common fungible-token semantics.
func (ts *tokenState) transfer(from, to string, amount uint64) error {
	if from == "" || to == "" {
		return fmt.Errorf("%w: transfer endpoints", ErrZeroAddress)
	}
	bal := ts.balances[from]
	if bal < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, bal, amount)
	}
	ts.balances[from] = bal - amount
	ts.balances[to] += amount
	return nil
}
