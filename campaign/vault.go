package campaign

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/campvaultorg/libcampvault-go/token"
)

// Vault escrows one campaign's funds from creation through distribution.
//
// The lifecycle is linear: initialized at creation, funded exactly once by
// the campaign creator, then finalized by one atomic reward distribution
// authorized by the distributor the vault was created with. RescueToken is
// available to the distributor in every state and transitions nothing.
//
// The zero value is not usable; vaults are created by
// Registry.CreateCampaign.
type Vault struct {
	mu sync.Mutex

	reg *Registry

	id       uint64
	template string
	custody  string

	creator     string
	distributor string

	token      string
	fundAmount uint64

	funded      bool
	finalized   bool
	initialized bool
}

// Initialize binds the vault to its registry, distributor, and creator.
// It succeeds at most once; the bindings are permanent.
func (v *Vault) Initialize(reg *Registry, distributor, creator string) error {
	if reg == nil {
		return fmt.Errorf("%w: registry", ErrZeroAddress)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.initialized {
		return ErrAlreadyInitialized
	}
	v.reg = reg
	v.distributor = distributor
	v.creator = creator
	v.initialized = true
	return nil
}

// Fund deposits the campaign's reward pool. Only the creator may fund, and
// only once. The gross amount is pulled from the creator into custody (the
// creator must have approved the custody address as spender beforehand),
// and the platform fee is pushed on to the fee wallet. Any transfer failure
// unwinds the whole operation.
func (v *Vault) Fund(ctx context.Context, caller, tok string, amount uint64) error {
	// Registry policy is read before taking the vault lock; the registry
	// calls into vaults while holding its own lock.
	allowed := v.reg.IsTokenAllowed(tok)
	feeWallet, feePercent := v.reg.feeSettings()

	v.mu.Lock()
	if caller != v.creator {
		v.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrOnlyCreatorCanFund, caller)
	}
	if v.funded {
		v.mu.Unlock()
		return ErrAlreadyFunded
	}
	if amount == 0 {
		v.mu.Unlock()
		return ErrInvalidAmount
	}
	if !allowed {
		v.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrTokenNotAllowed, tok)
	}

	fee, net := feeSplit(amount, feePercent)

	// The vault is marked funded before any transfer runs, so a reentrant
	// observer sees the post-transition state.
	v.token = tok
	v.fundAmount = net
	v.funded = true
	custody := v.custody
	v.mu.Unlock()

	if err := v.reg.tokens.TransferFrom(ctx, tok, custody, caller, custody, amount); err != nil {
		v.rollbackFunding()
		return fmt.Errorf("campaign: pull funding: %w", err)
	}

	if fee > 0 && feeWallet != "" {
		if err := v.reg.tokens.Transfer(ctx, tok, custody, feeWallet, fee); err != nil {
			// Return the pulled gross to the creator before unwinding.
			if rerr := v.reg.tokens.Transfer(ctx, tok, custody, caller, amount); rerr != nil {
				v.rollbackFunding()
				return fmt.Errorf("campaign: pay fee failed (%v), refund failed: %w", err, rerr)
			}
			v.rollbackFunding()
			return fmt.Errorf("campaign: pay fee: %w", err)
		}
	}

	v.reg.log.Append(Event{
		Type:       EventVaultFunded,
		CampaignID: v.id,
		Attrs: map[string]string{
			"creator": caller,
			"token":   tok,
			"amount":  strconv.FormatUint(amount, 10),
		},
	})
	return nil
}

// rollbackFunding unwinds the funding fields after a failed transfer.
func (v *Vault) rollbackFunding() {
	v.mu.Lock()
	v.token = ""
	v.fundAmount = 0
	v.funded = false
	v.mu.Unlock()
}

// DistributeRewards pays the whole reward batch out of custody and
// finalizes the campaign. Only the vault's distributor may call it, and it
// succeeds at most once. The batch is all-or-nothing: a transfer failure
// pays nobody and leaves the campaign open.
func (v *Vault) DistributeRewards(ctx context.Context, caller string, rewards []Reward) error {
	v.mu.Lock()
	if caller != v.distributor {
		v.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnauthorizedDistributor, caller)
	}
	if v.finalized {
		v.mu.Unlock()
		return ErrCampaignFinalized
	}
	if len(rewards) == 0 {
		v.mu.Unlock()
		return ErrEmptyRewardList
	}
	var total uint64
	for i, rw := range rewards {
		if rw.Recipient == "" {
			v.mu.Unlock()
			return fmt.Errorf("%w: reward %d", ErrZeroAddress, i)
		}
		if rw.Amount == 0 {
			v.mu.Unlock()
			return fmt.Errorf("%w: reward %d", ErrInvalidAmount, i)
		}
		if total+rw.Amount < total {
			v.mu.Unlock()
			return fmt.Errorf("%w: batch total overflows", ErrInsufficientFunds)
		}
		total += rw.Amount
	}
	tok := v.token
	custody := v.custody
	v.mu.Unlock()

	// The live balance decides, not the recorded net: rescues may have
	// drained custody since funding. An unfunded vault has no token and a
	// zero balance, so every batch fails here.
	var balance uint64
	if tok != "" {
		var err error
		balance, err = v.reg.tokens.BalanceOf(ctx, tok, custody)
		if err != nil {
			return fmt.Errorf("campaign: query balance: %w", err)
		}
	}
	if total > balance {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientFunds, total, balance)
	}

	v.mu.Lock()
	if v.finalized {
		v.mu.Unlock()
		return ErrCampaignFinalized
	}
	// Finalize before paying so a reentrant observer cannot race a second
	// distribution into the transfer window.
	v.finalized = true
	v.mu.Unlock()

	outs := make([]token.Output, len(rewards))
	for i, rw := range rewards {
		outs[i] = token.Output{To: rw.Recipient, Amount: rw.Amount}
	}
	if err := v.reg.tokens.TransferBatch(ctx, tok, custody, outs); err != nil {
		v.mu.Lock()
		v.finalized = false
		v.mu.Unlock()
		return fmt.Errorf("campaign: distribute rewards: %w", err)
	}

	payload, _ := json.Marshal(rewards)
	v.reg.log.Append(Event{
		Type:       EventRewardsDistributed,
		CampaignID: v.id,
		Attrs: map[string]string{
			"distributor": caller,
			"total":       strconv.FormatUint(total, 10),
		},
		Payload: payload,
	})
	return nil
}

// RescueToken moves any token out of custody to any recipient. Only the
// vault's distributor may call it, in any lifecycle state; it does not
// touch the funding or finalization flags. Beyond the authorization check
// it is deliberately unguarded: the ledger's own balance checks are the
// only backstop. This is the escape hatch for funds that are stuck or were
// sent to custody outside the funding flow.
func (v *Vault) RescueToken(ctx context.Context, caller, recipient, tok string, amount uint64) error {
	v.mu.Lock()
	if caller != v.distributor {
		v.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnauthorizedDistributor, caller)
	}
	custody := v.custody
	v.mu.Unlock()

	if err := v.reg.tokens.Transfer(ctx, tok, custody, recipient, amount); err != nil {
		return fmt.Errorf("campaign: rescue transfer: %w", err)
	}

	v.reg.log.Append(Event{
		Type:       EventTokenRescued,
		CampaignID: v.id,
		Attrs: map[string]string{
			"distributor": caller,
			"recipient":   recipient,
			"token":       tok,
			"amount":      strconv.FormatUint(amount, 10),
		},
	})
	return nil
}

// feeSplit divides a gross funding amount into platform fee and net
// deposit. Equivalent to floor(amount*percent/100) without intermediate
// overflow; fee+net == amount always holds.
func feeSplit(amount, percent uint64) (fee, net uint64) {
	fee = amount/100*percent + amount%100*percent/100
	return fee, amount - fee
}

// ID returns the campaign id.
func (v *Vault) ID() uint64 { return v.id }

// Template returns the implementation template the vault was created with.
func (v *Vault) Template() string { return v.template }

// CustodyAddress returns the vault's ledger account.
func (v *Vault) CustodyAddress() string { return v.custody }

// Creator returns the campaign creator.
func (v *Vault) Creator() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.creator
}

// Distributor returns the distributor the vault was created with. Later
// registry distributor changes do not affect it.
func (v *Vault) Distributor() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.distributor
}

// TokenAddress returns the funding token, or "" before funding.
func (v *Vault) TokenAddress() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.token
}

// FundAmount returns the net amount deposited at funding, after the fee.
func (v *Vault) FundAmount() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fundAmount
}

// Funded reports whether the vault has been funded.
func (v *Vault) Funded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.funded
}

// Finalized reports whether rewards have been distributed.
func (v *Vault) Finalized() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.finalized
}

// Balance returns the live custody balance of the funding token, or zero
// if the vault has not been funded yet.
func (v *Vault) Balance(ctx context.Context) (uint64, error) {
	v.mu.Lock()
	tok := v.token
	custody := v.custody
	v.mu.Unlock()
	if tok == "" {
		return 0, nil
	}
	bal, err := v.reg.tokens.BalanceOf(ctx, tok, custody)
	if err != nil {
		return 0, fmt.Errorf("campaign: query balance: %w", err)
	}
	return bal, nil
}
