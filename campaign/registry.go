// Package campaign implements a reward-campaign registry and the one-shot
// funding vaults it creates.
//
// A Registry holds platform policy: the token allowlist, the distributor,
// the fee wallet and percentage, and the vault implementation template.
// CreateCampaign stamps that policy onto a new Vault with its own custody
// address. Each vault is funded exactly once by its campaign creator, pays
// the platform fee on the way in, and is closed by a single atomic reward
// distribution authorized by the distributor it was created with.
//
// All balance movements go through a token.Service; the registry itself
// never holds funds.
package campaign

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/campvaultorg/libcampvault-go/token"
)

// Registry is the campaign directory and policy holder.
// It is safe for concurrent use.
type Registry struct {
	mu sync.Mutex

	authority   string
	template    string
	distributor string
	feeWallet   string
	feePercent  uint64

	allowed     map[string]struct{}
	allowedList []string

	vaults map[uint64]*Vault
	count  uint64

	tokens  token.Service
	custody CustodyFunc
	log     *EventLog
}

// NewRegistry creates a registry with the given policy, token collaborator,
// and custody address allocator. Every policy value is validated up front;
// a registry that constructs is fully usable.
func NewRegistry(p Params, tokens token.Service, custody CustodyFunc) (*Registry, error) {
	if p.Authority == "" {
		return nil, fmt.Errorf("%w: authority", ErrZeroAddress)
	}
	if p.Template == "" {
		return nil, ErrInvalidTemplate
	}
	if p.Distributor == "" {
		return nil, ErrInvalidDistributor
	}
	if p.FeeWallet == "" {
		return nil, ErrInvalidFeeWallet
	}
	if p.FeePercent > 100 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFeePercent, p.FeePercent)
	}
	if tokens == nil {
		return nil, fmt.Errorf("%w: token service", ErrNilParam)
	}
	if custody == nil {
		return nil, fmt.Errorf("%w: custody allocator", ErrNilParam)
	}
	return &Registry{
		authority:   p.Authority,
		template:    p.Template,
		distributor: p.Distributor,
		feeWallet:   p.FeeWallet,
		feePercent:  p.FeePercent,
		allowed:     make(map[string]struct{}),
		vaults:      make(map[uint64]*Vault),
		tokens:      tokens,
		custody:     custody,
		log:         NewEventLog(),
	}, nil
}

// CreateCampaign allocates the next campaign id, derives its custody
// address, and initializes a vault carrying the registry's current template
// and distributor. Anyone may create a campaign; only a custody allocation
// failure can make it fail.
func (r *Registry) CreateCampaign(caller string) (*Vault, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.count + 1
	custody, err := r.custody(id)
	if err != nil {
		return nil, fmt.Errorf("campaign: allocate custody address: %w", err)
	}

	v := &Vault{
		id:       id,
		template: r.template,
		custody:  custody,
	}
	if err := v.Initialize(r, r.distributor, caller); err != nil {
		return nil, err
	}

	r.vaults[id] = v
	r.count = id

	r.log.Append(Event{
		Type:       EventCampaignCreated,
		CampaignID: id,
		Attrs: map[string]string{
			"creator": caller,
			"custody": custody,
		},
	})
	return v, nil
}

// requireAuthority must be called with r.mu held.
func (r *Registry) requireAuthority(caller string) error {
	if caller != r.authority {
		return fmt.Errorf("%w: %q", ErrNotAuthority, caller)
	}
	return nil
}

// AddAllowedToken puts a token on the funding allowlist. Adding a token
// that is already listed is a no-op.
func (r *Registry) AddAllowedToken(caller, tok string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireAuthority(caller); err != nil {
		return err
	}
	if tok == "" {
		return ErrInvalidTokenAddress
	}
	if _, ok := r.allowed[tok]; ok {
		return nil
	}
	r.allowed[tok] = struct{}{}
	r.allowedList = append(r.allowedList, tok)
	r.log.Append(Event{
		Type:  EventTokenAdded,
		Attrs: map[string]string{"token": tok},
	})
	return nil
}

// RemoveAllowedToken takes a token off the funding allowlist. Removing a
// token that is not listed is a no-op. Removal does not affect campaigns
// already funded with the token.
func (r *Registry) RemoveAllowedToken(caller, tok string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireAuthority(caller); err != nil {
		return err
	}
	if tok == "" {
		return ErrInvalidTokenAddress
	}
	if _, ok := r.allowed[tok]; !ok {
		return nil
	}
	delete(r.allowed, tok)
	// Swap with the last entry and truncate; list order is not preserved.
	for i, t := range r.allowedList {
		if t == tok {
			last := len(r.allowedList) - 1
			r.allowedList[i] = r.allowedList[last]
			r.allowedList = r.allowedList[:last]
			break
		}
	}
	r.log.Append(Event{
		Type:  EventTokenRemoved,
		Attrs: map[string]string{"token": tok},
	})
	return nil
}

// SetTemplate changes the implementation template stamped onto future
// campaigns. Existing campaigns keep the template they were created with.
func (r *Registry) SetTemplate(caller, template string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireAuthority(caller); err != nil {
		return err
	}
	if template == "" {
		return ErrInvalidTemplate
	}
	r.template = template
	r.log.Append(Event{
		Type:  EventTemplateUpdated,
		Attrs: map[string]string{"template": template},
	})
	return nil
}

// SetDistributor changes the distributor snapshotted into future campaigns.
// Existing campaigns keep the distributor they were created with.
func (r *Registry) SetDistributor(caller, distributor string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireAuthority(caller); err != nil {
		return err
	}
	if distributor == "" {
		return ErrInvalidDistributor
	}
	old := r.distributor
	r.distributor = distributor
	r.log.Append(Event{
		Type:  EventDistributorUpdated,
		Attrs: map[string]string{"old": old, "new": distributor},
	})
	return nil
}

// SetFeeWallet changes where future funding fees are paid.
func (r *Registry) SetFeeWallet(caller, wallet string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireAuthority(caller); err != nil {
		return err
	}
	if wallet == "" {
		return ErrInvalidFeeWallet
	}
	old := r.feeWallet
	r.feeWallet = wallet
	r.log.Append(Event{
		Type:  EventFeeWalletUpdated,
		Attrs: map[string]string{"old": old, "new": wallet},
	})
	return nil
}

// SetFeePercent changes the fee taken from future fundings. Already-funded
// campaigns are unaffected.
func (r *Registry) SetFeePercent(caller string, percent uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireAuthority(caller); err != nil {
		return err
	}
	if percent > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidFeePercent, percent)
	}
	old := r.feePercent
	r.feePercent = percent
	r.log.Append(Event{
		Type: EventFeePercentUpdated,
		Attrs: map[string]string{
			"old": strconv.FormatUint(old, 10),
			"new": strconv.FormatUint(percent, 10),
		},
	})
	return nil
}

// IsTokenAllowed reports whether a token is currently on the allowlist.
func (r *Registry) IsTokenAllowed(tok string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.allowed[tok]
	return ok
}

// AllowedTokens returns a copy of the current allowlist.
func (r *Registry) AllowedTokens() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.allowedList))
	copy(out, r.allowedList)
	return out
}

// Authority returns the administrative authority. It is fixed at
// construction.
func (r *Registry) Authority() string { return r.authority }

// Template returns the implementation template for future campaigns.
func (r *Registry) Template() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.template
}

// Distributor returns the distributor for future campaigns.
func (r *Registry) Distributor() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.distributor
}

// FeeWallet returns the current fee wallet.
func (r *Registry) FeeWallet() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.feeWallet
}

// FeePercent returns the current fee percentage.
func (r *Registry) FeePercent() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.feePercent
}

// feeSettings returns the fee wallet and percentage as one consistent pair.
func (r *Registry) feeSettings() (string, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.feeWallet, r.feePercent
}

// Campaign returns the vault for a campaign id.
func (r *Registry) Campaign(id uint64) (*Vault, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vaults[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrCampaignNotFound, id)
	}
	return v, nil
}

// CampaignCount returns how many campaigns have been created.
func (r *Registry) CampaignCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Campaigns returns every campaign vault in creation order.
func (r *Registry) Campaigns() []*Vault {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Vault, 0, r.count)
	for id := uint64(1); id <= r.count; id++ {
		out = append(out, r.vaults[id])
	}
	return out
}

// FundedCampaigns returns the funded campaign vaults in creation order.
// The directory is walked twice: once to size the result, once to fill it.
func (r *Registry) FundedCampaigns() []*Vault {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	for id := uint64(1); id <= r.count; id++ {
		if r.vaults[id].Funded() {
			n++
		}
	}
	out := make([]*Vault, 0, n)
	for id := uint64(1); id <= r.count; id++ {
		if v := r.vaults[id]; v.Funded() {
			out = append(out, v)
		}
	}
	return out
}

// Events returns a copy of the registry's event journal in append order.
func (r *Registry) Events() []Event {
	return r.log.Events()
}

// EventsByType returns journal events of one type, in append order.
func (r *Registry) EventsByType(t EventType) []Event {
	return r.log.EventsByType(t)
}

// EventsByCampaign returns journal events for one campaign, in append order.
func (r *Registry) EventsByCampaign(id uint64) []Event {
	return r.log.EventsByCampaign(id)
}
