package campaign

import (
	"fmt"

	"github.com/campvaultorg/libcampvault-go/token"
)

// RegistryState is the persistent form of a registry's policy.
type RegistryState struct {
	Authority   string
	Template    string
	Distributor string
	FeeWallet   string
	FeePercent  uint64
	Allowed     []string
	Count       uint64
}

// VaultState is the persistent form of one campaign vault.
type VaultState struct {
	ID          uint64
	Template    string
	Custody     string
	Creator     string
	Distributor string
	Token       string
	FundAmount  uint64
	Funded      bool
	Finalized   bool
}

// Snapshot is a complete, self-contained copy of a deployment's state:
// registry policy, every campaign vault, and the event journal.
type Snapshot struct {
	Registry RegistryState
	Vaults   []VaultState
	Events   []Event
}

// Snapshot captures the registry and all its campaigns as plain records.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	state := RegistryState{
		Authority:   r.authority,
		Template:    r.template,
		Distributor: r.distributor,
		FeeWallet:   r.feeWallet,
		FeePercent:  r.feePercent,
		Allowed:     make([]string, len(r.allowedList)),
		Count:       r.count,
	}
	copy(state.Allowed, r.allowedList)
	vaults := make([]*Vault, 0, r.count)
	for id := uint64(1); id <= r.count; id++ {
		vaults = append(vaults, r.vaults[id])
	}
	r.mu.Unlock()

	snap := Snapshot{
		Registry: state,
		Vaults:   make([]VaultState, len(vaults)),
	}
	for i, v := range vaults {
		snap.Vaults[i] = v.state()
	}
	snap.Events = r.log.Events()
	return snap
}

// state captures the vault's persistent fields.
func (v *Vault) state() VaultState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return VaultState{
		ID:          v.id,
		Template:    v.template,
		Custody:     v.custody,
		Creator:     v.creator,
		Distributor: v.distributor,
		Token:       v.token,
		FundAmount:  v.fundAmount,
		Funded:      v.funded,
		Finalized:   v.finalized,
	}
}

// Restore rebuilds a live registry from a snapshot. The token service and
// custody allocator are runtime collaborators and are supplied fresh; the
// snapshot carries everything else, including campaigns already finalized.
func Restore(snap Snapshot, tokens token.Service, custody CustodyFunc) (*Registry, error) {
	r, err := NewRegistry(Params{
		Authority:   snap.Registry.Authority,
		Template:    snap.Registry.Template,
		Distributor: snap.Registry.Distributor,
		FeeWallet:   snap.Registry.FeeWallet,
		FeePercent:  snap.Registry.FeePercent,
	}, tokens, custody)
	if err != nil {
		return nil, err
	}
	for _, tok := range snap.Registry.Allowed {
		if tok == "" {
			return nil, fmt.Errorf("%w: empty allowlist entry", ErrInvalidSnapshot)
		}
		r.allowed[tok] = struct{}{}
		r.allowedList = append(r.allowedList, tok)
	}
	if uint64(len(snap.Vaults)) != snap.Registry.Count {
		return nil, fmt.Errorf("%w: %d campaigns recorded, count %d",
			ErrInvalidSnapshot, len(snap.Vaults), snap.Registry.Count)
	}
	for _, vs := range snap.Vaults {
		if vs.ID == 0 || vs.ID > snap.Registry.Count {
			return nil, fmt.Errorf("%w: campaign id %d out of range", ErrInvalidSnapshot, vs.ID)
		}
		if _, ok := r.vaults[vs.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate campaign id %d", ErrInvalidSnapshot, vs.ID)
		}
		r.vaults[vs.ID] = &Vault{
			reg:         r,
			id:          vs.ID,
			template:    vs.Template,
			custody:     vs.Custody,
			creator:     vs.Creator,
			distributor: vs.Distributor,
			token:       vs.Token,
			fundAmount:  vs.FundAmount,
			funded:      vs.Funded,
			finalized:   vs.Finalized,
			initialized: true,
		}
	}
	r.count = snap.Registry.Count
	r.log.restore(snap.Events)
	return r, nil
}
