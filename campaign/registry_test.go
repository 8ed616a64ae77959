package campaign

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campvaultorg/libcampvault-go/token"
)

const (
	testAuthority   = "addr-authority"
	testDistributor = "addr-distributor"
	testFeeWallet   = "addr-feewallet"
	testTemplate    = "vault-impl-v1"
	testToken       = "tok-camp"
	testCreator     = "addr-creator"
)

func testCustody(id uint64) (string, error) {
	return fmt.Sprintf("custody-%d", id), nil
}

func testParams() Params {
	return Params{
		Authority:   testAuthority,
		Template:    testTemplate,
		Distributor: testDistributor,
		FeeWallet:   testFeeWallet,
		FeePercent:  5,
	}
}

// newTestLedger returns a ledger with the campaign token registered and the
// creator holding a million units.
func newTestLedger(t *testing.T) *token.Ledger {
	t.Helper()
	l := token.NewLedger()
	require.NoError(t, l.CreateToken(testToken, "Camp Token", "CAMP", 8))
	require.NoError(t, l.Mint(testToken, testCreator, 1_000_000))
	return l
}

// newTestRegistry returns a registry over the given token service with the
// campaign token allowlisted and a 5% fee.
func newTestRegistry(t *testing.T, svc token.Service) *Registry {
	t.Helper()
	r, err := NewRegistry(testParams(), svc, testCustody)
	require.NoError(t, err)
	require.NoError(t, r.AddAllowedToken(testAuthority, testToken))
	return r
}

// fundTestVault creates a campaign and funds it with the given gross amount,
// approving custody as spender on the way.
func fundTestVault(t *testing.T, l *token.Ledger, r *Registry, amount uint64) *Vault {
	t.Helper()
	ctx := context.Background()
	v, err := r.CreateCampaign(testCreator)
	require.NoError(t, err)
	require.NoError(t, l.Approve(ctx, testToken, testCreator, v.CustodyAddress(), amount))
	require.NoError(t, v.Fund(ctx, testCreator, testToken, amount))
	return v
}

// --- Construction tests ---

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry(testParams(), token.NewLedger(), testCustody)
	require.NoError(t, err)

	assert.Equal(t, testAuthority, r.Authority())
	assert.Equal(t, testTemplate, r.Template())
	assert.Equal(t, testDistributor, r.Distributor())
	assert.Equal(t, testFeeWallet, r.FeeWallet())
	assert.Equal(t, uint64(5), r.FeePercent())
	assert.Equal(t, uint64(0), r.CampaignCount())
	assert.Empty(t, r.AllowedTokens())
}

func TestNewRegistry_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Params)
		wantErr error
	}{
		{"empty authority", func(p *Params) { p.Authority = "" }, ErrZeroAddress},
		{"empty template", func(p *Params) { p.Template = "" }, ErrInvalidTemplate},
		{"empty distributor", func(p *Params) { p.Distributor = "" }, ErrInvalidDistributor},
		{"empty fee wallet", func(p *Params) { p.FeeWallet = "" }, ErrInvalidFeeWallet},
		{"fee percent over 100", func(p *Params) { p.FeePercent = 101 }, ErrInvalidFeePercent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			tt.mutate(&p)
			_, err := NewRegistry(p, token.NewLedger(), testCustody)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewRegistry_FeePercentBounds(t *testing.T) {
	for _, pct := range []uint64{0, 100} {
		p := testParams()
		p.FeePercent = pct
		_, err := NewRegistry(p, token.NewLedger(), testCustody)
		assert.NoError(t, err)
	}
}

func TestNewRegistry_NilCollaborators(t *testing.T) {
	_, err := NewRegistry(testParams(), nil, testCustody)
	assert.ErrorIs(t, err, ErrNilParam)

	_, err = NewRegistry(testParams(), token.NewLedger(), nil)
	assert.ErrorIs(t, err, ErrNilParam)
}

// --- CreateCampaign tests ---

func TestCreateCampaign(t *testing.T) {
	r := newTestRegistry(t, newTestLedger(t))

	v, err := r.CreateCampaign(testCreator)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), v.ID())
	assert.Equal(t, "custody-1", v.CustodyAddress())
	assert.Equal(t, testTemplate, v.Template())
	assert.Equal(t, testCreator, v.Creator())
	assert.Equal(t, testDistributor, v.Distributor())
	assert.False(t, v.Funded())
	assert.False(t, v.Finalized())
	assert.Equal(t, uint64(1), r.CampaignCount())

	got, err := r.Campaign(1)
	require.NoError(t, err)
	assert.Same(t, v, got)
}

func TestCreateCampaign_IDsIncrease(t *testing.T) {
	r := newTestRegistry(t, newTestLedger(t))

	for want := uint64(1); want <= 5; want++ {
		v, err := r.CreateCampaign(testCreator)
		require.NoError(t, err)
		assert.Equal(t, want, v.ID())
		assert.Equal(t, fmt.Sprintf("custody-%d", want), v.CustodyAddress())
	}
	assert.Equal(t, uint64(5), r.CampaignCount())
}

func TestCreateCampaign_CustodyFailure(t *testing.T) {
	failing := func(id uint64) (string, error) {
		return "", errors.New("derivation broke")
	}
	r, err := NewRegistry(testParams(), token.NewLedger(), failing)
	require.NoError(t, err)

	_, err = r.CreateCampaign(testCreator)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "allocate custody address")
	// A failed creation must not burn an id.
	assert.Equal(t, uint64(0), r.CampaignCount())
}

func TestCreateCampaign_DistributorSnapshot(t *testing.T) {
	r := newTestRegistry(t, newTestLedger(t))

	v1, err := r.CreateCampaign(testCreator)
	require.NoError(t, err)

	require.NoError(t, r.SetDistributor(testAuthority, "addr-distributor-2"))

	v2, err := r.CreateCampaign(testCreator)
	require.NoError(t, err)

	// Existing campaigns keep the distributor they were created with.
	assert.Equal(t, testDistributor, v1.Distributor())
	assert.Equal(t, "addr-distributor-2", v2.Distributor())
}

func TestCreateCampaign_TemplateSnapshot(t *testing.T) {
	r := newTestRegistry(t, newTestLedger(t))

	v1, err := r.CreateCampaign(testCreator)
	require.NoError(t, err)

	require.NoError(t, r.SetTemplate(testAuthority, "vault-impl-v2"))

	v2, err := r.CreateCampaign(testCreator)
	require.NoError(t, err)

	assert.Equal(t, testTemplate, v1.Template())
	assert.Equal(t, "vault-impl-v2", v2.Template())
}

// --- Allowlist tests ---

func TestAddAllowedToken(t *testing.T) {
	r, err := NewRegistry(testParams(), token.NewLedger(), testCustody)
	require.NoError(t, err)

	require.NoError(t, r.AddAllowedToken(testAuthority, "tok-a"))
	assert.True(t, r.IsTokenAllowed("tok-a"))
	assert.False(t, r.IsTokenAllowed("tok-b"))
	assert.Equal(t, []string{"tok-a"}, r.AllowedTokens())
}

func TestAddAllowedToken_DuplicateIsNoop(t *testing.T) {
	r, err := NewRegistry(testParams(), token.NewLedger(), testCustody)
	require.NoError(t, err)

	require.NoError(t, r.AddAllowedToken(testAuthority, "tok-a"))
	require.NoError(t, r.AddAllowedToken(testAuthority, "tok-a"))

	assert.Equal(t, []string{"tok-a"}, r.AllowedTokens())
	// The duplicate add emits no second event.
	assert.Len(t, r.EventsByType(EventTokenAdded), 1)
}

func TestAddAllowedToken_Errors(t *testing.T) {
	r, err := NewRegistry(testParams(), token.NewLedger(), testCustody)
	require.NoError(t, err)

	err = r.AddAllowedToken("addr-stranger", "tok-a")
	assert.ErrorIs(t, err, ErrNotAuthority)

	err = r.AddAllowedToken(testAuthority, "")
	assert.ErrorIs(t, err, ErrInvalidTokenAddress)
}

func TestAddAllowedToken_ReAddAfterRemoval(t *testing.T) {
	r, err := NewRegistry(testParams(), token.NewLedger(), testCustody)
	require.NoError(t, err)

	require.NoError(t, r.AddAllowedToken(testAuthority, "tok-a"))
	require.NoError(t, r.RemoveAllowedToken(testAuthority, "tok-a"))
	assert.False(t, r.IsTokenAllowed("tok-a"))

	require.NoError(t, r.AddAllowedToken(testAuthority, "tok-a"))
	assert.True(t, r.IsTokenAllowed("tok-a"))
	assert.Equal(t, []string{"tok-a"}, r.AllowedTokens())
}

func TestRemoveAllowedToken_SwapOrder(t *testing.T) {
	r, err := NewRegistry(testParams(), token.NewLedger(), testCustody)
	require.NoError(t, err)

	for _, tok := range []string{"tok-a", "tok-b", "tok-c"} {
		require.NoError(t, r.AddAllowedToken(testAuthority, tok))
	}

	require.NoError(t, r.RemoveAllowedToken(testAuthority, "tok-a"))

	// The last entry is swapped into the removed slot.
	assert.Equal(t, []string{"tok-c", "tok-b"}, r.AllowedTokens())
	assert.False(t, r.IsTokenAllowed("tok-a"))
	assert.True(t, r.IsTokenAllowed("tok-b"))
	assert.True(t, r.IsTokenAllowed("tok-c"))
}

func TestRemoveAllowedToken_AbsentIsNoop(t *testing.T) {
	r, err := NewRegistry(testParams(), token.NewLedger(), testCustody)
	require.NoError(t, err)
	require.NoError(t, r.AddAllowedToken(testAuthority, "tok-a"))

	require.NoError(t, r.RemoveAllowedToken(testAuthority, "tok-missing"))

	assert.Equal(t, []string{"tok-a"}, r.AllowedTokens())
	assert.Empty(t, r.EventsByType(EventTokenRemoved))
}

func TestRemoveAllowedToken_Errors(t *testing.T) {
	r, err := NewRegistry(testParams(), token.NewLedger(), testCustody)
	require.NoError(t, err)

	err = r.RemoveAllowedToken("addr-stranger", "tok-a")
	assert.ErrorIs(t, err, ErrNotAuthority)

	err = r.RemoveAllowedToken(testAuthority, "")
	assert.ErrorIs(t, err, ErrInvalidTokenAddress)
}

// --- Policy setter tests ---

func TestSetTemplate(t *testing.T) {
	r := newTestRegistry(t, newTestLedger(t))

	require.NoError(t, r.SetTemplate(testAuthority, "vault-impl-v2"))
	assert.Equal(t, "vault-impl-v2", r.Template())

	assert.ErrorIs(t, r.SetTemplate(testAuthority, ""), ErrInvalidTemplate)
	assert.ErrorIs(t, r.SetTemplate("addr-stranger", "v3"), ErrNotAuthority)
}

func TestSetDistributor(t *testing.T) {
	r := newTestRegistry(t, newTestLedger(t))

	require.NoError(t, r.SetDistributor(testAuthority, "addr-distributor-2"))
	assert.Equal(t, "addr-distributor-2", r.Distributor())

	assert.ErrorIs(t, r.SetDistributor(testAuthority, ""), ErrInvalidDistributor)
	assert.ErrorIs(t, r.SetDistributor("addr-stranger", "d"), ErrNotAuthority)
}

func TestSetFeeWallet(t *testing.T) {
	r := newTestRegistry(t, newTestLedger(t))

	require.NoError(t, r.SetFeeWallet(testAuthority, "addr-feewallet-2"))
	assert.Equal(t, "addr-feewallet-2", r.FeeWallet())

	assert.ErrorIs(t, r.SetFeeWallet(testAuthority, ""), ErrInvalidFeeWallet)
	assert.ErrorIs(t, r.SetFeeWallet("addr-stranger", "w"), ErrNotAuthority)
}

func TestSetFeePercent(t *testing.T) {
	r := newTestRegistry(t, newTestLedger(t))

	require.NoError(t, r.SetFeePercent(testAuthority, 0))
	assert.Equal(t, uint64(0), r.FeePercent())

	require.NoError(t, r.SetFeePercent(testAuthority, 100))
	assert.Equal(t, uint64(100), r.FeePercent())

	assert.ErrorIs(t, r.SetFeePercent(testAuthority, 101), ErrInvalidFeePercent)
	assert.Equal(t, uint64(100), r.FeePercent())

	assert.ErrorIs(t, r.SetFeePercent("addr-stranger", 1), ErrNotAuthority)
}

// --- Directory query tests ---

func TestCampaign_NotFound(t *testing.T) {
	r := newTestRegistry(t, newTestLedger(t))

	_, err := r.Campaign(1)
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

func TestCampaigns_CreationOrder(t *testing.T) {
	r := newTestRegistry(t, newTestLedger(t))

	for i := 0; i < 4; i++ {
		_, err := r.CreateCampaign(testCreator)
		require.NoError(t, err)
	}

	all := r.Campaigns()
	require.Len(t, all, 4)
	for i, v := range all {
		assert.Equal(t, uint64(i+1), v.ID())
	}
}

func TestFundedCampaigns(t *testing.T) {
	l := newTestLedger(t)
	r := newTestRegistry(t, l)
	ctx := context.Background()

	// Five campaigns; fund the second and the fifth.
	vaults := make([]*Vault, 5)
	for i := range vaults {
		v, err := r.CreateCampaign(testCreator)
		require.NoError(t, err)
		vaults[i] = v
	}
	for _, i := range []int{1, 4} {
		v := vaults[i]
		require.NoError(t, l.Approve(ctx, testToken, testCreator, v.CustodyAddress(), 1000))
		require.NoError(t, v.Fund(ctx, testCreator, testToken, 1000))
	}

	funded := r.FundedCampaigns()
	require.Len(t, funded, 2)
	assert.Equal(t, uint64(2), funded[0].ID())
	assert.Equal(t, uint64(5), funded[1].ID())
}

func TestFundedCampaigns_Empty(t *testing.T) {
	r := newTestRegistry(t, newTestLedger(t))
	_, err := r.CreateCampaign(testCreator)
	require.NoError(t, err)

	assert.Empty(t, r.FundedCampaigns())
}

// --- Event journal tests ---

func TestRegistryEvents(t *testing.T) {
	l := newTestLedger(t)
	r := newTestRegistry(t, l)

	_, err := r.CreateCampaign(testCreator)
	require.NoError(t, err)
	require.NoError(t, r.SetFeePercent(testAuthority, 10))

	events := r.Events()
	require.Len(t, events, 3)

	// newTestRegistry allowlists the campaign token first.
	assert.Equal(t, EventTokenAdded, events[0].Type)
	assert.Equal(t, testToken, events[0].Attrs["token"])

	assert.Equal(t, EventCampaignCreated, events[1].Type)
	assert.Equal(t, uint64(1), events[1].CampaignID)
	assert.Equal(t, testCreator, events[1].Attrs["creator"])
	assert.Equal(t, "custody-1", events[1].Attrs["custody"])

	assert.Equal(t, EventFeePercentUpdated, events[2].Type)
	assert.Equal(t, "5", events[2].Attrs["old"])
	assert.Equal(t, "10", events[2].Attrs["new"])

	// Sequence numbers are dense from 1.
	for i, ev := range events {
		assert.Equal(t, uint64(i+1), ev.Seq)
		assert.False(t, ev.Time.IsZero())
	}
}
