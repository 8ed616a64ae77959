package campaign

// Reward is a single payout to a recipient in a distribution batch.
type Reward struct {
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
}

// Params carries the policy values a registry is constructed with.
type Params struct {
	// Authority may perform administrative operations on the registry.
	Authority string
	// Template identifies the vault implementation stamped onto new
	// campaigns.
	Template string
	// Distributor is snapshotted into each campaign at creation time.
	Distributor string
	// FeeWallet receives the platform's cut of every funding.
	FeeWallet string
	// FeePercent is the platform cut in whole percent, 0 through 100.
	FeePercent uint64
}

// CustodyFunc allocates the custody address for a new campaign id.
// keyring.Ring's CustodyAddress satisfies it.
type CustodyFunc func(id uint64) (string, error)
