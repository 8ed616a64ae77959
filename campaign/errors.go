package campaign

import "errors"

// ErrZeroAddress is returned when a required address parameter is empty.
var ErrZeroAddress = errors.New("campaign: zero address")

// ErrInvalidTemplate is returned when the implementation template is empty.
var ErrInvalidTemplate = errors.New("campaign: invalid implementation template")

// ErrInvalidDistributor is returned when the distributor address is empty.
var ErrInvalidDistributor = errors.New("campaign: invalid distributor address")

// ErrInvalidFeeWallet is returned when the fee wallet address is empty.
var ErrInvalidFeeWallet = errors.New("campaign: invalid fee wallet address")

// ErrInvalidFeePercent is returned when a fee percentage exceeds 100.
var ErrInvalidFeePercent = errors.New("campaign: fee percentage exceeds 100")

// ErrInvalidTokenAddress is returned when a token address is empty.
var ErrInvalidTokenAddress = errors.New("campaign: invalid token address")

// ErrNotAuthority is returned when a caller other than the registry
// authority attempts an administrative operation.
var ErrNotAuthority = errors.New("campaign: caller is not the registry authority")

// ErrCampaignNotFound is returned when no campaign exists under the given id.
var ErrCampaignNotFound = errors.New("campaign: campaign not found")

// ErrAlreadyInitialized is returned when a vault is initialized twice.
var ErrAlreadyInitialized = errors.New("campaign: vault already initialized")

// ErrOnlyCreatorCanFund is returned when someone other than the campaign
// creator attempts to fund its vault.
var ErrOnlyCreatorCanFund = errors.New("campaign: only the creator can fund")

// ErrAlreadyFunded is returned when a vault is funded a second time.
var ErrAlreadyFunded = errors.New("campaign: vault already funded")

// ErrInvalidAmount is returned when an amount must be positive but is zero.
var ErrInvalidAmount = errors.New("campaign: amount must be positive")

// ErrTokenNotAllowed is returned when funding uses a token that is not on
// the registry allowlist.
var ErrTokenNotAllowed = errors.New("campaign: token not allowed")

// ErrUnauthorizedDistributor is returned when a caller other than the
// vault's distributor attempts distribution or rescue.
var ErrUnauthorizedDistributor = errors.New("campaign: caller is not the distributor")

// ErrCampaignFinalized is returned when rewards have already been
// distributed for the campaign.
var ErrCampaignFinalized = errors.New("campaign: campaign already finalized")

// ErrEmptyRewardList is returned when a distribution carries no rewards.
var ErrEmptyRewardList = errors.New("campaign: empty reward list")

// ErrInsufficientFunds is returned when the vault's custody balance cannot
// cover the requested distribution.
var ErrInsufficientFunds = errors.New("campaign: insufficient funds")

// ErrNilParam is returned when a required parameter is nil.
var ErrNilParam = errors.New("campaign: nil parameter")

// ErrInvalidSnapshot is returned when restoring from a snapshot whose
// contents are internally inconsistent.
var ErrInvalidSnapshot = errors.New("campaign: invalid snapshot")
