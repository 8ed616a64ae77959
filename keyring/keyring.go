// Package keyring derives campaign custody keys from a single master seed
// using BIP32/BIP39.
//
// Key hierarchy: m/44'/523'/{account}'/{chain}/{index}
// where account 0 is the operator treasury chain and account N (N >= 1)
// holds campaign N's custody key. Every campaign therefore owns an
// independent ledger account recoverable from the seed alone.
package keyring

import (
	"fmt"

	bip32 "github.com/bsv-blockchain/go-sdk/compat/bip32"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	chaincfg "github.com/bsv-blockchain/go-sdk/transaction/chaincfg"
)

const (
	// BIP44 path constants.
	PurposeBIP44      = 44
	CoinTypeCampVault = 523
	TreasuryAccount   = 0

	// Chain indices.
	ExternalChain = 0 // Receive addresses
	InternalChain = 1 // Change addresses

	// MaxCampaignID is the largest campaign id that fits the hardened
	// account space: 2^31 - 1.
	MaxCampaignID = 1<<31 - 1

	// BIP32 hardened offset.
	Hardened = 0x80000000
)

// Ring derives keys and custody addresses from one master key.
type Ring struct {
	masterKey *bip32.ExtendedKey
	mainnet   bool
}

// KeyPair holds a derived public/private key pair.
type KeyPair struct {
	PrivateKey *ec.PrivateKey `json:"-"`
	PublicKey  *ec.PublicKey  `json:"public_key"`
	Path       string         `json:"path"` // Human-readable derivation path
}

// New creates a Ring from a BIP39 seed.
func New(seed []byte, mainnet bool) (*Ring, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}

	net := &chaincfg.TestNet
	if mainnet {
		net = &chaincfg.MainNet
	}

	masterKey, err := bip32.NewMaster(seed, net)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}

	return &Ring{
		masterKey: masterKey,
		mainnet:   mainnet,
	}, nil
}

// NewFromMnemonic creates a Ring from a BIP39 mnemonic and passphrase.
func NewFromMnemonic(mnemonic, passphrase string, mainnet bool) (*Ring, error) {
	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	return New(seed, mainnet)
}

// Mainnet reports whether the ring derives mainnet addresses.
func (r *Ring) Mainnet() bool {
	return r.mainnet
}

// deriveAccount derives the account-level key: m/44'/523'/account'
func (r *Ring) deriveAccount(account uint32) (*bip32.ExtendedKey, error) {
	// m/44'
	purpose, err := r.masterKey.Child(PurposeBIP44 + Hardened)
	if err != nil {
		return nil, fmt.Errorf("%w: purpose derivation: %w", ErrDerivationFailed, err)
	}

	// m/44'/523'
	coinType, err := purpose.Child(CoinTypeCampVault + Hardened)
	if err != nil {
		return nil, fmt.Errorf("%w: coin type derivation: %w", ErrDerivationFailed, err)
	}

	// m/44'/523'/account'
	accountKey, err := coinType.Child(account + Hardened)
	if err != nil {
		return nil, fmt.Errorf("%w: account derivation: %w", ErrDerivationFailed, err)
	}

	return accountKey, nil
}

// TreasuryKey derives a key pair from the operator treasury chain.
//
//	chain: ExternalChain (0) for receive, InternalChain (1) for change
//	index: address index
//	Path: m/44'/523'/0'/chain/index
func (r *Ring) TreasuryKey(chain, index uint32) (*KeyPair, error) {
	accountKey, err := r.deriveAccount(TreasuryAccount)
	if err != nil {
		return nil, err
	}

	// m/44'/523'/0'/chain
	chainKey, err := accountKey.Child(chain)
	if err != nil {
		return nil, fmt.Errorf("%w: chain derivation: %w", ErrDerivationFailed, err)
	}

	// m/44'/523'/0'/chain/index
	childKey, err := chainKey.Child(index)
	if err != nil {
		return nil, fmt.Errorf("%w: index derivation: %w", ErrDerivationFailed, err)
	}

	return extKeyToKeyPair(childKey, fmt.Sprintf("m/44'/523'/0'/%d/%d", chain, index))
}

// CampaignKey derives the custody key pair for a campaign.
//
//	Path: m/44'/523'/id'/0/0
func (r *Ring) CampaignKey(id uint64) (*KeyPair, error) {
	if id == 0 {
		return nil, fmt.Errorf("%w: id 0 is reserved for the treasury", ErrInvalidCampaignID)
	}
	if id > MaxCampaignID {
		return nil, fmt.Errorf("%w: %d exceeds BIP32 hardened boundary", ErrInvalidCampaignID, id)
	}

	accountKey, err := r.deriveAccount(uint32(id))
	if err != nil {
		return nil, err
	}

	// m/44'/523'/id'/0 (external chain)
	chainKey, err := accountKey.Child(ExternalChain)
	if err != nil {
		return nil, fmt.Errorf("%w: chain derivation: %w", ErrDerivationFailed, err)
	}

	// m/44'/523'/id'/0/0
	childKey, err := chainKey.Child(0)
	if err != nil {
		return nil, fmt.Errorf("%w: index derivation: %w", ErrDerivationFailed, err)
	}

	return extKeyToKeyPair(childKey, fmt.Sprintf("m/44'/523'/%d'/0/0", id))
}

// Address renders a key pair as a P2PKH base58 address on the ring's
// network.
func (r *Ring) Address(kp *KeyPair) (string, error) {
	if kp == nil || kp.PublicKey == nil {
		return "", fmt.Errorf("%w: nil key pair", ErrDerivationFailed)
	}
	addr, err := script.NewAddressFromPublicKey(kp.PublicKey, r.mainnet)
	if err != nil {
		return "", fmt.Errorf("%w: address encoding: %w", ErrDerivationFailed, err)
	}
	return addr.AddressString, nil
}

// CustodyAddress derives the custody address for a campaign id. It
// satisfies campaign.CustodyFunc.
func (r *Ring) CustodyAddress(id uint64) (string, error) {
	kp, err := r.CampaignKey(id)
	if err != nil {
		return "", err
	}
	return r.Address(kp)
}

// TreasuryAddress derives an address on the operator treasury chain.
func (r *Ring) TreasuryAddress(chain, index uint32) (string, error) {
	kp, err := r.TreasuryKey(chain, index)
	if err != nil {
		return "", err
	}
	return r.Address(kp)
}

// extKeyToKeyPair converts a BIP32 extended key to a KeyPair.
func extKeyToKeyPair(extKey *bip32.ExtendedKey, path string) (*KeyPair, error) {
	privKey, err := extKey.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to extract EC private key: %w", ErrDerivationFailed, err)
	}

	pubKey := privKey.PubKey()
	if pubKey == nil {
		return nil, fmt.Errorf("%w: failed to derive public key", ErrDerivationFailed)
	}

	return &KeyPair{
		PrivateKey: privKey,
		PublicKey:  pubKey,
		Path:       path,
	}, nil
}
