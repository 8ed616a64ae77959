// Package deploy wires a full CampVault deployment together: configuration,
// key derivation, durable storage, and the campaign registry.
//
// Init creates a fresh deployment under a data directory (new seed,
// encrypted seed file, saved config, empty database) and returns the
// mnemonic for backup. Open restores a deployment from disk. Every created
// campaign is appended to a JSON audit record alongside the database.
package deploy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/campvaultorg/libcampvault-go/campaign"
	"github.com/campvaultorg/libcampvault-go/config"
	"github.com/campvaultorg/libcampvault-go/keyring"
	"github.com/campvaultorg/libcampvault-go/payee"
	"github.com/campvaultorg/libcampvault-go/store"
	"github.com/campvaultorg/libcampvault-go/token"
)

const (
	// seedFile is the encrypted seed filename inside the data directory.
	seedFile = "seed.enc"

	// dbFile is the bolt database filename inside the data directory.
	dbFile = "campvault.db"

	// recordsFile is the campaign audit record filename.
	recordsFile = "records.json"
)

// Deployment bundles the collaborators of a running CampVault node.
type Deployment struct {
	Config   config.Config
	Registry *campaign.Registry
	Ring     *keyring.Ring
	Store    *store.BoltStore
	DataDir  string

	records  *recordLog
	resolver payee.DNSResolver
}

// Init creates a fresh deployment under dataDir.
//
// It generates a 24-word mnemonic, encrypts the derived seed with password,
// writes seed file and config, opens the database, and constructs the
// registry from cfg. The mnemonic is returned exactly once, for backup;
// it is never stored in plaintext.
func Init(dataDir, password string, cfg config.Config, tokens token.Service) (*Deployment, string, error) {
	if password == "" {
		return nil, "", fmt.Errorf("deploy: password is required")
	}

	cfg.DataDir = dataDir
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, "", fmt.Errorf("deploy: %w", err)
	}

	// Refuse to clobber an existing deployment: a regenerated seed would
	// orphan every custody address derived from the old one.
	seedPath := filepath.Join(dataDir, seedFile)
	if _, err := os.Stat(seedPath); err == nil {
		return nil, "", fmt.Errorf("deploy: %s already contains a deployment", dataDir)
	}

	mnemonic, err := keyring.GenerateMnemonic(keyring.Mnemonic24Words)
	if err != nil {
		return nil, "", fmt.Errorf("deploy: generating mnemonic: %w", err)
	}
	seed, err := keyring.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return nil, "", fmt.Errorf("deploy: deriving seed: %w", err)
	}

	ring, err := keyring.New(seed, cfg.Network == "mainnet")
	if err != nil {
		return nil, "", fmt.Errorf("deploy: building keyring: %w", err)
	}

	// Construct the registry before touching the disk, so invalid
	// parameters leave no debris behind.
	reg, err := buildRegistry(cfg, tokens, ring)
	if err != nil {
		return nil, "", fmt.Errorf("deploy: %w", err)
	}

	encrypted, err := keyring.EncryptSeed(seed, password)
	if err != nil {
		return nil, "", fmt.Errorf("deploy: encrypting seed: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, "", fmt.Errorf("deploy: creating data directory: %w", err)
	}
	if err := os.WriteFile(seedPath, encrypted, 0600); err != nil {
		return nil, "", fmt.Errorf("deploy: writing seed file: %w", err)
	}
	if err := config.SaveConfig(config.ConfigPath(dataDir), cfg); err != nil {
		return nil, "", fmt.Errorf("deploy: %w", err)
	}

	st, err := store.Open(filepath.Join(dataDir, dbFile))
	if err != nil {
		return nil, "", fmt.Errorf("deploy: %w", err)
	}

	d := &Deployment{
		Config:   cfg,
		Registry: reg,
		Ring:     ring,
		Store:    st,
		DataDir:  dataDir,
		records:  newRecordLog(filepath.Join(dataDir, recordsFile)),
		resolver: payee.DefaultDNSResolver,
	}

	if err := d.SaveState(); err != nil {
		_ = st.Close()
		return nil, "", err
	}

	return d, mnemonic, nil
}

// Open restores a deployment from dataDir.
//
// The seed file is decrypted with password, the keyring rebuilt, and the
// registry restored from the last stored snapshot. A database without a
// snapshot yields a fresh registry built from the saved config.
func Open(dataDir, password string, tokens token.Service) (*Deployment, error) {
	cfg, err := config.LoadConfig(config.ConfigPath(dataDir))
	if err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}

	encrypted, err := os.ReadFile(filepath.Join(dataDir, seedFile))
	if err != nil {
		return nil, fmt.Errorf("deploy: reading seed file: %w", err)
	}
	seed, err := keyring.DecryptSeed(encrypted, password)
	if err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}

	ring, err := keyring.New(seed, cfg.Network == "mainnet")
	if err != nil {
		return nil, fmt.Errorf("deploy: building keyring: %w", err)
	}

	st, err := store.Open(filepath.Join(dataDir, dbFile))
	if err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}

	var reg *campaign.Registry
	snap, err := st.LoadSnapshot()
	if errors.Is(err, store.ErrNotFound) {
		reg, err = buildRegistry(cfg, tokens, ring)
	} else if err == nil {
		reg, err = campaign.Restore(snap, tokens, ring.CustodyAddress)
	}
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("deploy: %w", err)
	}

	return &Deployment{
		Config:   cfg,
		Registry: reg,
		Ring:     ring,
		Store:    st,
		DataDir:  dataDir,
		records:  newRecordLog(filepath.Join(dataDir, recordsFile)),
		resolver: payee.DefaultDNSResolver,
	}, nil
}

// registryParams maps config values onto registry construction parameters.
func registryParams(cfg config.Config) campaign.Params {
	return campaign.Params{
		Authority:   cfg.Authority,
		Template:    cfg.Template,
		Distributor: cfg.Distributor,
		FeeWallet:   cfg.FeeWallet,
		FeePercent:  cfg.FeePercent,
	}
}

// buildRegistry constructs a fresh registry from config values and seeds
// its token allowlist.
func buildRegistry(cfg config.Config, tokens token.Service, ring *keyring.Ring) (*campaign.Registry, error) {
	reg, err := campaign.NewRegistry(registryParams(cfg), tokens, ring.CustodyAddress)
	if err != nil {
		return nil, err
	}
	for _, tok := range cfg.AllowedTokens {
		if err := reg.AddAllowedToken(cfg.Authority, tok); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// CreateCampaign creates a campaign through the registry, appends an audit
// record, and snapshots state.
//
// The campaign exists in memory even when persistence fails; in that case
// the vault is returned together with the error so the caller can retry
// the save.
func (d *Deployment) CreateCampaign(creator string) (*campaign.Vault, error) {
	v, err := d.Registry.CreateCampaign(creator)
	if err != nil {
		return nil, err
	}

	rec := Record{
		CampaignID: v.ID(),
		Custody:    v.CustodyAddress(),
		Creator:    creator,
		CreatedAt:  time.Now().UTC(),
	}
	if err := d.records.Append(rec); err != nil {
		return v, fmt.Errorf("deploy: recording campaign %d: %w", v.ID(), err)
	}

	if err := d.SaveState(); err != nil {
		return v, err
	}
	return v, nil
}

// Records returns the campaign audit records in creation order.
func (d *Deployment) Records() ([]Record, error) {
	return d.records.Records()
}

// SaveState writes the current registry snapshot to the store.
func (d *Deployment) SaveState() error {
	if err := d.Store.SaveSnapshot(d.Registry.Snapshot()); err != nil {
		return fmt.Errorf("deploy: saving state: %w", err)
	}
	return nil
}

// Close saves a final snapshot and closes the store.
func (d *Deployment) Close() error {
	saveErr := d.SaveState()
	closeErr := d.Store.Close()
	if saveErr != nil {
		return saveErr
	}
	return closeErr
}

// SetResolver replaces the DNS resolver used for payout-handle resolution.
// Deployments that require validated answers set a payee.DNSSECResolver.
func (d *Deployment) SetResolver(r payee.DNSResolver) {
	d.resolver = r
}

// RewardEntry is a reward whose recipient may be a plain address or an
// alias@domain payout handle.
type RewardEntry struct {
	Recipient string
	Amount    uint64
}

// ResolveRewards converts reward entries into the address-only form the
// registry accepts. Entries containing '@' are resolved through DNS; plain
// addresses pass through unchanged. Order is preserved.
func (d *Deployment) ResolveRewards(entries []RewardEntry) ([]campaign.Reward, error) {
	rewards := make([]campaign.Reward, len(entries))
	for i, e := range entries {
		recipient := e.Recipient
		if strings.Contains(recipient, "@") {
			addr, err := payee.ResolveAddressWithResolver(recipient, d.resolver)
			if err != nil {
				return nil, fmt.Errorf("deploy: resolving %q: %w", recipient, err)
			}
			recipient = addr
		}
		rewards[i] = campaign.Reward{Recipient: recipient, Amount: e.Amount}
	}
	return rewards, nil
}
