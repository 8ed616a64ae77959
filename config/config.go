// Copyright (c) 2025 The CampVault developers
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package config loads, saves, and validates CampVault deployment
// configuration.
//
// The configuration lives in a plain key=value file (one pair per line,
// '#' comments) inside the deployment data directory. Unknown keys are
// ignored so older binaries can read files written by newer ones.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all deployment configuration values.
type Config struct {
	// DataDir is the directory for the seed file, database, and audit records.
	DataDir string

	// Network selects address encoding: "mainnet", "testnet", or "regtest".
	Network string

	// LogLevel is the logging verbosity for embedding daemons.
	LogLevel string

	// LogFile is the log destination; empty means stderr.
	LogFile string

	// Authority is the registry administration address.
	Authority string

	// Distributor is the address authorized to distribute rewards and
	// rescue funds.
	Distributor string

	// FeeWallet receives the funding fee cut.
	FeeWallet string

	// FeePercent is the funding fee percentage (0-100).
	FeePercent uint64

	// Template is the vault implementation reference stamped on campaigns.
	Template string

	// AllowedTokens seeds the registry token allowlist.
	AllowedTokens []string
}

// DefaultConfig returns a Config populated with default values.
// Registry addresses (authority, distributor, fee wallet) have no
// sensible defaults and are left empty.
func DefaultConfig() Config {
	return Config{
		DataDir:  DefaultDataDir(),
		Network:  "mainnet",
		LogLevel: "info",
	}
}

// DefaultDataDir returns the default data directory (~/.campvault).
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".campvault"
	}
	return filepath.Join(home, ".campvault")
}

// ConfigPath returns the path of the configuration file inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config")
}

// LoadConfig reads a key=value configuration file.
// A missing file returns ErrConfigNotFound. Keys not present in the file
// keep their DefaultConfig values; unknown keys are ignored.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, err := parseKeyValue(line)
		if err != nil {
			return cfg, err
		}

		switch key {
		case "datadir":
			cfg.DataDir = value
		case "network":
			cfg.Network = value
		case "loglevel":
			cfg.LogLevel = value
		case "logfile":
			cfg.LogFile = value
		case "authority":
			cfg.Authority = value
		case "distributor":
			cfg.Distributor = value
		case "feewallet":
			cfg.FeeWallet = value
		case "feepercent":
			pct, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return cfg, fmt.Errorf("%w: feepercent %q", ErrInvalidConfigLine, value)
			}
			cfg.FeePercent = pct
		case "template":
			cfg.Template = value
		case "allowedtokens":
			cfg.AllowedTokens = splitTokenList(value)
		default:
			// Unknown keys are ignored for forward compatibility.
		}
	}

	return cfg, nil
}

// parseKeyValue splits a config line on the first '='.
// The key is lowercased; both sides are trimmed of whitespace.
func parseKeyValue(line string) (key, value string, err error) {
	idx := strings.Index(line, "=")
	if idx < 0 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidConfigLine, line)
	}
	key = strings.ToLower(strings.TrimSpace(line[:idx]))
	value = strings.TrimSpace(line[idx+1:])
	return key, value, nil
}

// splitTokenList splits a comma-separated token list, dropping blanks.
func splitTokenList(value string) []string {
	var tokens []string
	for _, tok := range strings.Split(value, ",") {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// SaveConfig writes cfg to path in key=value form, creating parent
// directories as needed.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: creating directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# CampVault Configuration\n\n")
	fmt.Fprintf(&b, "datadir = %s\n", cfg.DataDir)
	fmt.Fprintf(&b, "network = %s\n", cfg.Network)
	fmt.Fprintf(&b, "loglevel = %s\n", cfg.LogLevel)
	fmt.Fprintf(&b, "logfile = %s\n", cfg.LogFile)
	fmt.Fprintf(&b, "authority = %s\n", cfg.Authority)
	fmt.Fprintf(&b, "distributor = %s\n", cfg.Distributor)
	fmt.Fprintf(&b, "feewallet = %s\n", cfg.FeeWallet)
	fmt.Fprintf(&b, "feepercent = %d\n", cfg.FeePercent)
	fmt.Fprintf(&b, "template = %s\n", cfg.Template)
	fmt.Fprintf(&b, "allowedtokens = %s\n", strings.Join(cfg.AllowedTokens, ","))

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}

	return nil
}
