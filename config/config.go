// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads and saves the operator configuration: a plain
// key = value file holding network, provider, script and protocol settings.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config is the operator configuration.
type Config struct {
	DataDir     string // holds the reference-script registry
	Network     string // mainnet, preprod or preview
	RPCURL      string // ledger provider endpoint; empty resolves via presets
	ScriptsFile string // script manifest; relative paths resolve under DataDir

	Variant         string        // discovery or liquidity
	Deadline        string        // RFC 3339; empty means not configured
	NodeMinADA      int64         // lovelace floor every node retains
	MinCommitment   int64         // smallest accepted commitment
	FoldingFee      int64         // lovelace taken from each node per reward step
	MinUTXO         int64         // penalty floor
	PenaltyWindow   time.Duration // length of the penalty phase before the deadline
	MintWindow      time.Duration // validity of deploy marker policies
	BatchSize       int           // nodes per fold step
	PenaltyAddress  string
	TreasuryAddress string

	LogLevel string
	LogFile  string
}

// Default protocol amounts in lovelace.
const (
	DefaultNodeMinADA    = 3_000_000
	DefaultMinCommitment = 2_000_000
	DefaultFoldingFee    = 1_000_000
	DefaultMinUTXO       = 2_000_000
	DefaultBatchSize     = 8
)

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() Config {
	return Config{
		DataDir:       DefaultDataDir(),
		Network:       "preview",
		ScriptsFile:   "scripts.yaml",
		Variant:       "discovery",
		NodeMinADA:    DefaultNodeMinADA,
		MinCommitment: DefaultMinCommitment,
		FoldingFee:    DefaultFoldingFee,
		MinUTXO:       DefaultMinUTXO,
		PenaltyWindow: 24 * time.Hour,
		MintWindow:    10 * time.Minute,
		BatchSize:     DefaultBatchSize,
		LogLevel:      "info",
	}
}

// DefaultDataDir returns ~/.linkedlist, falling back to the working
// directory when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".linkedlist"
	}
	return filepath.Join(home, ".linkedlist")
}

// ConfigPath returns the config file path inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config")
}

// RegistryPath returns the reference-script registry path inside dataDir.
func RegistryPath(dataDir string) string {
	return filepath.Join(dataDir, "refs.db")
}

// ManifestPath resolves ScriptsFile against DataDir.
func (c Config) ManifestPath() string {
	if c.ScriptsFile == "" || filepath.IsAbs(c.ScriptsFile) {
		return c.ScriptsFile
	}
	return filepath.Join(c.DataDir, c.ScriptsFile)
}

// DeadlineTime parses Deadline. The zero time is returned when unset.
func (c Config) DeadlineTime() (time.Time, error) {
	if c.Deadline == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, c.Deadline)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrInvalidDeadline, err)
	}
	return t, nil
}

// LoadConfig reads path over DefaultConfig. Blank lines and lines starting
// with '#' are skipped; unknown keys are ignored.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return Config{}, fmt.Errorf("config: open: %w", err)
	}
	defer f.Close()

	cfg := DefaultConfig()
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := parseKeyValue(line)
		if err != nil {
			return Config{}, fmt.Errorf("%w: line %d", err, lineNo)
		}
		if err := cfg.set(key, value); err != nil {
			return Config{}, fmt.Errorf("%w: line %d: %s: %w", ErrInvalidConfigLine, lineNo, key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return Config{}, fmt.Errorf("config: read: %w", err)
	}
	return cfg, nil
}

// parseKeyValue splits "key = value" on the first '='.
func parseKeyValue(line string) (string, string, error) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", ErrInvalidConfigLine
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return "", "", ErrInvalidConfigLine
	}
	return key, strings.TrimSpace(value), nil
}

func (c *Config) set(key, value string) error {
	var err error
	switch key {
	case "datadir":
		c.DataDir = value
	case "network":
		c.Network = value
	case "rpc":
		c.RPCURL = value
	case "scripts":
		c.ScriptsFile = value
	case "variant":
		c.Variant = value
	case "deadline":
		c.Deadline = value
	case "nodeminada":
		c.NodeMinADA, err = strconv.ParseInt(value, 10, 64)
	case "mincommitment":
		c.MinCommitment, err = strconv.ParseInt(value, 10, 64)
	case "foldingfee":
		c.FoldingFee, err = strconv.ParseInt(value, 10, 64)
	case "minutxo":
		c.MinUTXO, err = strconv.ParseInt(value, 10, 64)
	case "penaltywindow":
		c.PenaltyWindow, err = time.ParseDuration(value)
	case "mintwindow":
		c.MintWindow, err = time.ParseDuration(value)
	case "batchsize":
		c.BatchSize, err = strconv.Atoi(value)
	case "penaltyaddress":
		c.PenaltyAddress = value
	case "treasuryaddress":
		c.TreasuryAddress = value
	case "loglevel":
		c.LogLevel = value
	case "logfile":
		c.LogFile = value
	}
	return err
}

// SaveConfig writes cfg to path, creating parent directories as needed.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# linkedlist configuration\n\n")
	for _, kv := range [][2]string{
		{"datadir", cfg.DataDir},
		{"network", cfg.Network},
		{"rpc", cfg.RPCURL},
		{"scripts", cfg.ScriptsFile},
		{"variant", cfg.Variant},
		{"deadline", cfg.Deadline},
		{"nodeminada", strconv.FormatInt(cfg.NodeMinADA, 10)},
		{"mincommitment", strconv.FormatInt(cfg.MinCommitment, 10)},
		{"foldingfee", strconv.FormatInt(cfg.FoldingFee, 10)},
		{"minutxo", strconv.FormatInt(cfg.MinUTXO, 10)},
		{"penaltywindow", cfg.PenaltyWindow.String()},
		{"mintwindow", cfg.MintWindow.String()},
		{"batchsize", strconv.Itoa(cfg.BatchSize)},
		{"penaltyaddress", cfg.PenaltyAddress},
		{"treasuryaddress", cfg.TreasuryAddress},
		{"loglevel", cfg.LogLevel},
		{"logfile", cfg.LogFile},
	} {
		fmt.Fprintf(&b, "%s = %s\n", kv[0], kv[1])
	}

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	return nil
}
