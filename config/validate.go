// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validNetworks = map[string]bool{
	"mainnet": true,
	"preprod": true,
	"preview": true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if !validNetworks[cfg.Network] {
		return ErrInvalidNetwork
	}

	if cfg.RPCURL != "" {
		if err := validateURL(cfg.RPCURL); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRPCURL, err)
		}
	}

	switch strings.ToLower(cfg.Variant) {
	case "discovery", "liquidity":
	default:
		return ErrInvalidVariant
	}

	if _, err := cfg.DeadlineTime(); err != nil {
		return err
	}

	for _, a := range []struct {
		name  string
		value int64
	}{
		{"nodeminada", cfg.NodeMinADA},
		{"mincommitment", cfg.MinCommitment},
		{"minutxo", cfg.MinUTXO},
	} {
		if a.value <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidAmount, a.name)
		}
	}
	if cfg.FoldingFee < 0 || cfg.FoldingFee >= cfg.NodeMinADA {
		return fmt.Errorf("%w: foldingfee must be in [0, nodeminada)", ErrInvalidAmount)
	}
	if cfg.PenaltyWindow <= 0 || cfg.MintWindow <= 0 {
		return fmt.Errorf("%w: windows must be positive", ErrInvalidAmount)
	}

	if cfg.BatchSize < 1 {
		return ErrInvalidBatchSize
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	return nil
}

// validateURL checks that raw is an absolute http(s) URL.
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
