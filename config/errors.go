// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidNetwork indicates the network name is not recognized.
	ErrInvalidNetwork = errors.New("config: invalid network (must be \"mainnet\", \"preprod\", or \"preview\")")

	// ErrInvalidRPCURL indicates the provider endpoint is malformed.
	ErrInvalidRPCURL = errors.New("config: invalid rpc url")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrInvalidVariant indicates the node variant is not recognized.
	ErrInvalidVariant = errors.New("config: invalid variant (must be \"discovery\" or \"liquidity\")")

	// ErrInvalidDeadline indicates the deadline is not an RFC 3339 time.
	ErrInvalidDeadline = errors.New("config: invalid deadline")

	// ErrInvalidAmount indicates a protocol amount is out of range.
	ErrInvalidAmount = errors.New("config: invalid amount")

	// ErrInvalidBatchSize indicates the fold batch size is below one.
	ErrInvalidBatchSize = errors.New("config: batch size must be at least 1")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigLine indicates a line in the config file is malformed.
	ErrInvalidConfigLine = errors.New("config: invalid configuration line")
)
