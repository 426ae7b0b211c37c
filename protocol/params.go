package protocol

import (
	"fmt"
	"strings"
	"time"

	"github.com/bitfsorg/linkedlist-go/config"
	"github.com/bitfsorg/linkedlist-go/datum"
	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/tx"
)

// DefaultValidity is the default span of a transaction's validity interval.
const DefaultValidity = 10 * time.Minute

// Params are the protocol constants the validators were parameterised with,
// plus ledger parameters used for assembly.
type Params struct {
	Variant datum.Variant

	NodeMinADA    int64 // lovelace every node retains
	MinCommitment int64
	FoldingFee    int64 // lovelace moved from each node to the reward accumulator
	MinUTXO       int64 // penalty floor

	Deadline      time.Time
	PenaltyWindow time.Duration

	PenaltyAddress  ledger.Address
	TreasuryAddress ledger.Address

	MintWindow time.Duration // validity of deploy marker policies
	Validity   time.Duration // span of built transactions
	BatchSize  int

	Fees  tx.FeeParams
	Slots ledger.SlotConfig
}

// DefaultParams returns parameters with the configuration defaults and no
// deadline or payout addresses.
func DefaultParams() Params {
	return Params{
		Variant:       datum.Discovery,
		NodeMinADA:    config.DefaultNodeMinADA,
		MinCommitment: config.DefaultMinCommitment,
		FoldingFee:    config.DefaultFoldingFee,
		MinUTXO:       config.DefaultMinUTXO,
		PenaltyWindow: 24 * time.Hour,
		MintWindow:    10 * time.Minute,
		Validity:      DefaultValidity,
		BatchSize:     config.DefaultBatchSize,
		Fees:          tx.DefaultFeeParams(),
		Slots:         ledger.SlotConfigs["preview"],
	}
}

// ParamsFromConfig derives Params from a validated configuration.
func ParamsFromConfig(cfg config.Config) (Params, error) {
	p := DefaultParams()

	v, err := datum.ParseVariant(strings.ToLower(cfg.Variant))
	if err != nil {
		return Params{}, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	p.Variant = v

	slots, ok := ledger.SlotConfigs[strings.ToLower(cfg.Network)]
	if !ok {
		return Params{}, fmt.Errorf("%w: no slot configuration for network %q", ErrInvalidParams, cfg.Network)
	}
	p.Slots = slots

	if p.Deadline, err = cfg.DeadlineTime(); err != nil {
		return Params{}, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}

	for _, a := range []struct {
		raw string
		dst *ledger.Address
	}{
		{cfg.PenaltyAddress, &p.PenaltyAddress},
		{cfg.TreasuryAddress, &p.TreasuryAddress},
	} {
		if a.raw == "" {
			continue
		}
		if *a.dst, err = ledger.ParseAddress(a.raw); err != nil {
			return Params{}, fmt.Errorf("%w: %w", ErrInvalidParams, err)
		}
	}

	p.NodeMinADA = cfg.NodeMinADA
	p.MinCommitment = cfg.MinCommitment
	p.FoldingFee = cfg.FoldingFee
	p.MinUTXO = cfg.MinUTXO
	p.PenaltyWindow = cfg.PenaltyWindow
	p.MintWindow = cfg.MintWindow
	p.BatchSize = cfg.BatchSize
	return p, p.Validate()
}

// Validate checks the numeric relationships the validators rely on.
func (p Params) Validate() error {
	switch {
	case p.NodeMinADA <= 0:
		return fmt.Errorf("%w: node floor must be positive", ErrInvalidParams)
	case p.MinCommitment <= 0:
		return fmt.Errorf("%w: minimum commitment must be positive", ErrInvalidParams)
	case p.FoldingFee < 0 || p.FoldingFee >= p.NodeMinADA:
		return fmt.Errorf("%w: folding fee %d outside [0, %d)", ErrInvalidParams, p.FoldingFee, p.NodeMinADA)
	case p.MinUTXO <= 0:
		return fmt.Errorf("%w: minimum utxo must be positive", ErrInvalidParams)
	case p.PenaltyWindow <= 0:
		return fmt.Errorf("%w: penalty window must be positive", ErrInvalidParams)
	case p.BatchSize < 1:
		return fmt.Errorf("%w: batch size must be at least 1", ErrInvalidParams)
	case p.Slots.SlotLength <= 0:
		return fmt.Errorf("%w: slot length must be positive", ErrInvalidParams)
	}
	return nil
}

// NodeCommitment returns the value a node contributes to the folds: its
// lovelace above the node floor in the discovery variant, the datum
// commitment in the liquidity variant.
func (p Params) NodeCommitment(n datum.SetNode, lovelace int64) int64 {
	if p.Variant == datum.Liquidity {
		return n.Commitment
	}
	return lovelace - p.NodeMinADA
}

// DeadlineMillis returns the deadline in POSIX ms.
func (p Params) DeadlineMillis() int64 { return ledger.Millis(p.Deadline) }

// PenaltyStartMillis returns the start of the penalty phase in POSIX ms.
func (p Params) PenaltyStartMillis() int64 {
	return ledger.Millis(p.Deadline.Add(-p.PenaltyWindow))
}

func (p Params) validity() int64 {
	if p.Validity <= 0 {
		return DefaultValidity.Milliseconds()
	}
	return p.Validity.Milliseconds()
}
