package tx

import (
	"fmt"

	"github.com/bitfsorg/linkedlist-go/ledger"
)

// Default ledger fee parameters.
const (
	DefaultMinFeeA          = 44
	DefaultMinFeeB          = 155381
	DefaultCoinsPerUTXOByte = 4310
	DefaultCollateral       = 5_000_000

	// utxoEntryOverhead is the per-entry size the ledger adds to an output's
	// encoded size when computing its minimum lovelace.
	utxoEntryOverhead = 160
)

// FeeParams are the ledger fee and minimum-value parameters.
type FeeParams struct {
	MinFeeA          int64 // lovelace per byte
	MinFeeB          int64 // constant lovelace
	CoinsPerUTXOByte int64

	// ExUnits is the fixed execution budget reserved for every redeemer.
	ExUnits ledger.ExUnits

	// Execution prices as rationals: lovelace = units * Num / Den.
	PriceMemNum, PriceMemDen   int64
	PriceStepNum, PriceStepDen int64
}

// DefaultFeeParams returns mainnet-like parameters with a modest per-redeemer
// execution budget.
func DefaultFeeParams() FeeParams {
	return FeeParams{
		MinFeeA:          DefaultMinFeeA,
		MinFeeB:          DefaultMinFeeB,
		CoinsPerUTXOByte: DefaultCoinsPerUTXOByte,
		ExUnits:          ledger.ExUnits{Mem: 1_000_000, Steps: 400_000_000},
		PriceMemNum:      577,
		PriceMemDen:      10_000,
		PriceStepNum:     721,
		PriceStepDen:     10_000_000,
	}
}

// ScriptFee returns the lovelace cost of one redeemer's execution budget,
// rounded up.
func (p FeeParams) ScriptFee() int64 {
	if p.PriceMemDen == 0 || p.PriceStepDen == 0 {
		return 0
	}
	mem := ceilDiv(int64(p.ExUnits.Mem)*p.PriceMemNum, p.PriceMemDen)
	steps := ceilDiv(int64(p.ExUnits.Steps)*p.PriceStepNum, p.PriceStepDen)
	return mem + steps
}

// EstimateFee returns the minimum fee for a transaction of size bytes running
// redeemers scripts.
func (p FeeParams) EstimateFee(size, redeemers int) int64 {
	return p.MinFeeA*int64(size) + p.MinFeeB + int64(redeemers)*p.ScriptFee()
}

// MinLovelace returns the minimum lovelace o must hold.
func (p FeeParams) MinLovelace(o ledger.Output) (int64, error) {
	// The lovelace field's own width depends on its value, so measure with
	// the larger of the current value and a 4-byte placeholder.
	probe := o
	probe.Assets = o.Assets.Clone()
	if probe.Assets.Lovelace() < 1<<24 {
		probe.Assets[ledger.Lovelace] = 1 << 24
	}
	size, err := ledger.OutputSize(probe)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildFailure, err)
	}
	return int64(utxoEntryOverhead+size) * p.CoinsPerUTXOByte, nil
}

// PadMinLovelace raises o's lovelace to the minimum if it holds less.
func (p FeeParams) PadMinLovelace(o ledger.Output) (ledger.Output, error) {
	floor, err := p.MinLovelace(o)
	if err != nil {
		return o, err
	}
	if o.Assets.Lovelace() < floor {
		o.Assets = o.Assets.Clone()
		o.Assets[ledger.Lovelace] = floor
	}
	return o, nil
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}
