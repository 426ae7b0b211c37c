package protocol

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/linkedlist-go/config"
	"github.com/bitfsorg/linkedlist-go/datum"
	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/tx"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", fmt.Errorf("%w: %w", ErrInvariantViolation, errors.New("no covering node")))
	assert.Equal(t, ErrInvariantViolation, KindOf(wrapped))

	build := fmt.Errorf("fold step: %w", fmt.Errorf("%w: %w", tx.ErrBuildFailure, tx.ErrInsufficientFunds))
	assert.Equal(t, ErrBuildFailure, KindOf(build))
	assert.Equal(t, ErrWalletEmpty, KindOf(tx.ErrWalletEmpty))
	assert.Nil(t, KindOf(errors.New("other")))
	assert.Nil(t, KindOf(nil))
}

func TestParamsFromConfig(t *testing.T) {
	treasury := ledger.EnterpriseAddress(ledger.Testnet, ledger.KeyCred(ledger.Blake2b224([]byte("treasury"))))

	cfg := config.DefaultConfig()
	cfg.Network = "preprod"
	cfg.Variant = "Liquidity"
	cfg.Deadline = "2026-03-01T00:00:00Z"
	cfg.TreasuryAddress = treasury.String()
	cfg.BatchSize = 4

	p, err := ParamsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, datum.Liquidity, p.Variant)
	assert.Equal(t, ledger.SlotConfigs["preprod"], p.Slots)
	assert.True(t, p.Deadline.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, p.TreasuryAddress.Equal(treasury))
	assert.True(t, p.PenaltyAddress.IsZero())
	assert.Equal(t, 4, p.BatchSize)
	assert.Equal(t, int64(config.DefaultNodeMinADA), p.NodeMinADA)

	bad := cfg
	bad.PenaltyAddress = "addr_test1nothing"
	_, err = ParamsFromConfig(bad)
	assert.ErrorIs(t, err, ErrInvalidParams)

	bad = cfg
	bad.Network = "regtest"
	_, err = ParamsFromConfig(bad)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestParams_Validate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	for name, mod := range map[string]func(*Params){
		"floor":      func(p *Params) { p.NodeMinADA = 0 },
		"commitment": func(p *Params) { p.MinCommitment = -1 },
		"fee":        func(p *Params) { p.FoldingFee = p.NodeMinADA },
		"minutxo":    func(p *Params) { p.MinUTXO = 0 },
		"window":     func(p *Params) { p.PenaltyWindow = 0 },
		"batch":      func(p *Params) { p.BatchSize = 0 },
		"slots":      func(p *Params) { p.Slots = ledger.SlotConfig{} },
	} {
		t.Run(name, func(t *testing.T) {
			p := DefaultParams()
			mod(&p)
			assert.ErrorIs(t, p.Validate(), ErrInvalidParams)
		})
	}
}

func TestParams_NodeCommitment(t *testing.T) {
	p := DefaultParams()
	n := datum.SetNode{Key: datum.NodeKey{1}, Commitment: 7}
	assert.Equal(t, int64(4_000_000), p.NodeCommitment(n, p.NodeMinADA+4_000_000))

	p.Variant = datum.Liquidity
	assert.Equal(t, int64(7), p.NodeCommitment(n, p.NodeMinADA+4_000_000))
}

func TestWindows(t *testing.T) {
	p := DefaultParams()
	p.Deadline = time.UnixMilli(p.Slots.ZeroTime).Add(48 * time.Hour)
	d := p.DeadlineMillis()

	iv, err := p.BeforeDeadline(d - time.Hour.Milliseconds())
	require.NoError(t, err)
	assert.Equal(t, d-time.Hour.Milliseconds(), iv.From)
	assert.Equal(t, iv.From+DefaultValidity.Milliseconds(), iv.To)

	iv, err = p.BeforeDeadline(d - time.Minute.Milliseconds())
	require.NoError(t, err)
	assert.Equal(t, d-1, iv.To, "clamped below the deadline")

	_, err = p.BeforeDeadline(d)
	assert.ErrorIs(t, err, ErrOutsideWindow)
	_, err = p.BeforeDeadline(d - 500)
	assert.ErrorIs(t, err, ErrOutsideWindow, "less than a slot left")

	_, err = p.AfterDeadline(d - 1)
	assert.ErrorIs(t, err, ErrOutsideWindow)
	iv, err = p.AfterDeadline(d)
	require.NoError(t, err)
	assert.Equal(t, Interval{From: d, To: d + DefaultValidity.Milliseconds()}, iv)

	assert.Equal(t, d-24*time.Hour.Milliseconds(), p.PenaltyStartMillis())

	p.Deadline = time.Time{}
	_, err = p.BeforeDeadline(d)
	assert.ErrorIs(t, err, ErrInvalidParams)
}
