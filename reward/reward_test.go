package reward

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/linkedlist-go/datum"
	"github.com/bitfsorg/linkedlist-go/protocol"
)

func TestOwed(t *testing.T) {
	tests := []struct {
		name       string
		commitment int64
		tokens     int64
		committed  int64
		want       int64
		wantErr    error
	}{
		{"scenario node", 4_000_000, 100_000_000, 14_000_000, 28_571_428, nil},
		{"whole supply", 14_000_000, 100_000_000, 14_000_000, 100_000_000, nil},
		{"zero commitment", 0, 100, 14, 0, nil},
		{"large product", math.MaxInt64 / 2, math.MaxInt64, math.MaxInt64, math.MaxInt64 / 2, nil},
		{"zero total", 1, 100, 0, 0, ErrZeroTotalCommitted},
		{"negative", -1, 100, 10, 0, ErrNegativeCommitment},
		{"over", 11, 100, 10, 0, ErrOvercommitted},
		{"negative supply", 1, -1, 10, 0, ErrNegativeSupply},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Owed(tt.commitment, tt.tokens, tt.committed)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOwed_Kinds(t *testing.T) {
	_, err := Owed(1, 1, 0)
	assert.ErrorIs(t, err, protocol.ErrInvariantViolation)
	_, err = Owed(1, -1, 1)
	assert.ErrorIs(t, err, protocol.ErrInvalidParams)
}

func TestDistribute_ProportionalSums(t *testing.T) {
	entries := []Entry{
		{Key: datum.NodeKey{1}, Commitment: 4_000_000},
		{Key: datum.NodeKey{2}, Commitment: 5_000_000},
		{Key: datum.NodeKey{3}, Commitment: 5_000_000},
	}
	plan, err := Distribute(entries, 100_000_000, 14_000_000)
	require.NoError(t, err)

	assert.Equal(t, []int64{28_571_428, 35_714_285, 35_714_285},
		[]int64{plan.Shares[0].Owed, plan.Shares[1].Owed, plan.Shares[2].Owed})
	assert.Equal(t, int64(14_000_000), plan.Committed)
	assert.Equal(t, int64(99_999_998), plan.Distributed)

	dust, err := plan.Dust(100_000_000, 14_000_000)
	require.NoError(t, err)
	assert.Equal(t, int64(2), dust)
	assert.Less(t, dust, int64(len(entries)))
}

func TestDistribute_BatchesAgree(t *testing.T) {
	entries := []Entry{
		{Key: datum.NodeKey{1}, Commitment: 3_333_333},
		{Key: datum.NodeKey{2}, Commitment: 7_777_777},
		{Key: datum.NodeKey{3}, Commitment: 1_234_567},
		{Key: datum.NodeKey{4}, Commitment: 9_999_999},
	}
	var total int64
	for _, e := range entries {
		total += e.Commitment
	}
	const supply = 1_000_000_007

	whole, err := Distribute(entries, supply, total)
	require.NoError(t, err)

	var batched int64
	for _, run := range [][]Entry{entries[:2], entries[2:3], entries[3:]} {
		p, err := Distribute(run, supply, total)
		require.NoError(t, err)
		dust, err := p.Dust(supply, total)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, dust, int64(0))
		assert.Less(t, dust, int64(len(run)))
		batched += p.Distributed
	}
	assert.Equal(t, whole.Distributed, batched)
	assert.LessOrEqual(t, whole.Distributed, int64(supply))
	assert.Less(t, int64(supply)-whole.Distributed, int64(len(entries)))
}

func TestDistribute_Overcommitted(t *testing.T) {
	_, err := Distribute([]Entry{{Commitment: 6}, {Commitment: 6}}, 100, 10)
	assert.ErrorIs(t, err, ErrOvercommitted)
}
