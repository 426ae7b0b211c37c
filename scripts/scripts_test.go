package scripts

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/linkedlist-go/datum"
	"github.com/bitfsorg/linkedlist-go/ledger"
)

func fullSet(t *testing.T) *Set {
	t.Helper()
	m := map[Role]ledger.Script{}
	for i, r := range Roles {
		m[r] = ledger.Script{Version: ledger.PlutusV2, Bytes: []byte{0x46, 0x01, 0x00, 0x00, 0x22, 0x22, byte(i)}}
	}
	s, err := NewSet(ledger.Testnet, m)
	require.NoError(t, err)
	return s
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("node_policy")
	require.NoError(t, err)
	assert.Equal(t, NodePolicy, r)

	_, err = ParseRole("nope")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestSet_Validate(t *testing.T) {
	s := fullSet(t)
	require.NoError(t, s.Validate())

	assert.True(t, s.Has(NodeValidator))

	_, err := NewSet(ledger.Testnet, map[Role]ledger.Script{NodePolicy: s.Script(NodePolicy)})
	assert.ErrorIs(t, err, ErrMissingRole, "partial set")
	assert.ErrorIs(t, (&Set{}).Validate(), ErrMissingRole)

	_, err = NewSet(ledger.Testnet, map[Role]ledger.Script{NodePolicy: {}})
	assert.ErrorIs(t, err, ErrMissingRole)
}

func TestSet_Units(t *testing.T) {
	s := fullSet(t)
	key := datum.NodeKey{0x01}

	policy, name, err := s.NodeUnit(key).Split()
	require.NoError(t, err)
	assert.Equal(t, s.Hash(NodePolicy), policy)
	assert.Equal(t, []byte("FSN\x01"), name)

	_, name, err = s.OriginUnit().Split()
	require.NoError(t, err)
	assert.Equal(t, []byte("FSN"), name)

	for unit, role := range map[ledger.Unit]Role{
		s.CommitFoldUnit():  CommitFoldPolicy,
		s.RewardFoldUnit():  RewardFoldPolicy,
		s.TokenHolderUnit(): TokenHolderPolicy,
	} {
		p, ok := unit.Policy()
		require.True(t, ok)
		assert.Equal(t, s.Hash(role), p)
	}

	addr := s.Address(NodeValidator)
	assert.Equal(t, ledger.ScriptCredential, addr.Payment.Type)
	assert.Equal(t, s.Hash(NodeValidator), addr.Payment.Hash)
}

func TestManifest_RoundTrip(t *testing.T) {
	s := fullSet(t)
	raw, err := MarshalManifest(s)
	require.NoError(t, err)

	got, err := ParseManifest(raw)
	require.NoError(t, err)
	assert.Equal(t, s.Network, got.Network)
	for _, r := range Roles {
		assert.Equal(t, s.Script(r), got.Script(r), r)
	}
}

func TestParseManifest_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{"bad yaml", "network: [", ErrInvalidManifest},
		{"bad network", "network: moon\n", ErrInvalidManifest},
		{"unknown role", "scripts:\n  other:\n    version: 2\n    cbor: \"00\"\n", ErrUnknownRole},
		{"bad version", "scripts:\n  node_policy:\n    version: 9\n    cbor: \"00\"\n", ErrInvalidManifest},
		{"bad hex", "scripts:\n  node_policy:\n    version: 2\n    cbor: zz\n", ErrInvalidManifest},
		{"empty script", "scripts:\n  node_policy:\n    version: 2\n    cbor: \"\"\n", ErrMissingRole},
		{"partial set", "network: testnet\nscripts:\n  node_validator:\n    version: 2\n    cbor: \"4601000022\"\n  node_policy:\n    version: 2\n    cbor: \"4601000023\"\n", ErrMissingRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.yaml))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadManifest(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func testRef(i byte) Ref {
	return Ref{
		OutRef:     ledger.OutRef{TxHash: ledger.Blake2b256([]byte{i}), Index: uint32(i)},
		ScriptHash: ledger.Blake2b224([]byte{i}),
	}
}

func exerciseStore(t *testing.T, s RefStore) {
	_, err := s.Get(NodePolicy)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(NodeValidator, testRef(1)))
	require.NoError(t, s.Put(NodePolicy, testRef(2)))
	require.NoError(t, s.Put(NodeValidator, testRef(3)))

	got, err := s.Get(NodeValidator)
	require.NoError(t, err)
	assert.Equal(t, testRef(3), got)

	all, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []RoleRef{{NodeValidator, testRef(3)}, {NodePolicy, testRef(2)}}, all)

	require.NoError(t, s.Delete(NodeValidator))
	_, err = s.Get(NodeValidator)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemRefStore(t *testing.T) {
	exerciseStore(t, NewMemRefStore())
}

func TestBoltRefStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "refs.db")
	s, err := OpenBoltRefStore(path)
	require.NoError(t, err)
	exerciseStore(t, s)

	require.NoError(t, s.Put(AlwaysFails, testRef(7)))
	require.NoError(t, s.Close())

	reopened, err := OpenBoltRefStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Get(AlwaysFails)
	require.NoError(t, err)
	assert.Equal(t, testRef(7), got)

	assert.ErrorIs(t, reopened.Put("bogus", testRef(1)), ErrUnknownRole)
}
