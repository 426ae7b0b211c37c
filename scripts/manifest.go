package scripts

import (
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bitfsorg/linkedlist-go/ledger"
)

// Manifest is the on-disk description of a script set:
//
//	network: testnet
//	scripts:
//	  node_validator:
//	    version: 2
//	    cbor: 59012a0100...
type Manifest struct {
	Network string                   `yaml:"network"`
	Scripts map[string]ManifestEntry `yaml:"scripts"`
}

// ManifestEntry is one compiled script.
type ManifestEntry struct {
	Version int    `yaml:"version"`
	CBOR    string `yaml:"cbor"`
}

// ParseManifest decodes manifest YAML into a Set.
func ParseManifest(data []byte) (*Set, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	network, err := ParseNetwork(m.Network)
	if err != nil {
		return nil, err
	}

	scripts := make(map[Role]ledger.Script, len(m.Scripts))
	for name, e := range m.Scripts {
		role, err := ParseRole(name)
		if err != nil {
			return nil, err
		}
		if e.Version < int(ledger.NativeScriptVersion) || e.Version > int(ledger.PlutusV3) {
			return nil, fmt.Errorf("%w: %s: unknown version %d", ErrInvalidManifest, name, e.Version)
		}
		b, err := hex.DecodeString(strings.TrimSpace(e.CBOR))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidManifest, name, err)
		}
		scripts[role] = ledger.Script{Version: ledger.ScriptVersion(e.Version), Bytes: b}
	}
	return NewSet(network, scripts)
}

// LoadManifest reads and parses the manifest at path.
func LoadManifest(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scripts: read manifest: %w", err)
	}
	return ParseManifest(data)
}

// MarshalManifest encodes s as manifest YAML.
func MarshalManifest(s *Set) ([]byte, error) {
	if s == nil {
		return nil, ErrNilParam
	}
	m := Manifest{Network: NetworkName(s.Network), Scripts: map[string]ManifestEntry{}}
	roles := make([]string, 0, len(s.scripts))
	for r := range s.scripts {
		roles = append(roles, string(r))
	}
	sort.Strings(roles)
	for _, r := range roles {
		sc := s.scripts[Role(r)]
		m.Scripts[r] = ManifestEntry{Version: int(sc.Version), CBOR: hex.EncodeToString(sc.Bytes)}
	}
	return yaml.Marshal(m)
}

// ParseNetwork maps "mainnet" to Mainnet and "testnet", "preview" or
// "preprod" to Testnet.
func ParseNetwork(s string) (ledger.Network, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mainnet":
		return ledger.Mainnet, nil
	case "", "testnet", "preview", "preprod":
		return ledger.Testnet, nil
	default:
		return ledger.Testnet, fmt.Errorf("%w: unknown network %q", ErrInvalidManifest, s)
	}
}

// NetworkName is the inverse of ParseNetwork.
func NetworkName(n ledger.Network) string {
	if n == ledger.Mainnet {
		return "mainnet"
	}
	return "testnet"
}
