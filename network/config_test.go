package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkPresets(t *testing.T) {
	tests := []struct {
		name    string
		network string
		url     string
	}{
		{"preview defaults", "preview", "http://localhost:8090"},
		{"preprod defaults", "preprod", "http://localhost:8091"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preset, ok := NetworkPresets[tt.network]
			require.True(t, ok, "preset should exist for %s", tt.network)
			assert.Equal(t, tt.url, preset.URL)
		})
	}
}

func TestMainnetHasNoPreset(t *testing.T) {
	_, ok := NetworkPresets["mainnet"]
	assert.False(t, ok, "mainnet should not have a default preset")

	_, err := ResolveConfig(nil, nil, "mainnet")
	assert.ErrorIs(t, err, ErrNoEndpoint)
}

func TestResolveConfigLayers(t *testing.T) {
	env := map[string]string{EnvRPCURL: "http://env:1", EnvRPCUser: "envuser", EnvRPCPass: "envpass"}

	cfg, err := ResolveConfig(nil, nil, "preview")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8090", cfg.URL)
	assert.Equal(t, "preview", cfg.Network)

	cfg, err = ResolveConfig(nil, env, "preview")
	require.NoError(t, err)
	assert.Equal(t, "http://env:1", cfg.URL)
	assert.Equal(t, "envuser", cfg.User)

	cfg, err = ResolveConfig(&RPCConfig{URL: "http://flag:2", Password: "flagpass"}, env, "mainnet")
	require.NoError(t, err)
	assert.Equal(t, "http://flag:2", cfg.URL)
	assert.Equal(t, "envuser", cfg.User, "unset flags keep lower layers")
	assert.Equal(t, "flagpass", cfg.Password)
	assert.Equal(t, "mainnet", cfg.Network)
}
