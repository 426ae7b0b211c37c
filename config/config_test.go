// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// DefaultConfig tests
// ---------------------------------------------------------------------------

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"Network", cfg.Network, "preview"},
		{"Variant", cfg.Variant, "discovery"},
		{"NodeMinADA", cfg.NodeMinADA, int64(DefaultNodeMinADA)},
		{"PenaltyWindow", cfg.PenaltyWindow, 24 * time.Hour},
		{"BatchSize", cfg.BatchSize, DefaultBatchSize},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogFile", cfg.LogFile, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}

	if cfg.DataDir == "" {
		t.Error("DataDir should not be empty")
	}
}

// ---------------------------------------------------------------------------
// SaveConfig / LoadConfig round-trip tests
// ---------------------------------------------------------------------------

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	original := DefaultConfig()
	original.DataDir = "/tmp/test-linkedlist"
	original.Network = "preprod"
	original.RPCURL = "https://provider.example:8443/rpc"
	original.Variant = "liquidity"
	original.Deadline = "2026-03-01T00:00:00Z"
	original.FoldingFee = 500_000
	original.PenaltyWindow = 12 * time.Hour
	original.BatchSize = 3
	original.PenaltyAddress = "addr_test1penalty"
	original.LogLevel = "debug"
	original.LogFile = "/tmp/linkedlist.log"

	if err := SaveConfig(path, original); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if loaded != original {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", loaded, original)
	}
}

func TestSaveConfigCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config")

	if err := SaveConfig(path, DefaultConfig()); err != nil {
		t.Fatalf("SaveConfig should create parent dirs: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Config file not created: %v", err)
	}
}

// ---------------------------------------------------------------------------
// LoadConfig error tests
// ---------------------------------------------------------------------------

func TestLoadConfigNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadConfig nonexistent: got %v, want ErrConfigNotFound", err)
	}
}

func TestLoadConfigInvalidLines(t *testing.T) {
	for name, content := range map[string]string{
		"no_equals":    "this-is-not-key-value\n",
		"empty_key":    "= value\n",
		"bad_int":      "nodeminada = lots\n",
		"bad_duration": "penaltywindow = a day\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config")
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				t.Fatal(err)
			}
			_, err := LoadConfig(path)
			if !errors.Is(err, ErrInvalidConfigLine) {
				t.Errorf("LoadConfig: got %v, want ErrInvalidConfigLine", err)
			}
		})
	}
}

func TestLoadConfigCommentsAndBlanks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	content := `# This is a comment
network = preprod

# Another comment
loglevel = debug
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Network != "preprod" {
		t.Errorf("Network = %q, want %q", cfg.Network, "preprod")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	// Unset fields should retain defaults.
	if cfg.MinCommitment != DefaultMinCommitment {
		t.Errorf("MinCommitment = %d, want default %d", cfg.MinCommitment, DefaultMinCommitment)
	}
}

func TestLoadConfigUnknownKeysIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	content := "futurekey = futurevalue\nnetwork = mainnet\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig with unknown key: %v", err)
	}
	if cfg.Network != "mainnet" {
		t.Errorf("Network = %q, want %q", cfg.Network, "mainnet")
	}
}

func TestLoadConfig_MultipleEquals(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	content := "logfile=/tmp/a=b.log\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LogFile != "/tmp/a=b.log" {
		t.Errorf("LogFile = %q, want %q", cfg.LogFile, "/tmp/a=b.log")
	}
}

func TestLoadConfig_PermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission test not reliable on Windows")
	}
	if os.Getuid() == 0 {
		t.Skip("cannot test permission denial as root")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	if err := os.WriteFile(path, []byte("network=preview\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(path, 0000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(path, 0600) })

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig on unreadable file: expected error, got nil")
	}
	if errors.Is(err, ErrConfigNotFound) {
		t.Error("LoadConfig on unreadable file should not return ErrConfigNotFound")
	}
}

// ---------------------------------------------------------------------------
// ValidateConfig tests
// ---------------------------------------------------------------------------

func TestValidateConfigDefaults(t *testing.T) {
	if err := ValidateConfig(DefaultConfig()); err != nil {
		t.Errorf("ValidateConfig(DefaultConfig()) = %v, want nil", err)
	}
}

func TestValidateConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"empty_datadir", func(c *Config) { c.DataDir = "" }, ErrEmptyDataDir},
		{"bad_network", func(c *Config) { c.Network = "devnet" }, ErrInvalidNetwork},
		{"empty_network", func(c *Config) { c.Network = "" }, ErrInvalidNetwork},
		{"bad_rpc_scheme", func(c *Config) { c.RPCURL = "ftp://host/rpc" }, ErrInvalidRPCURL},
		{"bad_rpc_host", func(c *Config) { c.RPCURL = "http://" }, ErrInvalidRPCURL},
		{"bad_variant", func(c *Config) { c.Variant = "auction" }, ErrInvalidVariant},
		{"bad_deadline", func(c *Config) { c.Deadline = "tomorrow" }, ErrInvalidDeadline},
		{"zero_node_min", func(c *Config) { c.NodeMinADA = 0 }, ErrInvalidAmount},
		{"fee_above_floor", func(c *Config) { c.FoldingFee = c.NodeMinADA }, ErrInvalidAmount},
		{"zero_window", func(c *Config) { c.PenaltyWindow = 0 }, ErrInvalidAmount},
		{"zero_batch", func(c *Config) { c.BatchSize = 0 }, ErrInvalidBatchSize},
		{"bad_loglevel", func(c *Config) { c.LogLevel = "verbose" }, ErrInvalidLogLevel},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			err := ValidateConfig(cfg)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ValidateConfig: got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidateConfig_LogLevelCaseInsensitive(t *testing.T) {
	for _, level := range []string{"INFO", "Debug", "WARN", "Error", "dEbUg"} {
		t.Run(level, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.LogLevel = level
			if err := ValidateConfig(cfg); err != nil {
				t.Errorf("ValidateConfig with LogLevel %q: %v", level, err)
			}
		})
	}
}

func TestDeadlineTime(t *testing.T) {
	cfg := DefaultConfig()
	if d, err := cfg.DeadlineTime(); err != nil || !d.IsZero() {
		t.Errorf("unset deadline: got %v, %v", d, err)
	}

	cfg.Deadline = "2026-03-01T12:00:00Z"
	d, err := cfg.DeadlineTime()
	if err != nil {
		t.Fatalf("DeadlineTime: %v", err)
	}
	if want := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC); !d.Equal(want) {
		t.Errorf("DeadlineTime = %v, want %v", d, want)
	}
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

func TestConfigPath(t *testing.T) {
	got := ConfigPath("/home/user/.linkedlist")
	want := filepath.Join("/home/user/.linkedlist", "config")
	if got != want {
		t.Errorf("ConfigPath = %q, want %q", got, want)
	}
}

func TestManifestPath(t *testing.T) {
	cfg := Config{DataDir: "/data", ScriptsFile: "scripts.yaml"}
	if got := cfg.ManifestPath(); got != filepath.Join("/data", "scripts.yaml") {
		t.Errorf("relative ManifestPath = %q", got)
	}
	cfg.ScriptsFile = "/etc/scripts.yaml"
	if got := cfg.ManifestPath(); got != "/etc/scripts.yaml" {
		t.Errorf("absolute ManifestPath = %q", got)
	}
}

func TestDefaultDataDir_EndsWith_DotLinkedlist(t *testing.T) {
	if dir := DefaultDataDir(); !strings.HasSuffix(dir, ".linkedlist") {
		t.Errorf("DefaultDataDir() = %q, want suffix %q", dir, ".linkedlist")
	}
}

func TestSaveConfig_OutputContainsAllKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	if err := SaveConfig(path, DefaultConfig()); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "# linkedlist configuration") {
		t.Error("saved config should contain the header")
	}
	for _, key := range []string{"datadir", "network", "rpc", "scripts", "variant", "deadline",
		"nodeminada", "mincommitment", "foldingfee", "minutxo", "penaltywindow", "mintwindow",
		"batchsize", "penaltyaddress", "treasuryaddress", "loglevel", "logfile"} {
		if !strings.Contains(content, key+" = ") {
			t.Errorf("saved config should contain key %q", key)
		}
	}
}
