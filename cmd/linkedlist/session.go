package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/bitfsorg/linkedlist-go/config"
	"github.com/bitfsorg/linkedlist-go/deploy"
	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/logging"
	"github.com/bitfsorg/linkedlist-go/network"
	"github.com/bitfsorg/linkedlist-go/protocol"
	"github.com/bitfsorg/linkedlist-go/scripts"
	"github.com/bitfsorg/linkedlist-go/tx"
	"github.com/bitfsorg/linkedlist-go/wallet"
)

// session is an opened data directory: configuration, provider, scripts,
// registry and, for commands that sign, the operator key.
type session struct {
	cfg  config.Config
	log  zerolog.Logger
	env  *protocol.Env
	refs *scripts.BoltRefStore
	key  *wallet.Key
	lock *wallet.Lock

	out     io.Writer
	now     int64
	dryRun  bool
	logFile *os.File
}

// loadConfig reads the data directory's configuration and applies the
// global overrides. A missing file yields the defaults.
func loadConfig(c *cli.Context) (config.Config, error) {
	dataDir := c.String("datadir")
	cfg, err := config.LoadConfig(config.ConfigPath(dataDir))
	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		cfg = config.DefaultConfig()
	case err != nil:
		return config.Config{}, err
	}
	cfg.DataDir = dataDir
	if v := c.String("network"); v != "" {
		cfg.Network = v
	}
	if v := c.String("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(c *cli.Context, cfg config.Config) (zerolog.Logger, *os.File, error) {
	if cfg.LogFile == "" {
		return logging.NewConsole("linkedlist", cfg.LogLevel, c.App.ErrWriter), nil, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("open log file: %w", err)
	}
	return logging.New("linkedlist", cfg.LogLevel, f), f, nil
}

// rpcConfig resolves the gateway endpoint. Flags and SRV discovery outrank
// the environment, which outranks the configuration file and the presets.
func rpcConfig(c *cli.Context, cfg config.Config, log zerolog.Logger) (*network.RPCConfig, error) {
	flags := &network.RPCConfig{
		URL:      c.String("rpc"),
		User:     c.String("rpc-user"),
		Password: c.String("rpc-pass"),
	}
	if domain := c.String("discover"); domain != "" {
		var resolver network.SRVResolver = network.SystemResolver
		if c.Bool("dnssec") {
			resolver = network.NewDNSSECResolver(c.String("dns-upstream"))
		}
		urls, err := network.Discover(domain, "", resolver)
		if err != nil {
			return nil, err
		}
		log.Debug().Strs("gateways", urls).Msg("discovered")
		flags.URL = urls[0]
	}
	env := map[string]string{}
	for _, k := range []string{network.EnvRPCURL, network.EnvRPCUser, network.EnvRPCPass} {
		env[k] = os.Getenv(k)
	}
	if env[network.EnvRPCURL] == "" {
		env[network.EnvRPCURL] = cfg.RPCURL
	}
	return network.ResolveConfig(flags, env, cfg.Network)
}

// open builds a session. With signing set it also takes the data
// directory lock and decrypts the operator key.
func open(c *cli.Context, signing bool) (*session, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	log, logFile, err := newLogger(c, cfg)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, log: log, out: c.App.Writer, now: c.Int64("now"), dryRun: c.Bool("dry-run"), logFile: logFile}

	if err := s.init(c, signing); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) init(c *cli.Context, signing bool) error {
	rpc, err := rpcConfig(c, s.cfg, s.log)
	if err != nil {
		return err
	}
	set, err := scripts.LoadManifest(s.cfg.ManifestPath())
	if err != nil {
		return err
	}
	params, err := protocol.ParamsFromConfig(s.cfg)
	if err != nil {
		return err
	}
	s.env = &protocol.Env{
		Provider: network.NewProvider(*rpc),
		Scripts:  set,
		Params:   params,
		Log:      s.log,
	}
	if err := s.env.Validate(); err != nil {
		return err
	}

	if signing {
		if s.lock, err = wallet.TryLock(wallet.LockPath(s.cfg.DataDir)); err != nil {
			return err
		}
		if s.key, err = operatorKey(c, s.cfg.DataDir, set.Network); err != nil {
			return err
		}
		s.log.Debug().Str("address", s.key.Address.String()).Str("path", s.key.Path).Msg("operator key")
	}

	if s.refs, err = scripts.OpenBoltRefStore(config.RegistryPath(s.cfg.DataDir)); err != nil {
		return err
	}
	// A stale registry leaves the scripts attached to each transaction.
	if err := deploy.Use(c.Context, s.env, s.refs); err != nil {
		s.log.Warn().Err(err).Msg("reference scripts unavailable")
	}
	return nil
}

func operatorKey(c *cli.Context, dataDir string, net ledger.Network) (*wallet.Key, error) {
	w, err := wallet.Open(wallet.KeyFilePath(dataDir), c.String("password"), net)
	if err != nil {
		return nil, err
	}
	return w.PaymentKey(uint32(c.Uint("account")), uint32(c.Uint("index")))
}

// Close releases the registry, the lock and the log file.
func (s *session) Close() {
	if s.refs != nil {
		_ = s.refs.Close()
	}
	s.lock.Release()
	if s.logFile != nil {
		_ = s.logFile.Close()
	}
}

// caller is the operator as an operation caller.
func (s *session) caller() protocol.Caller {
	return protocol.Caller{Address: s.key.Address, CurrentTime: s.now}
}

// submit signs and submits built, or prints it under --dry-run.
func (s *session) submit(c *cli.Context, built *tx.Tx) (ledger.TxHash, error) {
	if s.dryRun {
		raw, err := built.Bytes()
		if err != nil {
			return ledger.TxHash{}, err
		}
		fmt.Fprintf(s.out, "tx %s fee %d\n%x\n", built.Hash, built.Fee, raw)
		return built.Hash, nil
	}
	h, err := built.Submit(c.Context, s.env.Provider, s.key.Private)
	if err != nil {
		return ledger.TxHash{}, err
	}
	fmt.Fprintf(s.out, "submitted %s (fee %d)\n", h, built.Fee)
	return h, nil
}

// signer adapts submit to the fold runner and the deploy helper.
func (s *session) signer(c *cli.Context) func(ctx context.Context, built *tx.Tx) (ledger.TxHash, error) {
	return func(_ context.Context, built *tx.Tx) (ledger.TxHash, error) {
		return s.submit(c, built)
	}
}
