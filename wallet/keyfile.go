package wallet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitfsorg/linkedlist-go/ledger"
)

// KeyFilePath returns the encrypted seed path inside dataDir.
func KeyFilePath(dataDir string) string {
	return filepath.Join(dataDir, "wallet.enc")
}

// LockPath returns the operator lock file inside dataDir.
func LockPath(dataDir string) string {
	return filepath.Join(dataDir, "lock")
}

// CreateKeyFile encrypts seed under password and writes it to path. An
// existing file is never overwritten.
func CreateKeyFile(path string, seed []byte, password string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrKeyFileExists, path)
	}
	encrypted, err := EncryptSeed(seed, password)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("wallet: create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrKeyFileExists, path)
		}
		return fmt.Errorf("wallet: create key file: %w", err)
	}
	if _, err := f.Write(encrypted); err != nil {
		_ = f.Close()
		return fmt.Errorf("wallet: write key file: %w", err)
	}
	return f.Close()
}

// Open decrypts the key file at path and returns a Wallet on network.
func Open(path, password string, network ledger.Network) (*Wallet, error) {
	encrypted, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrKeyFileNotFound, path)
		}
		return nil, fmt.Errorf("wallet: read key file: %w", err)
	}
	seed, err := DecryptSeed(encrypted, password)
	if err != nil {
		return nil, err
	}
	return NewWallet(seed, network)
}

// Lock is an exclusive hold on an operator data directory.
type Lock struct {
	f *os.File
}

// TryLock takes the lock at path without blocking.
func TryLock(path string) (*Lock, error) {
	f, err := tryLock(path)
	if err != nil {
		return nil, err
	}
	return &Lock{f: f}, nil
}

// Release drops the lock.
func (l *Lock) Release() {
	if l != nil {
		releaseLock(l.f)
	}
}
