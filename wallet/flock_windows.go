//go:build windows

package wallet

import (
	"fmt"
	"os"
)

// tryLock only opens the lock file; Windows has no syscall.Flock, so two
// operators on one data directory are not excluded.
func tryLock(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("wallet: open lock file: %w", err)
	}
	return f, nil
}

func releaseLock(f *os.File) {
	if f != nil {
		_ = f.Close()
	}
}
