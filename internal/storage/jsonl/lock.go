package jsonl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrLockBusy is returned when the directory lock is held by another process
// for longer than the lock timeout.
var ErrLockBusy = errors.New("data directory is locked by another process")

// lock takes the exclusive directory lock, retrying with exponential backoff
// until the lock timeout elapses or ctx is done.
func (s *Store) lock(ctx context.Context) (func(), error) {
	path := filepath.Join(s.dir, lockName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600) // #nosec G304 - fixed name inside the data dir
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxInterval = 250 * time.Millisecond
	bo.MaxElapsedTime = s.lockTimeout

	err = backoff.Retry(func() error {
		err := flockExclusive(f)
		if err == nil || errors.Is(err, ErrLockBusy) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		_ = f.Close()
		if errors.Is(err, ErrLockBusy) {
			return nil, fmt.Errorf("%w (waited %s)", ErrLockBusy, s.lockTimeout)
		}
		return nil, fmt.Errorf("failed to lock data directory: %w", err)
	}

	return func() {
		_ = flockUnlock(f)
		_ = f.Close()
	}, nil
}
