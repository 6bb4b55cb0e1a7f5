package userdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 100 * time.Millisecond

// ErrLocked is returned when another process holds the writer lock and the
// context expires before it is released.
var ErrLocked = errors.New("another promptreg process is modifying the data directory")

// Lock is the single-writer lock on a data directory.
type Lock struct {
	fl *flock.Flock
}

// AcquireLock takes the writer lock of dataDir, retrying until ctx is done.
func AcquireLock(ctx context.Context, dataDir string) (*Lock, error) {
	if err := EnsureDataDir(dataDir); err != nil {
		return nil, err
	}
	fl := flock.New(LockPath(dataDir))
	ok, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrLocked, err)
		}
		return nil, fmt.Errorf("locking %s: %w", fl.Path(), err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &Lock{fl: fl}, nil
}

// Release drops the lock. It is safe to call on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
