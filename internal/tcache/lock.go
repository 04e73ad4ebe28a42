package tcache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another session is already reviewing the
// same library.
var ErrLocked = errors.New("another tuneDitto session holds the library lock")

// SessionLock guards a library root against two review sessions deleting
// from it at the same time.
type SessionLock struct {
	lock *flock.Flock
}

// Lock takes the session lock for root. It never blocks.
func Lock(dir, root string) (*SessionLock, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create lock directory %s: %w", dir, err)
	}

	fl := flock.New(filepath.Join(dir, Key(root)+".lock"))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &SessionLock{lock: fl}, nil
}

// Path returns the lock file.
func (l *SessionLock) Path() string { return l.lock.Path() }

// Release drops the lock. Safe to call more than once.
func (l *SessionLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
