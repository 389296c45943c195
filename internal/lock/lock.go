// Package lock serializes cross-process read-modify-write operations
// on session records with advisory file locks.
package lock

import (
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// acquireTimeout bounds how long a CLI invocation waits on another
// holder before giving up.
const acquireTimeout = 5 * time.Second

// retryInterval is how often a blocked acquire re-polls the lock.
const retryInterval = 50 * time.Millisecond

// WithLock runs fn while holding an exclusive advisory lock on path.
// The lock file is created if missing and left in place afterward.
func WithLock(path string, fn func() error) error {
	fl := flock.New(path)

	deadline := time.Now().Add(acquireTimeout)
	for {
		ok, err := fl.TryLock()
		if err != nil {
			return fmt.Errorf("acquiring lock %s: %w", path, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for lock %s", path)
		}
		time.Sleep(retryInterval)
	}
	defer func() { _ = fl.Unlock() }()

	return fn()
}
