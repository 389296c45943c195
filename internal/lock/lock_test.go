package lock

import (
	"path/filepath"
	"sync"
	"testing"
)

func TestWithLockRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.lock")
	ran := false
	if err := WithLock(path, func() error { ran = true; return nil }); err != nil {
		t.Fatalf("WithLock error = %v", err)
	}
	if !ran {
		t.Error("fn did not run")
	}
}

func TestWithLockSerializes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.lock")
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = WithLock(path, func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()

	if counter != 20 {
		t.Errorf("counter = %d, want 20", counter)
	}
}

func TestWithLockPropagatesError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.lock")
	wantErr := WithLock(path, func() error { return errBoom })
	if wantErr != errBoom {
		t.Errorf("WithLock error = %v, want errBoom", wantErr)
	}
}

var errBoom = &boomError{}

type boomError struct{}

func (*boomError) Error() string { return "boom" }
