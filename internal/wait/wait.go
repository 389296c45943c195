// Package wait provides a fixed-cadence bounded-retry poller for
// "does this resource exist yet" checks.
//
// Unlike exponential-backoff retry helpers, the cadence here is a fixed
// interval with no jitter: callers are short-lived CLI invocations and
// bounded background tasks that want a predictable worst-case latency.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kildtools/kild/internal/errs"
)

// DefaultInterval is the fixed sleep between probe attempts.
const DefaultInterval = 100 * time.Millisecond

// CodeTimeout is the stable code carried by TimeoutError.
const CodeTimeout errs.Code = "WAIT_TIMEOUT"

// Result describes a successful poll, with diagnostics about how long
// it took to get there.
type Result[T any] struct {
	Value    T
	Attempts int
	Elapsed  time.Duration
}

// TimeoutError is returned when the deadline expires before the probe
// succeeds. It is classified as a user error: the thing didn't appear
// in time, which is an expected, actionable outcome rather than a
// system fault.
type TimeoutError struct {
	Elapsed  time.Duration
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s (%d attempts)", e.Elapsed.Round(time.Millisecond), e.Attempts)
}

// ErrCode returns the stable wait-timeout code.
func (e *TimeoutError) ErrCode() errs.Code { return CodeTimeout }

// IsUserError marks the timeout as an expected outcome.
func (e *TimeoutError) IsUserError() bool { return true }

// retryable marks a probe error as worth retrying.
type retryable struct{ err error }

func (r *retryable) Error() string { return r.err.Error() }
func (r *retryable) Unwrap() error { return r.err }

// Retryable marks err as a transient probe failure ("not found yet")
// that the poller should retry. Unmarked errors are terminal: they can
// never resolve by waiting and are propagated immediately.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryable{err: err}
}

// IsRetryable reports whether err carries the retryable mark.
func IsRetryable(err error) bool {
	var r *retryable
	return errors.As(err, &r)
}

// Poll calls probe until it succeeds, returns a terminal error, or the
// timeout expires. See PollContext for the retry contract.
func Poll[T any](probe func() (T, error), timeout time.Duration) (Result[T], error) {
	return PollEvery(context.Background(), probe, timeout, DefaultInterval)
}

// PollContext is Poll with caller-supplied cancellation.
func PollContext[T any](ctx context.Context, probe func() (T, error), timeout time.Duration) (Result[T], error) {
	return PollEvery(ctx, probe, timeout, DefaultInterval)
}

// PollEvery runs the poll loop with an explicit interval.
//
// On success the result carries the attempt count and elapsed time. A
// terminal (unmarked) probe error propagates immediately, never
// retried. After a retryable failure the deadline is checked before
// sleeping: if the next probe could not run before the deadline, the
// loop returns TimeoutError rather than sleeping once more. A probe
// that would land exactly on the deadline is not attempted.
func PollEvery[T any](ctx context.Context, probe func() (T, error), timeout, interval time.Duration) (Result[T], error) {
	var zero Result[T]
	start := time.Now()

	for attempts := 1; ; attempts++ {
		v, err := probe()
		if err == nil {
			return Result[T]{Value: v, Attempts: attempts, Elapsed: time.Since(start)}, nil
		}
		if !IsRetryable(err) {
			return zero, err
		}

		elapsed := time.Since(start)
		if elapsed+interval >= timeout {
			return zero, &TimeoutError{Elapsed: elapsed, Attempts: attempts}
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(interval):
		}
	}
}
