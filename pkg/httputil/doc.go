// Package httputil provides retry and backoff helpers for the backend
// transports.
//
// # Retry
//
// [Retry] re-runs an operation while it fails with a [RetryableError].
// Transports wrap transient failures (network errors, 5xx responses) in
// that type; everything else is returned on the first attempt:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return fetchGraph(ctx)
//	})
//
// Only idempotent requests are retried. Mutations go through the backend
// at most once and surface their error to the caller.
//
// # Backoff
//
// [Backoff] computes reconnect delays for long-lived connections such as
// the push channel: each failure multiplies the delay, capped at Max, and a
// successful connection resets it.
package httputil
