package bank

import "errors"

// Sync error taxonomy. Callers branch on these with errors.Is; the
// orchestrator converts them into structured sync results at its boundary.
var (
	// ErrNotFound is returned when a bank or bank account row does not exist.
	ErrNotFound = errors.New("bank: not found")

	// ErrAuthExpired is returned when an account has no usable refresh token
	// or the refresh call was rejected. Not retryable; the user must relink
	// the account.
	ErrAuthExpired = errors.New("bank: reauthentication required")

	// ErrUpstreamUnavailable is returned on network failure or a non-2xx
	// response from the bank API. Transient; retry policy belongs to the
	// caller, never to the engine.
	ErrUpstreamUnavailable = errors.New("bank: upstream unavailable")

	// ErrDataShape is returned when an upstream response does not match the
	// expected schema.
	ErrDataShape = errors.New("bank: unexpected upstream response shape")

	// ErrPersistence is returned when a store read or write fails mid-sync.
	ErrPersistence = errors.New("bank: persistence failure")
)

// IsAuthExpired checks whether the error requires account relinking.
func IsAuthExpired(err error) bool {
	return errors.Is(err, ErrAuthExpired)
}

// IsNotFound checks whether the error is a missing bank or account.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Classify returns a label for the error kind, used for metrics and for the
// reason field of sync results. The UI distinguishes "needs reauthentication"
// from transient failures on this value, not on message text.
func Classify(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAuthExpired):
		return "needs_reauthentication"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "upstream_unavailable"
	case errors.Is(err, ErrDataShape):
		return "data_shape"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	default:
		return "internal"
	}
}
