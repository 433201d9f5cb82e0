package credential

import (
	"errors"
	"fmt"
)

// Typed errors raised by the anchoring and verification core. Handlers map
// these onto HTTP status codes; nothing in this package catches an error it
// has no recovery strategy for.
var (
	// ErrInvalidInput marks a malformed hash or missing identity fields; never retried
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a credential or hash absent from all known sources
	ErrNotFound = errors.New("not found")
	// ErrAlreadyAnchored marks a second anchoring attempt on the same credential
	ErrAlreadyAnchored = errors.New("credential already anchored")
	// ErrAlreadyAnchoredOnChain means the chain itself reports the hash slot occupied
	ErrAlreadyAnchoredOnChain = errors.New("hash already anchored on chain")
	// ErrChainUnavailable marks a transient chain failure; the caller may retry
	ErrChainUnavailable = errors.New("chain unavailable")
)

// ChainUnavailableError wraps the transport failure behind ErrChainUnavailable
// so callers can match with errors.Is while the cause stays inspectable.
type ChainUnavailableError struct {
	Cause error // Underlying transport or timeout error
}

// Error returns the error message including the cause
func (e *ChainUnavailableError) Error() string {
	return fmt.Sprintf("chain unavailable: %v", e.Cause)
}

// Unwrap exposes the underlying cause
func (e *ChainUnavailableError) Unwrap() error { return e.Cause }

// Is matches the ErrChainUnavailable sentinel
func (e *ChainUnavailableError) Is(target error) bool { return target == ErrChainUnavailable }
