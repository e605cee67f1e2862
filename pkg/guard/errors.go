package guard

import (
	"errors"
	"fmt"

	"github.com/Overclock-Validator/bankpda/pkg/pda"
	"github.com/gagliardetto/solana-go"
)

// guard errors
var (
	ErrInvalidProof       = pda.ErrInvalidProof
	ErrUnauthorized       = errors.New("ErrUnauthorized")
	ErrAlreadyInitialized = errors.New("ErrAlreadyInitialized")
	ErrAllocationFailed   = errors.New("ErrAllocationFailed")
	ErrOutcomeUnknown     = errors.New("ErrOutcomeUnknown")
)

// InitError reports why an initialize call at Address did not commit.
// Kind is one of the guard errors above; Err carries the underlying cause.
type InitError struct {
	Kind    error
	Address solana.PublicKey
	Err     error
}

func newInitError(kind error, address solana.PublicKey, err error) *InitError {
	return &InitError{Kind: kind, Address: address, Err: err}
}

func (e *InitError) Error() string {
	if e.Err == nil || e.Err == e.Kind {
		return fmt.Sprintf("%s: address %s", e.Kind, e.Address)
	}
	return fmt.Sprintf("%s: address %s: %s", e.Kind, e.Address, e.Err)
}

func (e *InitError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsRetryable reports whether repeating the same call may succeed.
// ErrOutcomeUnknown callers should re-query the address state first.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrAllocationFailed) || errors.Is(err, ErrOutcomeUnknown)
}

// IsAlreadyInitialized lets idempotent callers treat a lost race as success.
func IsAlreadyInitialized(err error) bool {
	return errors.Is(err, ErrAlreadyInitialized)
}

// AddressOf returns the address carried by an InitError.
func AddressOf(err error) (solana.PublicKey, bool) {
	var initErr *InitError
	if errors.As(err, &initErr) {
		return initErr.Address, true
	}
	return solana.PublicKey{}, false
}
