package verifier

import (
	"errors"
	"fmt"
)

// Machine-readable error kinds.
const (
	KindInvalidInput   = "invalid_input"
	KindMalformedChain = "malformed_chain"
	KindInvalidSecret  = "invalid_secret"
	KindInternal       = "internal"
)

var (
	// ErrInvalidInput matches every *InvalidInputError.
	ErrInvalidInput = errors.New("invalid input")
	// ErrMalformedChain matches every *MalformedChainError.
	ErrMalformedChain = errors.New("malformed chain")
	// ErrInvalidSecret is returned when the secret cannot key the configured MAC.
	ErrInvalidSecret = errors.New("invalid secret key")
	// ErrUnknownAlgorithm is returned for an unsupported digest or MAC name.
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
)

// InvalidInputError reports block data rejected by the acceptance policy.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

func (e *InvalidInputError) Kind() string { return KindInvalidInput }

// MalformedChainError reports a chain that violates the structural
// preconditions of Inspect. It signals a caller bug, not tampering.
type MalformedChainError struct {
	Index  int
	Reason string
}

func (e *MalformedChainError) Error() string {
	return fmt.Sprintf("malformed chain at position %d: %s", e.Index, e.Reason)
}

func (e *MalformedChainError) Is(target error) bool { return target == ErrMalformedChain }

func (e *MalformedChainError) Kind() string { return KindMalformedChain }

// Kind returns the machine-readable kind of err, or KindInternal when err
// carries none.
func Kind(err error) string {
	var k interface{ Kind() string }
	if errors.As(err, &k) {
		return k.Kind()
	}
	if errors.Is(err, ErrInvalidSecret) {
		return KindInvalidSecret
	}
	return KindInternal
}
