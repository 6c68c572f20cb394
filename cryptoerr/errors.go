// Package cryptoerr defines the error kinds shared by every envelope package.
//
// There are exactly four kinds. Callers classify failures with errors.Is against
// one of the kind sentinels; the more specific sentinels below each wrap a kind,
// so errors.Is(err, ErrData) also matches ErrInvalidFormat and friends.
//
//	blob, err := cs.DecryptBytes(input)
//	switch {
//	case errors.Is(err, cryptoerr.ErrData):
//	    // untrusted or corrupt input
//	case errors.Is(err, cryptoerr.ErrCrypto):
//	    // the primitive library failed
//	}
package cryptoerr

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	// ErrLogic indicates a violated precondition: a programming error in the caller.
	ErrLogic = errors.New("logic error")

	// ErrData indicates a malformed, corrupt or oversized encoded structure.
	ErrData = errors.New("data error")

	// ErrCrypto indicates that the underlying primitive library failed.
	ErrCrypto = errors.New("crypto operation failed")

	// ErrWrongPassword is the expected, retriable outcome of a failed password check.
	ErrWrongPassword = errors.New("wrong password")
)

// Data errors.
var (
	// ErrInvalidFormat indicates a blob whose layout cannot be parsed.
	ErrInvalidFormat = fmt.Errorf("%w: invalid format", ErrData)

	// ErrVersionMismatch indicates a mode header carrying an unsupported version.
	ErrVersionMismatch = fmt.Errorf("%w: unsupported mode version", ErrData)

	// ErrSizeLimit indicates an encoded structure exceeding its size limit.
	ErrSizeLimit = fmt.Errorf("%w: size limit exceeded", ErrData)

	// ErrUnknownAlgorithm indicates a catalog id that names no known variant.
	ErrUnknownAlgorithm = fmt.Errorf("%w: unknown algorithm id", ErrData)
)

// Logic errors.
var (
	// ErrPublicOnly indicates an operation that needs a private key on a public-only key.
	ErrPublicOnly = fmt.Errorf("%w: private key not available", ErrLogic)

	// ErrPartnerMismatch indicates two asymmetric keys of different types.
	ErrPartnerMismatch = fmt.Errorf("%w: partner key type mismatch", ErrLogic)

	// ErrInvalidConfig indicates configuration values outside their allowed range.
	ErrInvalidConfig = fmt.Errorf("%w: invalid configuration", ErrLogic)

	// ErrSampleSize indicates a sample larger than the set it is drawn from.
	ErrSampleSize = fmt.Errorf("%w: sample size exceeds population", ErrLogic)
)

// Logicf returns an ErrLogic-kind error with a formatted message.
func Logicf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrLogic, fmt.Sprintf(format, args...))
}

// Dataf returns an ErrData-kind error with a formatted message.
func Dataf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrData, fmt.Sprintf(format, args...))
}

// Wrapf attaches a formatted message to a specific sentinel, keeping it matchable.
func Wrapf(sentinel error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

// Crypto wraps a primitive-library failure. Both ErrCrypto and err stay
// reachable through errors.Is and errors.As.
func Crypto(op string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrCrypto, op)
	}
	return fmt.Errorf("%w: %s: %w", ErrCrypto, op, err)
}

// Kind returns the kind sentinel err belongs to, or nil for foreign errors.
func Kind(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrWrongPassword):
		return ErrWrongPassword
	case errors.Is(err, ErrCrypto):
		return ErrCrypto
	case errors.Is(err, ErrData):
		return ErrData
	case errors.Is(err, ErrLogic):
		return ErrLogic
	default:
		return nil
	}
}
