// Package rendezvouserr defines the stable, machine-readable error codes
// that every Rendezvous failure surfaces as. Adapter errors (an unreachable
// verifier, a failed attestation call) are wrapped rather than propagated
// raw, so a caller never sees a bare network error where a taxonomy code
// belongs.
//
// Modeled after goph-keeper's internal/errs sentinel package, extended
// with a code field so the failure reason survives crossing an adapter or
// wire boundary — a sentinel alone doesn't carry that across a process hop.
package rendezvouserr

import (
	"errors"
	"fmt"
)

// Code is one of the stable, machine-readable failure identifiers.
type Code string

const (
	CodePoolNotFound          Code = "POOL_NOT_FOUND"
	CodePoolClosed            Code = "POOL_CLOSED"
	CodePoolNotInCommitPhase  Code = "POOL_NOT_IN_COMMIT_PHASE"
	CodePoolNotInRevealPhase  Code = "POOL_NOT_IN_REVEAL_PHASE"
	CodeAlreadyRegistered     Code = "ALREADY_REGISTERED"
	CodeParticipantNotFound   Code = "PARTICIPANT_NOT_FOUND"
	CodeDuplicateNullifier    Code = "DUPLICATE_NULLIFIER"
	CodePreferenceLimit       Code = "PREFERENCE_LIMIT_EXCEEDED"
	CodeInvalidEligibility    Code = "INVALID_ELIGIBILITY_PROOF"
	CodeCommitmentNotFound    Code = "COMMITMENT_NOT_FOUND"
	CodeCommitmentMismatch    Code = "COMMITMENT_MISMATCH"
	CodeInvalidPublicKey      Code = "INVALID_PUBLIC_KEY"
	CodeInvalidPrivateKey     Code = "INVALID_PRIVATE_KEY"
	CodeInvalidInput          Code = "INVALID_INPUT"
	CodeInternal              Code = "INTERNAL_ERROR"
	CodeTransientServiceError Code = "TRANSIENT_SERVICE_ERROR"
	CodePSISetupMissing       Code = "PSI_SETUP_MISSING"
	CodePSIRequestNotFound    Code = "PSI_REQUEST_NOT_FOUND"
	CodePSIResponseExpired    Code = "PSI_RESPONSE_GONE"
	CodeCryptoFailure         Code = "CRYPTO_FAILURE"
	CodeDecryptionFailed      Code = "DECRYPTION_FAILED"
	CodeSignatureInvalid      Code = "SIGNATURE_INVALID"
	CodeClockSkew             Code = "CLOCK_SKEW_EXCEEDED"
)

// Error is the typed failure every core component returns. It satisfies
// errors.Is/As via Unwrap.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an Error carrying cause as its wrapped error.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

// CodeOf extracts the Code from err if it (or something it wraps) is an
// *Error, otherwise CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Is reports whether err carries code, looking through wraps.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
