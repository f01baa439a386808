// Package meshcore holds the primitives shared by every contract in the
// search mesh: the error taxonomy, canonical CBOR codec, fingerprint and
// bloom-summary machinery, tokenization/normalization/scoring, and the
// web-container frame parser.
package meshcore

import "fmt"

// ErrorCode identifies which branch of the contract error taxonomy (spec §6,
// §7) a failure belongs to.
type ErrorCode string

const (
	ErrInvalidState          ErrorCode = "InvalidState"
	ErrInvalidUpdate         ErrorCode = "InvalidUpdate"
	ErrInvalidUpdateWithInfo ErrorCode = "InvalidUpdateWithInfo"
	ErrOther                 ErrorCode = "Other"
)

// ContractError is the structured, total error type returned across every
// contract operation boundary. It never leaks a panic; decode and validation
// failures are always converted to one of these codes.
type ContractError struct {
	Code   ErrorCode
	Reason string
}

func (e *ContractError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Reason == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

func InvalidState(reason string) *ContractError {
	return &ContractError{Code: ErrInvalidState, Reason: reason}
}

func InvalidUpdate(reason string) *ContractError {
	return &ContractError{Code: ErrInvalidUpdate, Reason: reason}
}

func InvalidUpdateWithInfo(reason string) *ContractError {
	return &ContractError{Code: ErrInvalidUpdateWithInfo, Reason: reason}
}

func Other(reason string) *ContractError {
	return &ContractError{Code: ErrOther, Reason: reason}
}

// Is allows errors.Is(err, meshcore.InvalidState("")) style checks: any
// *ContractError target with the same Code matches, whatever its Reason.
// Targets of any other type never match.
func (e *ContractError) Is(target error) bool {
	t, ok := target.(*ContractError)
	if !ok || t == nil {
		return false
	}
	return e.Code == t.Code
}
