// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeInvalidRequest is a malformed request envelope, such as a missing
	// expression or a seed that is not a whole number.
	CodeInvalidRequest Code = "INVALID_REQUEST"

	// Dice notation errors, one per evaluation error kind.
	CodeDiceParse    Code = "DICE_PARSE_ERROR"
	CodeDiceSemantic Code = "DICE_SEMANTIC_ERROR"
	CodeDiceLimit    Code = "DICE_LIMIT_ERROR"
	CodeDiceRuntime  Code = "DICE_RUNTIME_ERROR"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - the caller sent something that can never succeed
	case CodeInvalidRequest, CodeDiceParse, CodeDiceSemantic:
		return codes.InvalidArgument

	// ResourceExhausted - a configured safety bound was reached
	case CodeDiceLimit:
		return codes.ResourceExhausted

	// FailedPrecondition - well-formed, but failed while rolling
	case CodeDiceRuntime:
		return codes.FailedPrecondition

	default:
		return codes.Internal
	}
}
