// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Configuration errors. These indicate an incomplete deployment and are
	// checked at startup, never expected during play.
	CodeLadderLabelMissing Code = "LADDER_LABEL_MISSING"

	// Roll errors
	CodeRollFormulaInvalid Code = "ROLL_FORMULA_INVALID"
	CodeDiceSourceFailed   Code = "DICE_SOURCE_FAILED"

	// Lookup errors
	CodeNotFound          Code = "NOT_FOUND"
	CodeAspectNotFound    Code = "ASPECT_NOT_FOUND"
	CodeAspectBoxNotFound Code = "ASPECT_BOX_NOT_FOUND"

	// Aspect validation errors
	CodeAspectNameEmpty       Code = "ASPECT_NAME_EMPTY"
	CodeAspectInvalidBoxCount Code = "ASPECT_INVALID_BOX_COUNT"

	// Item validation errors
	CodeItemInvalidKind Code = "ITEM_INVALID_KIND"
	CodeItemNameEmpty   Code = "ITEM_NAME_EMPTY"

	// Host I/O errors
	CodeChatEntryFailed Code = "CHAT_ENTRY_FAILED"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeLadderLabelMissing:
		return codes.FailedPrecondition
	case CodeRollFormulaInvalid, CodeAspectNameEmpty, CodeAspectInvalidBoxCount,
		CodeItemInvalidKind, CodeItemNameEmpty:
		return codes.InvalidArgument
	case CodeNotFound, CodeAspectNotFound, CodeAspectBoxNotFound:
		return codes.NotFound
	case CodeChatEntryFailed, CodeDiceSourceFailed:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}
