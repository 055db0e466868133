package pipeline

import (
	"fmt"

	"event-pipeline-api/internal/schema"
)

// Kind is a closed enumeration of pipeline failure categories. Classification
// matches on the tag, never on runtime type identity.
type Kind uint8

const (
	KindUnclassified Kind = iota
	KindContentType
	KindSchemaValidation
	KindExtraction
	KindStage
	KindTimeout
	KindPayloadTooLarge
)

func (k Kind) String() string {
	switch k {
	case KindContentType:
		return "content_type"
	case KindSchemaValidation:
		return "schema_validation"
	case KindExtraction:
		return "extraction"
	case KindStage:
		return "stage"
	case KindTimeout:
		return "timeout"
	case KindPayloadTooLarge:
		return "payload_too_large"
	default:
		return "unclassified"
	}
}

// Error is the single failure type crossing the pipeline boundary. Every
// failure mode is wrapped into one before classification.
type Error struct {
	Kind     Kind
	Message  string
	Cause    error
	Findings []schema.Finding // populated for KindSchemaValidation only
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// KindOf extracts the failure category from err, defaulting to unclassified
// for errors raised outside the pipeline's own types.
func KindOf(err error) Kind {
	if perr, ok := err.(*Error); ok {
		return perr.Kind
	}
	return KindUnclassified
}

func validationError(findings []schema.Finding) *Error {
	return &Error{
		Kind:     KindSchemaValidation,
		Message:  "request body failed schema validation",
		Findings: findings,
	}
}

func stageError(index int, cause error) *Error {
	return &Error{
		Kind:    KindStage,
		Message: fmt.Sprintf("stage %d failed", index),
		Cause:   cause,
	}
}

func timeoutError() *Error {
	return &Error{Kind: KindTimeout, Message: "request deadline exceeded"}
}
