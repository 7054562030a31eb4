package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures for callers
type ErrorKind string

const (
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindUpstreamUnavailable ErrorKind = "UPSTREAM_UNAVAILABLE"
	KindGenerationParse     ErrorKind = "GENERATION_PARSE"
	KindInvalidInput        ErrorKind = "INVALID_INPUT"
	KindInternal            ErrorKind = "INTERNAL"
)

// Error is the structured error returned by every pipeline operation
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Raw     string    `json:"-"` // unparsed generator output for GENERATION_PARSE
	Err     error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewNotFoundError reports that a required fact source has no data
func NewNotFoundError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// NewUpstreamError reports that an external provider call failed
func NewUpstreamError(provider string, err error) *Error {
	return &Error{Kind: KindUpstreamUnavailable, Message: provider + " unavailable", Err: err}
}

// NewGenerationParseError reports generator output that does not match the schema
func NewGenerationParseError(raw string, err error) *Error {
	return &Error{Kind: KindGenerationParse, Message: "narrative output did not match the expected schema", Raw: raw, Err: err}
}

// NewInvalidInputError reports a malformed or missing request field
func NewInvalidInputError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind of a pipeline error, KindInternal for anything else
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
