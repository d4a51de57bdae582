package tools

import (
	"errors"
	"fmt"
)

// Kind classifies a failed invocation.
type Kind string

const (
	// UnknownOperation means no handler is registered under the name.
	UnknownOperation Kind = "unknown_operation"
	// InvalidArguments means the arguments could not be decoded or failed validation.
	InvalidArguments Kind = "invalid_arguments"
	// UpstreamFailure means the backend call failed.
	UpstreamFailure Kind = "upstream_failure"
)

// Error is the failure outcome of an invocation.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, treating unclassified errors as upstream
// failures.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return UpstreamFailure
}

func unknownOperation(name string) *Error {
	return &Error{Kind: UnknownOperation, Message: fmt.Sprintf("unknown tool: %s", name)}
}

func invalidArguments(tool string, err error) *Error {
	return &Error{Kind: InvalidArguments, Message: fmt.Sprintf("invalid arguments for %s: %v", tool, err), Err: err}
}

func upstreamFailure(err error) *Error {
	return &Error{Kind: UpstreamFailure, Message: err.Error(), Err: err}
}
