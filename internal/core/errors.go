package core

import (
	"errors"
	"fmt"
)

// FailureKind classifies an upstream fetch failure.
type FailureKind int

const (
	// TransportFailure is a network error or a non-success HTTP status.
	TransportFailure FailureKind = iota + 1
	// ParseFailure is a response body that is not valid JSON.
	ParseFailure
)

func (k FailureKind) String() string {
	switch k {
	case TransportFailure:
		return "transport"
	case ParseFailure:
		return "parse"
	default:
		return "unknown"
	}
}

var (
	ErrTransport = errors.New("transport failure")
	ErrParse     = errors.New("parse failure")
)

// FetchError describes a failed upstream fetch. It matches ErrTransport or
// ErrParse with errors.Is according to its Kind.
type FetchError struct {
	Kind     FailureKind
	Endpoint string
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s failure fetching %s", e.Kind, e.Endpoint)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == TransportFailure
	case ErrParse:
		return e.Kind == ParseFailure
	}
	return false
}

// NewTransportError builds a TransportFailure for endpoint.
func NewTransportError(endpoint string, status int, err error) *FetchError {
	return &FetchError{Kind: TransportFailure, Endpoint: endpoint, Status: status, Err: err}
}

// NewParseError builds a ParseFailure for endpoint.
func NewParseError(endpoint string, err error) *FetchError {
	return &FetchError{Kind: ParseFailure, Endpoint: endpoint, Err: err}
}
