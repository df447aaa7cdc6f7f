package app

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an operation failure.
type Kind int

const (
	KindNone Kind = iota
	KindConfigIncomplete
	KindConnection
	KindInvalidRequest
	KindStatement
	KindMaterialization
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindConfigIncomplete:
		return "configuration incomplete"
	case KindConnection:
		return "connection failure"
	case KindInvalidRequest:
		return "invalid request"
	case KindStatement:
		return "statement failure"
	case KindMaterialization:
		return "materialization failure"
	default:
		return "unknown"
	}
}

// KindOf reports the failure kind of err.
func KindOf(err error) Kind {
	var (
		cfgErr  *ErrConfig
		connErr *ErrConnection
		reqErr  *ErrRequest
		matErr  *ErrMaterialize
		qErr    *ErrQuery
	)
	switch {
	case err == nil:
		return KindNone
	case errors.As(err, &cfgErr):
		return KindConfigIncomplete
	case errors.As(err, &connErr):
		return KindConnection
	case errors.As(err, &reqErr):
		return KindInvalidRequest
	case errors.As(err, &matErr):
		return KindMaterialization
	case errors.As(err, &qErr):
		return KindStatement
	default:
		return KindUnknown
	}
}

// ErrConnection represents a failure to open or acquire a session.
type ErrConnection struct {
	Op    string
	Cause error
}

func (e *ErrConnection) Error() string {
	return fmt.Sprintf("connection error (%s): %v", e.Op, e.Cause)
}

func (e *ErrConnection) Unwrap() error {
	return e.Cause
}

// ErrQuery represents a statement execution or commit error.
type ErrQuery struct {
	Query string
	Cause error
}

func (e *ErrQuery) Error() string {
	return fmt.Sprintf("query error: %v", e.Cause)
}

func (e *ErrQuery) Unwrap() error {
	return e.Cause
}

// ErrMaterialize represents a failure while reading result values.
type ErrMaterialize struct {
	Query string
	Cause error
}

func (e *ErrMaterialize) Error() string {
	return fmt.Sprintf("materialize error: %v", e.Cause)
}

func (e *ErrMaterialize) Unwrap() error {
	return e.Cause
}

// ErrRequest represents an unsupported request argument.
type ErrRequest struct {
	Shape string
	Cause error
}

func (e *ErrRequest) Error() string {
	return fmt.Sprintf("invalid request: %v", e.Cause)
}

func (e *ErrRequest) Unwrap() error {
	return e.Cause
}

// ErrConfig represents an incomplete setup.
type ErrConfig struct {
	Missing []string
}

func (e *ErrConfig) Error() string {
	return fmt.Sprintf("config error: missing keys %s", strings.Join(e.Missing, ", "))
}
