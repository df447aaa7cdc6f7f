package database

import "errors"

var (
	// ErrInvalidShape is returned for a result shape other than dict or list.
	ErrInvalidShape = errors.New("invalid result shape")

	// ErrPoolExhausted is returned when no session could be acquired in time.
	ErrPoolExhausted = errors.New("session pool exhausted")

	// ErrPoolClosed is returned when acquiring from a closed pool.
	ErrPoolClosed = errors.New("session pool closed")

	// ErrNotConnected is returned when a session is used after it was closed.
	ErrNotConnected = errors.New("not connected")

	// ErrClientInitialized is returned when the client runtime was already
	// initialized with a different library directory.
	ErrClientInitialized = errors.New("client runtime already initialized")
)
