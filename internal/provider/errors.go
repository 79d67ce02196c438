package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned by RecordStream.Next when no record arrived in
	// time. It is transient: the export step may be retried.
	ErrTimeout = errors.New("record stream: timeout")

	// ErrDisposed is returned by RecordStream.Next after Dispose.
	ErrDisposed = errors.New("record stream: disposed")
)

// ConnectionError is fatal to the whole session.
type ConnectionError struct {
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthError is fatal to the whole session.
type AuthError struct {
	Login string
	Err   error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("login %q: %v", e.Login, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }
