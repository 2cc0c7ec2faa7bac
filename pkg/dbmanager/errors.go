package dbmanager

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrInvalidConfiguration is returned when the configuration is invalid
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrConnectionClosed is returned when attempting to use a closed connection
	ErrConnectionClosed = errors.New("connection is closed")

	// ErrUnsupportedDatabase is returned when the database type is not supported
	ErrUnsupportedDatabase = errors.New("unsupported database type")

	// ErrAlreadyConnected is returned when attempting to connect an already connected connection
	ErrAlreadyConnected = errors.New("already connected")
)

// ConnectionError wraps errors that occur during connection operations
type ConnectionError struct {
	Name      string
	Operation string
	Err       error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection '%s' %s: %v", e.Name, e.Operation, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// NewConnectionError creates a new ConnectionError
func NewConnectionError(name, operation string, err error) *ConnectionError {
	return &ConnectionError{
		Name:      name,
		Operation: operation,
		Err:       err,
	}
}
