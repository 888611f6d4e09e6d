package database

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
)

var (
	// ErrNotConnected is returned by Conn implementations used after their client went away.
	ErrNotConnected = errors.New("database not connected")
	// ErrClosed is returned once the manager has been shut down.
	ErrClosed = errors.New("connection manager closed")
)

// ConnectionError reports that a connection could not be established after
// the configured number of attempts.
type ConnectionError struct {
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("database connection failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IsConnectionError reports whether err carries a *ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsConnectionLost reports whether err means the connection dropped while an
// operation was running. Only these errors trigger the one-shot retry in
// WithConnection; plain network timeouts do not, since a write may have landed.
func IsConnectionLost(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotConnected) ||
		errors.Is(err, mongo.ErrClientDisconnected) ||
		errors.Is(err, topology.ErrTopologyClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "topology is closed") ||
		strings.Contains(msg, "topology closed") ||
		strings.Contains(msg, "not connected") ||
		strings.Contains(msg, "client is disconnected")
}
