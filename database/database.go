// Package database provides an interface for session registry operations.
package database

import (
	"errors"
)

var (
	// ErrSessionNotFound is returned when no association exists for a
	// connection ID.
	ErrSessionNotFound = errors.New("session not found")
)

// Database is an interface for session registry operations. A session
// binds a connection ID to the room it joined and its media endpoint; a
// connection has at most one session at a time.
type Database interface {
	UpsertSessionInfo(info *SessionInfo) error
	FindSessionInfoByID(connectionID string) (*SessionInfo, error)
	DeleteSessionInfoByID(connectionID string) (*SessionInfo, error)
}
