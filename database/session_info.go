package database

import (
	"time"

	"groupcall/media"
)

// SessionInfo is the per-connection association created on join and
// removed on leave or disconnect.
type SessionInfo struct {
	ConnectionID string
	RoomID       string
	Endpoint     media.Endpoint
	CreatedAt    time.Time
}

// DeepCopy copies the record. The endpoint is a shared handle owned by
// the room, not a copied resource.
func (s *SessionInfo) DeepCopy() *SessionInfo {
	copied := *s
	return &copied
}
