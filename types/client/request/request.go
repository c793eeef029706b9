// Package request defines structures for client request messages.
package request

import "groupcall/media"

// Constants for request types
const (
	JOIN      = "join"
	OFFER     = "offer"
	CANDIDATE = "iceCandidate"
	LEAVE     = "leave"
)

// Common carries the type discriminator shared by all request messages.
type Common struct {
	Type string `json:"type"`
}

// Join is data type for joining a room
type Join struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

// Offer is data type for SDP negotiation
type Offer struct {
	Type     string `json:"type"`
	SDPOffer string `json:"sdpOffer"`
}

// Candidate is data type for relaying a remote ICE candidate
type Candidate struct {
	Type      string             `json:"type"`
	Candidate media.ICECandidate `json:"candidate"`
}

// Leave is data type for leaving the joined room
type Leave struct {
	Type string `json:"type"`
}
