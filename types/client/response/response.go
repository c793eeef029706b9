// Package response provides data types for server response to client.
package response

import "groupcall/media"

// Constants for response types
const (
	JOINED    = "roomJoined"
	ANSWER    = "answer"
	CANDIDATE = "iceCandidate"
	ERROR     = "error"
)

// Joined is data type confirming a join
type Joined struct {
	Type string `json:"type"`
}

// Answer is data type carrying the SDP answer of a negotiation
type Answer struct {
	Type      string `json:"type"`
	SDPAnswer string `json:"sdpAnswer"`
}

// Candidate is data type for a locally discovered ICE candidate
type Candidate struct {
	Type      string             `json:"type"`
	Candidate media.ICECandidate `json:"candidate"`
}

// Error is data type for a failed request
type Error struct {
	Type    string `json:"type"`
	Request string `json:"request,omitempty"`
	Message string `json:"message"`
}
