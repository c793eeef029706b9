// Package media defines the media engine capability consumed by the
// signaling coordinator: pipelines, per-participant endpoints, SDP
// negotiation and ICE candidate exchange.
package media

import "errors"

var (
	// ErrEndpointClosed is returned when an operation is attempted on a
	// released endpoint.
	ErrEndpointClosed = errors.New("endpoint closed")

	// ErrPipelineClosed is returned when an endpoint is requested from a
	// released pipeline.
	ErrPipelineClosed = errors.New("pipeline closed")

	// ErrNoRemoteDescription is returned when candidate gathering is
	// triggered before an offer has been processed.
	ErrNoRemoteDescription = errors.New("no remote description")

	// ErrForeignEndpoint is returned when an endpoint from another engine
	// implementation is passed to Connect.
	ErrForeignEndpoint = errors.New("endpoint belongs to another engine")
)

// ICECandidate is a network-reachability descriptor exchanged during
// negotiation. Field names follow the client wire format.
type ICECandidate struct {
	Candidate     string `json:"candidate"`
	SDPMid        string `json:"sdpMid"`
	SDPMLineIndex uint16 `json:"sdpMLineIndex"`
}

// Engine creates media pipelines. One pipeline is created per room.
//
//go:generate mockgen -destination=mock_media.go -package=media . Engine
type Engine interface {
	CreatePipeline() (Pipeline, error)
}

// Pipeline owns the endpoints of a single room and the media paths
// between them.
type Pipeline interface {
	CreateEndpoint() (Endpoint, error)
	Release() error
}

// Endpoint is a per-participant media send/receive point. An endpoint
// belongs to exactly one pipeline and one participant at a time.
type Endpoint interface {
	// Connect establishes a directed media path from this endpoint to sink.
	Connect(sink Endpoint) error

	// ProcessOffer performs SDP offer/answer negotiation and returns the
	// answer SDP.
	ProcessOffer(sdpOffer string) (string, error)

	// GatherCandidates starts asynchronous local candidate discovery.
	// Discovered candidates are delivered to the OnICECandidate handler.
	GatherCandidates() error

	AddICECandidate(candidate ICECandidate) error

	// OnICECandidate registers the handler invoked for each discovered
	// local candidate. Passing nil unregisters the handler; no candidate
	// is delivered after that.
	OnICECandidate(handler func(ICECandidate))

	Release() error
}
