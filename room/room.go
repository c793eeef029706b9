// Package room implements the room state machine: each room owns one
// media pipeline and the full mesh of media paths between its
// participants' endpoints.
package room

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"groupcall/media"
)

var (
	// ErrAlreadyJoined is returned when a participant joins a room it is
	// already a member of.
	ErrAlreadyJoined = errors.New("participant already joined")

	// ErrClosed is returned when joining a room that has been removed.
	// The caller should look the room up again.
	ErrClosed = errors.New("room closed")
)

// Room is an isolated group of participants sharing one media pipeline.
// Every pair of members is connected in both directions exactly once.
type Room struct {
	id       string
	pipeline media.Pipeline

	mu        sync.Mutex
	endpoints map[string]media.Endpoint
	closed    bool
}

// New creates a room and its media pipeline.
func New(id string, engine media.Engine) (*Room, error) {
	pipeline, err := engine.CreatePipeline()
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}
	return &Room{
		id:        id,
		pipeline:  pipeline,
		endpoints: make(map[string]media.Endpoint),
	}, nil
}

// ID returns the room identifier.
func (r *Room) ID() string {
	return r.id
}

// Join creates an endpoint for the participant and connects it
// bidirectionally to every existing member before recording membership.
// The member snapshot and the insertion happen under one critical
// section, so concurrent joins cannot miss each other. On failure no
// membership is recorded and the allocated endpoint is released.
func (r *Room) Join(participantID string) (media.Endpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	if _, ok := r.endpoints[participantID]; ok {
		return nil, fmt.Errorf("%s: %w", participantID, ErrAlreadyJoined)
	}

	endpoint, err := r.pipeline.CreateEndpoint()
	if err != nil {
		return nil, fmt.Errorf("failed to create endpoint: %w", err)
	}

	for memberID, existing := range r.endpoints {
		if err := endpoint.Connect(existing); err != nil {
			releaseEndpoint(endpoint)
			return nil, fmt.Errorf("failed to connect %s to %s: %w", participantID, memberID, err)
		}
		if err := existing.Connect(endpoint); err != nil {
			releaseEndpoint(endpoint)
			return nil, fmt.Errorf("failed to connect %s to %s: %w", memberID, participantID, err)
		}
	}

	r.endpoints[participantID] = endpoint
	return endpoint, nil
}

// Leave removes the participant and releases its endpoint. Leaving a room
// one is not a member of is a no-op. Mesh paths to remaining members are
// owned by the endpoint and die with it.
func (r *Room) Leave(participantID string) {
	r.mu.Lock()
	endpoint, ok := r.endpoints[participantID]
	if ok {
		delete(r.endpoints, participantID)
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	releaseEndpoint(endpoint)
}

// IsEmpty reports whether the room has no members.
func (r *Room) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.endpoints) == 0
}

// Participants returns the current member IDs.
func (r *Room) Participants() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.endpoints))
	for id := range r.endpoints {
		ids = append(ids, id)
	}
	return ids
}

// Dispose releases every remaining endpoint, then the pipeline. Used at
// process teardown; rooms emptied by leaves are closed through the
// directory instead.
func (r *Room) Dispose() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	endpoints := r.endpoints
	r.endpoints = make(map[string]media.Endpoint)
	r.mu.Unlock()

	for _, endpoint := range endpoints {
		releaseEndpoint(endpoint)
	}
	r.releasePipeline()
}

// closeIfEmpty marks the room closed if it has no members. It reports
// whether this call performed the transition.
func (r *Room) closeIfEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || len(r.endpoints) > 0 {
		return false
	}
	r.closed = true
	return true
}

func (r *Room) releasePipeline() {
	if err := r.pipeline.Release(); err != nil {
		log.Printf("failed to release pipeline of room %s: %v", r.id, err)
	}
}

// releaseEndpoint detaches the candidate handler before releasing, so no
// candidate is delivered for an endpoint that no longer has an owner.
func releaseEndpoint(endpoint media.Endpoint) {
	endpoint.OnICECandidate(nil)
	if err := endpoint.Release(); err != nil {
		log.Printf("failed to release endpoint: %v", err)
	}
}
