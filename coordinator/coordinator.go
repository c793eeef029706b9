// Package coordinator drives room membership and session negotiation for
// client connections: it owns the room directory and session registry and
// relays candidate events from the media engine back to the owning
// connection.
package coordinator

import (
	"errors"
	"fmt"
	"log"

	"groupcall/broker"
	"groupcall/database"
	"groupcall/media"
	"groupcall/metric"
	"groupcall/room"
	"groupcall/types/client/response"
)

var (
	// ErrNoActiveEndpoint is returned when negotiation or candidate
	// messages arrive for a connection that has not joined a room.
	ErrNoActiveEndpoint = errors.New("no active endpoint")

	// ErrUnknownRoom is reserved. Rooms are created lazily on join, so no
	// current operation can fail with it.
	ErrUnknownRoom = errors.New("unknown room")
)

// Coordinator manages the signaling session of every connection.
type Coordinator struct {
	directory *room.Directory
	database  database.Database
	broker    *broker.Broker
	metric    *metric.Metrics
}

// New creates a new instance of Coordinator.
func New(dir *room.Directory, db database.Database, brk *broker.Broker, met *metric.Metrics) *Coordinator {
	return &Coordinator{
		directory: dir,
		database:  db,
		broker:    brk,
		metric:    met,
	}
}

// Join adds the connection to the room, creating the room on first use,
// and registers the candidate relay for the new endpoint. On failure no
// membership or session state remains.
func (c *Coordinator) Join(connectionID, roomID string) error {
	for {
		r, err := c.directory.GetOrCreate(roomID)
		if err != nil {
			c.metric.IncrementJoinFailures()
			return fmt.Errorf("failed to get or create room %s: %w", roomID, err)
		}

		endpoint, err := r.Join(connectionID)
		if errors.Is(err, room.ErrClosed) {
			// the room was removed between lookup and join
			continue
		}
		if err != nil {
			// don't leak a room that never got its first member
			if r.IsEmpty() {
				c.directory.Remove(roomID)
			}
			c.metric.IncrementJoinFailures()
			return fmt.Errorf("failed to join room %s: %w", roomID, err)
		}

		info := &database.SessionInfo{
			ConnectionID: connectionID,
			RoomID:       roomID,
			Endpoint:     endpoint,
		}
		if err := c.database.UpsertSessionInfo(info); err != nil {
			r.Leave(connectionID)
			if r.IsEmpty() {
				c.directory.Remove(roomID)
			}
			c.metric.IncrementJoinFailures()
			return fmt.Errorf("failed to store session: %w", err)
		}

		endpoint.OnICECandidate(c.candidateRelay(connectionID))
		c.metric.IncrementActiveParticipants()
		return nil
	}
}

// Offer negotiates the connection's endpoint with the client's SDP offer
// and triggers candidate gathering. It returns the answer SDP.
func (c *Coordinator) Offer(connectionID, sdpOffer string) (string, error) {
	info, err := c.findSession(connectionID)
	if err != nil {
		return "", err
	}

	answer, err := info.Endpoint.ProcessOffer(sdpOffer)
	if err != nil {
		return "", fmt.Errorf("failed to process offer: %w", err)
	}
	if err := info.Endpoint.GatherCandidates(); err != nil {
		// the answer is already negotiated; candidates may still trickle in
		log.Printf("failed to gather candidates for %s: %v", connectionID, err)
	}
	return answer, nil
}

// AddCandidate forwards a remote candidate to the connection's endpoint.
func (c *Coordinator) AddCandidate(connectionID string, candidate media.ICECandidate) error {
	info, err := c.findSession(connectionID)
	if err != nil {
		return err
	}
	if err := info.Endpoint.AddICECandidate(candidate); err != nil {
		return fmt.Errorf("failed to add candidate: %w", err)
	}
	return nil
}

// Leave removes the connection's session and room membership, releasing
// its endpoint and removing the room once empty. Leaving without a
// session is a no-op, so explicit leave followed by connection close
// cleans up exactly once.
func (c *Coordinator) Leave(connectionID string) error {
	info, err := c.database.DeleteSessionInfoByID(connectionID)
	if errors.Is(err, database.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	info.Endpoint.OnICECandidate(nil)
	c.metric.DecrementActiveParticipants()

	r, ok := c.directory.Lookup(info.RoomID)
	if !ok {
		return nil
	}
	r.Leave(connectionID)
	if r.IsEmpty() {
		c.directory.Remove(info.RoomID)
	}
	return nil
}

func (c *Coordinator) findSession(connectionID string) (*database.SessionInfo, error) {
	info, err := c.database.FindSessionInfoByID(connectionID)
	if errors.Is(err, database.ErrSessionNotFound) {
		return nil, fmt.Errorf("%s: %w", connectionID, ErrNoActiveEndpoint)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return info, nil
}

// candidateRelay serializes discovered candidates to the connection's
// socket writer. A failed publish means the connection is gone or
// lagging; the candidate is dropped and logged, not fatal.
func (c *Coordinator) candidateRelay(connectionID string) func(media.ICECandidate) {
	return func(candidate media.ICECandidate) {
		msg := response.Candidate{
			Type:      response.CANDIDATE,
			Candidate: candidate,
		}
		if err := c.broker.Publish(broker.ClientSocket, broker.Detail(connectionID), msg); err != nil {
			log.Printf("failed to relay candidate to %s: %v", connectionID, err)
			return
		}
		c.metric.IncrementRelayedCandidates()
	}
}
