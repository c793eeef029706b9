// Package engine implements the media engine on top of pion/webrtc.
package engine

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"

	"groupcall/media"
)

// Endpoint wraps a server-side peer connection. Inbound tracks are
// republished as local static RTP tracks and forwarded to every sink
// endpoint connected from this one.
type Endpoint struct {
	conn *webrtc.PeerConnection

	mu          sync.Mutex
	tracks      map[string]*webrtc.TrackLocalStaticRTP // keyed by remote track ID
	sinks       []*Endpoint
	onCandidate func(media.ICECandidate)
	closed      bool
}

func newEndpoint(conn *webrtc.PeerConnection) *Endpoint {
	ep := &Endpoint{
		conn:   conn,
		tracks: map[string]*webrtc.TrackLocalStaticRTP{},
	}
	conn.OnTrack(ep.handleTrack)
	conn.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		ep.mu.Lock()
		handler := ep.onCandidate
		ep.mu.Unlock()
		if handler == nil {
			return
		}
		init := c.ToJSON()
		candidate := media.ICECandidate{Candidate: init.Candidate}
		if init.SDPMid != nil {
			candidate.SDPMid = *init.SDPMid
		}
		if init.SDPMLineIndex != nil {
			candidate.SDPMLineIndex = *init.SDPMLineIndex
		}
		handler(candidate)
	})
	return ep
}

// Connect establishes a directed media path from this endpoint to sink:
// every track this endpoint publishes, now and later, is added to sink.
func (ep *Endpoint) Connect(sink media.Endpoint) error {
	target, ok := sink.(*Endpoint)
	if !ok {
		return media.ErrForeignEndpoint
	}

	ep.mu.Lock()
	if ep.closed {
		ep.mu.Unlock()
		return media.ErrEndpointClosed
	}
	ep.sinks = append(ep.sinks, target)
	tracks := make([]*webrtc.TrackLocalStaticRTP, 0, len(ep.tracks))
	for _, track := range ep.tracks {
		tracks = append(tracks, track)
	}
	ep.mu.Unlock()

	for _, track := range tracks {
		if err := target.addTrack(track); err != nil {
			return fmt.Errorf("failed to add track to sink: %w", err)
		}
	}
	return nil
}

// ProcessOffer performs the SDP offer/answer exchange for this endpoint.
func (ep *Endpoint) ProcessOffer(sdpOffer string) (string, error) {
	ep.mu.Lock()
	if ep.closed {
		ep.mu.Unlock()
		return "", media.ErrEndpointClosed
	}
	ep.mu.Unlock()

	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdpOffer}
	if err := ep.conn.SetRemoteDescription(offer); err != nil {
		return "", fmt.Errorf("failed to set remote description: %w", err)
	}
	answer, err := ep.conn.CreateAnswer(nil)
	if err != nil {
		return "", fmt.Errorf("failed to create answer: %w", err)
	}
	if err := ep.conn.SetLocalDescription(answer); err != nil {
		return "", fmt.Errorf("failed to set local description: %w", err)
	}
	return answer.SDP, nil
}

// GatherCandidates verifies that negotiation has started. pion begins
// gathering when the local description is set, so there is nothing to
// trigger beyond that point.
func (ep *Endpoint) GatherCandidates() error {
	if ep.conn.RemoteDescription() == nil {
		return media.ErrNoRemoteDescription
	}
	return nil
}

// AddICECandidate adds a remote candidate received from the client.
func (ep *Endpoint) AddICECandidate(candidate media.ICECandidate) error {
	mid := candidate.SDPMid
	index := candidate.SDPMLineIndex
	err := ep.conn.AddICECandidate(webrtc.ICECandidateInit{
		Candidate:     candidate.Candidate,
		SDPMid:        &mid,
		SDPMLineIndex: &index,
	})
	if err != nil {
		return fmt.Errorf("failed to add ICE candidate: %w", err)
	}
	return nil
}

// OnICECandidate registers the local candidate handler. Passing nil stops
// delivery.
func (ep *Endpoint) OnICECandidate(handler func(media.ICECandidate)) {
	ep.mu.Lock()
	ep.onCandidate = handler
	ep.mu.Unlock()
}

// Release closes the peer connection and stops candidate delivery.
func (ep *Endpoint) Release() error {
	ep.mu.Lock()
	if ep.closed {
		ep.mu.Unlock()
		return nil
	}
	ep.closed = true
	ep.onCandidate = nil
	ep.sinks = nil
	ep.mu.Unlock()

	if err := ep.conn.Close(); err != nil {
		return fmt.Errorf("failed to close peer connection: %w", err)
	}
	return nil
}

// handleTrack republishes an inbound track and forwards its RTP stream to
// the local copy and every current sink.
func (ep *Endpoint) handleTrack(remote *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
	local, err := webrtc.NewTrackLocalStaticRTP(remote.Codec().RTPCodecCapability, remote.ID(), remote.StreamID())
	if err != nil {
		log.Printf("failed to create local track for %s: %v", remote.ID(), err)
		return
	}

	ep.mu.Lock()
	ep.tracks[remote.ID()] = local
	sinks := make([]*Endpoint, len(ep.sinks))
	copy(sinks, ep.sinks)
	ep.mu.Unlock()

	for _, sink := range sinks {
		if err := sink.addTrack(local); err != nil {
			log.Printf("failed to forward track %s: %v", remote.ID(), err)
		}
	}

	go forwardRTP(remote, local)
}

// addTrack attaches a source track to this endpoint's peer connection and
// drains RTCP from the sender.
func (ep *Endpoint) addTrack(track *webrtc.TrackLocalStaticRTP) error {
	ep.mu.Lock()
	if ep.closed {
		ep.mu.Unlock()
		return media.ErrEndpointClosed
	}
	ep.mu.Unlock()

	sender, err := ep.conn.AddTrack(track)
	if err != nil {
		return fmt.Errorf("failed to add track: %w", err)
	}

	go func() {
		rtcpBuf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(rtcpBuf); err != nil {
				return
			}
		}
	}()
	return nil
}

func forwardRTP(remote *webrtc.TrackRemote, local *webrtc.TrackLocalStaticRTP) {
	var (
		packet *rtp.Packet
		err    error
	)
	for {
		packet, _, err = remote.ReadRTP()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("failed to read RTP from %s: %v", remote.ID(), err)
			}
			return
		}
		if err = local.WriteRTP(packet); err != nil && !errors.Is(err, io.ErrClosedPipe) {
			log.Printf("failed to write RTP to %s: %v", local.ID(), err)
			return
		}
	}
}
