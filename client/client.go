// Package client contains a signaling client. It speaks the room
// protocol over a websocket and is used for end-to-end tests.
package client

import (
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"groupcall/media"
	"groupcall/types/client/request"
)

// Client is one participant connection to the signaling server.
type Client struct {
	serverURL string
	socket    *websocket.Conn
}

// New creates a new client for the given server URL. The URL scheme may
// be http(s); it is rewritten to the websocket scheme on dial.
func New(serverURL string) *Client {
	return &Client{serverURL: serverURL}
}

// Dial connects to the server's signaling endpoint.
func (c *Client) Dial() error {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("failed to parse server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/signal"

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to dial: %w", err)
	}
	c.socket = conn
	return nil
}

// Join asks the server to add this connection to the room.
func (c *Client) Join(roomID string) error {
	return c.send(request.Join{Type: request.JOIN, RoomID: roomID})
}

// Offer sends the local SDP offer for negotiation.
func (c *Client) Offer(sdpOffer string) error {
	return c.send(request.Offer{Type: request.OFFER, SDPOffer: sdpOffer})
}

// Candidate sends a locally discovered ICE candidate.
func (c *Client) Candidate(candidate media.ICECandidate) error {
	return c.send(request.Candidate{Type: request.CANDIDATE, Candidate: candidate})
}

// Leave asks the server to remove this connection from its room. The
// websocket stays open, so the client may join again.
func (c *Client) Leave() error {
	return c.send(request.Leave{Type: request.LEAVE})
}

// Receive reads the next server message into v, waiting at most timeout.
func (c *Client) Receive(v any, timeout time.Duration) error {
	if err := c.socket.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return fmt.Errorf("failed to set read deadline: %w", err)
	}
	if err := c.socket.ReadJSON(v); err != nil {
		return fmt.Errorf("failed to read message: %w", err)
	}
	return nil
}

// Close closes the websocket connection.
func (c *Client) Close() error {
	if c.socket == nil {
		return nil
	}
	return c.socket.Close()
}

func (c *Client) send(v any) error {
	if err := c.socket.WriteJSON(v); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
