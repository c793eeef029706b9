// Package controller handles the per-connection signaling protocol: it
// assigns the connection its identifier, dispatches inbound messages to
// the coordinator and pumps outbound messages from the broker back to the
// socket.
package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/lithammer/shortuuid/v4"

	"groupcall/broker"
	"groupcall/broker/subscription"
	"groupcall/coordinator"
	"groupcall/metric"
	"groupcall/pkg/socket"
	"groupcall/types/client/request"
	"groupcall/types/client/response"
)

// Controller handles signaling connections.
type Controller struct {
	coordinator *coordinator.Coordinator
	broker      *broker.Broker
	metric      *metric.Metrics
}

// New creates a new instance of Controller.
func New(cod *coordinator.Coordinator, brk *broker.Broker, met *metric.Metrics) *Controller {
	return &Controller{
		coordinator: cod,
		broker:      brk,
		metric:      met,
	}
}

// Process serves one connection until it closes. Inbound messages are
// handled in arrival order; outbound messages are serialized through a
// single writer goroutine fed by the broker. When Process returns, the
// connection's session is cleaned up exactly as an explicit leave would.
func (c *Controller) Process(conn socket.Socket) error {
	c.metric.IncrementWebSocketConnections()
	defer c.metric.DecrementWebSocketConnections()

	connectionID := shortuuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	detail := broker.Detail(connectionID)
	sub := c.broker.Subscribe(broker.ClientSocket, detail)
	defer func() {
		if err := c.broker.Unsubscribe(broker.ClientSocket, detail, sub); err != nil {
			log.Printf("Error occurs in unsubscribe: %v", err)
		}
	}()

	// runs before the unsubscribe above, so the candidate relay is
	// detached before its publish target disappears
	defer func() {
		if err := c.coordinator.Leave(connectionID); err != nil {
			log.Printf("failed to clean up connection %s: %v", connectionID, err)
		}
	}()

	go c.sendResponse(ctx, conn, sub)

	if err := c.receiveRequest(conn, connectionID); err != nil {
		return fmt.Errorf("failed to receive request: %w", err)
	}
	return nil
}

// sendResponse writes broker messages for this connection to the socket.
func (c *Controller) sendResponse(ctx context.Context, conn socket.Socket, sub *subscription.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Receive():
			if !ok {
				return
			}
			if err := conn.Write(msg); err != nil {
				log.Printf("Failed to send response: %v", err)
				return
			}
		}
	}
}

// receiveRequest reads messages from the socket and dispatches them until
// the connection closes.
func (c *Controller) receiveRequest(conn socket.Socket, connectionID string) error {
	for {
		var raw json.RawMessage
		if err := conn.Read(&raw); err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}
		if err := c.handleRequest(raw, connectionID); err != nil {
			log.Printf("Error handling request from %s: %v", connectionID, err)
		}
	}
}

// handleRequest parses the request type and calls the corresponding
// handler function. Unrecognized types are ignored.
func (c *Controller) handleRequest(raw json.RawMessage, connectionID string) error {
	var common request.Common
	if err := json.Unmarshal(raw, &common); err != nil {
		return fmt.Errorf("failed to parse common message: %w", err)
	}
	switch common.Type {
	case request.JOIN:
		return c.handleJoin(raw, connectionID)
	case request.OFFER:
		return c.handleOffer(raw, connectionID)
	case request.CANDIDATE:
		return c.handleCandidate(raw, connectionID)
	case request.LEAVE:
		return c.coordinator.Leave(connectionID)
	default:
		return nil
	}
}

// handleJoin joins the connection to the requested room and confirms it.
func (c *Controller) handleJoin(raw json.RawMessage, connectionID string) error {
	var msg request.Join
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal join message: %w", err)
	}
	if err := c.coordinator.Join(connectionID, msg.RoomID); err != nil {
		c.replyError(connectionID, request.JOIN, "failed to join room")
		return fmt.Errorf("failed to join room %s: %w", msg.RoomID, err)
	}
	return c.reply(connectionID, response.Joined{Type: response.JOINED})
}

// handleOffer negotiates the endpoint and replies with the SDP answer.
func (c *Controller) handleOffer(raw json.RawMessage, connectionID string) error {
	var msg request.Offer
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal offer message: %w", err)
	}
	answer, err := c.coordinator.Offer(connectionID, msg.SDPOffer)
	if err != nil {
		if errors.Is(err, coordinator.ErrNoActiveEndpoint) {
			c.replyError(connectionID, request.OFFER, "no active endpoint")
		} else {
			c.replyError(connectionID, request.OFFER, "failed to process offer")
		}
		return fmt.Errorf("failed to process offer: %w", err)
	}
	return c.reply(connectionID, response.Answer{
		Type:      response.ANSWER,
		SDPAnswer: answer,
	})
}

// handleCandidate forwards a remote candidate to the endpoint. The
// message has no reply; failures other than a missing endpoint are only
// logged by the caller.
func (c *Controller) handleCandidate(raw json.RawMessage, connectionID string) error {
	var msg request.Candidate
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal candidate message: %w", err)
	}
	if err := c.coordinator.AddCandidate(connectionID, msg.Candidate); err != nil {
		if errors.Is(err, coordinator.ErrNoActiveEndpoint) {
			c.replyError(connectionID, request.CANDIDATE, "no active endpoint")
		}
		return fmt.Errorf("failed to add candidate: %w", err)
	}
	return nil
}

func (c *Controller) reply(connectionID string, msg any) error {
	if err := c.broker.Publish(broker.ClientSocket, broker.Detail(connectionID), msg); err != nil {
		return fmt.Errorf("failed to publish response: %w", err)
	}
	return nil
}

func (c *Controller) replyError(connectionID, req, message string) {
	msg := response.Error{
		Type:    response.ERROR,
		Request: req,
		Message: message,
	}
	if err := c.reply(connectionID, msg); err != nil {
		log.Printf("failed to send error response to %s: %v", connectionID, err)
	}
}
