// Package handler upgrades HTTP requests to signaling connections.
package handler

import (
	"log"
	"net/http"

	"groupcall/pkg/socket"
	"groupcall/signal/controller"
)

// Handler serves websocket signaling connections.
type Handler struct {
	controller *controller.Controller
}

// New creates a new Handler instance.
func New(c *controller.Controller) *Handler {
	return &Handler{
		controller: c,
	}
}

// ServeHTTP handles the HTTP request and upgrades it to a websocket
// connection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := socket.New(w, r)
	if err != nil {
		log.Printf("Failed to create WebSocket: %v", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Println("Error occurs in closing connection")
		}
	}()
	if err := h.controller.Process(conn); err != nil {
		log.Printf("Error occurs in connection %v", err)
	}
}
