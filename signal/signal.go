// Package signal contains the signaling server and its prerequisites.
package signal

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"groupcall/broker"
	"groupcall/coordinator"
	"groupcall/database/memory"
	"groupcall/media"
	"groupcall/metric"
	"groupcall/room"
	"groupcall/signal/controller"
	"groupcall/signal/handler"
	"groupcall/signal/middleware"
)

// Signal contains the server and configuration.
type Signal struct {
	server    *http.Server
	directory *room.Directory
	conf      Config
}

// New creates a new instance of Signal wired to the given media engine.
func New(config Config, engine media.Engine, metrics *metric.Metrics) *Signal {
	brk := broker.New()
	db := memory.New()
	dir := room.NewDirectory(engine, metrics)
	cod := coordinator.New(dir, db, brk, metrics)
	con := controller.New(cod, brk, metrics)

	mux := http.NewServeMux()
	mux.Handle("/signal", handler.New(con))
	mds := []middleware.Interceptor{
		middleware.NewCORS(),
		middleware.NewLogger(),
	}

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", config.Port),
		ReadTimeout: 2 * time.Second,
		Handler:     middleware.Set(mux, mds...),
	}
	return &Signal{
		server:    srv,
		directory: dir,
		conf:      config,
	}
}

// Handler returns the HTTP handler serving signaling connections.
func (s *Signal) Handler() http.Handler {
	return s.server.Handler
}

// Start runs the signal server.
func (s *Signal) Start() error {
	if s.conf.CertFile == "" || s.conf.KeyFile == "" {
		log.Printf("Starting server port on %d, without TLS", s.conf.Port)
		if err := s.server.ListenAndServe(); err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	}

	log.Printf("Starting server port on %d, with TLS", s.conf.Port)
	if err := s.server.ListenAndServeTLS(s.conf.CertFile, s.conf.KeyFile); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Stop closes the server and disposes every remaining room.
func (s *Signal) Stop() error {
	err := s.server.Close()
	s.directory.Shutdown()
	if err != nil {
		return fmt.Errorf("failed to close server: %w", err)
	}
	return nil
}
