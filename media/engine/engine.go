// Package engine implements the media engine on top of pion/webrtc.
// Endpoints are server-side peer connections; Connect fans the source
// endpoint's inbound tracks out to the sink, so every connected pair of
// participants exchanges media through this process.
package engine

import (
	"fmt"
	"sync"

	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"

	"groupcall/media"
)

// Engine creates pipelines backed by a shared pion WebRTC API.
type Engine struct {
	api    *webrtc.API
	config webrtc.Configuration
}

// New creates a new Engine instance with default codecs and interceptors
// registered.
func New(config media.Config) (*Engine, error) {
	settings := webrtc.SettingEngine{}
	if err := config.SetPortRange(&settings); err != nil {
		return nil, fmt.Errorf("failed to apply port range: %w", err)
	}

	mediaEngine := &webrtc.MediaEngine{}
	if err := mediaEngine.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("failed to register codecs: %w", err)
	}

	registry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(mediaEngine, registry); err != nil {
		return nil, fmt.Errorf("failed to register interceptors: %w", err)
	}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(mediaEngine),
		webrtc.WithInterceptorRegistry(registry),
		webrtc.WithSettingEngine(settings),
	)

	return &Engine{
		api: api,
		config: webrtc.Configuration{
			ICEServers: []webrtc.ICEServer{
				{URLs: config.STUNServers()},
			},
		},
	}, nil
}

// CreatePipeline creates a new pipeline. Endpoints created from it share
// the engine's API and ICE configuration.
func (e *Engine) CreatePipeline() (media.Pipeline, error) {
	return &Pipeline{engine: e}, nil
}

// Pipeline groups the endpoints of one room.
type Pipeline struct {
	engine *Engine

	mu     sync.Mutex
	closed bool
}

// CreateEndpoint creates a new endpoint on this pipeline.
func (p *Pipeline) CreateEndpoint() (media.Endpoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, media.ErrPipelineClosed
	}

	conn, err := p.engine.api.NewPeerConnection(p.engine.config)
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}
	return newEndpoint(conn), nil
}

// Release marks the pipeline as closed. Endpoints are released by their
// owning room before the pipeline.
func (p *Pipeline) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
