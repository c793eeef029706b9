// Package mediatest provides an in-memory media engine for tests. It
// records every pipeline, endpoint, connect and release call so tests can
// assert on the exact media-path fan-out.
package mediatest

import (
	"fmt"
	"sync"

	"groupcall/media"
)

// ConnectPair is one directed connect call between two endpoints.
type ConnectPair struct {
	From string
	To   string
}

// Engine is a fake media engine.
type Engine struct {
	mu            sync.Mutex
	pipelines     []*Pipeline
	connects      []ConnectPair
	nextEndpoint  int
	endpointErr   error
	connectErr    error
	createCalls   int
	releasedPipes int
}

// NewEngine creates a new fake engine.
func NewEngine() *Engine {
	return &Engine{}
}

// CreatePipeline creates a new fake pipeline.
func (e *Engine) CreatePipeline() (media.Pipeline, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := &Pipeline{engine: e}
	e.pipelines = append(e.pipelines, p)
	return p, nil
}

// FailEndpointCreate makes subsequent CreateEndpoint calls fail with err.
// Passing nil restores normal behavior.
func (e *Engine) FailEndpointCreate(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.endpointErr = err
}

// FailConnect makes subsequent Connect calls fail with err. Passing nil
// restores normal behavior.
func (e *Engine) FailConnect(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connectErr = err
}

// PipelineCount returns the number of pipelines created so far.
func (e *Engine) PipelineCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pipelines)
}

// ReleasedPipelineCount returns the number of released pipelines.
func (e *Engine) ReleasedPipelineCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.releasedPipes
}

// EndpointCreateCalls returns how many endpoint creations were attempted.
func (e *Engine) EndpointCreateCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.createCalls
}

// Pipelines returns every pipeline created so far.
func (e *Engine) Pipelines() []*Pipeline {
	e.mu.Lock()
	defer e.mu.Unlock()
	pipelines := make([]*Pipeline, len(e.pipelines))
	copy(pipelines, e.pipelines)
	return pipelines
}

// ConnectPairs returns every directed connect call in invocation order.
func (e *Engine) ConnectPairs() []ConnectPair {
	e.mu.Lock()
	defer e.mu.Unlock()
	pairs := make([]ConnectPair, len(e.connects))
	copy(pairs, e.connects)
	return pairs
}

// Pipeline is a fake media pipeline.
type Pipeline struct {
	engine *Engine

	mu        sync.Mutex
	endpoints []*Endpoint
	released  bool
}

// CreateEndpoint creates a new fake endpoint with a unique ID.
func (p *Pipeline) CreateEndpoint() (media.Endpoint, error) {
	p.engine.mu.Lock()
	p.engine.createCalls++
	if err := p.engine.endpointErr; err != nil {
		p.engine.mu.Unlock()
		return nil, err
	}
	p.engine.nextEndpoint++
	id := fmt.Sprintf("endpoint-%d", p.engine.nextEndpoint)
	p.engine.mu.Unlock()

	ep := &Endpoint{engine: p.engine, id: id}
	p.mu.Lock()
	p.endpoints = append(p.endpoints, ep)
	p.mu.Unlock()
	return ep, nil
}

// Release marks the pipeline as released.
func (p *Pipeline) Release() error {
	p.mu.Lock()
	p.released = true
	p.mu.Unlock()
	p.engine.mu.Lock()
	p.engine.releasedPipes++
	p.engine.mu.Unlock()
	return nil
}

// Released reports whether Release has been called.
func (p *Pipeline) Released() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}

// Endpoints returns every endpoint created on this pipeline.
func (p *Pipeline) Endpoints() []*Endpoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	endpoints := make([]*Endpoint, len(p.endpoints))
	copy(endpoints, p.endpoints)
	return endpoints
}

// Endpoint is a fake media endpoint.
type Endpoint struct {
	engine *Engine
	id     string

	mu          sync.Mutex
	offers      []string
	candidates  []media.ICECandidate
	handler     func(media.ICECandidate)
	gatherCalls int
	releases    int
}

// ID returns the endpoint's unique identifier.
func (ep *Endpoint) ID() string {
	return ep.id
}

// Connect records the directed connect call on the engine.
func (ep *Endpoint) Connect(sink media.Endpoint) error {
	target, ok := sink.(*Endpoint)
	if !ok {
		return media.ErrForeignEndpoint
	}
	ep.engine.mu.Lock()
	defer ep.engine.mu.Unlock()
	if err := ep.engine.connectErr; err != nil {
		return err
	}
	ep.engine.connects = append(ep.engine.connects, ConnectPair{From: ep.id, To: target.id})
	return nil
}

// ProcessOffer records the offer and returns a deterministic answer.
func (ep *Endpoint) ProcessOffer(sdpOffer string) (string, error) {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	ep.offers = append(ep.offers, sdpOffer)
	return "answer:" + sdpOffer, nil
}

// GatherCandidates records the gathering trigger.
func (ep *Endpoint) GatherCandidates() error {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	ep.gatherCalls++
	return nil
}

// AddICECandidate records the remote candidate.
func (ep *Endpoint) AddICECandidate(candidate media.ICECandidate) error {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	ep.candidates = append(ep.candidates, candidate)
	return nil
}

// OnICECandidate stores the handler, or clears it when nil.
func (ep *Endpoint) OnICECandidate(handler func(media.ICECandidate)) {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	ep.handler = handler
}

// Release records the release call.
func (ep *Endpoint) Release() error {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	ep.releases++
	return nil
}

// FireCandidate invokes the registered handler with candidate. It reports
// whether a handler was registered at the time of the call.
func (ep *Endpoint) FireCandidate(candidate media.ICECandidate) bool {
	ep.mu.Lock()
	handler := ep.handler
	ep.mu.Unlock()
	if handler == nil {
		return false
	}
	handler(candidate)
	return true
}

// Offers returns every SDP offer processed by this endpoint.
func (ep *Endpoint) Offers() []string {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	offers := make([]string, len(ep.offers))
	copy(offers, ep.offers)
	return offers
}

// Candidates returns every remote candidate added to this endpoint.
func (ep *Endpoint) Candidates() []media.ICECandidate {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	candidates := make([]media.ICECandidate, len(ep.candidates))
	copy(candidates, ep.candidates)
	return candidates
}

// GatherCalls returns how many times gathering was triggered.
func (ep *Endpoint) GatherCalls() int {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	return ep.gatherCalls
}

// ReleaseCount returns how many times Release was called.
func (ep *Endpoint) ReleaseCount() int {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	return ep.releases
}

// HasHandler reports whether a candidate handler is currently registered.
func (ep *Endpoint) HasHandler() bool {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	return ep.handler != nil
}
