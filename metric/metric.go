// Package metric provides Prometheus metrics collection and monitoring.
package metric

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
)

// systemStatsInterval is how often CPU and memory gauges are refreshed.
const systemStatsInterval = 5 * time.Second

// Metrics contains the Prometheus metrics server and registered custom metrics.
type Metrics struct {
	httpServer           *http.Server
	config               Config
	webSocketConnections prometheus.Gauge
	activeRooms          prometheus.Gauge
	activeParticipants   prometheus.Gauge
	joinFailures         prometheus.Counter
	relayedCandidates    prometheus.Counter
	cpuUsage             prometheus.Gauge
	memoryUsage          prometheus.Gauge
}

// New creates a new Metrics instance with the specified configuration.
func New(config Config) *Metrics {
	return &Metrics{
		config: config,
		webSocketConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "websocket_connections_total",
			Help: "Current number of WebSocket connections.",
		}),
		activeRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rooms_active",
			Help: "Current number of active rooms.",
		}),
		activeParticipants: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "participants_active",
			Help: "Current number of joined participants.",
		}),
		joinFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "join_failures_total",
			Help: "Number of join requests that failed.",
		}),
		relayedCandidates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relayed_candidates_total",
			Help: "Number of ICE candidates relayed to clients.",
		}),
		cpuUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cpu_usage_percentage",
			Help: "CPU usage percentage.",
		}),
		memoryUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "memory_usage_bytes",
			Help: "Current memory usage in bytes.",
		}),
	}
}

// RegisterMetrics registers custom metrics with Prometheus.
func (m *Metrics) RegisterMetrics() {
	prometheus.MustRegister(m.webSocketConnections)
	prometheus.MustRegister(m.activeRooms)
	prometheus.MustRegister(m.activeParticipants)
	prometheus.MustRegister(m.joinFailures)
	prometheus.MustRegister(m.relayedCandidates)
	prometheus.MustRegister(m.cpuUsage)
	prometheus.MustRegister(m.memoryUsage)
}

// Start initializes and starts the metrics HTTP server.
func (m *Metrics) Start() {
	mux := http.NewServeMux()
	mux.Handle(m.config.Path, promhttp.Handler())
	m.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", m.config.Port),
		Handler: mux,
	}

	go func() {
		log.Printf("Starting metrics server on port %d at path %s", m.config.Port, m.config.Path)
		if err := m.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting metrics server: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (m *Metrics) Stop() error {
	if m.httpServer != nil {
		log.Printf("Stopping metrics server on port %d", m.config.Port)
		return m.httpServer.Close()
	}
	return nil
}

// UpdateSystemMetrics collects CPU and memory usage until stop is closed.
func (m *Metrics) UpdateSystemMetrics(stop <-chan struct{}) {
	ticker := time.NewTicker(systemStatsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
				m.cpuUsage.Set(percents[0])
			}
			if vm, err := mem.VirtualMemory(); err == nil {
				m.memoryUsage.Set(float64(vm.Used))
			}
		}
	}
}

// IncrementWebSocketConnections increments the WebSocket connection count.
func (m *Metrics) IncrementWebSocketConnections() {
	m.webSocketConnections.Inc()
}

// DecrementWebSocketConnections decrements the WebSocket connection count.
func (m *Metrics) DecrementWebSocketConnections() {
	m.webSocketConnections.Dec()
}

// IncrementActiveRooms increments the active room count.
func (m *Metrics) IncrementActiveRooms() {
	m.activeRooms.Inc()
}

// DecrementActiveRooms decrements the active room count.
func (m *Metrics) DecrementActiveRooms() {
	m.activeRooms.Dec()
}

// IncrementActiveParticipants increments the joined participant count.
func (m *Metrics) IncrementActiveParticipants() {
	m.activeParticipants.Inc()
}

// DecrementActiveParticipants decrements the joined participant count.
func (m *Metrics) DecrementActiveParticipants() {
	m.activeParticipants.Dec()
}

// IncrementJoinFailures increments the failed join count.
func (m *Metrics) IncrementJoinFailures() {
	m.joinFailures.Inc()
}

// IncrementRelayedCandidates increments the relayed candidate count.
func (m *Metrics) IncrementRelayedCandidates() {
	m.relayedCandidates.Inc()
}
