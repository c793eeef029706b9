// Package media defines the media engine capability consumed by the
// signaling coordinator.
package media

import (
	"fmt"
	"strconv"

	"github.com/pion/webrtc/v4"
)

// DefaultSTUNServer is used when no STUN server is configured.
const DefaultSTUNServer = "stun:stun.l.google.com:19302"

// Config defines the configuration for the media engine.
type Config struct {
	STUNServer string // STUN server URL for ICE gathering
	MinUDPPort string // Minimum UDP port for WebRTC
	MaxUDPPort string // Maximum UDP port for WebRTC
}

// SetPortRange applies the ephemeral UDP port range to the setting engine.
// Empty values leave the engine defaults untouched.
func (c Config) SetPortRange(s *webrtc.SettingEngine) error {
	if c.MinUDPPort == "" && c.MaxUDPPort == "" {
		return nil
	}

	minPort, err := strconv.Atoi(c.MinUDPPort)
	if err != nil || minPort < 0 || minPort > 65535 {
		return fmt.Errorf("invalid MinUDPPort: %s, error: %v", c.MinUDPPort, err)
	}

	maxPort, err := strconv.Atoi(c.MaxUDPPort)
	if err != nil || maxPort < 0 || maxPort > 65535 {
		return fmt.Errorf("invalid MaxUDPPort: %s, error: %v", c.MaxUDPPort, err)
	}

	if minPort > maxPort {
		return fmt.Errorf("invalid port range: MinUDPPort (%d) > MaxUDPPort (%d)", minPort, maxPort)
	}

	if err := s.SetEphemeralUDPPortRange(uint16(minPort), uint16(maxPort)); err != nil {
		return fmt.Errorf("failed to set ephemeral UDP port range: %w", err)
	}

	return nil
}

// STUNServers returns the configured STUN server URLs, falling back to the
// default when none is set.
func (c Config) STUNServers() []string {
	if c.STUNServer == "" {
		return []string{DefaultSTUNServer}
	}
	return []string{c.STUNServer}
}
