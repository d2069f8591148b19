package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Service represents an aesdsocket server found on the network
type Service struct {
	// Instance is the mDNS instance name (e.g., "aesdsocket")
	Instance string

	// Hostname is the mDNS hostname (e.g., "buildroot.local.")
	Hostname string

	// IP is the preferred address, IPv4 when available
	IP string

	// Port is the TCP port of the log service
	Port int

	// Metadata contains the TXT record data ("version=...", "tail=...")
	Metadata map[string]string

	// DiscoveredAt is when the service was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the service
func (s *Service) String() string {
	return fmt.Sprintf("%s (%s) at %s", s.Instance, s.Hostname, s.Addr())
}

// Addr returns the host:port to dial
func (s *Service) Addr() string {
	return net.JoinHostPort(s.IP, strconv.Itoa(s.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (s *Service) GetMetadata(key string) string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}

// TailURL returns the WebSocket tail URL advertised by the server, or an
// empty string when the server runs without a tail endpoint.
func (s *Service) TailURL() string {
	port := s.GetMetadata(TxtTailPort)
	if port == "" {
		return ""
	}
	return fmt.Sprintf("ws://%s/tail", net.JoinHostPort(s.IP, port))
}
