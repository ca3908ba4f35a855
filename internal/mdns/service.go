// Package mdns advertises the CineLog server on the local network over
// mDNS/Zeroconf, so client apps can find it without manual configuration.
package mdns

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/hashicorp/mdns"
)

// Every advertisement carries these. Clients match on ServiceType and read
// the versions from TXT records to decide compatibility before connecting.
const (
	ServiceType   = "_cinelog._tcp"
	APIVersion    = "v1"
	ServerVersion = "1.0.0"
)

// Instance identifies this server on the local network. The id is generated
// at startup and stays stable for the life of the process; clients use it to
// tell two CineLog servers on the same LAN apart.
type Instance struct {
	ID   string
	Name string
}

// txtRecords encodes the instance metadata clients read from the
// advertisement before ever talking to the API.
func (in Instance) txtRecords() []string {
	return []string{
		"id=" + in.ID,
		"name=" + in.Name,
		"version=" + ServerVersion,
		"api=" + APIVersion,
	}
}

// Service manages the lifecycle of one mDNS advertisement.
type Service struct {
	server *mdns.Server
	logger *slog.Logger
	mu     sync.Mutex
}

// NewService returns an idle Service; nothing goes on the wire until Start.
func NewService(logger *slog.Logger) *Service {
	return &Service{logger: logger}
}

// Start advertises the server on all interfaces. Call it after the HTTP
// server is listening, since the advertisement names a live port. Calling
// Start again replaces the previous advertisement. Failures are expected
// in environments without multicast, such as containers.
func (s *Service) Start(instance Instance, port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		_ = s.server.Shutdown()
		s.server = nil
	}

	host, err := os.Hostname()
	if err != nil {
		host = "cinelog-server"
	}

	// Empty domain and host mean .local and the system hostname; nil IPs
	// advertise on every interface.
	zone, err := mdns.NewMDNSService(host, ServiceType, "", "", port, nil, instance.txtRecords())
	if err != nil {
		return fmt.Errorf("build mDNS zone: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: zone})
	if err != nil {
		return fmt.Errorf("start mDNS server: %w", err)
	}
	s.server = server

	s.logger.Info("mDNS advertisement started",
		"service", ServiceType,
		"port", port,
		"name", instance.Name,
		"id", instance.ID,
	)
	return nil
}

// Stop withdraws the advertisement. Safe to call repeatedly and before
// Start.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return
	}
	_ = s.server.Shutdown()
	s.server = nil
	s.logger.Info("mDNS advertisement stopped")
}
