// Package commissioning is the facade that orchestrates authorization,
// scanning and connecting into the single surface both transports talk
// to, and fans out state-change notifications to their subscribers.
// Grounded on original_source/src/core/service.rs.
package commissioning

import (
	"context"
	"log/slog"

	"github.com/jzachmann/wifi-commissioning/pkg/auth"
	"github.com/jzachmann/wifi-commissioning/pkg/connect"
	"github.com/jzachmann/wifi-commissioning/pkg/metrics"
	"github.com/jzachmann/wifi-commissioning/pkg/rpc"
	"github.com/jzachmann/wifi-commissioning/pkg/scan"
	"github.com/jzachmann/wifi-commissioning/pkg/wifi"
)

// Service is the single entry point both the Unix socket and BLE
// transports drive. It owns no transport-specific state.
type Service struct {
	Auth    *auth.Authorization
	Scan    *scan.Service
	Connect *connect.Service

	events *eventBus
}

// New wires a Service to the given backend and device ID. log is used by
// the scan/connect services for background-operation diagnostics.
func New(backend wifi.Backend, deviceID string, log *slog.Logger) *Service {
	svc := &Service{
		Auth:   auth.New(deviceID),
		events: newEventBus(),
	}
	svc.Scan = scan.New(backend, log, func(state wifi.ScanState) {
		recordScanMetric(state)
		svc.events.publish(rpc.NewScanStateChanged(state, svc.Scan.LastError()))
	})
	svc.Connect = connect.New(backend, log, func(state wifi.ConnectionState) {
		recordConnectMetric(state)
		metrics.SetConnectionState(int(state))
		svc.events.publish(rpc.NewConnectionStateChanged(svc.Connect.Status(), svc.Connect.LastError()))
	})
	return svc
}

func recordScanMetric(state wifi.ScanState) {
	switch state {
	case wifi.ScanFinished:
		metrics.IncScanAttempt(metrics.OutcomeSuccess)
	case wifi.ScanError:
		metrics.IncScanAttempt(metrics.OutcomeFailure)
	}
}

func recordConnectMetric(state wifi.ConnectionState) {
	switch state {
	case wifi.ConnConnected:
		metrics.IncConnectAttempt(metrics.OutcomeSuccess)
	case wifi.ConnFailed:
		metrics.IncConnectAttempt(metrics.OutcomeFailure)
	}
}

// Authorize attempts proof-of-knowledge authorization.
func (s *Service) Authorize(key []byte) error { return s.Auth.Authorize(key) }

// IsAuthorized reports whether the caller is currently authorized.
func (s *Service) IsAuthorized() bool { return s.Auth.IsAuthorized() }

// StartScan begins a background scan.
func (s *Service) StartScan(ctx context.Context) error { return s.Scan.Start(ctx) }

// ScanState returns the current scan state.
func (s *Service) ScanState() wifi.ScanState { return s.Scan.State() }

// ScanResults returns the most recently finished scan's networks.
func (s *Service) ScanResults() ([]wifi.Network, error) { return s.Scan.Results() }

// ConnectTo begins a background connection attempt.
func (s *Service) ConnectTo(ctx context.Context, ssid string, psk [32]byte) error {
	return s.Connect.Connect(ctx, ssid, psk)
}

// Disconnect tears down the current connection.
func (s *Service) Disconnect(ctx context.Context) error { return s.Connect.Disconnect(ctx) }

// ConnectionStatus returns the current connection snapshot.
func (s *Service) ConnectionStatus() wifi.Status { return s.Connect.Status() }

// Subscribe registers a new listener for scan/connection state-change
// notifications. The returned channel is closed by Unsubscribe.
func (s *Service) Subscribe() (<-chan rpc.Notification, func()) {
	return s.events.subscribe()
}
