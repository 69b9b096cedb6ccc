// Package metrics exposes Prometheus counters and gauges for the
// commissioning kernel. Adapted from the teacher's pkg/metrics/metrics.go
// (same promauto registration style, same package-level vars), relabeled
// from gateway packet counts to scan/connect/authorization activity.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ScanAttempts counts scan attempts by outcome.
	ScanAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wifi_commissioning_scan_attempts_total",
		Help: "Total number of WiFi scans started, labeled by outcome",
	}, []string{"outcome"})

	// ConnectAttempts counts connect attempts by outcome.
	ConnectAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wifi_commissioning_connect_attempts_total",
		Help: "Total number of WiFi connection attempts, labeled by outcome",
	}, []string{"outcome"})

	// AuthAttempts counts authorization attempts by transport and outcome.
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wifi_commissioning_auth_attempts_total",
		Help: "Total number of authorization attempts, labeled by transport and outcome",
	}, []string{"transport", "outcome"})

	// ActiveSessions tracks open transport sessions.
	ActiveSessions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wifi_commissioning_active_sessions",
		Help: "Number of currently connected transport sessions",
	}, []string{"transport"})

	// ConnectionState mirrors the current wifi.ConnectionState as a single
	// gauge holding the state's integer value (decoded in its Help text).
	ConnectionState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wifi_commissioning_connection_state",
		Help: "Current connection state (0=idle,1=connecting,2=connected,3=failed)",
	})
)

// Outcome label values shared across counters.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// IncScanAttempt increments the scan counter for outcome.
func IncScanAttempt(outcome string) {
	ScanAttempts.WithLabelValues(outcome).Inc()
}

// IncConnectAttempt increments the connect counter for outcome.
func IncConnectAttempt(outcome string) {
	ConnectAttempts.WithLabelValues(outcome).Inc()
}

// IncAuthAttempt increments the authorization counter for transport/outcome.
func IncAuthAttempt(transport, outcome string) {
	AuthAttempts.WithLabelValues(transport, outcome).Inc()
}

// SetActiveSessions sets the session gauge for transport.
func SetActiveSessions(transport string, count int) {
	ActiveSessions.WithLabelValues(transport).Set(float64(count))
}

// SetConnectionState records the current connection state as a gauge value.
func SetConnectionState(state int) {
	ConnectionState.Set(float64(state))
}

// Serve starts a minimal HTTP server exposing /metrics on addr, blocking
// until ctx is canceled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
