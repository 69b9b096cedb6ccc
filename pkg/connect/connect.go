// Package connect implements the connect state machine and the service
// that drives it against a wifi.Backend in the background.
package connect

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jzachmann/wifi-commissioning/pkg/wifi"
)

// ErrOperationInProgress is returned by Connect when a connection attempt
// is already running or a connection is already established (spec §8
// property 2).
var ErrOperationInProgress = errors.New("connection attempt already in progress")

// placeholderIP ships in Status.IPAddress when the backend reports
// Connected without an IP address (spec's resolved open question: the
// placeholder ships rather than blocking the state transition).
const placeholderIP = "0.0.0.0"

// statusPollDelay gives the backend a moment to settle (DHCP lease,
// association completion) before the post-connect status check.
const statusPollDelay = 20 * time.Millisecond

type stateMachine struct {
	state     wifi.ConnectionState
	ssid      string
	ipAddress string
	errMsg    string
}

func newStateMachine() *stateMachine {
	return &stateMachine{state: wifi.ConnIdle}
}

// start transitions Idle|Failed -> Connecting, rejecting a start from
// Connecting or Connected.
func (sm *stateMachine) start(ssid string) error {
	switch sm.state {
	case wifi.ConnIdle, wifi.ConnFailed:
		sm.state = wifi.ConnConnecting
		sm.ssid = ssid
		sm.ipAddress = ""
		sm.errMsg = ""
		return nil
	default:
		return ErrOperationInProgress
	}
}

func (sm *stateMachine) complete(ip string) {
	sm.state = wifi.ConnConnected
	sm.ipAddress = ip
	sm.errMsg = ""
}

func (sm *stateMachine) fail(reason string) {
	sm.state = wifi.ConnFailed
	sm.errMsg = reason
	sm.ipAddress = ""
}

func (sm *stateMachine) disconnect() {
	sm.state = wifi.ConnIdle
	sm.ssid = ""
	sm.ipAddress = ""
	sm.errMsg = ""
}

func (sm *stateMachine) status() wifi.Status {
	st := wifi.Status{State: sm.state}
	if sm.ssid != "" {
		ssid := sm.ssid
		st.SSID = &ssid
	}
	if sm.state == wifi.ConnConnected {
		ip := sm.ipAddress
		st.IPAddress = &ip
	}
	return st
}

// Service coordinates connection attempts against a backend. The same
// generation-counter mitigation as pkg/scan protects against a connect
// attempt superseded by a disconnect (or a retry) from applying its
// result after the fact.
type Service struct {
	backend wifi.Backend
	log     *slog.Logger

	mu         sync.RWMutex
	sm         *stateMachine
	generation atomic.Uint64

	onStateChange func(wifi.ConnectionState)
}

// New builds a Service bound to the given backend.
func New(backend wifi.Backend, log *slog.Logger, onStateChange func(wifi.ConnectionState)) *Service {
	return &Service{
		backend:       backend,
		log:           log,
		sm:            newStateMachine(),
		onStateChange: onStateChange,
	}
}

// Connect begins a connection attempt in the background.
func (s *Service) Connect(ctx context.Context, ssid string, psk [32]byte) error {
	s.mu.Lock()
	if err := s.sm.start(ssid); err != nil {
		s.mu.Unlock()
		return err
	}
	gen := s.generation.Add(1)
	s.mu.Unlock()

	s.notify(wifi.ConnConnecting)

	go s.run(ctx, gen, ssid, psk)
	return nil
}

func (s *Service) run(ctx context.Context, gen uint64, ssid string, psk [32]byte) {
	err := s.backend.Connect(ctx, ssid, psk)
	if err != nil {
		s.finishFailed(gen, err)
		return
	}

	select {
	case <-time.After(statusPollDelay):
	case <-ctx.Done():
	}

	status, err := s.backend.Status(ctx)

	s.mu.Lock()
	if s.generation.Load() != gen {
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.sm.fail(err.Error())
		s.mu.Unlock()
		s.log.Warn("connect status check failed", "error", err)
		s.notify(wifi.ConnFailed)
		return
	}

	ip := placeholderIP
	if status.IPAddress != nil && *status.IPAddress != "" {
		ip = *status.IPAddress
	}
	s.sm.complete(ip)
	s.mu.Unlock()
	s.notify(wifi.ConnConnected)
}

func (s *Service) finishFailed(gen uint64, err error) {
	s.mu.Lock()
	if s.generation.Load() != gen {
		s.mu.Unlock()
		return
	}
	s.sm.fail(err.Error())
	s.mu.Unlock()
	s.log.Warn("connect failed", "error", err)
	s.notify(wifi.ConnFailed)
}

func (s *Service) notify(state wifi.ConnectionState) {
	if s.onStateChange != nil {
		s.onStateChange(state)
	}
}

// Disconnect tears down the current connection, if any, and bumps the
// generation so a connect attempt racing against it cannot resurrect a
// stale Connected state afterward.
func (s *Service) Disconnect(ctx context.Context) error {
	if err := s.backend.Disconnect(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.sm.disconnect()
	s.generation.Add(1)
	s.mu.Unlock()
	s.notify(wifi.ConnIdle)
	return nil
}

// LastError returns the reason recorded by the most recent failed
// connection attempt, or the empty string if the current state isn't
// Failed.
func (s *Service) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sm.state != wifi.ConnFailed {
		return ""
	}
	return s.sm.errMsg
}

// State returns the current connection state.
func (s *Service) State() wifi.ConnectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sm.state
}

// Status returns a snapshot of the current connection.
func (s *Service) Status() wifi.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sm.status()
}
