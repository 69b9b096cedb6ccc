// Package scan implements the scan state machine and the service that
// drives it against a wifi.Backend in the background.
package scan

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jzachmann/wifi-commissioning/pkg/wifi"
)

// ErrOperationInProgress is returned by Start when a scan is already
// running (spec §8 property 1).
var ErrOperationInProgress = errors.New("scan already in progress")

// ErrNoResults is returned by Results before any scan has finished.
var ErrNoResults = errors.New("no scan results available")

// stateMachine holds the scan SM fields. It is not safe for concurrent
// use on its own; Service guards it with a mutex.
type stateMachine struct {
	state   wifi.ScanState
	results []wifi.Network
	errMsg  string
}

func newStateMachine() *stateMachine {
	return &stateMachine{state: wifi.ScanIdle}
}

// start transitions Idle|Finished|Error -> Scanning, rejecting a start
// from Scanning (spec §4.2 legal transition table).
func (sm *stateMachine) start() error {
	switch sm.state {
	case wifi.ScanIdle, wifi.ScanFinished, wifi.ScanError:
		sm.state = wifi.ScanScanning
		sm.results = nil
		sm.errMsg = ""
		return nil
	default:
		return ErrOperationInProgress
	}
}

func (sm *stateMachine) complete(networks []wifi.Network) {
	sm.state = wifi.ScanFinished
	sm.results = networks
	sm.errMsg = ""
}

func (sm *stateMachine) fail(reason string) {
	sm.state = wifi.ScanError
	sm.errMsg = reason
	sm.results = nil
}

func (sm *stateMachine) reset() {
	sm.state = wifi.ScanIdle
	sm.results = nil
	sm.errMsg = ""
}

// Service coordinates scan operations against a backend. Each Start call
// runs the backend scan on a background goroutine; a monotonically
// increasing generation counter ensures a goroutine from a stale Start
// (superseded by a Reset and a new Start) can never overwrite the state
// of the scan that replaced it (spec §9 race mitigation).
type Service struct {
	backend wifi.Backend
	log     *slog.Logger

	mu         sync.RWMutex
	sm         *stateMachine
	generation atomic.Uint64

	onStateChange func(wifi.ScanState)
}

// New builds a Service bound to the given backend. onStateChange, if
// non-nil, is invoked whenever the scan state transitions, for the
// event-notification layer: on the calling goroutine for the Scanning and
// Idle transitions made by Start and Reset, and on the background scan
// goroutine for Finished and Error.
func New(backend wifi.Backend, log *slog.Logger, onStateChange func(wifi.ScanState)) *Service {
	return &Service{
		backend:       backend,
		log:           log,
		sm:            newStateMachine(),
		onStateChange: onStateChange,
	}
}

// Start begins a scan in the background. It returns immediately once the
// state machine has accepted the transition; the scan itself completes
// asynchronously.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if err := s.sm.start(); err != nil {
		s.mu.Unlock()
		return err
	}
	gen := s.generation.Add(1)
	s.mu.Unlock()

	s.notify(wifi.ScanScanning)

	go s.run(ctx, gen)
	return nil
}

func (s *Service) run(ctx context.Context, gen uint64) {
	networks, err := s.backend.Scan(ctx)

	s.mu.Lock()
	if s.generation.Load() != gen {
		// Superseded by a Reset+Start while the backend call was in
		// flight; the result belongs to a scan that no longer exists.
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.sm.fail(err.Error())
		s.mu.Unlock()
		s.log.Warn("scan failed", "error", err)
		s.notify(wifi.ScanError)
		return
	}
	s.sm.complete(networks)
	s.mu.Unlock()
	s.notify(wifi.ScanFinished)
}

func (s *Service) notify(state wifi.ScanState) {
	if s.onStateChange != nil {
		s.onStateChange(state)
	}
}

// State returns the current scan state.
func (s *Service) State() wifi.ScanState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sm.state
}

// Results returns the networks from the finished scan, or ErrNoResults
// whenever the current state is not Finished (a new Start clears the
// previous results).
func (s *Service) Results() ([]wifi.Network, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sm.state != wifi.ScanFinished {
		return nil, ErrNoResults
	}
	out := make([]wifi.Network, len(s.sm.results))
	copy(out, s.sm.results)
	return out, nil
}

// LastError returns the reason recorded by the most recent failed scan, or
// the empty string if the current state isn't Error.
func (s *Service) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sm.state != wifi.ScanError {
		return ""
	}
	return s.sm.errMsg
}

// Reset returns the scan state machine to Idle, bumping the generation so
// any scan still in flight is discarded when it completes.
func (s *Service) Reset() {
	s.mu.Lock()
	s.sm.reset()
	s.generation.Add(1)
	s.mu.Unlock()
	s.notify(wifi.ScanIdle)
}
