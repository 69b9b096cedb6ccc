package wifi

import (
	"context"
	"sync"
)

// MockBackend is a test double for Backend, grounded on
// original_source/src/backend/mock_backend.rs. It plays the role the
// teacher's codebase fills with a mocking library — the teacher has none,
// so neither does this module; a hand-written fake is the teacher's own
// test-double idiom.
type MockBackend struct {
	mu sync.Mutex

	scanResults     []Network
	scanErr         error
	connectErr      error
	connectedSSID   string
	connectionState ConnectionState
	ipAddress       string
}

// NewMockBackend returns a backend starting in ConnIdle with no scan
// results configured.
func NewMockBackend() *MockBackend {
	return &MockBackend{connectionState: ConnIdle}
}

// SetScanResults configures the networks returned by the next Scan call.
func (m *MockBackend) SetScanResults(networks []Network) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanResults = networks
	m.scanErr = nil
}

// SetScanFailure makes every later Scan call fail with err, until
// SetScanResults or SetScanFailure(nil) clears it.
func (m *MockBackend) SetScanFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanErr = err
}

// SetConnectFailure makes every later Connect call fail with err, until
// SetConnectFailure(nil) clears it.
func (m *MockBackend) SetConnectFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectErr = err
}

// CompleteConnection simulates the supervisor reaching COMPLETED with the
// given IP address (empty string for "Connected without IP").
func (m *MockBackend) CompleteConnection(ip string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectionState = ConnConnected
	m.ipAddress = ip
}

// FailConnection simulates the supervisor dropping out of an attempt.
func (m *MockBackend) FailConnection() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectionState = ConnFailed
}

func (m *MockBackend) Scan(ctx context.Context) ([]Network, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	out := make([]Network, len(m.scanResults))
	copy(out, m.scanResults)
	return out, nil
}

func (m *MockBackend) Connect(ctx context.Context, ssid string, psk [32]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connectErr != nil {
		return m.connectErr
	}
	m.connectedSSID = ssid
	m.connectionState = ConnConnecting
	return nil
}

func (m *MockBackend) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectedSSID = ""
	m.connectionState = ConnIdle
	m.ipAddress = ""
	return nil
}

func (m *MockBackend) Status(ctx context.Context) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Status{State: m.connectionState}
	if m.connectedSSID != "" {
		ssid := m.connectedSSID
		st.SSID = &ssid
	}
	if m.connectionState == ConnConnected && m.ipAddress != "" {
		ip := m.ipAddress
		st.IPAddress = &ip
	}
	return st, nil
}

// ConnectedSSID reports what the mock last received via Connect, for test
// assertions (spec E5).
func (m *MockBackend) ConnectedSSID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectedSSID
}
