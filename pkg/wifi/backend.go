package wifi

import "context"

// Backend is the polymorphic capability spec §4.1 names the "backend port":
// a pluggable WiFi operations surface that the scan and connect services
// drive. Implementations must be safe to call concurrently from
// independent callers; the core itself only ever serializes calls per
// state machine, so the only real contention a Backend sees is between a
// scan, a connect, and status polling running at once.
//
// A static interface (rather than a generic type parameter) is used here,
// matching the teacher's preference for plain interfaces over generics
// throughout its transport/protocol packages.
type Backend interface {
	// Scan triggers a fresh scan and returns the discovered set. May take
	// seconds. Failure kinds: ScanFailed, BackendUnavailable, InterfaceError.
	Scan(ctx context.Context) ([]Network, error)

	// Connect initiates association and returns as soon as the supervisor
	// accepts the request; it does not wait for an IP. Failure kinds:
	// ConnectionFailed, InvalidSsid, InvalidPskLength, WpaSupplicantError.
	Connect(ctx context.Context, ssid string, psk [32]byte) error

	// Disconnect unconditionally requests teardown of the current
	// association.
	Disconnect(ctx context.Context) error

	// Status returns a current snapshot of the connection.
	Status(ctx context.Context) (Status, error)
}
