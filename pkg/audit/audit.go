// Package audit defines the append-only event log for the commissioning
// kernel: every scan/connect state transition, timestamped and tagged
// with an outcome, never the credential material that drove it. KindAuth
// is defined, but the daemon records no authorization events. Adapted from the teacher's pkg/persistence/persistence.go, narrowed
// from a generic message-retry queue down to a single Store.Record method
// over one event shape.
package audit

import "time"

// Kind identifies the category of an audit Event.
type Kind string

// Event kinds recorded by the commissioning kernel.
const (
	KindAuth    Kind = "auth"
	KindScan    Kind = "scan"
	KindConnect Kind = "connect"
)

// Event is one row of the audit log. Detail is a short human-readable
// description (e.g. "scan_finished: 4 networks", "connect_failed:
// backend unreachable") — it must never contain PSK or passphrase bytes.
type Event struct {
	ID        int64
	Timestamp time.Time
	Kind      Kind
	Detail    string
}

// Store persists and retrieves audit Events.
type Store interface {
	// Record appends an event to the log.
	Record(evt Event) error

	// Recent returns the most recent limit events, newest first.
	Recent(limit int) ([]Event, error)

	// Close releases any underlying resources.
	Close() error
}

// NopStore discards every event. Used when auditing is disabled in
// configuration so callers never need a nil check.
type NopStore struct{}

// Record discards evt.
func (NopStore) Record(Event) error { return nil }

// Recent always returns no events.
func (NopStore) Recent(int) ([]Event, error) { return nil, nil }

// Close is a no-op.
func (NopStore) Close() error { return nil }
