// Package notify relays commissioning state-change notifications to
// sinks outside the transport layer: an optional MQTT publish, and the
// audit log. Grounded on original_source/src/protocol/notification.rs's
// two notification variants, which pkg/rpc.Notification already carries;
// this package is the fan-out around commissioning.Service.Subscribe,
// not a new notification shape.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jzachmann/wifi-commissioning/pkg/audit"
	"github.com/jzachmann/wifi-commissioning/pkg/commissioning"
	"github.com/jzachmann/wifi-commissioning/pkg/rpc"
)

// Sink receives every notification published by the commissioning
// service.
type Sink interface {
	Notify(notif rpc.Notification) error
}

// Hub subscribes once to a commissioning.Service and fans each
// notification out to every registered Sink, logging (not failing) sink
// errors so one broken sink never blocks the others.
type Hub struct {
	sinks []Sink
	log   *slog.Logger
}

// NewHub builds a Hub delivering to sinks.
func NewHub(log *slog.Logger, sinks ...Sink) *Hub {
	return &Hub{sinks: sinks, log: log}
}

// Run subscribes to svc and blocks, dispatching notifications to every
// sink until ctx is canceled.
func (h *Hub) Run(ctx context.Context, svc *commissioning.Service) {
	notifications, unsubscribe := svc.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case notif, ok := <-notifications:
			if !ok {
				return
			}
			for _, sink := range h.sinks {
				if err := sink.Notify(notif); err != nil {
					h.log.Warn("notification sink failed", "error", err)
				}
			}
		}
	}
}

// AuditSink records every notification as an audit.Event. Connection
// notifications carry the SSID, so it is persisted; the PSK never appears
// in any rpc.Notification payload and so is never persisted.
type AuditSink struct {
	store audit.Store
}

// NewAuditSink wraps store as a notify.Sink.
func NewAuditSink(store audit.Store) *AuditSink {
	return &AuditSink{store: store}
}

// Notify records notif to the audit log.
func (s *AuditSink) Notify(notif rpc.Notification) error {
	kind := audit.KindScan
	if notif.Method == rpc.MethodConnectionStateChanged {
		kind = audit.KindConnect
	}

	detail, err := json.Marshal(notif.Params)
	if err != nil {
		detail = []byte(notif.Method)
	}

	return s.store.Record(audit.Event{
		Timestamp: time.Now(),
		Kind:      kind,
		Detail:    string(detail),
	})
}
