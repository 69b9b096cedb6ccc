// Package ble implements the Bluetooth LE GATT peripheral transport: a
// three-service application (authorization, scan, connect) gating every
// characteristic but the authorization write behind a per-connection
// session flag, backed by tinygo.org/x/bluetooth's peripheral mode.
// Grounded on original_source/src/transport/ble/{adapter,gatt,
// characteristics,session,uuids}.rs.
package ble

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jzachmann/wifi-commissioning/pkg/commissioning"
	"github.com/jzachmann/wifi-commissioning/pkg/metrics"
	"github.com/jzachmann/wifi-commissioning/pkg/rpc"
	"github.com/jzachmann/wifi-commissioning/pkg/wifi"
	"tinygo.org/x/bluetooth"
)

// Server registers the GATT application on a BLE adapter and serves it
// until its context is canceled. One Server corresponds to
// original_source's BleAdapter<B> + GattServer<B> combined, since
// tinygo's peripheral API registers services directly against the
// adapter rather than through a separate Application value.
type Server struct {
	adapter    *bluetooth.Adapter
	svc        *commissioning.Service
	log        *slog.Logger
	deviceName string

	mu       sync.Mutex
	sessions map[bluetooth.Connection]*Session

	scanStateChar    bluetooth.Characteristic
	scanResultsChar  bluetooth.Characteristic
	connectStateChar bluetooth.Characteristic
}

// New builds a Server around the default local adapter.
func New(deviceName string, svc *commissioning.Service, log *slog.Logger) *Server {
	return &Server{
		adapter:    bluetooth.DefaultAdapter,
		svc:        svc,
		log:        log,
		deviceName: deviceName,
		sessions:   make(map[bluetooth.Connection]*Session),
	}
}

// Serve enables the adapter, registers the three GATT services, starts
// advertising, and relays commissioning state-change notifications to
// the scan/connect state characteristics until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.adapter.Enable(); err != nil {
		return err
	}

	if err := s.registerServices(); err != nil {
		return err
	}

	adv := s.adapter.DefaultAdvertisement()
	if err := adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    s.deviceName,
		ServiceUUIDs: []bluetooth.UUID{AuthorizationServiceUUID, ScanServiceUUID, ConnectServiceUUID},
	}); err != nil {
		return err
	}
	if err := adv.Start(); err != nil {
		return err
	}
	s.log.Info("ble gatt server advertising", "device_name", s.deviceName)

	notifications, unsubscribe := s.svc.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			adv.Stop()
			return nil
		case notif, ok := <-notifications:
			if !ok {
				return nil
			}
			s.relayNotification(notif)
		}
	}
}

// relayNotification pushes the new SM state onto the relevant
// read/notify characteristic. tinygo's peripheral CharacteristicConfig
// has no per-read callback (unlike the reference's
// CharacteristicRead{fun: closure}), so HandleScanStateRead /
// HandleScanResultsRead / HandleConnectStateRead can only be reached by
// pushing their result into the shared Value through Handle.Write on a
// state transition; a real central then observes it either via the
// GATT notification or on its next plain read. authorizedHandler gates
// the push on at least one connected session being authorized, which
// approximates characteristics.rs's per-read NotAuthorized rejection as
// closely as a connection-agnostic Value allows: an unauthorized
// central that reads before any session authorizes only ever sees the
// safe idle/empty default.
func (s *Server) relayNotification(notif rpc.Notification) {
	h := s.authorizedHandler()
	if h == nil {
		return
	}
	switch notif.Method {
	case rpc.MethodScanStateChanged:
		s.pushScanState(h)
		s.pushScanResults(h)
	case rpc.MethodConnectionStateChanged:
		s.pushConnectState(h)
	}
}

// authorizedHandler returns a Handler bound to any one currently
// authorized session, or nil if none is. It is used to drive the push
// path for read characteristics, which must stay gated by
// checkAuthorized the same way writes are.
func (s *Server) authorizedHandler() *Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		if session.IsAuthorized() {
			return NewHandler(s.svc, session, s.log)
		}
	}
	return nil
}

func (s *Server) pushScanState(h *Handler) {
	value, err := h.HandleScanStateRead()
	if err != nil {
		s.log.Debug("scan state push skipped", "error", err)
		return
	}
	if err := s.scanStateChar.Write(value); err != nil {
		s.log.Debug("scan state characteristic notify failed", "error", err)
	}
}

// pushScanResults streams the full paginated snapshot as a sequence of
// notifications, one per MaxChunkSize chunk, terminated by an empty
// chunk (mirroring the read-side pagination contract of
// Session.NextResultsChunk so a central that can only subscribe, not
// poll reads, still receives every page).
func (s *Server) pushScanResults(h *Handler) {
	for {
		value, err := h.HandleScanResultsRead()
		if err != nil {
			s.log.Debug("scan results push skipped", "error", err)
			return
		}
		if err := s.scanResultsChar.Write(value); err != nil {
			s.log.Debug("scan results characteristic notify failed", "error", err)
			return
		}
		if len(value) == 0 {
			return
		}
	}
}

func (s *Server) pushConnectState(h *Handler) {
	value, err := h.HandleConnectStateRead()
	if err != nil {
		s.log.Debug("connect state push skipped", "error", err)
		return
	}
	if err := s.connectStateChar.Write(value); err != nil {
		s.log.Debug("connect state characteristic notify failed", "error", err)
	}
}

func (s *Server) registerServices() error {
	if err := s.registerAuthorizationService(); err != nil {
		return err
	}
	if err := s.registerScanService(); err != nil {
		return err
	}
	return s.registerConnectService()
}

func (s *Server) registerAuthorizationService() error {
	return s.adapter.AddService(&bluetooth.Service{
		UUID: AuthorizationServiceUUID,
		Characteristics: []bluetooth.CharacteristicConfig{
			{
				UUID:  AuthKeyCharUUID,
				Flags: bluetooth.CharacteristicWritePermission,
				WriteEvent: func(client bluetooth.Connection, offset int, value []byte) {
					h := s.handlerFor(client)
					if err := h.HandleAuthWrite(value); err != nil {
						s.log.Warn("auth characteristic write rejected", "error", err)
						return
					}
					s.pushScanState(h)
					s.pushConnectState(h)
				},
			},
		},
	})
}

func (s *Server) registerScanService() error {
	return s.adapter.AddService(&bluetooth.Service{
		UUID: ScanServiceUUID,
		Characteristics: []bluetooth.CharacteristicConfig{
			{
				UUID:  ScanControlCharUUID,
				Flags: bluetooth.CharacteristicWritePermission,
				WriteEvent: func(client bluetooth.Connection, offset int, value []byte) {
					h := s.handlerFor(client)
					if err := h.HandleScanControlWrite(context.Background(), value); err != nil {
						s.log.Warn("scan control write rejected", "error", err)
					}
				},
			},
			{
				UUID:   ScanStateCharUUID,
				Flags:  bluetooth.CharacteristicReadPermission | bluetooth.CharacteristicNotifyPermission,
				Value:  []byte{byte(wifi.ScanIdle)},
				Handle: &s.scanStateChar,
			},
			{
				UUID:   ScanResultsCharUUID,
				Flags:  bluetooth.CharacteristicReadPermission | bluetooth.CharacteristicNotifyPermission,
				Value:  []byte{},
				Handle: &s.scanResultsChar,
			},
		},
	})
}

func (s *Server) registerConnectService() error {
	return s.adapter.AddService(&bluetooth.Service{
		UUID: ConnectServiceUUID,
		Characteristics: []bluetooth.CharacteristicConfig{
			{
				UUID:  ConnectSSIDCharUUID,
				Flags: bluetooth.CharacteristicWritePermission,
				WriteEvent: func(client bluetooth.Connection, offset int, value []byte) {
					h := s.handlerFor(client)
					if err := h.HandleSSIDWrite(value); err != nil {
						s.log.Warn("ssid characteristic write rejected", "error", err)
					}
				},
			},
			{
				UUID:  ConnectPSKCharUUID,
				Flags: bluetooth.CharacteristicWritePermission,
				WriteEvent: func(client bluetooth.Connection, offset int, value []byte) {
					h := s.handlerFor(client)
					if err := h.HandlePSKWrite(value); err != nil {
						s.log.Warn("psk characteristic write rejected", "error", err)
					}
				},
			},
			{
				UUID:  ConnectControlCharUUID,
				Flags: bluetooth.CharacteristicWritePermission,
				WriteEvent: func(client bluetooth.Connection, offset int, value []byte) {
					h := s.handlerFor(client)
					if err := h.HandleConnectControlWrite(context.Background(), value); err != nil {
						s.log.Warn("connect control write rejected", "error", err)
					}
				},
			},
			{
				UUID:   ConnectStateCharUUID,
				Flags:  bluetooth.CharacteristicReadPermission | bluetooth.CharacteristicNotifyPermission,
				Value:  []byte{byte(wifi.ConnIdle)},
				Handle: &s.connectStateChar,
			},
		},
	})
}

// handlerFor returns the Handler bound to client's session, creating
// the session on first contact. tinygo's peripheral API does not
// expose a disconnect callback keyed by Connection, so sessions outlive
// their BLE connection until the adapter reuses the handle; the
// authorization flag they carry is harmless to leak since a fresh
// central must still present a valid proof-of-knowledge blob.
func (s *Server) handlerFor(client bluetooth.Connection) *Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[client]
	if !ok {
		session = NewSession()
		s.sessions[client] = session
		metrics.SetActiveSessions("ble", len(s.sessions))
	}
	return NewHandler(s.svc, session, s.log)
}
