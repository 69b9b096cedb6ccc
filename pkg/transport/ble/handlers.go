package ble

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/jzachmann/wifi-commissioning/pkg/commissioning"
	"github.com/jzachmann/wifi-commissioning/pkg/metrics"
)

// ReqErrorKind mirrors the bluer ReqError family the Rust reference
// maps its handler results onto (original_source's
// bluer::gatt::local::ReqError), so the GATT wiring layer can translate
// a handler failure into the right attribute-protocol error.
type ReqErrorKind int

const (
	ReqFailed ReqErrorKind = iota
	ReqNotAuthorized
	ReqInvalidValueLength
)

// ReqError is returned by every characteristic handler method.
type ReqError struct {
	Kind ReqErrorKind
	Err  error
}

func (e *ReqError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	switch e.Kind {
	case ReqNotAuthorized:
		return "not authorized"
	case ReqInvalidValueLength:
		return "invalid value length"
	default:
		return "failed"
	}
}

func newReqError(kind ReqErrorKind, err error) *ReqError {
	return &ReqError{Kind: kind, Err: err}
}

// Handler implements the characteristic-level logic for one BLE
// connection: authorization gating, scan control/state/results, and
// connect SSID/PSK/control/state. Grounded on
// original_source/src/transport/ble/characteristics.rs, translating its
// async CharacteristicHandler<B> methods one-for-one.
type Handler struct {
	svc     *commissioning.Service
	session *Session
	log     *slog.Logger
}

// NewHandler binds a Handler to one session for the lifetime of a BLE
// connection.
func NewHandler(svc *commissioning.Service, session *Session, log *slog.Logger) *Handler {
	return &Handler{svc: svc, session: session, log: log}
}

func (h *Handler) checkAuthorized() error {
	if !h.session.IsAuthorized() {
		h.log.Warn("unauthorized ble access attempt")
		return newReqError(ReqNotAuthorized, nil)
	}
	return nil
}

// HandleAuthWrite validates and checks the 32-byte proof-of-knowledge
// blob, flipping the session's authorized flag on success.
func (h *Handler) HandleAuthWrite(value []byte) error {
	if len(value) != 32 {
		return newReqError(ReqInvalidValueLength, nil)
	}

	if err := h.svc.Authorize(value); err != nil {
		h.log.Warn("ble authorization failed", "error", err)
		metrics.IncAuthAttempt("ble", metrics.OutcomeFailure)
		return newReqError(ReqFailed, err)
	}
	h.session.SetAuthorized(true)
	metrics.IncAuthAttempt("ble", metrics.OutcomeSuccess)
	return nil
}

// HandleScanControlWrite starts a scan when value is [0x01]. Any other
// value is rejected.
func (h *Handler) HandleScanControlWrite(ctx context.Context, value []byte) error {
	if err := h.checkAuthorized(); err != nil {
		return err
	}
	if len(value) != 1 {
		return newReqError(ReqInvalidValueLength, nil)
	}

	switch value[0] {
	case 0x01:
		h.session.ResetResultsCursor()
		if err := h.svc.StartScan(ctx); err != nil {
			return newReqError(ReqFailed, err)
		}
		return nil
	default:
		return newReqError(ReqInvalidValueLength, nil)
	}
}

// HandleScanStateRead returns the current scan state as a single byte.
func (h *Handler) HandleScanStateRead() ([]byte, error) {
	if err := h.checkAuthorized(); err != nil {
		return nil, err
	}
	return []byte{byte(h.svc.ScanState())}, nil
}

// HandleScanResultsRead returns the next chunk of the JSON-serialized
// scan-results snapshot, advancing the session's read cursor.
func (h *Handler) HandleScanResultsRead() ([]byte, error) {
	if err := h.checkAuthorized(); err != nil {
		return nil, err
	}

	networks, err := h.svc.ScanResults()
	if err != nil {
		return []byte{}, nil
	}

	payload, err := json.Marshal(networks)
	if err != nil {
		h.log.Error("marshal scan results failed", "error", err)
		return nil, newReqError(ReqFailed, err)
	}

	return h.session.NextResultsChunk(payload), nil
}

// HandleSSIDWrite appends to the session's SSID accumulation buffer.
func (h *Handler) HandleSSIDWrite(value []byte) error {
	if err := h.checkAuthorized(); err != nil {
		return err
	}
	h.session.AppendSSID(value)
	return nil
}

// HandlePSKWrite stores the 32-byte PSK written by the central.
func (h *Handler) HandlePSKWrite(value []byte) error {
	if err := h.checkAuthorized(); err != nil {
		return err
	}
	if len(value) != 32 {
		return newReqError(ReqInvalidValueLength, nil)
	}

	var psk [32]byte
	copy(psk[:], value)
	h.session.SetPSK(psk)
	return nil
}

// HandleConnectControlWrite assembles the accumulated SSID/PSK and
// invokes connect on 0x01, or disconnect on 0x02.
func (h *Handler) HandleConnectControlWrite(ctx context.Context, value []byte) error {
	if err := h.checkAuthorized(); err != nil {
		return err
	}
	if len(value) == 0 {
		return newReqError(ReqInvalidValueLength, nil)
	}

	switch value[0] {
	case 0x01:
		ssid, err := h.session.SSID()
		if err != nil {
			return newReqError(ReqFailed, err)
		}
		psk, ok := h.session.PSK()
		if !ok {
			return newReqError(ReqFailed, errors.New("psk not set"))
		}

		if err := h.svc.ConnectTo(ctx, ssid, psk); err != nil {
			return newReqError(ReqFailed, err)
		}
		h.session.ClearBuffers()
		return nil
	case 0x02:
		if err := h.svc.Disconnect(ctx); err != nil {
			return newReqError(ReqFailed, err)
		}
		return nil
	default:
		return newReqError(ReqInvalidValueLength, nil)
	}
}

// HandleConnectStateRead returns the current connection state as a
// single byte.
func (h *Handler) HandleConnectStateRead() ([]byte, error) {
	if err := h.checkAuthorized(); err != nil {
		return nil, err
	}
	return []byte{byte(h.svc.ConnectionStatus().State)}, nil
}
