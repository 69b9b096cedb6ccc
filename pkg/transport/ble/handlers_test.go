package ble

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jzachmann/wifi-commissioning/pkg/commissioning"
	"github.com/jzachmann/wifi-commissioning/pkg/wifi"
	"golang.org/x/crypto/sha3"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandler() (*Handler, *commissioning.Service) {
	backend := wifi.NewMockBackend()
	svc := commissioning.New(backend, "test-device-id", discardLogger())
	session := NewSession()
	return NewHandler(svc, session, discardLogger()), svc
}

// TestAuthWriteValid is scenario E1: writing SHA3-256(device_id)
// authorizes the session.
func TestAuthWriteValid(t *testing.T) {
	h, _ := newTestHandler()
	hash := sha3.Sum256([]byte("test-device-id"))

	if err := h.HandleAuthWrite(hash[:]); err != nil {
		t.Fatalf("HandleAuthWrite() error = %v", err)
	}
	if !h.session.IsAuthorized() {
		t.Error("session not authorized after correct key")
	}
}

func TestAuthWriteWrongHash(t *testing.T) {
	h, _ := newTestHandler()
	if err := h.HandleAuthWrite(make([]byte, 32)); err == nil {
		t.Fatal("HandleAuthWrite() error = nil for wrong hash")
	}
	if h.session.IsAuthorized() {
		t.Error("session authorized after wrong key")
	}
}

func TestAuthWriteInvalidLength(t *testing.T) {
	h, _ := newTestHandler()
	err := h.HandleAuthWrite([]byte{1, 2, 3})
	var reqErr *ReqError
	if !errors.As(err, &reqErr) || reqErr.Kind != ReqInvalidValueLength {
		t.Fatalf("HandleAuthWrite() error = %v, want ReqInvalidValueLength", err)
	}
}

func TestScanControlUnauthorized(t *testing.T) {
	h, _ := newTestHandler()
	err := h.HandleScanControlWrite(context.Background(), []byte{1})
	var reqErr *ReqError
	if !errors.As(err, &reqErr) || reqErr.Kind != ReqNotAuthorized {
		t.Fatalf("HandleScanControlWrite() error = %v, want ReqNotAuthorized", err)
	}
}

func TestScanControlInvalidValue(t *testing.T) {
	h, _ := newTestHandler()
	h.session.SetAuthorized(true)

	err := h.HandleScanControlWrite(context.Background(), []byte{99})
	var reqErr *ReqError
	if !errors.As(err, &reqErr) || reqErr.Kind != ReqInvalidValueLength {
		t.Fatalf("HandleScanControlWrite() error = %v, want ReqInvalidValueLength", err)
	}
}

func TestScanStateReadAndResultsRead(t *testing.T) {
	h, svc := newTestHandler()
	h.session.SetAuthorized(true)

	stateBytes, err := h.HandleScanStateRead()
	if err != nil || len(stateBytes) != 1 || stateBytes[0] != byte(wifi.ScanIdle) {
		t.Fatalf("HandleScanStateRead() = %v, %v, want [idle]", stateBytes, err)
	}

	if err := h.HandleScanControlWrite(context.Background(), []byte{1}); err != nil {
		t.Fatalf("HandleScanControlWrite() error = %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for svc.ScanState() != wifi.ScanFinished && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	chunk, err := h.HandleScanResultsRead()
	if err != nil {
		t.Fatalf("HandleScanResultsRead() error = %v", err)
	}
	if len(chunk) == 0 {
		t.Fatal("HandleScanResultsRead() returned no data after a finished scan")
	}
}

func TestSSIDAndPSKWrites(t *testing.T) {
	h, _ := newTestHandler()
	h.session.SetAuthorized(true)

	for _, part := range []string{"My", "Net", "work"} {
		if err := h.HandleSSIDWrite([]byte(part)); err != nil {
			t.Fatalf("HandleSSIDWrite(%q) error = %v", part, err)
		}
	}
	ssid, _ := h.session.SSID()
	if ssid != "MyNetwork" {
		t.Fatalf("accumulated SSID = %q, want MyNetwork", ssid)
	}

	if err := h.HandlePSKWrite(make([]byte, 3)); err == nil {
		t.Fatal("HandlePSKWrite(3 bytes) error = nil, want ReqInvalidValueLength")
	}

	psk := make([]byte, 32)
	for i := range psk {
		psk[i] = 42
	}
	if err := h.HandlePSKWrite(psk); err != nil {
		t.Fatalf("HandlePSKWrite() error = %v", err)
	}
	stored, ok := h.session.PSK()
	if !ok || stored != [32]byte(psk) {
		t.Fatalf("PSK() = %v, %v", stored, ok)
	}
}

// TestConnectControlFullFlow is scenario E5: authorize, write SSID in
// three parts, write a 32-byte PSK, write connect control 0x01, and
// confirm the backend receives ("MyNetwork", [42]*32) with buffers
// cleared afterward.
func TestConnectControlFullFlow(t *testing.T) {
	backend := wifi.NewMockBackend()
	svc := commissioning.New(backend, "test-device-id", discardLogger())
	session := NewSession()
	h := NewHandler(svc, session, discardLogger())

	hash := sha3.Sum256([]byte("test-device-id"))
	if err := h.HandleAuthWrite(hash[:]); err != nil {
		t.Fatalf("HandleAuthWrite() error = %v", err)
	}

	for _, part := range []string{"My", "Net", "work"} {
		if err := h.HandleSSIDWrite([]byte(part)); err != nil {
			t.Fatalf("HandleSSIDWrite(%q) error = %v", part, err)
		}
	}
	psk := [32]byte{}
	for i := range psk {
		psk[i] = 42
	}
	if err := h.HandlePSKWrite(psk[:]); err != nil {
		t.Fatalf("HandlePSKWrite() error = %v", err)
	}

	if err := h.HandleConnectControlWrite(context.Background(), []byte{0x01}); err != nil {
		t.Fatalf("HandleConnectControlWrite() error = %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for backend.ConnectedSSID() != "MyNetwork" && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if backend.ConnectedSSID() != "MyNetwork" {
		t.Fatal("backend never received the connect call")
	}

	if ssid, _ := session.SSID(); ssid != "" {
		t.Errorf("SSID buffer = %q, want empty after connect", ssid)
	}
	if _, ok := session.PSK(); ok {
		t.Error("PSK buffer still set after connect")
	}
}

func TestConnectControlMissingPSK(t *testing.T) {
	h, _ := newTestHandler()
	h.session.SetAuthorized(true)
	h.session.AppendSSID([]byte("TestNetwork"))

	err := h.HandleConnectControlWrite(context.Background(), []byte{0x01})
	var reqErr *ReqError
	if !errors.As(err, &reqErr) || reqErr.Kind != ReqFailed {
		t.Fatalf("HandleConnectControlWrite() error = %v, want ReqFailed", err)
	}
}

func TestConnectControlMissingSSIDIsAccepted(t *testing.T) {
	h, _ := newTestHandler()
	h.session.SetAuthorized(true)
	h.session.SetPSK([32]byte{1})

	if err := h.HandleConnectControlWrite(context.Background(), []byte{0x01}); err != nil {
		t.Fatalf("HandleConnectControlWrite() error = %v, want accepted empty SSID", err)
	}
}

func TestConnectControlDisconnect(t *testing.T) {
	h, _ := newTestHandler()
	h.session.SetAuthorized(true)

	if err := h.HandleConnectControlWrite(context.Background(), []byte{0x02}); err != nil {
		t.Fatalf("HandleConnectControlWrite(disconnect) error = %v", err)
	}
}

func TestConnectStateRead(t *testing.T) {
	h, _ := newTestHandler()
	h.session.SetAuthorized(true)

	stateBytes, err := h.HandleConnectStateRead()
	if err != nil || len(stateBytes) != 1 || stateBytes[0] != byte(wifi.ConnIdle) {
		t.Fatalf("HandleConnectStateRead() = %v, %v, want [idle]", stateBytes, err)
	}
}
