package ble

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestSessionAuthorization(t *testing.T) {
	s := NewSession()
	if s.IsAuthorized() {
		t.Fatal("IsAuthorized() = true for a fresh session")
	}
	s.SetAuthorized(true)
	if !s.IsAuthorized() {
		t.Fatal("IsAuthorized() = false after SetAuthorized(true)")
	}
}

func TestSessionSSIDAccumulation(t *testing.T) {
	s := NewSession()
	s.AppendSSID([]byte("My"))
	s.AppendSSID([]byte("Net"))
	s.AppendSSID([]byte("work"))

	ssid, err := s.SSID()
	if err != nil {
		t.Fatalf("SSID() error = %v", err)
	}
	if ssid != "MyNetwork" {
		t.Fatalf("SSID() = %q, want MyNetwork", ssid)
	}

	s.ClearSSID()
	ssid, err = s.SSID()
	if err != nil || ssid != "" {
		t.Fatalf("SSID() after clear = %q, %v", ssid, err)
	}
}

func TestSessionSSIDInvalidUTF8(t *testing.T) {
	s := NewSession()
	s.AppendSSID([]byte{0xff, 0xfe})
	if _, err := s.SSID(); err == nil {
		t.Fatal("SSID() error = nil, want ErrInvalidSSIDEncoding")
	}
}

func TestSessionPSKStorage(t *testing.T) {
	s := NewSession()
	if _, ok := s.PSK(); ok {
		t.Fatal("PSK() ok = true for a fresh session")
	}

	psk := [32]byte{31: 42}
	s.SetPSK(psk)
	got, ok := s.PSK()
	if !ok || got != psk {
		t.Fatalf("PSK() = %v, %v, want %v, true", got, ok, psk)
	}

	s.ClearPSK()
	if _, ok := s.PSK(); ok {
		t.Fatal("PSK() ok = true after ClearPSK")
	}
}

func TestSessionClearBuffers(t *testing.T) {
	s := NewSession()
	s.AppendSSID([]byte("TestSSID"))
	s.SetPSK([32]byte{1})

	s.ClearBuffers()

	if ssid, _ := s.SSID(); ssid != "" {
		t.Fatalf("SSID() after ClearBuffers = %q", ssid)
	}
	if _, ok := s.PSK(); ok {
		t.Fatal("PSK() ok = true after ClearBuffers")
	}
}

// TestSessionChunkingReconstructsPayload is the Go counterpart of
// testable property §8.7: concatenating successive chunked reads until
// an empty read is returned must reconstruct the original payload
// exactly, and a cursor reset must restart pagination from zero.
func TestSessionChunkingReconstructsPayload(t *testing.T) {
	type network struct {
		SSID string `json:"ssid"`
	}
	networks := make([]network, 0, 20)
	for i := 0; i < 20; i++ {
		networks = append(networks, network{SSID: "Network-With-A-Fairly-Long-Name-Number"})
	}
	payload, err := json.Marshal(networks)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	s := NewSession()
	var reconstructed []byte
	for i := 0; i < 1000; i++ {
		chunk := s.NextResultsChunk(payload)
		if len(chunk) == 0 {
			break
		}
		if len(chunk) > MaxChunkSize {
			t.Fatalf("chunk length %d exceeds MaxChunkSize", len(chunk))
		}
		reconstructed = append(reconstructed, chunk...)
	}

	if !bytes.Equal(reconstructed, payload) {
		t.Fatalf("reconstructed payload does not match original\ngot:  %s\nwant: %s", reconstructed, payload)
	}

	s.ResetResultsCursor()
	firstChunkAgain := s.NextResultsChunk(payload)
	if !bytes.Equal(firstChunkAgain, payload[:len(firstChunkAgain)]) {
		t.Fatal("cursor reset did not restart pagination from zero")
	}
}

func TestSessionChunkingEmptyPayload(t *testing.T) {
	s := NewSession()
	if chunk := s.NextResultsChunk([]byte{}); len(chunk) != 0 {
		t.Fatalf("NextResultsChunk(empty) = %v, want empty", chunk)
	}
}
