package ble

import (
	"errors"
	"sync"
	"unicode/utf8"
)

// ErrInvalidSSIDEncoding is returned when the accumulated SSID buffer is
// not valid UTF-8 at the time it is read.
var ErrInvalidSSIDEncoding = errors.New("ssid buffer is not valid utf-8")

// Session holds the per-connection state a BLE central accumulates
// across characteristic writes: whether it has presented a valid
// authorization blob, the SSID bytes written so far, the PSK if any,
// and the read cursor into the last-rendered scan-results payload.
// Grounded on original_source/src/transport/ble/session.rs, generalized
// from tokio::sync::RwLock-guarded fields to a single mutex since a BLE
// central's characteristic operations are inherently serialized per
// connection at this layer.
type Session struct {
	mu sync.RWMutex

	authorized   bool
	ssidBuffer   []byte
	pskBuffer    *[32]byte
	resultOffset int
}

// NewSession returns an unauthorized session with empty buffers.
func NewSession() *Session {
	return &Session{}
}

// IsAuthorized reports whether the session has presented a valid
// authorization blob.
func (s *Session) IsAuthorized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authorized
}

// SetAuthorized sets the authorization flag.
func (s *Session) SetAuthorized(authorized bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authorized = authorized
}

// AppendSSID appends bytes to the SSID accumulation buffer.
func (s *Session) AppendSSID(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ssidBuffer = append(s.ssidBuffer, data...)
}

// SSID returns the accumulated SSID buffer decoded as UTF-8.
func (s *Session) SSID() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !utf8.Valid(s.ssidBuffer) {
		return "", ErrInvalidSSIDEncoding
	}
	return string(s.ssidBuffer), nil
}

// ClearSSID empties the SSID accumulation buffer.
func (s *Session) ClearSSID() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ssidBuffer = s.ssidBuffer[:0]
}

// SetPSK stores the PSK written by the central.
func (s *Session) SetPSK(psk [32]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pskBuffer = &psk
}

// PSK returns the stored PSK, if any.
func (s *Session) PSK() (psk [32]byte, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pskBuffer == nil {
		return psk, false
	}
	return *s.pskBuffer, true
}

// ClearPSK discards the stored PSK.
func (s *Session) ClearPSK() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pskBuffer = nil
}

// ClearBuffers clears both the SSID and PSK buffers, called after a
// connect attempt has been handed to the facade.
func (s *Session) ClearBuffers() {
	s.ClearSSID()
	s.ClearPSK()
}

// ResetResultsCursor rewinds the scan-results read cursor to 0. Called
// when this session starts a scan through the scan control
// characteristic; scans started elsewhere do not rewind it.
func (s *Session) ResetResultsCursor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resultOffset = 0
}

// NextResultsChunk returns the next chunk of payload starting at the
// session's cursor, of at most MaxChunkSize bytes, and advances the
// cursor by the returned length. Once the cursor reaches the end of
// payload, it returns an empty chunk and resets the cursor to 0, so a
// subsequent read starts the pagination over (spec §4.7, testable
// property §8.7).
func (s *Session) NextResultsChunk(payload []byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resultOffset >= len(payload) {
		s.resultOffset = 0
		return []byte{}
	}

	end := s.resultOffset + MaxChunkSize
	if end > len(payload) {
		end = len(payload)
	}
	chunk := payload[s.resultOffset:end]
	s.resultOffset = end
	return chunk
}
