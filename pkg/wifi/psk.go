package wifi

import (
	"crypto/sha1" //nolint:gosec // required by the PBKDF2-HMAC-SHA1 formula in the glossary, not used for anything security-sensitive on its own
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// EncodePSK renders a 32-byte PSK as the 64-character lowercase hex string
// carried on the JSON-RPC wire.
func EncodePSK(psk [32]byte) string {
	return hex.EncodeToString(psk[:])
}

// DecodePSK parses a 64-character hex string into a 32-byte PSK. It
// rejects any string that isn't exactly 64 hex characters (spec §8
// property 5).
func DecodePSK(s string) ([32]byte, error) {
	var out [32]byte
	if len(s) != 64 {
		return out, fmt.Errorf("psk must be 64 hex characters, got %d", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("psk must be hex: %w", err)
	}
	copy(out[:], b)
	return out, nil
}

// DerivePSK derives a 32-byte PSK from a human passphrase and the target
// SSID, per the formula in spec.md's GLOSSARY: PBKDF2(HMAC-SHA1,
// passphrase, ssid, 4096 iterations, 256 bits). This is a convenience for
// callers that only have a passphrase; the core boundary itself only ever
// accepts an already-derived 32-byte PSK (spec §3 invariant).
func DerivePSK(ssid, passphrase string) [32]byte {
	var out [32]byte
	derived := pbkdf2.Key([]byte(passphrase), []byte(ssid), 4096, 32, sha1.New)
	copy(out[:], derived)
	return out
}
