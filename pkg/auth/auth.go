// Package auth implements the proof-of-knowledge authorization gate that
// guards the BLE transport's characteristics; the Unix socket transport
// dispatches its methods without consulting it. A caller
// authorizes by presenting SHA3-256(device ID); a match grants a
// time-boxed authorization rather than an identity.
package auth

import (
	"crypto/subtle"
	"sync"
	"time"

	"golang.org/x/crypto/sha3"
)

// Timeout is how long a successful authorization remains valid, grounded
// on original_source/src/core/authorization.rs's AUTHORIZATION_TIMEOUT.
const Timeout = 5 * time.Minute

// InvalidKeyError is returned when the presented key is the wrong length
// or does not match the expected device-id hash.
type InvalidKeyError struct{}

func (InvalidKeyError) Error() string { return "authorization key invalid or wrong length" }

// Authorization guards commissioning operations behind a proof-of-knowledge
// check. It is safe for concurrent use.
type Authorization struct {
	deviceID string

	mu        sync.RWMutex
	expiresAt time.Time // zero value means unauthorized
}

// New builds an Authorization gate bound to the given device ID. The
// device ID is never transmitted; only its SHA3-256 hash is compared
// against what a client presents.
func New(deviceID string) *Authorization {
	return &Authorization{deviceID: deviceID}
}

// Authorize grants authorization for Timeout if key equals
// SHA3-256(deviceID). Comparison is constant-time so hash-guessing over
// the BLE or socket transport cannot be timed.
func (a *Authorization) Authorize(key []byte) error {
	if len(key) != 32 {
		return InvalidKeyError{}
	}

	expected := sha3.Sum256([]byte(a.deviceID))
	if subtle.ConstantTimeCompare(key, expected[:]) != 1 {
		return InvalidKeyError{}
	}

	a.mu.Lock()
	a.expiresAt = time.Now().Add(Timeout)
	a.mu.Unlock()
	return nil
}

// IsAuthorized reports whether a prior Authorize call is still within its
// validity window. Expiry is evaluated lazily here rather than by a
// background timer.
func (a *Authorization) IsAuthorized() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return !a.expiresAt.IsZero() && time.Now().Before(a.expiresAt)
}

// Clear revokes authorization immediately. It does not cascade to scan or
// connect state machines — a caller that wants to abort in-flight work
// does so explicitly through those services.
func (a *Authorization) Clear() {
	a.mu.Lock()
	a.expiresAt = time.Time{}
	a.mu.Unlock()
}
