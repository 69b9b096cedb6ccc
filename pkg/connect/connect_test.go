package connect

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jzachmann/wifi-commissioning/pkg/wifi"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStateMachineTransitions(t *testing.T) {
	sm := newStateMachine()
	if sm.state != wifi.ConnIdle {
		t.Fatalf("initial state = %v, want Idle", sm.state)
	}

	if err := sm.start("TestNet"); err != nil {
		t.Fatalf("start() error = %v", err)
	}
	if sm.state != wifi.ConnConnecting {
		t.Fatalf("state after start = %v, want Connecting", sm.state)
	}
	if err := sm.start("OtherNet"); err == nil {
		t.Error("start() during Connecting succeeded, want error")
	}

	sm.complete("192.168.1.100")
	if sm.state != wifi.ConnConnected || sm.status().IPAddress == nil || *sm.status().IPAddress != "192.168.1.100" {
		t.Fatalf("state after complete = %+v", sm.status())
	}

	sm.disconnect()
	if sm.state != wifi.ConnIdle || sm.status().SSID != nil {
		t.Fatalf("state after disconnect = %+v", sm.status())
	}
}

func TestStateMachineFailureThenRetry(t *testing.T) {
	sm := newStateMachine()
	_ = sm.start("TestNet")
	sm.fail("connection timeout")

	if sm.state != wifi.ConnFailed || sm.status().IPAddress != nil {
		t.Fatalf("state after fail = %+v", sm.status())
	}

	if err := sm.start("TestNet"); err != nil {
		t.Fatalf("start() after Failed error = %v, want nil (retry allowed)", err)
	}
}

func TestServiceConnectSuccess(t *testing.T) {
	backend := wifi.NewMockBackend()
	svc := New(backend, discardLogger(), nil)

	if err := svc.Connect(context.Background(), "TestNet", [32]byte{}); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if svc.State() != wifi.ConnConnecting {
		t.Fatalf("State() immediately after Connect() = %v, want Connecting", svc.State())
	}

	backend.CompleteConnection("192.168.1.100")

	deadline := time.Now().Add(time.Second)
	for svc.State() != wifi.ConnConnected && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	status := svc.Status()
	if status.State != wifi.ConnConnected || status.SSID == nil || *status.SSID != "TestNet" {
		t.Fatalf("Status() = %+v, want Connected to TestNet", status)
	}
}

func TestServiceConnectPlaceholderIP(t *testing.T) {
	backend := wifi.NewMockBackend()
	svc := New(backend, discardLogger(), nil)

	_ = svc.Connect(context.Background(), "TestNet", [32]byte{})
	backend.CompleteConnection("") // Connected without an IP from the backend

	deadline := time.Now().Add(time.Second)
	for svc.State() != wifi.ConnConnected && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	status := svc.Status()
	if status.IPAddress == nil || *status.IPAddress != placeholderIP {
		t.Fatalf("Status().IPAddress = %v, want placeholder %q", status.IPAddress, placeholderIP)
	}
}

func TestServiceConnectRejectsConcurrentAttempt(t *testing.T) {
	backend := wifi.NewMockBackend()
	svc := New(backend, discardLogger(), nil)

	if err := svc.Connect(context.Background(), "TestNet", [32]byte{}); err != nil {
		t.Fatalf("first Connect() error = %v", err)
	}
	if err := svc.Connect(context.Background(), "OtherNet", [32]byte{}); err != ErrOperationInProgress {
		t.Fatalf("second Connect() error = %v, want ErrOperationInProgress", err)
	}
}

func TestServiceDisconnectDiscardsStaleConnect(t *testing.T) {
	backend := wifi.NewMockBackend()
	svc := New(backend, discardLogger(), nil)

	_ = svc.Connect(context.Background(), "TestNet", [32]byte{})
	if err := svc.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}

	backend.CompleteConnection("192.168.1.100")
	time.Sleep(50 * time.Millisecond)

	if svc.State() != wifi.ConnIdle {
		t.Fatalf("State() after Disconnect+late completion = %v, want Idle", svc.State())
	}
}
