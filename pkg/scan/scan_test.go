package scan

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
	if sm.state != wifi.ScanIdle {
		t.Fatalf("initial state = %v, want Idle", sm.state)
	}

	if err := sm.start(); err != nil {
		t.Fatalf("start() error = %v", err)
	}
	if sm.state != wifi.ScanScanning {
		t.Fatalf("state after start = %v, want Scanning", sm.state)
	}

	if err := sm.start(); err == nil {
		t.Error("start() during Scanning succeeded, want ErrOperationInProgress")
	}

	networks := []wifi.Network{{SSID: "TestNetwork", MAC: "aa:bb:cc:dd:ee:ff", Channel: 6, RSSI: -65}}
	sm.complete(networks)
	if sm.state != wifi.ScanFinished || len(sm.results) != 1 {
		t.Fatalf("state after complete = %+v", sm)
	}

	sm.reset()
	if sm.state != wifi.ScanIdle || sm.results != nil {
		t.Fatalf("state after reset = %+v", sm)
	}
}

func TestStateMachineFailure(t *testing.T) {
	sm := newStateMachine()
	_ = sm.start()
	sm.fail("backend unreachable")

	if sm.state != wifi.ScanError || sm.results != nil {
		t.Fatalf("state after fail = %+v", sm)
	}
}

func TestServiceStartCompletesAsynchronously(t *testing.T) {
	backend := wifi.NewMockBackend()
	backend.SetScanResults([]wifi.Network{{SSID: "TestNetwork", MAC: "aa:bb:cc:dd:ee:ff", Channel: 6, RSSI: -65}})

	svc := New(backend, discardLogger(), nil)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for svc.State() == wifi.ScanScanning && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if svc.State() != wifi.ScanFinished {
		t.Fatalf("State() = %v, want Finished", svc.State())
	}
	results, err := svc.Results()
	if err != nil || len(results) != 1 || results[0].SSID != "TestNetwork" {
		t.Fatalf("Results() = %+v, %v", results, err)
	}
}

func TestServiceStartRejectsConcurrentStart(t *testing.T) {
	backend := wifi.NewMockBackend()
	svc := New(backend, discardLogger(), nil)

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	if err := svc.Start(context.Background()); err != ErrOperationInProgress {
		t.Fatalf("second Start() error = %v, want ErrOperationInProgress", err)
	}
}

func TestServiceResultsBeforeFinishedIsError(t *testing.T) {
	svc := New(wifi.NewMockBackend(), discardLogger(), nil)
	if _, err := svc.Results(); err != ErrNoResults {
		t.Fatalf("Results() error = %v, want ErrNoResults", err)
	}
}

func TestServiceResetDiscardsStaleScan(t *testing.T) {
	backend := wifi.NewMockBackend()
	backend.SetScanFailure(nil) // ensure no stale failure from another test
	svc := New(backend, discardLogger(), nil)

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	svc.Reset()

	time.Sleep(20 * time.Millisecond)
	if svc.State() != wifi.ScanIdle {
		t.Fatalf("State() after Reset+late completion = %v, want Idle", svc.State())
	}
}
