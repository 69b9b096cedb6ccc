package wifi

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// SupervisorBackend drives wpa_supplicant through its wpa_cli control
// interface. It is the concrete collaborator spec.md treats as external —
// only the Backend contract it must satisfy is specified there — but an
// implementation is included here because the frequency table and scan
// parsing are specified precisely "so tests cover both backends
// identically" (spec §4.1), and a backend gives that shared logic a real
// caller instead of living only behind the mock.
//
// Grounded on original_source/src/backend/wpactrl_backend.rs: ADD_NETWORK
// / SET_NETWORK / ENABLE_NETWORK / SELECT_NETWORK sequencing for connect,
// STATUS parsing for status and the connected SSID, SCAN + sleep +
// SCAN_RESULTS for scan.
type SupervisorBackend struct {
	iface      string
	scanDelay  time.Duration
	runCommand func(ctx context.Context, args ...string) (string, error)
}

// NewSupervisorBackend builds a backend bound to the given network
// interface (e.g. "wlan0"), shelling out to wpa_cli.
func NewSupervisorBackend(iface string) *SupervisorBackend {
	return &SupervisorBackend{
		iface:     iface,
		scanDelay: 3 * time.Second,
		runCommand: func(ctx context.Context, args ...string) (string, error) {
			out, err := exec.CommandContext(ctx, "wpa_cli", args...).Output()
			return string(out), err
		},
	}
}

func (b *SupervisorBackend) cli(ctx context.Context, args ...string) (string, error) {
	full := append([]string{"-i", b.iface}, args...)
	return b.runCommand(ctx, full...)
}

func (b *SupervisorBackend) Scan(ctx context.Context) ([]Network, error) {
	if _, err := b.cli(ctx, "SCAN"); err != nil {
		return nil, NewError(InterfaceError, err.Error())
	}

	select {
	case <-time.After(b.scanDelay):
	case <-ctx.Done():
		return nil, NewError(ScanFailed, ctx.Err().Error())
	}

	out, err := b.cli(ctx, "SCAN_RESULTS")
	if err != nil {
		return nil, NewError(ScanFailed, err.Error())
	}
	return ParseScanResults(out), nil
}

func (b *SupervisorBackend) Connect(ctx context.Context, ssid string, psk [32]byte) error {
	id, err := b.cli(ctx, "ADD_NETWORK")
	if err != nil {
		return NewError(WpaSupplicantError, err.Error())
	}
	id = strings.TrimSpace(id)

	steps := [][]string{
		{"SET_NETWORK", id, "ssid", fmt.Sprintf("%q", ssid)},
		{"SET_NETWORK", id, "psk", EncodePSK(psk)},
		{"ENABLE_NETWORK", id},
		{"SELECT_NETWORK", id},
	}
	for _, step := range steps {
		if _, err := b.cli(ctx, step...); err != nil {
			return NewError(WpaSupplicantError, err.Error())
		}
	}
	return nil
}

func (b *SupervisorBackend) Disconnect(ctx context.Context) error {
	if _, err := b.cli(ctx, "DISCONNECT"); err != nil {
		return NewError(WpaSupplicantError, err.Error())
	}
	return nil
}

func (b *SupervisorBackend) Status(ctx context.Context) (Status, error) {
	out, err := b.cli(ctx, "STATUS")
	if err != nil {
		return Status{}, NewError(WpaSupplicantError, err.Error())
	}
	return parseStatus(out), nil
}

// parseStatus maps wpa_cli `STATUS` output to a Status snapshot per the
// supervisor-state table in spec §4.1.
func parseStatus(output string) Status {
	fields := map[string]string{}
	for _, line := range strings.Split(output, "\n") {
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[k] = strings.TrimSpace(v)
	}

	st := Status{State: mapSupervisorState(fields["wpa_state"])}
	if ssid, ok := fields["ssid"]; ok && ssid != "" {
		st.SSID = &ssid
	}
	if ip, ok := fields["ip_address"]; ok && ip != "" && st.State == ConnConnected {
		st.IPAddress = &ip
	}
	return st
}

func mapSupervisorState(s string) ConnectionState {
	switch s {
	case "COMPLETED":
		return ConnConnected
	case "ASSOCIATING", "AUTHENTICATING", "4WAY_HANDSHAKE", "GROUP_HANDSHAKE":
		return ConnConnecting
	default: // DISCONNECTED, INACTIVE, SCANNING, anything else
		return ConnIdle
	}
}
