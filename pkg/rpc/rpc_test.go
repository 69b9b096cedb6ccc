package rpc

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/jzachmann/wifi-commissioning/pkg/wifi"
)

func TestRequestIDRoundTripNumber(t *testing.T) {
	id := NewNumberID(1)
	data, err := json.Marshal(id)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != "1" {
		t.Fatalf("Marshal() = %s, want 1", data)
	}

	var got RequestID
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got != id {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, id)
	}
}

func TestRequestIDRoundTripString(t *testing.T) {
	id := NewStringID("abc-123")
	data, err := json.Marshal(id)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `"abc-123"` {
		t.Fatalf("Marshal() = %s, want \"abc-123\"", data)
	}

	var got RequestID
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got != id {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, id)
	}
}

func TestRequestScanSerialization(t *testing.T) {
	req := Request{JSONRPC: Version, Method: MethodScan, ID: idPtr(NewNumberID(1))}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"method":"scan"`) {
		t.Errorf("Marshal() = %s, missing method field", data)
	}
	if strings.Contains(string(data), `"params"`) {
		t.Errorf("Marshal() = %s, unexpected params field for a no-param method", data)
	}
}

func TestRequestConnectParamsRoundTrip(t *testing.T) {
	raw := `{"jsonrpc":"2.0","method":"connect","params":{"ssid":"MyNetwork","psk":"` +
		strings.Repeat("a", 64) + `"},"id":1}`

	var req Request
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if req.Method != MethodConnect {
		t.Fatalf("Method = %q, want connect", req.Method)
	}

	var params ConnectParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		t.Fatalf("Unmarshal(params) error = %v", err)
	}
	if params.SSID != "MyNetwork" {
		t.Errorf("SSID = %q, want MyNetwork", params.SSID)
	}
	if _, err := params.DecodePSK(); err != nil {
		t.Errorf("DecodePSK() error = %v", err)
	}
}

func TestResponseSuccessOmitsError(t *testing.T) {
	resp := Success(NewScanStartedResponse(wifi.ScanScanning), NewNumberID(1))
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"result"`) || strings.Contains(s, `"error"`) {
		t.Errorf("Marshal() = %s, want result present and error absent", s)
	}
}

func TestResponseFailureOmitsResult(t *testing.T) {
	resp := Failure(ScanInProgress(), NewNumberID(1))
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"code":-32001`) || strings.Contains(s, `"result"`) {
		t.Errorf("Marshal() = %s, want error present and result absent", s)
	}
}

func TestStatusResponseFlattensConnectionFields(t *testing.T) {
	ssid := "MyNetwork"
	ip := "192.168.1.100"
	resp := NewStatusResponse(wifi.Status{State: wifi.ConnConnected, SSID: &ssid, IPAddress: &ip})

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(data)
	for _, want := range []string{`"status":"ok"`, `"state":"connected"`, `"ssid":"MyNetwork"`, `"ip_address":"192.168.1.100"`} {
		if !strings.Contains(s, want) {
			t.Errorf("Marshal() = %s, missing %s", s, want)
		}
	}
}

func TestNotificationScanStateChanged(t *testing.T) {
	notif := NewScanStateChanged(wifi.ScanError, "backend unreachable")
	data, err := json.Marshal(notif)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"method":"scan_state_changed"`) {
		t.Errorf("Marshal() = %s, missing method", s)
	}
	if !strings.Contains(s, `"error":"backend unreachable"`) {
		t.Errorf("Marshal() = %s, missing error", s)
	}
	if strings.Contains(s, `"id"`) {
		t.Errorf("Marshal() = %s, notifications must not carry an id", s)
	}
}

func TestNotificationConnectionStateChangedOmitsUnsetFields(t *testing.T) {
	notif := NewConnectionStateChanged(wifi.Status{State: wifi.ConnConnecting}, "")
	data, err := json.Marshal(notif)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(data)
	if strings.Contains(s, `"ssid"`) || strings.Contains(s, `"ip_address"`) || strings.Contains(s, `"error"`) {
		t.Errorf("Marshal() = %s, expected omitted optional fields", s)
	}
}

func idPtr(id RequestID) *RequestID { return &id }
