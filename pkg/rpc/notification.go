package rpc

import "github.com/jzachmann/wifi-commissioning/pkg/wifi"

// Notification is a server-to-client JSON-RPC 2.0 notification: a request
// envelope with no ID (spec §6). Method/Params mirror Request's shape.
type Notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

// ScanStateChangedParams is the payload of a "scan_state_changed"
// notification.
type ScanStateChangedParams struct {
	State wifi.ScanState `json:"state"`
	Error string         `json:"error,omitempty"`
}

// ConnectionStateChangedParams is the payload of a
// "connection_state_changed" notification.
type ConnectionStateChangedParams struct {
	State     wifi.ConnectionState `json:"state"`
	SSID      string               `json:"ssid,omitempty"`
	IPAddress string               `json:"ip_address,omitempty"`
	Error     string               `json:"error,omitempty"`
}

// NewScanStateChanged builds a scan_state_changed notification. errMsg is
// empty unless state is wifi.ScanError.
func NewScanStateChanged(state wifi.ScanState, errMsg string) Notification {
	params := ScanStateChangedParams{State: state}
	if state == wifi.ScanError {
		params.Error = errMsg
	}
	return Notification{JSONRPC: Version, Method: MethodScanStateChanged, Params: params}
}

// NewConnectionStateChanged builds a connection_state_changed
// notification from a full status snapshot plus an optional failure
// reason (populated only when state is wifi.ConnFailed).
func NewConnectionStateChanged(status wifi.Status, errMsg string) Notification {
	params := ConnectionStateChangedParams{State: status.State}
	if status.SSID != nil {
		params.SSID = *status.SSID
	}
	if status.IPAddress != nil {
		params.IPAddress = *status.IPAddress
	}
	if status.State == wifi.ConnFailed {
		params.Error = errMsg
	}
	return Notification{JSONRPC: Version, Method: MethodConnectionStateChanged, Params: params}
}
