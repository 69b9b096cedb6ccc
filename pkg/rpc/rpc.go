// Package rpc defines the JSON-RPC 2.0 wire types shared by every
// transport: the request/response/notification envelopes, the five
// commissioning methods, and the error code table. Grounded on
// original_source/src/protocol/{jsonrpc.rs,request.rs,response.rs,
// notification.rs}; the envelope shape collapses to plain JSON-RPC 2.0
// once Rust's serde(flatten)/serde(untagged) annotations are read as
// "this struct field set lands at the top level", so it needs no
// equivalent trick in Go beyond RequestID's two possible wire shapes.
package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/jzachmann/wifi-commissioning/pkg/wifi"
)

const Version = "2.0"

// Method names carried in the "method" field of a request.
const (
	MethodScan            = "scan"
	MethodGetScanResults  = "get_scan_results"
	MethodConnect         = "connect"
	MethodDisconnect      = "disconnect"
	MethodGetStatus       = "get_status"
)

// Notification method names.
const (
	MethodScanStateChanged       = "scan_state_changed"
	MethodConnectionStateChanged = "connection_state_changed"
)

// RequestID is either a JSON number or a JSON string, matching the
// `#[serde(untagged)]` RequestId enum in the original protocol. This is
// the one envelope field that genuinely needs custom marshaling in Go.
type RequestID struct {
	num    int64
	str    string
	isStr  bool
	isNull bool
}

// NewNumberID builds a numeric request ID.
func NewNumberID(n int64) RequestID { return RequestID{num: n} }

// NewStringID builds a string request ID.
func NewStringID(s string) RequestID { return RequestID{str: s, isStr: true} }

func (id RequestID) MarshalJSON() ([]byte, error) {
	if id.isNull {
		return []byte("null"), nil
	}
	if id.isStr {
		return json.Marshal(id.str)
	}
	return json.Marshal(id.num)
}

func (id *RequestID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = RequestID{isNull: true}
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*id = RequestID{num: n}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = RequestID{str: s, isStr: true}
		return nil
	}
	return fmt.Errorf("rpc: id must be a number or string, got %s", data)
}

// Request is an incoming JSON-RPC 2.0 request or notification envelope.
// Params is decoded lazily by the dispatcher once Method is known, since
// each method has its own params shape (only Connect has one).
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      *RequestID      `json:"id,omitempty"`
}

// IsNotification reports whether the request carries no ID and therefore
// expects no response (not used by the commissioning methods today, but
// part of the JSON-RPC 2.0 contract the parser must not reject).
func (r Request) IsNotification() bool { return r.ID == nil }

// ConnectParams is the payload of a "connect" request.
type ConnectParams struct {
	SSID string `json:"ssid"`
	PSK  string `json:"psk"`
}

// DecodePSK parses the hex-encoded PSK, per spec §8 property 5.
func (p ConnectParams) DecodePSK() ([32]byte, error) {
	return wifi.DecodePSK(p.PSK)
}

// Response is the outgoing JSON-RPC 2.0 envelope. Result holds one of the
// method-specific response payload structs below; Error is mutually
// exclusive with Result (spec §6 invariant).
type Response struct {
	JSONRPC string     `json:"jsonrpc"`
	Result  any        `json:"result,omitempty"`
	Error   *Error     `json:"error,omitempty"`
	ID      RequestID  `json:"id"`
}

// Success builds a result envelope.
func Success(result any, id RequestID) Response {
	return Response{JSONRPC: Version, Result: result, ID: id}
}

// Failure builds an error envelope.
func Failure(err *Error, id RequestID) Response {
	return Response{JSONRPC: Version, Error: err, ID: id}
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string { return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message) }

// Standard and commissioning-specific JSON-RPC error codes (spec §7).
const (
	CodeParseError     int32 = -32700
	CodeInvalidRequest int32 = -32600
	CodeMethodNotFound int32 = -32601
	CodeInvalidParams  int32 = -32602
	CodeInternalError  int32 = -32603

	CodeScanInProgress int32 = -32001
	CodeInvalidState   int32 = -32002
	CodeBackendError   int32 = -32003
	CodeTimeout        int32 = -32004
)

func ParseError() *Error { return &Error{Code: CodeParseError, Message: "Parse error"} }

func InvalidRequest(message string) *Error {
	return &Error{Code: CodeInvalidRequest, Message: message}
}

func MethodNotFound() *Error {
	return &Error{Code: CodeMethodNotFound, Message: "Method not found"}
}

func InvalidParams(message string) *Error {
	return &Error{Code: CodeInvalidParams, Message: message}
}

func InternalError(message string) *Error {
	return &Error{Code: CodeInternalError, Message: message}
}

func ScanInProgress() *Error {
	return &Error{Code: CodeScanInProgress, Message: "Scan already in progress"}
}

func InvalidState(message string) *Error {
	return &Error{Code: CodeInvalidState, Message: message}
}

func BackendError(message string) *Error {
	return &Error{Code: CodeBackendError, Message: message}
}

func Timeout() *Error { return &Error{Code: CodeTimeout, Message: "Operation timed out"} }

// ScanStartedResponse is the "scan" result payload.
type ScanStartedResponse struct {
	Status string         `json:"status"`
	State  wifi.ScanState `json:"state"`
}

// ScanResultsResponse is the "get_scan_results" result payload.
type ScanResultsResponse struct {
	Status   string         `json:"status"`
	Networks []wifi.Network `json:"networks"`
}

// ConnectResponse is the "connect" result payload.
type ConnectResponse struct {
	Status string               `json:"status"`
	State  wifi.ConnectionState `json:"state"`
}

// DisconnectResponse is the "disconnect" result payload.
type DisconnectResponse struct {
	Status string `json:"status"`
}

// StatusResponse is the "get_status" result payload. The connection
// status fields are repeated at the top level rather than nested, the Go
// equivalent of serde(flatten) given Go has no field-name-colliding
// anonymous embed here (Status the request-status string vs. Status the
// embedded type would collide).
type StatusResponse struct {
	Status    string               `json:"status"`
	State     wifi.ConnectionState `json:"state"`
	SSID      *string              `json:"ssid,omitempty"`
	IPAddress *string              `json:"ip_address,omitempty"`
}

func NewScanStartedResponse(state wifi.ScanState) ScanStartedResponse {
	return ScanStartedResponse{Status: "ok", State: state}
}

func NewScanResultsResponse(networks []wifi.Network) ScanResultsResponse {
	return ScanResultsResponse{Status: "ok", Networks: networks}
}

func NewConnectResponse(state wifi.ConnectionState) ConnectResponse {
	return ConnectResponse{Status: "ok", State: state}
}

func NewDisconnectResponse() DisconnectResponse {
	return DisconnectResponse{Status: "ok"}
}

func NewStatusResponse(status wifi.Status) StatusResponse {
	return StatusResponse{
		Status:    "ok",
		State:     status.State,
		SSID:      status.SSID,
		IPAddress: status.IPAddress,
	}
}
