package unixsock

import (
	"context"
	"errors"

	"github.com/jzachmann/wifi-commissioning/pkg/commissioning"
	"github.com/jzachmann/wifi-commissioning/pkg/connect"
	"github.com/jzachmann/wifi-commissioning/pkg/rpc"
	"github.com/jzachmann/wifi-commissioning/pkg/scan"
	"github.com/jzachmann/wifi-commissioning/pkg/wifi"
)

// handler dispatches JSON-RPC requests to the commissioning facade.
// Grounded on original_source/src/transport/unix_socket/handler.rs, but
// implements connect/disconnect/get_status rather than leaving them as
// stubs — the Unix transport is not gated by the authorization token
// (spec §6: this transport relies on filesystem permissions), so every
// method is dispatched unconditionally.
type handler struct {
	svc *commissioning.Service
}

func newHandler(svc *commissioning.Service) *handler {
	return &handler{svc: svc}
}

func (h *handler) handle(ctx context.Context, req rpc.Request) rpc.Response {
	id := rpc.RequestID{}
	if req.ID != nil {
		id = *req.ID
	}

	switch req.Method {
	case rpc.MethodScan:
		return h.handleScan(ctx, id)
	case rpc.MethodGetScanResults:
		return h.handleGetScanResults(id)
	case rpc.MethodConnect:
		return h.handleConnect(ctx, req, id)
	case rpc.MethodDisconnect:
		return h.handleDisconnect(ctx, id)
	case rpc.MethodGetStatus:
		return h.handleGetStatus(id)
	default:
		return rpc.Failure(rpc.MethodNotFound(), id)
	}
}

func (h *handler) handleScan(ctx context.Context, id rpc.RequestID) rpc.Response {
	if err := h.svc.StartScan(ctx); err != nil {
		if errors.Is(err, scan.ErrOperationInProgress) {
			return rpc.Failure(rpc.ScanInProgress(), id)
		}
		return rpc.Failure(rpc.BackendError(err.Error()), id)
	}
	return rpc.Success(rpc.NewScanStartedResponse(h.svc.ScanState()), id)
}

func (h *handler) handleGetScanResults(id rpc.RequestID) rpc.Response {
	networks, err := h.svc.ScanResults()
	if err != nil {
		return rpc.Failure(rpc.InvalidState(err.Error()), id)
	}
	return rpc.Success(rpc.NewScanResultsResponse(networks), id)
}

func (h *handler) handleConnect(ctx context.Context, req rpc.Request, id rpc.RequestID) rpc.Response {
	var params rpc.ConnectParams
	if err := decodeParams(req, &params); err != nil {
		return rpc.Failure(rpc.InvalidParams(err.Error()), id)
	}
	psk, err := params.DecodePSK()
	if err != nil {
		return rpc.Failure(rpc.InvalidParams(err.Error()), id)
	}

	if err := h.svc.ConnectTo(ctx, params.SSID, psk); err != nil {
		if errors.Is(err, connect.ErrOperationInProgress) {
			return rpc.Failure(rpc.InvalidState(err.Error()), id)
		}
		return rpc.Failure(rpc.BackendError(err.Error()), id)
	}
	return rpc.Success(rpc.NewConnectResponse(h.svc.ConnectionStatus().State), id)
}

func (h *handler) handleDisconnect(ctx context.Context, id rpc.RequestID) rpc.Response {
	if err := h.svc.Disconnect(ctx); err != nil {
		var wifiErr *wifi.Error
		if errors.As(err, &wifiErr) {
			return rpc.Failure(rpc.BackendError(err.Error()), id)
		}
		return rpc.Failure(rpc.InternalError(err.Error()), id)
	}
	return rpc.Success(rpc.NewDisconnectResponse(), id)
}

func (h *handler) handleGetStatus(id rpc.RequestID) rpc.Response {
	return rpc.Success(rpc.NewStatusResponse(h.svc.ConnectionStatus()), id)
}
