package unixsock

import (
	"encoding/json"
	"errors"

	"github.com/jzachmann/wifi-commissioning/pkg/rpc"
)

var errMissingParams = errors.New("missing params")

func decodeParams(req rpc.Request, target any) error {
	if len(req.Params) == 0 {
		return errMissingParams
	}
	return json.Unmarshal(req.Params, target)
}
