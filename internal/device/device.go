package device

import (
	"context"
	"errors"

	"github.com/netmon-tools/check-srx-session/internal/model"
)

// Querier runs the flow-session query against the firewall and returns
// the raw rpc-reply document. The filter is applied by the device
// itself; implementations only translate it into RPC parameters.
type Querier interface {
	Query(ctx context.Context, filter model.FlowFilter) ([]byte, error)
}

// ErrUnavailable reports that the device could not be reached or the
// query could not complete (connection refused, auth failure, timeout).
var ErrUnavailable = errors.New("device unavailable")
