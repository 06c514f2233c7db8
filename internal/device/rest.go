package device

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/netmon-tools/check-srx-session/internal/logger"
	"github.com/netmon-tools/check-srx-session/internal/model"
)

// RESTQuerier issues the flow-session RPC through the Junos REST API
// (the HTTP front end to the same RPC engine NETCONF talks to). Filter
// criteria travel as query parameters.
type RESTQuerier struct {
	client  *resty.Client
	baseURL string
	log     logger.Logger
}

// NewRESTQuerier returns a querier for one device's REST endpoint.
func NewRESTQuerier(host string, port int, user, password string, timeout time.Duration, log logger.Logger) *RESTQuerier {
	client := resty.New().
		SetTimeout(timeout).
		SetBasicAuth(user, password).
		SetHeader("Accept", "application/xml")

	return &RESTQuerier{
		client:  client,
		baseURL: "http://" + net.JoinHostPort(host, strconv.Itoa(port)),
		log:     log,
	}
}

// Query runs get-flow-session-information and returns the raw rpc-reply.
func (q *RESTQuerier) Query(ctx context.Context, filter model.FlowFilter) ([]byte, error) {
	req := q.client.R().SetContext(ctx)
	for name, value := range queryParams(filter) {
		req.SetQueryParam(name, value)
	}

	q.log.WithFields(map[string]any{"url": q.baseURL}).Info("Sending flow-session RPC")

	resp, err := req.Post(q.baseURL + "/rpc/get-flow-session-information")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, q.baseURL, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("%w: %s: device returned HTTP %d", ErrUnavailable, q.baseURL, resp.StatusCode())
	}
	return resp.Body(), nil
}

// queryParams maps the set filter fields onto the RPC's parameter
// names; unset fields are left out entirely.
func queryParams(filter model.FlowFilter) map[string]string {
	params := make(map[string]string, 4)
	if filter.SourcePrefix != "" {
		params["source-prefix"] = filter.SourcePrefix
	}
	if filter.DestinationPrefix != "" {
		params["destination-prefix"] = filter.DestinationPrefix
	}
	if filter.DestinationPort != "" {
		params["destination-port"] = filter.DestinationPort
	}
	if filter.Protocol != "" {
		params["protocol"] = filter.Protocol
	}
	return params
}
