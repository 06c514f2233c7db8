package device

import (
	"encoding/xml"
	"fmt"

	"github.com/netmon-tools/check-srx-session/internal/model"
)

// Reply is the decoded rpc-reply of a get-flow-session-information
// call. On a chassis cluster the session data is wrapped per routing
// engine; on a standalone box flow-session-information sits directly
// under the reply root. Both shapes are handled.
//
// Scalar session fields are pointers so that an absent element can be
// told apart from a present-but-empty one; the extractor turns absence
// into a malformed-session error instead of defaulting it.
type Reply struct {
	MultiRoutingEngineResults struct {
		Items []RoutingEngineItem `xml:"multi-routing-engine-item"`
	} `xml:"multi-routing-engine-results"`
	FlowSessionInformation *FlowSessionInformation `xml:"flow-session-information"`
}

// RoutingEngineItem is one node's slice of the clustered reply.
type RoutingEngineItem struct {
	Name                   string                  `xml:"re-name"`
	FlowSessionInformation *FlowSessionInformation `xml:"flow-session-information"`
}

// FlowSessionInformation holds the repeated flow-session nodes.
type FlowSessionInformation struct {
	Sessions []FlowSession `xml:"flow-session"`
}

// FlowSession is one raw session node as the device reports it.
type FlowSession struct {
	Identifier        *string           `xml:"session-identifier"`
	State             *string           `xml:"session-state"`
	Policy            *string           `xml:"policy"`
	Timeout           *string           `xml:"timeout"`
	StartTime         *string           `xml:"start-time"`
	Duration          *string           `xml:"duration"`
	ConfiguredTimeout *string           `xml:"configured-timeout"`
	Flows             []FlowInformation `xml:"flow-information"`
}

// FlowInformation is one directional wing of a session.
type FlowInformation struct {
	Direction          *string `xml:"direction"`
	SourceAddress      *string `xml:"source-address"`
	DestinationAddress *string `xml:"destination-address"`
	SourcePort         *string `xml:"source-port"`
	DestinationPort    *string `xml:"destination-port"`
	Protocol           *string `xml:"protocol"`
	ByteCount          *string `xml:"byte-cnt"`
}

// ParseReply decodes a raw rpc-reply document.
func ParseReply(raw []byte) (*Reply, error) {
	var reply Reply
	if err := xml.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("failed to decode device reply: %w", err)
	}
	return &reply, nil
}

// Sessions returns every flow-session node in document order, walking
// routing-engine items first (cluster form), then the top-level
// flow-session-information (standalone form).
func (r *Reply) Sessions() []FlowSession {
	var sessions []FlowSession
	for _, item := range r.MultiRoutingEngineResults.Items {
		if item.FlowSessionInformation != nil {
			sessions = append(sessions, item.FlowSessionInformation.Sessions...)
		}
	}
	if r.FlowSessionInformation != nil {
		sessions = append(sessions, r.FlowSessionInformation.Sessions...)
	}
	return sessions
}

// rpcBody is the get-flow-session-information request element; unset
// filter criteria are omitted so the device sees no constraint.
type rpcBody struct {
	XMLName           xml.Name `xml:"get-flow-session-information"`
	SourcePrefix      string   `xml:"source-prefix,omitempty"`
	DestinationPrefix string   `xml:"destination-prefix,omitempty"`
	DestinationPort   string   `xml:"destination-port,omitempty"`
	Protocol          string   `xml:"protocol,omitempty"`
}

// BuildRPC renders the RPC element for the given filter.
func BuildRPC(filter model.FlowFilter) ([]byte, error) {
	body, err := xml.Marshal(rpcBody{
		SourcePrefix:      filter.SourcePrefix,
		DestinationPrefix: filter.DestinationPrefix,
		DestinationPort:   filter.DestinationPort,
		Protocol:          filter.Protocol,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode rpc: %w", err)
	}
	return body, nil
}
