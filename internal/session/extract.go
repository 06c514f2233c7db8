// Package session flattens the firewall's hierarchical flow-session
// reply into the flat record model the check evaluates.
package session

import (
	"errors"
	"fmt"

	"github.com/netmon-tools/check-srx-session/internal/device"
	"github.com/netmon-tools/check-srx-session/internal/model"
)

// ErrMalformed reports a session node missing a required field. One
// corrupt record means the reply itself cannot be trusted, so the
// whole extraction fails rather than skipping the node.
var ErrMalformed = errors.New("malformed session")

// ActiveState is the only session-state retained. On a chassis cluster
// the passive node reports its copies as Backup; those and every other
// non-active state are dropped.
const ActiveState = "Active"

// Extract parses a raw rpc-reply and returns the active sessions in
// the order the device reported them. Pure transformation: same input,
// same output, no side effects.
func Extract(raw []byte) (model.SessionList, error) {
	reply, err := device.ParseReply(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Flatten(reply.Sessions())
}

// Flatten builds one record per raw session node, keeping only the
// active ones. The state check runs after the full record, wings
// included, is assembled.
func Flatten(raw []device.FlowSession) (model.SessionList, error) {
	var list model.SessionList
	for i, fs := range raw {
		rec, err := buildRecord(fs)
		if err != nil {
			return nil, fmt.Errorf("session %d: %w", i, err)
		}
		if rec.State != ActiveState {
			continue
		}
		list = append(list, rec)
	}
	return list, nil
}

func buildRecord(fs device.FlowSession) (*model.SessionRecord, error) {
	rec := &model.SessionRecord{}

	base := []struct {
		name string
		src  *string
		dst  *string
	}{
		{"session-identifier", fs.Identifier, &rec.ID},
		{"session-state", fs.State, &rec.State},
		{"policy", fs.Policy, &rec.Policy},
		{"timeout", fs.Timeout, &rec.Timeout},
		{"start-time", fs.StartTime, &rec.StartTime},
		{"duration", fs.Duration, &rec.Duration},
		{"configured-timeout", fs.ConfiguredTimeout, &rec.ConfiguredTimeout},
	}
	for _, f := range base {
		if f.src == nil {
			return nil, fmt.Errorf("%w: missing %s", ErrMalformed, f.name)
		}
		*f.dst = *f.src
	}

	for _, fi := range fs.Flows {
		direction, wing, err := buildWing(fi)
		if err != nil {
			return nil, err
		}
		// A direction reported twice overwrites its earlier wing
		// wholesale: last write wins.
		switch direction {
		case model.DirectionIn:
			rec.In = wing
		case model.DirectionOut:
			rec.Out = wing
		default:
			return nil, fmt.Errorf("%w: unknown flow direction %q", ErrMalformed, direction)
		}
	}

	return rec, nil
}

func buildWing(fi device.FlowInformation) (string, *model.Wing, error) {
	if fi.Direction == nil {
		return "", nil, fmt.Errorf("%w: missing direction", ErrMalformed)
	}
	wing := &model.Wing{}

	scalars := []struct {
		name string
		src  *string
		dst  *string
	}{
		{"source-address", fi.SourceAddress, &wing.SourceAddress},
		{"destination-address", fi.DestinationAddress, &wing.DestinationAddress},
		{"source-port", fi.SourcePort, &wing.SourcePort},
		{"destination-port", fi.DestinationPort, &wing.DestinationPort},
		{"protocol", fi.Protocol, &wing.Protocol},
		{"byte-cnt", fi.ByteCount, &wing.ByteCount},
	}
	for _, f := range scalars {
		if f.src == nil {
			return "", nil, fmt.Errorf("%w: %s flow missing %s", ErrMalformed, *fi.Direction, f.name)
		}
		*f.dst = *f.src
	}

	return *fi.Direction, wing, nil
}
