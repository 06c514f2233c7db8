// Package check turns a session list into a monitoring verdict and
// renders the two supported outputs.
package check

import (
	"fmt"
	"io"

	"github.com/netmon-tools/check-srx-session/internal/model"
)

// Nagios plugin exit codes.
const (
	ExitOK       = 0
	ExitCritical = 2
	ExitUnknown  = 3
)

// Status is the monitoring outcome of one run.
type Status int

const (
	StatusOK Status = iota
	StatusCritical
)

// Verdict carries the status plus the perfdata values copied verbatim
// from the selected session.
type Verdict struct {
	Status            Status
	SessionID         string
	BytesIn           string
	BytesOut          string
	ConfiguredTimeout string
	Timeout           string
}

// Evaluate picks the first session of the list as received; it never
// re-filters or re-sorts. An empty list is the CRITICAL outcome.
func Evaluate(list model.SessionList) Verdict {
	if len(list) == 0 {
		return Verdict{Status: StatusCritical}
	}

	first := list[0]
	v := Verdict{
		Status:            StatusOK,
		SessionID:         first.ID,
		ConfiguredTimeout: first.ConfiguredTimeout,
		Timeout:           first.Timeout,
	}
	if first.In != nil {
		v.BytesIn = first.In.ByteCount
	}
	if first.Out != nil {
		v.BytesOut = first.Out.ByteCount
	}
	return v
}

// StatusLine renders the fixed wire grammar the monitoring system
// parses. Field order, key names and the trailing ";;" are part of the
// contract and must not change.
func (v Verdict) StatusLine() string {
	if v.Status == StatusCritical {
		return "SESSION CRITICAL"
	}
	return fmt.Sprintf("SESSION OK - Session ID %s | bytes_in=%s;bytes_out=%s;configured_timeout=%s;timeout=%s;;",
		v.SessionID, v.BytesIn, v.BytesOut, v.ConfiguredTimeout, v.Timeout)
}

// ExitCode maps the verdict onto the plugin exit contract.
func (v Verdict) ExitCode() int {
	if v.Status == StatusCritical {
		return ExitCritical
	}
	return ExitOK
}

// WriteListing dumps every record's fields, indented, in list order.
// No verdict logic; this is the human-readable path.
func WriteListing(w io.Writer, list model.SessionList) error {
	for _, rec := range list {
		if _, err := fmt.Fprintf(w, "session %s:\n", rec.ID); err != nil {
			return err
		}
		for _, f := range rec.Fields() {
			if _, err := fmt.Fprintf(w, "    %s: %s\n", f.Name, f.Value); err != nil {
				return err
			}
		}
	}
	return nil
}
