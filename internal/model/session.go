package model

// FlowFilter narrows the device-side session query. An empty field adds
// no constraint; a set field is passed verbatim as an RPC parameter to
// the firewall and is never re-checked locally.
type FlowFilter struct {
	SourcePrefix      string
	DestinationPrefix string
	DestinationPort   string
	Protocol          string
}

// IsZero reports whether no criteria are set.
func (f FlowFilter) IsZero() bool {
	return f == FlowFilter{}
}

// Direction labels the SRX uses for the two wings of a session.
const (
	DirectionIn  = "In"
	DirectionOut = "Out"
)

// Wing holds the six per-direction fields of a session. Values stay
// strings end to end: the tool copies them onto the wire verbatim and
// never does arithmetic on them.
type Wing struct {
	SourceAddress      string
	DestinationAddress string
	SourcePort         string
	DestinationPort    string
	Protocol           string
	ByteCount          string
}

// SessionRecord is one flattened entry of the firewall's session table.
// A wing pointer is nil when the reply carried no flow node for that
// direction.
type SessionRecord struct {
	ID                string
	State             string
	Policy            string
	Timeout           string
	StartTime         string
	Duration          string
	ConfiguredTimeout string

	In  *Wing
	Out *Wing
}

// Field is one name/value pair of a record's external rendering.
type Field struct {
	Name  string
	Value string
}

// Fields returns the record's fields in rendering order: the seven base
// fields first, then the In and Out wings with direction-prefixed names
// such as "In:byte-count". The prefix is what keeps the two wings'
// source/destination/port/protocol/byte-count fields apart.
func (r *SessionRecord) Fields() []Field {
	fields := []Field{
		{"session-id", r.ID},
		{"session-state", r.State},
		{"policy", r.Policy},
		{"timeout", r.Timeout},
		{"start-time", r.StartTime},
		{"duration", r.Duration},
		{"configured-timeout", r.ConfiguredTimeout},
	}
	fields = appendWingFields(fields, DirectionIn, r.In)
	fields = appendWingFields(fields, DirectionOut, r.Out)
	return fields
}

func appendWingFields(fields []Field, direction string, w *Wing) []Field {
	if w == nil {
		return fields
	}
	return append(fields,
		Field{direction + ":source-address", w.SourceAddress},
		Field{direction + ":destination-address", w.DestinationAddress},
		Field{direction + ":source-port", w.SourcePort},
		Field{direction + ":destination-port", w.DestinationPort},
		Field{direction + ":protocol", w.Protocol},
		Field{direction + ":byte-count", w.ByteCount},
	)
}

// SessionList is the ordered set of retained sessions, in the order the
// device reported them. It is built once per run and handed from the
// extractor to the evaluator; nothing caches or mutates it afterwards.
type SessionList []*SessionRecord
