// ABOUTME: Best-effort payload decoding for inbound stream events.
// ABOUTME: Decodes JSON when possible, passes the raw bytes through when not.

package stream

import "encoding/json"

// Payload is one delivered message: either a decoded JSON value or the raw
// bytes when decoding failed. Decoding is best-effort enrichment: a message
// is never dropped because it failed to parse.
type Payload struct {
	// Type is the event type from the transport, e.g. "text" or "tool_use"
	// for gateway SSE streams. Empty for transports without event types.
	Type string

	// ID is the server-assigned event ID, when present.
	ID string

	// Raw is the wire payload. Always set.
	Raw []byte

	// Value is the decoded JSON value (map[string]any, []any, string,
	// float64, bool, or nil). Only meaningful when Decoded is true.
	Value any

	// Decoded reports whether Value holds a successfully decoded payload.
	Decoded bool
}

// Text returns the payload as a string, preferring the decoded value when it
// is a plain JSON string.
func (p Payload) Text() string {
	if p.Decoded {
		if s, ok := p.Value.(string); ok {
			return s
		}
	}
	return string(p.Raw)
}

// decodePayload converts a wire event into a Payload, attempting JSON
// decoding and falling back to raw passthrough.
func decodePayload(ev Event) Payload {
	p := Payload{
		Type: ev.Type,
		ID:   ev.ID,
		Raw:  ev.Data,
	}

	var v any
	if err := json.Unmarshal(ev.Data, &v); err != nil {
		return p
	}

	p.Value = v
	p.Decoded = true
	return p
}
