// ABOUTME: Tests for best-effort payload decoding.
// ABOUTME: Covers JSON objects, scalars, raw fallback, and Text rendering.

package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload_JSONObject(t *testing.T) {
	ev := Event{
		Type: "text",
		ID:   "evt-42",
		Data: []byte(`{"text":"hello","done":false}`),
	}

	p := decodePayload(ev)
	require.True(t, p.Decoded)
	assert.Equal(t, "text", p.Type)
	assert.Equal(t, "evt-42", p.ID)

	fields, ok := p.Value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hello", fields["text"])
	assert.Equal(t, false, fields["done"])
}

func TestDecodePayload_JSONScalar(t *testing.T) {
	p := decodePayload(Event{Data: []byte(`"plain string"`)})
	require.True(t, p.Decoded)
	assert.Equal(t, "plain string", p.Value)
	assert.Equal(t, "plain string", p.Text())
}

func TestDecodePayload_MalformedFallsBackToRaw(t *testing.T) {
	raw := []byte("event: not json at all")
	p := decodePayload(Event{Data: raw})

	assert.False(t, p.Decoded)
	assert.Nil(t, p.Value)
	assert.Equal(t, raw, p.Raw)
	assert.Equal(t, "event: not json at all", p.Text())
}

func TestDecodePayload_RawAlwaysPreserved(t *testing.T) {
	data := []byte(`{"k":1}`)
	p := decodePayload(Event{Data: data, RetryHint: 3 * time.Second})
	assert.Equal(t, data, p.Raw)
}

func TestPayload_TextPrefersDecodedString(t *testing.T) {
	p := Payload{Raw: []byte(`"quoted"`), Value: "quoted", Decoded: true}
	assert.Equal(t, "quoted", p.Text())

	// Non-string decoded values render the raw bytes.
	p = Payload{Raw: []byte(`{"a":1}`), Value: map[string]any{"a": 1.0}, Decoded: true}
	assert.Equal(t, `{"a":1}`, p.Text())
}
