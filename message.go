package wsbridge

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message is one received payload. Text always holds the raw frame;
// Value holds the decoded form when the frame parses as JSON and stays
// nil otherwise. A frame that fails to decode is not an error.
type Message struct {
	Text       string    // Raw frame text
	Value      any       // Decoded JSON value, nil for plain text
	ReceivedAt time.Time // Local timestamp when the frame arrived
}

// IsStructured reports whether the payload decoded as JSON.
func (m *Message) IsStructured() bool {
	return m != nil && m.Value != nil
}

// decodeMessage builds a Message from a raw frame: JSON decode attempt,
// raw text fallback.
func decodeMessage(data []byte, receivedAt time.Time) Message {
	msg := Message{
		Text:       string(data),
		ReceivedAt: receivedAt,
	}

	var v any
	if err := json.Unmarshal(data, &v); err == nil {
		msg.Value = v
	}
	return msg
}

// encodePayload turns an outbound payload into a text frame. Strings and
// raw bytes pass through verbatim; everything else (maps, slices,
// structs) is JSON-encoded.
func encodePayload(payload any) ([]byte, error) {
	switch p := payload.(type) {
	case string:
		return []byte(p), nil
	case []byte:
		return p, nil
	default:
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		return data, nil
	}
}
