package signaling

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

type MessageType string

const (
	// Client -> relay.
	MessageTypeJoinRoom MessageType = "joinRoom"
	MessageTypeSignal   MessageType = "signal"

	// Relay -> clients.
	MessageTypeUserJoined MessageType = "userJoined"
	MessageTypeUserLeft   MessageType = "userLeft"
)

// RoomID is an externally supplied room identifier. Clients send it as a
// JSON string or number; both normalize to the string form, so room 5 and
// room "5" are the same room.
type RoomID string

func (r *RoomID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = RoomID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*r = RoomID(n.String())
	return nil
}

func (r RoomID) String() string { return string(r) }

// inboundMessage is the envelope clients send. Payload is forwarded opaque
// and never parsed beyond JSON well-formedness of the envelope itself.
type inboundMessage struct {
	Type    MessageType     `json:"type"`
	RoomID  RoomID          `json:"roomId"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// parseInbound decodes and shape-checks one client message. Unknown types
// and missing required fields are malformed; the caller logs and drops
// without closing the connection.
func parseInbound(data []byte) (inboundMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	var msg inboundMessage
	if err := dec.Decode(&msg); err != nil {
		return inboundMessage{}, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return inboundMessage{}, fmt.Errorf("unexpected trailing data")
	}

	switch msg.Type {
	case MessageTypeJoinRoom:
		if msg.RoomID == "" {
			return inboundMessage{}, fmt.Errorf("joinRoom message missing roomId")
		}
	case MessageTypeSignal:
		if len(msg.Payload) == 0 {
			return inboundMessage{}, fmt.Errorf("signal message missing payload")
		}
	default:
		return inboundMessage{}, fmt.Errorf("unsupported message type %q", msg.Type)
	}
	return msg, nil
}

// outboundMessage is the envelope the relay broadcasts to room peers.
type outboundMessage struct {
	Type    MessageType     `json:"type"`
	Author  string          `json:"author,omitempty"`
	Sender  string          `json:"sender,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func encodeUserJoined(author string) []byte {
	return mustEncode(outboundMessage{Type: MessageTypeUserJoined, Author: author})
}

func encodeUserLeft(author string) []byte {
	return mustEncode(outboundMessage{Type: MessageTypeUserLeft, Author: author})
}

func encodeSignal(sender string, payload json.RawMessage) []byte {
	return mustEncode(outboundMessage{Type: MessageTypeSignal, Sender: sender, Payload: payload})
}

func mustEncode(msg outboundMessage) []byte {
	// Marshalling cannot fail: the payload is pre-validated JSON and the
	// remaining fields are plain strings.
	data, err := json.Marshal(msg)
	if err != nil {
		panic(err)
	}
	return data
}
