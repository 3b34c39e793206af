package feed

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// envelopeSchema is the wire contract for feed frames. Strict mode rejects
// frames with missing or mistyped fields instead of best-effort parsing.
const envelopeSchema = `{
  "type": "object",
  "required": ["message_id", "chat_id", "text"],
  "properties": {
    "message_id": {"type": ["string", "integer"]},
    "chat_id": {"type": "integer"},
    "sender": {"type": "string"},
    "text": {"type": "string", "minLength": 1},
    "timestamp": {"type": "integer", "minimum": 0}
  }
}`

type envelope struct {
	MessageID json.Number `json:"message_id"`
	ChatID    int64       `json:"chat_id"`
	Sender    string      `json:"sender"`
	Text      string      `json:"text"`
	Timestamp int64       `json:"timestamp"`
}

// EnvelopeDecoder parses and optionally schema-validates inbound frames.
type EnvelopeDecoder struct {
	strict bool
	schema *jsonschema.Schema
}

func NewEnvelopeDecoder(strict bool) (*EnvelopeDecoder, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("envelope.json", strings.NewReader(envelopeSchema)); err != nil {
		return nil, err
	}
	schema, err := compiler.Compile("envelope.json")
	if err != nil {
		return nil, err
	}
	return &EnvelopeDecoder{strict: strict, schema: schema}, nil
}

func (d *EnvelopeDecoder) Decode(raw []byte) (Message, error) {
	if d.strict {
		var doc interface{}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return Message{}, fmt.Errorf("malformed frame: %w", err)
		}
		if err := d.schema.Validate(doc); err != nil {
			return Message{}, fmt.Errorf("frame failed schema validation: %w", err)
		}
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Message{}, fmt.Errorf("malformed frame: %w", err)
	}
	if env.MessageID.String() == "" || env.Text == "" {
		return Message{}, fmt.Errorf("frame missing message_id or text")
	}
	msg := Message{
		ID:         env.MessageID.String(),
		ChatID:     env.ChatID,
		Sender:     env.Sender,
		Text:       env.Text,
		ReceivedAt: time.Now(),
	}
	if env.Timestamp > 0 {
		msg.ReceivedAt = time.Unix(env.Timestamp, 0)
	}
	return msg, nil
}
