package protocol

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Decode parses one inbound frame. It returns a *DecodeError when raw is not
// a JSON object with a non-empty string "type", and a *ValidationError when a
// known type is missing required members. Unknown types decode to *Unknown.
func Decode(raw []byte) (Message, error) {
	var head struct {
		Type *Type `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if head.Type == nil || *head.Type == "" {
		return nil, &DecodeError{Err: errMissingType}
	}

	msg := newMessage(*head.Type)
	if msg == nil {
		fields := make(map[string]json.RawMessage)
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, &DecodeError{Err: err}
		}
		return &Unknown{Name: *head.Type, Fields: fields}, nil
	}

	if err := json.Unmarshal(raw, msg); err != nil {
		// Valid JSON, wrong member shapes (e.g. "columns": "x").
		return nil, &ValidationError{Type: msg.Type(), Err: err}
	}

	if err := Validate(msg); err != nil {
		return nil, err
	}

	return msg, nil
}

// Encode serialises msg as a flat JSON object with its "type" member set.
func Encode(msg Message) ([]byte, error) {
	fields := make(map[string]json.RawMessage)

	if u, ok := msg.(*Unknown); ok {
		maps.Copy(fields, u.Fields)
	} else {
		body, err := json.Marshal(msg)
		if err != nil {
			return nil, fmt.Errorf("protocol.Encode: %s: %w", msg.Type(), err)
		}
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, fmt.Errorf("protocol.Encode: %s: %w", msg.Type(), err)
		}
	}

	typ, err := json.Marshal(msg.Type())
	if err != nil {
		return nil, fmt.Errorf("protocol.Encode: %w", err)
	}
	fields["type"] = typ

	out, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("protocol.Encode: %s: %w", msg.Type(), err)
	}
	return out, nil
}
