package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Envelope wire layout, a protobuf message with two fields:
//
//	1: op code (varint)
//	2: JSON body (bytes)
const (
	fieldOpCode protowire.Number = 1
	fieldBody   protowire.Number = 2
)

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrUnknownKind    = errors.New("unknown message kind")
)

// EncodeFrame wraps a body in the envelope.
func EncodeFrame(op int64, body []byte) []byte {
	b := make([]byte, 0, len(body)+12)
	b = protowire.AppendTag(b, fieldOpCode, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(op))
	b = protowire.AppendTag(b, fieldBody, protowire.BytesType)
	b = protowire.AppendBytes(b, body)
	return b
}

// DecodeFrame unwraps an envelope. Unknown fields are skipped.
func DecodeFrame(b []byte) (op int64, body []byte, err error) {
	seenOp := false
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return 0, nil, fmt.Errorf("%w: %v", ErrMalformedFrame, protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldOpCode && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return 0, nil, fmt.Errorf("%w: %v", ErrMalformedFrame, protowire.ParseError(m))
			}
			op, seenOp = int64(v), true
			b = b[m:]
		case num == fieldBody && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return 0, nil, fmt.Errorf("%w: %v", ErrMalformedFrame, protowire.ParseError(m))
			}
			body = v
			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return 0, nil, fmt.Errorf("%w: %v", ErrMalformedFrame, protowire.ParseError(m))
			}
			b = b[m:]
		}
	}
	if !seenOp {
		return 0, nil, fmt.Errorf("%w: missing op code", ErrMalformedFrame)
	}
	return op, body, nil
}

// Encode serializes a game message into an envelope.
func Encode(m Message) ([]byte, error) {
	op, ok := OpCode(m.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, m.Kind)
	}
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", m.Kind, err)
	}
	return EncodeFrame(op, body), nil
}

// Decode parses an envelope holding a game message.
func Decode(b []byte) (Message, error) {
	op, body, err := DecodeFrame(b)
	if err != nil {
		return Message{}, err
	}
	return DecodeBody(op, body)
}

// DecodeBody parses the body of a game frame whose op code is already known.
func DecodeBody(op int64, body []byte) (Message, error) {
	if !IsGameOp(op) {
		return Message{}, fmt.Errorf("%w: op %d", ErrUnknownKind, op)
	}
	var m Message
	if err := json.Unmarshal(body, &m); err != nil {
		return Message{}, fmt.Errorf("unmarshal op %d: %w", op, err)
	}
	if want, _ := OpCode(m.Kind); want != op {
		return Message{}, fmt.Errorf("%w: kind %q on op %d", ErrMalformedFrame, m.Kind, op)
	}
	return m, nil
}

// EncodeJSON wraps any JSON-serializable body, used for presence and welcome frames.
func EncodeJSON(op int64, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal op %d: %w", op, err)
	}
	return EncodeFrame(op, body), nil
}
