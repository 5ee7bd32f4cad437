package event

import (
	"encoding/json"
	"fmt"

	"roomchat/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Envelope is the wire shape shared by every transport.
type Envelope struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode wraps an outbound frame in its envelope.
func Encode(o Outbound) ([]byte, error) {
	env, err := Wrap(o)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Wrap is Encode for transports that marshal the envelope themselves.
func Wrap(o Outbound) (Envelope, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: o.OutboundType(), Data: data}, nil
}

// EncodeInbound is used by clients and tests.
func EncodeInbound(in Inbound) ([]byte, error) {
	env, err := WrapInbound(in)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

func WrapInbound(in Inbound) (Envelope, error) {
	if _, ok := in.(Leave); ok {
		return Envelope{Type: TypeLeave}, nil
	}
	data, err := json.Marshal(in)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: in.InboundType(), Data: data}, nil
}

// Decode parses and validates an inbound frame.
// Malformed payloads are reported as ErrInvalidMessage, unknown tags as ErrUnknownFrame.
func Decode(raw []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidMessage, err)
	}
	return DecodeEnvelope(env)
}

func DecodeEnvelope(env Envelope) (Inbound, error) {
	var in Inbound
	switch env.Type {
	case TypeJoin:
		var j Join
		if err := unmarshalData(env.Data, &j); err != nil {
			return nil, err
		}
		in = j
	case TypeMessage:
		var m PostMessage
		if err := unmarshalData(env.Data, &m); err != nil {
			return nil, err
		}
		in = m
	case TypeImage:
		var i UploadImage
		if err := unmarshalData(env.Data, &i); err != nil {
			return nil, err
		}
		in = i
	case TypeLeave:
		return Leave{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownFrame, env.Type)
	}
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidMessage, err)
	}
	return in, nil
}

// DecodeOutbound is the client side counterpart of Encode.
func DecodeOutbound(raw []byte) (Outbound, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	return UnwrapOutbound(env)
}

func UnwrapOutbound(env Envelope) (Outbound, error) {
	var out Outbound
	var err error
	switch env.Type {
	case TypeStatus:
		var s Status
		err = json.Unmarshal(env.Data, &s)
		out = s
	case TypeMessage:
		var m Message
		err = json.Unmarshal(env.Data, &m)
		out = m
	case TypeImage:
		var i Image
		err = json.Unmarshal(env.Data, &i)
		out = i
	case TypeHistory:
		var h History
		err = json.Unmarshal(env.Data, &h)
		out = h
	case TypeError:
		var e Error
		err = json.Unmarshal(env.Data, &e)
		out = e
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownFrame, env.Type)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func unmarshalData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", errors.ErrInvalidMessage)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidMessage, err)
	}
	return nil
}
