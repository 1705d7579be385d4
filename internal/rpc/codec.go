// Package rpc defines the CheckoutService Connect surface: procedure names,
// wire messages, a JSON codec for plain Go structs, and typed handler and
// client constructors.
package rpc

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// codecName replaces Connect's default protojson codec.
const codecName = "json"

type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

func (jsonCodec) Name() string { return codecName }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("invalid json message: %w", err)
	}
	return nil
}

// WithJSON configures a handler or client to speak the JSON codec.
func WithJSON() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
