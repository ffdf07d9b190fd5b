package encoding

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNilTarget is returned when Decode is given a nil destination.
var ErrNilTarget = errors.New("decode target is nil")

// Codec converts values to and from the payload of a text frame.
type Codec interface {
	// ContentType returns the MIME type of encoded payloads
	ContentType() string

	// Encode serializes v
	Encode(v any) ([]byte, error)

	// Decode deserializes data into v, which must be a non-nil pointer
	Decode(data []byte, v any) error
}

// JSONCodec encodes values as JSON documents.
type JSONCodec struct{}

// NewJSON creates a JSON codec.
func NewJSON() *JSONCodec {
	return &JSONCodec{}
}

// ContentType returns the JSON MIME type.
func (c *JSONCodec) ContentType() string {
	return "application/json"
}

// Encode serializes v to JSON.
func (c *JSONCodec) Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return data, nil
}

// Decode parses JSON data into v.
func (c *JSONCodec) Decode(data []byte, v any) error {
	if v == nil {
		return ErrNilTarget
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode JSON: %w", err)
	}
	return nil
}
