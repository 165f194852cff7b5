package protocol

import "encoding/json"

// Serializer defines the contract for serializing and deserializing command
// payloads. This allows callers to choose their preferred format (JSON,
// Protobuf, SBE, etc.) while interacting with the matching engine.
type Serializer interface {
	// Marshal serializes a Go struct (e.g. PlaceOrderCommand) into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal deserializes bytes into a Go struct.
	// v must be a pointer to the target struct.
	Unmarshal(data []byte, v any) error
}

// DefaultJSONSerializer is the default Serializer backed by encoding/json.
type DefaultJSONSerializer struct{}

// Marshal implements Serializer.
func (s *DefaultJSONSerializer) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal implements Serializer.
func (s *DefaultJSONSerializer) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
