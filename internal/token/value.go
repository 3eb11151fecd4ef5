package token

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/feral-file/nft-registry/internal/codec"
	"github.com/feral-file/nft-registry/internal/domain"
)

// CBOR major types used by metadata values
const (
	cborMajorBytes = 2
	cborMajorText  = 3
)

// Value is a metadata value: either a UTF-8 string or raw bytes.
type Value struct {
	data   []byte
	binary bool
}

// Text creates a string metadata value
func Text(s string) Value {
	return Value{data: []byte(s)}
}

// Bytes creates a binary metadata value
func Bytes(b []byte) Value {
	return Value{data: append([]byte{}, b...), binary: true}
}

// IsBinary reports whether the value holds raw bytes
func (v Value) IsBinary() bool {
	return v.binary
}

// String returns the value as a string. Binary values are returned as-is.
func (v Value) String() string {
	return string(v.data)
}

// Raw returns a copy of the underlying bytes
func (v Value) Raw() []byte {
	return append([]byte{}, v.data...)
}

// Len returns the encoded payload size of the value in bytes
func (v Value) Len() int {
	return len(v.data)
}

// Equal reports whether two values have the same type and content
func (v Value) Equal(o Value) bool {
	return v.binary == o.binary && bytes.Equal(v.data, o.data)
}

type binaryValue struct {
	Base64 []byte `json:"base64"`
}

// MarshalJSON renders text values as JSON strings and binary values as {"base64": "..."}
func (v Value) MarshalJSON() ([]byte, error) {
	if v.binary {
		return json.Marshal(binaryValue{Base64: v.data})
	}
	return json.Marshal(string(v.data))
}

// UnmarshalJSON accepts a JSON string or a {"base64": "..."} object
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return domain.NewSchemaError("metadata", "empty value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return domain.NewSchemaError("metadata", "invalid string value: %v", err)
		}
		*v = Text(s)
		return nil
	case '{':
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		var b binaryValue
		if err := dec.Decode(&b); err != nil {
			return domain.NewSchemaError("metadata", "invalid binary value: %v", err)
		}
		*v = Value{data: b.Base64, binary: true}
		return nil
	default:
		return domain.NewSchemaError("metadata", "value must be a string or a base64 object")
	}
}

// MarshalCBOR encodes the value as a CBOR text or byte string
func (v Value) MarshalCBOR() ([]byte, error) {
	if v.binary {
		b := v.data
		if b == nil {
			b = []byte{}
		}
		return codec.Marshal(b)
	}
	return codec.Marshal(string(v.data))
}

// UnmarshalCBOR decodes a CBOR text or byte string
func (v *Value) UnmarshalCBOR(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty metadata value")
	}

	switch data[0] >> 5 {
	case cborMajorBytes:
		var b []byte
		if err := codec.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("failed to decode binary metadata value: %w", err)
		}
		*v = Value{data: b, binary: true}
	case cborMajorText:
		var s string
		if err := codec.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to decode text metadata value: %w", err)
		}
		if !utf8.ValidString(s) {
			return fmt.Errorf("metadata text value is not valid UTF-8")
		}
		*v = Text(s)
	default:
		return fmt.Errorf("unexpected CBOR major type %d for metadata value", data[0]>>5)
	}

	return nil
}

// Metadata maps string keys to metadata values
type Metadata map[string]Value

// UnmarshalJSON decodes a JSON object and rejects duplicate keys, which
// encoding/json would otherwise silently collapse.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return domain.NewSchemaError("metadata", "invalid JSON: %v", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return domain.NewSchemaError("metadata", "must be a JSON object")
	}

	out := make(Metadata)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return domain.NewSchemaError("metadata", "invalid JSON: %v", err)
		}
		key, ok := tok.(string)
		if !ok {
			return domain.NewSchemaError("metadata", "keys must be strings")
		}
		if _, dup := out[key]; dup {
			return domain.NewSchemaError("metadata."+key, "duplicate key")
		}

		var v Value
		if err := dec.Decode(&v); err != nil {
			var schemaErr *domain.SchemaError
			if errors.As(err, &schemaErr) {
				schemaErr.Field = "metadata." + key
				return schemaErr
			}
			return domain.NewSchemaError("metadata."+key, "invalid value: %v", err)
		}
		out[key] = v
	}

	if _, err := dec.Token(); err != nil {
		return domain.NewSchemaError("metadata", "invalid JSON: %v", err)
	}

	*m = out
	return nil
}

// Clone returns a deep copy of the metadata
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = Value{data: append([]byte{}, v.data...), binary: v.binary}
	}
	return out
}

// Size returns the total size of all keys and values in bytes
func (m Metadata) Size() int {
	size := 0
	for k, v := range m {
		size += len(k) + v.Len()
	}
	return size
}
