package adapter

import (
	"encoding/json"
)

// JSON encodes request bodies, events and receipts
//
//go:generate mockgen -source=json.go -destination=../mocks/json.go -package=mocks -mock_names=JSON=MockJSON
type JSON interface {
	Marshal(v interface{}) ([]byte, error)
	MarshalIndent(v interface{}, prefix, indent string) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

type realJSON struct{}

// NewJSON returns the encoding/json implementation
func NewJSON() JSON {
	return realJSON{}
}

func (realJSON) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (realJSON) MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return json.MarshalIndent(v, prefix, indent)
}

func (realJSON) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
