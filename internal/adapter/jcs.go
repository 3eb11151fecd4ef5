package adapter

import "github.com/gowebpki/jcs"

// JCS canonicalizes JSON documents (RFC 8785) so a transaction payload
// produces the same signing digest on the agent and on every node
//
//go:generate mockgen -source=jcs.go -destination=../mocks/jcs.go -package=mocks -mock_names=JCS=MockJCS
type JCS interface {
	// Transform rewrites data into its canonical form
	Transform(data []byte) ([]byte, error)
}

type realJCS struct{}

// NewJCS returns the gowebpki/jcs canonicalizer
func NewJCS() JCS {
	return realJCS{}
}

func (realJCS) Transform(data []byte) ([]byte, error) {
	return jcs.Transform(data)
}
