package host

import (
	"context"
	"time"

	"github.com/feral-file/nft-registry/internal/domain"
)

// Entry is a key-value pair returned by a prefix scan
type Entry struct {
	Key   string
	Value []byte
}

// Reader is the read half of the host storage API
//
//go:generate mockgen -source=host.go -destination=../mocks/host.go -package=mocks -mock_names=Reader=MockReader,Storage=MockStorage,Txn=MockTxn,Backend=MockBackend
type Reader interface {
	// Read returns the value stored at key and whether it exists
	Read(ctx context.Context, key string) ([]byte, bool, error)

	// Scan returns entries whose key starts with prefix and sorts strictly
	// after the key `after`, in ascending byte order. A limit <= 0 means no limit.
	Scan(ctx context.Context, prefix string, after string, limit int) ([]Entry, error)
}

// Storage is the host storage API available to code running inside a transaction
type Storage interface {
	Reader

	// Write stores value at key
	Write(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Txn is a storage transaction. Writes are visible to reads on the same
// transaction and land atomically on Commit. Rollback discards them.
type Txn interface {
	Storage

	// Commit applies all staged writes atomically
	Commit(ctx context.Context) error

	// Rollback discards all staged writes
	Rollback(ctx context.Context) error
}

// Backend is a persistent key-value store able to open transactions
type Backend interface {
	Reader

	// Begin opens a new transaction
	Begin(ctx context.Context) (Txn, error)

	// Close releases the backend resources
	Close() error
}

// Env is the host-supplied context for a single entry point call.
// Caller is the authenticated signer of the transaction and is never taken
// from the call payload.
type Env struct {
	ChainID     string
	BlockHeight uint64
	BlockTime   time.Time
	TxID        string
	Caller      domain.Address
	Store       Storage
}
