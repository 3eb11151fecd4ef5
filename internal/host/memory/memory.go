package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/feral-file/nft-registry/internal/host"
)

// ErrTxnDone is returned when using a transaction after Commit or Rollback
var ErrTxnDone = errors.New("transaction already finished")

// Backend is an in-memory host storage backend.
// It serves tests and single-process development nodes.
type Backend struct {
	mu   sync.RWMutex
	data map[string][]byte
	keys []string // sorted
}

// New creates an empty in-memory backend
func New() *Backend {
	return &Backend{data: make(map[string][]byte)}
}

// Read returns the value stored at key
func (b *Backend) Read(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte{}, v...), true, nil
}

// Scan returns entries under prefix sorting after `after`
func (b *Backend) Scan(_ context.Context, prefix string, after string, limit int) ([]host.Entry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	start := prefix
	if after > start {
		start = after
	}
	i := sort.SearchStrings(b.keys, start)

	var entries []host.Entry
	for ; i < len(b.keys); i++ {
		k := b.keys[i]
		if !strings.HasPrefix(k, prefix) {
			break
		}
		if k <= after {
			continue
		}
		entries = append(entries, host.Entry{Key: k, Value: append([]byte{}, b.data[k]...)})
		if limit > 0 && len(entries) == limit {
			break
		}
	}

	return entries, nil
}

// Begin opens a transaction buffered in memory until Commit
func (b *Backend) Begin(_ context.Context) (host.Txn, error) {
	return &txn{Overlay: host.NewOverlay(b), backend: b}, nil
}

// Close is a no-op
func (b *Backend) Close() error {
	return nil
}

// Len returns the number of stored keys
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.keys)
}

// apply writes puts and removes deletes under a single lock
func (b *Backend) apply(puts []host.Entry, deletes []string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, k := range deletes {
		if _, ok := b.data[k]; !ok {
			continue
		}
		delete(b.data, k)
		i := sort.SearchStrings(b.keys, k)
		b.keys = append(b.keys[:i], b.keys[i+1:]...)
	}

	for _, e := range puts {
		if _, ok := b.data[e.Key]; !ok {
			i := sort.SearchStrings(b.keys, e.Key)
			b.keys = append(b.keys, "")
			copy(b.keys[i+1:], b.keys[i:])
			b.keys[i] = e.Key
		}
		b.data[e.Key] = e.Value
	}
}

type txn struct {
	*host.Overlay
	backend *Backend
	done    bool
}

func (t *txn) Read(ctx context.Context, key string) ([]byte, bool, error) {
	if t.done {
		return nil, false, ErrTxnDone
	}
	return t.Overlay.Read(ctx, key)
}

func (t *txn) Write(ctx context.Context, key string, value []byte) error {
	if t.done {
		return ErrTxnDone
	}
	return t.Overlay.Write(ctx, key, value)
}

func (t *txn) Delete(ctx context.Context, key string) error {
	if t.done {
		return ErrTxnDone
	}
	return t.Overlay.Delete(ctx, key)
}

func (t *txn) Scan(ctx context.Context, prefix string, after string, limit int) ([]host.Entry, error) {
	if t.done {
		return nil, ErrTxnDone
	}
	return t.Overlay.Scan(ctx, prefix, after, limit)
}

func (t *txn) Commit(_ context.Context) error {
	if t.done {
		return ErrTxnDone
	}
	t.done = true

	puts, deletes := t.Changes()
	t.backend.apply(puts, deletes)
	return nil
}

func (t *txn) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.Reset()
	return nil
}
