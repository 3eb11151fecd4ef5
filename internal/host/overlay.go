package host

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Overlay buffers writes and deletes on top of a Reader. Reads see the
// buffered state first. Backends use it to implement Txn.
type Overlay struct {
	base Reader

	mu      sync.RWMutex
	puts    map[string][]byte
	deletes map[string]struct{}
}

// NewOverlay creates an overlay over base
func NewOverlay(base Reader) *Overlay {
	return &Overlay{
		base:    base,
		puts:    make(map[string][]byte),
		deletes: make(map[string]struct{}),
	}
}

// Read returns the buffered value of key, falling back to the base reader
func (o *Overlay) Read(ctx context.Context, key string) ([]byte, bool, error) {
	o.mu.RLock()
	if v, ok := o.puts[key]; ok {
		o.mu.RUnlock()
		return append([]byte{}, v...), true, nil
	}
	if _, ok := o.deletes[key]; ok {
		o.mu.RUnlock()
		return nil, false, nil
	}
	o.mu.RUnlock()

	return o.base.Read(ctx, key)
}

// Scan merges buffered writes into a scan of the base reader
func (o *Overlay) Scan(ctx context.Context, prefix string, after string, limit int) ([]Entry, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	// Ask the base for enough entries to survive the buffered deletes
	baseLimit := limit
	if limit > 0 {
		baseLimit = limit + len(o.deletes)
	}

	baseEntries, err := o.base.Scan(ctx, prefix, after, baseLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to scan base storage: %w", err)
	}

	merged := make(map[string][]byte, len(baseEntries)+len(o.puts))
	for _, e := range baseEntries {
		if _, deleted := o.deletes[e.Key]; deleted {
			continue
		}
		merged[e.Key] = e.Value
	}

	// Buffered puts beyond the last base entry are only valid if the base was exhausted
	var bound string
	truncated := limit > 0 && len(baseEntries) == baseLimit
	if truncated {
		bound = baseEntries[len(baseEntries)-1].Key
	}

	for k, v := range o.puts {
		if !strings.HasPrefix(k, prefix) || k <= after {
			continue
		}
		if truncated && k > bound {
			continue
		}
		merged[k] = v
	}

	entries := make([]Entry, 0, len(merged))
	for k, v := range merged {
		entries = append(entries, Entry{Key: k, Value: append([]byte{}, v...)})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}

// Write buffers a put
func (o *Overlay) Write(_ context.Context, key string, value []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.deletes, key)
	o.puts[key] = append([]byte{}, value...)
	return nil
}

// Delete buffers a delete
func (o *Overlay) Delete(_ context.Context, key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.puts, key)
	o.deletes[key] = struct{}{}
	return nil
}

// Changes returns the buffered puts and deleted keys, both sorted by key
func (o *Overlay) Changes() (puts []Entry, deletes []string) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	puts = make([]Entry, 0, len(o.puts))
	for k, v := range o.puts {
		puts = append(puts, Entry{Key: k, Value: append([]byte{}, v...)})
	}
	sort.Slice(puts, func(i, j int) bool {
		return puts[i].Key < puts[j].Key
	})

	deletes = make([]string, 0, len(o.deletes))
	for k := range o.deletes {
		deletes = append(deletes, k)
	}
	sort.Strings(deletes)

	return puts, deletes
}

// Reset discards all buffered changes
func (o *Overlay) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.puts = make(map[string][]byte)
	o.deletes = make(map[string]struct{})
}
