package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/feral-file/nft-registry/internal/adapter"
	"github.com/feral-file/nft-registry/internal/host"
	"github.com/feral-file/nft-registry/internal/logger"
)

// ErrTxnDone is returned when a finished transaction is used
var ErrTxnDone = errors.New("transaction already committed or rolled back")

// Config holds the redis backend settings
type Config struct {
	// Namespace prefixes every redis key written by the backend
	Namespace string
}

// Backend is a host storage backend on redis. Values live in plain string
// keys and a sorted set of members with equal scores indexes the key space,
// so prefix scans are lexical range queries.
type Backend struct {
	client    adapter.RedisClient
	namespace string
}

// NewBackend creates a redis backend and checks connectivity
func NewBackend(ctx context.Context, cfg Config, client adapter.RedisClient) (*Backend, error) {
	if cfg.Namespace == "" {
		cfg.Namespace = "nft-registry"
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.InfoCtx(ctx, "Redis backend initialized", zap.String("namespace", cfg.Namespace))

	return &Backend{
		client:    client,
		namespace: cfg.Namespace,
	}, nil
}

func (b *Backend) valueKey(key string) string {
	return b.namespace + ":v:" + key
}

func (b *Backend) indexKey() string {
	return b.namespace + ":keys"
}

// Read returns the value stored at key
func (b *Backend) Read(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := b.client.Get(ctx, b.valueKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read key: %w", err)
	}
	return v, true, nil
}

// Scan returns entries under prefix after the given key in byte order
func (b *Backend) Scan(ctx context.Context, prefix string, after string, limit int) ([]host.Entry, error) {
	rng := &goredis.ZRangeBy{
		Min: "[" + prefix,
		Max: "[" + prefix + "\xff",
	}
	if prefix == "" {
		rng.Min = "-"
		rng.Max = "+"
	}
	if after != "" && after >= prefix {
		rng.Min = "(" + after
	}
	if limit > 0 {
		rng.Count = int64(limit)
	}

	keys, err := b.client.ZRangeByLex(ctx, b.indexKey(), rng).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to scan prefix %s: %w", prefix, err)
	}
	if len(keys) == 0 {
		return []host.Entry{}, nil
	}

	valueKeys := make([]string, len(keys))
	for i, k := range keys {
		valueKeys[i] = b.valueKey(k)
	}
	values, err := b.client.MGet(ctx, valueKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read scanned values: %w", err)
	}

	entries := make([]host.Entry, 0, len(keys))
	for i, k := range keys {
		s, ok := values[i].(string)
		if !ok {
			// Deleted between the range query and the read
			continue
		}
		entries = append(entries, host.Entry{Key: k, Value: []byte(s)})
	}
	return entries, nil
}

// Begin opens a transaction buffering writes until Commit
func (b *Backend) Begin(_ context.Context) (host.Txn, error) {
	return &txn{Overlay: host.NewOverlay(b), backend: b}, nil
}

// Close closes the redis connection
func (b *Backend) Close() error {
	return b.client.Close()
}

// apply writes a change set in one MULTI/EXEC block
func (b *Backend) apply(ctx context.Context, puts []host.Entry, deletes []string) error {
	if len(puts) == 0 && len(deletes) == 0 {
		return nil
	}

	_, err := b.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, k := range deletes {
			pipe.Del(ctx, b.valueKey(k))
			pipe.ZRem(ctx, b.indexKey(), k)
		}
		for _, e := range puts {
			pipe.Set(ctx, b.valueKey(e.Key), e.Value, 0)
			pipe.ZAdd(ctx, b.indexKey(), goredis.Z{Score: 0, Member: e.Key})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to commit changes: %w", err)
	}
	return nil
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

func (t *txn) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxnDone
	}
	t.done = true

	puts, deletes := t.Changes()
	return t.backend.apply(ctx, puts, deletes)
}

func (t *txn) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.Reset()
	return nil
}
