package redis_test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/feral-file/nft-registry/internal/dispatcher"
	"github.com/feral-file/nft-registry/internal/domain"
	"github.com/feral-file/nft-registry/internal/host"
	"github.com/feral-file/nft-registry/internal/ledger"
	"github.com/feral-file/nft-registry/internal/logger"
	"github.com/feral-file/nft-registry/internal/mocks"
	"github.com/feral-file/nft-registry/internal/providers/redis"
	"github.com/feral-file/nft-registry/internal/registry"
	"github.com/feral-file/nft-registry/internal/storage"
	"github.com/feral-file/nft-registry/internal/token"
)

var (
	testClient    *goredis.Client
	testContainer *tcredis.RedisContainer
)

// TestMain starts a redis container unless TEST_REDIS_ADDR points at an external server
func TestMain(m *testing.M) {
	ctx := context.Background()

	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}

	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr != "" {
		testClient = goredis.NewClient(&goredis.Options{Addr: addr})
		fmt.Printf("Using external redis: %s\n", addr)
	} else {
		var err error
		testContainer, err = tcredis.Run(ctx, "redis:7-alpine")
		if err != nil {
			fmt.Printf("Failed to start redis container: %v\n", err)
			os.Exit(1)
		}

		uri, err := testContainer.ConnectionString(ctx)
		if err != nil {
			fmt.Printf("Failed to get connection string: %v\n", err)
			_ = testContainer.Terminate(ctx)
			os.Exit(1)
		}

		opts, err := goredis.ParseURL(uri)
		if err != nil {
			fmt.Printf("Failed to parse redis URL: %v\n", err)
			_ = testContainer.Terminate(ctx)
			os.Exit(1)
		}
		testClient = goredis.NewClient(opts)
	}

	code := m.Run()

	_ = testClient.Close()
	if testContainer != nil {
		if err := testContainer.Terminate(ctx); err != nil {
			fmt.Printf("Failed to terminate redis container: %v\n", err)
		}
	}

	os.Exit(code)
}

// newTestBackend returns a backend in a namespace unique to the test
func newTestBackend(t *testing.T) *redis.Backend {
	if testClient == nil {
		t.Skip("redis not available")
	}

	b, err := redis.NewBackend(context.Background(), redis.Config{Namespace: "test:" + t.Name()}, testClient)
	require.NoError(t, err)
	return b
}

func commit(t *testing.T, b host.Backend, puts map[string]string, deletes ...string) {
	t.Helper()
	ctx := context.Background()

	txn, err := b.Begin(ctx)
	require.NoError(t, err)
	for k, v := range puts {
		require.NoError(t, txn.Write(ctx, k, []byte(v)))
	}
	for _, k := range deletes {
		require.NoError(t, txn.Delete(ctx, k))
	}
	require.NoError(t, txn.Commit(ctx))
}

func TestBackend_ReadWriteDelete(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	commit(t, b, map[string]string{"a": "1", "b": "2"})

	v, ok, err := b.Read(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	commit(t, b, nil, "a")

	_, ok, err = b.Read(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	entries, err := b.Scan(ctx, "", "", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].Key)
}

func TestBackend_Scan(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	commit(t, b, map[string]string{
		"owner_index/A/0x01": "x",
		"owner_index/A/0x02": "y",
		"owner_index/A/0x0a": "z",
		"owner_index/B/0x01": "w",
		"token/0x01":         "t",
	})

	tests := []struct {
		name     string
		prefix   string
		after    string
		limit    int
		expected []string
	}{
		{
			name:     "whole prefix",
			prefix:   "owner_index/A/",
			expected: []string{"owner_index/A/0x01", "owner_index/A/0x02", "owner_index/A/0x0a"},
		},
		{
			name:     "after cursor",
			prefix:   "owner_index/A/",
			after:    "owner_index/A/0x01",
			expected: []string{"owner_index/A/0x02", "owner_index/A/0x0a"},
		},
		{
			name:     "limit",
			prefix:   "owner_index/",
			limit:    2,
			expected: []string{"owner_index/A/0x01", "owner_index/A/0x02"},
		},
		{
			name:     "no match",
			prefix:   "missing/",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := b.Scan(ctx, tt.prefix, tt.after, tt.limit)
			require.NoError(t, err)

			keys := make([]string, len(entries))
			for i, e := range entries {
				keys[i] = e.Key
			}
			assert.Equal(t, tt.expected, keys)
		})
	}
}

func TestBackend_Rollback(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	txn, err := b.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, txn.Write(ctx, "k", []byte("v")))
	require.NoError(t, txn.Rollback(ctx))
	assert.ErrorIs(t, txn.Commit(ctx), redis.ErrTxnDone)

	_, ok, err := b.Read(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBackend_Registry(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	engine := registry.NewEngine(registry.Config{Permissionless: true})
	alice := domain.Address("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")

	txn, err := b.Begin(ctx)
	require.NoError(t, err)
	ev, err := engine.Mint(ctx, host.Env{BlockHeight: 1, TxID: "tx-1", Caller: alice, Store: txn}, registry.MintArgs{
		Owner:    alice,
		Metadata: token.Metadata{"name": token.Text("piece")},
	})
	require.NoError(t, err)
	require.NoError(t, txn.Commit(ctx))

	ids, err := storage.NewReader(b).OwnedIDs(ctx, alice, "", 0)
	require.NoError(t, err)
	assert.Equal(t, []domain.TokenID{ev.TokenID}, ids)
}

func TestBackend_Receipts(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	missing, err := b.GetReceipt(ctx, "0xabc")
	require.NoError(t, err)
	assert.Nil(t, missing)

	applied := ledger.Receipt{
		TxID:        "0xabc",
		Status:      ledger.StatusApplied,
		BlockHeight: 3,
		Method:      dispatcher.MethodBurn,
		Result:      &dispatcher.Result{OK: true},
	}
	require.NoError(t, b.SaveReceipts(ctx, []ledger.Receipt{applied}))

	// A second save of the same transaction keeps the first receipt
	overwrite := applied
	overwrite.Status = ledger.StatusRejected
	require.NoError(t, b.SaveReceipts(ctx, []ledger.Receipt{overwrite}))

	got, err := b.GetReceipt(ctx, "0xabc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ledger.StatusApplied, got.Status)
	assert.Equal(t, uint64(3), got.BlockHeight)
	assert.True(t, got.Result.OK)
}

func TestNewBackend_PingFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockRedisClient(ctrl)
	cmd := goredis.NewStatusCmd(context.Background())
	cmd.SetErr(errors.New("connection refused"))
	client.EXPECT().Ping(gomock.Any()).Return(cmd)

	_, err := redis.NewBackend(context.Background(), redis.Config{}, client)
	assert.ErrorContains(t, err, "failed to ping redis")
}

func TestBackend_ReadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockRedisClient(ctrl)
	client.EXPECT().Ping(gomock.Any()).Return(goredis.NewStatusCmd(context.Background()))

	getCmd := goredis.NewStringCmd(context.Background())
	getCmd.SetErr(errors.New("timeout"))
	client.EXPECT().Get(gomock.Any(), "ns:v:token/0x01").Return(getCmd)

	missing := goredis.NewStringCmd(context.Background())
	missing.SetErr(goredis.Nil)
	client.EXPECT().Get(gomock.Any(), "ns:v:token/0x02").Return(missing)

	b, err := redis.NewBackend(context.Background(), redis.Config{Namespace: "ns"}, client)
	require.NoError(t, err)

	_, _, err = b.Read(context.Background(), "token/0x01")
	assert.ErrorContains(t, err, "failed to read key")

	_, ok, err := b.Read(context.Background(), "token/0x02")
	require.NoError(t, err)
	assert.False(t, ok)
}
