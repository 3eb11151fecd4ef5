package dispatcher_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/nft-registry/internal/adapter"
	"github.com/feral-file/nft-registry/internal/dispatcher"
	"github.com/feral-file/nft-registry/internal/domain"
	"github.com/feral-file/nft-registry/internal/host"
	"github.com/feral-file/nft-registry/internal/host/memory"
	"github.com/feral-file/nft-registry/internal/logger"
	"github.com/feral-file/nft-registry/internal/metrics"
	"github.com/feral-file/nft-registry/internal/mocks"
	"github.com/feral-file/nft-registry/internal/policy"
	"github.com/feral-file/nft-registry/internal/registry"
	"github.com/feral-file/nft-registry/internal/storage"
)

const (
	alice = domain.Address("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	bob   = domain.Address("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	carol = domain.Address("0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB")
)

var tokenA = domain.DeriveTokenID("a", alice)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func call(method dispatcher.Method, args interface{}) dispatcher.Call {
	raw, err := json.Marshal(args)
	if err != nil {
		panic(err)
	}
	return dispatcher.Call{Method: method, Args: raw}
}

func env(caller domain.Address, height uint64) host.Env {
	return host.Env{BlockHeight: height, TxID: "tx", Caller: caller}
}

type fixture struct {
	backend *memory.Backend
	metrics *metrics.Metrics
	d       dispatcher.Dispatcher
}

func newFixture() *fixture {
	backend := memory.New()
	m := metrics.New(prometheus.NewRegistry())
	engine := registry.NewEngine(registry.Config{Permissionless: true})
	return &fixture{
		backend: backend,
		metrics: m,
		d:       dispatcher.New(engine, backend, adapter.NewClock(), m),
	}
}

func mintCall() dispatcher.Call {
	return call(dispatcher.MethodMint, map[string]interface{}{
		"token_id": tokenA,
		"owner":    alice,
		"metadata": map[string]interface{}{"name": "Sunrise"},
		"royalty":  map[string]interface{}{"recipient": carol, "basis_points": 500},
	})
}

func TestDispatch_FullLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	res := f.d.Dispatch(ctx, env(alice, 1), mintCall())
	require.True(t, res.OK, res.Error)
	require.NotNil(t, res.Event)
	assert.Equal(t, domain.EventKindMint, res.Event.Kind)
	assert.Equal(t, tokenA, res.Event.TokenID)
	assert.Equal(t, uint64(1), res.Event.BlockHeight)

	res = f.d.Dispatch(ctx, env(alice, 2), call(dispatcher.MethodTransfer, map[string]interface{}{
		"token_id":   tokenA,
		"from":       alice,
		"to":         bob,
		"sale_price": 9999,
	}))
	require.True(t, res.OK, res.Error)
	require.NotNil(t, res.Event.Settlement)
	assert.Equal(t, uint64(499), res.Event.Settlement.Royalties[0].Amount)

	res = f.d.Dispatch(ctx, env(bob, 3), call(dispatcher.MethodUpdateMetadata, map[string]interface{}{
		"token_id": tokenA,
		"metadata": map[string]interface{}{"name": "Sunset", "thumb": map[string]string{"base64": "AQID"}},
	}))
	require.True(t, res.OK, res.Error)

	res = f.d.Dispatch(ctx, env(bob, 4), call(dispatcher.MethodApprove, map[string]interface{}{
		"token_id": tokenA,
		"operator": carol,
	}))
	require.True(t, res.OK, res.Error)

	res = f.d.Dispatch(ctx, env(bob, 5), call(dispatcher.MethodSetViewList, map[string]interface{}{
		"token_id":  tokenA,
		"view_list": []domain.Address{carol},
	}))
	require.True(t, res.OK, res.Error)

	res = f.d.Dispatch(ctx, env(bob, 6), call(dispatcher.MethodBurn, map[string]interface{}{"token_id": tokenA}))
	require.True(t, res.OK, res.Error)
	assert.Equal(t, domain.EventKindBurn, res.Event.Kind)

	tk, ok, err := storage.NewReader(f.backend).Get(ctx, tokenA)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, tk.Burned)
	assert.Equal(t, bob, tk.LastOwner)
	assert.Equal(t, uint64(1), tk.TransferCount)
	assert.True(t, tk.Metadata["thumb"].IsBinary())

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.EntryPointCalls.WithLabelValues("mint", "ok")))
}

func TestDispatch_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		caller domain.Address
		call   dispatcher.Call
		kind   domain.ErrorKind
	}{
		{
			name:   "unknown method",
			caller: alice,
			call:   dispatcher.Call{Method: "mint_many", Args: json.RawMessage(`{}`)},
			kind:   domain.KindSchema,
		},
		{
			name:   "missing args",
			caller: alice,
			call:   dispatcher.Call{Method: dispatcher.MethodBurn},
			kind:   domain.KindSchema,
		},
		{
			name:   "caller field in payload is rejected",
			caller: bob,
			call: call(dispatcher.MethodTransfer, map[string]interface{}{
				"token_id": tokenA, "from": alice, "to": bob, "caller": alice,
			}),
			kind: domain.KindSchema,
		},
		{
			name:   "unauthorized transfer",
			caller: carol,
			call:   call(dispatcher.MethodTransfer, map[string]interface{}{"token_id": tokenA, "from": alice, "to": bob}),
			kind:   domain.KindUnauthorized,
		},
		{
			name:   "self transfer",
			caller: alice,
			call:   call(dispatcher.MethodTransfer, map[string]interface{}{"token_id": tokenA, "from": alice, "to": alice}),
			kind:   domain.KindSelfTransfer,
		},
		{
			name:   "duplicate mint",
			caller: alice,
			call:   mintCall(),
			kind:   domain.KindAlreadyExists,
		},
		{
			name:   "burn by non owner",
			caller: bob,
			call:   call(dispatcher.MethodBurn, map[string]interface{}{"token_id": tokenA}),
			kind:   domain.KindNotOwner,
		},
		{
			name:   "unknown token",
			caller: alice,
			call:   call(dispatcher.MethodBurn, map[string]interface{}{"token_id": domain.DeriveTokenID("z", alice)}),
			kind:   domain.KindNotFound,
		},
		{
			name:   "malformed token id",
			caller: alice,
			call:   call(dispatcher.MethodBurn, map[string]interface{}{"token_id": "42"}),
			kind:   domain.KindSchema,
		},
		{
			name:   "duplicate metadata keys",
			caller: alice,
			call: dispatcher.Call{
				Method: dispatcher.MethodUpdateMetadata,
				Args:   json.RawMessage(`{"token_id":"` + string(tokenA) + `","metadata":{"name":"a","name":"b"}}`),
			},
			kind: domain.KindSchema,
		},
		{
			name:   "royalty above 100%",
			caller: alice,
			call: call(dispatcher.MethodMint, map[string]interface{}{
				"owner":   alice,
				"royalty": map[string]interface{}{"recipient": carol, "basis_points": 10001},
			}),
			kind: domain.KindSchema,
		},
		{
			name:   "negative sale price",
			caller: alice,
			call:   call(dispatcher.MethodTransfer, map[string]interface{}{"token_id": tokenA, "from": alice, "to": bob, "sale_price": -1}),
			kind:   domain.KindSchema,
		},
		{
			name:   "trailing data",
			caller: alice,
			call: dispatcher.Call{
				Method: dispatcher.MethodBurn,
				Args:   json.RawMessage(`{"token_id":"` + string(tokenA) + `"} {}`),
			},
			kind: domain.KindSchema,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture()
			require.True(t, f.d.Dispatch(ctx, env(alice, 1), mintCall()).OK)
			before, err := f.backend.Scan(ctx, "", "", 0)
			require.NoError(t, err)

			res := f.d.Dispatch(ctx, env(tt.caller, 2), tt.call)
			assert.False(t, res.OK)
			assert.Equal(t, tt.kind, res.ErrorKind, res.Error)
			assert.Nil(t, res.Event)

			after, err := f.backend.Scan(ctx, "", "", 0)
			require.NoError(t, err)
			assert.Equal(t, before, after, "rejected calls leave no state behind")
		})
	}
}

func TestDispatch_MintDefaults(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	res := f.d.Dispatch(ctx, env(alice, 1), call(dispatcher.MethodMint, map[string]interface{}{"owner": alice}))
	require.True(t, res.OK, res.Error)
	assert.Equal(t, domain.DeriveTokenID("tx", alice), res.Event.TokenID)

	tk, _, err := storage.NewReader(f.backend).Get(ctx, res.Event.TokenID)
	require.NoError(t, err)
	assert.True(t, tk.Policy.MetadataMutable, "metadata is mutable unless the mint says otherwise")
	assert.False(t, tk.Policy.NonTransferable)
	assert.Empty(t, tk.Metadata)
}

func TestDispatch_RollsBackOnEngineFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	backend := mocks.NewMockBackend(ctrl)
	txn := mocks.NewMockTxn(ctrl)
	engine := mocks.NewMockEngine(ctrl)

	d := dispatcher.New(engine, backend, adapter.NewClock(), nil)

	backend.EXPECT().Begin(ctx).Return(txn, nil)
	engine.EXPECT().
		Transfer(ctx, gomock.Any(), registry.TransferArgs{TokenID: tokenA, From: alice, To: bob, Sale: policy.Gift()}).
		DoAndReturn(func(_ context.Context, e host.Env, _ registry.TransferArgs) (*domain.Event, error) {
			assert.Equal(t, txn, e.Store, "engine runs against the call's transaction")
			assert.Equal(t, alice, e.Caller)
			return nil, domain.ErrNotOwner
		})
	txn.EXPECT().Rollback(ctx).Return(nil)

	res := d.Dispatch(ctx, env(alice, 1), call(dispatcher.MethodTransfer, map[string]interface{}{"token_id": tokenA, "from": alice, "to": bob}))
	assert.False(t, res.OK)
	assert.Equal(t, domain.KindNotOwner, res.ErrorKind)
}

func TestDispatch_HostFailures(t *testing.T) {
	ctx := context.Background()
	burn := call(dispatcher.MethodBurn, map[string]interface{}{"token_id": tokenA})

	t.Run("begin fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		backend := mocks.NewMockBackend(ctrl)
		backend.EXPECT().Begin(ctx).Return(nil, assert.AnError)

		res := dispatcher.New(mocks.NewMockEngine(ctrl), backend, adapter.NewClock(), nil).Dispatch(ctx, env(alice, 1), burn)
		assert.Equal(t, domain.KindInternal, res.ErrorKind)
		assert.Contains(t, res.Error, "failed to begin transaction")
	})

	t.Run("commit fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		backend := mocks.NewMockBackend(ctrl)
		txn := mocks.NewMockTxn(ctrl)
		engine := mocks.NewMockEngine(ctrl)

		backend.EXPECT().Begin(ctx).Return(txn, nil)
		engine.EXPECT().Burn(ctx, gomock.Any(), registry.BurnArgs{TokenID: tokenA}).Return(&domain.Event{Kind: domain.EventKindBurn}, nil)
		txn.EXPECT().Commit(ctx).Return(assert.AnError)

		res := dispatcher.New(engine, backend, adapter.NewClock(), nil).Dispatch(ctx, env(alice, 1), burn)
		assert.False(t, res.OK)
		assert.Equal(t, domain.KindInternal, res.ErrorKind)
		assert.Nil(t, res.Event)
	})
}

func TestResult_JSON(t *testing.T) {
	out, err := json.Marshal(dispatcher.Result{ErrorKind: domain.KindNotOwner, Error: "not owner"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":false,"error_kind":"NotOwner","error":"not owner"}`, string(out))
}
