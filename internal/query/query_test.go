package query_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/nft-registry/internal/domain"
	"github.com/feral-file/nft-registry/internal/host"
	"github.com/feral-file/nft-registry/internal/host/memory"
	"github.com/feral-file/nft-registry/internal/policy"
	"github.com/feral-file/nft-registry/internal/query"
	"github.com/feral-file/nft-registry/internal/registry"
	"github.com/feral-file/nft-registry/internal/token"
)

const (
	alice = domain.Address("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	bob   = domain.Address("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	carol = domain.Address("0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB")
	dave  = domain.Address("0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb")
)

type world struct {
	t       *testing.T
	backend *memory.Backend
	engine  registry.Engine
	height  uint64
}

func newWorld(t *testing.T) *world {
	return &world{t: t, backend: memory.New(), engine: registry.NewEngine(registry.Config{Permissionless: true})}
}

func (w *world) apply(caller domain.Address, op func(context.Context, host.Env) (*domain.Event, error)) *domain.Event {
	w.t.Helper()
	ctx := context.Background()
	tx, err := w.backend.Begin(ctx)
	require.NoError(w.t, err)

	w.height++
	ev, err := op(ctx, host.Env{BlockHeight: w.height, TxID: fmt.Sprintf("tx-%d", w.height), Caller: caller, Store: tx})
	require.NoError(w.t, err)
	require.NoError(w.t, tx.Commit(ctx))
	return ev
}

func (w *world) mint(owner domain.Address, private bool, viewers ...domain.Address) domain.TokenID {
	ev := w.apply(owner, func(ctx context.Context, env host.Env) (*domain.Event, error) {
		return w.engine.Mint(ctx, env, registry.MintArgs{
			Owner:    owner,
			Metadata: token.Metadata{"name": token.Text("piece")},
			Royalty:  &token.Royalty{Recipient: carol, BasisPoints: 500},
			Private:  private,
			ViewList: viewers,
		})
	})
	return ev.TokenID
}

func TestGetToken_RoyaltyRoundTrip(t *testing.T) {
	w := newWorld(t)
	id := w.mint(alice, false)

	for _, to := range []domain.Address{bob, dave, alice} {
		from := bob
		switch to {
		case bob:
			from = alice
		case dave:
			from = bob
		case alice:
			from = dave
		}
		w.apply(from, func(ctx context.Context, env host.Env) (*domain.Event, error) {
			return w.engine.Transfer(ctx, env, registry.TransferArgs{TokenID: id, From: from, To: to, Sale: policy.Sale(1000)})
		})
	}

	svc := query.NewService(w.backend, 0)
	v, err := svc.GetToken(context.Background(), id, alice)
	require.NoError(t, err)

	full, ok := v.(*policy.FullView)
	require.True(t, ok)
	assert.Equal(t, uint16(500), full.Token.Royalty.BasisPoints)
	assert.Equal(t, uint64(3), full.Token.TransferCount)
	assert.Equal(t, alice, full.Token.Owner)
}

func TestGetToken_Privacy(t *testing.T) {
	w := newWorld(t)
	id := w.mint(alice, true, bob)
	svc := query.NewService(w.backend, 0)
	ctx := context.Background()

	v, err := svc.GetToken(ctx, id, dave)
	require.NoError(t, err)
	redacted, ok := v.(*policy.RedactedView)
	require.True(t, ok)
	assert.Equal(t, id, redacted.ID)
	assert.True(t, redacted.Exists)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "metadata")
	assert.NotContains(t, string(out), "owner")
	assert.NotContains(t, string(out), "royalty")

	v, err = svc.GetToken(ctx, id, bob)
	require.NoError(t, err)
	assert.IsType(t, &policy.FullView{}, v)

	v, err = svc.GetToken(ctx, id, "")
	require.NoError(t, err)
	assert.IsType(t, &policy.RedactedView{}, v)
}

func TestGetToken_NotFoundAndInvalid(t *testing.T) {
	svc := query.NewService(memory.New(), 0)

	_, err := svc.GetToken(context.Background(), domain.DeriveTokenID("none", alice), alice)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetToken(context.Background(), "token-1", alice)
	assert.ErrorIs(t, err, domain.ErrSchema)
}

func TestBurnedToken(t *testing.T) {
	w := newWorld(t)
	id := w.mint(alice, false)
	kept := w.mint(alice, false)
	w.apply(alice, func(ctx context.Context, env host.Env) (*domain.Event, error) {
		return w.engine.Burn(ctx, env, registry.BurnArgs{TokenID: id})
	})

	svc := query.NewService(w.backend, 0)
	ctx := context.Background()

	page, err := svc.ListOwned(ctx, alice, alice, query.Page{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, kept, page.Items[0].TokenID())

	v, err := svc.GetToken(ctx, id, alice)
	require.NoError(t, err)
	full, ok := v.(*policy.FullView)
	require.True(t, ok)
	assert.True(t, full.Token.Burned)
	assert.Equal(t, alice, full.Token.LastOwner)
}

func TestListOwned_Pagination(t *testing.T) {
	w := newWorld(t)
	minted := map[domain.TokenID]bool{}
	for i := 0; i < 5; i++ {
		minted[w.mint(alice, i%2 == 0)] = true
	}
	w.mint(bob, false)

	svc := query.NewService(w.backend, 2)
	ctx := context.Background()

	var seen []domain.TokenID
	var redactedCount int
	page := query.Page{Limit: 10} // capped at 2
	for {
		res, err := svc.ListOwned(ctx, alice, dave, page)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(res.Items), 2)
		for _, item := range res.Items {
			seen = append(seen, item.TokenID())
			if _, ok := item.(*policy.RedactedView); ok {
				redactedCount++
			}
		}
		if res.Next == nil {
			break
		}
		page.After = *res.Next
	}

	assert.Len(t, seen, 5)
	for _, id := range seen {
		assert.True(t, minted[id])
	}
	assert.Equal(t, 3, redactedCount, "private tokens are redacted per entry")
}

func TestListOwned_Invalid(t *testing.T) {
	svc := query.NewService(memory.New(), 0)
	ctx := context.Background()

	_, err := svc.ListOwned(ctx, "nobody", "", query.Page{})
	assert.ErrorIs(t, err, domain.ErrSchema)

	_, err = svc.ListOwned(ctx, alice, "", query.Page{After: "0x1"})
	assert.ErrorIs(t, err, domain.ErrSchema)

	page, err := svc.ListOwned(ctx, alice, "", query.Page{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Nil(t, page.Next)
}
