package policy_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/nft-registry/internal/domain"
	"github.com/feral-file/nft-registry/internal/policy"
	"github.com/feral-file/nft-registry/internal/token"
)

const (
	alice = domain.Address("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	bob   = domain.Address("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	carol = domain.Address("0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB")
	dave  = domain.Address("0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb")
)

func royaltyToken(bps uint16, splits ...token.Split) *token.Token {
	return &token.Token{
		ID:       domain.DeriveTokenID("tx", alice),
		Owner:    alice,
		Creator:  alice,
		Metadata: token.Metadata{"name": token.Text("Sunrise")},
		Royalty:  &token.Royalty{Recipient: carol, BasisPoints: bps, Splits: splits},
	}
}

func TestShareOf(t *testing.T) {
	tests := []struct {
		price    uint64
		bps      uint16
		expected uint64
	}{
		{10000, 250, 250},
		{9999, 250, 249},
		{39, 250, 0},
		{40, 250, 1},
		{1, 10000, 1},
		{0, 500, 0},
		{1000, 0, 0},
		{math.MaxUint64, 10000, math.MaxUint64},
		{math.MaxUint64, 5000, math.MaxUint64 / 2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, policy.ShareOf(tt.price, tt.bps), "price=%d bps=%d", tt.price, tt.bps)
	}
}

func TestComputeRoyalty(t *testing.T) {
	t.Run("sale with royalty", func(t *testing.T) {
		p := policy.ComputeRoyalty(royaltyToken(250), policy.Sale(10000))
		require.NotNil(t, p)
		assert.Equal(t, carol, p.Recipient)
		assert.Equal(t, uint64(250), p.Amount)
	})

	t.Run("truncates instead of rounding", func(t *testing.T) {
		p := policy.ComputeRoyalty(royaltyToken(250), policy.Sale(9999))
		require.NotNil(t, p)
		assert.Equal(t, uint64(249), p.Amount)
	})

	t.Run("gift has no royalty", func(t *testing.T) {
		assert.Nil(t, policy.ComputeRoyalty(royaltyToken(250), policy.Gift()))
	})

	t.Run("token without royalty", func(t *testing.T) {
		tk := royaltyToken(250)
		tk.Royalty = nil
		assert.Nil(t, policy.ComputeRoyalty(tk, policy.Sale(10000)))
	})

	t.Run("splits are truncated independently", func(t *testing.T) {
		tk := royaltyToken(333, token.Split{Recipient: dave, BasisPoints: 333}, token.Split{Recipient: bob, BasisPoints: 334})
		p := policy.ComputeRoyalty(tk, policy.Sale(101))
		require.NotNil(t, p)

		assert.Equal(t, uint64(3), p.Amount)
		require.Len(t, p.Splits, 2)
		assert.Equal(t, dave, p.Splits[0].Recipient)
		assert.Equal(t, uint64(3), p.Splits[0].Amount)
		assert.Equal(t, uint64(3), p.Splits[1].Amount)
		assert.Equal(t, uint64(9), p.Total())
		assert.LessOrEqual(t, p.Total(), policy.ShareOf(101, 1000))

		shares := p.Shares()
		require.Len(t, shares, 3)
		assert.Equal(t, carol, shares[0].Recipient)
	})
}

func TestComputeFee(t *testing.T) {
	fee := policy.Fee{Collector: dave, BasisPoints: 100}

	share := policy.ComputeFee(fee, policy.Sale(12345))
	require.NotNil(t, share)
	assert.Equal(t, uint64(123), share.Amount)
	assert.Equal(t, dave, share.Recipient)

	assert.Nil(t, policy.ComputeFee(fee, policy.Gift()))
	assert.Nil(t, policy.ComputeFee(policy.Fee{}, policy.Sale(12345)))
	assert.Nil(t, policy.ComputeFee(policy.Fee{Collector: dave}, policy.Sale(12345)))
}

func TestSettle(t *testing.T) {
	s := policy.Settle(royaltyToken(500), policy.Fee{Collector: dave, BasisPoints: 250}, policy.Sale(1000))
	require.NotNil(t, s)
	assert.Equal(t, uint64(1000), s.SalePrice)
	require.Len(t, s.Royalties, 1)
	assert.Equal(t, uint64(50), s.Royalties[0].Amount)
	require.NotNil(t, s.ProgramFee)
	assert.Equal(t, uint64(25), s.ProgramFee.Amount)

	assert.Nil(t, policy.Settle(royaltyToken(500), policy.Fee{}, policy.Gift()))
}

func TestRedactIfPrivate(t *testing.T) {
	private := royaltyToken(500)
	private.Private = true
	private.ViewList = []domain.Address{bob}

	public := royaltyToken(500)

	burned := private.Clone()
	burned.Burned = true
	burned.LastOwner = alice
	burned.Owner = ""

	tests := []struct {
		name   string
		token  *token.Token
		viewer domain.Address
		full   bool
	}{
		{"public token anonymous viewer", public, "", true},
		{"public token any viewer", public, dave, true},
		{"private token owner", private, alice, true},
		{"private token view-listed", private, bob, true},
		{"private token stranger", private, dave, false},
		{"private token royalty recipient", private, carol, false},
		{"private token anonymous", private, "", false},
		{"burned private token last owner", burned, alice, true},
		{"burned private token stranger", burned, dave, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := policy.RedactIfPrivate(tt.token, tt.viewer)
			assert.Equal(t, tt.token.ID, v.TokenID())

			switch view := v.(type) {
			case *policy.FullView:
				assert.True(t, tt.full)
				assert.Equal(t, tt.token.Owner, view.Token.Owner)
			case *policy.RedactedView:
				assert.False(t, tt.full)
				assert.True(t, view.Exists)
			default:
				t.Fatalf("unexpected view type %T", v)
			}
		})
	}
}

func TestRedactedView_JSONExposesNothingElse(t *testing.T) {
	private := royaltyToken(500)
	private.Private = true

	out, err := json.Marshal(policy.RedactIfPrivate(private, dave))
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &fields))
	assert.Equal(t, map[string]interface{}{
		"token_id": string(private.ID),
		"exists":   true,
	}, fields)
}

func TestFullView_ClonesRecord(t *testing.T) {
	tk := royaltyToken(500)
	v := policy.RedactIfPrivate(tk, alice).(*policy.FullView)
	v.Token.Metadata["name"] = token.Text("changed")
	assert.Equal(t, "Sunrise", tk.Metadata["name"].String())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"royalty":{"recipient":"`+string(carol)+`","basis_points":500}`)
}
