package token_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/nft-registry/internal/codec"
	"github.com/feral-file/nft-registry/internal/domain"
	"github.com/feral-file/nft-registry/internal/token"
)

const (
	alice = domain.Address("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	bob   = domain.Address("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	carol = domain.Address("0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB")
)

var tokenID = domain.DeriveTokenID("tx-1", alice)

func validToken() *token.Token {
	return &token.Token{
		ID:      tokenID,
		Owner:   alice,
		Creator: alice,
		Metadata: token.Metadata{
			"name":  token.Text("Sunrise"),
			"image": token.Text("ipfs://bafy"),
		},
		Royalty: &token.Royalty{Recipient: carol, BasisPoints: 500},
		Policy:  token.Policy{MetadataMutable: true},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*token.Token)
		field   string
		wantErr bool
	}{
		{
			name:   "valid token",
			mutate: func(*token.Token) {},
		},
		{
			name:    "empty token id",
			mutate:  func(tk *token.Token) { tk.ID = "" },
			field:   "token_id",
			wantErr: true,
		},
		{
			name:    "uppercase token id is not canonical",
			mutate:  func(tk *token.Token) { tk.ID = domain.TokenID(strings.ToUpper(string(tk.ID))) },
			field:   "token_id",
			wantErr: true,
		},
		{
			name:    "invalid owner",
			mutate:  func(tk *token.Token) { tk.Owner = "0x1234" },
			field:   "owner",
			wantErr: true,
		},
		{
			name:    "empty owner on live token",
			mutate:  func(tk *token.Token) { tk.Owner = "" },
			field:   "owner",
			wantErr: true,
		},
		{
			name: "burned token without owner",
			mutate: func(tk *token.Token) {
				tk.Burned = true
				tk.LastOwner = tk.Owner
				tk.Owner = ""
			},
		},
		{
			name: "burned token with owner",
			mutate: func(tk *token.Token) {
				tk.Burned = true
				tk.LastOwner = tk.Owner
			},
			field:   "owner",
			wantErr: true,
		},
		{
			name:    "royalty basis points above 10000",
			mutate:  func(tk *token.Token) { tk.Royalty.BasisPoints = 10001 },
			field:   "royalty.basis_points",
			wantErr: true,
		},
		{
			name:   "royalty basis points at 10000",
			mutate: func(tk *token.Token) { tk.Royalty.BasisPoints = 10000 },
		},
		{
			name:   "royalty basis points at 0",
			mutate: func(tk *token.Token) { tk.Royalty.BasisPoints = 0 },
		},
		{
			name: "splits push total above 10000",
			mutate: func(tk *token.Token) {
				tk.Royalty.BasisPoints = 9000
				tk.Royalty.Splits = []token.Split{{Recipient: bob, BasisPoints: 1001}}
			},
			field:   "royalty",
			wantErr: true,
		},
		{
			name:    "zero split",
			mutate:  func(tk *token.Token) { tk.Royalty.Splits = []token.Split{{Recipient: bob}} },
			field:   "royalty.splits[0].basis_points",
			wantErr: true,
		},
		{
			name:    "invalid royalty recipient",
			mutate:  func(tk *token.Token) { tk.Royalty.Recipient = "nobody" },
			field:   "royalty.recipient",
			wantErr: true,
		},
		{
			name:    "empty metadata key",
			mutate:  func(tk *token.Token) { tk.Metadata[""] = token.Text("x") },
			field:   "metadata",
			wantErr: true,
		},
		{
			name:    "metadata value too large",
			mutate:  func(tk *token.Token) { tk.Metadata["blob"] = token.Bytes(make([]byte, 4097)) },
			field:   "metadata.blob",
			wantErr: true,
		},
		{
			name:    "metadata key too long",
			mutate:  func(tk *token.Token) { tk.Metadata[strings.Repeat("k", 65)] = token.Text("x") },
			field:   "metadata." + strings.Repeat("k", 65),
			wantErr: true,
		},
		{
			name: "metadata total too large",
			mutate: func(tk *token.Token) {
				for _, k := range []string{"a", "b", "c", "d", "e"} {
					tk.Metadata[k] = token.Text(strings.Repeat("v", 4000))
				}
			},
			field:   "metadata",
			wantErr: true,
		},
		{
			name:    "duplicate viewer",
			mutate:  func(tk *token.Token) { tk.ViewList = []domain.Address{bob, bob} },
			field:   "view_list[1]",
			wantErr: true,
		},
		{
			name:    "approved equals owner",
			mutate:  func(tk *token.Token) { tk.Approved = alice },
			field:   "approved",
			wantErr: true,
		},
		{
			name: "updated before created",
			mutate: func(tk *token.Token) {
				tk.CreatedAt = 10
				tk.UpdatedAt = 9
			},
			field:   "updated_at",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := validToken()
			tt.mutate(tk)

			err := token.Validate(tk, token.DefaultLimits())
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrSchema)
			var schemaErr *domain.SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, tt.field, schemaErr.Field)
		})
	}
}

func TestValidate_ReportsFirstViolation(t *testing.T) {
	tk := validToken()
	tk.Owner = "bad"
	tk.Royalty.BasisPoints = 20000

	var schemaErr *domain.SchemaError
	require.ErrorAs(t, token.Validate(tk, token.Limits{}), &schemaErr)
	assert.Equal(t, "owner", schemaErr.Field)
}

func TestValidate_CustomLimits(t *testing.T) {
	tk := validToken()
	err := token.Validate(tk, token.Limits{MaxMetadataEntries: 1})
	assert.ErrorIs(t, err, domain.ErrSchema)
}

func TestMetadata_UnmarshalJSON(t *testing.T) {
	t.Run("text and binary values", func(t *testing.T) {
		var m token.Metadata
		require.NoError(t, json.Unmarshal([]byte(`{"name":"Sunrise","thumb":{"base64":"AQID"}}`), &m))

		assert.Equal(t, "Sunrise", m["name"].String())
		assert.False(t, m["name"].IsBinary())
		assert.True(t, m["thumb"].IsBinary())
		assert.Equal(t, []byte{1, 2, 3}, m["thumb"].Raw())
	})

	t.Run("duplicate keys are rejected", func(t *testing.T) {
		var m token.Metadata
		err := json.Unmarshal([]byte(`{"name":"a","name":"b"}`), &m)
		require.Error(t, err)
		var schemaErr *domain.SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, "metadata.name", schemaErr.Field)
	})

	t.Run("non string values are rejected", func(t *testing.T) {
		var m token.Metadata
		err := json.Unmarshal([]byte(`{"edition":3}`), &m)
		assert.ErrorIs(t, err, domain.ErrSchema)
	})

	t.Run("array is rejected", func(t *testing.T) {
		var m token.Metadata
		err := json.Unmarshal([]byte(`["a"]`), &m)
		assert.ErrorIs(t, err, domain.ErrSchema)
	})

	t.Run("json output", func(t *testing.T) {
		out, err := json.Marshal(token.Metadata{"thumb": token.Bytes([]byte{1, 2, 3})})
		require.NoError(t, err)
		assert.JSONEq(t, `{"thumb":{"base64":"AQID"}}`, string(out))
	})
}

func TestToken_CBORRoundTrip(t *testing.T) {
	tk := validToken()
	tk.Metadata["thumb"] = token.Bytes([]byte{0xde, 0xad})
	tk.Metadata["empty"] = token.Bytes(nil)
	tk.Royalty.Splits = []token.Split{{Recipient: bob, BasisPoints: 100}}
	tk.ViewList = []domain.Address{bob}
	tk.Private = true
	tk.CreatedAt = 3
	tk.UpdatedAt = 7
	tk.TransferCount = 2

	data, err := codec.Marshal(tk)
	require.NoError(t, err)

	again, err := codec.Marshal(tk.Clone())
	require.NoError(t, err)
	assert.Equal(t, data, again, "encoding must be deterministic")

	var decoded token.Token
	require.NoError(t, codec.Unmarshal(data, &decoded))

	assert.Equal(t, tk.ID, decoded.ID)
	assert.Equal(t, tk.Owner, decoded.Owner)
	assert.Equal(t, tk.Royalty, decoded.Royalty)
	assert.Equal(t, tk.ViewList, decoded.ViewList)
	assert.Equal(t, tk.Policy, decoded.Policy)
	assert.True(t, decoded.Private)
	assert.Equal(t, uint64(2), decoded.TransferCount)
	require.Len(t, decoded.Metadata, len(tk.Metadata))
	for k, v := range tk.Metadata {
		assert.True(t, v.Equal(decoded.Metadata[k]), k)
	}
}

func TestToken_Clone(t *testing.T) {
	tk := validToken()
	tk.ViewList = []domain.Address{bob}
	tk.Royalty.Splits = []token.Split{{Recipient: bob, BasisPoints: 100}}

	c := tk.Clone()
	c.Metadata["name"] = token.Text("Sunset")
	c.ViewList[0] = carol
	c.Royalty.BasisPoints = 1
	c.Royalty.Splits[0].BasisPoints = 2

	assert.Equal(t, "Sunrise", tk.Metadata["name"].String())
	assert.Equal(t, bob, tk.ViewList[0])
	assert.Equal(t, uint16(500), tk.Royalty.BasisPoints)
	assert.Equal(t, uint16(100), tk.Royalty.Splits[0].BasisPoints)
}

func TestToken_Holder(t *testing.T) {
	tk := validToken()
	assert.Equal(t, alice, tk.Holder())

	tk.Burned = true
	tk.LastOwner = alice
	tk.Owner = ""
	assert.Equal(t, alice, tk.Holder())
}
