package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/nft-registry/internal/domain"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected domain.Address
		wantErr  bool
	}{
		{
			name:     "lowercase address is checksummed",
			input:    "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
			expected: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		},
		{
			name:     "surrounding whitespace is trimmed",
			input:    "  0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed ",
			expected: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		},
		{
			name:    "zero address",
			input:   domain.ETHEREUM_ZERO_ADDRESS,
			wantErr: true,
		},
		{
			name:    "too short",
			input:   "0x1234",
			wantErr: true,
		},
		{
			name:    "not hex",
			input:   "0xZZaeb6053f3e94c9b9a09f33669435e7ef1beaed",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := domain.ParseAddress(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidAddress)
				assert.ErrorIs(t, err, domain.ErrSchema)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, addr)
			assert.True(t, addr.Valid())
		})
	}
}

func TestAddress_Valid(t *testing.T) {
	assert.True(t, domain.Address("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed").Valid())
	assert.False(t, domain.Address("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed").Valid(), "non-checksummed form is not canonical")
	assert.False(t, domain.Address("").Valid())
}

func TestParseTokenID(t *testing.T) {
	canonical := "0x" + "ab" + fmt.Sprintf("%062x", 1)

	id, err := domain.ParseTokenID(canonical)
	require.NoError(t, err)
	assert.Equal(t, domain.TokenID(canonical), id)
	assert.True(t, id.Valid())

	upper, err := domain.ParseTokenID("0xAB" + fmt.Sprintf("%062x", 1))
	require.NoError(t, err)
	assert.Equal(t, id, upper)

	_, err = domain.ParseTokenID("0x1234")
	assert.ErrorIs(t, err, domain.ErrInvalidTokenID)

	_, err = domain.ParseTokenID("")
	assert.ErrorIs(t, err, domain.ErrSchema)

	_, err = domain.ParseTokenID("ab" + fmt.Sprintf("%062x", 1))
	assert.ErrorIs(t, err, domain.ErrInvalidTokenID, "missing 0x prefix")
}

func TestDeriveTokenID(t *testing.T) {
	caller := domain.Address("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")

	a := domain.DeriveTokenID("tx-1", caller)
	b := domain.DeriveTokenID("tx-1", caller)
	c := domain.DeriveTokenID("tx-2", caller)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, a.Valid())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err       error
		kind      domain.ErrorKind
		retriable bool
	}{
		{domain.NewSchemaError("metadata", "too many entries"), domain.KindSchema, false},
		{fmt.Errorf("%w: caller is not a minter", domain.ErrUnauthorized), domain.KindUnauthorized, false},
		{fmt.Errorf("%w: 0x01", domain.ErrNotFound), domain.KindNotFound, true},
		{domain.ErrAlreadyExists, domain.KindAlreadyExists, true},
		{domain.ErrNotOwner, domain.KindNotOwner, true},
		{domain.ErrSelfTransfer, domain.KindSelfTransfer, false},
		{domain.ErrNotTransferable, domain.KindNotTransferable, false},
		{errors.New("connection reset"), domain.KindInternal, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.kind, domain.KindOf(tt.err))
			assert.Equal(t, tt.retriable, tt.kind.Retriable())
			if tt.kind != domain.KindInternal {
				assert.ErrorIs(t, tt.err, tt.kind.Sentinel())
			} else {
				assert.Nil(t, tt.kind.Sentinel())
			}
		})
	}

	assert.Equal(t, domain.ErrorKind(""), domain.KindOf(nil))
}

func TestSchemaError(t *testing.T) {
	err := domain.NewSchemaError("royalty.basis_points", "must be at most %d", domain.MaxBasisPoints)
	assert.EqualError(t, err, "schema error: royalty.basis_points: must be at most 10000")

	var schemaErr *domain.SchemaError
	wrapped := fmt.Errorf("failed to mint: %w", err)
	require.ErrorAs(t, wrapped, &schemaErr)
	assert.Equal(t, "royalty.basis_points", schemaErr.Field)
	assert.ErrorIs(t, wrapped, domain.ErrSchema)
}
