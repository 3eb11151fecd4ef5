package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Address is a ledger account address in EIP-55 checksum form
type Address string

// ParseAddress validates an address and returns its canonical checksum form.
// The zero address is rejected.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return "", fmt.Errorf("%w %q", ErrInvalidAddress, s)
	}

	addr := common.HexToAddress(s)
	if addr == (common.Address{}) {
		return "", fmt.Errorf("%w: zero address", ErrInvalidAddress)
	}

	return Address(addr.Hex()), nil
}

// AddressFromCommon converts a go-ethereum address
func AddressFromCommon(addr common.Address) Address {
	return Address(addr.Hex())
}

// Valid reports whether the address is non-zero and in canonical form
func (a Address) Valid() bool {
	parsed, err := ParseAddress(string(a))
	return err == nil && parsed == a
}

// Bytes returns the 20-byte form of the address
func (a Address) Bytes() []byte {
	return common.HexToAddress(string(a)).Bytes()
}

// String returns the string representation of the address
func (a Address) String() string {
	return string(a)
}

// TokenID is the canonical token identifier: 32 bytes as 0x-prefixed lowercase hex
type TokenID string

const tokenIDLength = 32

// ParseTokenID validates a token id and returns its canonical lowercase form
func ParseTokenID(s string) (TokenID, error) {
	b, err := hexutil.Decode(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidTokenID, s, err)
	}
	if len(b) != tokenIDLength {
		return "", fmt.Errorf("%w %q: expected %d bytes, got %d", ErrInvalidTokenID, s, tokenIDLength, len(b))
	}

	return TokenID(hexutil.Encode(b)), nil
}

// DeriveTokenID derives the id of a token minted without an explicit id.
// The id is keccak256(txID || caller), so it is deterministic per transaction.
func DeriveTokenID(txID string, caller Address) TokenID {
	return TokenID(crypto.Keccak256Hash([]byte(txID), caller.Bytes()).Hex())
}

// Valid reports whether the token id is in canonical form
func (t TokenID) Valid() bool {
	parsed, err := ParseTokenID(string(t))
	return err == nil && parsed == t
}

// String returns the string representation of the token id
func (t TokenID) String() string {
	return string(t)
}

// EventKind represents the kind of a registry event
type EventKind string

const (
	EventKindMint           EventKind = "mint"
	EventKindTransfer       EventKind = "transfer"
	EventKindUpdateMetadata EventKind = "update_metadata"
	EventKindBurn           EventKind = "burn"
	EventKindApprove        EventKind = "approve"
	EventKindSetViewList    EventKind = "set_view_list"
)

// Share is an amount routed to a recipient as a basis-point share of a sale price
type Share struct {
	Recipient   Address `json:"recipient"`
	BasisPoints uint16  `json:"basis_points"`
	Amount      uint64  `json:"amount"`
}

// Settlement describes how a sale price is split on a transfer
type Settlement struct {
	SalePrice  uint64  `json:"sale_price"`
	Royalties  []Share `json:"royalties,omitempty"`
	ProgramFee *Share  `json:"program_fee,omitempty"`
}

// Event is the record emitted to off-chain observers for every successful entry point call
type Event struct {
	ID           string      `json:"id,omitempty"` // assigned by the ledger when the block is sealed
	Kind         EventKind   `json:"kind"`
	TokenID      TokenID     `json:"token_id"`
	Participants []Address   `json:"participants"`
	BlockHeight  uint64      `json:"block_height"`
	TxID         string      `json:"tx_id,omitempty"`
	Settlement   *Settlement `json:"settlement,omitempty"`
}
