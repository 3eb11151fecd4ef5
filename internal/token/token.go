package token

import (
	"github.com/feral-file/nft-registry/internal/domain"
)

// Token is the canonical registry record.
// A burned token keeps its record with an empty Owner so its id is never reused.
type Token struct {
	ID            domain.TokenID   `cbor:"1,keyasint" json:"token_id"`
	Owner         domain.Address   `cbor:"2,keyasint,omitempty" json:"owner,omitempty"`
	Creator       domain.Address   `cbor:"3,keyasint" json:"creator"`
	Metadata      Metadata         `cbor:"4,keyasint" json:"metadata"`
	Royalty       *Royalty         `cbor:"5,keyasint,omitempty" json:"royalty,omitempty"`
	Private       bool             `cbor:"6,keyasint" json:"privacy_flag"`
	ViewList      []domain.Address `cbor:"7,keyasint,omitempty" json:"view_list,omitempty"`
	Policy        Policy           `cbor:"8,keyasint" json:"policy"`
	Approved      domain.Address   `cbor:"9,keyasint,omitempty" json:"approved,omitempty"`
	Burned        bool             `cbor:"10,keyasint" json:"burned"`
	LastOwner     domain.Address   `cbor:"11,keyasint,omitempty" json:"last_owner,omitempty"`
	CreatedAt     uint64           `cbor:"12,keyasint" json:"created_at"`
	UpdatedAt     uint64           `cbor:"13,keyasint" json:"updated_at"`
	TransferCount uint64           `cbor:"14,keyasint" json:"transfer_count"`
}

// Royalty holds the royalty terms fixed at mint time
type Royalty struct {
	Recipient   domain.Address `cbor:"1,keyasint" json:"recipient"`
	BasisPoints uint16         `cbor:"2,keyasint" json:"basis_points"`
	Splits      []Split        `cbor:"3,keyasint,omitempty" json:"splits,omitempty"`
}

// Split is a secondary royalty recipient
type Split struct {
	Recipient   domain.Address `cbor:"1,keyasint" json:"recipient"`
	BasisPoints uint16         `cbor:"2,keyasint" json:"basis_points"`
}

// Policy holds the per-token mutation rules fixed at mint time
type Policy struct {
	MetadataMutable bool `cbor:"1,keyasint" json:"metadata_mutable"`
	NonTransferable bool `cbor:"2,keyasint" json:"non_transferable"`
}

// TotalBasisPoints returns the primary share plus all splits
func (r *Royalty) TotalBasisPoints() uint32 {
	if r == nil {
		return 0
	}
	total := uint32(r.BasisPoints)
	for _, s := range r.Splits {
		total += uint32(s.BasisPoints)
	}
	return total
}

// Holder returns the address that controls the record: the owner of a live
// token or the last owner of a burned one.
func (t *Token) Holder() domain.Address {
	if t.Burned {
		return t.LastOwner
	}
	return t.Owner
}

// IsViewer reports whether addr is on the token's view list
func (t *Token) IsViewer(addr domain.Address) bool {
	for _, v := range t.ViewList {
		if v == addr {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the token
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}

	c := *t
	c.Metadata = t.Metadata.Clone()
	if t.ViewList != nil {
		c.ViewList = append([]domain.Address{}, t.ViewList...)
	}
	if t.Royalty != nil {
		r := *t.Royalty
		if t.Royalty.Splits != nil {
			r.Splits = append([]Split{}, t.Royalty.Splits...)
		}
		c.Royalty = &r
	}

	return &c
}
