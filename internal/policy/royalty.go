package policy

import (
	"math/bits"

	"github.com/feral-file/nft-registry/internal/domain"
	"github.com/feral-file/nft-registry/internal/token"
)

// SaleContext describes the commercial side of a transfer.
// A nil Price marks a non-sale transfer such as a gift.
type SaleContext struct {
	Price *uint64
}

// Sale creates a sale context with a price
func Sale(price uint64) SaleContext {
	return SaleContext{Price: &price}
}

// Gift creates a sale context without a price
func Gift() SaleContext {
	return SaleContext{}
}

// IsSale reports whether the context carries a sale price
func (s SaleContext) IsSale() bool {
	return s.Price != nil
}

// ShareOf returns price * bps / 10000, truncated toward zero.
// The 128-bit intermediate product cannot overflow for any uint64 price.
func ShareOf(price uint64, bps uint16) uint64 {
	hi, lo := bits.Mul64(price, uint64(bps))
	q, _ := bits.Div64(hi, lo, domain.MaxBasisPoints)
	return q
}

// Payout is the royalty owed on a sale: the primary recipient's amount plus
// one share per secondary split. Each share is truncated independently so the
// total never exceeds what the royalty terms authorize.
type Payout struct {
	Recipient   domain.Address `json:"recipient"`
	BasisPoints uint16         `json:"basis_points"`
	Amount      uint64         `json:"amount"`
	Splits      []domain.Share `json:"splits,omitempty"`
}

// Total returns the amount of the primary share plus all splits
func (p *Payout) Total() uint64 {
	if p == nil {
		return 0
	}
	total := p.Amount
	for _, s := range p.Splits {
		total += s.Amount
	}
	return total
}

// Shares flattens the payout into a list of shares, primary first
func (p *Payout) Shares() []domain.Share {
	if p == nil {
		return nil
	}
	shares := make([]domain.Share, 0, 1+len(p.Splits))
	shares = append(shares, domain.Share{
		Recipient:   p.Recipient,
		BasisPoints: p.BasisPoints,
		Amount:      p.Amount,
	})
	return append(shares, p.Splits...)
}

// ComputeRoyalty returns the payout owed on a sale of t, or nil when the
// token carries no royalty terms or the transfer is not a sale.
func ComputeRoyalty(t *token.Token, sale SaleContext) *Payout {
	if t == nil || t.Royalty == nil || !sale.IsSale() {
		return nil
	}

	price := *sale.Price
	p := &Payout{
		Recipient:   t.Royalty.Recipient,
		BasisPoints: t.Royalty.BasisPoints,
		Amount:      ShareOf(price, t.Royalty.BasisPoints),
	}
	for _, s := range t.Royalty.Splits {
		p.Splits = append(p.Splits, domain.Share{
			Recipient:   s.Recipient,
			BasisPoints: s.BasisPoints,
			Amount:      ShareOf(price, s.BasisPoints),
		})
	}

	return p
}

// Fee is a registry-wide program fee charged on sales
type Fee struct {
	Collector   domain.Address
	BasisPoints uint16
}

// Enabled reports whether the fee has a collector and a positive rate
func (f Fee) Enabled() bool {
	return f.Collector != "" && f.BasisPoints > 0
}

// ComputeFee returns the program fee owed on a sale, or nil when the fee is
// disabled or the transfer is not a sale.
func ComputeFee(f Fee, sale SaleContext) *domain.Share {
	if !f.Enabled() || !sale.IsSale() {
		return nil
	}
	return &domain.Share{
		Recipient:   f.Collector,
		BasisPoints: f.BasisPoints,
		Amount:      ShareOf(*sale.Price, f.BasisPoints),
	}
}

// Settle builds the settlement reported with a sale transfer, or nil for a gift
func Settle(t *token.Token, fee Fee, sale SaleContext) *domain.Settlement {
	if !sale.IsSale() {
		return nil
	}
	return &domain.Settlement{
		SalePrice:  *sale.Price,
		Royalties:  ComputeRoyalty(t, sale).Shares(),
		ProgramFee: ComputeFee(fee, sale),
	}
}
