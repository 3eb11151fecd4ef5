package token

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/feral-file/nft-registry/internal/domain"
)

// Limits bounds the size of a token record
type Limits struct {
	MaxMetadataEntries int
	MaxKeyLength       int
	MaxValueSize       int
	MaxMetadataSize    int
	MaxViewList        int
	MaxRoyaltySplits   int
}

// DefaultLimits returns the limits used when none are configured
func DefaultLimits() Limits {
	return Limits{
		MaxMetadataEntries: 64,
		MaxKeyLength:       64,
		MaxValueSize:       4096,
		MaxMetadataSize:    16384,
		MaxViewList:        32,
		MaxRoyaltySplits:   8,
	}
}

// withDefaults replaces zero limits with the defaults
func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxMetadataEntries <= 0 {
		l.MaxMetadataEntries = d.MaxMetadataEntries
	}
	if l.MaxKeyLength <= 0 {
		l.MaxKeyLength = d.MaxKeyLength
	}
	if l.MaxValueSize <= 0 {
		l.MaxValueSize = d.MaxValueSize
	}
	if l.MaxMetadataSize <= 0 {
		l.MaxMetadataSize = d.MaxMetadataSize
	}
	if l.MaxViewList <= 0 {
		l.MaxViewList = d.MaxViewList
	}
	if l.MaxRoyaltySplits <= 0 {
		l.MaxRoyaltySplits = d.MaxRoyaltySplits
	}
	return l
}

// Validate checks a token record against the schema and returns the first
// violated constraint as a *domain.SchemaError.
func Validate(t *Token, limits Limits) error {
	if t == nil {
		return domain.NewSchemaError("token", "missing")
	}
	limits = limits.withDefaults()

	if !t.ID.Valid() {
		return domain.NewSchemaError("token_id", "must be 0x-prefixed lowercase hex of 32 bytes")
	}

	if t.Burned {
		if t.Owner != "" {
			return domain.NewSchemaError("owner", "must be empty on a burned token")
		}
		if !t.LastOwner.Valid() {
			return domain.NewSchemaError("last_owner", "invalid address %q", t.LastOwner)
		}
	} else if !t.Owner.Valid() {
		return domain.NewSchemaError("owner", "invalid address %q", t.Owner)
	}

	if !t.Creator.Valid() {
		return domain.NewSchemaError("creator", "invalid address %q", t.Creator)
	}

	if err := ValidateMetadata(t.Metadata, limits); err != nil {
		return err
	}

	if err := ValidateRoyalty(t.Royalty, limits); err != nil {
		return err
	}

	if err := ValidateViewList(t.ViewList, limits); err != nil {
		return err
	}

	if t.Approved != "" {
		if !t.Approved.Valid() {
			return domain.NewSchemaError("approved", "invalid address %q", t.Approved)
		}
		if t.Approved == t.Owner {
			return domain.NewSchemaError("approved", "must differ from owner")
		}
	}

	if t.UpdatedAt < t.CreatedAt {
		return domain.NewSchemaError("updated_at", "precedes created_at")
	}

	return nil
}

// ValidateMetadata checks entry count, key and value sizes and the total size
func ValidateMetadata(m Metadata, limits Limits) error {
	limits = limits.withDefaults()

	if len(m) > limits.MaxMetadataEntries {
		return domain.NewSchemaError("metadata", "has %d entries, at most %d allowed", len(m), limits.MaxMetadataEntries)
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		field := fmt.Sprintf("metadata.%s", k)
		if k == "" {
			return domain.NewSchemaError("metadata", "empty key")
		}
		if !utf8.ValidString(k) {
			return domain.NewSchemaError("metadata", "key is not valid UTF-8")
		}
		if len(k) > limits.MaxKeyLength {
			return domain.NewSchemaError(field, "key exceeds %d bytes", limits.MaxKeyLength)
		}
		if m[k].Len() > limits.MaxValueSize {
			return domain.NewSchemaError(field, "value exceeds %d bytes", limits.MaxValueSize)
		}
	}

	if size := m.Size(); size > limits.MaxMetadataSize {
		return domain.NewSchemaError("metadata", "total size %d exceeds %d bytes", size, limits.MaxMetadataSize)
	}

	return nil
}

// ValidateRoyalty checks recipients and that the shares never exceed 100%
func ValidateRoyalty(r *Royalty, limits Limits) error {
	if r == nil {
		return nil
	}
	limits = limits.withDefaults()

	if !r.Recipient.Valid() {
		return domain.NewSchemaError("royalty.recipient", "invalid address %q", r.Recipient)
	}
	if r.BasisPoints > domain.MaxBasisPoints {
		return domain.NewSchemaError("royalty.basis_points", "must be at most %d", domain.MaxBasisPoints)
	}
	if len(r.Splits) > limits.MaxRoyaltySplits {
		return domain.NewSchemaError("royalty.splits", "has %d entries, at most %d allowed", len(r.Splits), limits.MaxRoyaltySplits)
	}

	for i, s := range r.Splits {
		if !s.Recipient.Valid() {
			return domain.NewSchemaError(fmt.Sprintf("royalty.splits[%d].recipient", i), "invalid address %q", s.Recipient)
		}
		if s.BasisPoints == 0 {
			return domain.NewSchemaError(fmt.Sprintf("royalty.splits[%d].basis_points", i), "must be positive")
		}
	}

	if total := r.TotalBasisPoints(); total > domain.MaxBasisPoints {
		return domain.NewSchemaError("royalty", "total of %d basis points exceeds %d", total, domain.MaxBasisPoints)
	}

	return nil
}

// ValidateViewList checks view list length, address syntax and uniqueness
func ValidateViewList(viewers []domain.Address, limits Limits) error {
	limits = limits.withDefaults()

	if len(viewers) > limits.MaxViewList {
		return domain.NewSchemaError("view_list", "has %d entries, at most %d allowed", len(viewers), limits.MaxViewList)
	}

	seen := make(map[domain.Address]bool, len(viewers))
	for i, v := range viewers {
		if !v.Valid() {
			return domain.NewSchemaError(fmt.Sprintf("view_list[%d]", i), "invalid address %q", v)
		}
		if seen[v] {
			return domain.NewSchemaError(fmt.Sprintf("view_list[%d]", i), "duplicate address %s", v)
		}
		seen[v] = true
	}

	return nil
}
