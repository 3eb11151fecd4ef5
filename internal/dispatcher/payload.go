package dispatcher

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/feral-file/nft-registry/internal/domain"
	"github.com/feral-file/nft-registry/internal/policy"
	"github.com/feral-file/nft-registry/internal/registry"
	"github.com/feral-file/nft-registry/internal/token"
)

// MintRequest is the argument payload of the mint entry point.
// Payloads carry no caller field; the caller comes from the host context
// and unknown fields are rejected.
type MintRequest struct {
	TokenID         string          `json:"token_id,omitempty"`
	Owner           string          `json:"owner"`
	Metadata        token.Metadata  `json:"metadata"`
	Royalty         *RoyaltyRequest `json:"royalty,omitempty"`
	Private         bool            `json:"privacy_flag,omitempty"`
	ViewList        []string        `json:"view_list,omitempty"`
	MetadataMutable *bool           `json:"metadata_mutable,omitempty"`
	NonTransferable bool            `json:"non_transferable,omitempty"`
}

// RoyaltyRequest is the royalty part of a mint payload
type RoyaltyRequest struct {
	Recipient   string         `json:"recipient"`
	BasisPoints uint16         `json:"basis_points"`
	Splits      []SplitRequest `json:"splits,omitempty"`
}

// SplitRequest is a secondary royalty recipient in a mint payload
type SplitRequest struct {
	Recipient   string `json:"recipient"`
	BasisPoints uint16 `json:"basis_points"`
}

// TransferRequest is the argument payload of the transfer entry point.
// A missing sale price marks a gift.
type TransferRequest struct {
	TokenID   string  `json:"token_id"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	SalePrice *uint64 `json:"sale_price,omitempty"`
}

// UpdateMetadataRequest is the argument payload of the update_metadata entry point
type UpdateMetadataRequest struct {
	TokenID  string         `json:"token_id"`
	Metadata token.Metadata `json:"metadata"`
}

// BurnRequest is the argument payload of the burn entry point
type BurnRequest struct {
	TokenID string `json:"token_id"`
}

// ApproveRequest is the argument payload of the approve entry point.
// A null or empty operator revokes the approval.
type ApproveRequest struct {
	TokenID  string  `json:"token_id"`
	Operator *string `json:"operator"`
}

// SetViewListRequest is the argument payload of the set_view_list entry point
type SetViewListRequest struct {
	TokenID  string   `json:"token_id"`
	ViewList []string `json:"view_list"`
}

// decodeArgs strictly decodes a JSON payload. Every failure is a schema error.
func decodeArgs(raw json.RawMessage, v interface{}) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return domain.NewSchemaError("args", "missing")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var schemaErr *domain.SchemaError
		if errors.As(err, &schemaErr) {
			return schemaErr
		}
		return domain.NewSchemaError("args", "%v", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return domain.NewSchemaError("args", "trailing data after payload")
	}

	return nil
}

func parseTokenID(field, s string) (domain.TokenID, error) {
	id, err := domain.ParseTokenID(s)
	if err != nil {
		return "", domain.NewSchemaError(field, "must be 0x-prefixed hex of 32 bytes")
	}
	return id, nil
}

func parseAddress(field, s string) (domain.Address, error) {
	addr, err := domain.ParseAddress(s)
	if err != nil {
		return "", domain.NewSchemaError(field, "invalid address %q", s)
	}
	return addr, nil
}

func parseAddresses(field string, ss []string) ([]domain.Address, error) {
	if len(ss) == 0 {
		return nil, nil
	}
	out := make([]domain.Address, 0, len(ss))
	for i, s := range ss {
		addr, err := parseAddress(fmt.Sprintf("%s[%d]", field, i), s)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

func (r *MintRequest) toArgs() (registry.MintArgs, error) {
	var args registry.MintArgs
	var err error

	if r.TokenID != "" {
		if args.TokenID, err = parseTokenID("token_id", r.TokenID); err != nil {
			return args, err
		}
	}
	if args.Owner, err = parseAddress("owner", r.Owner); err != nil {
		return args, err
	}
	if args.ViewList, err = parseAddresses("view_list", r.ViewList); err != nil {
		return args, err
	}

	if r.Royalty != nil {
		recipient, err := parseAddress("royalty.recipient", r.Royalty.Recipient)
		if err != nil {
			return args, err
		}
		royalty := &token.Royalty{Recipient: recipient, BasisPoints: r.Royalty.BasisPoints}
		for i, s := range r.Royalty.Splits {
			addr, err := parseAddress(fmt.Sprintf("royalty.splits[%d].recipient", i), s.Recipient)
			if err != nil {
				return args, err
			}
			royalty.Splits = append(royalty.Splits, token.Split{Recipient: addr, BasisPoints: s.BasisPoints})
		}
		args.Royalty = royalty
	}

	args.Metadata = r.Metadata
	args.Private = r.Private
	args.Policy = token.Policy{
		MetadataMutable: r.MetadataMutable == nil || *r.MetadataMutable,
		NonTransferable: r.NonTransferable,
	}

	return args, nil
}

func (r *TransferRequest) toArgs() (registry.TransferArgs, error) {
	var args registry.TransferArgs
	var err error

	if args.TokenID, err = parseTokenID("token_id", r.TokenID); err != nil {
		return args, err
	}
	if args.From, err = parseAddress("from", r.From); err != nil {
		return args, err
	}
	if args.To, err = parseAddress("to", r.To); err != nil {
		return args, err
	}
	if r.SalePrice != nil {
		args.Sale = policy.Sale(*r.SalePrice)
	}

	return args, nil
}

func (r *UpdateMetadataRequest) toArgs() (registry.UpdateMetadataArgs, error) {
	id, err := parseTokenID("token_id", r.TokenID)
	if err != nil {
		return registry.UpdateMetadataArgs{}, err
	}
	return registry.UpdateMetadataArgs{TokenID: id, Metadata: r.Metadata}, nil
}

func (r *BurnRequest) toArgs() (registry.BurnArgs, error) {
	id, err := parseTokenID("token_id", r.TokenID)
	if err != nil {
		return registry.BurnArgs{}, err
	}
	return registry.BurnArgs{TokenID: id}, nil
}

func (r *ApproveRequest) toArgs() (registry.ApproveArgs, error) {
	id, err := parseTokenID("token_id", r.TokenID)
	if err != nil {
		return registry.ApproveArgs{}, err
	}
	args := registry.ApproveArgs{TokenID: id}
	if r.Operator != nil && *r.Operator != "" {
		if args.Operator, err = parseAddress("operator", *r.Operator); err != nil {
			return args, err
		}
	}
	return args, nil
}

func (r *SetViewListRequest) toArgs() (registry.SetViewListArgs, error) {
	id, err := parseTokenID("token_id", r.TokenID)
	if err != nil {
		return registry.SetViewListArgs{}, err
	}
	viewers, err := parseAddresses("view_list", r.ViewList)
	if err != nil {
		return registry.SetViewListArgs{}, err
	}
	return registry.SetViewListArgs{TokenID: id, ViewList: viewers}, nil
}
