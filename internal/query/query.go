package query

import (
	"context"
	"fmt"

	"github.com/feral-file/nft-registry/internal/domain"
	"github.com/feral-file/nft-registry/internal/host"
	"github.com/feral-file/nft-registry/internal/policy"
	"github.com/feral-file/nft-registry/internal/storage"
)

const (
	// DefaultPageLimit is used when a page request has no limit
	DefaultPageLimit = 50
	// MaxPageLimit caps the page size when none is configured
	MaxPageLimit = 200
)

// Page is a cursor over an owner's tokens. After is the last token id of the
// previous page; an empty After starts from the beginning.
type Page struct {
	After domain.TokenID
	Limit int
}

// OwnedPage is one page of an owner's tokens
type OwnedPage struct {
	Items []policy.View   `json:"items"`
	Next  *domain.TokenID `json:"next,omitempty"`
}

// Service answers read-only lookups. It never writes and never opens a
// transaction, so it is safe to call outside transaction context.
//
//go:generate mockgen -source=query.go -destination=../mocks/query.go -package=mocks -mock_names=Service=MockQueryService
type Service interface {
	// GetToken returns the token as visible to viewer. Burned tokens are
	// returned as tombstones; ids that were never minted yield ErrNotFound.
	GetToken(ctx context.Context, id domain.TokenID, viewer domain.Address) (policy.View, error)

	// ListOwned returns a page of the tokens currently held by owner, each
	// redacted for viewer. Cost is bounded by the page size.
	ListOwned(ctx context.Context, owner domain.Address, viewer domain.Address, page Page) (*OwnedPage, error)
}

type service struct {
	tokens   storage.Tokens
	maxLimit int
}

// NewService creates a query service over reader
func NewService(reader host.Reader, maxLimit int) Service {
	if maxLimit <= 0 {
		maxLimit = MaxPageLimit
	}
	return &service{
		tokens:   storage.NewReader(reader),
		maxLimit: maxLimit,
	}
}

func (s *service) GetToken(ctx context.Context, id domain.TokenID, viewer domain.Address) (policy.View, error) {
	if !id.Valid() {
		return nil, domain.NewSchemaError("token_id", "must be 0x-prefixed lowercase hex of 32 bytes")
	}

	t, ok, err := s.tokens.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	return policy.RedactIfPrivate(t, viewer), nil
}

func (s *service) ListOwned(ctx context.Context, owner domain.Address, viewer domain.Address, page Page) (*OwnedPage, error) {
	if !owner.Valid() {
		return nil, domain.NewSchemaError("owner", "invalid address %q", owner)
	}
	if page.After != "" && !page.After.Valid() {
		return nil, domain.NewSchemaError("after", "must be 0x-prefixed lowercase hex of 32 bytes")
	}

	limit := page.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	// One extra id tells whether another page follows
	ids, err := s.tokens.OwnedIDs(ctx, owner, page.After, limit+1)
	if err != nil {
		return nil, fmt.Errorf("failed to list owned tokens: %w", err)
	}

	result := &OwnedPage{Items: make([]policy.View, 0, len(ids))}
	if len(ids) > limit {
		ids = ids[:limit]
		next := ids[limit-1]
		result.Next = &next
	}

	for _, id := range ids {
		t, ok, err := s.tokens.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get token %s: %w", id, err)
		}
		if !ok {
			// The index is written with its record in one transaction
			return nil, fmt.Errorf("ownership index of %s references missing token %s", owner, id)
		}
		result.Items = append(result.Items, policy.RedactIfPrivate(t, viewer))
	}

	return result, nil
}
