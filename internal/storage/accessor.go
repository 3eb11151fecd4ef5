package storage

import (
	"context"
	"fmt"

	"github.com/feral-file/nft-registry/internal/codec"
	"github.com/feral-file/nft-registry/internal/domain"
	"github.com/feral-file/nft-registry/internal/host"
	"github.com/feral-file/nft-registry/internal/token"
)

// Tokens is the read side of the storage accessor
//
//go:generate mockgen -source=accessor.go -destination=../mocks/accessor.go -package=mocks -mock_names=Tokens=MockTokens,Accessor=MockAccessor
type Tokens interface {
	// Get returns the token record with id, including burned tombstones
	Get(ctx context.Context, id domain.TokenID) (*token.Token, bool, error)

	// OwnedIDs returns up to limit token ids held by owner that sort after `after`
	OwnedIDs(ctx context.Context, owner domain.Address, after domain.TokenID, limit int) ([]domain.TokenID, error)

	// HasIndexEntry reports whether the ownership index contains (owner, id)
	HasIndexEntry(ctx context.Context, owner domain.Address, id domain.TokenID) (bool, error)
}

// Accessor translates token reads and writes into host storage operations.
// It provides no atomicity of its own: callers group writes with a Batch
// inside the enclosing host transaction.
type Accessor interface {
	Tokens

	// Put writes the token record under its id
	Put(ctx context.Context, id domain.TokenID, t *token.Token) error

	// AddIndexEntry records that owner holds id
	AddIndexEntry(ctx context.Context, owner domain.Address, id domain.TokenID) error

	// DeleteIndexEntry removes the record that owner holds id
	DeleteIndexEntry(ctx context.Context, owner domain.Address, id domain.TokenID) error
}

type accessor struct {
	reader host.Reader
	store  host.Storage
}

// NewReader creates a read-only accessor, safe to use outside a transaction
func NewReader(r host.Reader) Tokens {
	return &accessor{reader: r}
}

// NewAccessor creates an accessor over transactional host storage
func NewAccessor(s host.Storage) Accessor {
	return &accessor{reader: s, store: s}
}

func (a *accessor) Get(ctx context.Context, id domain.TokenID) (*token.Token, bool, error) {
	data, ok, err := a.reader.Read(ctx, TokenKey(id))
	if err != nil {
		return nil, false, fmt.Errorf("failed to read token %s: %w", id, err)
	}
	if !ok {
		return nil, false, nil
	}

	var t token.Token
	if err := codec.Unmarshal(data, &t); err != nil {
		return nil, false, fmt.Errorf("failed to decode token %s: %w", id, err)
	}

	return &t, true, nil
}

func (a *accessor) OwnedIDs(ctx context.Context, owner domain.Address, after domain.TokenID, limit int) ([]domain.TokenID, error) {
	var afterKey string
	if after != "" {
		afterKey = IndexKey(owner, after)
	}

	entries, err := a.reader.Scan(ctx, OwnerPrefix(owner), afterKey, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to scan ownership index of %s: %w", owner, err)
	}

	ids := make([]domain.TokenID, 0, len(entries))
	for _, e := range entries {
		id, ok := tokenIDFromIndexKey(owner, e.Key)
		if !ok {
			continue
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func (a *accessor) HasIndexEntry(ctx context.Context, owner domain.Address, id domain.TokenID) (bool, error) {
	_, ok, err := a.reader.Read(ctx, IndexKey(owner, id))
	if err != nil {
		return false, fmt.Errorf("failed to read index entry: %w", err)
	}
	return ok, nil
}

func (a *accessor) Put(ctx context.Context, id domain.TokenID, t *token.Token) error {
	if t.ID != id {
		return fmt.Errorf("token record id %s does not match key %s", t.ID, id)
	}

	data, err := codec.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode token %s: %w", id, err)
	}

	if err := a.store.Write(ctx, TokenKey(id), data); err != nil {
		return fmt.Errorf("failed to write token %s: %w", id, err)
	}
	return nil
}

func (a *accessor) AddIndexEntry(ctx context.Context, owner domain.Address, id domain.TokenID) error {
	if err := a.store.Write(ctx, IndexKey(owner, id), indexMarker); err != nil {
		return fmt.Errorf("failed to add index entry: %w", err)
	}
	return nil
}

func (a *accessor) DeleteIndexEntry(ctx context.Context, owner domain.Address, id domain.TokenID) error {
	if err := a.store.Delete(ctx, IndexKey(owner, id)); err != nil {
		return fmt.Errorf("failed to delete index entry: %w", err)
	}
	return nil
}
