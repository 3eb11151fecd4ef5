package storage

import (
	"context"

	"github.com/feral-file/nft-registry/internal/domain"
	"github.com/feral-file/nft-registry/internal/token"
)

type indexEntry struct {
	owner domain.Address
	id    domain.TokenID
}

// Batch is the unit of work for one registry mutation: the token record write
// and its ownership index updates are collected first and issued together.
type Batch struct {
	puts []*token.Token
	adds []indexEntry
	dels []indexEntry
}

// NewBatch creates an empty batch
func NewBatch() *Batch {
	return &Batch{}
}

// Put stages a token record write
func (b *Batch) Put(t *token.Token) *Batch {
	b.puts = append(b.puts, t)
	return b
}

// AddIndexEntry stages an ownership index insertion
func (b *Batch) AddIndexEntry(owner domain.Address, id domain.TokenID) *Batch {
	b.adds = append(b.adds, indexEntry{owner: owner, id: id})
	return b
}

// DeleteIndexEntry stages an ownership index removal
func (b *Batch) DeleteIndexEntry(owner domain.Address, id domain.TokenID) *Batch {
	b.dels = append(b.dels, indexEntry{owner: owner, id: id})
	return b
}

// Apply issues the staged operations: index removals, record writes, then
// index insertions. A failure part way leaves partial writes in the
// transaction, which the caller must roll back.
func (b *Batch) Apply(ctx context.Context, a Accessor) error {
	for _, e := range b.dels {
		if err := a.DeleteIndexEntry(ctx, e.owner, e.id); err != nil {
			return err
		}
	}
	for _, t := range b.puts {
		if err := a.Put(ctx, t.ID, t); err != nil {
			return err
		}
	}
	for _, e := range b.adds {
		if err := a.AddIndexEntry(ctx, e.owner, e.id); err != nil {
			return err
		}
	}
	return nil
}
