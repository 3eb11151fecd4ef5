package registry

import (
	"fmt"

	"github.com/feral-file/nft-registry/internal/adapter"
	"github.com/feral-file/nft-registry/internal/domain"
)

// MinterRegistry answers whether an address holds the minter role
//
//go:generate mockgen -source=minters.go -destination=../mocks/minter_registry.go -package=mocks -mock_names=MinterRegistry=MockMinterRegistry
type MinterRegistry interface {
	// IsMinter checks if an address may mint and update metadata of any token
	IsMinter(addr domain.Address) bool

	// Minters returns the configured minters in load order
	Minters() []domain.Address
}

// MinterAllowlist represents the structure of the minter allow-list file
type MinterAllowlist struct {
	Minters []string `json:"minters"`
}

// minterRegistry is the internal implementation of MinterRegistry
type minterRegistry struct {
	ordered []domain.Address
	// Fast lookup map: checksummed address -> true
	lookup map[domain.Address]bool
}

// NewMinterRegistry creates a registry from addresses. Duplicates are dropped.
func NewMinterRegistry(addrs []domain.Address) MinterRegistry {
	m := &minterRegistry{lookup: make(map[domain.Address]bool)}
	for _, a := range addrs {
		if m.lookup[a] {
			continue
		}
		m.lookup[a] = true
		m.ordered = append(m.ordered, a)
	}
	return m
}

// IsMinter checks if an address may mint
func (m *minterRegistry) IsMinter(addr domain.Address) bool {
	if m == nil {
		return false
	}
	return m.lookup[addr]
}

// Minters returns the configured minters
func (m *minterRegistry) Minters() []domain.Address {
	if m == nil {
		return nil
	}
	return append([]domain.Address{}, m.ordered...)
}

// MinterAllowlistLoader loads minter allow-lists from disk
type MinterAllowlistLoader struct {
	fs   adapter.FileSystem
	json adapter.JSON
}

// NewMinterAllowlistLoader creates a new loader
func NewMinterAllowlistLoader(fs adapter.FileSystem, json adapter.JSON) *MinterAllowlistLoader {
	return &MinterAllowlistLoader{fs: fs, json: json}
}

// Load reads a minter allow-list file. Addresses are normalized to checksum form.
func (l *MinterAllowlistLoader) Load(filePath string) (MinterRegistry, error) {
	data, err := l.fs.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read minter allow-list file: %w", err)
	}

	var allowlist MinterAllowlist
	if err := l.json.Unmarshal(data, &allowlist); err != nil {
		return nil, fmt.Errorf("failed to parse minter allow-list JSON: %w", err)
	}

	addrs := make([]domain.Address, 0, len(allowlist.Minters))
	for i, raw := range allowlist.Minters {
		addr, err := domain.ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid minter at index %d: %w", i, err)
		}
		addrs = append(addrs, addr)
	}

	return NewMinterRegistry(addrs), nil
}
