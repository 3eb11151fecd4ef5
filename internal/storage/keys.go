package storage

import (
	"strings"

	"github.com/feral-file/nft-registry/internal/domain"
)

const (
	// TokenPrefix namespaces token records
	TokenPrefix = "token/"

	// OwnerIndexPrefix namespaces ownership index entries
	OwnerIndexPrefix = "owner_index/"
)

// indexMarker is the presence-only value stored for ownership index entries
var indexMarker = []byte{1}

// TokenKey returns the storage key of a token record
func TokenKey(id domain.TokenID) string {
	return TokenPrefix + string(id)
}

// OwnerPrefix returns the prefix under which all index entries of owner live
func OwnerPrefix(owner domain.Address) string {
	return OwnerIndexPrefix + string(owner) + "/"
}

// IndexKey returns the storage key of the index entry (owner, id)
func IndexKey(owner domain.Address, id domain.TokenID) string {
	return OwnerPrefix(owner) + string(id)
}

// tokenIDFromIndexKey extracts the token id from an index key under owner
func tokenIDFromIndexKey(owner domain.Address, key string) (domain.TokenID, bool) {
	id := strings.TrimPrefix(key, OwnerPrefix(owner))
	if id == key {
		return "", false
	}
	return domain.TokenID(id), true
}
