package store

import (
	"github.com/feral-file/nft-registry/internal/host"
	"github.com/feral-file/nft-registry/internal/ledger"
)

// Store is the postgres-backed host storage and receipt log of a registry node
type Store interface {
	host.Backend
	ledger.ReceiptStore
}
