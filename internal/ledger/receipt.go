package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/feral-file/nft-registry/internal/dispatcher"
	"github.com/feral-file/nft-registry/internal/domain"
)

// Status is the lifecycle state of a submitted transaction
type Status string

const (
	StatusPending  Status = "pending"
	StatusApplied  Status = "applied"
	StatusRejected Status = "rejected"
)

// Receipt records the outcome of a transaction
type Receipt struct {
	TxID        string             `json:"tx_id"`
	Status      Status             `json:"status"`
	BlockHeight uint64             `json:"block_height,omitempty"`
	BlockTime   *time.Time         `json:"block_time,omitempty"`
	Signer      domain.Address     `json:"signer"`
	Method      dispatcher.Method  `json:"method"`
	Result      *dispatcher.Result `json:"result,omitempty"`
}

// Final reports whether the transaction has been sealed into a block
func (r *Receipt) Final() bool {
	return r != nil && r.Status != StatusPending
}

// ReceiptStore persists receipts of sealed transactions
//
//go:generate mockgen -source=receipt.go -destination=../mocks/receipt_store.go -package=mocks -mock_names=ReceiptStore=MockReceiptStore
type ReceiptStore interface {
	// SaveReceipts stores the receipts of a sealed block. A stored receipt is never overwritten.
	SaveReceipts(ctx context.Context, receipts []Receipt) error

	// GetReceipt returns the receipt of txID, or nil when none is stored
	GetReceipt(ctx context.Context, txID string) (*Receipt, error)
}

type memoryReceipts struct {
	mu       sync.RWMutex
	receipts map[string]Receipt
}

// NewMemoryReceiptStore creates a receipt store held in memory
func NewMemoryReceiptStore() ReceiptStore {
	return &memoryReceipts{receipts: make(map[string]Receipt)}
}

func (m *memoryReceipts) SaveReceipts(_ context.Context, receipts []Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range receipts {
		if _, ok := m.receipts[r.TxID]; ok {
			continue
		}
		m.receipts[r.TxID] = r
	}
	return nil
}

func (m *memoryReceipts) GetReceipt(_ context.Context, txID string) (*Receipt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.receipts[txID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}
