package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/feral-file/nft-registry/internal/ledger"
)

var _ ledger.ReceiptStore = (*Backend)(nil)

func (b *Backend) receiptKey(txID string) string {
	return b.namespace + ":receipt:" + txID
}

// SaveReceipts stores the receipts of a sealed block. An existing receipt
// is never overwritten.
func (b *Backend) SaveReceipts(ctx context.Context, receipts []ledger.Receipt) error {
	if len(receipts) == 0 {
		return nil
	}

	values := make([][]byte, len(receipts))
	for i, r := range receipts {
		raw, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal receipt %s: %w", r.TxID, err)
		}
		values[i] = raw
	}

	_, err := b.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for i, r := range receipts {
			pipe.SetNX(ctx, b.receiptKey(r.TxID), values[i], 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save receipts: %w", err)
	}
	return nil
}

// GetReceipt returns the receipt of txID, or nil when none is stored
func (b *Backend) GetReceipt(ctx context.Context, txID string) (*ledger.Receipt, error) {
	raw, err := b.client.Get(ctx, b.receiptKey(txID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}

	var receipt ledger.Receipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal receipt: %w", err)
	}
	return &receipt, nil
}
