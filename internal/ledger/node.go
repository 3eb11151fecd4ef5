package ledger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/feral-file/nft-registry/internal/adapter"
	"github.com/feral-file/nft-registry/internal/dispatcher"
	"github.com/feral-file/nft-registry/internal/host"
	"github.com/feral-file/nft-registry/internal/logger"
	"github.com/feral-file/nft-registry/internal/messaging"
	"github.com/feral-file/nft-registry/internal/metrics"
	"github.com/feral-file/nft-registry/internal/ratelimit"
)

// HeightKey is the host storage key holding the last sealed block height
const HeightKey = "ledger/height"

// Config holds the block production settings
type Config struct {
	ChainID        string
	BlockInterval  time.Duration
	MaxTxsPerBlock int
	MempoolSize    int
}

// Dependencies are the collaborators of a node
type Dependencies struct {
	Backend    host.Backend
	Dispatcher dispatcher.Dispatcher
	Receipts   ReceiptStore
	Publisher  messaging.Publisher
	Limiter    ratelimit.Limiter
	Codec      TxCodec
	Clock      adapter.Clock
	Metrics    *metrics.Metrics
}

// Block is the summary of a sealed block
type Block struct {
	Height   uint64
	Time     time.Time
	Receipts []Receipt
}

// Node orders signed transactions into blocks and applies them through the dispatcher
//
//go:generate mockgen -source=node.go -destination=../mocks/ledger_node.go -package=mocks -mock_names=Node=MockLedgerNode
type Node interface {
	// Submit admits a signed transaction into the mempool and returns its id
	Submit(ctx context.Context, tx SignedTx) (string, error)

	// Receipt returns the receipt of a transaction, with status pending while it waits in the mempool
	Receipt(ctx context.Context, txID string) (*Receipt, error)

	// WaitReceipt blocks until the transaction is sealed or ctx is done
	WaitReceipt(ctx context.Context, txID string) (*Receipt, error)

	// SealBlock applies the pending transactions as one block. It returns nil when the mempool is empty.
	// Receipts that fail to persist are served from memory and written again before the next block.
	SealBlock(ctx context.Context) (*Block, error)

	// Height returns the last sealed block height
	Height() uint64

	// Run seals blocks until ctx is done
	Run(ctx context.Context) error
}

// pendingTx is a verified transaction waiting in the mempool
type pendingTx struct {
	VerifiedTx
	args []byte
}

type node struct {
	config Config
	deps   Dependencies

	height atomic.Uint64
	sealMu sync.Mutex

	mu      sync.Mutex
	mempool []*pendingTx
	pending map[string]*pendingTx
	unsaved map[string]Receipt
	blocks  uint64 // sealed since start, guards admission against concurrent sealing
	sealed  chan struct{}
	full    chan struct{}
}

// NewNode creates a node resuming from the height persisted in the backend
func NewNode(ctx context.Context, cfg Config, deps Dependencies) (Node, error) {
	if cfg.ChainID == "" {
		return nil, fmt.Errorf("chain id is required")
	}
	if cfg.BlockInterval <= 0 {
		cfg.BlockInterval = time.Second
	}
	if cfg.MaxTxsPerBlock <= 0 {
		cfg.MaxTxsPerBlock = 100
	}
	if cfg.MempoolSize <= 0 {
		cfg.MempoolSize = 10000
	}
	if deps.Publisher == nil {
		deps.Publisher = messaging.Nop()
	}

	n := &node{
		config:  cfg,
		deps:    deps,
		pending: make(map[string]*pendingTx),
		unsaved: make(map[string]Receipt),
		sealed:  make(chan struct{}),
		full:    make(chan struct{}, 1),
	}

	raw, ok, err := deps.Backend.Read(ctx, HeightKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read block height: %w", err)
	}
	if ok {
		if len(raw) != 8 {
			return nil, fmt.Errorf("invalid block height record of %d bytes", len(raw))
		}
		n.height.Store(binary.BigEndian.Uint64(raw))
	}

	logger.InfoCtx(ctx, "Ledger node initialized",
		zap.String("chainID", cfg.ChainID),
		zap.Uint64("height", n.height.Load()),
		zap.Duration("blockInterval", cfg.BlockInterval),
		zap.Int("maxTxsPerBlock", cfg.MaxTxsPerBlock),
	)

	return n, nil
}

func (n *node) Height() uint64 {
	return n.height.Load()
}

func (n *node) Submit(ctx context.Context, tx SignedTx) (string, error) {
	id, err := n.admit(ctx, tx)
	n.deps.Metrics.IncrementSubmission(submissionStatus(err))
	if err != nil {
		logger.WarnCtx(ctx, "Transaction rejected at submission", zap.Error(err))
		return "", err
	}
	return id, nil
}

func (n *node) admit(ctx context.Context, tx SignedTx) (string, error) {
	vtx, err := n.deps.Codec.Verify(tx)
	if err != nil {
		return "", err
	}
	if vtx.Payload.ChainID != n.config.ChainID {
		return "", fmt.Errorf("%w: expected %s, got %s", ErrWrongChain, n.config.ChainID, vtx.Payload.ChainID)
	}
	if !n.deps.Limiter.Allow(vtx.Signer.String()) {
		return "", fmt.Errorf("%w: signer %s", ErrRateLimited, vtx.Signer)
	}

	// A block sealed between the receipt lookup and the enqueue may have
	// applied this very transaction, so the lookup is repeated until no
	// block was sealed in between
	for {
		n.mu.Lock()
		known := n.knownLocked(vtx.ID)
		blocks := n.blocks
		n.mu.Unlock()
		if known {
			return "", fmt.Errorf("%w: %s", ErrDuplicateTx, vtx.ID)
		}

		existing, err := n.deps.Receipts.GetReceipt(ctx, vtx.ID)
		if err != nil {
			return "", fmt.Errorf("failed to look up receipt: %w", err)
		}
		if existing != nil {
			return "", fmt.Errorf("%w: %s", ErrDuplicateTx, vtx.ID)
		}

		n.mu.Lock()
		if n.blocks == blocks {
			break
		}
		n.mu.Unlock()
	}
	defer n.mu.Unlock()

	if n.knownLocked(vtx.ID) {
		return "", fmt.Errorf("%w: %s", ErrDuplicateTx, vtx.ID)
	}
	if len(n.mempool) >= n.config.MempoolSize {
		return "", ErrMempoolFull
	}

	ptx := &pendingTx{VerifiedTx: *vtx, args: vtx.Payload.Args}
	n.mempool = append(n.mempool, ptx)
	n.pending[vtx.ID] = ptx
	n.deps.Metrics.SetMempoolSize(len(n.mempool))

	if len(n.mempool) >= n.config.MaxTxsPerBlock {
		select {
		case n.full <- struct{}{}:
		default:
		}
	}

	logger.DebugCtx(ctx, "Transaction admitted",
		zap.String("txID", vtx.ID),
		zap.String("signer", vtx.Signer.String()),
		zap.String("method", string(vtx.Payload.Method)),
	)

	return vtx.ID, nil
}

// knownLocked reports whether txID waits in the mempool or was sealed with
// a receipt not yet persisted. n.mu must be held.
func (n *node) knownLocked(txID string) bool {
	if _, ok := n.pending[txID]; ok {
		return true
	}
	_, ok := n.unsaved[txID]
	return ok
}

func (n *node) Receipt(ctx context.Context, txID string) (*Receipt, error) {
	n.mu.Lock()
	ptx, ok := n.pending[txID]
	unsaved, sealed := n.unsaved[txID]
	n.mu.Unlock()
	if sealed {
		return &unsaved, nil
	}
	if ok {
		return &Receipt{
			TxID:   txID,
			Status: StatusPending,
			Signer: ptx.Signer,
			Method: ptx.Payload.Method,
		}, nil
	}

	r, err := n.deps.Receipts.GetReceipt(ctx, txID)
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTx, txID)
	}
	return r, nil
}

func (n *node) WaitReceipt(ctx context.Context, txID string) (*Receipt, error) {
	for {
		n.mu.Lock()
		sealed := n.sealed
		n.mu.Unlock()

		r, err := n.Receipt(ctx, txID)
		if err != nil {
			return nil, err
		}
		if r.Final() {
			return r, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-sealed:
		}
	}
}

func (n *node) SealBlock(ctx context.Context) (*Block, error) {
	n.sealMu.Lock()
	defer n.sealMu.Unlock()

	// A started block is applied to completion
	ctx = context.WithoutCancel(ctx)

	n.flushReceipts(ctx)

	n.mu.Lock()
	count := min(len(n.mempool), n.config.MaxTxsPerBlock)
	txs := make([]*pendingTx, count)
	copy(txs, n.mempool[:count])
	n.mu.Unlock()

	if count == 0 {
		return nil, nil
	}

	height := n.height.Load() + 1
	blockTime := n.deps.Clock.Now().UTC()

	if err := n.writeHeight(ctx, height); err != nil {
		return nil, err
	}

	block := &Block{
		Height:   height,
		Time:     blockTime,
		Receipts: make([]Receipt, 0, count),
	}
	for _, tx := range txs {
		env := host.Env{
			ChainID:     n.config.ChainID,
			BlockHeight: height,
			BlockTime:   blockTime,
			TxID:        tx.ID,
			Caller:      tx.Signer,
		}
		result := n.deps.Dispatcher.Dispatch(ctx, env, dispatcher.Call{
			Method: tx.Payload.Method,
			Args:   tx.args,
		})

		status := StatusRejected
		if result.OK {
			status = StatusApplied
			result.Event.ID = ulid.MustNewDefault(blockTime).String()
		}

		block.Receipts = append(block.Receipts, Receipt{
			TxID:        tx.ID,
			Status:      status,
			BlockHeight: height,
			BlockTime:   &block.Time,
			Signer:      tx.Signer,
			Method:      tx.Payload.Method,
			Result:      &result,
		})
	}

	// State is committed at this point, so the transactions leave the
	// mempool whether or not their receipts persist
	saveErr := n.deps.Receipts.SaveReceipts(ctx, block.Receipts)

	n.height.Store(height)

	n.mu.Lock()
	n.mempool = n.mempool[count:]
	for _, tx := range txs {
		delete(n.pending, tx.ID)
	}
	if saveErr != nil {
		for _, r := range block.Receipts {
			n.unsaved[r.TxID] = r
		}
	}
	n.blocks++
	close(n.sealed)
	n.sealed = make(chan struct{})
	remaining := len(n.mempool)
	n.mu.Unlock()

	n.deps.Metrics.SetMempoolSize(remaining)
	n.deps.Metrics.ObserveBlock(height, count)

	if saveErr != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to save receipts: %w", saveErr),
			zap.Uint64("height", height),
			zap.Int("txs", count),
		)
	}

	logger.InfoCtx(ctx, "Block sealed",
		zap.Uint64("height", height),
		zap.Int("txs", count),
		zap.Int("pending", remaining),
	)

	n.publish(ctx, block)

	return block, nil
}

// flushReceipts persists the receipts left over by an earlier failed write
func (n *node) flushReceipts(ctx context.Context) {
	n.mu.Lock()
	receipts := make([]Receipt, 0, len(n.unsaved))
	for _, r := range n.unsaved {
		receipts = append(receipts, r)
	}
	n.mu.Unlock()

	if len(receipts) == 0 {
		return
	}

	if err := n.deps.Receipts.SaveReceipts(ctx, receipts); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to save receipts: %w", err),
			zap.Int("unsaved", len(receipts)),
		)
		return
	}

	n.mu.Lock()
	for _, r := range receipts {
		delete(n.unsaved, r.TxID)
	}
	n.mu.Unlock()

	logger.InfoCtx(ctx, "Saved receipts of earlier blocks", zap.Int("count", len(receipts)))
}

// publish delivers the events of the applied transactions
func (n *node) publish(ctx context.Context, block *Block) {
	for _, r := range block.Receipts {
		if r.Status != StatusApplied {
			continue
		}
		if err := n.deps.Publisher.PublishEvent(ctx, r.Result.Event); err != nil {
			n.deps.Metrics.IncrementDelivery("publisher", "error")
			logger.ErrorCtx(ctx, err,
				zap.String("message", "Failed to publish event"),
				zap.String("txID", r.TxID),
				zap.Uint64("height", block.Height),
			)
			continue
		}
		n.deps.Metrics.IncrementDelivery("publisher", "ok")
	}
}

// writeHeight persists the height of the block being sealed
func (n *node) writeHeight(ctx context.Context, height uint64) error {
	txn, err := n.deps.Backend.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, height)
	if err := txn.Write(ctx, HeightKey, buf); err != nil {
		_ = txn.Rollback(ctx)
		return fmt.Errorf("failed to write block height: %w", err)
	}

	if err := txn.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit block height: %w", err)
	}
	return nil
}

func (n *node) Run(ctx context.Context) error {
	logger.InfoCtx(ctx, "Ledger node started", zap.Uint64("height", n.Height()))

	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Ledger node stopped", zap.Uint64("height", n.Height()))
			return ctx.Err()
		case <-n.deps.Clock.After(n.config.BlockInterval):
		case <-n.full:
		}

		if _, err := n.SealBlock(ctx); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("message", "Failed to seal block"))
		}
	}
}

// submissionStatus maps an admission error to a metrics label
func submissionStatus(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, ErrMalformedTx):
		return "malformed"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrWrongChain):
		return "wrong_chain"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrDuplicateTx):
		return "duplicate"
	case errors.Is(err, ErrMempoolFull):
		return "mempool_full"
	default:
		return "error"
	}
}
