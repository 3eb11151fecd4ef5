package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/nft-registry/internal/dispatcher"
	"github.com/feral-file/nft-registry/internal/domain"
	"github.com/feral-file/nft-registry/internal/host"
	"github.com/feral-file/nft-registry/internal/ledger"
	"github.com/feral-file/nft-registry/internal/store/schema"
)

// ErrTxnDone is returned when a finished transaction is used
var ErrTxnDone = errors.New("transaction already committed or rolled back")

// writeBatchSize bounds the rows of one upsert statement
const writeBatchSize = 500

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// Migrate creates or updates the tables of the store
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&schema.StateEntry{}, &schema.TxReceipt{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// Zero settings fall back to the defaults of NormalizeConnectionPoolSettings.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// Read returns the value stored at key
func (s *pgStore) Read(ctx context.Context, key string) ([]byte, bool, error) {
	var entry schema.StateEntry
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read key: %w", err)
	}

	return entry.Value, true, nil
}

// Scan returns entries under prefix after the given key in byte order
func (s *pgStore) Scan(ctx context.Context, prefix string, after string, limit int) ([]host.Entry, error) {
	query := s.db.WithContext(ctx).
		Model(&schema.StateEntry{}).
		Where("starts_with(key, ?)", prefix).
		Order(`key COLLATE "C" ASC`)
	if after != "" {
		query = query.Where(`key COLLATE "C" > ?`, after)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []schema.StateEntry
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to scan prefix %s: %w", prefix, err)
	}

	entries := make([]host.Entry, len(rows))
	for i, row := range rows {
		entries[i] = host.Entry{Key: row.Key, Value: row.Value}
	}
	return entries, nil
}

// Begin opens a transaction buffering writes until Commit
func (s *pgStore) Begin(_ context.Context) (host.Txn, error) {
	return &pgTxn{Overlay: host.NewOverlay(s), store: s}, nil
}

// Close closes the underlying connection pool
func (s *pgStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// apply writes a change set in a single database transaction
func (s *pgStore) apply(ctx context.Context, puts []host.Entry, deletes []string) error {
	if len(puts) == 0 && len(deletes) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(deletes) > 0 {
			if err := tx.Where("key IN ?", deletes).Delete(&schema.StateEntry{}).Error; err != nil {
				return fmt.Errorf("failed to delete keys: %w", err)
			}
		}

		if len(puts) > 0 {
			rows := make([]schema.StateEntry, len(puts))
			for i, e := range puts {
				rows[i] = schema.StateEntry{Key: e.Key, Value: e.Value}
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).CreateInBatches(rows, writeBatchSize).Error
			if err != nil {
				return fmt.Errorf("failed to write keys: %w", err)
			}
		}

		return nil
	})
}

// SaveReceipts stores the receipts of a sealed block
func (s *pgStore) SaveReceipts(ctx context.Context, receipts []ledger.Receipt) error {
	if len(receipts) == 0 {
		return nil
	}

	rows := make([]schema.TxReceipt, len(receipts))
	for i, r := range receipts {
		var result []byte
		if r.Result != nil {
			var err error
			result, err = json.Marshal(r.Result)
			if err != nil {
				return fmt.Errorf("failed to marshal result: %w", err)
			}
		}
		rows[i] = schema.TxReceipt{
			TxID:        r.TxID,
			BlockHeight: r.BlockHeight,
			BlockTime:   r.BlockTime,
			Status:      string(r.Status),
			Signer:      r.Signer.String(),
			Method:      string(r.Method),
			Result:      result,
		}
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, writeBatchSize).Error
	if err != nil {
		return fmt.Errorf("failed to save receipts: %w", err)
	}

	return nil
}

// GetReceipt returns the receipt of txID, or nil when none is stored
func (s *pgStore) GetReceipt(ctx context.Context, txID string) (*ledger.Receipt, error) {
	var row schema.TxReceipt
	err := s.db.WithContext(ctx).Where("tx_id = ?", txID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}

	receipt := &ledger.Receipt{
		TxID:        row.TxID,
		Status:      ledger.Status(row.Status),
		BlockHeight: row.BlockHeight,
		BlockTime:   row.BlockTime,
		Signer:      domain.Address(row.Signer),
		Method:      dispatcher.Method(row.Method),
	}
	if len(row.Result) > 0 {
		var result dispatcher.Result
		if err := json.Unmarshal(row.Result, &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
		receipt.Result = &result
	}

	return receipt, nil
}

// pgTxn buffers writes in an overlay and applies them in one database transaction on commit
type pgTxn struct {
	*host.Overlay
	store *pgStore
	done  bool
}

func (t *pgTxn) Read(ctx context.Context, key string) ([]byte, bool, error) {
	if t.done {
		return nil, false, ErrTxnDone
	}
	return t.Overlay.Read(ctx, key)
}

func (t *pgTxn) Scan(ctx context.Context, prefix string, after string, limit int) ([]host.Entry, error) {
	if t.done {
		return nil, ErrTxnDone
	}
	return t.Overlay.Scan(ctx, prefix, after, limit)
}

func (t *pgTxn) Write(ctx context.Context, key string, value []byte) error {
	if t.done {
		return ErrTxnDone
	}
	return t.Overlay.Write(ctx, key, value)
}

func (t *pgTxn) Delete(ctx context.Context, key string) error {
	if t.done {
		return ErrTxnDone
	}
	return t.Overlay.Delete(ctx, key)
}

func (t *pgTxn) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxnDone
	}
	t.done = true

	puts, deletes := t.Changes()
	return t.store.apply(ctx, puts, deletes)
}

func (t *pgTxn) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.Reset()
	return nil
}
