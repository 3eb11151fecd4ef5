package schema

import (
	"time"

	"gorm.io/datatypes"
)

// TxReceipt represents the tx_receipts table - the outcome of every sealed transaction
type TxReceipt struct {
	// TxID is the transaction id (0x-prefixed keccak hash)
	TxID string `gorm:"column:tx_id;primaryKey;type:varchar(66)"`
	// BlockHeight is the height of the block the transaction was sealed in
	BlockHeight uint64 `gorm:"column:block_height;not null;index"`
	// BlockTime is the timestamp of that block
	BlockTime *time.Time `gorm:"column:block_time;type:timestamptz"`
	// Status is applied or rejected
	Status string `gorm:"column:status;not null;type:varchar(16)"`
	// Signer is the recovered caller address
	Signer string `gorm:"column:signer;not null;type:varchar(42);index"`
	// Method is the entry point the transaction called
	Method string `gorm:"column:method;not null;type:varchar(32)"`
	// Result is the dispatcher result as JSON
	Result datatypes.JSON `gorm:"column:result;type:jsonb"`
	// CreatedAt is the timestamp when this receipt was stored
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;type:timestamptz"`
}

// TableName specifies the table name for the TxReceipt model
func (TxReceipt) TableName() string {
	return "tx_receipts"
}
