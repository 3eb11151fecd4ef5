package schema

import "time"

// StateEntry represents the registry_state table - the host key-value storage of the registry
type StateEntry struct {
	// Key is the host storage key, compared in byte order
	Key string `gorm:"column:key;primaryKey;type:text"`
	// Value is the raw record stored at the key
	Value []byte `gorm:"column:value;not null;type:bytea"`
	// UpdatedAt is the timestamp of the last write
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime;type:timestamptz"`
}

// TableName specifies the table name for the StateEntry model
func (StateEntry) TableName() string {
	return "registry_state"
}
