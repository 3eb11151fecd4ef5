package logger

import (
	"go.uber.org/zap"

	"github.com/feral-file/nft-registry/internal/host"
)

// TxFields renders the host context of an entry point call as log fields
// so every line can be correlated with its transaction
func TxFields(env host.Env) []zap.Field {
	fields := []zap.Field{
		zap.Uint64("block_height", env.BlockHeight),
		zap.String("caller", env.Caller.String()),
	}
	if env.TxID != "" {
		fields = append(fields, zap.String("tx_id", env.TxID))
	}
	if env.ChainID != "" {
		fields = append(fields, zap.String("chain_id", env.ChainID))
	}
	return fields
}
