package agent

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/feral-file/nft-registry/internal/api/rest"
	"github.com/feral-file/nft-registry/internal/domain"
	"github.com/feral-file/nft-registry/internal/ledger"
)

var (
	// ErrReceiptTimeout is returned when a transaction is not sealed in time
	ErrReceiptTimeout = errors.New("timed out waiting for receipt")
)

// TxError is a transaction that was sealed but rejected by the registry.
// It unwraps to the registry error of its kind so callers can branch with
// errors.Is and must not blindly resubmit non-retriable kinds.
type TxError struct {
	TxID    string
	Kind    domain.ErrorKind
	Message string
}

func (e *TxError) Error() string {
	return fmt.Sprintf("transaction %s rejected: %s: %s", e.TxID, e.Kind, e.Message)
}

func (e *TxError) Unwrap() error {
	return e.Kind.Sentinel()
}

// APIError is a non-2xx response of the node
type APIError struct {
	StatusCode int
	Code       rest.ErrorCode
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("node returned %d %s: %s: %s", e.StatusCode, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("node returned %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap maps admission failures to the ledger errors
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusConflict:
		return ledger.ErrDuplicateTx
	case http.StatusTooManyRequests:
		return ledger.ErrRateLimited
	case http.StatusServiceUnavailable:
		return ledger.ErrMempoolFull
	default:
		return nil
	}
}

// errorFromReceipt returns the rejection carried by a sealed receipt
func errorFromReceipt(r *ledger.Receipt) error {
	if r.Status != ledger.StatusRejected {
		return nil
	}
	if r.Result == nil {
		return &TxError{TxID: r.TxID, Kind: domain.KindInternal}
	}
	return &TxError{TxID: r.TxID, Kind: r.Result.ErrorKind, Message: r.Result.Error}
}
