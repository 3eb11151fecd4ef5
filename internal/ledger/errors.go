package ledger

import "errors"

var (
	// ErrMalformedTx is returned when a transaction envelope or payload cannot be parsed
	ErrMalformedTx = errors.New("malformed transaction")

	// ErrInvalidSignature is returned when the signer cannot be recovered from the signature
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrWrongChain is returned when a payload targets another chain
	ErrWrongChain = errors.New("wrong chain id")

	// ErrRateLimited is returned when the signer exceeded its submission rate
	ErrRateLimited = errors.New("rate limited")

	// ErrDuplicateTx is returned when a transaction id is already pending or applied
	ErrDuplicateTx = errors.New("duplicate transaction")

	// ErrMempoolFull is returned when the mempool has no room for another transaction
	ErrMempoolFull = errors.New("mempool full")

	// ErrUnknownTx is returned when a transaction id is neither pending nor applied
	ErrUnknownTx = errors.New("unknown transaction")
)
