package ledger

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/oklog/ulid/v2"

	"github.com/feral-file/nft-registry/internal/adapter"
	"github.com/feral-file/nft-registry/internal/dispatcher"
	"github.com/feral-file/nft-registry/internal/domain"
)

const signatureLength = 65

// SignedTx is the transaction envelope submitted to the node
type SignedTx struct {
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"`
}

// Payload is the signed body of a transaction
type Payload struct {
	ChainID string            `json:"chain_id"`
	Nonce   string            `json:"nonce"`
	Method  dispatcher.Method `json:"method"`
	Args    json.RawMessage   `json:"args"`
}

// VerifiedTx is a transaction whose signer has been recovered
type VerifiedTx struct {
	ID      string
	Signer  domain.Address
	Payload Payload
}

// TxCodec canonicalizes, signs and verifies transactions.
// The signed digest is the EIP-191 text hash of the JCS form of the payload.
//
//go:generate mockgen -source=tx.go -destination=../mocks/tx_codec.go -package=mocks -mock_names=TxCodec=MockTxCodec
type TxCodec interface {
	// Sign signs payload with key
	Sign(payload Payload, key *ecdsa.PrivateKey) (*SignedTx, error)

	// Verify checks the envelope and recovers its signer
	Verify(tx SignedTx) (*VerifiedTx, error)
}

type txCodec struct {
	json adapter.JSON
	jcs  adapter.JCS
}

// NewTxCodec creates a transaction codec
func NewTxCodec(json adapter.JSON, jcs adapter.JCS) TxCodec {
	return &txCodec{
		json: json,
		jcs:  jcs,
	}
}

// NewNonce returns a fresh transaction nonce
func NewNonce(clock adapter.Clock) string {
	return ulid.MustNewDefault(clock.Now()).String()
}

func (c *txCodec) Sign(payload Payload, key *ecdsa.PrivateKey) (*SignedTx, error) {
	raw, err := c.json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	canonical, err := c.jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize payload: %w", err)
	}

	sig, err := crypto.Sign(accounts.TextHash(canonical), key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign payload: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27

	return &SignedTx{
		Payload:   canonical,
		Signature: hexutil.Encode(sig),
	}, nil
}

func (c *txCodec) Verify(tx SignedTx) (*VerifiedTx, error) {
	if len(tx.Payload) == 0 {
		return nil, fmt.Errorf("%w: missing payload", ErrMalformedTx)
	}

	canonical, err := c.jcs.Transform(tx.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTx, err)
	}

	var payload Payload
	if err := c.json.Unmarshal(canonical, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTx, err)
	}
	if err := validatePayload(payload); err != nil {
		return nil, err
	}

	sig, err := hexutil.Decode(tx.Signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if len(sig) != signatureLength {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSignature, signatureLength, len(sig))
	}
	// Wallets emit v as 27/28
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	digest := accounts.TextHash(canonical)
	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	signer := domain.AddressFromCommon(crypto.PubkeyToAddress(*pub))

	return &VerifiedTx{
		ID:      crypto.Keccak256Hash(digest, signer.Bytes()).Hex(),
		Signer:  signer,
		Payload: payload,
	}, nil
}

func validatePayload(p Payload) error {
	switch {
	case p.ChainID == "":
		return fmt.Errorf("%w: missing chain_id", ErrMalformedTx)
	case p.Method == "":
		return fmt.Errorf("%w: missing method", ErrMalformedTx)
	case p.Nonce == "":
		return fmt.Errorf("%w: missing nonce", ErrMalformedTx)
	}
	if _, err := ulid.ParseStrict(p.Nonce); err != nil {
		return fmt.Errorf("%w: invalid nonce: %v", ErrMalformedTx, err)
	}
	return nil
}
