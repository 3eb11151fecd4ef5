package agent

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/feral-file/nft-registry/internal/adapter"
	"github.com/feral-file/nft-registry/internal/api/rest"
	"github.com/feral-file/nft-registry/internal/dispatcher"
	"github.com/feral-file/nft-registry/internal/domain"
	"github.com/feral-file/nft-registry/internal/ledger"
	"github.com/feral-file/nft-registry/internal/logger"
	"github.com/feral-file/nft-registry/internal/query"
	"github.com/feral-file/nft-registry/internal/token"
)

// Config holds the agent client settings
type Config struct {
	// NodeURL is the base URL of the registry node
	NodeURL string
	// ChainID is fetched from the node when empty
	ChainID string
	// PrivateKey signs every submitted transaction
	PrivateKey *ecdsa.PrivateKey
	// AccessToken is sent as the bearer viewer identity on queries
	AccessToken string

	PollInitialInterval time.Duration
	PollMaxInterval     time.Duration
	ReceiptTimeout      time.Duration
}

// TokenView is a token as returned to the viewer. Token is nil when redacted.
type TokenView struct {
	TokenID domain.TokenID `json:"token_id"`
	Exists  bool           `json:"exists"`
	Token   *token.Token   `json:"token,omitempty"`
}

// Redacted reports whether the node withheld the record from the caller
func (v TokenView) Redacted() bool {
	return v.Token == nil
}

// OwnedPage is a page of an owner's tokens
type OwnedPage struct {
	Items []TokenView     `json:"items"`
	Next  *domain.TokenID `json:"next,omitempty"`
}

// Client mints, transfers and queries tokens through a registry node.
// The mutating calls submit a signed transaction and wait for its receipt;
// a rejected transaction is returned with a *TxError carrying the registry
// error kind.
//
//go:generate mockgen -source=client.go -destination=../mocks/agent_client.go -package=mocks -mock_names=Client=MockAgentClient
type Client interface {
	// Address returns the signer address of the agent
	Address() domain.Address

	// Mint mints a token
	Mint(ctx context.Context, req dispatcher.MintRequest) (*ledger.Receipt, error)

	// Transfer transfers a token
	Transfer(ctx context.Context, req dispatcher.TransferRequest) (*ledger.Receipt, error)

	// UpdateMetadata replaces the metadata of a token
	UpdateMetadata(ctx context.Context, req dispatcher.UpdateMetadataRequest) (*ledger.Receipt, error)

	// Burn burns a token
	Burn(ctx context.Context, req dispatcher.BurnRequest) (*ledger.Receipt, error)

	// Approve grants or revokes the delegated-transfer operator of a token
	Approve(ctx context.Context, req dispatcher.ApproveRequest) (*ledger.Receipt, error)

	// SetViewList replaces the view list of a token
	SetViewList(ctx context.Context, req dispatcher.SetViewListRequest) (*ledger.Receipt, error)

	// Submit signs and submits a call and returns its transaction id
	Submit(ctx context.Context, method dispatcher.Method, args interface{}) (string, error)

	// GetReceipt returns the current receipt of a transaction
	GetReceipt(ctx context.Context, txID string) (*ledger.Receipt, error)

	// WaitReceipt polls until the transaction is sealed
	WaitReceipt(ctx context.Context, txID string) (*ledger.Receipt, error)

	// GetToken returns a token as visible to the agent's viewer identity
	GetToken(ctx context.Context, id domain.TokenID) (*TokenView, error)

	// ListOwned returns a page of the tokens held by owner
	ListOwned(ctx context.Context, owner domain.Address, page query.Page) (*OwnedPage, error)
}

type client struct {
	config  Config
	http    adapter.HTTPClient
	codec   ledger.TxCodec
	json    adapter.JSON
	clock   adapter.Clock
	address domain.Address

	mu      sync.Mutex
	chainID string
}

// NewClient creates an agent client
func NewClient(cfg Config, httpClient adapter.HTTPClient, codec ledger.TxCodec, json adapter.JSON, clock adapter.Clock) (Client, error) {
	if cfg.NodeURL == "" {
		return nil, fmt.Errorf("node URL is required")
	}
	if cfg.PrivateKey == nil {
		return nil, fmt.Errorf("private key is required")
	}
	if cfg.PollInitialInterval <= 0 {
		cfg.PollInitialInterval = 250 * time.Millisecond
	}
	if cfg.PollMaxInterval <= 0 {
		cfg.PollMaxInterval = 2 * time.Second
	}
	if cfg.ReceiptTimeout <= 0 {
		cfg.ReceiptTimeout = 30 * time.Second
	}
	cfg.NodeURL = strings.TrimRight(cfg.NodeURL, "/")

	return &client{
		config:  cfg,
		http:    httpClient,
		codec:   codec,
		json:    json,
		clock:   clock,
		address: domain.AddressFromCommon(crypto.PubkeyToAddress(cfg.PrivateKey.PublicKey)),
		chainID: cfg.ChainID,
	}, nil
}

func (c *client) Address() domain.Address {
	return c.address
}

func (c *client) Mint(ctx context.Context, req dispatcher.MintRequest) (*ledger.Receipt, error) {
	return c.execute(ctx, dispatcher.MethodMint, req)
}

func (c *client) Transfer(ctx context.Context, req dispatcher.TransferRequest) (*ledger.Receipt, error) {
	return c.execute(ctx, dispatcher.MethodTransfer, req)
}

func (c *client) UpdateMetadata(ctx context.Context, req dispatcher.UpdateMetadataRequest) (*ledger.Receipt, error) {
	return c.execute(ctx, dispatcher.MethodUpdateMetadata, req)
}

func (c *client) Burn(ctx context.Context, req dispatcher.BurnRequest) (*ledger.Receipt, error) {
	return c.execute(ctx, dispatcher.MethodBurn, req)
}

func (c *client) Approve(ctx context.Context, req dispatcher.ApproveRequest) (*ledger.Receipt, error) {
	return c.execute(ctx, dispatcher.MethodApprove, req)
}

func (c *client) SetViewList(ctx context.Context, req dispatcher.SetViewListRequest) (*ledger.Receipt, error) {
	return c.execute(ctx, dispatcher.MethodSetViewList, req)
}

// execute submits a call and waits for its receipt
func (c *client) execute(ctx context.Context, method dispatcher.Method, args interface{}) (*ledger.Receipt, error) {
	txID, err := c.Submit(ctx, method, args)
	if err != nil {
		return nil, err
	}

	receipt, err := c.WaitReceipt(ctx, txID)
	if err != nil {
		return nil, err
	}

	return receipt, errorFromReceipt(receipt)
}

func (c *client) Submit(ctx context.Context, method dispatcher.Method, args interface{}) (string, error) {
	chainID, err := c.resolveChainID(ctx)
	if err != nil {
		return "", err
	}

	rawArgs, err := c.json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("failed to marshal args: %w", err)
	}

	tx, err := c.codec.Sign(ledger.Payload{
		ChainID: chainID,
		Nonce:   ledger.NewNonce(c.clock),
		Method:  method,
		Args:    rawArgs,
	}, c.config.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	body, err := c.json.Marshal(tx)
	if err != nil {
		return "", fmt.Errorf("failed to marshal transaction: %w", err)
	}

	var resp rest.SubmitResponse
	if err := c.call(ctx, http.MethodPost, "/api/v1/transactions", body, &resp); err != nil {
		return "", fmt.Errorf("failed to submit transaction: %w", err)
	}

	logger.DebugCtx(ctx, "Transaction submitted",
		zap.String("txID", resp.TxID),
		zap.String("method", string(method)),
		zap.String("signer", c.address.String()),
	)

	return resp.TxID, nil
}

func (c *client) GetReceipt(ctx context.Context, txID string) (*ledger.Receipt, error) {
	var receipt ledger.Receipt
	err := c.call(ctx, http.MethodGet, "/api/v1/transactions/"+url.PathEscape(txID), nil, &receipt)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ledger.ErrUnknownTx, txID)
		}
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return &receipt, nil
}

func (c *client) WaitReceipt(ctx context.Context, txID string) (*ledger.Receipt, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.config.PollInitialInterval
	b.MaxInterval = c.config.PollMaxInterval
	b.MaxElapsedTime = c.config.ReceiptTimeout

	var receipt *ledger.Receipt
	operation := func() error {
		r, err := c.GetReceipt(ctx, txID)
		if err != nil {
			// The node lost the transaction, polling will not bring it back
			if errors.Is(err, ledger.ErrUnknownTx) {
				return backoff.Permanent(err)
			}
			return err
		}
		if !r.Final() {
			return fmt.Errorf("transaction %s is pending", txID)
		}
		receipt = r
		return nil
	}

	notify := func(err error, d time.Duration) {
		logger.DebugCtx(ctx, "Receipt not ready, retrying",
			zap.String("txID", txID),
			zap.Duration("retryIn", d),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		if errors.Is(err, ledger.ErrUnknownTx) || ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w %s: %v", ErrReceiptTimeout, txID, err)
	}

	return receipt, nil
}

func (c *client) GetToken(ctx context.Context, id domain.TokenID) (*TokenView, error) {
	var view TokenView
	if err := c.call(ctx, http.MethodGet, "/api/v1/tokens/"+id.String(), nil, &view); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &view, nil
}

func (c *client) ListOwned(ctx context.Context, owner domain.Address, page query.Page) (*OwnedPage, error) {
	params := url.Values{}
	if page.Limit > 0 {
		params.Set("limit", strconv.Itoa(page.Limit))
	}
	if page.After != "" {
		params.Set("after", page.After.String())
	}

	path := fmt.Sprintf("/api/v1/owners/%s/tokens", owner)
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var result OwnedPage
	if err := c.call(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, fmt.Errorf("failed to list owned tokens: %w", err)
	}
	return &result, nil
}

// resolveChainID returns the configured chain id or reads it from the node
func (c *client) resolveChainID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.chainID != "" {
		return c.chainID, nil
	}

	var health rest.HealthResponse
	if err := c.call(ctx, http.MethodGet, "/health", nil, &health); err != nil {
		return "", fmt.Errorf("failed to fetch chain id: %w", err)
	}
	if health.ChainID == "" {
		return "", fmt.Errorf("node reported an empty chain id")
	}
	c.chainID = health.ChainID

	return c.chainID, nil
}

// call performs a request and decodes a 2xx body into out
func (c *client) call(ctx context.Context, method, path string, body []byte, out interface{}) error {
	headers := map[string]string{
		"Accept": "application/json",
	}
	if body != nil {
		headers["Content-Type"] = "application/json"
	}
	if c.config.AccessToken != "" {
		headers["Authorization"] = "Bearer " + c.config.AccessToken
	}

	resp, err := c.http.Do(ctx, method, c.config.NodeURL+path, headers, body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp rest.ErrorResponse
		if err := c.json.Unmarshal(resp.Body, &errResp); err == nil {
			apiErr.Code = errResp.Error.Code
			apiErr.Message = errResp.Error.Message
			apiErr.Details = errResp.Error.Details
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := c.json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
