package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/nft-registry/internal/api/middleware"
	"github.com/feral-file/nft-registry/internal/domain"
	"github.com/feral-file/nft-registry/internal/ledger"
	"github.com/feral-file/nft-registry/internal/query"
)

// Handler defines the interface for REST API handlers
// This interface allows for easy mocking and testing
//
//go:generate mockgen -source=handler.go -destination=../../mocks/api_handler.go -package=mocks -mock_names=Handler=MockAPIHandler
type Handler interface {
	// SubmitTransaction admits a signed transaction into the mempool
	// POST /api/v1/transactions
	SubmitTransaction(c *gin.Context)

	// GetTransaction returns the receipt of a transaction
	// GET /api/v1/transactions/:tx_id
	GetTransaction(c *gin.Context)

	// GetToken returns a token as visible to the authenticated viewer
	// GET /api/v1/tokens/:token_id
	GetToken(c *gin.Context)

	// ListOwnedTokens returns a page of the tokens held by an address
	// GET /api/v1/owners/:address/tokens?limit=<limit>&after=<token_id>
	ListOwnedTokens(c *gin.Context)

	// HealthCheck returns the health status of the node
	// GET /health
	HealthCheck(c *gin.Context)
}

// SubmitResponse is the body of an accepted submission
type SubmitResponse struct {
	TxID string `json:"tx_id"`
}

// HealthResponse is the body of the health check
type HealthResponse struct {
	Status  string `json:"status"`
	ChainID string `json:"chain_id"`
	Height  uint64 `json:"height"`
}

// handler implements the Handler interface
type handler struct {
	chainID string
	node    ledger.Node
	query   query.Service
}

// NewHandler creates a new REST API handler
func NewHandler(chainID string, node ledger.Node, q query.Service) Handler {
	return &handler{
		chainID: chainID,
		node:    node,
		query:   q,
	}
}

// SubmitTransaction admits a signed transaction
func (h *handler) SubmitTransaction(c *gin.Context) {
	var tx ledger.SignedTx
	if err := c.ShouldBindJSON(&tx); err != nil {
		respondBadRequest(c, "Invalid transaction envelope", err.Error())
		return
	}

	txID, err := h.node.Submit(c.Request.Context(), tx)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrMalformedTx),
			errors.Is(err, ledger.ErrInvalidSignature),
			errors.Is(err, ledger.ErrWrongChain):
			respondBadRequest(c, "Transaction rejected", err.Error())
		case errors.Is(err, ledger.ErrDuplicateTx):
			respondWithError(c, http.StatusConflict, ErrCodeConflict, "Duplicate transaction", err.Error())
		case errors.Is(err, ledger.ErrRateLimited):
			respondWithError(c, http.StatusTooManyRequests, ErrCodeRateLimited, "Too many transactions", err.Error())
		case errors.Is(err, ledger.ErrMempoolFull):
			respondWithError(c, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Mempool is full, retry later")
		default:
			respondInternalError(c, err, "Failed to submit transaction")
		}
		return
	}

	c.JSON(http.StatusAccepted, SubmitResponse{TxID: txID})
}

// GetTransaction returns a receipt by transaction id
func (h *handler) GetTransaction(c *gin.Context) {
	txID := c.Param("tx_id")
	if txID == "" {
		respondBadRequest(c, "Transaction id is required")
		return
	}

	receipt, err := h.node.Receipt(c.Request.Context(), txID)
	if err != nil {
		if errors.Is(err, ledger.ErrUnknownTx) {
			respondNotFound(c, "Transaction not found")
			return
		}
		respondInternalError(c, err, "Failed to get transaction", zap.String("txID", txID))
		return
	}

	c.JSON(http.StatusOK, receipt)
}

// GetToken returns a single token
func (h *handler) GetToken(c *gin.Context) {
	id, err := domain.ParseTokenID(c.Param("token_id"))
	if err != nil {
		respondBadRequest(c, "Invalid token id", err.Error())
		return
	}

	view, err := h.query.GetToken(c.Request.Context(), id, middleware.Viewer(c))
	if err != nil {
		switch domain.KindOf(err) {
		case domain.KindNotFound:
			respondNotFound(c, "Token not found")
		case domain.KindSchema:
			respondValidationError(c, err.Error())
		default:
			respondInternalError(c, err, "Failed to get token", zap.String("tokenID", id.String()))
		}
		return
	}

	c.JSON(http.StatusOK, view)
}

// ListOwnedTokens returns a page of an owner's tokens
func (h *handler) ListOwnedTokens(c *gin.Context) {
	owner, err := domain.ParseAddress(c.Param("address"))
	if err != nil {
		respondBadRequest(c, "Invalid owner address", err.Error())
		return
	}

	params, err := ParseListOwnedQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}
	page, err := params.Validate()
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	result, err := h.query.ListOwned(c.Request.Context(), owner, middleware.Viewer(c), page)
	if err != nil {
		if domain.KindOf(err) == domain.KindSchema {
			respondValidationError(c, err.Error())
			return
		}
		respondInternalError(c, err, "Failed to list owned tokens", zap.String("owner", owner.String()))
		return
	}

	c.JSON(http.StatusOK, result)
}

// HealthCheck returns the health status of the node
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		ChainID: h.chainID,
		Height:  h.node.Height(),
	})
}
