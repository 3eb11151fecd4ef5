package rest_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/nft-registry/internal/api/middleware"
	"github.com/feral-file/nft-registry/internal/api/rest"
	"github.com/feral-file/nft-registry/internal/domain"
	"github.com/feral-file/nft-registry/internal/ledger"
	"github.com/feral-file/nft-registry/internal/logger"
	"github.com/feral-file/nft-registry/internal/mocks"
	"github.com/feral-file/nft-registry/internal/policy"
	"github.com/feral-file/nft-registry/internal/query"
	"github.com/feral-file/nft-registry/internal/token"
)

const (
	alice   = domain.Address("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	tokenID = domain.TokenID("0x00000000000000000000000000000000000000000000000000000000000000aa")
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	gin.SetMode(gin.TestMode)

	code := m.Run()
	os.Exit(code)
}

type testHandlerMocks struct {
	ctrl  *gomock.Controller
	node  *mocks.MockLedgerNode
	query *mocks.MockQueryService
}

func setupRouter(t *testing.T) (*gin.Engine, *testHandlerMocks) {
	ctrl := gomock.NewController(t)
	tm := &testHandlerMocks{
		ctrl:  ctrl,
		node:  mocks.NewMockLedgerNode(ctrl),
		query: mocks.NewMockQueryService(ctrl),
	}

	auth, err := middleware.NewAuthenticator(middleware.AuthConfig{})
	require.NoError(t, err)

	router := gin.New()
	rest.SetupRoutes(router, rest.NewHandler("test-chain", tm.node, tm.query), auth)
	return router, tm
}

func perform(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) rest.ErrorCode {
	t.Helper()
	var resp rest.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestSubmitTransaction(t *testing.T) {
	envelope := []byte(`{"payload":{"chain_id":"test-chain"},"signature":"0x00"}`)

	tests := []struct {
		name           string
		body           []byte
		setupMocks     func(*testHandlerMocks)
		expectedStatus int
		expectedCode   rest.ErrorCode
	}{
		{
			name: "accepted",
			body: envelope,
			setupMocks: func(m *testHandlerMocks) {
				m.node.EXPECT().Submit(gomock.Any(), gomock.Any()).Return("0xabc", nil)
			},
			expectedStatus: http.StatusAccepted,
		},
		{
			name:           "invalid JSON",
			body:           []byte(`{`),
			setupMocks:     func(m *testHandlerMocks) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   rest.ErrCodeBadRequest,
		},
		{
			name: "bad signature",
			body: envelope,
			setupMocks: func(m *testHandlerMocks) {
				m.node.EXPECT().Submit(gomock.Any(), gomock.Any()).Return("", fmt.Errorf("%w: short", ledger.ErrInvalidSignature))
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   rest.ErrCodeBadRequest,
		},
		{
			name: "duplicate",
			body: envelope,
			setupMocks: func(m *testHandlerMocks) {
				m.node.EXPECT().Submit(gomock.Any(), gomock.Any()).Return("", ledger.ErrDuplicateTx)
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   rest.ErrCodeConflict,
		},
		{
			name: "rate limited",
			body: envelope,
			setupMocks: func(m *testHandlerMocks) {
				m.node.EXPECT().Submit(gomock.Any(), gomock.Any()).Return("", ledger.ErrRateLimited)
			},
			expectedStatus: http.StatusTooManyRequests,
			expectedCode:   rest.ErrCodeRateLimited,
		},
		{
			name: "mempool full",
			body: envelope,
			setupMocks: func(m *testHandlerMocks) {
				m.node.EXPECT().Submit(gomock.Any(), gomock.Any()).Return("", ledger.ErrMempoolFull)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedCode:   rest.ErrCodeServiceUnavailable,
		},
		{
			name: "internal failure",
			body: envelope,
			setupMocks: func(m *testHandlerMocks) {
				m.node.EXPECT().Submit(gomock.Any(), gomock.Any()).Return("", errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   rest.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, m := setupRouter(t)
			defer m.ctrl.Finish()
			tt.setupMocks(m)

			w := perform(router, http.MethodPost, "/api/v1/transactions", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, errorCode(t, w))
			} else {
				assert.JSONEq(t, `{"tx_id":"0xabc"}`, w.Body.String())
			}
		})
	}
}

func TestGetTransaction(t *testing.T) {
	t.Run("receipt", func(t *testing.T) {
		router, m := setupRouter(t)
		defer m.ctrl.Finish()

		m.node.EXPECT().Receipt(gomock.Any(), "0xabc").Return(&ledger.Receipt{TxID: "0xabc", Status: ledger.StatusPending}, nil)

		w := perform(router, http.MethodGet, "/api/v1/transactions/0xabc", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var r ledger.Receipt
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
		assert.Equal(t, ledger.StatusPending, r.Status)
	})

	t.Run("unknown", func(t *testing.T) {
		router, m := setupRouter(t)
		defer m.ctrl.Finish()

		m.node.EXPECT().Receipt(gomock.Any(), "0xabc").Return(nil, ledger.ErrUnknownTx)

		w := perform(router, http.MethodGet, "/api/v1/transactions/0xabc", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, rest.ErrCodeNotFound, errorCode(t, w))
	})
}

func TestGetToken(t *testing.T) {
	full := &policy.FullView{Token: &token.Token{ID: tokenID, Owner: alice, Creator: alice, Metadata: token.Metadata{"name": token.Text("x")}}}

	tests := []struct {
		name           string
		path           string
		setupMocks     func(*testHandlerMocks)
		expectedStatus int
		validateFunc   func(t *testing.T, body []byte)
	}{
		{
			name: "full view",
			path: "/api/v1/tokens/" + string(tokenID),
			setupMocks: func(m *testHandlerMocks) {
				m.query.EXPECT().GetToken(gomock.Any(), tokenID, domain.Address("")).Return(full, nil)
			},
			expectedStatus: http.StatusOK,
			validateFunc: func(t *testing.T, body []byte) {
				var resp map[string]interface{}
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.NotContains(t, resp, "redacted")
				assert.NotNil(t, resp["token"])
			},
		},
		{
			name: "upper-case id is normalized",
			path: "/api/v1/tokens/0x00000000000000000000000000000000000000000000000000000000000000AA",
			setupMocks: func(m *testHandlerMocks) {
				m.query.EXPECT().GetToken(gomock.Any(), tokenID, gomock.Any()).Return(&policy.RedactedView{ID: tokenID, Exists: true}, nil)
			},
			expectedStatus: http.StatusOK,
			validateFunc: func(t *testing.T, body []byte) {
				assert.JSONEq(t, `{"token_id":"`+string(tokenID)+`","exists":true}`, string(body))
			},
		},
		{
			name:           "invalid id",
			path:           "/api/v1/tokens/42",
			setupMocks:     func(m *testHandlerMocks) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "never minted",
			path: "/api/v1/tokens/" + string(tokenID),
			setupMocks: func(m *testHandlerMocks) {
				m.query.EXPECT().GetToken(gomock.Any(), tokenID, gomock.Any()).Return(nil, domain.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "storage failure",
			path: "/api/v1/tokens/" + string(tokenID),
			setupMocks: func(m *testHandlerMocks) {
				m.query.EXPECT().GetToken(gomock.Any(), tokenID, gomock.Any()).Return(nil, errors.New("read failed"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, m := setupRouter(t)
			defer m.ctrl.Finish()
			tt.setupMocks(m)

			w := perform(router, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.validateFunc != nil {
				tt.validateFunc(t, w.Body.Bytes())
			}
		})
	}
}

func TestListOwnedTokens(t *testing.T) {
	next := tokenID

	tests := []struct {
		name           string
		path           string
		setupMocks     func(*testHandlerMocks)
		expectedStatus int
	}{
		{
			name: "default page",
			path: "/api/v1/owners/" + string(alice) + "/tokens",
			setupMocks: func(m *testHandlerMocks) {
				m.query.EXPECT().ListOwned(gomock.Any(), alice, domain.Address(""), query.Page{Limit: 50}).
					Return(&query.OwnedPage{Items: []policy.View{}, Next: &next}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "lower-case address and cursor",
			path: "/api/v1/owners/0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed/tokens?limit=10&after=" + string(tokenID),
			setupMocks: func(m *testHandlerMocks) {
				m.query.EXPECT().ListOwned(gomock.Any(), alice, gomock.Any(), query.Page{Limit: 10, After: tokenID}).
					Return(&query.OwnedPage{Items: []policy.View{}}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid address",
			path:           "/api/v1/owners/alice/tokens",
			setupMocks:     func(m *testHandlerMocks) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "limit out of range",
			path:           "/api/v1/owners/" + string(alice) + "/tokens?limit=1000",
			setupMocks:     func(m *testHandlerMocks) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid cursor",
			path:           "/api/v1/owners/" + string(alice) + "/tokens?after=xyz",
			setupMocks:     func(m *testHandlerMocks) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, m := setupRouter(t)
			defer m.ctrl.Finish()
			tt.setupMocks(m)

			w := perform(router, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestHealthCheck(t *testing.T) {
	router, m := setupRouter(t)
	defer m.ctrl.Finish()

	m.node.EXPECT().Height().Return(uint64(9))

	w := perform(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","chain_id":"test-chain","height":9}`, w.Body.String())
}
