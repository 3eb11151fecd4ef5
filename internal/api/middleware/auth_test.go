package middleware_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/nft-registry/internal/api/middleware"
	"github.com/feral-file/nft-registry/internal/logger"
)

const alice = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

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

func generateKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	return key, string(pemKey)
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.RegisteredClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestViewerAuth(t *testing.T) {
	key, pubPEM := generateKey(t)
	otherKey, _ := generateKey(t)

	valid := jwt.RegisteredClaims{
		Subject:   "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	hmacToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, valid).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name           string
		publicKey      string
		header         string
		expectedStatus int
		expectedViewer string
	}{
		{
			name:           "anonymous without header",
			publicKey:      pubPEM,
			expectedStatus: http.StatusOK,
			expectedViewer: "",
		},
		{
			name:           "valid token resolves checksummed viewer",
			publicKey:      pubPEM,
			header:         "Bearer " + signToken(t, key, valid),
			expectedStatus: http.StatusOK,
			expectedViewer: alice,
		},
		{
			name:      "expired token",
			publicKey: pubPEM,
			header: "Bearer " + signToken(t, key, jwt.RegisteredClaims{
				Subject:   alice,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			}),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "token without expiry",
			publicKey:      pubPEM,
			header:         "Bearer " + signToken(t, key, jwt.RegisteredClaims{Subject: alice}),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "token signed by another key",
			publicKey:      pubPEM,
			header:         "Bearer " + signToken(t, otherKey, valid),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "hmac token",
			publicKey:      pubPEM,
			header:         "Bearer " + hmacToken,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:      "subject is not an address",
			publicKey: pubPEM,
			header: "Bearer " + signToken(t, key, jwt.RegisteredClaims{
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			}),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "unsupported scheme",
			publicKey:      pubPEM,
			header:         "ApiKey abc",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "no key configured",
			header:         "Bearer " + signToken(t, key, valid),
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth, err := middleware.NewAuthenticator(middleware.AuthConfig{JWTPublicKey: tt.publicKey})
			require.NoError(t, err)

			router := gin.New()
			var viewer string
			router.GET("/", middleware.ViewerAuth(auth), func(c *gin.Context) {
				viewer = middleware.Viewer(c).String()
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, tt.expectedViewer, viewer)
			} else {
				assert.Contains(t, w.Body.String(), `"code":"unauthorized"`)
			}
		})
	}
}

func TestNewAuthenticator_InvalidKey(t *testing.T) {
	_, err := middleware.NewAuthenticator(middleware.AuthConfig{JWTPublicKey: "not a pem"})
	assert.Error(t, err)
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(middleware.REQUEST_ID_HEADER)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)

	existing := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.REQUEST_ID_HEADER, existing)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, existing, w.Header().Get(middleware.REQUEST_ID_HEADER))
}

func TestRecovery(t *testing.T) {
	router := gin.New()
	router.Use(middleware.Recovery())
	router.GET("/", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal_error")
}
