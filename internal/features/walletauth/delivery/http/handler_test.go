package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crowdfunding-ledger-backend/internal/common/middleware"
	"crowdfunding-ledger-backend/internal/features/walletauth/models"
	"crowdfunding-ledger-backend/internal/features/walletauth/repository/memory"
	"crowdfunding-ledger-backend/internal/features/walletauth/service"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoginFlowGuardsProtectedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := service.NewService(memory.NewNonceRepository(), "secret", time.Hour, time.Minute)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorHandler(), middleware.Errors())
	api := r.Group("/api/v1")
	NewAuthHandler(svc).RegisterRoutes(api)
	api.GET("/me", middleware.RequireWallet(svc), func(c *gin.Context) {
		addr, _ := middleware.WalletAddress(c)
		c.JSON(http.StatusOK, gin.H{"address": addr})
	})

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	wallet := crypto.PubkeyToAddress(key.PublicKey).Hex()

	w := post(r, "/api/v1/auth/nonce", models.NonceRequest{Address: wallet})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var challenge models.Challenge
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &challenge))

	sig, err := crypto.Sign(accounts.TextHash([]byte(challenge.Message)), key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27

	w = post(r, "/api/v1/auth/verify", models.VerifyRequest{Address: wallet, Nonce: challenge.Nonce, Signature: hexutil.Encode(sig)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var token models.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token.Token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), wallet)

	w = post(r, "/api/v1/auth/verify", models.VerifyRequest{Address: wallet, Nonce: challenge.Nonce, Signature: hexutil.Encode(sig)})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post(r, "/api/v1/auth/nonce", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
