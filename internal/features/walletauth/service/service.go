package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"crowdfunding-ledger-backend/internal/common/address"
	apperrors "crowdfunding-ledger-backend/internal/common/errors"
	"crowdfunding-ledger-backend/internal/common/logger"
	"crowdfunding-ledger-backend/internal/features/walletauth/models"
	"crowdfunding-ledger-backend/internal/features/walletauth/repository"

	"github.com/dgrijalva/jwt-go"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

const tokenIssuer = "crowdfunding-ledger"

const (
	ReasonInvalidSignature = "Invalid signature"
	ReasonNoChallenge      = "No pending login challenge for this nonce"
	ReasonInvalidToken     = "Invalid or expired token"
)

// Claims identify the wallet a session token was issued to.
type Claims struct {
	Address string `json:"address"`
	jwt.StandardClaims
}

// Service authenticates wallets by a signed one-time challenge and issues
// bearer tokens. It implements middleware.TokenParser.
type Service struct {
	repo     repository.NonceRepository
	secret   []byte
	tokenTTL time.Duration
	nonceTTL time.Duration
	now      func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo repository.NonceRepository, secret string, tokenTTL, nonceTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		nonceTTL: nonceTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueNonce stores a fresh challenge for addr. Pending challenges stay valid
// until they expire or are redeemed.
func (s *Service) IssueNonce(ctx context.Context, addr string) (*models.Challenge, error) {
	normalized, err := address.Normalize(addr)
	if err != nil {
		return nil, apperrors.NewValidationError("address", "Invalid address")
	}

	now := s.now().UTC()
	nonce := uuid.New().String()
	challenge := &models.Challenge{
		Address:   normalized,
		Nonce:     nonce,
		Message:   loginMessage(normalized, nonce, now),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.nonceTTL),
	}
	if err := s.repo.Save(ctx, challenge, s.nonceTTL); err != nil {
		return nil, apperrors.NewStorageError("save challenge", err)
	}
	return challenge, nil
}

// Verify checks a personal_sign signature over the challenge issued with
// nonce and returns a session token. The challenge is consumed whatever the
// outcome.
func (s *Service) Verify(ctx context.Context, addr, nonce, signature string) (*models.TokenResponse, error) {
	normalized, err := address.Normalize(addr)
	if err != nil {
		return nil, apperrors.NewValidationError("address", "Invalid address")
	}

	nonce = strings.TrimSpace(nonce)
	if nonce == "" {
		return nil, apperrors.NewUnauthorizedError(ReasonNoChallenge)
	}
	challenge, err := s.repo.Take(ctx, normalized, nonce)
	if err != nil {
		return nil, apperrors.NewStorageError("take challenge", err)
	}
	now := s.now().UTC()
	if challenge == nil || !now.Before(challenge.ExpiresAt) {
		return nil, apperrors.NewUnauthorizedError(ReasonNoChallenge)
	}

	signer, err := recoverSigner(challenge.Message, signature)
	if err != nil {
		logger.Debug().Err(err).Str("address", normalized).Msg("Signature recovery failed")
		return nil, apperrors.NewUnauthorizedError(ReasonInvalidSignature)
	}
	if !address.Equal(signer, normalized) {
		logger.Warn().
			Str("address", normalized).
			Str("signer", signer).
			Msg("Login signature from a different wallet")
		return nil, apperrors.NewUnauthorizedError(ReasonInvalidSignature)
	}

	expiresAt := now.Add(s.tokenTTL)
	claims := &Claims{
		Address: normalized,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expiresAt.Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    tokenIssuer,
			Subject:   normalized,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Failed to sign token")
	}

	logger.Info().Str("address", normalized).Msg("Wallet signed in")
	return &models.TokenResponse{Address: normalized, Token: token, ExpiresAt: expiresAt}, nil
}

// ParseToken returns the wallet address a token was issued to.
func (s *Service) ParseToken(tokenString string) (string, error) {
	claims := &Claims{}
	parser := &jwt.Parser{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", apperrors.NewUnauthorizedError(ReasonInvalidToken)
	}
	// jwt-go validates exp against the wall clock, repeat it with ours.
	if claims.ExpiresAt <= s.now().Unix() || claims.Issuer != tokenIssuer {
		return "", apperrors.NewUnauthorizedError(ReasonInvalidToken)
	}
	addr, err := address.Normalize(claims.Address)
	if err != nil {
		return "", apperrors.NewUnauthorizedError(ReasonInvalidToken)
	}
	return addr, nil
}

func loginMessage(addr, nonce string, issuedAt time.Time) string {
	return fmt.Sprintf(
		"Sign in to the crowdfunding ledger\n\nAddress: %s\nNonce: %s\nIssued At: %s",
		addr, nonce, issuedAt.Format(time.RFC3339),
	)
}

// recoverSigner returns the address that produced an EIP-191 personal_sign
// signature over message.
func recoverSigner(message, signature string) (string, error) {
	sig, err := hexutil.Decode(strings.TrimSpace(signature))
	if err != nil {
		return "", fmt.Errorf("decode signature: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return "", fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}
	// Wallets emit v as 27/28.
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return "", fmt.Errorf("recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub).Hex(), nil
}
