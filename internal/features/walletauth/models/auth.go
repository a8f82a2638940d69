package models

import "time"

// NonceRequest asks for a one-time login challenge.
// @Description Login challenge request
type NonceRequest struct {
	Address string `json:"address" binding:"required" example:"0x70997970C51812dc3A010C7d01b50e0d17dc79C8"`
}

// Challenge is the message a wallet signs with personal_sign.
// @Description Login challenge
type Challenge struct {
	Address   string    `json:"address"`
	Nonce     string    `json:"nonce"`
	Message   string    `json:"message"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// VerifyRequest carries the signed challenge.
// @Description Signed login challenge
type VerifyRequest struct {
	Address   string `json:"address" binding:"required" example:"0x70997970C51812dc3A010C7d01b50e0d17dc79C8"`
	Nonce     string `json:"nonce" binding:"required" example:"6f1c2d0e-8a4b-4c3e-9f57-2b8e1d7a9c10"`
	Signature string `json:"signature" binding:"required" example:"0x..."`
}

// TokenResponse is the bearer token returned after a successful login.
// @Description Wallet session token
type TokenResponse struct {
	Address   string    `json:"address"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
