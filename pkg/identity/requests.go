package identity

import (
	"encoding/json"
	"time"
)

// ChallengeRequest is the payload for requesting a sign-in challenge
type ChallengeRequest struct {
	WalletAddress string   `json:"wallet_address" validate:"required"`
	DID           string   `json:"did" validate:"required"`
	DisplayName   string   `json:"display_name,omitempty"`
	Email         string   `json:"email,omitempty" validate:"omitempty,email"`
	Statement     string   `json:"statement,omitempty"`
	Resources     []string `json:"resources,omitempty"`
	ChainID       int64    `json:"chain_id,omitempty"`
	Domain        string   `json:"domain,omitempty"`
	URI           string   `json:"uri,omitempty"`
	TTLSeconds    int64    `json:"ttl_seconds,omitempty"`
}

// ChallengeResponse returns the challenge the wallet must sign
type ChallengeResponse struct {
	ChallengeID string    `json:"challenge_id"`
	Nonce       string    `json:"nonce"`
	Message     string    `json:"message"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// VerifyRequest is the payload for exchanging a signed challenge for a session
type VerifyRequest struct {
	Nonce     string `json:"nonce" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// UserProfile is the public view of a user returned by auth endpoints
type UserProfile struct {
	ID            string `json:"id"`
	DID           string `json:"did"`
	WalletAddress string `json:"wallet_address"`
	DisplayName   string `json:"display_name,omitempty"`
	Role          string `json:"role"`
}

// Profile builds the public view of a user
func (u *User) Profile() *UserProfile {
	return &UserProfile{
		ID:            u.ID,
		DID:           u.DID,
		WalletAddress: u.WalletAddress,
		DisplayName:   u.DisplayName,
		Role:          u.Role,
	}
}

// SessionResponse returns a minted or resolved session
type SessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *UserProfile `json:"user"`
}

// CredentialRequest is the payload for presenting a verifiable credential
type CredentialRequest struct {
	Payload json.RawMessage `json:"payload" validate:"required"`
}

// CredentialResponse is the stored view of a credential record
type CredentialResponse struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Issuer   string           `json:"issuer,omitempty"`
	Hash     string           `json:"hash"`
	Status   CredentialStatus `json:"status"`
	IssuedAt time.Time        `json:"issued_at"`
}

// ToResponse builds the API view of a credential
func (c *Credential) ToResponse() *CredentialResponse {
	return &CredentialResponse{
		ID:       c.ID,
		Type:     c.Type,
		Issuer:   c.Issuer,
		Hash:     c.Hash,
		Status:   c.Status,
		IssuedAt: c.IssuedAt,
	}
}
