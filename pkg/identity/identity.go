// Package identity defines the domain model for wallet-backed identities:
// users, sign-in challenges, bearer sessions and verifiable credentials.
package identity

import (
	"errors"
	"time"
)

// RoleMember is the baseline role assigned when no role is recognized
const RoleMember = "member"

// Credential policy rejections. Both surface as forbidden over HTTP;
// callers tell them apart with errors.Is.
var (
	ErrIssuerNotAllowed = errors.New("issuer not allowed")
	ErrTypeNotAccepted  = errors.New("credential type not accepted")
)

// User represents a wallet-backed identity in the mirror database.
// WalletAddress and DID are always stored lower-cased.
type User struct {
	ID            string
	DID           string
	WalletAddress string
	DisplayName   string
	Email         string
	Role          string
	CreatedAt     time.Time
}

// Challenge is a single-use sign-in challenge. The rendered Message is
// persisted verbatim so verification recovers the signer over the exact
// bytes the wallet displayed.
type Challenge struct {
	ID            string
	UserID        string
	Nonce         string
	DID           string
	WalletAddress string
	Message       string
	Statement     string
	Resources     []string
	IssuedAt      time.Time
	ExpiresAt     time.Time
	ConsumedAt    *time.Time
}

// Expired reports whether the challenge lifetime has elapsed at t
func (c *Challenge) Expired(t time.Time) bool {
	return !t.Before(c.ExpiresAt)
}

// Consumed reports whether the challenge was already exchanged
func (c *Challenge) Consumed() bool {
	return c.ConsumedAt != nil
}

// Session is an opaque bearer session. The token carries no claims; all
// session state lives in the store. Nonce links back to the challenge
// that produced the session.
type Session struct {
	Token         string
	Nonce         string
	UserID        string
	WalletAddress string
	CreatedAt     time.Time
	ExpiresAt     time.Time
	LastUsedAt    *time.Time
	RevokedAt     *time.Time
}

// Active reports whether the session is usable at t
func (s *Session) Active(t time.Time) bool {
	return s.RevokedAt == nil && t.Before(s.ExpiresAt)
}

// CredentialStatus is the lifecycle state of a stored credential
type CredentialStatus string

const (
	CredentialPending  CredentialStatus = "PENDING"
	CredentialVerified CredentialStatus = "VERIFIED"
	CredentialRevoked  CredentialStatus = "REVOKED"
)

// Credential is a stored verifiable-credential record bound to a user.
// Hash is the keccak256 hex of the compact JSON payload and anchors the
// record to the exact bytes that were verified. Status moves one way,
// toward VERIFIED or REVOKED.
type Credential struct {
	ID               string
	UserID           string
	Type             string
	Issuer           string
	Hash             string
	Metadata         string
	Status           CredentialStatus
	IssuedAt         time.Time
	VerifiedAt       *time.Time
	RevokedAt        *time.Time
	RevocationReason string
}
