package identitystore

import (
	"context"
	"errors"
	"time"

	"github.com/KeKeBossa/academia-chain-sub001/pkg/identity"
)

// ErrUserNotFound is returned when a user lookup finds no matching record.
var ErrUserNotFound = errors.New("user not found")

// ErrChallengeNotFound is returned when no challenge matches the nonce.
var ErrChallengeNotFound = errors.New("challenge not found")

// ErrChallengeConsumed is returned when a challenge was already exchanged.
var ErrChallengeConsumed = errors.New("challenge already consumed")

// ErrSessionNotFound is returned when no session matches the token.
var ErrSessionNotFound = errors.New("session not found")

// ErrCredentialNotFound is returned when a credential lookup finds no matching record.
var ErrCredentialNotFound = errors.New("credential not found")

// ChallengeStore defines persistence for the sign-in challenge flow.
// ExchangeChallenge is the single transactional step of verification:
// it marks the nonce consumed and inserts the session, all-or-nothing.
// A nonce that was already consumed fails the whole exchange with
// ErrChallengeConsumed.
type ChallengeStore interface {
	CreateChallenge(ctx context.Context, challenge *identity.Challenge) error
	GetChallengeByNonce(ctx context.Context, nonce string) (*identity.Challenge, error)
	ExchangeChallenge(ctx context.Context, nonce string, sess *identity.Session) error
	DeleteExpiredChallenges(ctx context.Context, cutoff time.Time) (int64, error)
}

// SessionStore defines persistence for bearer sessions
type SessionStore interface {
	GetSessionByToken(ctx context.Context, token string) (*identity.Session, error)
	TouchSession(ctx context.Context, token string) error
	RevokeSession(ctx context.Context, token string) error
}

// UserStore defines persistence for identity records.
// UpsertUser is keyed by wallet address; DID and display fields are
// refreshed on conflict. The stored row (with its id) is returned.
type UserStore interface {
	UpsertUser(ctx context.Context, usr *identity.User) (*identity.User, error)
	GetUserByID(ctx context.Context, id string) (*identity.User, error)
	GetUserByWallet(ctx context.Context, walletAddress string) (*identity.User, error)
	GetUserByDID(ctx context.Context, did string) (*identity.User, error)
}

// CredentialStore defines persistence for verifiable-credential records
type CredentialStore interface {
	CreateCredential(ctx context.Context, cred *identity.Credential) error
	GetCredential(ctx context.Context, id string) (*identity.Credential, error)
	GetCredentialByHash(ctx context.Context, userID, hash string) (*identity.Credential, error)
	ListCredentialsByUser(ctx context.Context, userID string) ([]*identity.Credential, error)
	UpdateCredentialStatus(ctx context.Context, id string, status identity.CredentialStatus, reason string) error
}

// Store combines all identity persistence concerns
type Store interface {
	ChallengeStore
	SessionStore
	UserStore
	CredentialStore
}
