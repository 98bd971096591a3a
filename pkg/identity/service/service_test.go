package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	apperrors "github.com/KeKeBossa/academia-chain-sub001/pkg/app/errors"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/config"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/identity"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/identitystore"
)

// MockStore implements Store with overridable behavior per test
type MockStore struct {
	UpsertUserFunc          func(ctx context.Context, usr *identity.User) (*identity.User, error)
	GetUserByIDFunc         func(ctx context.Context, id string) (*identity.User, error)
	CreateChallengeFunc     func(ctx context.Context, challenge *identity.Challenge) error
	GetChallengeByNonceFunc func(ctx context.Context, nonce string) (*identity.Challenge, error)
	ExchangeChallengeFunc   func(ctx context.Context, nonce string, sess *identity.Session) error
	GetSessionByTokenFunc   func(ctx context.Context, token string) (*identity.Session, error)
	TouchSessionFunc        func(ctx context.Context, token string) error
	RevokeSessionFunc       func(ctx context.Context, token string) error
}

func (m *MockStore) UpsertUser(ctx context.Context, usr *identity.User) (*identity.User, error) {
	return m.UpsertUserFunc(ctx, usr)
}

func (m *MockStore) GetUserByID(ctx context.Context, id string) (*identity.User, error) {
	return m.GetUserByIDFunc(ctx, id)
}

func (m *MockStore) CreateChallenge(ctx context.Context, challenge *identity.Challenge) error {
	return m.CreateChallengeFunc(ctx, challenge)
}

func (m *MockStore) GetChallengeByNonce(ctx context.Context, nonce string) (*identity.Challenge, error) {
	return m.GetChallengeByNonceFunc(ctx, nonce)
}

func (m *MockStore) ExchangeChallenge(ctx context.Context, nonce string, sess *identity.Session) error {
	return m.ExchangeChallengeFunc(ctx, nonce, sess)
}

func (m *MockStore) GetSessionByToken(ctx context.Context, token string) (*identity.Session, error) {
	return m.GetSessionByTokenFunc(ctx, token)
}

func (m *MockStore) TouchSession(ctx context.Context, token string) error {
	if m.TouchSessionFunc != nil {
		return m.TouchSessionFunc(ctx, token)
	}
	return nil
}

func (m *MockStore) RevokeSession(ctx context.Context, token string) error {
	return m.RevokeSessionFunc(ctx, token)
}

const testPrivKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func testAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{
		Domain:       "research.example.org",
		URI:          "https://research.example.org",
		ChallengeTTL: 10 * time.Minute,
		SessionTTL:   24 * time.Hour,
	}
}

func testWallet(t *testing.T) (string, string) {
	t.Helper()
	key, err := crypto.HexToECDSA(testPrivKey)
	if err != nil {
		t.Fatalf("failed to load key: %v", err)
	}
	addr := strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())
	return addr, "did:pkh:eip155:80002:" + addr
}

func signText(t *testing.T, message string) string {
	t.Helper()
	key, err := crypto.HexToECDSA(testPrivKey)
	if err != nil {
		t.Fatalf("failed to load key: %v", err)
	}
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	hash := crypto.Keccak256Hash([]byte(prefixed))
	sig, err := crypto.Sign(hash.Bytes(), key)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	sig[64] += 27
	return "0x" + hex.EncodeToString(sig)
}

func TestIssueChallenge(t *testing.T) {
	wallet, did := testWallet(t)

	var createdChallenge *identity.Challenge
	store := &MockStore{
		UpsertUserFunc: func(ctx context.Context, usr *identity.User) (*identity.User, error) {
			if usr.WalletAddress != wallet {
				t.Errorf("upserted wallet %s, want %s", usr.WalletAddress, wallet)
			}
			usr.ID = "user-1"
			return usr, nil
		},
		CreateChallengeFunc: func(ctx context.Context, challenge *identity.Challenge) error {
			createdChallenge = challenge
			return nil
		},
	}

	svc := NewService(store, testAuthConfig(), 80002, zap.NewNop())

	resp, err := svc.IssueChallenge(context.Background(), &identity.ChallengeRequest{
		WalletAddress: strings.ToUpper(wallet[:2]) + wallet[2:],
		DID:           strings.ToUpper(did[:4]) + did[4:],
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if createdChallenge == nil {
		t.Fatal("challenge was not persisted")
	}
	if createdChallenge.WalletAddress != wallet {
		t.Errorf("stored wallet %s, want lower-cased %s", createdChallenge.WalletAddress, wallet)
	}
	if createdChallenge.DID != did {
		t.Errorf("stored DID %s, want lower-cased %s", createdChallenge.DID, did)
	}
	if resp.Nonce == "" || resp.Nonce != createdChallenge.Nonce {
		t.Error("response nonce does not match stored challenge")
	}
	if !strings.Contains(resp.Message, "research.example.org wants you to sign in with your Ethereum account:") {
		t.Errorf("message missing header:\n%s", resp.Message)
	}
	if !strings.Contains(resp.Message, "Nonce: "+resp.Nonce) {
		t.Error("message missing nonce line")
	}
	if !resp.ExpiresAt.After(time.Now()) {
		t.Error("expiry must be in the future")
	}
}

func TestIssueChallengeValidation(t *testing.T) {
	svc := NewService(&MockStore{}, testAuthConfig(), 80002, zap.NewNop())

	_, err := svc.IssueChallenge(context.Background(), &identity.ChallengeRequest{
		WalletAddress: "not-an-address",
		DID:           "did:pkh:eip155:1:0x0",
	})
	if !apperrors.Is(err, apperrors.CategoryDataError) {
		t.Errorf("expected validation error, got %v", err)
	}

	_, err = svc.IssueChallenge(context.Background(), &identity.ChallengeRequest{
		WalletAddress: "0x8ba1f109551bD432803012645Ac136ddd64DBA72",
		DID:           "",
	})
	if !apperrors.Is(err, apperrors.CategoryDataError) {
		t.Errorf("expected validation error for empty DID, got %v", err)
	}
}

func TestIssueChallengeUniqueNonces(t *testing.T) {
	wallet, did := testWallet(t)

	nonces := make(map[string]bool)
	store := &MockStore{
		UpsertUserFunc: func(ctx context.Context, usr *identity.User) (*identity.User, error) {
			usr.ID = "user-1"
			return usr, nil
		},
		CreateChallengeFunc: func(ctx context.Context, challenge *identity.Challenge) error {
			if nonces[challenge.Nonce] {
				t.Fatalf("nonce reused: %s", challenge.Nonce)
			}
			nonces[challenge.Nonce] = true
			return nil
		},
	}

	svc := NewService(store, testAuthConfig(), 80002, zap.NewNop())
	for i := 0; i < 100; i++ {
		if _, err := svc.IssueChallenge(context.Background(), &identity.ChallengeRequest{
			WalletAddress: wallet,
			DID:           did,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func pendingChallenge(wallet, did, message string) *identity.Challenge {
	return &identity.Challenge{
		ID:            "ch-1",
		UserID:        "user-1",
		Nonce:         "a1b2c3d4e5f60718293a4b5c6d7e8f90",
		DID:           did,
		WalletAddress: wallet,
		Message:       message,
		IssuedAt:      time.Now().Add(-time.Minute),
		ExpiresAt:     time.Now().Add(9 * time.Minute),
	}
}

func TestVerify(t *testing.T) {
	wallet, did := testWallet(t)
	message := "research.example.org wants you to sign in with your Ethereum account:\n" + wallet
	challenge := pendingChallenge(wallet, did, message)

	var storedSession *identity.Session
	store := &MockStore{
		GetChallengeByNonceFunc: func(ctx context.Context, nonce string) (*identity.Challenge, error) {
			return challenge, nil
		},
		ExchangeChallengeFunc: func(ctx context.Context, nonce string, sess *identity.Session) error {
			storedSession = sess
			return nil
		},
		GetUserByIDFunc: func(ctx context.Context, id string) (*identity.User, error) {
			return &identity.User{ID: "user-1", DID: did, WalletAddress: wallet, Role: identity.RoleMember}, nil
		},
	}

	svc := NewService(store, testAuthConfig(), 80002, zap.NewNop())

	resp, err := svc.Verify(context.Background(), &identity.VerifyRequest{
		Nonce:     challenge.Nonce,
		Signature: signText(t, message),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Token == "" || len(resp.Token) != 64 {
		t.Errorf("unexpected token: %q", resp.Token)
	}
	if resp.User.WalletAddress != wallet {
		t.Errorf("user wallet %s, want %s", resp.User.WalletAddress, wallet)
	}
	if !resp.ExpiresAt.After(time.Now()) {
		t.Error("session expiry must be in the future")
	}
	if storedSession == nil || storedSession.Nonce != challenge.Nonce {
		t.Error("session was not linked to the challenge nonce")
	}
}

func TestVerifyExpiredChallenge(t *testing.T) {
	wallet, did := testWallet(t)
	message := "research.example.org wants you to sign in with your Ethereum account:\n" + wallet
	challenge := pendingChallenge(wallet, did, message)
	challenge.ExpiresAt = time.Now().Add(-time.Minute)

	store := &MockStore{
		GetChallengeByNonceFunc: func(ctx context.Context, nonce string) (*identity.Challenge, error) {
			return challenge, nil
		},
		ExchangeChallengeFunc: func(ctx context.Context, nonce string, sess *identity.Session) error {
			t.Fatal("expired challenge must not reach the exchange")
			return nil
		},
	}

	svc := NewService(store, testAuthConfig(), 80002, zap.NewNop())

	// Expiry wins even with a valid signature
	_, err := svc.Verify(context.Background(), &identity.VerifyRequest{
		Nonce:     challenge.Nonce,
		Signature: signText(t, message),
	})
	if !apperrors.Is(err, apperrors.CategoryExpired) {
		t.Errorf("expected expired error, got %v", err)
	}
}

func TestVerifyReplayedChallenge(t *testing.T) {
	wallet, did := testWallet(t)
	message := "research.example.org wants you to sign in with your Ethereum account:\n" + wallet
	challenge := pendingChallenge(wallet, did, message)
	consumed := time.Now().Add(-time.Minute)
	challenge.ConsumedAt = &consumed

	store := &MockStore{
		GetChallengeByNonceFunc: func(ctx context.Context, nonce string) (*identity.Challenge, error) {
			return challenge, nil
		},
	}

	svc := NewService(store, testAuthConfig(), 80002, zap.NewNop())

	_, err := svc.Verify(context.Background(), &identity.VerifyRequest{
		Nonce:     challenge.Nonce,
		Signature: signText(t, message),
	})
	if !apperrors.Is(err, apperrors.CategoryReplay) {
		t.Errorf("expected replay error, got %v", err)
	}
}

func TestVerifyConcurrentConsumeLosesAsReplay(t *testing.T) {
	wallet, did := testWallet(t)
	message := "research.example.org wants you to sign in with your Ethereum account:\n" + wallet
	challenge := pendingChallenge(wallet, did, message)

	store := &MockStore{
		GetChallengeByNonceFunc: func(ctx context.Context, nonce string) (*identity.Challenge, error) {
			return challenge, nil
		},
		ExchangeChallengeFunc: func(ctx context.Context, nonce string, sess *identity.Session) error {
			return identitystore.ErrChallengeConsumed
		},
	}

	svc := NewService(store, testAuthConfig(), 80002, zap.NewNop())

	_, err := svc.Verify(context.Background(), &identity.VerifyRequest{
		Nonce:     challenge.Nonce,
		Signature: signText(t, message),
	})
	if !apperrors.Is(err, apperrors.CategoryReplay) {
		t.Errorf("expected replay error, got %v", err)
	}
}

func TestVerifyBadSignature(t *testing.T) {
	wallet, did := testWallet(t)
	message := "research.example.org wants you to sign in with your Ethereum account:\n" + wallet
	challenge := pendingChallenge(wallet, did, message)

	store := &MockStore{
		GetChallengeByNonceFunc: func(ctx context.Context, nonce string) (*identity.Challenge, error) {
			return challenge, nil
		},
	}

	svc := NewService(store, testAuthConfig(), 80002, zap.NewNop())

	// Signature over different content recovers a different signer
	_, err := svc.Verify(context.Background(), &identity.VerifyRequest{
		Nonce:     challenge.Nonce,
		Signature: signText(t, "some other message"),
	})
	if !apperrors.Is(err, apperrors.CategoryUnauthorized) {
		t.Errorf("expected unauthorized error, got %v", err)
	}
}

func TestVerifyUnknownNonce(t *testing.T) {
	store := &MockStore{
		GetChallengeByNonceFunc: func(ctx context.Context, nonce string) (*identity.Challenge, error) {
			return nil, identitystore.ErrChallengeNotFound
		},
	}

	svc := NewService(store, testAuthConfig(), 80002, zap.NewNop())

	_, err := svc.Verify(context.Background(), &identity.VerifyRequest{
		Nonce:     "missing",
		Signature: "0xdead",
	})
	if !apperrors.Is(err, apperrors.CategoryResourceNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	touched := false
	store := &MockStore{
		GetSessionByTokenFunc: func(ctx context.Context, token string) (*identity.Session, error) {
			return &identity.Session{
				Token:         token,
				UserID:        "user-1",
				WalletAddress: "0xabc",
				ExpiresAt:     time.Now().Add(time.Hour),
			}, nil
		},
		TouchSessionFunc: func(ctx context.Context, token string) error {
			touched = true
			return nil
		},
		GetUserByIDFunc: func(ctx context.Context, id string) (*identity.User, error) {
			return &identity.User{ID: id, WalletAddress: "0xabc"}, nil
		},
	}

	svc := NewService(store, testAuthConfig(), 80002, zap.NewNop())

	sess, usr, err := svc.Resolve(context.Background(), "token-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.UserID != usr.ID {
		t.Error("session and user do not match")
	}
	if !touched {
		t.Error("resolve must touch last_used_at")
	}
}

func TestResolveExpiredOrRevoked(t *testing.T) {
	revoked := time.Now().Add(-time.Minute)
	tests := []struct {
		name string
		sess *identity.Session
	}{
		{"expired", &identity.Session{ExpiresAt: time.Now().Add(-time.Hour)}},
		{"revoked", &identity.Session{ExpiresAt: time.Now().Add(time.Hour), RevokedAt: &revoked}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MockStore{
				GetSessionByTokenFunc: func(ctx context.Context, token string) (*identity.Session, error) {
					return tt.sess, nil
				},
			}
			svc := NewService(store, testAuthConfig(), 80002, zap.NewNop())

			_, _, err := svc.Resolve(context.Background(), "token-1")
			if !apperrors.Is(err, apperrors.CategoryExpired) {
				t.Errorf("expected expired error, got %v", err)
			}
		})
	}
}

func TestRevoke(t *testing.T) {
	store := &MockStore{
		RevokeSessionFunc: func(ctx context.Context, token string) error {
			return nil
		},
	}
	svc := NewService(store, testAuthConfig(), 80002, zap.NewNop())

	if err := svc.Revoke(context.Background(), "token-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store.RevokeSessionFunc = func(ctx context.Context, token string) error {
		return identitystore.ErrSessionNotFound
	}
	err := svc.Revoke(context.Background(), "missing")
	if !apperrors.Is(err, apperrors.CategoryResourceNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
}
