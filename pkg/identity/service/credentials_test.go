package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	apperrors "github.com/KeKeBossa/academia-chain-sub001/pkg/app/errors"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/config"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/identity"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/identitystore"
)

// MockCredentialStore implements CredentialStore with overridable behavior
type MockCredentialStore struct {
	CreateCredentialFunc       func(ctx context.Context, cred *identity.Credential) error
	GetCredentialFunc          func(ctx context.Context, id string) (*identity.Credential, error)
	GetCredentialByHashFunc    func(ctx context.Context, userID, hash string) (*identity.Credential, error)
	ListCredentialsByUserFunc  func(ctx context.Context, userID string) ([]*identity.Credential, error)
	UpdateCredentialStatusFunc func(ctx context.Context, id string, status identity.CredentialStatus, reason string) error
}

func (m *MockCredentialStore) CreateCredential(ctx context.Context, cred *identity.Credential) error {
	return m.CreateCredentialFunc(ctx, cred)
}

func (m *MockCredentialStore) GetCredential(ctx context.Context, id string) (*identity.Credential, error) {
	return m.GetCredentialFunc(ctx, id)
}

func (m *MockCredentialStore) GetCredentialByHash(ctx context.Context, userID, hash string) (*identity.Credential, error) {
	return m.GetCredentialByHashFunc(ctx, userID, hash)
}

func (m *MockCredentialStore) ListCredentialsByUser(ctx context.Context, userID string) ([]*identity.Credential, error) {
	return m.ListCredentialsByUserFunc(ctx, userID)
}

func (m *MockCredentialStore) UpdateCredentialStatus(ctx context.Context, id string, status identity.CredentialStatus, reason string) error {
	return m.UpdateCredentialStatusFunc(ctx, id, status, reason)
}

func testCredConfig() *config.CredentialsConfig {
	return &config.CredentialsConfig{
		AllowedIssuers: []string{"did:pkh:eip155:80002:0xissuer"},
		AcceptedTypes:  []string{"ResearcherCredential", "ReviewerCredential"},
	}
}

const validPayload = `{
	"type": ["VerifiableCredential", "ResearcherCredential"],
	"issuer": "did:pkh:eip155:80002:0xissuer",
	"credentialSubject": {"id": "did:pkh:eip155:80002:0xabc"},
	"proof": {"type": "EcdsaSecp256k1Signature2019", "jws": "eyJ..."}
}`

func TestSubmitCredential(t *testing.T) {
	var stored *identity.Credential
	store := &MockCredentialStore{
		CreateCredentialFunc: func(ctx context.Context, cred *identity.Credential) error {
			stored = cred
			return nil
		},
	}

	svc := NewCredentialService(store, testCredConfig(), zap.NewNop())

	cred, err := svc.SubmitCredential(context.Background(), "user-1", json.RawMessage(validPayload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cred.Status != identity.CredentialVerified {
		t.Errorf("status %s, want VERIFIED", cred.Status)
	}
	if stored == nil || stored.UserID != "user-1" {
		t.Error("credential not bound to the presenting user")
	}

	// Hash must equal keccak256 of the compact re-marshaled payload
	var decoded any
	if err := json.Unmarshal([]byte(validPayload), &decoded); err != nil {
		t.Fatal(err)
	}
	compact, _ := json.Marshal(decoded)
	if cred.Hash != crypto.Keccak256Hash(compact).Hex() {
		t.Errorf("hash %s does not match payload hash", cred.Hash)
	}
}

func TestSubmitCredentialHashStableUnderWhitespace(t *testing.T) {
	var hashes []string
	store := &MockCredentialStore{
		CreateCredentialFunc: func(ctx context.Context, cred *identity.Credential) error {
			hashes = append(hashes, cred.Hash)
			return nil
		},
	}
	svc := NewCredentialService(store, testCredConfig(), zap.NewNop())

	compacted := `{"type":"ResearcherCredential","issuer":"did:pkh:eip155:80002:0xissuer","proof":{"jws":"x"}}`
	spaced := `{
		"type":   "ResearcherCredential",
		"issuer": "did:pkh:eip155:80002:0xissuer",
		"proof":  {"jws": "x"}
	}`

	for _, payload := range []string{compacted, spaced} {
		if _, err := svc.SubmitCredential(context.Background(), "user-1", json.RawMessage(payload)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if hashes[0] != hashes[1] {
		t.Errorf("hash differs across formatting: %s vs %s", hashes[0], hashes[1])
	}
}

func TestSubmitCredentialMissingProof(t *testing.T) {
	svc := NewCredentialService(&MockCredentialStore{}, testCredConfig(), zap.NewNop())

	payload := `{"type": "ResearcherCredential", "issuer": "did:pkh:eip155:80002:0xissuer"}`
	_, err := svc.SubmitCredential(context.Background(), "user-1", json.RawMessage(payload))
	if !apperrors.Is(err, apperrors.CategoryUnauthorized) {
		t.Errorf("expected unauthorized error, got %v", err)
	}
}

func TestSubmitCredentialNotJSON(t *testing.T) {
	svc := NewCredentialService(&MockCredentialStore{}, testCredConfig(), zap.NewNop())

	_, err := svc.SubmitCredential(context.Background(), "user-1", json.RawMessage("not json"))
	if !apperrors.Is(err, apperrors.CategoryUnauthorized) {
		t.Errorf("expected unauthorized error, got %v", err)
	}
}

func TestSubmitCredentialTypeMismatch(t *testing.T) {
	svc := NewCredentialService(&MockCredentialStore{}, testCredConfig(), zap.NewNop())

	payload := `{"type": "DriverLicense", "issuer": "did:pkh:eip155:80002:0xissuer", "proof": {"jws": "x"}}`
	_, err := svc.SubmitCredential(context.Background(), "user-1", json.RawMessage(payload))
	if !apperrors.Is(err, apperrors.CategoryForbidden) {
		t.Errorf("expected forbidden error, got %v", err)
	}
}

func TestSubmitCredentialIssuerNotAllowed(t *testing.T) {
	svc := NewCredentialService(&MockCredentialStore{}, testCredConfig(), zap.NewNop())

	payload := `{"type": "ResearcherCredential", "issuer": "did:pkh:eip155:80002:0xmallory", "proof": {"jws": "x"}}`
	_, err := svc.SubmitCredential(context.Background(), "user-1", json.RawMessage(payload))
	if !apperrors.Is(err, apperrors.CategoryForbidden) {
		t.Errorf("expected forbidden error, got %v", err)
	}
}

func TestSubmitCredentialRejectionsDistinguishable(t *testing.T) {
	svc := NewCredentialService(&MockCredentialStore{}, testCredConfig(), zap.NewNop())

	wrongType := `{"type": "DriverLicense", "issuer": "did:pkh:eip155:80002:0xissuer", "proof": {"jws": "x"}}`
	_, err := svc.SubmitCredential(context.Background(), "user-1", json.RawMessage(wrongType))
	if !errors.Is(err, identity.ErrTypeNotAccepted) {
		t.Errorf("expected ErrTypeNotAccepted, got %v", err)
	}
	if errors.Is(err, identity.ErrIssuerNotAllowed) {
		t.Error("type rejection must not read as an issuer rejection")
	}

	wrongIssuer := `{"type": "ResearcherCredential", "issuer": "did:pkh:eip155:80002:0xmallory", "proof": {"jws": "x"}}`
	_, err = svc.SubmitCredential(context.Background(), "user-1", json.RawMessage(wrongIssuer))
	if !errors.Is(err, identity.ErrIssuerNotAllowed) {
		t.Errorf("expected ErrIssuerNotAllowed, got %v", err)
	}
	if errors.Is(err, identity.ErrTypeNotAccepted) {
		t.Error("issuer rejection must not read as a type rejection")
	}
}

func TestSubmitCredentialPendingWithoutIssuer(t *testing.T) {
	var stored *identity.Credential
	store := &MockCredentialStore{
		CreateCredentialFunc: func(ctx context.Context, cred *identity.Credential) error {
			stored = cred
			return nil
		},
	}
	svc := NewCredentialService(store, testCredConfig(), zap.NewNop())

	payload := `{"type": "ResearcherCredential", "proof": {"jws": "x"}}`
	cred, err := svc.SubmitCredential(context.Background(), "user-1", json.RawMessage(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred.Status != identity.CredentialPending {
		t.Errorf("status %s, want PENDING", cred.Status)
	}
	if stored.VerifiedAt != nil {
		t.Error("pending credential must not carry verified_at")
	}
}

func TestSubmitCredentialRevocationNotice(t *testing.T) {
	existing := &identity.Credential{
		ID:     "cred-1",
		UserID: "user-1",
		Hash:   "0xtargethash",
		Status: identity.CredentialVerified,
	}

	var revokedID string
	store := &MockCredentialStore{
		GetCredentialByHashFunc: func(ctx context.Context, userID, hash string) (*identity.Credential, error) {
			if hash != "0xtargethash" {
				t.Errorf("lookup hash %s, want 0xtargethash", hash)
			}
			return existing, nil
		},
		UpdateCredentialStatusFunc: func(ctx context.Context, id string, status identity.CredentialStatus, reason string) error {
			revokedID = id
			if status != identity.CredentialRevoked {
				t.Errorf("status %s, want REVOKED", status)
			}
			return nil
		},
	}
	svc := NewCredentialService(store, testCredConfig(), zap.NewNop())

	payload := `{"revokes": "0xtargethash"}`
	cred, err := svc.SubmitCredential(context.Background(), "user-1", json.RawMessage(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if revokedID != "cred-1" {
		t.Error("existing credential was not revoked")
	}
	if cred.Status != identity.CredentialRevoked {
		t.Errorf("returned status %s, want REVOKED", cred.Status)
	}
}

func TestSubmitCredentialRevocationTargetMissing(t *testing.T) {
	store := &MockCredentialStore{
		GetCredentialByHashFunc: func(ctx context.Context, userID, hash string) (*identity.Credential, error) {
			return nil, identitystore.ErrCredentialNotFound
		},
	}
	svc := NewCredentialService(store, testCredConfig(), zap.NewNop())

	_, err := svc.SubmitCredential(context.Background(), "user-1", json.RawMessage(`{"revokes": "0xmissing"}`))
	if !apperrors.Is(err, apperrors.CategoryResourceNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestGetCredentialOwnership(t *testing.T) {
	store := &MockCredentialStore{
		GetCredentialFunc: func(ctx context.Context, id string) (*identity.Credential, error) {
			return &identity.Credential{ID: id, UserID: "someone-else"}, nil
		},
	}
	svc := NewCredentialService(store, testCredConfig(), zap.NewNop())

	// Another user's credential reads as not found, not forbidden
	_, err := svc.GetCredential(context.Background(), "user-1", "cred-9")
	if !apperrors.Is(err, apperrors.CategoryResourceNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
}
