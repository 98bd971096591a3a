package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KeKeBossa/academia-chain-sub001/internal/metrics"
	apperrors "github.com/KeKeBossa/academia-chain-sub001/pkg/app/errors"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/config"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/identity"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/identitystore"
)

// CredentialStore is the narrow data-access interface for the credential verifier
type CredentialStore interface {
	CreateCredential(ctx context.Context, cred *identity.Credential) error
	GetCredential(ctx context.Context, id string) (*identity.Credential, error)
	GetCredentialByHash(ctx context.Context, userID, hash string) (*identity.Credential, error)
	ListCredentialsByUser(ctx context.Context, userID string) ([]*identity.Credential, error)
	UpdateCredentialStatus(ctx context.Context, id string, status identity.CredentialStatus, reason string) error
}

// CredentialService verifies presented credentials against the acceptance
// policy and records them bound to the presenting user.
type CredentialService interface {
	SubmitCredential(ctx context.Context, userID string, payload json.RawMessage) (*identity.Credential, error)
	ListCredentials(ctx context.Context, userID string) ([]*identity.Credential, error)
	GetCredential(ctx context.Context, userID, id string) (*identity.Credential, error)
}

type credentialService struct {
	store  CredentialStore
	cfg    *config.CredentialsConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewCredentialService creates a new credential verifier
func NewCredentialService(store CredentialStore, cfg *config.CredentialsConfig, logger *zap.Logger) CredentialService {
	return &credentialService{
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// credentialPayload is the subset of a verifiable-credential document the
// verifier inspects. Type accepts either a string or an array of strings;
// Issuer accepts either a string or an object with an id field.
type credentialPayload struct {
	Type    typeList        `json:"type"`
	Issuer  issuerRef       `json:"issuer"`
	Proof   json.RawMessage `json:"proof"`
	Subject json.RawMessage `json:"credentialSubject"`
	Revokes string          `json:"revokes,omitempty"`
}

type typeList []string

func (t *typeList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*t = typeList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("type must be a string or array of strings")
	}
	*t = typeList(many)
	return nil
}

type issuerRef string

func (i *issuerRef) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*i = issuerRef(single)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("issuer must be a string or an object with an id")
	}
	*i = issuerRef(obj.ID)
	return nil
}

// SubmitCredential validates a raw credential payload and persists the
// resulting record. A payload carrying a 'revokes' hash is treated as a
// revocation notice for an existing credential of the same user.
func (s *credentialService) SubmitCredential(ctx context.Context, userID string, payload json.RawMessage) (*identity.Credential, error) {
	hash, err := hashPayload(payload)
	if err != nil {
		return nil, apperrors.UnAuthorizedError(err, "invalid credential: cannot hash payload")
	}

	var doc credentialPayload
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, apperrors.UnAuthorizedError(err, "invalid credential: malformed payload")
	}

	if doc.Revokes != "" {
		return s.revokeByHash(ctx, userID, doc.Revokes)
	}

	if len(doc.Proof) == 0 || string(doc.Proof) == "null" {
		return nil, apperrors.UnAuthorizedError(nil, "invalid credential: missing proof")
	}
	if len(doc.Type) == 0 {
		return nil, apperrors.UnAuthorizedError(nil, "invalid credential: missing type")
	}

	status := identity.CredentialVerified

	if len(s.cfg.AcceptedTypes) > 0 {
		if match := firstIntersection(doc.Type, s.cfg.AcceptedTypes); match == "" {
			return nil, apperrors.ForbiddenError(identity.ErrTypeNotAccepted, "credential type not accepted")
		}
	}

	if doc.Issuer == "" {
		// No declared issuer: inconclusive, record for later review
		status = identity.CredentialPending
	} else if len(s.cfg.AllowedIssuers) > 0 && !contains(s.cfg.AllowedIssuers, string(doc.Issuer)) {
		return nil, apperrors.ForbiddenError(identity.ErrIssuerNotAllowed, "issuer not allowed")
	}

	now := s.now().UTC()
	cred := &identity.Credential{
		ID:       uuid.New().String(),
		UserID:   userID,
		Type:     doc.Type[0],
		Issuer:   string(doc.Issuer),
		Hash:     hash,
		Metadata: string(payload),
		Status:   status,
		IssuedAt: now,
	}
	if status == identity.CredentialVerified {
		cred.VerifiedAt = &now
	}

	if err := s.store.CreateCredential(ctx, cred); err != nil {
		return nil, fmt.Errorf("failed to persist credential: %w", err)
	}

	metrics.CredentialsProcessed.WithLabelValues(string(status)).Inc()
	s.logger.Info("Credential recorded",
		zap.String("type", cred.Type),
		zap.String("status", string(status)))

	return cred, nil
}

func (s *credentialService) revokeByHash(ctx context.Context, userID, hash string) (*identity.Credential, error) {
	existing, err := s.store.GetCredentialByHash(ctx, userID, hash)
	if err != nil {
		if errors.Is(err, identitystore.ErrCredentialNotFound) {
			return nil, apperrors.NotFoundError(err, "credential to revoke not found")
		}
		return nil, fmt.Errorf("failed to look up credential: %w", err)
	}

	if err := s.store.UpdateCredentialStatus(ctx, existing.ID, identity.CredentialRevoked, "revocation notice"); err != nil {
		return nil, fmt.Errorf("failed to revoke credential: %w", err)
	}

	metrics.CredentialsProcessed.WithLabelValues(string(identity.CredentialRevoked)).Inc()
	s.logger.Info("Credential revoked", zap.String("credential_id", existing.ID))

	existing.Status = identity.CredentialRevoked
	return existing, nil
}

// ListCredentials returns all credential records for a user
func (s *credentialService) ListCredentials(ctx context.Context, userID string) ([]*identity.Credential, error) {
	creds, err := s.store.ListCredentialsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	return creds, nil
}

// GetCredential returns one credential record owned by the user
func (s *credentialService) GetCredential(ctx context.Context, userID, id string) (*identity.Credential, error) {
	cred, err := s.store.GetCredential(ctx, id)
	if err != nil {
		if errors.Is(err, identitystore.ErrCredentialNotFound) {
			return nil, apperrors.NotFoundError(err, "credential not found")
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	if cred.UserID != userID {
		return nil, apperrors.NotFoundError(nil, "credential not found")
	}
	return cred, nil
}

// hashPayload computes the keccak256 hex of the compact re-marshaled payload
// so hashing is stable across whitespace and key-order differences.
func hashPayload(payload json.RawMessage) (string, error) {
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", fmt.Errorf("payload is not valid JSON: %w", err)
	}
	compact, err := json.Marshal(decoded)
	if err != nil {
		return "", fmt.Errorf("failed to re-marshal payload: %w", err)
	}
	return crypto.Keccak256Hash(compact).Hex(), nil
}

func firstIntersection(a, b []string) string {
	for _, x := range a {
		if contains(b, x) {
			return x
		}
	}
	return ""
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
