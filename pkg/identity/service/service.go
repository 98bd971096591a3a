// Package service implements the DID challenge/response authentication flow
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KeKeBossa/academia-chain-sub001/internal/metrics"
	apperrors "github.com/KeKeBossa/academia-chain-sub001/pkg/app/errors"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/auth"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/config"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/identity"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/identitystore"
)

const minChallengeTTL = 60 * time.Second

// Store is the narrow data-access interface for the auth service.
// Defined here to keep the service decoupled from identitystore implementation details.
type Store interface {
	UpsertUser(ctx context.Context, usr *identity.User) (*identity.User, error)
	GetUserByID(ctx context.Context, id string) (*identity.User, error)
	CreateChallenge(ctx context.Context, challenge *identity.Challenge) error
	GetChallengeByNonce(ctx context.Context, nonce string) (*identity.Challenge, error)
	ExchangeChallenge(ctx context.Context, nonce string, sess *identity.Session) error
	GetSessionByToken(ctx context.Context, token string) (*identity.Session, error)
	TouchSession(ctx context.Context, token string) error
	RevokeSession(ctx context.Context, token string) error
}

// Service defines the interface for the authentication business logic
type Service interface {
	IssueChallenge(ctx context.Context, req *identity.ChallengeRequest) (*identity.ChallengeResponse, error)
	Verify(ctx context.Context, req *identity.VerifyRequest) (*identity.SessionResponse, error)
	Resolve(ctx context.Context, token string) (*identity.Session, *identity.User, error)
	Revoke(ctx context.Context, token string) error
}

type authService struct {
	store   Store
	cfg     *config.AuthConfig
	chainID int64
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a new authentication service
func NewService(store Store, cfg *config.AuthConfig, chainID int64, logger *zap.Logger) Service {
	return &authService{
		store:   store,
		cfg:     cfg,
		chainID: chainID,
		logger:  logger,
		now:     time.Now,
	}
}

// IssueChallenge builds and persists a time-boxed sign-in challenge for a
// (wallet, DID) pair. The user row is upserted keyed by wallet address so
// repeated challenges refresh DID and display fields.
func (s *authService) IssueChallenge(ctx context.Context, req *identity.ChallengeRequest) (*identity.ChallengeResponse, error) {
	if !auth.ValidateEVMAddress(req.WalletAddress) {
		return nil, apperrors.ValidationError(nil, "malformed wallet address")
	}
	if req.DID == "" {
		return nil, apperrors.ValidationError(nil, "did is required")
	}

	wallet := auth.LowerAddress(req.WalletAddress)
	did := auth.LowerDID(req.DID)

	ttl := s.cfg.ChallengeTTL
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}
	if ttl < minChallengeTTL {
		ttl = minChallengeTTL
	}

	chainID := s.chainID
	if req.ChainID > 0 {
		chainID = req.ChainID
	}
	domain := s.cfg.Domain
	if req.Domain != "" {
		domain = req.Domain
	}
	uri := s.cfg.URI
	if req.URI != "" {
		uri = req.URI
	}

	usr, err := s.store.UpsertUser(ctx, &identity.User{
		ID:            uuid.New().String(),
		DID:           did,
		WalletAddress: wallet,
		DisplayName:   req.DisplayName,
		Email:         req.Email,
		Role:          identity.RoleMember,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	nonce, err := auth.GenerateNonce()
	if err != nil {
		return nil, apperrors.GeneralError(err)
	}

	issuedAt := s.now().UTC()
	msg := &auth.SIWEMessage{
		Domain:    domain,
		Address:   wallet,
		Statement: req.Statement,
		URI:       uri,
		Version:   "1",
		ChainID:   chainID,
		Nonce:     nonce,
		IssuedAt:  issuedAt,
		Resources: req.Resources,
	}

	challenge := &identity.Challenge{
		ID:            uuid.New().String(),
		UserID:        usr.ID,
		Nonce:         nonce,
		DID:           did,
		WalletAddress: wallet,
		Message:       msg.String(),
		Statement:     req.Statement,
		Resources:     req.Resources,
		IssuedAt:      issuedAt,
		ExpiresAt:     issuedAt.Add(ttl),
	}

	if err := s.store.CreateChallenge(ctx, challenge); err != nil {
		return nil, fmt.Errorf("failed to persist challenge: %w", err)
	}

	metrics.AuthChallengesIssued.Inc()
	s.logger.Info("Challenge issued",
		zap.String("wallet", wallet),
		zap.Time("expires_at", challenge.ExpiresAt))

	return &identity.ChallengeResponse{
		ChallengeID: challenge.ID,
		Nonce:       nonce,
		Message:     challenge.Message,
		ExpiresAt:   challenge.ExpiresAt,
	}, nil
}

// Verify exchanges a signed challenge for a bearer session. The stored
// message is verified as-is, binding the signature to server-chosen
// content. Nothing is mutated on any failure path.
func (s *authService) Verify(ctx context.Context, req *identity.VerifyRequest) (*identity.SessionResponse, error) {
	challenge, err := s.store.GetChallengeByNonce(ctx, req.Nonce)
	if err != nil {
		if errors.Is(err, identitystore.ErrChallengeNotFound) {
			return nil, apperrors.NotFoundError(err, "challenge not found")
		}
		return nil, fmt.Errorf("failed to look up challenge: %w", err)
	}

	now := s.now().UTC()
	if challenge.Expired(now) {
		metrics.AuthVerifyFailures.WithLabelValues("expired").Inc()
		return nil, apperrors.ExpiredError(nil, "challenge expired")
	}
	if challenge.Consumed() {
		metrics.AuthVerifyFailures.WithLabelValues("replay").Inc()
		return nil, apperrors.ReplayError(nil, "challenge already used")
	}

	recovered, err := auth.VerifyEIP191Signature(challenge.Message, req.Signature)
	if err != nil {
		metrics.AuthVerifyFailures.WithLabelValues("bad_signature").Inc()
		return nil, apperrors.UnAuthorizedError(err, "invalid signature")
	}
	if auth.LowerAddress(recovered.Hex()) != challenge.WalletAddress {
		metrics.AuthVerifyFailures.WithLabelValues("signer_mismatch").Inc()
		return nil, apperrors.UnAuthorizedError(nil, "signature does not match wallet")
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		return nil, apperrors.GeneralError(err)
	}

	sess := &identity.Session{
		Token:         token,
		Nonce:         challenge.Nonce,
		UserID:        challenge.UserID,
		WalletAddress: challenge.WalletAddress,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.cfg.SessionTTL),
	}

	if err := s.store.ExchangeChallenge(ctx, req.Nonce, sess); err != nil {
		if errors.Is(err, identitystore.ErrChallengeConsumed) {
			metrics.AuthVerifyFailures.WithLabelValues("replay").Inc()
			return nil, apperrors.ReplayError(err, "challenge already used")
		}
		return nil, fmt.Errorf("failed to exchange challenge: %w", err)
	}

	usr, err := s.store.GetUserByID(ctx, challenge.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	metrics.AuthSessionsCreated.Inc()
	s.logger.Info("Session created",
		zap.String("wallet", challenge.WalletAddress),
		zap.Time("expires_at", sess.ExpiresAt))

	return &identity.SessionResponse{
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
		User:      usr.Profile(),
	}, nil
}

// Resolve looks up a session by bearer token, touches last_used_at and
// returns the session with its user.
func (s *authService) Resolve(ctx context.Context, token string) (*identity.Session, *identity.User, error) {
	sess, err := s.store.GetSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, identitystore.ErrSessionNotFound) {
			return nil, nil, apperrors.NotFoundError(err, "session not found")
		}
		return nil, nil, fmt.Errorf("failed to look up session: %w", err)
	}

	if !sess.Active(s.now().UTC()) {
		return nil, nil, apperrors.ExpiredError(nil, "session expired or revoked")
	}

	if err := s.store.TouchSession(ctx, token); err != nil {
		// Lookup succeeded; a failed touch should not invalidate the session
		s.logger.Warn("Failed to touch session", zap.Error(err))
	}

	usr, err := s.store.GetUserByID(ctx, sess.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}

	return sess, usr, nil
}

// Revoke invalidates a session token
func (s *authService) Revoke(ctx context.Context, token string) error {
	if err := s.store.RevokeSession(ctx, token); err != nil {
		if errors.Is(err, identitystore.ErrSessionNotFound) {
			return apperrors.NotFoundError(err, "session not found")
		}
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	s.logger.Info("Session revoked")
	return nil
}
