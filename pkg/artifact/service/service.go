// Package service implements research artifact registration: the
// authoritative off-chain write plus the best-effort on-chain anchor.
package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KeKeBossa/academia-chain-sub001/internal/metrics"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/activity"
	apperrors "github.com/KeKeBossa/academia-chain-sub001/pkg/app/errors"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/artifact"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/assetstore"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/governance"
)

// Store defines the persistence operations needed by the artifact service
type Store interface {
	RegisterAsset(ctx context.Context, asset *artifact.Asset, entry *activity.Entry) error
	GetAsset(ctx context.Context, id string) (*artifact.Asset, error)
	ListAssetsByGroup(ctx context.Context, groupID string) ([]*artifact.Asset, error)
	ListAssetsByOwner(ctx context.Context, ownerID string) ([]*artifact.Asset, error)
	SetAssetOnChainRef(ctx context.Context, id, onchainID, txHash string) error
	InsertActivity(ctx context.Context, entry *activity.Entry) error
	ListActivity(ctx context.Context, filter *assetstore.ActivityFilter) ([]*activity.Entry, error)
}

// ChainWriter submits registry transactions
type ChainWriter interface {
	RegisterArtifact(ctx context.Context, labID uint64, cid string, artifactHash common.Hash, proposalID *big.Int) (string, error)
}

// ProposalResolver maps a mirror proposal id to its governance record
type ProposalResolver interface {
	GetProposal(ctx context.Context, id string) (*governance.Proposal, error)
}

// Service defines artifact operations
type Service interface {
	Register(ctx context.Context, ownerID string, req *artifact.RegisterRequest) (*artifact.RegisterResponse, error)
	GetAsset(ctx context.Context, id string) (*artifact.Asset, error)
	ListByGroup(ctx context.Context, groupID string) ([]*artifact.Asset, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*artifact.Asset, error)
	ListActivity(ctx context.Context, filter *assetstore.ActivityFilter) ([]*activity.Entry, error)
}

type artifactService struct {
	store     Store
	proposals ProposalResolver
	chain     ChainWriter
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates an artifact service. The proposal resolver and the
// chain writer are optional; without a chain writer every registration
// stays off-chain only.
func NewService(store Store, proposals ProposalResolver, chain ChainWriter, logger *zap.Logger) Service {
	return &artifactService{
		store:     store,
		proposals: proposals,
		chain:     chain,
		logger:    logger,
		now:       time.Now,
	}
}

// Register stores the asset off-chain and, when a lab context is given,
// attempts the on-chain anchor. The off-chain write is authoritative: a
// failed chain submission degrades the result instead of rolling it back.
func (s *artifactService) Register(ctx context.Context, ownerID string, req *artifact.RegisterRequest) (*artifact.RegisterResponse, error) {
	visibility := req.Visibility
	if visibility == "" {
		visibility = artifact.VisibilityPublic
	}
	switch visibility {
	case artifact.VisibilityPublic, artifact.VisibilityPrivate, artifact.VisibilityGroup:
	default:
		return nil, apperrors.ValidationError(nil, "visibility must be public, private or group")
	}

	now := s.now().UTC()
	asset := &artifact.Asset{
		ID:           uuid.New().String(),
		GroupID:      req.GroupID,
		OwnerID:      ownerID,
		Title:        req.Title,
		Description:  req.Description,
		IpfsCid:      req.IpfsCid,
		ArtifactHash: normalizeHash(req.ArtifactHash, req.IpfsCid),
		Visibility:   visibility,
		ProposalID:   req.ProposalID,
		Metadata:     req.Metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	entry := &activity.Entry{
		ID:         uuid.New().String(),
		GroupID:    asset.GroupID,
		UserID:     ownerID,
		Action:     activity.ActionArtifactRegistered,
		TargetType: activity.TargetArtifact,
		TargetID:   asset.ID,
		Metadata:   fmt.Sprintf(`{"cid":%q,"artifact_hash":%q}`, asset.IpfsCid, asset.ArtifactHash),
		CreatedAt:  now,
	}

	if err := s.store.RegisterAsset(ctx, asset, entry); err != nil {
		return nil, apperrors.GeneralError(fmt.Errorf("failed to register asset: %w", err))
	}

	resp := &artifact.RegisterResponse{Asset: asset.ToResponse()}

	if req.LabID == 0 || s.chain == nil {
		metrics.ArtifactsRegistered.WithLabelValues("false").Inc()
		return resp, nil
	}

	txHash, err := s.anchor(ctx, asset, req.LabID)
	if err != nil {
		// Off-chain state is already durable; the anchor is retryable.
		metrics.ArtifactsRegistered.WithLabelValues("false").Inc()
		metrics.ChainTransactionsSent.WithLabelValues("register_artifact", "error").Inc()
		s.logger.Warn("On-chain anchor failed, keeping off-chain record",
			zap.String("asset_id", asset.ID),
			zap.Uint64("lab_id", req.LabID),
			zap.Error(err))
		return resp, nil
	}

	metrics.ArtifactsRegistered.WithLabelValues("true").Inc()
	metrics.ChainTransactionsSent.WithLabelValues("register_artifact", "ok").Inc()

	resp.TxHash = txHash
	resp.Asset.TxHash = txHash
	return resp, nil
}

func (s *artifactService) anchor(ctx context.Context, asset *artifact.Asset, labID uint64) (string, error) {
	proposalID := s.resolveProposalRef(ctx, asset.ProposalID)
	txHash, err := s.chain.RegisterArtifact(ctx, labID, asset.IpfsCid, common.HexToHash(asset.ArtifactHash), proposalID)
	if err != nil {
		return "", err
	}

	if err := s.store.SetAssetOnChainRef(ctx, asset.ID, "", txHash); err != nil {
		s.logger.Warn("Failed to record anchor tx hash",
			zap.String("asset_id", asset.ID),
			zap.String("tx_hash", txHash),
			zap.Error(err))
		return txHash, nil
	}

	entry := &activity.Entry{
		ID:         uuid.New().String(),
		GroupID:    asset.GroupID,
		UserID:     asset.OwnerID,
		Action:     activity.ActionArtifactAnchored,
		TargetType: activity.TargetArtifact,
		TargetID:   asset.ID,
		TxHash:     txHash,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.InsertActivity(ctx, entry); err != nil {
		s.logger.Warn("Failed to record anchor activity",
			zap.String("asset_id", asset.ID),
			zap.Error(err))
	}

	return txHash, nil
}

// resolveProposalRef maps the asset's mirror proposal link to the
// on-chain Governor id. Zero when the asset is unlinked, the proposal
// cannot be resolved, or the proposal has no on-chain id yet.
func (s *artifactService) resolveProposalRef(ctx context.Context, proposalID string) *big.Int {
	if proposalID == "" || s.proposals == nil {
		return big.NewInt(0)
	}

	proposal, err := s.proposals.GetProposal(ctx, proposalID)
	if err != nil {
		s.logger.Warn("Failed to resolve proposal link for anchor",
			zap.String("proposal_id", proposalID),
			zap.Error(err))
		return big.NewInt(0)
	}
	if proposal.OnChainID == "" {
		return big.NewInt(0)
	}

	id, ok := new(big.Int).SetString(proposal.OnChainID, 10)
	if !ok {
		s.logger.Warn("Proposal carries a malformed on-chain id",
			zap.String("proposal_id", proposalID),
			zap.String("onchain_id", proposal.OnChainID))
		return big.NewInt(0)
	}
	return id
}

func (s *artifactService) GetAsset(ctx context.Context, id string) (*artifact.Asset, error) {
	asset, err := s.store.GetAsset(ctx, id)
	if err != nil {
		if errors.Is(err, assetstore.ErrAssetNotFound) {
			return nil, apperrors.NotFoundError(nil, "asset not found")
		}
		return nil, apperrors.GeneralError(fmt.Errorf("failed to get asset: %w", err))
	}
	return asset, nil
}

func (s *artifactService) ListByGroup(ctx context.Context, groupID string) ([]*artifact.Asset, error) {
	assets, err := s.store.ListAssetsByGroup(ctx, groupID)
	if err != nil {
		return nil, apperrors.GeneralError(fmt.Errorf("failed to list assets: %w", err))
	}
	return assets, nil
}

func (s *artifactService) ListByOwner(ctx context.Context, ownerID string) ([]*artifact.Asset, error) {
	assets, err := s.store.ListAssetsByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.GeneralError(fmt.Errorf("failed to list assets: %w", err))
	}
	return assets, nil
}

func (s *artifactService) ListActivity(ctx context.Context, filter *assetstore.ActivityFilter) ([]*activity.Entry, error) {
	entries, err := s.store.ListActivity(ctx, filter)
	if err != nil {
		return nil, apperrors.GeneralError(fmt.Errorf("failed to list activity: %w", err))
	}
	return entries, nil
}

// normalizeHash returns the provided hash lower-cased when it is a valid
// 32-byte hex string, otherwise the keccak256 of the content identifier.
func normalizeHash(provided, cid string) string {
	h := strings.TrimPrefix(strings.ToLower(provided), "0x")
	if len(h) == 64 {
		if _, err := hex.DecodeString(h); err == nil {
			return "0x" + h
		}
	}
	return crypto.Keccak256Hash([]byte(cid)).Hex()
}
