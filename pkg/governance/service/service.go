// Package service implements the governance mirror operations: groups,
// proposals, votes and the lifecycle transitions that track the on-chain
// Governor.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/KeKeBossa/academia-chain-sub001/internal/metrics"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/activity"
	apperrors "github.com/KeKeBossa/academia-chain-sub001/pkg/app/errors"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/governance"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/govstore"
)

// RoleAdmin is granted to the creator of a group
const RoleAdmin = "admin"

// RoleMember is the default membership role
const RoleMember = "member"

// Store defines the persistence operations needed by the governance service
type Store interface {
	CreateGroup(ctx context.Context, group *governance.Group) error
	GetGroup(ctx context.Context, id string) (*governance.Group, error)
	ListGroups(ctx context.Context) ([]*governance.Group, error)
	UpsertMembership(ctx context.Context, m *governance.Membership) error
	GetMembership(ctx context.Context, groupID, userID string) (*governance.Membership, error)

	CreateProposal(ctx context.Context, p *governance.Proposal, entry *activity.Entry) error
	GetProposal(ctx context.Context, id string) (*governance.Proposal, error)
	ListProposalsByGroup(ctx context.Context, groupID string) ([]*governance.Proposal, error)
	UpdateProposalState(ctx context.Context, id string, from, to governance.ProposalState, entry *activity.Entry) error
	SetProposalOnChainRef(ctx context.Context, id, onchainID string, snapshot, voteStart, voteEnd int64) error

	RecordVote(ctx context.Context, v *governance.Vote, entry *activity.Entry) error
	ListVotesByProposal(ctx context.Context, proposalID string) ([]*governance.Vote, error)
	TallyVotes(ctx context.Context, proposalID string) (*governance.Tally, error)
}

// ChainReader provides the Governor reads used to track on-chain state
type ChainReader interface {
	ProposalState(ctx context.Context, onchainID string) (uint8, error)
	ProposalWindow(ctx context.Context, onchainID string) (snapshot, deadline int64, err error)
}

// Service defines governance operations
type Service interface {
	CreateGroup(ctx context.Context, ownerID string, req *governance.GroupRequest) (*governance.Group, error)
	GetGroup(ctx context.Context, id string) (*governance.Group, error)
	ListGroups(ctx context.Context) ([]*governance.Group, error)
	JoinGroup(ctx context.Context, groupID, userID string, req *governance.MembershipRequest) error

	CreateProposal(ctx context.Context, proposerID string, req *governance.ProposalRequest) (*governance.Proposal, error)
	GetProposal(ctx context.Context, id string) (*governance.Proposal, error)
	ListProposals(ctx context.Context, groupID string) ([]*governance.Proposal, error)
	LinkProposal(ctx context.Context, id string, req *governance.LinkRequest) (*governance.Proposal, error)
	AdvanceProposal(ctx context.Context, id string, to governance.ProposalState) (*governance.Proposal, error)
	SyncProposalState(ctx context.Context, id string) (*governance.Proposal, error)

	CastVote(ctx context.Context, proposalID, voterID string, req *governance.VoteRequest) (*governance.Vote, error)
	ListVotes(ctx context.Context, proposalID string) ([]*governance.Vote, error)
	Tally(ctx context.Context, proposalID string) (*governance.Tally, error)
}

type govService struct {
	store  Store
	chain  ChainReader
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a governance service. The chain reader is optional;
// without it proposals advance only through explicit requests.
func NewService(store Store, chain ChainReader, logger *zap.Logger) Service {
	return &govService{
		store:  store,
		chain:  chain,
		logger: logger,
		now:    time.Now,
	}
}

func (s *govService) CreateGroup(ctx context.Context, ownerID string, req *governance.GroupRequest) (*governance.Group, error) {
	group := &governance.Group{
		ID:              uuid.New().String(),
		Name:            req.Name,
		Description:     req.Description,
		ContractAddress: req.ContractAddress,
		CreatedAt:       s.now().UTC(),
	}

	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, apperrors.GeneralError(fmt.Errorf("failed to create group: %w", err))
	}

	membership := &governance.Membership{
		GroupID:  group.ID,
		UserID:   ownerID,
		Role:     RoleAdmin,
		JoinedAt: group.CreatedAt,
	}
	if err := s.store.UpsertMembership(ctx, membership); err != nil {
		return nil, apperrors.GeneralError(fmt.Errorf("failed to create owner membership: %w", err))
	}

	s.logger.Info("Group created",
		zap.String("group_id", group.ID),
		zap.String("name", group.Name),
		zap.String("owner_id", ownerID))

	return group, nil
}

func (s *govService) GetGroup(ctx context.Context, id string) (*governance.Group, error) {
	group, err := s.store.GetGroup(ctx, id)
	if err != nil {
		if errors.Is(err, govstore.ErrGroupNotFound) {
			return nil, apperrors.NotFoundError(nil, "group not found")
		}
		return nil, apperrors.GeneralError(fmt.Errorf("failed to get group: %w", err))
	}
	return group, nil
}

func (s *govService) ListGroups(ctx context.Context) ([]*governance.Group, error) {
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return nil, apperrors.GeneralError(fmt.Errorf("failed to list groups: %w", err))
	}
	return groups, nil
}

func (s *govService) JoinGroup(ctx context.Context, groupID, userID string, req *governance.MembershipRequest) error {
	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return err
	}

	membership := &governance.Membership{
		GroupID:  groupID,
		UserID:   userID,
		Role:     RoleMember,
		JoinedAt: s.now().UTC(),
	}
	if req != nil && req.Role != "" {
		membership.Role = req.Role
	}
	if req != nil && req.WeightOverride != "" {
		weight, err := decimal.NewFromString(req.WeightOverride)
		if err != nil || weight.IsNegative() {
			return apperrors.ValidationError(nil, "weight_override must be a non-negative decimal")
		}
		membership.WeightOverride = &weight
	}

	if err := s.store.UpsertMembership(ctx, membership); err != nil {
		return apperrors.GeneralError(fmt.Errorf("failed to upsert membership: %w", err))
	}
	return nil
}

func (s *govService) CreateProposal(ctx context.Context, proposerID string, req *governance.ProposalRequest) (*governance.Proposal, error) {
	if _, err := s.GetGroup(ctx, req.GroupID); err != nil {
		return nil, err
	}
	if err := s.requireMembership(ctx, req.GroupID, proposerID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	proposal := &governance.Proposal{
		ID:            uuid.New().String(),
		GroupID:       req.GroupID,
		ProposerID:    proposerID,
		Title:         req.Title,
		Description:   req.Description,
		State:         governance.StatePending,
		ExecutionData: req.ExecutionData,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	entry := &activity.Entry{
		ID:         uuid.New().String(),
		GroupID:    proposal.GroupID,
		UserID:     proposerID,
		Action:     activity.ActionProposalCreated,
		TargetType: activity.TargetProposal,
		TargetID:   proposal.ID,
		CreatedAt:  now,
	}

	if err := s.store.CreateProposal(ctx, proposal, entry); err != nil {
		return nil, apperrors.GeneralError(fmt.Errorf("failed to create proposal: %w", err))
	}

	metrics.ProposalsRecorded.WithLabelValues(string(governance.StatePending)).Inc()
	s.logger.Info("Proposal created",
		zap.String("proposal_id", proposal.ID),
		zap.String("group_id", proposal.GroupID),
		zap.String("proposer_id", proposerID))

	return proposal, nil
}

func (s *govService) GetProposal(ctx context.Context, id string) (*governance.Proposal, error) {
	proposal, err := s.store.GetProposal(ctx, id)
	if err != nil {
		if errors.Is(err, govstore.ErrProposalNotFound) {
			return nil, apperrors.NotFoundError(nil, "proposal not found")
		}
		return nil, apperrors.GeneralError(fmt.Errorf("failed to get proposal: %w", err))
	}
	return proposal, nil
}

func (s *govService) ListProposals(ctx context.Context, groupID string) ([]*governance.Proposal, error) {
	proposals, err := s.store.ListProposalsByGroup(ctx, groupID)
	if err != nil {
		return nil, apperrors.GeneralError(fmt.Errorf("failed to list proposals: %w", err))
	}
	return proposals, nil
}

// LinkProposal attaches the on-chain Governor proposal id and, when the
// chain reader is available, records the voting window it reports.
func (s *govService) LinkProposal(ctx context.Context, id string, req *governance.LinkRequest) (*governance.Proposal, error) {
	proposal, err := s.GetProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	if proposal.OnChainID != "" && proposal.OnChainID != req.OnChainID {
		return nil, apperrors.ConflictError(nil, "proposal is already linked on-chain")
	}

	var snapshot, deadline int64
	if s.chain != nil {
		snapshot, deadline, err = s.chain.ProposalWindow(ctx, req.OnChainID)
		if err != nil {
			return nil, apperrors.ChainUnavailableError(err, "failed to read proposal window")
		}
	}

	// OZ Governor: voting opens at the snapshot block.
	if err := s.store.SetProposalOnChainRef(ctx, id, req.OnChainID, snapshot, snapshot, deadline); err != nil {
		return nil, apperrors.GeneralError(fmt.Errorf("failed to link proposal: %w", err))
	}

	return s.GetProposal(ctx, id)
}

func (s *govService) AdvanceProposal(ctx context.Context, id string, to governance.ProposalState) (*governance.Proposal, error) {
	proposal, err := s.GetProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.advance(ctx, proposal, to, "")
}

// SyncProposalState reads the Governor state for a linked proposal and
// applies it to the mirror record.
func (s *govService) SyncProposalState(ctx context.Context, id string) (*governance.Proposal, error) {
	proposal, err := s.GetProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	if proposal.OnChainID == "" {
		return nil, apperrors.ValidationError(nil, "proposal is not linked on-chain")
	}
	if s.chain == nil {
		return nil, apperrors.ChainUnavailableError(nil, "no chain connection configured")
	}

	chainState, err := s.chain.ProposalState(ctx, proposal.OnChainID)
	if err != nil {
		return nil, apperrors.ChainUnavailableError(err, "failed to read proposal state")
	}

	to, err := governance.StateFromChain(chainState)
	if err != nil {
		return nil, apperrors.GeneralError(fmt.Errorf("unexpected governor state: %w", err))
	}
	if to == proposal.State {
		return proposal, nil
	}

	return s.advance(ctx, proposal, to, proposal.OnChainID)
}

func (s *govService) advance(ctx context.Context, proposal *governance.Proposal, to governance.ProposalState, onchainID string) (*governance.Proposal, error) {
	if _, err := governance.Transition(proposal.State, to); err != nil {
		return nil, apperrors.ConflictError(err, err.Error())
	}

	meta := fmt.Sprintf(`{"from":%q,"to":%q}`, proposal.State, to)
	entry := &activity.Entry{
		ID:         uuid.New().String(),
		GroupID:    proposal.GroupID,
		Action:     activity.ActionProposalAdvanced,
		TargetType: activity.TargetProposal,
		TargetID:   proposal.ID,
		Metadata:   meta,
		CreatedAt:  s.now().UTC(),
	}

	if err := s.store.UpdateProposalState(ctx, proposal.ID, proposal.State, to, entry); err != nil {
		if errors.Is(err, govstore.ErrStaleState) {
			return nil, apperrors.ConflictError(nil, "proposal state changed concurrently")
		}
		return nil, apperrors.GeneralError(fmt.Errorf("failed to advance proposal: %w", err))
	}

	metrics.ProposalsRecorded.WithLabelValues(string(to)).Inc()
	s.logger.Info("Proposal advanced",
		zap.String("proposal_id", proposal.ID),
		zap.String("from", string(proposal.State)),
		zap.String("to", string(to)),
		zap.String("onchain_id", onchainID))

	return s.GetProposal(ctx, proposal.ID)
}

func (s *govService) CastVote(ctx context.Context, proposalID, voterID string, req *governance.VoteRequest) (*governance.Vote, error) {
	if !governance.ValidChoice(req.Choice) {
		return nil, apperrors.ValidationError(nil, "choice must be FOR, AGAINST or ABSTAIN")
	}

	proposal, err := s.GetProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.State != governance.StateActive {
		return nil, apperrors.ConflictError(nil, "proposal is not open for voting")
	}

	membership, err := s.store.GetMembership(ctx, proposal.GroupID, voterID)
	if err != nil {
		if errors.Is(err, govstore.ErrMembershipNotFound) {
			return nil, apperrors.ForbiddenError(nil, "voter is not a member of the group")
		}
		return nil, apperrors.GeneralError(fmt.Errorf("failed to check membership: %w", err))
	}

	weight, err := resolveWeight(req.Weight, membership)
	if err != nil {
		return nil, err
	}

	vote := &governance.Vote{
		ProposalID: proposalID,
		VoterID:    voterID,
		Choice:     req.Choice,
		Weight:     weight,
		TxHash:     req.TxHash,
		CastAt:     s.now().UTC(),
	}

	entry := &activity.Entry{
		ID:         uuid.New().String(),
		GroupID:    proposal.GroupID,
		UserID:     voterID,
		Action:     activity.ActionVoteCast,
		TargetType: activity.TargetProposal,
		TargetID:   proposalID,
		Metadata:   fmt.Sprintf(`{"choice":%q,"weight":%q}`, vote.Choice, vote.Weight.String()),
		CreatedAt:  vote.CastAt,
	}

	if err := s.store.RecordVote(ctx, vote, entry); err != nil {
		return nil, apperrors.GeneralError(fmt.Errorf("failed to record vote: %w", err))
	}

	metrics.VotesRecorded.Inc()
	return vote, nil
}

func (s *govService) ListVotes(ctx context.Context, proposalID string) ([]*governance.Vote, error) {
	votes, err := s.store.ListVotesByProposal(ctx, proposalID)
	if err != nil {
		return nil, apperrors.GeneralError(fmt.Errorf("failed to list votes: %w", err))
	}
	return votes, nil
}

func (s *govService) Tally(ctx context.Context, proposalID string) (*governance.Tally, error) {
	if _, err := s.GetProposal(ctx, proposalID); err != nil {
		return nil, err
	}
	tally, err := s.store.TallyVotes(ctx, proposalID)
	if err != nil {
		return nil, apperrors.GeneralError(fmt.Errorf("failed to tally votes: %w", err))
	}
	return tally, nil
}

func (s *govService) requireMembership(ctx context.Context, groupID, userID string) error {
	_, err := s.store.GetMembership(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, govstore.ErrMembershipNotFound) {
			return apperrors.ForbiddenError(nil, "user is not a member of the group")
		}
		return apperrors.GeneralError(fmt.Errorf("failed to check membership: %w", err))
	}
	return nil
}

// resolveWeight picks the recorded voting weight: an explicit request
// weight wins, then the membership override, then 1.
func resolveWeight(raw string, membership *governance.Membership) (decimal.Decimal, error) {
	if raw != "" {
		weight, err := decimal.NewFromString(raw)
		if err != nil || !weight.IsPositive() {
			return decimal.Zero, apperrors.ValidationError(nil, "weight must be a positive decimal")
		}
		return weight, nil
	}
	if membership.WeightOverride != nil {
		return *membership.WeightOverride, nil
	}
	return decimal.NewFromInt(1), nil
}
