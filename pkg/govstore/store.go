package govstore

import (
	"context"
	"errors"

	"github.com/KeKeBossa/academia-chain-sub001/pkg/activity"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/governance"
)

// ErrGroupNotFound is returned when a group lookup finds no matching record.
var ErrGroupNotFound = errors.New("dao not found")

// ErrProposalNotFound is returned when a proposal lookup finds no matching record.
var ErrProposalNotFound = errors.New("proposal not found")

// ErrMembershipNotFound is returned when a membership lookup finds no matching record.
var ErrMembershipNotFound = errors.New("membership not found")

// ErrStaleState is returned when a guarded state update matched no row,
// meaning the proposal moved concurrently.
var ErrStaleState = errors.New("proposal state changed concurrently")

// GroupStore defines persistence for governance groups and memberships
type GroupStore interface {
	CreateGroup(ctx context.Context, group *governance.Group) error
	GetGroup(ctx context.Context, id string) (*governance.Group, error)
	ListGroups(ctx context.Context) ([]*governance.Group, error)
	UpsertMembership(ctx context.Context, m *governance.Membership) error
	GetMembership(ctx context.Context, groupID, userID string) (*governance.Membership, error)
}

// ProposalStore defines persistence for proposals.
// UpdateProposalState is guarded by the expected current state so two
// concurrent advances cannot both apply.
type ProposalStore interface {
	CreateProposal(ctx context.Context, p *governance.Proposal, entry *activity.Entry) error
	GetProposal(ctx context.Context, id string) (*governance.Proposal, error)
	GetProposalByOnChainID(ctx context.Context, onchainID string) (*governance.Proposal, error)
	ListProposalsByGroup(ctx context.Context, groupID string) ([]*governance.Proposal, error)
	UpdateProposalState(ctx context.Context, id string, from, to governance.ProposalState, entry *activity.Entry) error
	SetProposalOnChainRef(ctx context.Context, id, onchainID string, snapshot, voteStart, voteEnd int64) error
}

// VoteStore defines persistence for votes. RecordVote upserts the vote
// keyed by (proposal, voter) and appends an audit entry in the same
// transaction, one entry per write attempt.
type VoteStore interface {
	RecordVote(ctx context.Context, v *governance.Vote, entry *activity.Entry) error
	GetVote(ctx context.Context, proposalID, voterID string) (*governance.Vote, error)
	ListVotesByProposal(ctx context.Context, proposalID string) ([]*governance.Vote, error)
	TallyVotes(ctx context.Context, proposalID string) (*governance.Tally, error)
}

// Store combines all governance persistence concerns
type Store interface {
	GroupStore
	ProposalStore
	VoteStore
}
