// Package governance models the proposal lifecycle mirrored from the
// on-chain Governor and Timelock contracts. The mirror records votes and
// proposal states for display and audit; the chain remains the source of
// truth and the mirror never recomputes quorum itself.
package governance

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProposalState is the lifecycle state of a proposal
type ProposalState string

const (
	StatePending   ProposalState = "PENDING"
	StateActive    ProposalState = "ACTIVE"
	StateSucceeded ProposalState = "SUCCEEDED"
	StateDefeated  ProposalState = "DEFEATED"
	StateQueued    ProposalState = "QUEUED"
	StateExecuted  ProposalState = "EXECUTED"
	StateCanceled  ProposalState = "CANCELED"
)

// VoteChoice is a recorded voting position
type VoteChoice string

const (
	VoteFor     VoteChoice = "FOR"
	VoteAgainst VoteChoice = "AGAINST"
	VoteAbstain VoteChoice = "ABSTAIN"
)

// ValidChoice reports whether v is a recognized vote choice
func ValidChoice(v VoteChoice) bool {
	switch v {
	case VoteFor, VoteAgainst, VoteAbstain:
		return true
	}
	return false
}

// Group is a governance group (a research DAO) in the mirror
type Group struct {
	ID              string
	Name            string
	Description     string
	ContractAddress string
	CreatedAt       time.Time
}

// Membership is a user's role and weight within a group. WeightOverride,
// when set, replaces the default voting weight for off-chain aggregates;
// it never affects on-chain voting power.
type Membership struct {
	GroupID        string
	UserID         string
	Role           string
	WeightOverride *decimal.Decimal
	JoinedAt       time.Time
}

// Proposal is the off-chain record of a governance proposal. OnChainID is
// the uint256 Governor proposal id in decimal form, present once the
// proposal is submitted on-chain.
type Proposal struct {
	ID               string
	GroupID          string
	ProposerID       string
	Title            string
	Description      string
	State            ProposalState
	SnapshotBlock    *int64
	VotingStartBlock *int64
	VotingEndBlock   *int64
	OnChainID        string
	ExecutionData    string
	QueuedAt         *time.Time
	ExecutedAt       *time.Time
	CanceledAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Vote is a recorded voting position, unique per (proposal, voter).
// Re-submission overwrites the prior record: last write wins.
type Vote struct {
	ProposalID string
	VoterID    string
	Choice     VoteChoice
	Weight     decimal.Decimal
	TxHash     string
	CastAt     time.Time
}

// Tally is the off-chain aggregate of recorded votes for one proposal.
// Advisory only; authoritative resolution comes from chain reads.
type Tally struct {
	For     decimal.Decimal
	Against decimal.Decimal
	Abstain decimal.Decimal
}
