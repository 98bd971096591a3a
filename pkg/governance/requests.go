package governance

import "time"

// GroupRequest is the payload for creating a governance group
type GroupRequest struct {
	Name            string `json:"name" validate:"required,min=3,max=255"`
	Description     string `json:"description,omitempty"`
	ContractAddress string `json:"contract_address,omitempty"`
}

// GroupResponse is the API view of a group
type GroupResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	ContractAddress string    `json:"contract_address,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ToResponse builds the API view of a group
func (g *Group) ToResponse() *GroupResponse {
	return &GroupResponse{
		ID:              g.ID,
		Name:            g.Name,
		Description:     g.Description,
		ContractAddress: g.ContractAddress,
		CreatedAt:       g.CreatedAt,
	}
}

// MembershipRequest is the payload for joining a group or updating a
// member's role and weight
type MembershipRequest struct {
	Role           string `json:"role,omitempty"`
	WeightOverride string `json:"weight_override,omitempty"`
}

// ProposalRequest is the payload for creating a proposal
type ProposalRequest struct {
	GroupID       string `json:"group_id" validate:"required,uuid"`
	Title         string `json:"title" validate:"required,min=3,max=500"`
	Description   string `json:"description,omitempty"`
	ExecutionData string `json:"execution_data,omitempty"`
}

// ProposalResponse is the API view of a proposal
type ProposalResponse struct {
	ID               string        `json:"id"`
	GroupID          string        `json:"group_id"`
	ProposerID       string        `json:"proposer_id,omitempty"`
	Title            string        `json:"title"`
	Description      string        `json:"description,omitempty"`
	State            ProposalState `json:"state"`
	SnapshotBlock    *int64        `json:"snapshot_block,omitempty"`
	VotingStartBlock *int64        `json:"voting_start_block,omitempty"`
	VotingEndBlock   *int64        `json:"voting_end_block,omitempty"`
	OnChainID        string        `json:"onchain_id,omitempty"`
	QueuedAt         *time.Time    `json:"queued_at,omitempty"`
	ExecutedAt       *time.Time    `json:"executed_at,omitempty"`
	CanceledAt       *time.Time    `json:"canceled_at,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// ToResponse builds the API view of a proposal
func (p *Proposal) ToResponse() *ProposalResponse {
	return &ProposalResponse{
		ID:               p.ID,
		GroupID:          p.GroupID,
		ProposerID:       p.ProposerID,
		Title:            p.Title,
		Description:      p.Description,
		State:            p.State,
		SnapshotBlock:    p.SnapshotBlock,
		VotingStartBlock: p.VotingStartBlock,
		VotingEndBlock:   p.VotingEndBlock,
		OnChainID:        p.OnChainID,
		QueuedAt:         p.QueuedAt,
		ExecutedAt:       p.ExecutedAt,
		CanceledAt:       p.CanceledAt,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// VoteRequest is the payload for casting a vote. Weight, when present,
// must be a positive decimal string; omitted weight falls back to the
// member's override or the default of 1.
type VoteRequest struct {
	Choice VoteChoice `json:"choice" validate:"required"`
	Weight string     `json:"weight,omitempty"`
	TxHash string     `json:"tx_hash,omitempty"`
}

// VoteResponse is the API view of a recorded vote
type VoteResponse struct {
	ProposalID string     `json:"proposal_id"`
	VoterID    string     `json:"voter_id"`
	Choice     VoteChoice `json:"choice"`
	Weight     string     `json:"weight"`
	TxHash     string     `json:"tx_hash,omitempty"`
	CastAt     time.Time  `json:"cast_at"`
}

// ToResponse builds the API view of a vote
func (v *Vote) ToResponse() *VoteResponse {
	return &VoteResponse{
		ProposalID: v.ProposalID,
		VoterID:    v.VoterID,
		Choice:     v.Choice,
		Weight:     v.Weight.String(),
		TxHash:     v.TxHash,
		CastAt:     v.CastAt,
	}
}

// TallyResponse is the API view of the advisory off-chain tally
type TallyResponse struct {
	For     string `json:"for"`
	Against string `json:"against"`
	Abstain string `json:"abstain"`
}

// ToResponse builds the API view of a tally
func (t *Tally) ToResponse() *TallyResponse {
	return &TallyResponse{
		For:     t.For.String(),
		Against: t.Against.String(),
		Abstain: t.Abstain.String(),
	}
}

// AdvanceRequest is the payload for moving a proposal to a new state
type AdvanceRequest struct {
	To ProposalState `json:"to" validate:"required"`
}

// LinkRequest is the payload for attaching the on-chain proposal id
type LinkRequest struct {
	OnChainID string `json:"onchain_id" validate:"required"`
}
