package govstore

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/KeKeBossa/academia-chain-sub001/pkg/governance"
)

// GroupDao is a data access object that maps directly to the 'daos' table in PostgreSQL.
type GroupDao struct {
	bun.BaseModel   `bun:"table:daos,alias:d"`
	ID              string    `bun:"id,pk,type:uuid"`
	Name            string    `bun:"name,unique,notnull,type:varchar(255)"`
	Description     *string   `bun:"description,type:text"`
	ContractAddress *string   `bun:"contract_address,type:varchar(42)"`
	CreatedAt       time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

func toGroupDao(g *governance.Group) *GroupDao {
	dao := &GroupDao{
		ID:        g.ID,
		Name:      g.Name,
		CreatedAt: g.CreatedAt,
	}
	if g.Description != "" {
		dao.Description = &g.Description
	}
	if g.ContractAddress != "" {
		dao.ContractAddress = &g.ContractAddress
	}
	return dao
}

func toGroup(dao *GroupDao) *governance.Group {
	g := &governance.Group{
		ID:        dao.ID,
		Name:      dao.Name,
		CreatedAt: dao.CreatedAt,
	}
	if dao.Description != nil {
		g.Description = *dao.Description
	}
	if dao.ContractAddress != nil {
		g.ContractAddress = *dao.ContractAddress
	}
	return g
}

// MembershipDao is a data access object that maps directly to the 'dao_memberships' table in PostgreSQL.
type MembershipDao struct {
	bun.BaseModel  `bun:"table:dao_memberships,alias:dm"`
	GroupID        string           `bun:"dao_id,pk,type:uuid"`
	UserID         string           `bun:"user_id,pk,type:uuid"`
	Role           string           `bun:"role,notnull,default:'member',type:varchar(32)"`
	WeightOverride *decimal.Decimal `bun:"weight_override,type:numeric(38,18)"`
	JoinedAt       time.Time        `bun:"joined_at,nullzero,default:current_timestamp"`
}

func toMembershipDao(m *governance.Membership) *MembershipDao {
	return &MembershipDao{
		GroupID:        m.GroupID,
		UserID:         m.UserID,
		Role:           m.Role,
		WeightOverride: m.WeightOverride,
		JoinedAt:       m.JoinedAt,
	}
}

func toMembership(dao *MembershipDao) *governance.Membership {
	return &governance.Membership{
		GroupID:        dao.GroupID,
		UserID:         dao.UserID,
		Role:           dao.Role,
		WeightOverride: dao.WeightOverride,
		JoinedAt:       dao.JoinedAt,
	}
}

// ProposalDao is a data access object that maps directly to the 'proposals' table in PostgreSQL.
type ProposalDao struct {
	bun.BaseModel    `bun:"table:proposals,alias:p"`
	ID               string     `bun:"id,pk,type:uuid"`
	GroupID          string     `bun:"dao_id,notnull,type:uuid"`
	ProposerID       *string    `bun:"proposer_id,type:uuid"`
	Title            string     `bun:"title,notnull,type:varchar(500)"`
	Description      *string    `bun:"description,type:text"`
	State            string     `bun:"state,notnull,default:'PENDING',type:varchar(16)"`
	SnapshotBlock    *int64     `bun:"snapshot_block"`
	VotingStartBlock *int64     `bun:"voting_start_block"`
	VotingEndBlock   *int64     `bun:"voting_end_block"`
	OnChainID        *string    `bun:"onchain_id,type:numeric(78,0)"`
	ExecutionData    *string    `bun:"execution_data,type:text"`
	QueuedAt         *time.Time `bun:"queued_at"`
	ExecutedAt       *time.Time `bun:"executed_at"`
	CanceledAt       *time.Time `bun:"canceled_at"`
	CreatedAt        time.Time  `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt        time.Time  `bun:"updated_at,nullzero,default:current_timestamp"`
}

func toProposalDao(p *governance.Proposal) *ProposalDao {
	dao := &ProposalDao{
		ID:               p.ID,
		GroupID:          p.GroupID,
		Title:            p.Title,
		State:            string(p.State),
		SnapshotBlock:    p.SnapshotBlock,
		VotingStartBlock: p.VotingStartBlock,
		VotingEndBlock:   p.VotingEndBlock,
		QueuedAt:         p.QueuedAt,
		ExecutedAt:       p.ExecutedAt,
		CanceledAt:       p.CanceledAt,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if p.ProposerID != "" {
		dao.ProposerID = &p.ProposerID
	}
	if p.Description != "" {
		dao.Description = &p.Description
	}
	if p.OnChainID != "" {
		dao.OnChainID = &p.OnChainID
	}
	if p.ExecutionData != "" {
		dao.ExecutionData = &p.ExecutionData
	}
	return dao
}

func toProposal(dao *ProposalDao) *governance.Proposal {
	p := &governance.Proposal{
		ID:               dao.ID,
		GroupID:          dao.GroupID,
		Title:            dao.Title,
		State:            governance.ProposalState(dao.State),
		SnapshotBlock:    dao.SnapshotBlock,
		VotingStartBlock: dao.VotingStartBlock,
		VotingEndBlock:   dao.VotingEndBlock,
		QueuedAt:         dao.QueuedAt,
		ExecutedAt:       dao.ExecutedAt,
		CanceledAt:       dao.CanceledAt,
		CreatedAt:        dao.CreatedAt,
		UpdatedAt:        dao.UpdatedAt,
	}
	if dao.ProposerID != nil {
		p.ProposerID = *dao.ProposerID
	}
	if dao.Description != nil {
		p.Description = *dao.Description
	}
	if dao.OnChainID != nil {
		p.OnChainID = *dao.OnChainID
	}
	if dao.ExecutionData != nil {
		p.ExecutionData = *dao.ExecutionData
	}
	return p
}

// VoteDao is a data access object that maps directly to the 'votes' table in PostgreSQL.
// The (dao primary key over proposal_id, voter_id) enforces one recorded
// vote per voter per proposal; upserts give last-write-wins semantics.
type VoteDao struct {
	bun.BaseModel `bun:"table:votes,alias:v"`
	ProposalID    string          `bun:"proposal_id,pk,type:uuid"`
	VoterID       string          `bun:"voter_id,pk,type:uuid"`
	Choice        string          `bun:"choice,notnull,type:varchar(8)"`
	Weight        decimal.Decimal `bun:"weight,notnull,type:numeric(38,18)"`
	TxHash        *string         `bun:"tx_hash,type:varchar(66)"`
	CastAt        time.Time       `bun:"cast_at,nullzero,default:current_timestamp"`
}

func toVoteDao(v *governance.Vote) *VoteDao {
	dao := &VoteDao{
		ProposalID: v.ProposalID,
		VoterID:    v.VoterID,
		Choice:     string(v.Choice),
		Weight:     v.Weight,
		CastAt:     v.CastAt,
	}
	if v.TxHash != "" {
		dao.TxHash = &v.TxHash
	}
	return dao
}

func toVote(dao *VoteDao) *governance.Vote {
	v := &governance.Vote{
		ProposalID: dao.ProposalID,
		VoterID:    dao.VoterID,
		Choice:     governance.VoteChoice(dao.Choice),
		Weight:     dao.Weight,
		CastAt:     dao.CastAt,
	}
	if dao.TxHash != nil {
		v.TxHash = *dao.TxHash
	}
	return v
}
