package govstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/KeKeBossa/academia-chain-sub001/pkg/activity"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/assetstore"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/governance"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the governance store
func NewStore(db *bun.DB) *pgStore {
	return &pgStore{db: db}
}

func (s *pgStore) CreateGroup(ctx context.Context, group *governance.Group) error {
	dao := toGroupDao(group)

	_, err := s.db.NewInsert().
		Model(dao).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create dao: %w", err)
	}

	return nil
}

func (s *pgStore) GetGroup(ctx context.Context, id string) (*governance.Group, error) {
	dao := new(GroupDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get dao: %w", err)
	}

	return toGroup(dao), nil
}

func (s *pgStore) ListGroups(ctx context.Context) ([]*governance.Group, error) {
	var daos []GroupDao
	err := s.db.NewSelect().
		Model(&daos).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list daos: %w", err)
	}

	groups := make([]*governance.Group, len(daos))
	for i := range daos {
		groups[i] = toGroup(&daos[i])
	}
	return groups, nil
}

func (s *pgStore) UpsertMembership(ctx context.Context, m *governance.Membership) error {
	dao := toMembershipDao(m)

	_, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (dao_id, user_id) DO UPDATE").
		Set("role = EXCLUDED.role").
		Set("weight_override = EXCLUDED.weight_override").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert membership: %w", err)
	}

	return nil
}

func (s *pgStore) GetMembership(ctx context.Context, groupID, userID string) (*governance.Membership, error) {
	dao := new(MembershipDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("dao_id = ?", groupID).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return toMembership(dao), nil
}

func (s *pgStore) CreateProposal(ctx context.Context, p *governance.Proposal, entry *activity.Entry) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		dao := toProposalDao(p)
		_, err := tx.NewInsert().
			Model(dao).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create proposal: %w", err)
		}

		_, err = tx.NewInsert().
			Model(assetstore.NewActivityDao(entry)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to record proposal activity: %w", err)
		}
		return nil
	})
}

func (s *pgStore) GetProposal(ctx context.Context, id string) (*governance.Proposal, error) {
	return s.getProposal(ctx, "id = ?", id)
}

func (s *pgStore) GetProposalByOnChainID(ctx context.Context, onchainID string) (*governance.Proposal, error) {
	return s.getProposal(ctx, "onchain_id = ?", onchainID)
}

func (s *pgStore) getProposal(ctx context.Context, cond string, arg any) (*governance.Proposal, error) {
	dao := new(ProposalDao)
	err := s.db.NewSelect().
		Model(dao).
		Where(cond, arg).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProposalNotFound
		}
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}

	return toProposal(dao), nil
}

func (s *pgStore) ListProposalsByGroup(ctx context.Context, groupID string) ([]*governance.Proposal, error) {
	var daos []ProposalDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("dao_id = ?", groupID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}

	proposals := make([]*governance.Proposal, len(daos))
	for i := range daos {
		proposals[i] = toProposal(&daos[i])
	}
	return proposals, nil
}

func (s *pgStore) UpdateProposalState(ctx context.Context, id string, from, to governance.ProposalState, entry *activity.Entry) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewUpdate().
			Model((*ProposalDao)(nil)).
			Set("state = ?", string(to)).
			Set("updated_at = NOW()").
			Where("id = ?", id).
			Where("state = ?", string(from))

		switch to {
		case governance.StateQueued:
			q = q.Set("queued_at = NOW()")
		case governance.StateExecuted:
			q = q.Set("executed_at = NOW()")
		case governance.StateCanceled:
			q = q.Set("canceled_at = NOW()")
		}

		res, err := q.Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update proposal state: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read update result: %w", err)
		}
		if affected == 0 {
			return ErrStaleState
		}

		if entry != nil {
			_, err = tx.NewInsert().
				Model(assetstore.NewActivityDao(entry)).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to record state activity: %w", err)
			}
		}
		return nil
	})
}

func (s *pgStore) SetProposalOnChainRef(ctx context.Context, id, onchainID string, snapshot, voteStart, voteEnd int64) error {
	res, err := s.db.NewUpdate().
		Model((*ProposalDao)(nil)).
		Set("onchain_id = ?", onchainID).
		Set("snapshot_block = ?", snapshot).
		Set("voting_start_block = ?", voteStart).
		Set("voting_end_block = ?", voteEnd).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set proposal on-chain ref: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return ErrProposalNotFound
	}
	return nil
}

func (s *pgStore) RecordVote(ctx context.Context, v *governance.Vote, entry *activity.Entry) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		dao := toVoteDao(v)

		// Last write wins per (proposal, voter)
		_, err := tx.NewInsert().
			Model(dao).
			On("CONFLICT (proposal_id, voter_id) DO UPDATE").
			Set("choice = EXCLUDED.choice").
			Set("weight = EXCLUDED.weight").
			Set("tx_hash = EXCLUDED.tx_hash").
			Set("cast_at = EXCLUDED.cast_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to upsert vote: %w", err)
		}

		_, err = tx.NewInsert().
			Model(assetstore.NewActivityDao(entry)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to record vote activity: %w", err)
		}
		return nil
	})
}

func (s *pgStore) GetVote(ctx context.Context, proposalID, voterID string) (*governance.Vote, error) {
	dao := new(VoteDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("proposal_id = ?", proposalID).
		Where("voter_id = ?", voterID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("vote not found")
		}
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}

	return toVote(dao), nil
}

func (s *pgStore) ListVotesByProposal(ctx context.Context, proposalID string) ([]*governance.Vote, error) {
	var daos []VoteDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("proposal_id = ?", proposalID).
		Order("cast_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}

	votes := make([]*governance.Vote, len(daos))
	for i := range daos {
		votes[i] = toVote(&daos[i])
	}
	return votes, nil
}

func (s *pgStore) TallyVotes(ctx context.Context, proposalID string) (*governance.Tally, error) {
	votes, err := s.ListVotesByProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	tally := &governance.Tally{
		For:     decimal.Zero,
		Against: decimal.Zero,
		Abstain: decimal.Zero,
	}
	for _, v := range votes {
		switch v.Choice {
		case governance.VoteFor:
			tally.For = tally.For.Add(v.Weight)
		case governance.VoteAgainst:
			tally.Against = tally.Against.Add(v.Weight)
		case governance.VoteAbstain:
			tally.Abstain = tally.Abstain.Add(v.Weight)
		}
	}
	return tally, nil
}
