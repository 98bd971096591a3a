package assetstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/KeKeBossa/academia-chain-sub001/pkg/activity"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/artifact"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the asset store
func NewStore(db *bun.DB) *pgStore {
	return &pgStore{db: db}
}

func (s *pgStore) RegisterAsset(ctx context.Context, asset *artifact.Asset, entry *activity.Entry) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		assetDao := toAssetDao(asset)
		_, err := tx.NewInsert().
			Model(assetDao).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create asset: %w", err)
		}

		activityDao := toActivityDao(entry)
		_, err = tx.NewInsert().
			Model(activityDao).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to record registration activity: %w", err)
		}
		return nil
	})
}

func (s *pgStore) GetAsset(ctx context.Context, id string) (*artifact.Asset, error) {
	dao := new(AssetDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	return toAsset(dao), nil
}

func (s *pgStore) ListAssetsByGroup(ctx context.Context, groupID string) ([]*artifact.Asset, error) {
	return s.listAssets(ctx, "dao_id = ?", groupID)
}

func (s *pgStore) ListAssetsByOwner(ctx context.Context, ownerID string) ([]*artifact.Asset, error) {
	return s.listAssets(ctx, "owner_id = ?", ownerID)
}

func (s *pgStore) listAssets(ctx context.Context, cond string, arg any) ([]*artifact.Asset, error) {
	var daos []AssetDao
	err := s.db.NewSelect().
		Model(&daos).
		Where(cond, arg).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	assets := make([]*artifact.Asset, len(daos))
	for i := range daos {
		assets[i] = toAsset(&daos[i])
	}
	return assets, nil
}

func (s *pgStore) SetAssetOnChainRef(ctx context.Context, id, onchainID, txHash string) error {
	q := s.db.NewUpdate().
		Model((*AssetDao)(nil)).
		Set("tx_hash = ?", txHash).
		Set("updated_at = NOW()").
		Where("id = ?", id)
	if onchainID != "" {
		q = q.Set("onchain_id = ?", onchainID)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set asset on-chain ref: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return ErrAssetNotFound
	}
	return nil
}

func (s *pgStore) InsertActivity(ctx context.Context, entry *activity.Entry) error {
	dao := toActivityDao(entry)

	_, err := s.db.NewInsert().
		Model(dao).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}

	return nil
}

func (s *pgStore) InsertChainActivity(ctx context.Context, entry *activity.Entry) (bool, error) {
	dao := toActivityDao(entry)

	res, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (source, block_number, log_index) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to insert chain activity: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return affected > 0, nil
}

func (s *pgStore) ListActivity(ctx context.Context, filter *ActivityFilter) ([]*activity.Entry, error) {
	var daos []ActivityDao
	q := s.db.NewSelect().Model(&daos)

	if filter != nil {
		if filter.GroupID != "" {
			q = q.Where("dao_id = ?", filter.GroupID)
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.Action != "" {
			q = q.Where("action = ?", filter.Action)
		}
		if filter.TargetType != "" {
			q = q.Where("target_type = ?", filter.TargetType)
		}
		if filter.TargetID != "" {
			q = q.Where("target_id = ?", filter.TargetID)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}

	err := q.Order("created_at DESC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}

	entries := make([]*activity.Entry, len(daos))
	for i := range daos {
		entries[i] = toActivity(&daos[i])
	}
	return entries, nil
}

func (s *pgStore) GetCursor(ctx context.Context, source string) (uint64, error) {
	dao := new(SyncStateDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("source = ?", source).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get cursor: %w", err)
	}

	return uint64(dao.LastProcessedBlock), nil
}

func (s *pgStore) AdvanceCursor(ctx context.Context, source string, block uint64) error {
	dao := &SyncStateDao{
		Source:             source,
		LastProcessedBlock: int64(block),
	}

	// The guard keeps the watermark monotonic: a slow concurrent run can
	// never rewind a cursor that already moved past it.
	_, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (source) DO UPDATE").
		Set("last_processed_block = EXCLUDED.last_processed_block").
		Set("updated_at = NOW()").
		Where("ess.last_processed_block <= EXCLUDED.last_processed_block").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to advance cursor: %w", err)
	}
	return nil
}
