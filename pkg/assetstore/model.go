package assetstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/KeKeBossa/academia-chain-sub001/pkg/activity"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/artifact"
)

// AssetDao is a data access object that maps directly to the 'research_assets' table in PostgreSQL.
type AssetDao struct {
	bun.BaseModel `bun:"table:research_assets,alias:ra"`
	ID            string    `bun:"id,pk,type:uuid"`
	GroupID       string    `bun:"dao_id,notnull,type:uuid"`
	OwnerID       string    `bun:"owner_id,notnull,type:uuid"`
	Title         string    `bun:"title,notnull,type:varchar(500)"`
	Description   *string   `bun:"description,type:text"`
	IpfsCid       string    `bun:"ipfs_cid,notnull,type:varchar(255)"`
	ArtifactHash  string    `bun:"artifact_hash,notnull,type:varchar(66)"`
	Visibility    string    `bun:"visibility,notnull,default:'public',type:varchar(16)"`
	ProposalID    *string   `bun:"proposal_id,type:uuid"`
	OnChainID     *string   `bun:"onchain_id,type:numeric(78,0)"`
	TxHash        *string   `bun:"tx_hash,type:varchar(66)"`
	Metadata      *string   `bun:"metadata,type:jsonb"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,default:current_timestamp"`
}

func toAssetDao(a *artifact.Asset) *AssetDao {
	dao := &AssetDao{
		ID:           a.ID,
		GroupID:      a.GroupID,
		OwnerID:      a.OwnerID,
		Title:        a.Title,
		IpfsCid:      a.IpfsCid,
		ArtifactHash: a.ArtifactHash,
		Visibility:   a.Visibility,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
	if dao.Visibility == "" {
		dao.Visibility = artifact.VisibilityPublic
	}
	if a.Description != "" {
		dao.Description = &a.Description
	}
	if a.ProposalID != "" {
		dao.ProposalID = &a.ProposalID
	}
	if a.OnChainID != "" {
		dao.OnChainID = &a.OnChainID
	}
	if a.TxHash != "" {
		dao.TxHash = &a.TxHash
	}
	if a.Metadata != "" {
		dao.Metadata = &a.Metadata
	}
	return dao
}

func toAsset(dao *AssetDao) *artifact.Asset {
	a := &artifact.Asset{
		ID:           dao.ID,
		GroupID:      dao.GroupID,
		OwnerID:      dao.OwnerID,
		Title:        dao.Title,
		IpfsCid:      dao.IpfsCid,
		ArtifactHash: dao.ArtifactHash,
		Visibility:   dao.Visibility,
		CreatedAt:    dao.CreatedAt,
		UpdatedAt:    dao.UpdatedAt,
	}
	if dao.Description != nil {
		a.Description = *dao.Description
	}
	if dao.ProposalID != nil {
		a.ProposalID = *dao.ProposalID
	}
	if dao.OnChainID != nil {
		a.OnChainID = *dao.OnChainID
	}
	if dao.TxHash != nil {
		a.TxHash = *dao.TxHash
	}
	if dao.Metadata != nil {
		a.Metadata = *dao.Metadata
	}
	return a
}

// ActivityDao is a data access object that maps directly to the 'activity_log' table in PostgreSQL.
// Chain-ingested rows carry (source, block_number, log_index); the unique
// index over the triple makes re-ingestion a no-op. App-originated rows
// leave the triple NULL, which Postgres treats as always-distinct.
type ActivityDao struct {
	bun.BaseModel `bun:"table:activity_log,alias:al"`
	ID            string    `bun:"id,pk,type:uuid"`
	GroupID       *string   `bun:"dao_id,type:uuid"`
	UserID        *string   `bun:"user_id,type:uuid"`
	Action        string    `bun:"action,notnull,type:varchar(64)"`
	TargetType    *string   `bun:"target_type,type:varchar(32)"`
	TargetID      *string   `bun:"target_id,type:varchar(128)"`
	Source        *string   `bun:"source,type:varchar(64)"`
	BlockNumber   *int64    `bun:"block_number"`
	LogIndex      *int64    `bun:"log_index"`
	TxHash        *string   `bun:"tx_hash,type:varchar(66)"`
	Metadata      *string   `bun:"metadata,type:jsonb"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

// NewActivityDao converts a feed entry for insertion by other stores that
// write audit rows inside their own transactions.
func NewActivityDao(e *activity.Entry) *ActivityDao {
	return toActivityDao(e)
}

func toActivityDao(e *activity.Entry) *ActivityDao {
	dao := &ActivityDao{
		ID:        e.ID,
		Action:    e.Action,
		CreatedAt: e.CreatedAt,
	}
	if e.GroupID != "" {
		dao.GroupID = &e.GroupID
	}
	if e.UserID != "" {
		dao.UserID = &e.UserID
	}
	if e.TargetType != "" {
		dao.TargetType = &e.TargetType
	}
	if e.TargetID != "" {
		dao.TargetID = &e.TargetID
	}
	if e.Source != "" {
		dao.Source = &e.Source
	}
	if e.BlockNumber != nil {
		block := int64(*e.BlockNumber)
		dao.BlockNumber = &block
	}
	if e.LogIndex != nil {
		idx := int64(*e.LogIndex)
		dao.LogIndex = &idx
	}
	if e.TxHash != "" {
		dao.TxHash = &e.TxHash
	}
	if e.Metadata != "" {
		dao.Metadata = &e.Metadata
	}
	return dao
}

func toActivity(dao *ActivityDao) *activity.Entry {
	e := &activity.Entry{
		ID:        dao.ID,
		Action:    dao.Action,
		CreatedAt: dao.CreatedAt,
	}
	if dao.GroupID != nil {
		e.GroupID = *dao.GroupID
	}
	if dao.UserID != nil {
		e.UserID = *dao.UserID
	}
	if dao.TargetType != nil {
		e.TargetType = *dao.TargetType
	}
	if dao.TargetID != nil {
		e.TargetID = *dao.TargetID
	}
	if dao.Source != nil {
		e.Source = *dao.Source
	}
	if dao.BlockNumber != nil {
		block := uint64(*dao.BlockNumber)
		e.BlockNumber = &block
	}
	if dao.LogIndex != nil {
		idx := uint32(*dao.LogIndex)
		e.LogIndex = &idx
	}
	if dao.TxHash != nil {
		e.TxHash = *dao.TxHash
	}
	if dao.Metadata != nil {
		e.Metadata = *dao.Metadata
	}
	return e
}

// SyncStateDao is a data access object that maps directly to the 'event_sync_state' table in PostgreSQL.
type SyncStateDao struct {
	bun.BaseModel      `bun:"table:event_sync_state,alias:ess"`
	Source             string    `bun:"source,pk,type:varchar(64)"`
	LastProcessedBlock int64     `bun:"last_processed_block,notnull,default:0"`
	UpdatedAt          time.Time `bun:"updated_at,nullzero,default:current_timestamp"`
}
