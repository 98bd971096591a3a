package assetstore

import (
	"context"
	"errors"

	"github.com/KeKeBossa/academia-chain-sub001/pkg/activity"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/artifact"
)

// ErrAssetNotFound is returned when an asset lookup finds no matching record.
var ErrAssetNotFound = errors.New("asset not found")

// ActivityFilter narrows activity feed queries. Zero values are ignored.
type ActivityFilter struct {
	GroupID    string
	UserID     string
	Action     string
	TargetType string
	TargetID   string
	Limit      int
	Offset     int
}

// AssetStore defines persistence for research assets.
// RegisterAsset writes the asset row and its activity entry in one
// transaction; both succeed or both fail.
type AssetStore interface {
	RegisterAsset(ctx context.Context, asset *artifact.Asset, entry *activity.Entry) error
	GetAsset(ctx context.Context, id string) (*artifact.Asset, error)
	ListAssetsByGroup(ctx context.Context, groupID string) ([]*artifact.Asset, error)
	ListAssetsByOwner(ctx context.Context, ownerID string) ([]*artifact.Asset, error)
	SetAssetOnChainRef(ctx context.Context, id, onchainID, txHash string) error
}

// ActivityStore defines persistence for the audit feed.
// InsertChainActivity is the idempotent write used by chain ingestion:
// a row whose (source, block_number, log_index) triple already exists is
// skipped and reported as not inserted.
type ActivityStore interface {
	InsertActivity(ctx context.Context, entry *activity.Entry) error
	InsertChainActivity(ctx context.Context, entry *activity.Entry) (bool, error)
	ListActivity(ctx context.Context, filter *ActivityFilter) ([]*activity.Entry, error)
}

// CursorStore is the durable per-source sync watermark.
// AdvanceCursor never moves the watermark backwards.
type CursorStore interface {
	GetCursor(ctx context.Context, source string) (uint64, error)
	AdvanceCursor(ctx context.Context, source string, block uint64) error
}

// Store combines the asset, activity and cursor persistence concerns
type Store interface {
	AssetStore
	ActivityStore
	CursorStore
}
