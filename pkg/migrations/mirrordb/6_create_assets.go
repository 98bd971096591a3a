package mirrordb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	"github.com/KeKeBossa/academia-chain-sub001/pkg/assetstore"
	mghelper "github.com/KeKeBossa/academia-chain-sub001/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating research assets table...")
		if err := mghelper.CreateSchema(ctx, db, &assetstore.AssetDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &assetstore.AssetDao{}, "dao_id", "owner_id", "artifact_hash")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping research assets table...")
		return mghelper.DropTables(ctx, db, &assetstore.AssetDao{})
	})
}
