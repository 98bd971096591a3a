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
		log.Println("creating activity log table...")
		if err := mghelper.CreateSchema(ctx, db, &assetstore.ActivityDao{}); err != nil {
			return err
		}
		if err := mghelper.CreateModelIndexes(ctx, db, &assetstore.ActivityDao{}, "dao_id", "user_id", "action", "target_id"); err != nil {
			return err
		}
		// Dedupe key for chain-ingested rows; app rows carry NULLs and
		// never collide.
		return mghelper.CreateUniqueCompositeIndex(ctx, db, "activity_log",
			"idx_activity_log_source_block_log", "source", "block_number", "log_index")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping activity log table...")
		return mghelper.DropTables(ctx, db, &assetstore.ActivityDao{})
	})
}
