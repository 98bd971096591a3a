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
		log.Println("creating event sync state table...")
		return mghelper.CreateSchema(ctx, db, &assetstore.SyncStateDao{})
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping event sync state table...")
		return mghelper.DropTables(ctx, db, &assetstore.SyncStateDao{})
	})
}
