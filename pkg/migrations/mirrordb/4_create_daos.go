package mirrordb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	"github.com/KeKeBossa/academia-chain-sub001/pkg/govstore"
	mghelper "github.com/KeKeBossa/academia-chain-sub001/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating dao and membership tables...")
		if err := mghelper.CreateSchema(ctx, db, &govstore.GroupDao{}, &govstore.MembershipDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &govstore.MembershipDao{}, "user_id")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping dao and membership tables...")
		return mghelper.DropTables(ctx, db, &govstore.MembershipDao{}, &govstore.GroupDao{})
	})
}
