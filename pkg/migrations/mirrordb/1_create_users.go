package mirrordb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	"github.com/KeKeBossa/academia-chain-sub001/pkg/identitystore"
	mghelper "github.com/KeKeBossa/academia-chain-sub001/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating users table...")
		if err := mghelper.CreateSchema(ctx, db, &identitystore.UserDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &identitystore.UserDao{}, "role")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping users table...")
		return mghelper.DropTables(ctx, db, &identitystore.UserDao{})
	})
}
