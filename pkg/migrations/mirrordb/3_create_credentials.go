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
		log.Println("creating credentials table...")
		if err := mghelper.CreateSchema(ctx, db, &identitystore.CredentialDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &identitystore.CredentialDao{}, "user_id", "hash", "status")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping credentials table...")
		return mghelper.DropTables(ctx, db, &identitystore.CredentialDao{})
	})
}
