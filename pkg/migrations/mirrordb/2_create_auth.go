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
		log.Println("creating auth challenge and session tables...")
		if err := mghelper.CreateSchema(ctx, db, &identitystore.ChallengeDao{}, &identitystore.SessionDao{}); err != nil {
			return err
		}
		if err := mghelper.CreateModelIndexes(ctx, db, &identitystore.ChallengeDao{}, "user_id", "expires_at"); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &identitystore.SessionDao{}, "user_id", "expires_at")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping auth challenge and session tables...")
		return mghelper.DropTables(ctx, db, &identitystore.SessionDao{}, &identitystore.ChallengeDao{})
	})
}
