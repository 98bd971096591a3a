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
		log.Println("creating proposal and vote tables...")
		if err := mghelper.CreateSchema(ctx, db, &govstore.ProposalDao{}, &govstore.VoteDao{}); err != nil {
			return err
		}
		if err := mghelper.CreateModelIndexes(ctx, db, &govstore.ProposalDao{}, "dao_id", "state"); err != nil {
			return err
		}
		if err := mghelper.CreateModelUniqueIndexes(ctx, db, &govstore.ProposalDao{}, "onchain_id"); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &govstore.VoteDao{}, "voter_id")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping proposal and vote tables...")
		return mghelper.DropTables(ctx, db, &govstore.VoteDao{}, &govstore.ProposalDao{})
	})
}
