package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"scorefive/internal/store/postgres"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.NewCreateTable().Model((*postgres.GameRow)(nil)).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create games table: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
				CREATE INDEX IF NOT EXISTS idx_scorefive_games_owner_updated
				ON scorefive_games (owner, complete, last_updated DESC);
			`); err != nil {
				return fmt.Errorf("failed to index games table: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewDropTable().Model((*postgres.GameRow)(nil)).IfExists().Exec(ctx)
		return err
	})
}
