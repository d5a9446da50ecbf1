package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func CleanDB(t *testing.T, db *bun.DB) {
	for _, schema := range []bun.BeforeCreateTableHook{
		&MessageVectorSchema{},
		&MessageSchema{},
		&ConversationSchema{},
		&OTPSchema{},
		&DonationSchema{},
		&DonationCampaignSchema{},
		&DonationTotalsSchema{},
		&SiteMetricsSchema{},
		&SubscriptionSchema{},
		&SubscriptionPlanSchema{},
		&UserSchema{},
	} {
		_, err := db.NewDropTable().
			Model(schema).
			Cascade().
			IfExists().
			Exec(context.Background())
		require.NoError(t, err)
	}

	// drop the migration bookkeeping tables as well so CreateSchema reapplies
	// the seed migrations
	for _, table := range []string{"bun_migrations", "bun_migration_locks"} {
		_, err := db.ExecContext(context.Background(), "DROP TABLE IF EXISTS ?", bun.Ident(table))
		require.NoError(t, err)
	}
}
