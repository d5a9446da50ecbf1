package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/upliftai/uplift/pkg/models"
)

// conversationTableList contains the tables that carry soft-delete columns,
// leaf tables first.
var conversationTableList = []bun.BeforeCreateTableHook{
	&MessageVectorSchema{},
	&MessageSchema{},
	&ConversationSchema{},
	&UserSchema{},
}

// purgeDeleted hard deletes all soft deleted records and removes expired
// one-time codes.
func purgeDeleted(ctx context.Context, db *bun.DB) error {
	log.Debugf("purging conversation store")

	for _, schema := range conversationTableList {
		log.Debugf("purging schema %T", schema)
		_, err := db.NewDelete().
			Model(schema).
			WhereDeleted().
			ForceDelete().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("error purging rows from %T: %w", schema, err)
		}
	}

	// Codes outside the issuance rate window no longer feed the limit
	// counter, clear them out as well. Younger retired codes must stay.
	_, err := db.NewDelete().
		Model(&OTPSchema{}).
		WhereAllWithDeleted().
		Where("created_at < ?", time.Now().Add(-models.OTPRateWindow)).
		ForceDelete().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("error purging expired otp rows: %w", err)
	}

	log.Info("completed purging conversation store")

	return nil
}
