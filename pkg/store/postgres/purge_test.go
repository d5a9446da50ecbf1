package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upliftai/uplift/pkg/models"
	"github.com/upliftai/uplift/pkg/testutils"
)

func TestPurgeDeleted(t *testing.T) {
	ctx := context.Background()

	user := createTestUser(t, ctx)
	conversation := createTestConversation(t, ctx, user.UUID, models.ChatModeCoach)
	conversationStore := NewConversationDAO(testDB)

	_, err := conversationStore.AppendMessages(
		ctx, conversation.UUID, testutils.TestMessages[:4],
	)
	require.NoError(t, err)

	err = conversationStore.Delete(ctx, user.UUID, conversation.UUID)
	require.NoError(t, err)

	err = conversationStore.PurgeDeleted(ctx)
	assert.NoError(t, err)

	// soft-deleted rows are gone even when deleted rows are included
	count, err := testDB.NewSelect().
		Model((*MessageSchema)(nil)).
		WhereAllWithDeleted().
		Where("conversation_uuid = ?", conversation.UUID).
		Count(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = testDB.NewSelect().
		Model((*ConversationSchema)(nil)).
		WhereAllWithDeleted().
		Where("uuid = ?", conversation.UUID).
		Count(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestPurgeDeletedRemovesStaleOTPs(t *testing.T) {
	ctx := context.Background()

	user := createTestUser(t, ctx)
	userStore := NewUserStoreDAO(testDB)
	conversationStore := NewConversationDAO(testDB)

	stale := &models.OTP{
		UserUUID:  user.UUID,
		Purpose:   models.OTPPurposeReset,
		Code:      "111111",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, userStore.SaveOTP(ctx, stale))

	// age the row out of the issuance rate window
	_, err := testDB.NewUpdate().
		Model((*OTPSchema)(nil)).
		Set("created_at = ?", time.Now().Add(-2*models.OTPRateWindow)).
		Where("uuid = ?", stale.UUID).
		Exec(ctx)
	require.NoError(t, err)

	fresh := &models.OTP{
		UserUUID:  user.UUID,
		Purpose:   models.OTPPurposeVerify,
		Code:      "222222",
		ExpiresAt: time.Now().Add(time.Minute),
	}
	require.NoError(t, userStore.SaveOTP(ctx, fresh))

	require.NoError(t, conversationStore.PurgeDeleted(ctx))

	// the stale code is gone, including from the rate limit counter
	_, err = userStore.GetOTP(ctx, user.UUID, models.OTPPurposeReset)
	assert.ErrorIs(t, err, models.ErrNotFound)

	count, err := userStore.CountOTPsSince(
		ctx, user.UUID, models.OTPPurposeReset, time.Now().Add(-3*models.OTPRateWindow),
	)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)

	// codes inside the window survive, expired or not
	_, err = userStore.GetOTP(ctx, user.UUID, models.OTPPurposeVerify)
	assert.NoError(t, err)
}
