package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upliftai/uplift/pkg/models"
	"github.com/upliftai/uplift/pkg/testutils"
)

func createTestPlan(t *testing.T, ctx context.Context, durationDays int) *models.SubscriptionPlan {
	t.Helper()

	subscriptionStore := NewSubscriptionStoreDAO(testDB)
	plan, err := subscriptionStore.CreatePlan(ctx, &models.CreatePlanRequest{
		Name:         "plan-" + testutils.GenerateRandomString(8),
		Description:  "test plan",
		Price:        9.99,
		DurationDays: durationDays,
		Active:       true,
	})
	require.NoError(t, err)

	return plan
}

func TestSubscriptionStoreDAO_Plans(t *testing.T) {
	ctx := context.Background()
	subscriptionStore := NewSubscriptionStoreDAO(testDB)

	var plan *models.SubscriptionPlan

	t.Run("CreatePlan", func(t *testing.T) {
		plan = createTestPlan(t, ctx, 30)
		assert.NotEqual(t, uuid.Nil, plan.UUID)
		assert.Equal(t, 30, plan.DurationDays)
	})

	t.Run("CreatePlan with duplicate name should fail", func(t *testing.T) {
		_, err := subscriptionStore.CreatePlan(ctx, &models.CreatePlanRequest{
			Name:         plan.Name,
			Price:        5,
			DurationDays: 30,
			Active:       true,
		})
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("CreatePlan without duration should fail", func(t *testing.T) {
		_, err := subscriptionStore.CreatePlan(ctx, &models.CreatePlanRequest{
			Name:  "plan-" + testutils.GenerateRandomString(8),
			Price: 5,
		})
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("GetPlan", func(t *testing.T) {
		retrieved, err := subscriptionStore.GetPlan(ctx, plan.UUID)
		assert.NoError(t, err)
		assert.Equal(t, plan.Name, retrieved.Name)
	})

	t.Run("GetPlan for non-existent plan should result in NotFoundError", func(t *testing.T) {
		_, err := subscriptionStore.GetPlan(ctx, uuid.New())
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("ListActivePlans includes the plan", func(t *testing.T) {
		plans, err := subscriptionStore.ListActivePlans(ctx)
		assert.NoError(t, err)
		found := false
		for _, p := range plans {
			if p.UUID == plan.UUID {
				found = true
			}
		}
		assert.True(t, found)
	})
}

func TestSubscriptionStoreDAO_Activate(t *testing.T) {
	ctx := context.Background()
	subscriptionStore := NewSubscriptionStoreDAO(testDB)

	user := createTestUser(t, ctx)
	plan := createTestPlan(t, ctx, 30)
	transactionID := "cs_test_" + testutils.GenerateRandomString(16)

	var subscription *models.Subscription

	t.Run("Activate", func(t *testing.T) {
		var err error
		subscription, err = subscriptionStore.Activate(ctx, user.UUID, plan.UUID, transactionID)
		assert.NoError(t, err)
		assert.True(t, subscription.Active)
		assert.Equal(t, plan.Name, subscription.PlanName)
		assert.WithinDuration(
			t,
			subscription.StartDate.AddDate(0, 0, plan.DurationDays),
			subscription.EndDate,
			time.Second,
		)
	})

	t.Run("Activate with replayed transaction is a no-op", func(t *testing.T) {
		replayed, err := subscriptionStore.Activate(ctx, user.UUID, plan.UUID, transactionID)
		assert.NoError(t, err)
		assert.Equal(t, subscription.UUID, replayed.UUID)

		subscriptions, err := subscriptionStore.ListForUser(ctx, user.UUID)
		assert.NoError(t, err)
		assert.Len(t, subscriptions, 1)
	})

	t.Run("Activate with unknown plan should result in NotFoundError", func(t *testing.T) {
		_, err := subscriptionStore.Activate(
			ctx, user.UUID, uuid.New(), "cs_test_"+testutils.GenerateRandomString(16),
		)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("ListForUser includes plan name", func(t *testing.T) {
		subscriptions, err := subscriptionStore.ListForUser(ctx, user.UUID)
		assert.NoError(t, err)
		require.Len(t, subscriptions, 1)
		assert.Equal(t, plan.Name, subscriptions[0].PlanName)
	})

	t.Run("ListSubscribers paginates", func(t *testing.T) {
		response, err := subscriptionStore.ListSubscribers(ctx, 1, 10)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, response.TotalCount, 1)
		assert.NotEmpty(t, response.Subscriptions)
	})

	t.Run("ListSubscribers with zero page size should fail", func(t *testing.T) {
		_, err := subscriptionStore.ListSubscribers(ctx, 1, 0)
		assert.Error(t, err)
	})
}

func TestSubscriptionStoreDAO_ExpireEnded(t *testing.T) {
	ctx := context.Background()
	subscriptionStore := NewSubscriptionStoreDAO(testDB)

	user := createTestUser(t, ctx)
	plan := createTestPlan(t, ctx, 30)

	subscription, err := subscriptionStore.Activate(
		ctx, user.UUID, plan.UUID, "cs_test_"+testutils.GenerateRandomString(16),
	)
	require.NoError(t, err)

	// age the subscription past its end date
	_, err = testDB.NewUpdate().
		Model((*SubscriptionSchema)(nil)).
		Set("end_date = ?", time.Now().Add(-time.Hour)).
		Where("uuid = ?", subscription.UUID).
		Exec(ctx)
	require.NoError(t, err)

	affected, err := subscriptionStore.ExpireEnded(ctx)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, affected, int64(1))

	subscriptions, err := subscriptionStore.ListForUser(ctx, user.UUID)
	assert.NoError(t, err)
	require.Len(t, subscriptions, 1)
	assert.False(t, subscriptions[0].Active)
}
