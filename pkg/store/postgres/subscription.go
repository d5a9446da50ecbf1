package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/upliftai/uplift/pkg/models"
	"github.com/upliftai/uplift/pkg/store"
)

var _ models.SubscriptionStore = &SubscriptionStoreDAO{}

type SubscriptionStoreDAO struct {
	db *bun.DB
}

func NewSubscriptionStoreDAO(db *bun.DB) *SubscriptionStoreDAO {
	return &SubscriptionStoreDAO{
		db: db,
	}
}

// CreatePlan creates a new subscription plan.
func (dao *SubscriptionStoreDAO) CreatePlan(
	ctx context.Context,
	plan *models.CreatePlanRequest,
) (*models.SubscriptionPlan, error) {
	if plan.Name == "" {
		return nil, models.NewBadRequestError("plan name cannot be empty")
	}
	if plan.DurationDays <= 0 {
		return nil, models.NewBadRequestError("plan duration must be positive")
	}

	planDB := SubscriptionPlanSchema{
		Name:         plan.Name,
		Description:  plan.Description,
		Price:        plan.Price,
		DurationDays: plan.DurationDays,
		Active:       plan.Active,
	}
	_, err := dao.db.NewInsert().Model(&planDB).Returning("*").Exec(ctx)
	if err != nil {
		if err, ok := err.(pgdriver.Error); ok && err.IntegrityViolation() {
			return nil, models.NewBadRequestError(
				"plan already exists with name: " + plan.Name,
			)
		}
		return nil, err
	}

	return planSchemaToPlan(&planDB)
}

// GetPlan gets a plan by UUID.
func (dao *SubscriptionStoreDAO) GetPlan(
	ctx context.Context,
	planUUID uuid.UUID,
) (*models.SubscriptionPlan, error) {
	planDB := new(SubscriptionPlanSchema)
	err := dao.db.NewSelect().Model(planDB).Where("uuid = ?", planUUID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("plan " + planUUID.String())
		}
		return nil, err
	}
	return planSchemaToPlan(planDB)
}

// ListActivePlans returns plans available for purchase, cheapest first.
func (dao *SubscriptionStoreDAO) ListActivePlans(
	ctx context.Context,
) ([]*models.SubscriptionPlan, error) {
	var plansDB []*SubscriptionPlanSchema
	err := dao.db.NewSelect().
		Model(&plansDB).
		Where("active = true").
		Order("price ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	plans := make([]*models.SubscriptionPlan, len(plansDB))
	for i := range plansDB {
		plan, err := planSchemaToPlan(plansDB[i])
		if err != nil {
			return nil, err
		}
		plans[i] = plan
	}
	return plans, nil
}

// Activate records a paid subscription. The transaction ID is unique; a
// replayed webhook for the same transaction returns the existing subscription.
func (dao *SubscriptionStoreDAO) Activate(
	ctx context.Context,
	userUUID uuid.UUID,
	planUUID uuid.UUID,
	transactionID string,
) (*models.Subscription, error) {
	if transactionID == "" {
		return nil, models.NewBadRequestError("transaction ID cannot be empty")
	}

	plan, err := dao.GetPlan(ctx, planUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	now := time.Now()
	subscriptionDB := SubscriptionSchema{
		UserUUID:      userUUID,
		PlanUUID:      planUUID,
		StartDate:     now,
		EndDate:       now.AddDate(0, 0, plan.DurationDays),
		Active:        true,
		TransactionID: transactionID,
	}

	r, err := dao.db.NewInsert().
		Model(&subscriptionDB).
		On("CONFLICT (transaction_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to create subscription", err)
	}

	rowsAffected, err := r.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		// replayed webhook, return the subscription recorded for this transaction
		log.Infof("subscription already recorded for transaction %s", transactionID)
	}

	err = dao.db.NewSelect().
		Model(&subscriptionDB).
		Where("transaction_id = ?", transactionID).
		Scan(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to get subscription", err)
	}

	subscription, err := subscriptionSchemaToSubscription(&subscriptionDB)
	if err != nil {
		return nil, err
	}
	subscription.PlanName = plan.Name

	return subscription, nil
}

// ListForUser returns a user's subscriptions, most recent first.
func (dao *SubscriptionStoreDAO) ListForUser(
	ctx context.Context,
	userUUID uuid.UUID,
) ([]*models.Subscription, error) {
	var subscriptionsDB []*SubscriptionSchema
	err := dao.db.NewSelect().
		Model(&subscriptionsDB).
		Relation("Plan").
		Where("sub.user_uuid = ?", userUUID).
		Order("sub.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return subscriptionsFromSchema(subscriptionsDB)
}

// ListSubscribers returns a paginated list of all subscriptions with their
// plan names.
func (dao *SubscriptionStoreDAO) ListSubscribers(
	ctx context.Context,
	pageNumber int,
	pageSize int,
) (*models.SubscriberListResponse, error) {
	if pageSize < 1 {
		return nil, store.NewStorageError("pageSize must be greater than 0", nil)
	}

	var totalCount int
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	var subscriptionsDB []*SubscriptionSchema

	wg.Add(1)
	go func() {
		defer wg.Done()
		err := dao.db.NewSelect().
			Model(&subscriptionsDB).
			Relation("Plan").
			Order("sub.id DESC").
			Limit(pageSize).
			Offset((pageNumber - 1) * pageSize).
			Scan(ctx)

		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		var err error
		totalCount, err = dao.db.NewSelect().
			Model((*SubscriptionSchema)(nil)).
			Count(ctx)

		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}()

	wg.Wait()

	if firstErr != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", firstErr)
	}

	subscriptions, err := subscriptionsFromSchema(subscriptionsDB)
	if err != nil {
		return nil, err
	}

	return &models.SubscriberListResponse{
		Subscriptions: subscriptions,
		RowCount:      len(subscriptions),
		TotalCount:    totalCount,
	}, nil
}

// ExpireEnded deactivates subscriptions whose end date has passed and returns
// the number of rows affected.
func (dao *SubscriptionStoreDAO) ExpireEnded(ctx context.Context) (int64, error) {
	r, err := dao.db.NewUpdate().
		Model((*SubscriptionSchema)(nil)).
		Set("active = false").
		Set("updated_at = ?", time.Now()).
		Where("active = true").
		Where("end_date < ?", time.Now()).
		Exec(ctx)
	if err != nil {
		return 0, store.NewStorageError("failed to expire subscriptions", err)
	}
	return r.RowsAffected()
}

func planSchemaToPlan(plan *SubscriptionPlanSchema) (*models.SubscriptionPlan, error) {
	retPlan := &models.SubscriptionPlan{}
	if err := copier.Copy(retPlan, plan); err != nil {
		return nil, store.NewStorageError("failed to copy plan", err)
	}
	return retPlan, nil
}

func subscriptionSchemaToSubscription(
	subscription *SubscriptionSchema,
) (*models.Subscription, error) {
	retSubscription := &models.Subscription{}
	if err := copier.Copy(retSubscription, subscription); err != nil {
		return nil, store.NewStorageError("failed to copy subscription", err)
	}
	if subscription.Plan != nil {
		retSubscription.PlanName = subscription.Plan.Name
	}
	return retSubscription, nil
}

func subscriptionsFromSchema(
	subscriptionsDB []*SubscriptionSchema,
) ([]*models.Subscription, error) {
	subscriptions := make([]*models.Subscription, len(subscriptionsDB))
	for i := range subscriptionsDB {
		subscription, err := subscriptionSchemaToSubscription(subscriptionsDB[i])
		if err != nil {
			return nil, err
		}
		subscriptions[i] = subscription
	}
	return subscriptions, nil
}
