package models

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SubscriptionPlan struct {
	UUID         uuid.UUID `json:"uuid"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	DurationDays int       `json:"duration_days"`
	Active       bool      `json:"active"`
}

type CreatePlanRequest struct {
	Name         string  `json:"name" validate:"required"`
	Description  string  `json:"description"`
	Price        float64 `json:"price" validate:"gte=0"`
	DurationDays int     `json:"duration_days" validate:"gt=0"`
	Active       bool    `json:"active"`
}

type Subscription struct {
	UUID          uuid.UUID `json:"uuid"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	UserUUID      uuid.UUID `json:"user_uuid"`
	PlanUUID      uuid.UUID `json:"plan_uuid"`
	PlanName      string    `json:"plan_name,omitempty"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	Active        bool      `json:"active"`
	TransactionID string    `json:"transaction_id"`
}

type SubscriberListResponse struct {
	Subscriptions []*Subscription `json:"subscriptions"`
	TotalCount    int             `json:"total_count"`
	RowCount      int             `json:"row_count"`
}

type SubscriptionStore interface {
	CreatePlan(ctx context.Context, plan *CreatePlanRequest) (*SubscriptionPlan, error)
	GetPlan(ctx context.Context, planUUID uuid.UUID) (*SubscriptionPlan, error)
	ListActivePlans(ctx context.Context) ([]*SubscriptionPlan, error)
	// Activate records a paid subscription. The transaction ID is unique; a
	// replayed webhook for the same transaction is a no-op.
	Activate(ctx context.Context, userUUID uuid.UUID, planUUID uuid.UUID, transactionID string) (*Subscription, error)
	ListForUser(ctx context.Context, userUUID uuid.UUID) ([]*Subscription, error)
	ListSubscribers(ctx context.Context, pageNumber int, pageSize int) (*SubscriberListResponse, error)
	// ExpireEnded deactivates subscriptions whose end date has passed and
	// returns the number of rows affected.
	ExpireEnded(ctx context.Context) (int64, error)
}
