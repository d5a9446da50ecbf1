package models

import (
	"context"

	"github.com/google/uuid"
)

type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// CheckoutCompleted is the provider-agnostic result of a successful payment
// webhook. TransactionID is the provider's unique id for the payment.
type CheckoutCompleted struct {
	UserUUID      uuid.UUID
	PlanUUID      uuid.UUID
	TransactionID string
}

type PaymentsProvider interface {
	// CreateCheckoutSession starts a hosted checkout for the given plan.
	CreateCheckoutSession(ctx context.Context, user *User, plan *SubscriptionPlan) (*CheckoutSession, error)
	// VerifyWebhook validates a webhook payload signature and extracts the
	// completed checkout, if any. A verified event of an uninteresting type
	// returns (nil, nil).
	VerifyWebhook(payload []byte, signature string) (*CheckoutCompleted, error)
}
