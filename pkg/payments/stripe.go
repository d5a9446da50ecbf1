// Package payments wraps the Stripe hosted checkout flow behind the
// provider-agnostic interface the subscription handlers use.
package payments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/upliftai/uplift/config"
	"github.com/upliftai/uplift/internal"
	"github.com/upliftai/uplift/pkg/models"
)

var log = internal.GetLogger()

var _ models.PaymentsProvider = &StripeProvider{}

type StripeProvider struct {
	cfg    *config.Config
	client *client.API
}

func NewStripeProvider(cfg *config.Config) (*StripeProvider, error) {
	if cfg.Payments.StripeKey == "" {
		return nil, fmt.Errorf("stripe key not set; ensure UPLIFT_STRIPE_KEY is set in your environment")
	}

	sc := &client.API{}
	sc.Init(cfg.Payments.StripeKey, nil)

	return &StripeProvider{cfg: cfg, client: sc}, nil
}

// CreateCheckoutSession starts a hosted checkout for the plan. The user and
// plan identities travel in the session metadata and come back to us on the
// completion webhook.
func (p *StripeProvider) CreateCheckoutSession(
	ctx context.Context,
	user *models.User,
	plan *models.SubscriptionPlan,
) (*models.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		Mode:   stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String("usd"),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(plan.Name),
					},
					UnitAmount: stripe.Int64(int64(plan.Price * 100)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:    stripe.String(p.cfg.Payments.SuccessURL),
		CancelURL:     stripe.String(p.cfg.Payments.CancelURL),
		CustomerEmail: stripe.String(user.Email),
	}
	params.AddMetadata("user_uuid", user.UUID.String())
	params.AddMetadata("plan_uuid", plan.UUID.String())

	session, err := p.client.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &models.CheckoutSession{SessionID: session.ID, URL: session.URL}, nil
}

// VerifyWebhook validates the payload signature and extracts the completed
// checkout. Verified events of other types return (nil, nil).
func (p *StripeProvider) VerifyWebhook(payload []byte, signature string) (*models.CheckoutCompleted, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.cfg.Payments.StripeWebhookSecret)
	if err != nil {
		return nil, models.NewUnauthorizedError("invalid webhook signature")
	}

	if event.Type != "checkout.session.completed" {
		log.Debugf("ignoring stripe event of type %s", event.Type)
		return nil, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, models.NewBadRequestError(fmt.Sprintf("malformed checkout session payload: %v", err))
	}

	userUUID, err := uuid.Parse(session.Metadata["user_uuid"])
	if err != nil {
		return nil, models.NewBadRequestError("checkout session carries no valid user identity")
	}
	planUUID, err := uuid.Parse(session.Metadata["plan_uuid"])
	if err != nil {
		return nil, models.NewBadRequestError("checkout session carries no valid plan identity")
	}

	return &models.CheckoutCompleted{
		UserUUID:      userUUID,
		PlanUUID:      planUUID,
		TransactionID: session.ID,
	}, nil
}
