package server

import (
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/upliftai/uplift/pkg/auth"
	"github.com/upliftai/uplift/pkg/models"
)

// webhookBodyLimit bounds the Stripe webhook payload size.
const webhookBodyLimit = 1 << 16

// ListPlansHandler lists active subscription plans, cheapest first.
func ListPlansHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plans, err := appState.SubscriptionStore.ListActivePlans(r.Context())
		if err != nil {
			renderError(w, err)
			return
		}
		if err := encodeJSON(w, plans); err != nil {
			renderError(w, err)
			return
		}
	}
}

// CreatePlanHandler creates a subscription plan. Admin only.
func CreatePlanHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreatePlanRequest
		if err := decodeAndValidateJSON(r, &req); err != nil {
			renderError(w, err)
			return
		}

		plan, err := appState.SubscriptionStore.CreatePlan(r.Context(), &req)
		if err != nil {
			renderError(w, err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		if err := encodeJSON(w, plan); err != nil {
			renderError(w, err)
			return
		}
	}
}

// CreateCheckoutHandler starts a hosted checkout session for the given plan.
func CreateCheckoutHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if appState.Payments == nil {
			renderError(w, models.NewBadRequestError("payments are not configured"))
			return
		}
		userUUID, err := auth.UserUUIDFromContext(r.Context())
		if err != nil {
			renderError(w, err)
			return
		}
		planUUID := parseUUIDFromURL(r, w, "planUUID")
		if planUUID == uuid.Nil {
			return
		}

		user, err := appState.UserStore.GetByUUID(r.Context(), userUUID)
		if err != nil {
			renderError(w, err)
			return
		}
		plan, err := appState.SubscriptionStore.GetPlan(r.Context(), planUUID)
		if err != nil {
			renderError(w, err)
			return
		}
		if !plan.Active {
			renderError(w, models.NewBadRequestError("plan is not active"))
			return
		}

		session, err := appState.Payments.CreateCheckoutSession(r.Context(), user, plan)
		if err != nil {
			renderError(w, err)
			return
		}
		if err := encodeJSON(w, session); err != nil {
			renderError(w, err)
			return
		}
	}
}

// ListMySubscriptionsHandler lists the caller's subscriptions, newest first.
func ListMySubscriptionsHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userUUID, err := auth.UserUUIDFromContext(r.Context())
		if err != nil {
			renderError(w, err)
			return
		}

		subscriptions, err := appState.SubscriptionStore.ListForUser(r.Context(), userUUID)
		if err != nil {
			renderError(w, err)
			return
		}
		if err := encodeJSON(w, subscriptions); err != nil {
			renderError(w, err)
			return
		}
	}
}

// ListSubscribersHandler returns a paginated list of subscriptions. Admin only.
func ListSubscribersHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageNumber, err := extractQueryStringValueToInt[int](r, "page_number")
		if err != nil {
			renderError(w, models.NewBadRequestError("invalid page_number"))
			return
		}
		pageSize, err := extractQueryStringValueToInt[int](r, "page_size")
		if err != nil {
			renderError(w, models.NewBadRequestError("invalid page_size"))
			return
		}
		if pageNumber <= 0 {
			pageNumber = 1
		}
		if pageSize <= 0 {
			pageSize = 10
		}

		subscribers, err := appState.SubscriptionStore.ListSubscribers(r.Context(), pageNumber, pageSize)
		if err != nil {
			renderError(w, err)
			return
		}
		if err := encodeJSON(w, subscribers); err != nil {
			renderError(w, err)
			return
		}
	}
}

// StripeWebhookHandler verifies the webhook signature and activates the
// subscription for a completed checkout. Replayed events are no-ops.
func StripeWebhookHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if appState.Payments == nil {
			renderError(w, models.NewBadRequestError("payments are not configured"))
			return
		}
		payload, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
		if err != nil {
			renderError(w, models.NewBadRequestError("unable to read webhook payload"))
			return
		}

		completed, err := appState.Payments.VerifyWebhook(payload, r.Header.Get("Stripe-Signature"))
		if err != nil {
			renderError(w, err)
			return
		}
		if completed == nil {
			// Verified event of a type we don't act on.
			_, _ = w.Write([]byte(OKResponse))
			return
		}

		subscription, err := appState.SubscriptionStore.Activate(
			r.Context(),
			completed.UserUUID,
			completed.PlanUUID,
			completed.TransactionID,
		)
		if err != nil {
			renderError(w, err)
			return
		}
		log.Infof("subscription %s active for user %s", subscription.UUID, completed.UserUUID)
		_, _ = w.Write([]byte(OKResponse))
	}
}
