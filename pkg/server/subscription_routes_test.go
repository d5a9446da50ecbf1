package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upliftai/uplift/pkg/models"
	"github.com/upliftai/uplift/pkg/testutils"
)

func createPlanViaAPI(t *testing.T, adminToken string) *models.SubscriptionPlan {
	t.Helper()

	resp := doJSON(t, "POST", "/api/v1/admin/plans", adminToken, models.CreatePlanRequest{
		Name:         "plan-" + testutils.GenerateRandomString(8),
		Description:  "monthly wellness support",
		Price:        9.99,
		DurationDays: 30,
		Active:       true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var plan models.SubscriptionPlan
	decodeBody(t, resp, &plan)
	return &plan
}

func TestPlanRoutes(t *testing.T) {
	_, adminToken := registerTestUser(t, true)
	plan := createPlanViaAPI(t, adminToken)

	resp := doJSON(t, "GET", "/api/v1/plans", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var plans []*models.SubscriptionPlan
	decodeBody(t, resp, &plans)

	found := false
	for _, p := range plans {
		if p.UUID == plan.UUID {
			found = true
		}
	}
	assert.True(t, found)

	// Non-admins cannot create plans
	_, token := registerTestUser(t, false)
	resp = doJSON(t, "POST", "/api/v1/admin/plans", token, models.CreatePlanRequest{
		Name:         "plan-" + testutils.GenerateRandomString(8),
		DurationDays: 30,
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCheckoutRoute(t *testing.T) {
	_, adminToken := registerTestUser(t, true)
	plan := createPlanViaAPI(t, adminToken)

	_, token := registerTestUser(t, false)
	resp := doJSON(t, "POST", "/api/v1/subscriptions/checkout/"+plan.UUID.String(), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session models.CheckoutSession
	decodeBody(t, resp, &session)
	assert.NotEmpty(t, session.SessionID)
	assert.NotEmpty(t, session.URL)
}

func TestStripeWebhookRoute(t *testing.T) {
	_, adminToken := registerTestUser(t, true)
	plan := createPlanViaAPI(t, adminToken)
	user, token := registerTestUser(t, false)

	event := map[string]any{
		"type":           "checkout.session.completed",
		"user_uuid":      user.UUID,
		"plan_uuid":      plan.UUID,
		"transaction_id": "cs_test_" + testutils.GenerateRandomString(16),
	}

	// Missing signature is rejected
	resp := doJSON(t, "POST", "/api/v1/webhooks/stripe", "", event)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	sendWebhook := func() *http.Response {
		req := newWebhookRequest(t, event)
		resp, err := testServer.Client().Do(req)
		require.NoError(t, err)
		return resp
	}

	resp = sendWebhook()
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Replayed webhook is a no-op
	resp = sendWebhook()
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, "GET", "/api/v1/subscriptions/", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var subscriptions []*models.Subscription
	decodeBody(t, resp, &subscriptions)
	require.Len(t, subscriptions, 1)
	assert.True(t, subscriptions[0].Active)
	assert.Equal(t, plan.UUID, subscriptions[0].PlanUUID)
}

func newWebhookRequest(t *testing.T, event any) *http.Request {
	t.Helper()

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	req, err := http.NewRequest(
		"POST",
		testServer.URL+"/api/v1/webhooks/stripe",
		bytes.NewReader(payload),
	)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", "test-signature")
	return req
}

func TestListSubscribersRoute(t *testing.T) {
	_, adminToken := registerTestUser(t, true)

	resp := doJSON(t, "GET", "/api/v1/admin/subscribers?page_number=1&page_size=5", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var subscribers models.SubscriberListResponse
	decodeBody(t, resp, &subscribers)
	assert.LessOrEqual(t, subscribers.RowCount, 5)
}
