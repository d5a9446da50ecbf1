package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upliftai/uplift/pkg/models"
)

func createCampaignViaAPI(t *testing.T, adminToken string) *models.DonationCampaign {
	t.Helper()

	resp := doJSON(t, "POST", "/api/v1/admin/campaigns", adminToken, models.CreateCampaignRequest{
		Title:        "Community counseling fund",
		Organization: "Uplift Foundation",
		Description:  "Subsidized counseling sessions",
		GoalAmount:   5000,
		Active:       true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var campaign models.DonationCampaign
	decodeBody(t, resp, &campaign)
	return &campaign
}

func TestCampaignRoutes(t *testing.T) {
	_, adminToken := registerTestUser(t, true)
	campaign := createCampaignViaAPI(t, adminToken)

	// Public get
	resp := doJSON(t, "GET", "/api/v1/campaigns/"+campaign.UUID.String(), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched models.DonationCampaign
	decodeBody(t, resp, &fetched)
	assert.Equal(t, campaign.Title, fetched.Title)

	// Public list
	resp = doJSON(t, "GET", "/api/v1/campaigns/?active=true", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var campaigns []*models.DonationCampaign
	decodeBody(t, resp, &campaigns)
	assert.NotEmpty(t, campaigns)
}

func TestDonationRoutes(t *testing.T) {
	_, adminToken := registerTestUser(t, true)
	campaign := createCampaignViaAPI(t, adminToken)

	// Guest donation
	resp := doJSON(t, "POST", "/api/v1/donations", "", models.CreateDonationRequest{
		CampaignUUID: campaign.UUID,
		DonorName:    "A Friend",
		Amount:       25,
		Currency:     "usd",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var guestDonation models.Donation
	decodeBody(t, resp, &guestDonation)
	assert.Nil(t, guestDonation.UserUUID)
	assert.Equal(t, "USD", guestDonation.Currency)
	assert.Equal(t, models.DonationStatusCompleted, guestDonation.Status)

	// Attributed donation
	user, token := registerTestUser(t, false)
	resp = doJSON(t, "POST", "/api/v1/donations", token, models.CreateDonationRequest{
		CampaignUUID: campaign.UUID,
		Amount:       50,
		Currency:     "usd",
		Rating:       5,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var userDonation models.Donation
	decodeBody(t, resp, &userDonation)
	require.NotNil(t, userDonation.UserUUID)
	assert.Equal(t, user.UUID, *userDonation.UserUUID)

	// Campaign counters moved
	resp = doJSON(t, "GET", "/api/v1/campaigns/"+campaign.UUID.String(), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.DonationCampaign
	decodeBody(t, resp, &fetched)
	assert.Equal(t, float64(75), fetched.RaisedAmount)
	assert.Equal(t, 2, fetched.Supporters)

	// Invalid amount rejected
	resp = doJSON(t, "POST", "/api/v1/donations", "", models.CreateDonationRequest{
		CampaignUUID: campaign.UUID,
		Amount:       0,
		Currency:     "usd",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Totals endpoint
	resp = doJSON(t, "GET", "/api/v1/donations/totals", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var totals models.DonationTotals
	decodeBody(t, resp, &totals)
	assert.GreaterOrEqual(t, totals.TotalCount, 2)

	// Admin list
	resp = doJSON(t, "GET", "/api/v1/admin/donations?page_number=1&page_size=10", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var donations models.DonationListResponse
	decodeBody(t, resp, &donations)
	assert.NotEmpty(t, donations.Donations)
}
