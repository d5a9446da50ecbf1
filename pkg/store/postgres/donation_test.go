package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upliftai/uplift/pkg/models"
)

func createTestCampaign(t *testing.T, ctx context.Context, active bool) *models.DonationCampaign {
	t.Helper()

	donationStore := NewDonationStoreDAO(testDB)
	campaign, err := donationStore.CreateCampaign(ctx, &models.CreateCampaignRequest{
		Title:        "Clean Water Fund",
		Organization: "WaterAid",
		Description:  "test campaign",
		GoalAmount:   1000,
		Active:       active,
	})
	require.NoError(t, err)

	return campaign
}

func TestDonationStoreDAO_Campaigns(t *testing.T) {
	ctx := context.Background()
	donationStore := NewDonationStoreDAO(testDB)

	var campaign *models.DonationCampaign

	t.Run("CreateCampaign", func(t *testing.T) {
		campaign = createTestCampaign(t, ctx, true)
		assert.NotEqual(t, uuid.Nil, campaign.UUID)
		assert.Zero(t, campaign.RaisedAmount)
		assert.Zero(t, campaign.Supporters)
	})

	t.Run("CreateCampaign without goal should fail", func(t *testing.T) {
		_, err := donationStore.CreateCampaign(ctx, &models.CreateCampaignRequest{
			Title:        "No Goal",
			Organization: "Nobody",
		})
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("GetCampaign", func(t *testing.T) {
		retrieved, err := donationStore.GetCampaign(ctx, campaign.UUID)
		assert.NoError(t, err)
		assert.Equal(t, campaign.Title, retrieved.Title)
	})

	t.Run("GetCampaign for non-existent campaign should result in NotFoundError", func(t *testing.T) {
		_, err := donationStore.GetCampaign(ctx, uuid.New())
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("ListCampaigns activeOnly filters inactive", func(t *testing.T) {
		inactive := createTestCampaign(t, ctx, false)

		campaigns, err := donationStore.ListCampaigns(ctx, true)
		assert.NoError(t, err)
		for _, c := range campaigns {
			assert.NotEqual(t, inactive.UUID, c.UUID)
		}

		campaigns, err = donationStore.ListCampaigns(ctx, false)
		assert.NoError(t, err)
		found := false
		for _, c := range campaigns {
			if c.UUID == inactive.UUID {
				found = true
			}
		}
		assert.True(t, found)
	})
}

func TestDonationStoreDAO_Donations(t *testing.T) {
	ctx := context.Background()
	donationStore := NewDonationStoreDAO(testDB)

	user := createTestUser(t, ctx)
	campaign := createTestCampaign(t, ctx, true)

	totalsBefore, err := donationStore.Totals(ctx)
	require.NoError(t, err)

	t.Run("CreateDonation updates campaign and global totals", func(t *testing.T) {
		donation, err := donationStore.CreateDonation(ctx, &user.UUID, &models.CreateDonationRequest{
			CampaignUUID: campaign.UUID,
			DonorName:    "Ada",
			Amount:       50,
			Currency:     "usd",
			Message:      "keep it up",
			Rating:       5,
		})
		assert.NoError(t, err)
		assert.Equal(t, models.DonationStatusCompleted, donation.Status)
		assert.Equal(t, "USD", donation.Currency)
		require.NotNil(t, donation.UserUUID)
		assert.Equal(t, user.UUID, *donation.UserUUID)

		updatedCampaign, err := donationStore.GetCampaign(ctx, campaign.UUID)
		assert.NoError(t, err)
		assert.Equal(t, float64(50), updatedCampaign.RaisedAmount)
		assert.Equal(t, 1, updatedCampaign.Supporters)

		totals, err := donationStore.Totals(ctx)
		assert.NoError(t, err)
		assert.Equal(t, totalsBefore.TotalAmount+50, totals.TotalAmount)
		assert.Equal(t, totalsBefore.TotalCount+1, totals.TotalCount)
	})

	t.Run("CreateDonation as guest", func(t *testing.T) {
		donation, err := donationStore.CreateDonation(ctx, nil, &models.CreateDonationRequest{
			CampaignUUID: campaign.UUID,
			DonorName:    "Anonymous",
			Email:        "guest@example.com",
			Amount:       25,
			Currency:     "EUR",
		})
		assert.NoError(t, err)
		assert.Nil(t, donation.UserUUID)
	})

	t.Run("CreateDonation for inactive campaign should fail", func(t *testing.T) {
		inactive := createTestCampaign(t, ctx, false)
		_, err := donationStore.CreateDonation(ctx, nil, &models.CreateDonationRequest{
			CampaignUUID: inactive.UUID,
			Amount:       10,
			Currency:     "USD",
		})
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("CreateDonation with non-positive amount should fail", func(t *testing.T) {
		_, err := donationStore.CreateDonation(ctx, nil, &models.CreateDonationRequest{
			CampaignUUID: campaign.UUID,
			Amount:       0,
			Currency:     "USD",
		})
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("ListDonations paginates newest first", func(t *testing.T) {
		response, err := donationStore.ListDonations(ctx, 1, 10)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, response.TotalCount, 2)
		require.NotEmpty(t, response.Donations)
		assert.Equal(t, "Anonymous", response.Donations[0].DonorName)
	})

	t.Run("Progress caps at 100", func(t *testing.T) {
		c := &models.DonationCampaign{GoalAmount: 100, RaisedAmount: 250}
		assert.Equal(t, float64(100), c.Progress())

		c = &models.DonationCampaign{GoalAmount: 200, RaisedAmount: 50}
		assert.Equal(t, float64(25), c.Progress())
	})
}
