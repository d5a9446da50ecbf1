package server

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/upliftai/uplift/pkg/auth"
	"github.com/upliftai/uplift/pkg/models"
)

// ListCampaignsHandler lists donation campaigns. active=true filters to
// campaigns still accepting donations.
func ListCampaignsHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeOnly := r.URL.Query().Get("active") == "true"

		campaigns, err := appState.DonationStore.ListCampaigns(r.Context(), activeOnly)
		if err != nil {
			renderError(w, err)
			return
		}
		if err := encodeJSON(w, campaigns); err != nil {
			renderError(w, err)
			return
		}
	}
}

// GetCampaignHandler returns a single donation campaign.
func GetCampaignHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		campaignUUID := parseUUIDFromURL(r, w, "campaignUUID")
		if campaignUUID == uuid.Nil {
			return
		}

		campaign, err := appState.DonationStore.GetCampaign(r.Context(), campaignUUID)
		if err != nil {
			renderError(w, err)
			return
		}
		if err := encodeJSON(w, campaign); err != nil {
			renderError(w, err)
			return
		}
	}
}

// CreateCampaignHandler creates a donation campaign. Admin only.
func CreateCampaignHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateCampaignRequest
		if err := decodeAndValidateJSON(r, &req); err != nil {
			renderError(w, err)
			return
		}

		campaign, err := appState.DonationStore.CreateCampaign(r.Context(), &req)
		if err != nil {
			renderError(w, err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		if err := encodeJSON(w, campaign); err != nil {
			renderError(w, err)
			return
		}
	}
}

// CreateDonationHandler records a donation. Guests may donate; when the
// request carries a valid token the donation is attributed to the user.
func CreateDonationHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateDonationRequest
		if err := decodeAndValidateJSON(r, &req); err != nil {
			renderError(w, err)
			return
		}

		var userUUID *uuid.UUID
		if id, err := auth.UserUUIDFromContext(r.Context()); err == nil {
			userUUID = &id
		}

		donation, err := appState.DonationStore.CreateDonation(r.Context(), userUUID, &req)
		if err != nil {
			renderError(w, err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		if err := encodeJSON(w, donation); err != nil {
			renderError(w, err)
			return
		}
	}
}

// ListDonationsHandler returns a paginated list of donations. Admin only.
func ListDonationsHandler(appState *models.AppState) http.HandlerFunc {
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

		donations, err := appState.DonationStore.ListDonations(r.Context(), pageNumber, pageSize)
		if err != nil {
			renderError(w, err)
			return
		}
		if err := encodeJSON(w, donations); err != nil {
			renderError(w, err)
			return
		}
	}
}

// DonationTotalsHandler returns the sitewide donation totals.
func DonationTotalsHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		totals, err := appState.DonationStore.Totals(r.Context())
		if err != nil {
			renderError(w, err)
			return
		}
		if err := encodeJSON(w, totals); err != nil {
			renderError(w, err)
			return
		}
	}
}
