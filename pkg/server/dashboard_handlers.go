package server

import (
	"net/http"
	"time"

	"github.com/upliftai/uplift/pkg/models"
)

const newUserWindow = 7 * 24 * time.Hour

// DashboardStatsHandler returns the admin headline numbers.
func DashboardStatsHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := appState.DashboardStore.Stats(r.Context())
		if err != nil {
			renderError(w, err)
			return
		}
		if err := encodeJSON(w, stats); err != nil {
			renderError(w, err)
			return
		}
	}
}

// UserTrendHandler returns the 12-month signup trend for this year and last.
func UserTrendHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trend, err := appState.DashboardStore.UserTrend(r.Context())
		if err != nil {
			renderError(w, err)
			return
		}
		if err := encodeJSON(w, trend); err != nil {
			renderError(w, err)
			return
		}
	}
}

// RecordVisitHandler increments the site visit counters. Called by the
// frontend on page load.
func RecordVisitHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RecordVisitRequest
		if err := decodeAndValidateJSON(r, &req); err != nil {
			renderError(w, err)
			return
		}

		if err := appState.DashboardStore.RecordVisit(r.Context(), req.PageViews); err != nil {
			renderError(w, err)
			return
		}
		_, _ = w.Write([]byte(OKResponse))
	}
}

// ListUsersHandler returns all users by id cursor. Admin only.
func ListUsersHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cursor, err := extractQueryStringValueToInt[int64](r, "cursor")
		if err != nil {
			renderError(w, models.NewBadRequestError("invalid cursor"))
			return
		}
		limit, err := extractQueryStringValueToInt[int](r, "limit")
		if err != nil {
			renderError(w, models.NewBadRequestError("invalid limit"))
			return
		}

		users, err := appState.UserStore.ListAll(r.Context(), cursor, limit)
		if err != nil {
			renderError(w, err)
			return
		}
		if err := encodeJSON(w, users); err != nil {
			renderError(w, err)
			return
		}
	}
}

// ListNewUsersHandler returns users who signed up in the last seven days.
// Admin only.
func ListNewUsersHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := appState.UserStore.ListNew(r.Context(), time.Now().Add(-newUserWindow))
		if err != nil {
			renderError(w, err)
			return
		}
		if err := encodeJSON(w, users); err != nil {
			renderError(w, err)
			return
		}
	}
}

// ListActiveUsersHandler returns verified users ordered by most recent login.
// Admin only.
func ListActiveUsersHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := extractQueryStringValueToInt[int](r, "limit")
		if err != nil {
			renderError(w, models.NewBadRequestError("invalid limit"))
			return
		}

		users, err := appState.UserStore.ListActive(r.Context(), limit)
		if err != nil {
			renderError(w, err)
			return
		}
		if err := encodeJSON(w, users); err != nil {
			renderError(w, err)
			return
		}
	}
}
