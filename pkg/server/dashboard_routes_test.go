package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upliftai/uplift/pkg/models"
)

func TestDashboardRoutes(t *testing.T) {
	_, adminToken := registerTestUser(t, true)

	resp := doJSON(t, "GET", "/api/v1/admin/dashboard/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats models.DashboardStats
	decodeBody(t, resp, &stats)
	assert.GreaterOrEqual(t, stats.NewUsersThisMonth, 1)

	resp = doJSON(t, "GET", "/api/v1/admin/dashboard/trend", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var trend []models.MonthlyUserTrend
	decodeBody(t, resp, &trend)
	require.Len(t, trend, 12)
	assert.Equal(t, "January", trend[0].Month)
	assert.GreaterOrEqual(t, trend[int(time.Now().Month())-1].ThisYear, 1)
}

func TestRecordVisitRoute(t *testing.T) {
	_, adminToken := registerTestUser(t, true)

	resp := doJSON(t, "GET", "/api/v1/admin/dashboard/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var before models.DashboardStats
	decodeBody(t, resp, &before)

	resp = doJSON(t, "POST", "/api/v1/metrics/visit", "", models.RecordVisitRequest{PageViews: 4})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, "GET", "/api/v1/admin/dashboard/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var after models.DashboardStats
	decodeBody(t, resp, &after)

	assert.Equal(t, before.TotalVisits+1, after.TotalVisits)
	assert.Equal(t, before.TotalViews+4, after.TotalViews)
}

func TestUserAdminRoutes(t *testing.T) {
	user, adminToken := registerTestUser(t, true)

	resp := doJSON(t, "GET", "/api/v1/admin/users?cursor=0&limit=100", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var users []*models.User
	decodeBody(t, resp, &users)
	assert.NotEmpty(t, users)

	resp = doJSON(t, "GET", "/api/v1/admin/users/new", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var newUsers []*models.User
	decodeBody(t, resp, &newUsers)

	found := false
	for _, u := range newUsers {
		if u.UUID == user.UUID {
			found = true
		}
	}
	assert.True(t, found)

	resp = doJSON(t, "GET", "/api/v1/admin/users/active?limit=10", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var activeUsers []*models.User
	decodeBody(t, resp, &activeUsers)
	assert.LessOrEqual(t, len(activeUsers), 10)
}
