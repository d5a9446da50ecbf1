package models

import "context"

type DashboardStats struct {
	NewUsersThisMonth int     `json:"new_users_this_month"`
	ActiveUsers       int     `json:"active_users"`
	TotalViews        int64   `json:"total_views"`
	TotalVisits       int64   `json:"total_visits"`
	MonthEarnings     float64 `json:"month_earnings"`
}

// MonthlyUserTrend compares signups for one calendar month across this year
// and last year.
type MonthlyUserTrend struct {
	Month    string `json:"month"`
	ThisYear int    `json:"this_year"`
	LastYear int    `json:"last_year"`
}

type RecordVisitRequest struct {
	PageViews int64 `json:"page_views" validate:"gte=0"`
}

type DashboardStore interface {
	Stats(ctx context.Context) (*DashboardStats, error)
	UserTrend(ctx context.Context) ([]MonthlyUserTrend, error)
	// RecordVisit increments the site visit counters.
	RecordVisit(ctx context.Context, pageViews int64) error
}
