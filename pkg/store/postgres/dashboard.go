package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/upliftai/uplift/pkg/models"
	"github.com/upliftai/uplift/pkg/store"
)

// activeUserWindow is how far back a login counts as "active".
const activeUserWindow = 30 * 24 * time.Hour

var _ models.DashboardStore = &DashboardDAO{}

type DashboardDAO struct {
	db *bun.DB
}

func NewDashboardDAO(db *bun.DB) *DashboardDAO {
	return &DashboardDAO{
		db: db,
	}
}

// Stats returns the headline numbers for the admin dashboard.
func (dao *DashboardDAO) Stats(ctx context.Context) (*models.DashboardStats, error) {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	newUsers, err := dao.db.NewSelect().
		Model((*UserSchema)(nil)).
		Where("created_at >= ?", monthStart).
		Count(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to count new users", err)
	}

	activeUsers, err := dao.db.NewSelect().
		Model((*UserSchema)(nil)).
		Where("verified = true").
		Where("last_login_at >= ?", now.Add(-activeUserWindow)).
		Count(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to count active users", err)
	}

	metricsDB := new(SiteMetricsSchema)
	err = dao.db.NewSelect().Model(metricsDB).Where("id = 1").Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, store.NewStorageError("failed to get site metrics", err)
	}

	earnings, err := dao.monthEarnings(ctx, monthStart)
	if err != nil {
		return nil, err
	}

	return &models.DashboardStats{
		NewUsersThisMonth: newUsers,
		ActiveUsers:       activeUsers,
		TotalViews:        metricsDB.TotalViews,
		TotalVisits:       metricsDB.TotalVisits,
		MonthEarnings:     earnings,
	}, nil
}

// monthEarnings sums completed donations and plan prices for subscriptions
// started since monthStart.
func (dao *DashboardDAO) monthEarnings(
	ctx context.Context,
	monthStart time.Time,
) (float64, error) {
	var donationTotal sql.NullFloat64
	err := dao.db.NewSelect().
		Model((*DonationSchema)(nil)).
		ColumnExpr("SUM(amount)").
		Where("status = ?", models.DonationStatusCompleted).
		Where("created_at >= ?", monthStart).
		Scan(ctx, &donationTotal)
	if err != nil {
		return 0, store.NewStorageError("failed to sum donations", err)
	}

	var subscriptionTotal sql.NullFloat64
	err = dao.db.NewSelect().
		TableExpr("subscription AS sub").
		Join("JOIN subscription_plan AS sp").
		JoinOn("sub.plan_uuid = sp.uuid").
		ColumnExpr("SUM(sp.price)").
		Where("sub.start_date >= ?", monthStart).
		Scan(ctx, &subscriptionTotal)
	if err != nil {
		return 0, store.NewStorageError("failed to sum subscription revenue", err)
	}

	return donationTotal.Float64 + subscriptionTotal.Float64, nil
}

// UserTrend returns signup counts per calendar month for this year and last
// year. All twelve months are returned, including empty ones.
func (dao *DashboardDAO) UserTrend(ctx context.Context) ([]models.MonthlyUserTrend, error) {
	type monthCount struct {
		Month int `bun:"month"`
		Year  int `bun:"year"`
		Count int `bun:"count"`
	}

	thisYear := time.Now().Year()
	yearStart := time.Date(thisYear-1, time.January, 1, 0, 0, 0, 0, time.UTC)

	var counts []monthCount
	err := dao.db.NewSelect().
		Model((*UserSchema)(nil)).
		ColumnExpr("EXTRACT(MONTH FROM created_at)::int AS month").
		ColumnExpr("EXTRACT(YEAR FROM created_at)::int AS year").
		ColumnExpr("COUNT(*)::int AS count").
		Where("created_at >= ?", yearStart).
		GroupExpr("1, 2").
		Scan(ctx, &counts)
	if err != nil {
		return nil, store.NewStorageError("failed to get user trend", err)
	}

	trend := make([]models.MonthlyUserTrend, 12)
	for i := 0; i < 12; i++ {
		trend[i] = models.MonthlyUserTrend{
			Month: time.Month(i + 1).String(),
		}
	}
	for _, c := range counts {
		if c.Month < 1 || c.Month > 12 {
			continue
		}
		switch c.Year {
		case thisYear:
			trend[c.Month-1].ThisYear = c.Count
		case thisYear - 1:
			trend[c.Month-1].LastYear = c.Count
		}
	}

	return trend, nil
}

// RecordVisit increments the site visit counters. Each call counts one visit
// and pageViews page views.
func (dao *DashboardDAO) RecordVisit(ctx context.Context, pageViews int64) error {
	if pageViews < 0 {
		return models.NewBadRequestError("pageViews cannot be negative")
	}

	r, err := dao.db.NewUpdate().
		Model((*SiteMetricsSchema)(nil)).
		Set("total_visits = total_visits + 1").
		Set("total_views = total_views + ?", pageViews).
		Where("id = 1").
		Exec(ctx)
	if err != nil {
		return store.NewStorageError("failed to record visit", err)
	}

	rowsAffected, err := r.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		// seed row missing, create it with this visit counted
		metricsDB := SiteMetricsSchema{ID: 1, TotalViews: pageViews, TotalVisits: 1}
		_, err = dao.db.NewInsert().
			Model(&metricsDB).
			On("CONFLICT (id) DO UPDATE").
			Set("total_visits = site_metrics.total_visits + 1").
			Set("total_views = site_metrics.total_views + ?", pageViews).
			Exec(ctx)
		if err != nil {
			return store.NewStorageError("failed to record visit", err)
		}
	}

	return nil
}
