package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/uptrace/bun"

	"github.com/upliftai/uplift/pkg/models"
	"github.com/upliftai/uplift/pkg/store"
)

var _ models.DonationStore = &DonationStoreDAO{}

type DonationStoreDAO struct {
	db *bun.DB
}

func NewDonationStoreDAO(db *bun.DB) *DonationStoreDAO {
	return &DonationStoreDAO{
		db: db,
	}
}

// CreateCampaign creates a new donation campaign.
func (dao *DonationStoreDAO) CreateCampaign(
	ctx context.Context,
	req *models.CreateCampaignRequest,
) (*models.DonationCampaign, error) {
	if req.Title == "" {
		return nil, models.NewBadRequestError("campaign title cannot be empty")
	}
	if req.GoalAmount <= 0 {
		return nil, models.NewBadRequestError("campaign goal must be positive")
	}

	campaignDB := DonationCampaignSchema{
		Title:        req.Title,
		Organization: req.Organization,
		Description:  req.Description,
		GoalAmount:   req.GoalAmount,
		Active:       req.Active,
	}
	_, err := dao.db.NewInsert().Model(&campaignDB).Returning("*").Exec(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to create campaign", err)
	}

	return campaignSchemaToCampaign(&campaignDB)
}

// GetCampaign gets a campaign by UUID.
func (dao *DonationStoreDAO) GetCampaign(
	ctx context.Context,
	campaignUUID uuid.UUID,
) (*models.DonationCampaign, error) {
	campaignDB := new(DonationCampaignSchema)
	err := dao.db.NewSelect().Model(campaignDB).Where("uuid = ?", campaignUUID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("campaign " + campaignUUID.String())
		}
		return nil, err
	}
	return campaignSchemaToCampaign(campaignDB)
}

// ListCampaigns returns campaigns, newest first.
func (dao *DonationStoreDAO) ListCampaigns(
	ctx context.Context,
	activeOnly bool,
) ([]*models.DonationCampaign, error) {
	var campaignsDB []*DonationCampaignSchema
	q := dao.db.NewSelect().
		Model(&campaignsDB).
		Order("created_at DESC")
	if activeOnly {
		q = q.Where("active = true")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	campaigns := make([]*models.DonationCampaign, len(campaignsDB))
	for i := range campaignsDB {
		campaign, err := campaignSchemaToCampaign(campaignsDB[i])
		if err != nil {
			return nil, err
		}
		campaigns[i] = campaign
	}
	return campaigns, nil
}

// CreateDonation records a completed donation. The campaign counters and the
// global totals are updated in the same transaction.
func (dao *DonationStoreDAO) CreateDonation(
	ctx context.Context,
	userUUID *uuid.UUID,
	req *models.CreateDonationRequest,
) (*models.Donation, error) {
	if req.Amount <= 0 {
		return nil, models.NewBadRequestError("donation amount must be positive")
	}

	// ensure the campaign exists and is accepting donations
	campaign, err := dao.GetCampaign(ctx, req.CampaignUUID)
	if err != nil {
		return nil, err
	}
	if !campaign.Active {
		return nil, models.NewBadRequestError(
			"campaign is not accepting donations: " + campaign.Title,
		)
	}

	tx, err := dao.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackOnError(tx)

	donationDB := DonationSchema{
		CampaignUUID: req.CampaignUUID,
		UserUUID:     userUUID,
		DonorName:    req.DonorName,
		Email:        req.Email,
		Amount:       req.Amount,
		Currency:     strings.ToUpper(req.Currency),
		Message:      req.Message,
		Rating:       req.Rating,
		Status:       models.DonationStatusCompleted,
	}
	_, err = tx.NewInsert().Model(&donationDB).Returning("*").Exec(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to create donation", err)
	}

	_, err = tx.NewUpdate().
		Model((*DonationCampaignSchema)(nil)).
		Set("raised_amount = raised_amount + ?", req.Amount).
		Set("supporters = supporters + 1").
		Where("uuid = ?", req.CampaignUUID).
		Exec(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to update campaign totals", err)
	}

	_, err = tx.NewUpdate().
		Model((*DonationTotalsSchema)(nil)).
		Set("total_amount = total_amount + ?", req.Amount).
		Set("total_count = total_count + 1").
		Where("id = 1").
		Exec(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to update donation totals", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return donationSchemaToDonation(&donationDB)
}

// ListDonations returns a paginated list of donations, newest first.
func (dao *DonationStoreDAO) ListDonations(
	ctx context.Context,
	pageNumber int,
	pageSize int,
) (*models.DonationListResponse, error) {
	if pageSize < 1 {
		return nil, store.NewStorageError("pageSize must be greater than 0", nil)
	}

	var totalCount int
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	var donationsDB []*DonationSchema

	wg.Add(1)
	go func() {
		defer wg.Done()
		err := dao.db.NewSelect().
			Model(&donationsDB).
			Order("id DESC").
			Limit(pageSize).
			Offset((pageNumber - 1) * pageSize).
			Scan(ctx)

		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		var err error
		totalCount, err = dao.db.NewSelect().
			Model((*DonationSchema)(nil)).
			Count(ctx)

		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}()

	wg.Wait()

	if firstErr != nil {
		return nil, fmt.Errorf("failed to list donations: %w", firstErr)
	}

	donations := make([]*models.Donation, len(donationsDB))
	for i := range donationsDB {
		donation, err := donationSchemaToDonation(donationsDB[i])
		if err != nil {
			return nil, err
		}
		donations[i] = donation
	}

	return &models.DonationListResponse{
		Donations:  donations,
		RowCount:   len(donations),
		TotalCount: totalCount,
	}, nil
}

// Totals returns the global donation counters.
func (dao *DonationStoreDAO) Totals(ctx context.Context) (*models.DonationTotals, error) {
	totalsDB := new(DonationTotalsSchema)
	err := dao.db.NewSelect().Model(totalsDB).Where("id = 1").Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.DonationTotals{}, nil
		}
		return nil, err
	}
	return &models.DonationTotals{
		TotalAmount: totalsDB.TotalAmount,
		TotalCount:  totalsDB.TotalCount,
	}, nil
}

func campaignSchemaToCampaign(
	campaign *DonationCampaignSchema,
) (*models.DonationCampaign, error) {
	retCampaign := &models.DonationCampaign{}
	if err := copier.Copy(retCampaign, campaign); err != nil {
		return nil, store.NewStorageError("failed to copy campaign", err)
	}
	return retCampaign, nil
}

func donationSchemaToDonation(donation *DonationSchema) (*models.Donation, error) {
	retDonation := &models.Donation{}
	if err := copier.Copy(retDonation, donation); err != nil {
		return nil, store.NewStorageError("failed to copy donation", err)
	}
	return retDonation, nil
}
