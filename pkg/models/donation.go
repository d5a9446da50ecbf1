package models

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type DonationCampaign struct {
	UUID         uuid.UUID `json:"uuid"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Title        string    `json:"title"`
	Organization string    `json:"organization"`
	Description  string    `json:"description"`
	GoalAmount   float64   `json:"goal_amount"`
	RaisedAmount float64   `json:"raised_amount"`
	Supporters   int       `json:"supporters"`
	Active       bool      `json:"active"`
}

// Progress returns the percentage of the goal raised, capped at 100.
func (c *DonationCampaign) Progress() float64 {
	if c.GoalAmount <= 0 {
		return 0
	}
	p := c.RaisedAmount / c.GoalAmount * 100
	if p > 100 {
		return 100
	}
	return p
}

type CreateCampaignRequest struct {
	Title        string  `json:"title" validate:"required"`
	Organization string  `json:"organization" validate:"required"`
	Description  string  `json:"description"`
	GoalAmount   float64 `json:"goal_amount" validate:"gt=0"`
	Active       bool    `json:"active"`
}

const (
	DonationStatusPending   = "pending"
	DonationStatusCompleted = "completed"
)

type Donation struct {
	UUID         uuid.UUID `json:"uuid"`
	CreatedAt    time.Time `json:"created_at"`
	CampaignUUID uuid.UUID `json:"campaign_uuid"`
	// UserUUID is nil for guest donations.
	UserUUID  *uuid.UUID `json:"user_uuid,omitempty"`
	DonorName string     `json:"donor_name,omitempty"`
	Email     string     `json:"email,omitempty"`
	Amount    float64    `json:"amount"`
	Currency  string     `json:"currency"`
	Message   string     `json:"message,omitempty"`
	Rating    int        `json:"rating,omitempty"`
	Status    string     `json:"status"`
}

type CreateDonationRequest struct {
	CampaignUUID uuid.UUID `json:"campaign_uuid" validate:"required"`
	DonorName    string    `json:"donor_name"`
	Email        string    `json:"email" validate:"omitempty,email"`
	Amount       float64   `json:"amount" validate:"gt=0"`
	Currency     string    `json:"currency" validate:"required,len=3"`
	Message      string    `json:"message"`
	Rating       int       `json:"rating" validate:"gte=0,lte=5"`
}

type DonationListResponse struct {
	Donations  []*Donation `json:"donations"`
	TotalCount int         `json:"total_count"`
	RowCount   int         `json:"row_count"`
}

type DonationTotals struct {
	TotalAmount float64 `json:"total_amount"`
	TotalCount  int     `json:"total_count"`
}

type DonationStore interface {
	CreateCampaign(ctx context.Context, req *CreateCampaignRequest) (*DonationCampaign, error)
	GetCampaign(ctx context.Context, campaignUUID uuid.UUID) (*DonationCampaign, error)
	ListCampaigns(ctx context.Context, activeOnly bool) ([]*DonationCampaign, error)
	// CreateDonation records a donation. Completed donations update campaign
	// and global totals in the same transaction.
	CreateDonation(ctx context.Context, userUUID *uuid.UUID, req *CreateDonationRequest) (*Donation, error)
	ListDonations(ctx context.Context, pageNumber int, pageSize int) (*DonationListResponse, error)
	Totals(ctx context.Context) (*DonationTotals, error)
}
