package handlers

import (
	"context"

	"rfbmarket/models"
)

type StorageInterface interface {
	ListRFBs(ctx context.Context) ([]models.RFBRecord, error)
	GetRFB(ctx context.Context, id string) (*models.RFBRecord, error)
	CreateRFB(ctx context.Context, r *models.RFBRecord) error
	UpdateRFBStatus(ctx context.Context, id string, status models.RFBStatus) error

	CreateBid(ctx context.Context, b *models.Bid) error
	ListBidsForRFB(ctx context.Context, rfbID string) ([]models.Bid, error)
}
