package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"rfbmarket/models"
)

var ErrNotFound = errors.New("not found")

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

const rfbColumns = `id, project_name, plot_area, floors, budget, budget_min_lakhs, budget_max_lakhs,
        location, state, district, subdivision, timeline, loan_required, description,
        contact_name, email, phone, bid_deadline, qa_deadline, status, posted_date`

// RFB

func (s *Storage) ListRFBs(ctx context.Context) ([]models.RFBRecord, error) {
	query := `SELECT ` + rfbColumns + ` FROM rfb ORDER BY seq ASC`
	rfbs := []models.RFBRecord{}
	if err := s.db.SelectContext(ctx, &rfbs, query); err != nil {
		return nil, err
	}
	return rfbs, nil
}

func (s *Storage) GetRFB(ctx context.Context, id string) (*models.RFBRecord, error) {
	r := &models.RFBRecord{}
	query := `SELECT ` + rfbColumns + ` FROM rfb WHERE id=$1`
	err := s.db.GetContext(ctx, r, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rfb %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Storage) CreateRFB(ctx context.Context, r *models.RFBRecord) error {
	query := `
        INSERT INTO rfb (` + rfbColumns + `)
        VALUES
            (:id, :project_name, :plot_area, :floors, :budget, :budget_min_lakhs, :budget_max_lakhs,
             :location, :state, :district, :subdivision, :timeline, :loan_required, :description,
             :contact_name, :email, :phone, :bid_deadline, :qa_deadline, :status, :posted_date)`
	_, err := s.db.NamedExecContext(ctx, query, r)
	return err
}

func (s *Storage) UpdateRFBStatus(ctx context.Context, id string, status models.RFBStatus) error {
	query := `UPDATE rfb SET status=$1 WHERE id=$2`
	res, err := s.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("rfb %s: %w", id, ErrNotFound)
	}
	return nil
}

// Bid

// CreateBid stores a bid. A bid whose id already exists is left untouched.
func (s *Storage) CreateBid(ctx context.Context, b *models.Bid) error {
	query := `
        INSERT INTO bid
            (id, rfb_id, bidder_name, bid_value, contractor_score, rating, past_projects, experience_years, submitted_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (id) DO NOTHING`
	_, err := s.db.ExecContext(ctx, query,
		b.ID, b.RFBID, b.BidderName, b.BidValue, b.ContractorScore, b.Rating,
		b.PastProjects, b.ExperienceYears, b.SubmittedAt)
	return err
}

func (s *Storage) ListBidsForRFB(ctx context.Context, rfbID string) ([]models.Bid, error) {
	query := `
        SELECT id, rfb_id, bidder_name, bid_value, contractor_score, rating, past_projects, experience_years, submitted_at
        FROM bid
        WHERE rfb_id = $1
        ORDER BY submitted_at DESC`
	bids := []models.Bid{}
	err := s.db.SelectContext(ctx, &bids, query, rfbID)
	return bids, err
}
