package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rfbmarket/models"
)

// Seeder is the part of the storage SeedDemo writes through.
type Seeder interface {
	GetRFB(ctx context.Context, id string) (*models.RFBRecord, error)
	CreateRFB(ctx context.Context, r *models.RFBRecord) error
	CreateBid(ctx context.Context, b *models.Bid) error
}

// SeedDemo writes the demo listing and bids, skipping records that already
// exist. It returns the number of RFBs created.
func SeedDemo(ctx context.Context, s Seeder, now time.Time) (int, error) {
	created := 0
	for _, r := range SeedRFBs(now) {
		_, err := s.GetRFB(ctx, r.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return created, err
		}
		if err := s.CreateRFB(ctx, &r); err != nil {
			return created, fmt.Errorf("seed rfb %s: %w", r.ID, err)
		}
		created++
	}
	for _, b := range SeedBids(now) {
		if err := s.CreateBid(ctx, &b); err != nil {
			return created, fmt.Errorf("seed bid %s: %w", b.ID, err)
		}
	}
	return created, nil
}

func dayOf(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// SeedRFBs is the demo listing. Deadlines are offsets from now's date: three
// records are open, "3" is closed and "5" is open but past its bid deadline.
func SeedRFBs(now time.Time) []models.RFBRecord {
	today := dayOf(now)
	day := func(offset int) time.Time { return today.AddDate(0, 0, offset) }
	return []models.RFBRecord{
		{
			ID: "1", ProjectName: "Modern Villa Construction", PlotArea: "2500", Floors: "2",
			Budget: "₹50-75 Lakhs", BudgetMinLakhs: 50, BudgetMaxLakhs: 75,
			Location: "Bangalore, Karnataka", State: "Karnataka", District: "Bangalore Urban", Subdivision: "Bangalore South",
			Timeline: "12 months", LoanRequired: true,
			Description: "Construction of a modern 4BHK villa with contemporary design.",
			ContactName: "Rajesh Kumar", Email: "rajesh@email.com", Phone: "+91 9876543210",
			BidDeadline: day(5), QADeadline: day(0),
			Status: models.RFBOpen, PostedDate: day(-25),
		},
		{
			ID: "2", ProjectName: "Commercial Complex Development", PlotArea: "5000", Floors: "4",
			Budget: "₹2-3 Crores", BudgetMinLakhs: 200, BudgetMaxLakhs: 300,
			Location: "Mumbai, Maharashtra", State: "Maharashtra", District: "Mumbai", Subdivision: "Andheri",
			Timeline: "18 months", LoanRequired: false,
			Description: "Construction of a commercial complex with retail and office spaces.",
			ContactName: "Priya Sharma", Email: "priya@email.com", Phone: "+91 9876543211",
			BidDeadline: day(10), QADeadline: day(5),
			Status: models.RFBOpen, PostedDate: day(-30),
		},
		{
			ID: "3", ProjectName: "Residential Apartment Block", PlotArea: "3000", Floors: "3",
			Budget: "₹1-1.5 Crores", BudgetMinLakhs: 100, BudgetMaxLakhs: 150,
			Location: "Chennai, Tamil Nadu", State: "Tamil Nadu", District: "Chennai", Subdivision: "Tambaram",
			Timeline: "15 months", LoanRequired: true,
			Description: "Construction of a 12-unit residential apartment block.",
			ContactName: "Arun Patel", Email: "arun@email.com", Phone: "+91 9876543212",
			BidDeadline: day(-10), QADeadline: day(-15),
			Status: models.RFBClosed, PostedDate: day(-51),
		},
		{
			ID: "4", ProjectName: "Luxury Farmhouse", PlotArea: "4000", Floors: "2",
			Budget: "₹75 Lakhs - 1 Crore", BudgetMinLakhs: 75, BudgetMaxLakhs: 100,
			Location: "Pune, Maharashtra", State: "Maharashtra", District: "Pune", Subdivision: "Mulshi",
			Timeline: "10 months", LoanRequired: false,
			Description: "Construction of a luxury farmhouse with modern amenities.",
			ContactName: "Deepika Singh", Email: "deepika@email.com", Phone: "+91 9876543213",
			BidDeadline: day(22), QADeadline: day(15),
			Status: models.RFBOpen, PostedDate: day(-20),
		},
		{
			ID: "5", ProjectName: "Heritage Haveli Restoration", PlotArea: "1800", Floors: "2",
			Budget: "₹30-40 Lakhs", BudgetMinLakhs: 30, BudgetMaxLakhs: 40,
			Location: "Jaipur, Rajasthan", State: "Rajasthan", District: "Jaipur", Subdivision: "Amer",
			Timeline: "9 months", LoanRequired: false,
			Description: "Restoration of a two storey haveli with lime plaster and stone jaali work.",
			ContactName: "Kavita Rathore", Email: "kavita@email.com", Phone: "+91 9876543214",
			BidDeadline: day(-3), QADeadline: day(-8),
			Status: models.RFBOpen, PostedDate: day(-40),
		},
	}
}

// SeedBids are the bids received on RFB "1".
func SeedBids(now time.Time) []models.Bid {
	today := dayOf(now)
	at := func(daysAgo, h, m int) time.Time {
		return today.AddDate(0, 0, -daysAgo).Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
	}
	return []models.Bid{
		{ID: "1", RFBID: "1", BidderName: "Bidder 1", BidValue: 4250000, ContractorScore: 92, Rating: 4.8,
			PastProjects: 15, ExperienceYears: 8, SubmittedAt: at(20, 10, 30)},
		{ID: "2", RFBID: "1", BidderName: "Bidder 2", BidValue: 4380000, ContractorScore: 88, Rating: 4.6,
			PastProjects: 12, ExperienceYears: 6, SubmittedAt: at(21, 14, 15)},
		{ID: "3", RFBID: "1", BidderName: "Bidder 3", BidValue: 4420000, ContractorScore: 85, Rating: 4.4,
			PastProjects: 10, ExperienceYears: 5, SubmittedAt: at(22, 16, 45)},
		{ID: "4", RFBID: "1", BidderName: "Bidder 4", BidValue: 4650000, ContractorScore: 90, Rating: 4.7,
			PastProjects: 18, ExperienceYears: 10, SubmittedAt: at(23, 9, 20)},
		{ID: "5", RFBID: "1", BidderName: "Bidder 5", BidValue: 4780000, ContractorScore: 83, Rating: 4.2,
			PastProjects: 8, ExperienceYears: 4, SubmittedAt: at(24, 11, 10)},
	}
}
