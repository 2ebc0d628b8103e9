package rfb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"rfbmarket/models"
)

func intake() models.RFBRecord {
	return models.RFBRecord{
		ProjectName:  "Lakeside Duplex",
		PlotArea:     "1800",
		Floors:       "2",
		Budget:       "₹50-75 Lakhs",
		Location:     "Mysuru, Karnataka",
		State:        "Karnataka",
		Timeline:     "9 months",
		LoanRequired: true,
		Description:  "Two floor duplex with rooftop garden.",
		ContactName:  "Meera Rao",
		Email:        "meera@example.com",
		Phone:        "+91 9000000000",
		BidDeadline:  day(2024, 7, 16),
		QADeadline:   day(2024, 7, 12),
	}
}

func TestNewRecordStampsAndDerivesBudget(t *testing.T) {
	r, err := NewRecord(intake(), now)
	require.NoError(t, err)
	require.NotEmpty(t, r.ID)
	require.Equal(t, models.RFBOpen, r.Status)
	require.Equal(t, day(2024, 7, 10), r.PostedDate)
	require.Equal(t, 50.0, r.BudgetMinLakhs)
	require.Equal(t, 75.0, r.BudgetMaxLakhs)
}

func TestValidateNewRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*models.RFBRecord)
	}{
		{"missing project name", func(r *models.RFBRecord) { r.ProjectName = "" }},
		{"short description", func(r *models.RFBRecord) { r.Description = "too short" }},
		{"bad email", func(r *models.RFBRecord) { r.Email = "meera.example.com" }},
		{"missing phone", func(r *models.RFBRecord) { r.Phone = "" }},
		{"bid deadline too soon", func(r *models.RFBRecord) { r.BidDeadline = day(2024, 7, 15) }},
		{"qa deadline too soon", func(r *models.RFBRecord) { r.QADeadline = day(2024, 7, 11) }},
		{"qa deadline equal to bid deadline", func(r *models.RFBRecord) { r.QADeadline = r.BidDeadline }},
		{"qa deadline after bid deadline", func(r *models.RFBRecord) { r.QADeadline = day(2024, 7, 20) }},
		{"zero bid deadline", func(r *models.RFBRecord) { r.BidDeadline = day(1, 1, 1) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := intake()
			tc.mutate(&r)
			err := ValidateNew(r, now)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrInvalidRecord))
		})
	}
}

func TestCheckTransition(t *testing.T) {
	require.NoError(t, CheckTransition(models.RFBOpen, models.RFBClosed))
	require.True(t, errors.Is(CheckTransition(models.RFBOpen, models.RFBOpen), ErrInvalidTransition))
	require.True(t, errors.Is(CheckTransition(models.RFBClosed, models.RFBOpen), ErrClosed))
	require.True(t, errors.Is(CheckTransition(models.RFBClosed, models.RFBClosed), ErrClosed))
}
