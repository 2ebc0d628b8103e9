package models

import "time"

type RFBStatus string

const (
	RFBOpen   RFBStatus = "Open"
	RFBClosed RFBStatus = "Closed"
)

// RFBRecord is a request for bid posted by a homeowner.
type RFBRecord struct {
	ID             string    `db:"id" json:"id"`
	ProjectName    string    `db:"project_name" json:"projectName" validate:"required,max=200"`
	PlotArea       string    `db:"plot_area" json:"plotArea" validate:"required"`
	Floors         string    `db:"floors" json:"floors" validate:"required"`
	Budget         string    `db:"budget" json:"budget" validate:"required"`
	BudgetMinLakhs float64   `db:"budget_min_lakhs" json:"budgetMinLakhs" validate:"gte=0"`
	BudgetMaxLakhs float64   `db:"budget_max_lakhs" json:"budgetMaxLakhs" validate:"gte=0"`
	Location       string    `db:"location" json:"location" validate:"required"`
	State          string    `db:"state" json:"state"`
	District       string    `db:"district" json:"district"`
	Subdivision    string    `db:"subdivision" json:"subdivision"`
	Timeline       string    `db:"timeline" json:"timeline" validate:"required"`
	LoanRequired   bool      `db:"loan_required" json:"loanRequired"`
	Description    string    `db:"description" json:"description" validate:"required,min=10,max=2000"`
	ContactName    string    `db:"contact_name" json:"contactName" validate:"required"`
	Email          string    `db:"email" json:"email" validate:"required,email"`
	Phone          string    `db:"phone" json:"phone" validate:"required"`
	BidDeadline    time.Time `db:"bid_deadline" json:"bidDeadline" validate:"required"`
	QADeadline     time.Time `db:"qa_deadline" json:"qaDeadline" validate:"required"`
	Status         RFBStatus `db:"status" json:"status"`
	PostedDate     time.Time `db:"posted_date" json:"postedDate"`
}

// Bid is a priced proposal as the homeowner sees it on the review page.
type Bid struct {
	ID              string    `db:"id" json:"id"`
	RFBID           string    `db:"rfb_id" json:"rfbId"`
	BidderName      string    `db:"bidder_name" json:"bidderName"`
	BidValue        float64   `db:"bid_value" json:"bidValue"`
	ContractorScore int       `db:"contractor_score" json:"contractorScore"`
	Rating          float64   `db:"rating" json:"rating"`
	PastProjects    int       `db:"past_projects" json:"pastProjects"`
	ExperienceYears int       `db:"experience_years" json:"experienceYears"`
	SubmittedAt     time.Time `db:"submitted_at" json:"submittedAt"`
}

// CategorySpec is one work category of an RFP together with the two comment fields.
type CategorySpec struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Specifications    []string `json:"specifications"`
	OwnerComment      string   `json:"ownerComment,omitempty"`
	ContractorComment string   `json:"contractorComment"`
}

// LineItem is one priced row of a proposal. TotalPrice is always UnitRate * Quantity.
type LineItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	UnitRate    float64 `json:"unitRate"`
	UoM         string  `json:"uom"`
	Quantity    float64 `json:"quantity"`
	TotalPrice  float64 `json:"totalPrice"`
	Remarks     string  `json:"remarks"`
}

type PricingSummary struct {
	Subtotal       float64 `json:"subtotal"`
	CGSTRate       float64 `json:"cgstRate"`
	CGSTAmount     float64 `json:"cgstAmount"`
	SGSTRate       float64 `json:"sgstRate"`
	SGSTAmount     float64 `json:"sgstAmount"`
	DiscountRate   float64 `json:"discountRate"`
	DiscountAmount float64 `json:"discountAmount"`
	FinalAmount    float64 `json:"finalAmount"`
}

type ContractorIdentity struct {
	CompanyName string `json:"companyName" validate:"required"`
	ContactName string `json:"contactName" validate:"required"`
	Email       string `json:"email" validate:"required"`
	Phone       string `json:"phone"`
}

// ContractorProposal is the frozen result of a completed submission workflow.
type ContractorProposal struct {
	ID          string             `json:"id"`
	RFB         RFBRecord          `json:"rfb"`
	Contractor  ContractorIdentity `json:"contractor"`
	Categories  []CategorySpec     `json:"categories"`
	LineItems   []LineItem         `json:"lineItems"`
	Summary     PricingSummary     `json:"summary"`
	FinalAmount float64            `json:"finalAmount"`
	SubmittedAt time.Time          `json:"submittedAt"`
}
