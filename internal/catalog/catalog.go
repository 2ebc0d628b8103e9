// Package catalog holds the fixed table of work categories every RFP is built from.
// The table is shared and immutable; only the owner and contractor comments vary,
// and they live in an Overlay owned by a single proposal or RFP.
package catalog

import (
	"errors"
	"fmt"

	"rfbmarket/models"
)

var ErrUnknownCategory = errors.New("unknown category")

type entry struct {
	id             string
	title          string
	description    string
	specifications []string
	ownerComment   string
}

var table = []entry{
	{
		id:          "civil",
		title:       "Civil Work",
		description: "Foundation, excavation, and structural elements",
		specifications: []string{
			"Site excavation and leveling as per approved drawings",
			"PCC (Plain Cement Concrete) foundation with M15 grade",
			"RCC (Reinforced Cement Concrete) foundation with M20 grade",
			"Brick masonry work for walls using standard bricks",
			"Plastering for internal and external walls",
			"Flooring work with tiles/marble as specified",
		},
		ownerComment: "Please ensure quality materials and timely completion as per specifications.",
	},
	{
		id:          "structural",
		title:       "Structural Design",
		description: "Load-bearing elements and structural integrity",
		specifications: []string{
			"Structural design calculations and drawings",
			"RCC columns with M25 grade concrete",
			"RCC beams and slabs as per structural design",
			"Steel reinforcement as per IS codes",
			"Earthquake-resistant design compliance",
			"Structural safety certifications",
		},
		ownerComment: "All structural work must comply with local building codes and safety standards.",
	},
	{
		id:          "electrical",
		title:       "Electrical Work",
		description: "Complete electrical installation and wiring",
		specifications: []string{
			"Internal wiring with copper conductors",
			"Main electrical panel and distribution boards",
			"Power outlets and switch points as per layout",
			"Light fixtures and ceiling fans installation",
			"Earthing and safety measures",
			"Electrical safety certificates and approvals",
		},
		ownerComment: "Use ISI marked electrical components and ensure proper earthing.",
	},
	{
		id:          "plumbing",
		title:       "Plumbing Work",
		description: "Water supply and drainage systems",
		specifications: []string{
			"Water supply piping with CPVC/PPR pipes",
			"Drainage system with PVC pipes",
			"Bathroom fixtures and fittings",
			"Kitchen sink and plumbing connections",
			"Water tank installation and connections",
			"Plumbing safety and pressure testing",
		},
		ownerComment: "Ensure leak-proof installations and use branded fixtures.",
	},
	{
		id:          "painting",
		title:       "Painting & Finishing",
		description: "Interior and exterior painting work",
		specifications: []string{
			"Wall preparation and primer application",
			"Interior painting with premium emulsion",
			"Exterior painting with weather-resistant paint",
			"Ceiling painting and finishing",
			"Wood work painting and polishing",
			"Final touch-ups and quality checks",
		},
		ownerComment: "Use premium quality paints with proper surface preparation.",
	},
	{
		id:          "others",
		title:       "Other Specifications",
		description: "Additional requirements and miscellaneous work",
		specifications: []string{
			"Door and window installation",
			"Roofing and waterproofing",
			"Staircase construction",
			"Boundary wall construction",
			"Landscaping and external work",
			"Final cleaning and handover",
		},
		ownerComment: "Complete finishing work including cleaning and final handover documentation.",
	},
}

// ComplianceNotice is printed on every generated RFP.
const ComplianceNotice = "All government approvals, permits, and legal compliances will be the responsibility of the customer. " +
	"Contractors will provide assistance and guidance but final approvals must be obtained by the project owner."

// IDs returns the category ids in catalog order.
func IDs() []string {
	ids := make([]string, len(table))
	for i, e := range table {
		ids[i] = e.id
	}
	return ids
}

func indexOf(id string) int {
	for i, e := range table {
		if e.id == id {
			return i
		}
	}
	return -1
}

// Known reports whether id names a catalog category.
func Known(id string) bool { return indexOf(id) >= 0 }

// Overlay carries the per-proposal comments on top of the shared table.
// The zero value is ready to use and falls back to the default owner comments.
type Overlay struct {
	owner      map[string]string
	contractor map[string]string
}

func NewOverlay() *Overlay {
	return &Overlay{}
}

func (o *Overlay) SetOwnerComment(categoryID, comment string) error {
	if !Known(categoryID) {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, categoryID)
	}
	if o.owner == nil {
		o.owner = make(map[string]string)
	}
	o.owner[categoryID] = comment
	return nil
}

func (o *Overlay) SetContractorComment(categoryID, comment string) error {
	if !Known(categoryID) {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, categoryID)
	}
	if o.contractor == nil {
		o.contractor = make(map[string]string)
	}
	o.contractor[categoryID] = comment
	return nil
}

// Specs materializes the six categories with this overlay applied.
// The returned slices are copies; mutating them does not touch the table.
func (o *Overlay) Specs() []models.CategorySpec {
	specs := make([]models.CategorySpec, len(table))
	for i, e := range table {
		owner := e.ownerComment
		if c, ok := o.owner[e.id]; ok {
			owner = c
		}
		specs[i] = models.CategorySpec{
			ID:                e.id,
			Title:             e.title,
			Description:       e.description,
			Specifications:    append([]string(nil), e.specifications...),
			OwnerComment:      owner,
			ContractorComment: o.contractor[e.id],
		}
	}
	return specs
}
