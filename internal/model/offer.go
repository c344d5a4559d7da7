package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Discount units for offers.
const (
	OfferUnitPercent = "PERCENT"
	OfferUnitDirect  = "DIRECT"
)

// Offer is a time-bounded discount owned by a company. start_at <= end_at is
// enforced on write. There is no stored expiry flag: listing paths filter by
// end_at >= now, so an offer past its window disappears even while is_active.
type Offer struct {
	ID            uint64          // offers.id
	CompanyID     uint64          // offers.company_id
	Slug          string          // offers.slug (unique)
	Title         string          // offers.title
	DiscountValue decimal.Decimal // offers.discount_value
	Unit          string          // offers.unit (PERCENT | DIRECT)
	StartAt       time.Time       // offers.start_at
	EndAt         time.Time       // offers.end_at
	IsActive      bool            // offers.is_active
	AllProducts   bool            // offers.all_products
	AllCategories bool            // offers.all_categories
	CreatedAt     time.Time       // offers.created_at
	UpdatedAt     time.Time       // offers.updated_at

	Products   []uint64 // offer_products join rows
	Categories []uint64 // offer_categories join rows
}

// Expired reports whether the offer window has closed at the given instant.
func (o Offer) Expired(now time.Time) bool { return o.EndAt.Before(now) }
