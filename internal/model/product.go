package model

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Measurement units accepted in products.unit.
const (
	UnitKilogram = "KILOGRAM"
	UnitTon      = "TON"
	UnitLiter    = "LITER"
	UnitMeter    = "METER"
	UnitPiece    = "PIECE"
	UnitBox      = "BOX"
	UnitPallet   = "PALLET"
)

// ValidUnit reports whether u is one of the measurement unit constants.
func ValidUnit(u string) bool {
	switch u {
	case UnitKilogram, UnitTon, UnitLiter, UnitMeter, UnitPiece, UnitBox, UnitPallet:
		return true
	}
	return false
}

// Product mirrors the 'products' table. A product is only reachable by
// non-owners when its company is visible and the product itself is
// active+published with its publication date in the past.
type Product struct {
	ID              uint64          // products.id
	CompanyID       uint64          // products.company_id
	Slug            string          // products.slug (unique)
	Name            string          // products.name
	HSCode          string          // products.hs_code
	CategoryID      sql.NullInt64   // products.category_id
	UnitNumber      uint32          // products.unit_number
	Unit            string          // products.unit (measurement enum)
	UnitPrice       decimal.Decimal // products.unit_price
	Currency        string          // products.currency (ISO 4217)
	MOQ             uint32          // products.moq (minimum order quantity)
	Brand           string          // products.brand
	Rating          uint8           // products.rating (0-5, platform maintained)
	DeliveryTime    string          // products.delivery_time_option
	IsActive        bool            // products.is_active
	IsPublished     bool            // products.is_published
	PublicationDate sql.NullTime    // products.publication_date
	Tags            []string        // products.tags (JSON array column)
	CreatedAt       time.Time       // products.created_at
	UpdatedAt       time.Time       // products.updated_at

	Rosettes         []uint64 // product_rosettes join rows
	CertificateTypes []uint64 // product_certificate_types join rows
}

// Category is a node in the category tree. Product counts are
// descendants-inclusive and computed at query time.
type Category struct {
	ID       uint64        // categories.id
	ParentID sql.NullInt64 // categories.parent_id
	Slug     string        // categories.slug
	Name     string        // categories.name
}
