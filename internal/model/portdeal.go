package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortDeal is a time-bounded spot offer for goods awaiting shipment at a
// port. Unlike offers the expiry is materialized: the scheduler flips
// is_expired once end_at passes, and reads correct it on the fly.
type PortDeal struct {
	ID           uint64          // port_deals.id
	CompanyID    uint64          // port_deals.company_id
	Slug         string          // port_deals.slug (unique)
	AddressID    uint64          // port_deals.address_id
	Lat          float64         // port_deals.lat
	Lng          float64         // port_deals.lng
	ProductName  string          // port_deals.product_name
	HSCode       string          // port_deals.hs_code
	Quantity     uint32          // port_deals.quantity
	Unit         string          // port_deals.unit (measurement enum)
	Price        decimal.Decimal // port_deals.price
	Currency     string          // port_deals.currency
	StartAt      time.Time       // port_deals.start_at
	EndAt        time.Time       // port_deals.end_at
	IsActive     bool            // port_deals.is_active
	IsExpired    bool            // port_deals.is_expired (maintained by scheduler)
	Certificates []string        // port_deals.certificates (JSON array column)
	CreatedAt    time.Time       // port_deals.created_at
	UpdatedAt    time.Time       // port_deals.updated_at
}
