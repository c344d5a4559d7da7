package catalog

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// ProductFilter collects every supported product listing filter. Set
// membership filters (Rosettes, CertificateTypes) are all-of; Categories and
// Companies are any-of. Categories are expanded to include descendants
// before the query runs.
type ProductFilter struct {
	Active           *bool
	Published        *bool
	CreatedFrom      *time.Time
	CreatedTo        *time.Time
	PriceMin         *decimal.Decimal
	PriceMax         *decimal.Decimal
	RatingMin        *uint8
	DeliveryTime     string
	Rosettes         []uint64
	CertificateTypes []uint64
	Categories       []uint64
	Companies        []uint64
	Text             string
}

// CompanyFilter collects company listing filters. Text searches slug, name,
// website and content.
type CompanyFilter struct {
	Active      *bool
	Published   *bool
	Verified    *bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Text        string
}

// TrackingFilter collects tracking listing filters. Text searches the
// enrichment columns and params.
type TrackingFilter struct {
	From      *time.Time
	To        *time.Time
	Types     []string
	Companies []uint64
	Users     []uint64
	Text      string
}

// Product sort whitelist: API field name -> column expression.
var productSortColumns = map[string]string{
	"slug":       "p.slug",
	"name":       "p.name",
	"hs_code":    "p.hs_code",
	"category":   "p.category_id",
	"unit_price": "p.unit_price",
	"brand":      "p.brand",
	"moq":        "p.moq",
	"created":    "p.created_at",
	"published":  "p.publication_date",
}

// ProductSortColumn resolves an API sort field, defaulting to created.
func ProductSortColumn(field string) string {
	if col, ok := productSortColumns[strings.ToLower(field)]; ok {
		return col
	}
	return "p.created_at"
}

var companySortColumns = map[string]string{
	"slug":    "co.slug",
	"name":    "co.name",
	"created": "co.created_at",
}

// CompanySortColumn resolves an API sort field, defaulting to created.
func CompanySortColumn(field string) string {
	if col, ok := companySortColumns[strings.ToLower(field)]; ok {
		return col
	}
	return "co.created_at"
}

// NumericText reports whether a search term looks like an HS code rather
// than a name: digits only, dots allowed.
func NumericText(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	hasDigit := false
	for _, r := range s {
		if unicode.IsDigit(r) {
			hasDigit = true
			continue
		}
		if r != '.' {
			return false
		}
	}
	return hasDigit
}
