package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/oguzhanyavuz/tradeport/internal/catalog"
	"github.com/oguzhanyavuz/tradeport/internal/model"
	"github.com/oguzhanyavuz/tradeport/internal/visibility"
)

// Search lists products visible to the caller under the given filters and
// keyset sort, returning one page and the cursor for the next. Category ids
// must already be descendants-expanded by the caller.
func (r *ProductRepo) Search(ctx context.Context, caller visibility.Caller, f catalog.ProductFilter,
	sort catalog.Sort, page catalog.Page, now time.Time) ([]model.Product, string, error) {

	where := []string{}
	args := []any{}

	visCond, visArgs := visibility.ProductWhere(caller, "p", "co", now)
	where = append(where, visCond)
	args = append(args, visArgs...)

	if f.Active != nil {
		where = append(where, "p.is_active=?")
		args = append(args, *f.Active)
	}
	if f.Published != nil {
		where = append(where, "p.is_published=?")
		args = append(args, *f.Published)
	}
	if f.CreatedFrom != nil {
		where = append(where, "p.created_at>=?")
		args = append(args, *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		where = append(where, "p.created_at<=?")
		args = append(args, *f.CreatedTo)
	}
	if f.PriceMin != nil {
		where = append(where, "p.unit_price>=?")
		args = append(args, f.PriceMin.String())
	}
	if f.PriceMax != nil {
		where = append(where, "p.unit_price<=?")
		args = append(args, f.PriceMax.String())
	}
	if f.RatingMin != nil {
		where = append(where, "p.rating>=?")
		args = append(args, *f.RatingMin)
	}
	if f.DeliveryTime != "" {
		where = append(where, "p.delivery_time_option=?")
		args = append(args, f.DeliveryTime)
	}
	if len(f.Categories) > 0 {
		where = append(where, "p.category_id IN ("+placeholders(len(f.Categories))+")")
		args = append(args, ids(f.Categories)...)
	}
	if len(f.Companies) > 0 {
		where = append(where, "p.company_id IN ("+placeholders(len(f.Companies))+")")
		args = append(args, ids(f.Companies)...)
	}
	// All-of set filters: the product must carry every requested tag, hence
	// the COUNT(DISTINCT ...) = n subqueries.
	if len(f.Rosettes) > 0 {
		where = append(where,
			"(SELECT COUNT(DISTINCT pr.rosette_id) FROM product_rosettes pr"+
				" WHERE pr.product_id=p.id AND pr.rosette_id IN ("+placeholders(len(f.Rosettes))+")) = ?")
		args = append(args, ids(f.Rosettes)...)
		args = append(args, len(f.Rosettes))
	}
	if len(f.CertificateTypes) > 0 {
		where = append(where,
			"(SELECT COUNT(DISTINCT pc.certificate_type_id) FROM product_certificate_types pc"+
				" WHERE pc.product_id=p.id AND pc.certificate_type_id IN ("+placeholders(len(f.CertificateTypes))+")) = ?")
		args = append(args, ids(f.CertificateTypes)...)
		args = append(args, len(f.CertificateTypes))
	}

	if t := strings.TrimSpace(f.Text); t != "" {
		var textCond string
		var textArgs []any
		if catalog.NumericText(t) {
			textCond = "p2.hs_code LIKE ?"
			textArgs = []any{"%" + t + "%"}
		} else {
			like := "%" + strings.ToLower(t) + "%"
			textCond = "(LOWER(p2.name) LIKE ? OR LOWER(p2.slug) LIKE ?)"
			textArgs = []any{like, like}
		}
		// Collapse duplicate text hits within a company to the most recent
		// record (max id).
		where = append(where,
			"p.id IN (SELECT MAX(p2.id) FROM products p2 WHERE "+textCond+" GROUP BY p2.company_id)")
		args = append(args, textArgs...)
	}

	col := catalog.ProductSortColumn(sort.Field)
	cur, err := catalog.DecodeCursor(page.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cond, curArgs := catalog.KeysetWhere(col, sort.Desc, cur); cond != "" {
		cond = strings.ReplaceAll(cond, " id ", " p.id ")
		where = append(where, cond)
		args = append(args, curArgs...)
	}

	dir := "ASC"
	if sort.Desc {
		dir = "DESC"
	}
	limit := page.Limit()

	q := "SELECT " + productCols + ", CAST(" + col + " AS CHAR)" +
		" FROM products p JOIN companies co ON co.id = p.company_id" +
		" WHERE " + strings.Join(where, " AND ") +
		" ORDER BY " + col + " " + dir + ", p.id " + dir +
		" LIMIT ?"
	args = append(args, limit+1)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	type rowVal struct {
		p    model.Product
		sort sql.NullString
	}
	var out []rowVal
	for rows.Next() {
		var rv rowVal
		rv.p, err = scanProductWithSort(rows, &rv.sort)
		if err != nil {
			return nil, "", err
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	next := ""
	if len(out) > limit {
		out = out[:limit]
		last := out[len(out)-1]
		next = catalog.EncodeCursor(last.sort.String, last.p.ID)
	}
	products := make([]model.Product, 0, len(out))
	for _, rv := range out {
		products = append(products, rv.p)
	}
	return products, next, nil
}

// scanProductWithSort scans a product row followed by the CAST sort value.
func scanProductWithSort(s interface{ Scan(dest ...any) error }, sortVal *sql.NullString) (model.Product, error) {
	return scanProduct(appendScanner{inner: s, extra: sortVal})
}

// appendScanner forwards Scan with one trailing destination appended. It
// lets scanProduct stay the single row-decoding path.
type appendScanner struct {
	inner interface{ Scan(dest ...any) error }
	extra any
}

func (a appendScanner) Scan(dest ...any) error {
	return a.inner.Scan(append(dest, a.extra)...)
}

func placeholders(n int) string {
	return strings.TrimRight(strings.Repeat("?,", n), ",")
}

func ids(v []uint64) []any {
	out := make([]any, len(v))
	for i, id := range v {
		out[i] = id
	}
	return out
}
