package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oguzhanyavuz/tradeport/internal/model"
	"github.com/oguzhanyavuz/tradeport/internal/visibility"
)

type OfferRepo struct{ DB *sql.DB }

func NewOfferRepo(db *sql.DB) *OfferRepo { return &OfferRepo{DB: db} }

const offerCols = "o.id,o.company_id,o.slug,o.title,o.discount_value,o.unit,o.start_at,o.end_at," +
	"o.is_active,o.all_products,o.all_categories,o.created_at,o.updated_at"

func scanOffer(s interface{ Scan(dest ...any) error }) (model.Offer, error) {
	var (
		o        model.Offer
		discount string
	)
	err := s.Scan(&o.ID, &o.CompanyID, &o.Slug, &o.Title, &discount, &o.Unit, &o.StartAt, &o.EndAt,
		&o.IsActive, &o.AllProducts, &o.AllCategories, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return o, ErrNotFound
	}
	if err != nil {
		return o, err
	}
	o.DiscountValue, err = decimal.NewFromString(discount)
	return o, err
}

// Create inserts an offer and its product/category scope rows.
func (r *OfferRepo) Create(ctx context.Context, o model.Offer) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO offers (company_id, slug, title, discount_value, unit, start_at, end_at,
		   is_active, all_products, all_categories)
		 VALUES (?,?,?,?,?,?,?,1,?,?)`,
		o.CompanyID, o.Slug, o.Title, o.DiscountValue.String(), o.Unit,
		o.StartAt, o.EndAt, o.AllProducts, o.AllCategories)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	oid := uint64(id)
	if err := insertPairs(ctx, r.DB, "offer_products", "offer_id", "product_id", oid, o.Products); err != nil {
		return 0, err
	}
	if err := insertPairs(ctx, r.DB, "offer_categories", "offer_id", "category_id", oid, o.Categories); err != nil {
		return 0, err
	}
	return oid, nil
}

// GetByID fetches an offer with its scope sets.
func (r *OfferRepo) GetByID(ctx context.Context, id uint64) (model.Offer, error) {
	o, err := scanOffer(r.DB.QueryRowContext(ctx,
		"SELECT "+offerCols+" FROM offers o WHERE o.id=? LIMIT 1", id))
	if err != nil {
		return o, err
	}
	if o.Products, err = scanIDs(ctx, r.DB,
		"SELECT product_id FROM offer_products WHERE offer_id=?", o.ID); err != nil {
		return o, err
	}
	if o.Categories, err = scanIDs(ctx, r.DB,
		"SELECT category_id FROM offer_categories WHERE offer_id=?", o.ID); err != nil {
		return o, err
	}
	return o, nil
}

// ListByCompany lists offers of one company visible to the caller. Expired
// offers are filtered by the visibility fragment, not a stored flag.
func (r *OfferRepo) ListByCompany(ctx context.Context, caller visibility.Caller, companyID uint64, now time.Time) ([]model.Offer, error) {
	visCond, visArgs := visibility.OfferWhere(caller, "o", "co", now)
	q := "SELECT " + offerCols +
		" FROM offers o JOIN companies co ON co.id = o.company_id" +
		" WHERE o.company_id=? AND " + visCond +
		" ORDER BY o.end_at ASC, o.id ASC"
	args := append([]any{companyID}, visArgs...)
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// SetActive flips is_active. Expiry is independent of this flag.
func (r *OfferRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE offers SET is_active=? WHERE id=?", active, id)
	return err
}

// Delete hard-deletes an offer; scope rows cascade.
func (r *OfferRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM offers WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
