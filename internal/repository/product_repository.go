package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oguzhanyavuz/tradeport/internal/model"
)

type ProductRepo struct{ DB *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{DB: db} }

const productCols = "p.id,p.company_id,p.slug,p.name,p.hs_code,p.category_id,p.unit_number," +
	"p.unit,p.unit_price,p.currency,p.moq,p.brand,p.rating,p.delivery_time_option," +
	"p.is_active,p.is_published,p.publication_date,p.tags,p.created_at,p.updated_at"

func scanProduct(s interface{ Scan(dest ...any) error }) (model.Product, error) {
	var (
		p     model.Product
		price string
		tags  sql.NullString
	)
	err := s.Scan(&p.ID, &p.CompanyID, &p.Slug, &p.Name, &p.HSCode, &p.CategoryID, &p.UnitNumber,
		&p.Unit, &price, &p.Currency, &p.MOQ, &p.Brand, &p.Rating, &p.DeliveryTime,
		&p.IsActive, &p.IsPublished, &p.PublicationDate, &tags, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	if p.UnitPrice, err = decimal.NewFromString(price); err != nil {
		return p, err
	}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &p.Tags); err != nil {
			p.Tags = nil // tolerate legacy garbage in the column
		}
	}
	return p, nil
}

// Create inserts a product under a company. Slug collisions surface as
// ErrDuplicate for the caller's retry loop.
func (r *ProductRepo) Create(ctx context.Context, p model.Product) (uint64, error) {
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO products (company_id, slug, name, hs_code, category_id, unit_number, unit,
		   unit_price, currency, moq, brand, delivery_time_option, is_active, is_published, tags)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,1,0,?)`,
		p.CompanyID, p.Slug, p.Name, p.HSCode, p.CategoryID, p.UnitNumber, p.Unit,
		p.UnitPrice.String(), p.Currency, p.MOQ, p.Brand, p.DeliveryTime, string(tags))
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
	pid := uint64(id)
	if err := r.replaceSets(ctx, pid, p.Rosettes, p.CertificateTypes); err != nil {
		return 0, err
	}
	return pid, nil
}

// Update rewrites the mutable fields and replaces the rosette/certificate
// sets.
func (r *ProductRepo) Update(ctx context.Context, p model.Product) error {
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE products SET name=?, hs_code=?, category_id=?, unit_number=?, unit=?,
		   unit_price=?, currency=?, moq=?, brand=?, delivery_time_option=?, tags=? WHERE id=?`,
		p.Name, p.HSCode, p.CategoryID, p.UnitNumber, p.Unit,
		p.UnitPrice.String(), p.Currency, p.MOQ, p.Brand, p.DeliveryTime, string(tags), p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return r.replaceSets(ctx, p.ID, p.Rosettes, p.CertificateTypes)
}

func (r *ProductRepo) replaceSets(ctx context.Context, productID uint64, rosettes, certTypes []uint64) error {
	if _, err := r.DB.ExecContext(ctx, "DELETE FROM product_rosettes WHERE product_id=?", productID); err != nil {
		return err
	}
	if _, err := r.DB.ExecContext(ctx, "DELETE FROM product_certificate_types WHERE product_id=?", productID); err != nil {
		return err
	}
	if err := insertPairs(ctx, r.DB, "product_rosettes", "product_id", "rosette_id", productID, rosettes); err != nil {
		return err
	}
	return insertPairs(ctx, r.DB, "product_certificate_types", "product_id", "certificate_type_id", productID, certTypes)
}

// insertPairs does a multi-row insert of (left, right) join rows.
func insertPairs(ctx context.Context, db *sql.DB, table, leftCol, rightCol string, left uint64, rights []uint64) error {
	if len(rights) == 0 {
		return nil
	}
	q := "INSERT INTO " + table + " (" + leftCol + "," + rightCol + ") VALUES "
	args := make([]any, 0, len(rights)*2)
	for i, rid := range rights {
		if i > 0 {
			q += ","
		}
		q += "(?,?)"
		args = append(args, left, rid)
	}
	_, err := db.ExecContext(ctx, q, args...)
	return err
}

// GetByID fetches a product with its sets.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (model.Product, error) {
	p, err := scanProduct(r.DB.QueryRowContext(ctx,
		"SELECT "+productCols+" FROM products p WHERE p.id=? LIMIT 1", id))
	if err != nil {
		return p, err
	}
	return r.loadSets(ctx, p)
}

// GetBySlug fetches a product by slug with its sets.
func (r *ProductRepo) GetBySlug(ctx context.Context, slug string) (model.Product, error) {
	p, err := scanProduct(r.DB.QueryRowContext(ctx,
		"SELECT "+productCols+" FROM products p WHERE p.slug=? LIMIT 1", slug))
	if err != nil {
		return p, err
	}
	return r.loadSets(ctx, p)
}

func (r *ProductRepo) loadSets(ctx context.Context, p model.Product) (model.Product, error) {
	var err error
	if p.Rosettes, err = scanIDs(ctx, r.DB,
		"SELECT rosette_id FROM product_rosettes WHERE product_id=?", p.ID); err != nil {
		return p, err
	}
	if p.CertificateTypes, err = scanIDs(ctx, r.DB,
		"SELECT certificate_type_id FROM product_certificate_types WHERE product_id=?", p.ID); err != nil {
		return p, err
	}
	return p, nil
}

func scanIDs(ctx context.Context, db *sql.DB, q string, args ...any) ([]uint64, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// SetPublished flips is_published, stamping publication_date on first
// publish.
func (r *ProductRepo) SetPublished(ctx context.Context, id uint64, published bool, now time.Time) error {
	var err error
	if published {
		_, err = r.DB.ExecContext(ctx,
			"UPDATE products SET is_published=1, publication_date=COALESCE(publication_date, ?) WHERE id=?",
			now, id)
	} else {
		_, err = r.DB.ExecContext(ctx, "UPDATE products SET is_published=0 WHERE id=?", id)
	}
	return err
}

// SetActive flips is_active.
func (r *ProductRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE products SET is_active=? WHERE id=?", active, id)
	return err
}

// Delete hard-deletes a product; join rows cascade.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM products WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Exists reports whether a product row exists, used by the tracking store
// to validate target ids.
func (r *ProductRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM products WHERE id=? LIMIT 1", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}
