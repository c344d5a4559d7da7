package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oguzhanyavuz/tradeport/internal/model"
	"github.com/oguzhanyavuz/tradeport/internal/visibility"
)

type PortDealRepo struct{ DB *sql.DB }

func NewPortDealRepo(db *sql.DB) *PortDealRepo { return &PortDealRepo{DB: db} }

const portDealCols = "d.id,d.company_id,d.slug,d.address_id,d.lat,d.lng,d.product_name,d.hs_code," +
	"d.quantity,d.unit,d.price,d.currency,d.start_at,d.end_at,d.is_active,d.is_expired," +
	"d.certificates,d.created_at,d.updated_at"

func scanPortDeal(s interface{ Scan(dest ...any) error }) (model.PortDeal, error) {
	var (
		d     model.PortDeal
		price string
		certs sql.NullString
	)
	err := s.Scan(&d.ID, &d.CompanyID, &d.Slug, &d.AddressID, &d.Lat, &d.Lng, &d.ProductName,
		&d.HSCode, &d.Quantity, &d.Unit, &price, &d.Currency, &d.StartAt, &d.EndAt,
		&d.IsActive, &d.IsExpired, &certs, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return d, ErrNotFound
	}
	if err != nil {
		return d, err
	}
	if d.Price, err = decimal.NewFromString(price); err != nil {
		return d, err
	}
	if certs.Valid && certs.String != "" {
		if err := json.Unmarshal([]byte(certs.String), &d.Certificates); err != nil {
			d.Certificates = nil
		}
	}
	return d, nil
}

// Create inserts a port deal. New deals start active and unexpired.
func (r *PortDealRepo) Create(ctx context.Context, d model.PortDeal) (uint64, error) {
	certs, err := json.Marshal(d.Certificates)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO port_deals (company_id, slug, address_id, lat, lng, product_name, hs_code,
		   quantity, unit, price, currency, start_at, end_at, is_active, is_expired, certificates)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,1,0,?)`,
		d.CompanyID, d.Slug, d.AddressID, d.Lat, d.Lng, d.ProductName, d.HSCode,
		d.Quantity, d.Unit, d.Price.String(), d.Currency, d.StartAt, d.EndAt, string(certs))
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
	return uint64(id), nil
}

// GetByID fetches a port deal by id.
func (r *PortDealRepo) GetByID(ctx context.Context, id uint64) (model.PortDeal, error) {
	return scanPortDeal(r.DB.QueryRowContext(ctx,
		"SELECT "+portDealCols+" FROM port_deals d WHERE d.id=? LIMIT 1", id))
}

// GetBySlug fetches a port deal by slug.
func (r *PortDealRepo) GetBySlug(ctx context.Context, slug string) (model.PortDeal, error) {
	return scanPortDeal(r.DB.QueryRowContext(ctx,
		"SELECT "+portDealCols+" FROM port_deals d WHERE d.slug=? LIMIT 1", slug))
}

// List lists visible port deals, optionally scoped to one company.
func (r *PortDealRepo) List(ctx context.Context, caller visibility.Caller, companyID uint64, now time.Time) ([]model.PortDeal, error) {
	visCond, visArgs := visibility.PortDealWhere(caller, "d", "co", now)
	q := "SELECT " + portDealCols +
		" FROM port_deals d JOIN companies co ON co.id = d.company_id WHERE " + visCond
	args := visArgs
	if companyID != 0 {
		q += " AND d.company_id=?"
		args = append(args, companyID)
	}
	q += " ORDER BY d.end_at ASC, d.id ASC"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.PortDeal
	for rows.Next() {
		d, err := scanPortDeal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ExpireDue flips is_expired on every deal whose window has closed. The
// update is idempotent, so running several scheduler instances is safe. It
// returns the number of rows flipped.
func (r *PortDealRepo) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE port_deals SET is_expired=1 WHERE end_at < ? AND is_expired=0", now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Reopen clears is_expired with a new future end date. Admin-only; the
// capability check happens in the handler.
func (r *PortDealRepo) Reopen(ctx context.Context, id uint64, endAt time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE port_deals SET is_expired=0, end_at=? WHERE id=?", endAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive flips is_active.
func (r *PortDealRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE port_deals SET is_active=? WHERE id=?", active, id)
	return err
}

// Delete hard-deletes a port deal.
func (r *PortDealRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM port_deals WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
