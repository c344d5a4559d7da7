package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/oguzhanyavuz/tradeport/internal/catalog"
	"github.com/oguzhanyavuz/tradeport/internal/model"
	"github.com/oguzhanyavuz/tradeport/internal/utils"
	"github.com/oguzhanyavuz/tradeport/internal/visibility"
)

type CompanyRepo struct{ DB *sql.DB }

func NewCompanyRepo(db *sql.DB) *CompanyRepo { return &CompanyRepo{DB: db} }

const companyCols = "co.id,co.owner_user_id,co.slug,co.name,co.website,co.content,co.address_id," +
	"co.is_active,co.is_published,co.publication_date,co.verified,co.created_at,co.updated_at"

func scanCompany(s interface {
	Scan(dest ...any) error
}) (model.Company, error) {
	var co model.Company
	err := s.Scan(&co.ID, &co.OwnerUserID, &co.Slug, &co.Name, &co.Website, &co.Content,
		&co.AddressID, &co.IsActive, &co.IsPublished, &co.PublicationDate, &co.Verified,
		&co.CreatedAt, &co.UpdatedAt)
	if err == sql.ErrNoRows {
		return co, ErrNotFound
	}
	return co, err
}

// Create inserts a company for its owner. New companies start active and
// unpublished. The unique indexes on owner_user_id, slug and name enforce
// one company per seller and global slug/name uniqueness; on a slug
// collision callers retry with a fresh suffix.
func (r *CompanyRepo) Create(ctx context.Context, ownerID uint64, slug, name, website, content string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO companies (owner_user_id, slug, name, website, content, is_active, is_published)
		 VALUES (?,?,?,?,?,1,0)`,
		ownerID, slug, name, website, content)
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

// GetByID fetches a company by id.
func (r *CompanyRepo) GetByID(ctx context.Context, id uint64) (model.Company, error) {
	return scanCompany(r.DB.QueryRowContext(ctx,
		"SELECT "+companyCols+" FROM companies co WHERE co.id=? LIMIT 1", id))
}

// GetBySlug fetches a company by slug.
func (r *CompanyRepo) GetBySlug(ctx context.Context, slug string) (model.Company, error) {
	return scanCompany(r.DB.QueryRowContext(ctx,
		"SELECT "+companyCols+" FROM companies co WHERE co.slug=? LIMIT 1", slug))
}

// GetByOwner fetches the company owned by a seller user.
func (r *CompanyRepo) GetByOwner(ctx context.Context, ownerID uint64) (model.Company, error) {
	return scanCompany(r.DB.QueryRowContext(ctx,
		"SELECT "+companyCols+" FROM companies co WHERE co.owner_user_id=? LIMIT 1", ownerID))
}

// Update rewrites the mutable profile fields.
func (r *CompanyRepo) Update(ctx context.Context, id uint64, name, website, content string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE companies SET name=?, website=?, content=? WHERE id=?",
		name, website, content, id)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Publish sets is_published and stamps publication_date only when absent,
// so republishing keeps the original date.
func (r *CompanyRepo) Publish(ctx context.Context, id uint64, now time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE companies SET is_published=1,
		 publication_date=COALESCE(publication_date, ?) WHERE id=?`, now, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Unpublish clears is_published, leaving publication_date untouched.
func (r *CompanyRepo) Unpublish(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE companies SET is_published=0 WHERE id=?", id)
	return err
}

// Activate re-enables a company without touching its slug.
func (r *CompanyRepo) Activate(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE companies SET is_active=1 WHERE id=?", id)
	return err
}

// Deactivate disables the company, forces it unpublished, and renames the
// slug with a "-deactivated-<random>" suffix so the original slug frees up.
func (r *CompanyRepo) Deactivate(ctx context.Context, id uint64) error {
	co, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	slug := co.Slug
	if !strings.Contains(slug, "-deactivated-") {
		slug, err = utils.DeactivatedSlug(slug)
		if err != nil {
			return err
		}
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE companies SET is_active=0, is_published=0, slug=? WHERE id=?", slug, id)
	return err
}

// Delete hard-deletes a company. Products, offers and port deals cascade
// via foreign keys.
func (r *CompanyRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM companies WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Exists reports whether a company row exists, used by the tracking store
// to validate target ids.
func (r *CompanyRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM companies WHERE id=? LIMIT 1", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// Search lists companies visible to the caller under the given filter, in
// keyset order. It returns one page and the cursor for the next one.
func (r *CompanyRepo) Search(ctx context.Context, caller visibility.Caller, f catalog.CompanyFilter,
	sort catalog.Sort, page catalog.Page, now time.Time) ([]model.Company, string, error) {

	where := []string{}
	args := []any{}

	visCond, visArgs := visibility.CompanyWhere(caller, "co", now)
	where = append(where, visCond)
	args = append(args, visArgs...)

	if f.Active != nil {
		where = append(where, "co.is_active=?")
		args = append(args, *f.Active)
	}
	if f.Published != nil {
		where = append(where, "co.is_published=?")
		args = append(args, *f.Published)
	}
	if f.Verified != nil {
		where = append(where, "co.verified=?")
		args = append(args, *f.Verified)
	}
	if f.CreatedFrom != nil {
		where = append(where, "co.created_at>=?")
		args = append(args, *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		where = append(where, "co.created_at<=?")
		args = append(args, *f.CreatedTo)
	}
	if t := strings.TrimSpace(f.Text); t != "" {
		like := "%" + strings.ToLower(t) + "%"
		where = append(where,
			"(LOWER(co.slug) LIKE ? OR LOWER(co.name) LIKE ? OR LOWER(co.website) LIKE ? OR LOWER(co.content) LIKE ?)")
		args = append(args, like, like, like, like)
	}

	col := catalog.CompanySortColumn(sort.Field)
	cur, err := catalog.DecodeCursor(page.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cond, curArgs := catalog.KeysetWhere(col, sort.Desc, cur); cond != "" {
		cond = strings.ReplaceAll(cond, " id ", " co.id ")
		where = append(where, cond)
		args = append(args, curArgs...)
	}

	dir := "ASC"
	if sort.Desc {
		dir = "DESC"
	}
	limit := page.Limit()

	q := "SELECT " + companyCols + ", CAST(" + col + " AS CHAR) FROM companies co WHERE " +
		strings.Join(where, " AND ") +
		" ORDER BY " + col + " " + dir + ", co.id " + dir +
		" LIMIT ?"
	args = append(args, limit+1)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var out []model.Company
	var lastSort string
	for rows.Next() {
		var co model.Company
		if err := rows.Scan(&co.ID, &co.OwnerUserID, &co.Slug, &co.Name, &co.Website, &co.Content,
			&co.AddressID, &co.IsActive, &co.IsPublished, &co.PublicationDate, &co.Verified,
			&co.CreatedAt, &co.UpdatedAt, &lastSort); err != nil {
			return nil, "", err
		}
		out = append(out, co)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	next := ""
	if len(out) > limit {
		out = out[:limit]
		// lastSort holds the sort value of the extra row; re-derive the
		// cursor from the last row actually returned.
		last := out[len(out)-1]
		next = catalog.EncodeCursor(companySortValue(col, last), last.ID)
	}
	return out, next, nil
}

// companySortValue renders the sort column of a loaded row the way MySQL's
// CAST(... AS CHAR) would, keeping cursors comparable.
func companySortValue(col string, co model.Company) string {
	switch col {
	case "co.slug":
		return co.Slug
	case "co.name":
		return co.Name
	default:
		return co.CreatedAt.UTC().Format("2006-01-02 15:04:05")
	}
}
