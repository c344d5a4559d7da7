package repository

import (
	"context"
	"database/sql"

	"github.com/oguzhanyavuz/tradeport/internal/model"
)

type CategoryRepo struct{ DB *sql.DB }

func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{DB: db} }

// ListAll loads the full category tree. The table is small enough that
// descendant expansion happens in memory.
func (r *CategoryRepo) ListAll(ctx context.Context) ([]model.Category, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id,parent_id,slug,name FROM categories ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.ParentID, &c.Slug, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ExpandDescendants returns the input ids plus every descendant category id,
// so category filters are descendants-inclusive.
func (r *CategoryRepo) ExpandDescendants(ctx context.Context, roots []uint64) ([]uint64, error) {
	if len(roots) == 0 {
		return nil, nil
	}
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	children := make(map[uint64][]uint64, len(all))
	for _, c := range all {
		if c.ParentID.Valid {
			p := uint64(c.ParentID.Int64)
			children[p] = append(children[p], c.ID)
		}
	}
	seen := make(map[uint64]bool, len(roots))
	queue := append([]uint64(nil), roots...)
	var out []uint64
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
		queue = append(queue, children[id]...)
	}
	return out, nil
}

// ProductCount returns the descendants-inclusive count of published, active
// products under a category.
func (r *CategoryRepo) ProductCount(ctx context.Context, categoryID uint64) (int64, error) {
	cats, err := r.ExpandDescendants(ctx, []uint64{categoryID})
	if err != nil {
		return 0, err
	}
	q := "SELECT COUNT(*) FROM products WHERE is_active=1 AND is_published=1 AND category_id IN (" +
		placeholders(len(cats)) + ")"
	var n int64
	if err := r.DB.QueryRowContext(ctx, q, ids(cats)...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Exists reports whether a category row exists, used by the tracking store
// to validate target ids.
func (r *CategoryRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM categories WHERE id=? LIMIT 1", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}
