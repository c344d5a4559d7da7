package repository

import (
	"context"
	"database/sql"

	"github.com/oguzhanyavuz/tradeport/internal/model"
)

// QueryRepo persists query threads and their per-product items. The
// (seller_company_id, buyer_user_id) pair is unique, which is what makes
// Open idempotent under concurrency.
type QueryRepo struct{ DB *sql.DB }

func NewQueryRepo(db *sql.DB) *QueryRepo { return &QueryRepo{DB: db} }

const threadCols = "t.id,t.seller_company_id,t.buyer_user_id,t.room_token,t.created_at"

func scanThread(s interface{ Scan(dest ...any) error }) (model.QueryThread, error) {
	var t model.QueryThread
	err := s.Scan(&t.ID, &t.SellerCompanyID, &t.BuyerUserID, &t.RoomToken, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	return t, err
}

// CreateThread inserts a thread row. ErrDuplicate means the pair already
// exists and the caller should re-fetch.
func (r *QueryRepo) CreateThread(ctx context.Context, sellerCompanyID, buyerUserID uint64, roomToken string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO query_threads (seller_company_id, buyer_user_id, room_token) VALUES (?,?,?)",
		sellerCompanyID, buyerUserID, roomToken)
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

// GetThreadByPair fetches the thread for a buyer/seller-company pair.
func (r *QueryRepo) GetThreadByPair(ctx context.Context, sellerCompanyID, buyerUserID uint64) (model.QueryThread, error) {
	return scanThread(r.DB.QueryRowContext(ctx,
		"SELECT "+threadCols+" FROM query_threads t WHERE t.seller_company_id=? AND t.buyer_user_id=? LIMIT 1",
		sellerCompanyID, buyerUserID))
}

// GetThreadByToken fetches a thread by its room token.
func (r *QueryRepo) GetThreadByToken(ctx context.Context, roomToken string) (model.QueryThread, error) {
	return scanThread(r.DB.QueryRowContext(ctx,
		"SELECT "+threadCols+" FROM query_threads t WHERE t.room_token=? LIMIT 1", roomToken))
}

// ListThreadsForBuyer lists a buyer's threads, newest first.
func (r *QueryRepo) ListThreadsForBuyer(ctx context.Context, buyerUserID uint64) ([]model.QueryThread, error) {
	return r.listThreads(ctx, "t.buyer_user_id=?", buyerUserID)
}

// ListThreadsForCompany lists a seller company's threads, newest first.
func (r *QueryRepo) ListThreadsForCompany(ctx context.Context, companyID uint64) ([]model.QueryThread, error) {
	return r.listThreads(ctx, "t.seller_company_id=?", companyID)
}

func (r *QueryRepo) listThreads(ctx context.Context, cond string, args ...any) ([]model.QueryThread, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+threadCols+" FROM query_threads t WHERE "+cond+" ORDER BY t.created_at DESC, t.id DESC",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.QueryThread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AddItem appends a per-product inquiry to a thread.
func (r *QueryRepo) AddItem(ctx context.Context, it model.QueryItem) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO query_items (thread_id, product_id, offer_id, name, quantity, message, country)
		 VALUES (?,?,?,?,?,?,?)`,
		it.ThreadID, it.ProductID, it.OfferID, it.Name, it.Quantity, it.Message, it.Country)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListItems returns a thread's items in creation order.
func (r *QueryRepo) ListItems(ctx context.Context, threadID uint64) ([]model.QueryItem, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id,thread_id,product_id,offer_id,name,quantity,message,country,
		   seller_closed,buyer_closed,created_at
		 FROM query_items WHERE thread_id=? ORDER BY id ASC`, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.QueryItem
	for rows.Next() {
		var it model.QueryItem
		if err := rows.Scan(&it.ID, &it.ThreadID, &it.ProductID, &it.OfferID, &it.Name,
			&it.Quantity, &it.Message, &it.Country, &it.SellerClosed, &it.BuyerClosed,
			&it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// CloseSide sets the buyer or seller closed flag on every item in the
// thread.
func (r *QueryRepo) CloseSide(ctx context.Context, threadID uint64, sellerSide bool) error {
	col := "buyer_closed"
	if sellerSide {
		col = "seller_closed"
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE query_items SET "+col+"=1 WHERE thread_id=?", threadID)
	return err
}
