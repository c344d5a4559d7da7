package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/oguzhanyavuz/tradeport/internal/model"
)

type ContactRepo struct{ DB *sql.DB }

func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{DB: db} }

// Insert persists a contact message with status NEW.
func (r *ContactRepo) Insert(ctx context.Context, c model.Contact) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO contacts (from_user_id, name, email, country, subject, body, type, status)
		 VALUES (?,?,?,?,?,?,?,?)`,
		c.FromUserID, c.Name, strings.ToLower(strings.TrimSpace(c.Email)), c.Country,
		c.Subject, c.Body, c.Type, model.ContactNew)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// CountRecentByStatus counts rows for an email in a given status submitted
// since the window start. The throttle reads whatever the database holds at
// submit time; there is no locking around the check.
func (r *ContactRepo) CountRecentByStatus(ctx context.Context, email, status string, since time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM contacts WHERE email=? AND status=? AND submitted_at>=?",
		strings.ToLower(strings.TrimSpace(email)), status, since).Scan(&n)
	return n, err
}

const contactCols = "c.id,c.from_user_id,c.name,c.email,c.country,c.subject,c.body,c.type,c.status,c.submitted_at"

func scanContact(s interface{ Scan(dest ...any) error }) (model.Contact, error) {
	var c model.Contact
	err := s.Scan(&c.ID, &c.FromUserID, &c.Name, &c.Email, &c.Country, &c.Subject, &c.Body,
		&c.Type, &c.Status, &c.SubmittedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	return c, err
}

// GetByID fetches one contact message.
func (r *ContactRepo) GetByID(ctx context.Context, id uint64) (model.Contact, error) {
	return scanContact(r.DB.QueryRowContext(ctx,
		"SELECT "+contactCols+" FROM contacts c WHERE c.id=? LIMIT 1", id))
}

// ListByUser lists a user's own submissions, newest first.
func (r *ContactRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Contact, error) {
	return r.list(ctx, "c.from_user_id=?", userID)
}

// ListAll lists every contact message, newest first. Staff-only.
func (r *ContactRepo) ListAll(ctx context.Context) ([]model.Contact, error) {
	return r.list(ctx, "1=1")
}

func (r *ContactRepo) list(ctx context.Context, cond string, args ...any) ([]model.Contact, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+contactCols+" FROM contacts c WHERE "+cond+" ORDER BY c.submitted_at DESC, c.id DESC",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SetStatus moves a message to a new status. Transitions are free-form;
// staff judgement is the only rule.
func (r *ContactRepo) SetStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE contacts SET status=? WHERE id=?", status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
