package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/oguzhanyavuz/tradeport/internal/model"
)

// MessageRepo is the durable history behind the chat hub. Messages are
// immutable; ordering within a thread is (created_at, id) as assigned by
// the single writer, so id alone is a valid resume cursor.
type MessageRepo struct{ DB *sql.DB }

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{DB: db} }

// Insert appends one message and returns it with id and timestamp filled.
func (r *MessageRepo) Insert(ctx context.Context, m model.ChatMessage) (model.ChatMessage, error) {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO chat_messages (thread_id, author_user_id, recipient_user_id, text, attachment, created_at)
		 VALUES (?,?,?,?,?,?)`,
		m.ThreadID, m.AuthorUserID, m.RecipientUserID, m.Text, m.Attachment, now)
	if err != nil {
		return m, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return m, err
	}
	m.ID = uint64(id)
	m.CreatedAt = now
	return m, nil
}

// ListSince returns a thread's messages with id greater than sinceID in
// ascending order. sinceID 0 returns the full history.
func (r *MessageRepo) ListSince(ctx context.Context, threadID, sinceID uint64) ([]model.ChatMessage, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id,thread_id,author_user_id,recipient_user_id,text,attachment,created_at
		 FROM chat_messages WHERE thread_id=? AND id>? ORDER BY created_at ASC, id ASC`,
		threadID, sinceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.AuthorUserID, &m.RecipientUserID,
			&m.Text, &m.Attachment, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
