package model

import (
	"database/sql"
	"time"
)

// QueryThread pairs one buyer user with one seller company. The pair is
// unique; Open returns the existing thread when called again. room_token is
// a random opaque string used by the websocket transport.
type QueryThread struct {
	ID              uint64    // query_threads.id
	SellerCompanyID uint64    // query_threads.seller_company_id
	BuyerUserID     uint64    // query_threads.buyer_user_id
	RoomToken       string    // query_threads.room_token (unique)
	CreatedAt       time.Time // query_threads.created_at
}

// QueryItem is one per-product inquiry inside a thread. Either side may
// close its end; closing marks every item in the thread.
type QueryItem struct {
	ID           uint64        // query_items.id
	ThreadID     uint64        // query_items.thread_id
	ProductID    uint64        // query_items.product_id
	OfferID      sql.NullInt64 // query_items.offer_id
	Name         string        // query_items.name
	Quantity     uint32        // query_items.quantity
	Message      string        // query_items.message
	Country      string        // query_items.country
	SellerClosed bool          // query_items.seller_closed
	BuyerClosed  bool          // query_items.buyer_closed
	CreatedAt    time.Time     // query_items.created_at
}

// ChatMessage mirrors the append-only 'chat_messages' table. Messages are
// immutable once written; ordering within a room is (created_at, id) as
// assigned by the room's single writer.
type ChatMessage struct {
	ID              uint64    // chat_messages.id
	ThreadID        uint64    // chat_messages.thread_id
	AuthorUserID    uint64    // chat_messages.author_user_id
	RecipientUserID uint64    // chat_messages.recipient_user_id
	Text            string    // chat_messages.text
	Attachment      string    // chat_messages.attachment (stored blob URL)
	CreatedAt       time.Time // chat_messages.created_at
}
