package repository

import (
	"context"
	"time"

	"github.com/oguzhanyavuz/tradeport/internal/catalog"
	"github.com/oguzhanyavuz/tradeport/internal/model"
)

// Narrow interfaces consumed by the service layer. Services depend on these
// rather than the concrete repos so tests can substitute in-memory fakes.

// TrackingStore is what the tracker needs from persistence.
type TrackingStore interface {
	Insert(ctx context.Context, e model.TrackingEvent) (uint64, error)
	List(ctx context.Context, f catalog.TrackingFilter, page catalog.Page) ([]model.TrackingEvent, string, error)
	DeleteBulk(ctx context.Context, eventIDs []uint64) (int64, error)
}

// TargetChecker resolves whether a tracking target id exists in its
// referenced collection.
type TargetChecker interface {
	Exists(ctx context.Context, id uint64) (bool, error)
}

// DealExpirer is the scheduler's view of the port-deal table.
type DealExpirer interface {
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// ContactCounter is the throttle's view of the contacts table.
type ContactCounter interface {
	CountRecentByStatus(ctx context.Context, email, status string, since time.Time) (int, error)
	Insert(ctx context.Context, c model.Contact) (uint64, error)
}

// ThreadStore is the chat service's view of threads.
type ThreadStore interface {
	CreateThread(ctx context.Context, sellerCompanyID, buyerUserID uint64, roomToken string) (uint64, error)
	GetThreadByPair(ctx context.Context, sellerCompanyID, buyerUserID uint64) (model.QueryThread, error)
	GetThreadByToken(ctx context.Context, roomToken string) (model.QueryThread, error)
	CloseSide(ctx context.Context, threadID uint64, sellerSide bool) error
}

// MessageStore is the chat service's view of message history.
type MessageStore interface {
	Insert(ctx context.Context, m model.ChatMessage) (model.ChatMessage, error)
	ListSince(ctx context.Context, threadID, sinceID uint64) ([]model.ChatMessage, error)
}

// SnapshotStore is the currency service's view of the snapshot row.
type SnapshotStore interface {
	Upsert(ctx context.Context, s model.CurrencySnapshot) error
	Get(ctx context.Context, base string) (model.CurrencySnapshot, error)
}

// Compile-time checks that the concrete repos satisfy the seams.
var (
	_ TrackingStore  = (*TrackingRepo)(nil)
	_ TargetChecker  = (*ProductRepo)(nil)
	_ TargetChecker  = (*CompanyRepo)(nil)
	_ TargetChecker  = (*CategoryRepo)(nil)
	_ DealExpirer    = (*PortDealRepo)(nil)
	_ ContactCounter = (*ContactRepo)(nil)
	_ ThreadStore    = (*QueryRepo)(nil)
	_ MessageStore   = (*MessageRepo)(nil)
	_ SnapshotStore  = (*CurrencyRepo)(nil)
)
