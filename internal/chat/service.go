package chat

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/oguzhanyavuz/tradeport/internal/apperr"
	"github.com/oguzhanyavuz/tradeport/internal/model"
	"github.com/oguzhanyavuz/tradeport/internal/queue"
	"github.com/oguzhanyavuz/tradeport/internal/repository"
	queue_publisher "github.com/oguzhanyavuz/tradeport/internal/service"
	"github.com/oguzhanyavuz/tradeport/internal/utils"
)

// CompanyResolver maps a seller company to its record, used to find the
// seller-side user of a thread.
type CompanyResolver interface {
	GetByID(ctx context.Context, id uint64) (model.Company, error)
}

// Service owns thread lifecycle and message flow. All writes go through
// here; the hub only delivers.
type Service struct {
	threads   repository.ThreadStore
	messages  repository.MessageStore
	companies CompanyResolver
	hub       *Hub
	log       *zap.Logger
	publish   bool
	now       func() time.Time
}

// NewService wires the chat service.
func NewService(threads repository.ThreadStore, messages repository.MessageStore,
	companies CompanyResolver, hub *Hub, log *zap.Logger, publish bool) *Service {
	return &Service{
		threads:   threads,
		messages:  messages,
		companies: companies,
		hub:       hub,
		log:       log,
		publish:   publish,
		now:       time.Now,
	}
}

// Open returns the thread for (buyer, seller company), creating it on first
// contact. The pair is unique in the database, so a racing second Open
// falls back to refetching the winner's row. The opened notice is published
// only for the creating call.
func (s *Service) Open(ctx context.Context, buyerUserID, sellerCompanyID uint64) (model.QueryThread, error) {
	if t, err := s.threads.GetThreadByPair(ctx, sellerCompanyID, buyerUserID); err == nil {
		return t, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.QueryThread{}, err
	}

	token, err := utils.RandomHex(24)
	if err != nil {
		return model.QueryThread{}, err
	}
	_, err = s.threads.CreateThread(ctx, sellerCompanyID, buyerUserID, token)
	if errors.Is(err, repository.ErrDuplicate) {
		return s.threads.GetThreadByPair(ctx, sellerCompanyID, buyerUserID)
	}
	if err != nil {
		return model.QueryThread{}, err
	}

	t, err := s.threads.GetThreadByPair(ctx, sellerCompanyID, buyerUserID)
	if err != nil {
		return model.QueryThread{}, err
	}

	if s.publish {
		sellerUserID := uint64(0)
		if co, cErr := s.companies.GetByID(ctx, sellerCompanyID); cErr == nil {
			sellerUserID = co.OwnerUserID
		}
		ev := queue.QueryOpenedEvent{
			ThreadID:        t.ID,
			RoomToken:       t.RoomToken,
			BuyerUserID:     buyerUserID,
			SellerCompanyID: sellerCompanyID,
			SellerUserID:    sellerUserID,
			OpenedAt:        s.now().UTC().Format(time.RFC3339),
		}
		if pErr := queue_publisher.Publish(ctx, queue.QueryQueue, ev); pErr != nil {
			s.log.Warn("query opened publish failed", zap.Error(pErr))
		}
	}
	return t, nil
}

// outboundFrame is one message as delivered over the socket.
type outboundFrame struct {
	ID           uint64 `json:"id"`
	ThreadID     uint64 `json:"thread_id"`
	AuthorUserID uint64 `json:"author_user_id"`
	Text         string `json:"text,omitempty"`
	Attachment   string `json:"attachment,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// Send persists one message and then broadcasts it to the room. The room
// lock keeps delivery in insert order; subscribers that missed the
// broadcast recover through ListSince on reconnect.
func (s *Service) Send(ctx context.Context, t model.QueryThread, authorUserID uint64, text, attachment string) (model.ChatMessage, error) {
	recipient, err := s.otherParty(ctx, t, authorUserID)
	if err != nil {
		return model.ChatMessage{}, err
	}

	mu := s.hub.lockRoom(t.RoomToken)
	mu.Lock()
	defer mu.Unlock()

	m, err := s.messages.Insert(ctx, model.ChatMessage{
		ThreadID:        t.ID,
		AuthorUserID:    authorUserID,
		RecipientUserID: recipient,
		Text:            text,
		Attachment:      attachment,
	})
	if err != nil {
		return model.ChatMessage{}, err
	}

	s.hub.Broadcast(t.RoomToken, outboundFrame{
		ID:           m.ID,
		ThreadID:     m.ThreadID,
		AuthorUserID: m.AuthorUserID,
		Text:         m.Text,
		Attachment:   m.Attachment,
		CreatedAt:    m.CreatedAt.UTC().Format(time.RFC3339),
	})
	return m, nil
}

// History returns thread messages after sinceID in delivery order.
func (s *Service) History(ctx context.Context, threadID, sinceID uint64) ([]model.ChatMessage, error) {
	return s.messages.ListSince(ctx, threadID, sinceID)
}

// CloseSide marks the caller's end of the thread closed on every item.
func (s *Service) CloseSide(ctx context.Context, t model.QueryThread, callerUserID uint64) error {
	sellerSide, err := s.isSellerSide(ctx, t, callerUserID)
	if err != nil {
		return err
	}
	return s.threads.CloseSide(ctx, t.ID, sellerSide)
}

// Authorize resolves the thread behind roomToken and checks that userID is
// one of its two participants. Outsiders get not-found, never forbidden.
func (s *Service) Authorize(ctx context.Context, roomToken string, userID uint64) (model.QueryThread, error) {
	t, err := s.threads.GetThreadByToken(ctx, roomToken)
	if errors.Is(err, repository.ErrNotFound) {
		return model.QueryThread{}, apperr.ErrNotFound
	}
	if err != nil {
		return model.QueryThread{}, err
	}
	if t.BuyerUserID == userID {
		return t, nil
	}
	co, err := s.companies.GetByID(ctx, t.SellerCompanyID)
	if err == nil && co.OwnerUserID == userID {
		return t, nil
	}
	return model.QueryThread{}, apperr.ErrNotFound
}

func (s *Service) otherParty(ctx context.Context, t model.QueryThread, authorUserID uint64) (uint64, error) {
	if authorUserID == t.BuyerUserID {
		co, err := s.companies.GetByID(ctx, t.SellerCompanyID)
		if err != nil {
			return 0, err
		}
		return co.OwnerUserID, nil
	}
	return t.BuyerUserID, nil
}

func (s *Service) isSellerSide(ctx context.Context, t model.QueryThread, userID uint64) (bool, error) {
	if userID == t.BuyerUserID {
		return false, nil
	}
	co, err := s.companies.GetByID(ctx, t.SellerCompanyID)
	if err != nil {
		return false, err
	}
	if co.OwnerUserID != userID {
		return false, apperr.ErrNotFound
	}
	return true, nil
}

// Subscribe attaches an upgraded connection to the thread's room, replays
// history after sinceID, then switches the subscriber to live delivery.
// Replay goes through the room lock so a message cannot land between the
// history read and the live subscription.
func (s *Service) Subscribe(ctx context.Context, t model.QueryThread, userID, sinceID uint64, conn *websocket.Conn) error {
	c := newClient(s.hub, t.RoomToken, userID, conn, func(text, attachment string) {
		if _, err := s.Send(context.Background(), t, userID, text, attachment); err != nil {
			s.log.Warn("chat send failed", zap.Error(err), zap.Uint64("thread", t.ID))
		}
	})

	mu := s.hub.lockRoom(t.RoomToken)
	mu.Lock()
	history, err := s.messages.ListSince(ctx, t.ID, sinceID)
	if err != nil {
		mu.Unlock()
		_ = conn.Close()
		return err
	}
	s.hub.Join(t.RoomToken, c)

	// History is queued before the lock drops so a concurrent Send can
	// only land behind it; the pumps are not running yet, so the queue is
	// the only consumer-free buffer and overflow means the page was
	// larger than the send buffer.
	overflow := false
	for _, m := range history {
		frame := outboundFrame{
			ID:           m.ID,
			ThreadID:     m.ThreadID,
			AuthorUserID: m.AuthorUserID,
			Text:         m.Text,
			Attachment:   m.Attachment,
			CreatedAt:    m.CreatedAt.UTC().Format(time.RFC3339),
		}
		b, _ := json.Marshal(frame)
		if !c.trySend(b) {
			overflow = true
			break
		}
	}
	mu.Unlock()

	if overflow {
		c.Close()
		return nil
	}
	go c.writePump()
	go c.readPump()
	return nil
}
