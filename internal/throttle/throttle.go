// Package throttle gates the contact form per sender address: three SPAM
// verdicts or five unanswered NEW messages inside the rolling 30-day window
// block further submissions until staff clear the backlog.
package throttle

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/oguzhanyavuz/tradeport/internal/apperr"
	"github.com/oguzhanyavuz/tradeport/internal/model"
	"github.com/oguzhanyavuz/tradeport/internal/queue"
	"github.com/oguzhanyavuz/tradeport/internal/repository"
	queue_publisher "github.com/oguzhanyavuz/tradeport/internal/service"
)

const (
	window  = 30 * 24 * time.Hour
	maxSpam = 3
	maxNew  = 5
)

// Service applies the per-address limits before inserting a contact row.
type Service struct {
	contacts repository.ContactCounter
	log      *zap.Logger
	publish  bool
	now      func() time.Time
}

// New wires the throttle over the contacts table.
func New(contacts repository.ContactCounter, log *zap.Logger, publish bool) *Service {
	return &Service{contacts: contacts, log: log, publish: publish, now: time.Now}
}

// Submit runs the throttle check and inserts the message as NEW. A blocked
// sender gets apperr.ErrTooManyMessages; the counters read committed rows
// only, so two racing submissions may both land, which is acceptable.
func (s *Service) Submit(ctx context.Context, c model.Contact) (uint64, error) {
	email := strings.ToLower(strings.TrimSpace(c.Email))
	since := s.now().UTC().Add(-window)

	spam, err := s.contacts.CountRecentByStatus(ctx, email, model.ContactSpam, since)
	if err != nil {
		return 0, err
	}
	if spam >= maxSpam {
		return 0, apperr.ErrTooManyMessages
	}

	open, err := s.contacts.CountRecentByStatus(ctx, email, model.ContactNew, since)
	if err != nil {
		return 0, err
	}
	if open >= maxNew {
		return 0, apperr.ErrTooManyMessages
	}

	c.Email = email
	c.Status = model.ContactNew
	c.SubmittedAt = s.now().UTC()
	id, err := s.contacts.Insert(ctx, c)
	if err != nil {
		return 0, err
	}

	if s.publish {
		ev := queue.ContactReceivedEvent{
			ContactID:   id,
			Email:       email,
			Country:     c.Country,
			Subject:     c.Subject,
			SubmittedAt: c.SubmittedAt.Format(time.RFC3339),
		}
		if err := queue_publisher.Publish(ctx, queue.ContactQueue, ev); err != nil {
			s.log.Warn("contact notice publish failed", zap.Error(err))
		}
	}
	return id, nil
}
