package throttle

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/oguzhanyavuz/tradeport/internal/apperr"
	"github.com/oguzhanyavuz/tradeport/internal/model"
)

type fakeContacts struct {
	spam     int
	open     int
	inserted []model.Contact
	failOn   string
}

func (f *fakeContacts) CountRecentByStatus(_ context.Context, _, status string, _ time.Time) (int, error) {
	if f.failOn == status {
		return 0, errors.New("count failed")
	}
	switch status {
	case model.ContactSpam:
		return f.spam, nil
	case model.ContactNew:
		return f.open, nil
	}
	return 0, nil
}

func (f *fakeContacts) Insert(_ context.Context, c model.Contact) (uint64, error) {
	f.inserted = append(f.inserted, c)
	return uint64(len(f.inserted)), nil
}

func newTestService(f *fakeContacts) *Service {
	s := New(f, zap.NewNop(), false)
	s.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestSubmitAcceptsUnderLimit(t *testing.T) {
	f := &fakeContacts{spam: 2, open: 4}
	s := newTestService(f)

	id, err := s.Submit(context.Background(), model.Contact{Email: " Buyer@Example.COM ", Body: "hi"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if id != 1 {
		t.Fatalf("id = %d, want 1", id)
	}
	got := f.inserted[0]
	if got.Email != "buyer@example.com" {
		t.Fatalf("email not normalized: %q", got.Email)
	}
	if got.Status != model.ContactNew {
		t.Fatalf("status = %q, want NEW", got.Status)
	}
	if got.SubmittedAt.IsZero() {
		t.Fatal("submitted_at not stamped")
	}
}

func TestSubmitBlocksOnSpamCount(t *testing.T) {
	s := newTestService(&fakeContacts{spam: 3})

	_, err := s.Submit(context.Background(), model.Contact{Email: "a@b.co", Body: "hi"})
	if !errors.Is(err, apperr.ErrTooManyMessages) {
		t.Fatalf("err = %v, want ErrTooManyMessages", err)
	}
}

func TestSubmitBlocksOnOpenCount(t *testing.T) {
	f := &fakeContacts{open: 5}
	s := newTestService(f)

	_, err := s.Submit(context.Background(), model.Contact{Email: "a@b.co", Body: "hi"})
	if !errors.Is(err, apperr.ErrTooManyMessages) {
		t.Fatalf("err = %v, want ErrTooManyMessages", err)
	}
	if len(f.inserted) != 0 {
		t.Fatal("blocked submission must not insert")
	}
}

func TestSubmitPropagatesCountErrors(t *testing.T) {
	s := newTestService(&fakeContacts{failOn: model.ContactSpam})

	_, err := s.Submit(context.Background(), model.Contact{Email: "a@b.co", Body: "hi"})
	if err == nil || errors.Is(err, apperr.ErrTooManyMessages) {
		t.Fatalf("err = %v, want the repository error", err)
	}
}
