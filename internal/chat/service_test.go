package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/oguzhanyavuz/tradeport/internal/apperr"
	"github.com/oguzhanyavuz/tradeport/internal/model"
	"github.com/oguzhanyavuz/tradeport/internal/repository"
)

type fakeThreads struct {
	byPair       map[[2]uint64]model.QueryThread
	byToken      map[string]model.QueryThread
	nextID       uint64
	createCalls  int
	createErr    error
	missFirst    bool
	closedSeller []bool
}

func newFakeThreads() *fakeThreads {
	return &fakeThreads{
		byPair:  map[[2]uint64]model.QueryThread{},
		byToken: map[string]model.QueryThread{},
	}
}

func (f *fakeThreads) CreateThread(_ context.Context, sellerCompanyID, buyerUserID uint64, roomToken string) (uint64, error) {
	f.createCalls++
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	t := model.QueryThread{
		ID:              f.nextID,
		SellerCompanyID: sellerCompanyID,
		BuyerUserID:     buyerUserID,
		RoomToken:       roomToken,
		CreatedAt:       time.Now().UTC(),
	}
	f.byPair[[2]uint64{sellerCompanyID, buyerUserID}] = t
	f.byToken[roomToken] = t
	return t.ID, nil
}

func (f *fakeThreads) GetThreadByPair(_ context.Context, sellerCompanyID, buyerUserID uint64) (model.QueryThread, error) {
	if f.missFirst {
		f.missFirst = false
		return model.QueryThread{}, repository.ErrNotFound
	}
	t, ok := f.byPair[[2]uint64{sellerCompanyID, buyerUserID}]
	if !ok {
		return model.QueryThread{}, repository.ErrNotFound
	}
	return t, nil
}

func (f *fakeThreads) GetThreadByToken(_ context.Context, roomToken string) (model.QueryThread, error) {
	t, ok := f.byToken[roomToken]
	if !ok {
		return model.QueryThread{}, repository.ErrNotFound
	}
	return t, nil
}

func (f *fakeThreads) CloseSide(_ context.Context, _ uint64, sellerSide bool) error {
	f.closedSeller = append(f.closedSeller, sellerSide)
	return nil
}

type fakeMessages struct {
	rows []model.ChatMessage
}

func (f *fakeMessages) Insert(_ context.Context, m model.ChatMessage) (model.ChatMessage, error) {
	m.ID = uint64(len(f.rows) + 1)
	m.CreatedAt = time.Now().UTC()
	f.rows = append(f.rows, m)
	return m, nil
}

func (f *fakeMessages) ListSince(_ context.Context, threadID, sinceID uint64) ([]model.ChatMessage, error) {
	var out []model.ChatMessage
	for _, m := range f.rows {
		if m.ThreadID == threadID && m.ID > sinceID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeCompanies struct {
	owners map[uint64]uint64 // company id -> owner user id
}

func (f fakeCompanies) GetByID(_ context.Context, id uint64) (model.Company, error) {
	owner, ok := f.owners[id]
	if !ok {
		return model.Company{}, repository.ErrNotFound
	}
	return model.Company{ID: id, OwnerUserID: owner}, nil
}

func newTestService(threads *fakeThreads, messages *fakeMessages) *Service {
	return NewService(threads, messages, fakeCompanies{owners: map[uint64]uint64{10: 100}},
		NewHub(8), zap.NewNop(), false)
}

func TestOpenCreatesOnce(t *testing.T) {
	threads := newFakeThreads()
	s := newTestService(threads, &fakeMessages{})

	first, err := s.Open(context.Background(), 5, 10)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if first.RoomToken == "" {
		t.Fatal("created thread has no room token")
	}

	second, err := s.Open(context.Background(), 5, 10)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("reopen returned thread %d, want %d", second.ID, first.ID)
	}
	if threads.createCalls != 1 {
		t.Fatalf("create ran %d times, want 1", threads.createCalls)
	}
}

func TestOpenLosingRaceRefetches(t *testing.T) {
	// The winner committed between the loser's lookup and its insert: the
	// first pair lookup misses, the insert collides, the refetch must
	// return the winner's row.
	threads := newFakeThreads()
	threads.missFirst = true
	threads.createErr = repository.ErrDuplicate
	winner := model.QueryThread{ID: 9, SellerCompanyID: 10, BuyerUserID: 5, RoomToken: "tok"}
	threads.byPair[[2]uint64{10, 5}] = winner

	s := newTestService(threads, &fakeMessages{})

	got, err := s.Open(context.Background(), 5, 10)
	if err != nil {
		t.Fatalf("open after race: %v", err)
	}
	if got.ID != winner.ID {
		t.Fatalf("thread = %d, want the winner %d", got.ID, winner.ID)
	}
	if threads.createCalls != 1 {
		t.Fatalf("create ran %d times, want 1", threads.createCalls)
	}
}

func TestSendResolvesRecipient(t *testing.T) {
	threads := newFakeThreads()
	messages := &fakeMessages{}
	s := newTestService(threads, messages)

	th, err := s.Open(context.Background(), 5, 10)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	// Buyer writes, owner of company 10 receives.
	m, err := s.Send(context.Background(), th, 5, "hello", "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if m.RecipientUserID != 100 {
		t.Fatalf("recipient = %d, want seller owner 100", m.RecipientUserID)
	}

	// Seller replies, buyer receives.
	m, err = s.Send(context.Background(), th, 100, "hi", "")
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if m.RecipientUserID != 5 {
		t.Fatalf("recipient = %d, want buyer 5", m.RecipientUserID)
	}
}

func TestHistoryAfterID(t *testing.T) {
	threads := newFakeThreads()
	messages := &fakeMessages{}
	s := newTestService(threads, messages)

	th, _ := s.Open(context.Background(), 5, 10)
	for i := 0; i < 3; i++ {
		if _, err := s.Send(context.Background(), th, 5, "m", ""); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}

	got, err := s.History(context.Background(), th.ID, 1)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("history after 1 returned %d messages, want 2", len(got))
	}
	if got[0].ID != 2 || got[1].ID != 3 {
		t.Fatalf("history order = %d,%d, want 2,3", got[0].ID, got[1].ID)
	}
}

func TestAuthorizeParticipantsOnly(t *testing.T) {
	threads := newFakeThreads()
	s := newTestService(threads, &fakeMessages{})

	th, _ := s.Open(context.Background(), 5, 10)

	if _, err := s.Authorize(context.Background(), th.RoomToken, 5); err != nil {
		t.Fatalf("buyer authorize: %v", err)
	}
	if _, err := s.Authorize(context.Background(), th.RoomToken, 100); err != nil {
		t.Fatalf("seller authorize: %v", err)
	}
	if _, err := s.Authorize(context.Background(), th.RoomToken, 77); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("outsider err = %v, want not-found", err)
	}
	if _, err := s.Authorize(context.Background(), "missing", 5); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("bad token err = %v, want not-found", err)
	}
}

func TestCloseSideResolvesSide(t *testing.T) {
	threads := newFakeThreads()
	s := newTestService(threads, &fakeMessages{})

	th, _ := s.Open(context.Background(), 5, 10)

	if err := s.CloseSide(context.Background(), th, 5); err != nil {
		t.Fatalf("buyer close: %v", err)
	}
	if err := s.CloseSide(context.Background(), th, 100); err != nil {
		t.Fatalf("seller close: %v", err)
	}
	if err := s.CloseSide(context.Background(), th, 77); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("outsider close err = %v, want not-found", err)
	}

	want := []bool{false, true}
	if len(threads.closedSeller) != 2 {
		t.Fatalf("close recorded %d calls, want 2", len(threads.closedSeller))
	}
	for i := range want {
		if threads.closedSeller[i] != want[i] {
			t.Fatalf("close %d sellerSide = %v, want %v", i, threads.closedSeller[i], want[i])
		}
	}
}

// subscribeServer upgrades each request and hands the socket to Subscribe,
// signalling on subscribed once the replay is queued.
func subscribeServer(t *testing.T, s *Service, th model.QueryThread, userID uint64, subscribed chan<- struct{}) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if err := s.Subscribe(context.Background(), th, userID, 0, conn); err != nil {
			t.Errorf("subscribe: %v", err)
		}
		if subscribed != nil {
			close(subscribed)
		}
	}))
}

func wsDial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return ws
}

func readFrame(t *testing.T, ws *websocket.Conn) outboundFrame {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var f outboundFrame
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("frame: %v", err)
	}
	return f
}

func TestSubscribeDeliversHistoryBeforeLive(t *testing.T) {
	s := newTestService(newFakeThreads(), &fakeMessages{})
	ctx := context.Background()

	th, err := s.Open(ctx, 5, 10)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for _, text := range []string{"first", "second"} {
		if _, err := s.Send(ctx, th, 5, text, ""); err != nil {
			t.Fatalf("seed send: %v", err)
		}
	}

	subscribed := make(chan struct{})
	srv := subscribeServer(t, s, th, 5, subscribed)
	defer srv.Close()

	ws := wsDial(t, srv)
	defer ws.Close()

	<-subscribed
	if _, err := s.Send(ctx, th, 100, "third", ""); err != nil {
		t.Fatalf("live send: %v", err)
	}

	want := []string{"first", "second", "third"}
	var lastID uint64
	for i, text := range want {
		f := readFrame(t, ws)
		if f.Text != text {
			t.Fatalf("frame %d text = %q, want %q", i, f.Text, text)
		}
		if f.ID <= lastID {
			t.Fatalf("frame %d id %d not after %d", i, f.ID, lastID)
		}
		lastID = f.ID
	}
}

func TestSubscribeOrderUnderConcurrentSend(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		s := newTestService(newFakeThreads(), &fakeMessages{})
		th, err := s.Open(ctx, 5, 10)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if _, err := s.Send(ctx, th, 5, "a", ""); err != nil {
			t.Fatalf("seed send: %v", err)
		}
		if _, err := s.Send(ctx, th, 5, "b", ""); err != nil {
			t.Fatalf("seed send: %v", err)
		}

		srv := subscribeServer(t, s, th, 5, nil)
		sent := make(chan struct{})
		go func() {
			defer close(sent)
			if _, err := s.Send(ctx, th, 100, "live", ""); err != nil {
				t.Errorf("racing send: %v", err)
			}
		}()

		ws := wsDial(t, srv)
		var lastID uint64
		for n := 0; n < 3; n++ {
			f := readFrame(t, ws)
			if f.ID <= lastID {
				t.Fatalf("iteration %d: id %d delivered after %d", i, f.ID, lastID)
			}
			lastID = f.ID
		}
		ws.Close()
		<-sent
		srv.Close()
	}
}
