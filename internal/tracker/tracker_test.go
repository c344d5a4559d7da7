package tracker

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/oguzhanyavuz/tradeport/internal/catalog"
	"github.com/oguzhanyavuz/tradeport/internal/enrich"
	"github.com/oguzhanyavuz/tradeport/internal/model"
	"github.com/oguzhanyavuz/tradeport/internal/repository"
)

type fakeStore struct {
	events    []model.TrackingEvent
	insertErr error
}

func (f *fakeStore) Insert(_ context.Context, e model.TrackingEvent) (uint64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.events = append(f.events, e)
	return uint64(len(f.events)), nil
}

func (f *fakeStore) List(_ context.Context, _ catalog.TrackingFilter, _ catalog.Page) ([]model.TrackingEvent, string, error) {
	return f.events, "", nil
}

func (f *fakeStore) DeleteBulk(_ context.Context, ids []uint64) (int64, error) {
	return int64(len(ids)), nil
}

type fakeChecker struct {
	known map[uint64]bool
	err   error
}

func (f fakeChecker) Exists(_ context.Context, id uint64) (bool, error) {
	return f.known[id], f.err
}

type staticEnricher struct{ ctx enrich.Context }

func (s staticEnricher) Enrich(_, _ string) enrich.Context { return s.ctx }

func newTestService(store *fakeStore, products fakeChecker) *Service {
	targets := map[string]repository.TargetChecker{
		model.TrackProduct: products,
	}
	return New(store, staticEnricher{enrich.Context{CountryISO: "TR", DeviceClass: "Mobile"}},
		targets, zap.NewNop(), false)
}

func TestRecordKnownTarget(t *testing.T) {
	store := &fakeStore{}
	s := newTestService(store, fakeChecker{known: map[uint64]bool{42: true}})

	s.Record(context.Background(), Input{
		UserID: 7, Kind: model.TrackProduct, TargetID: 42,
		IP: "203.0.113.9", UserAgent: "Mozilla/5.0",
	})

	if len(store.events) != 1 {
		t.Fatalf("stored %d events, want 1", len(store.events))
	}
	e := store.events[0]
	if e.Type != model.TrackProduct {
		t.Fatalf("type = %q, want PRODUCT", e.Type)
	}
	if !e.TargetID.Valid || e.TargetID.Int64 != 42 {
		t.Fatalf("target id = %+v, want 42", e.TargetID)
	}
	if !e.UserID.Valid || e.UserID.Int64 != 7 {
		t.Fatalf("user id = %+v, want 7", e.UserID)
	}
	if e.Country != "TR" || e.DeviceClass != "Mobile" {
		t.Fatalf("enrichment missing: country=%q class=%q", e.Country, e.DeviceClass)
	}
}

func TestRecordUnknownTargetDowngrades(t *testing.T) {
	store := &fakeStore{}
	s := newTestService(store, fakeChecker{known: map[uint64]bool{}})

	s.Record(context.Background(), Input{Kind: model.TrackProduct, TargetID: 99})

	e := store.events[0]
	if e.Type != model.TrackOther {
		t.Fatalf("type = %q, want OTHER", e.Type)
	}
	if e.TargetID.Valid {
		t.Fatal("downgraded event should carry no target id")
	}
	if e.Params["invalid_target"] != "99" {
		t.Fatalf("params.invalid_target = %q, want 99", e.Params["invalid_target"])
	}
}

func TestRecordCheckerErrorDowngrades(t *testing.T) {
	store := &fakeStore{}
	s := newTestService(store, fakeChecker{err: errors.New("db down")})

	s.Record(context.Background(), Input{Kind: model.TrackProduct, TargetID: 5})

	if store.events[0].Type != model.TrackOther {
		t.Fatalf("type = %q, want OTHER on checker failure", store.events[0].Type)
	}
}

func TestRecordMissingTargetIsOther(t *testing.T) {
	store := &fakeStore{}
	s := newTestService(store, fakeChecker{})

	s.Record(context.Background(), Input{Kind: model.TrackProduct})
	s.Record(context.Background(), Input{Kind: "BOGUS", TargetID: 3})

	for i, e := range store.events {
		if e.Type != model.TrackOther {
			t.Fatalf("event %d type = %q, want OTHER", i, e.Type)
		}
		if _, ok := e.Params["invalid_target"]; ok {
			t.Fatalf("event %d should not flag a target it never resolved", i)
		}
	}
}

func TestRecordSwallowsInsertFailure(t *testing.T) {
	store := &fakeStore{insertErr: errors.New("insert failed")}
	s := newTestService(store, fakeChecker{})

	// Must not panic or surface the error.
	s.Record(context.Background(), Input{Kind: model.TrackOther})
}
