package currency

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/oguzhanyavuz/tradeport/internal/model"
	"github.com/oguzhanyavuz/tradeport/internal/repository"
)

type fakeSnapshots struct {
	snap model.CurrencySnapshot
	err  error
	last model.CurrencySnapshot
}

func (f *fakeSnapshots) Upsert(_ context.Context, s model.CurrencySnapshot) error {
	f.last = s
	return nil
}

func (f *fakeSnapshots) Get(_ context.Context, _ string) (model.CurrencySnapshot, error) {
	return f.snap, f.err
}

type fakeProvider struct {
	rates map[string]decimal.Decimal
	err   error
}

func (f fakeProvider) Latest(_ context.Context, _ string) (map[string]decimal.Decimal, error) {
	return f.rates, f.err
}

var testClock = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(store *fakeSnapshots) *Service {
	s := New(store, fakeProvider{}, "TRY", zap.NewNop())
	s.now = func() time.Time { return testClock }
	return s
}

func freshSnapshot() model.CurrencySnapshot {
	return model.CurrencySnapshot{
		BaseCurrency: "TRY",
		Timestamp:    testClock.Add(-time.Hour),
		Rates: map[string]decimal.Decimal{
			"USD": decimal.RequireFromString("0.025"),
			"EUR": decimal.RequireFromString("0.02"),
		},
	}
}

func TestConvertViaBase(t *testing.T) {
	s := newTestService(&fakeSnapshots{snap: freshSnapshot()})

	// 100 USD -> 4000 TRY -> 80 EUR
	got, err := s.Convert(context.Background(), decimal.NewFromInt(100), "USD", "EUR")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !got.Amount.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("amount = %s, want 80", got.Amount)
	}
	if got.Stale {
		t.Fatal("hour-old snapshot flagged stale")
	}
}

func TestConvertToAndFromBase(t *testing.T) {
	s := newTestService(&fakeSnapshots{snap: freshSnapshot()})

	got, err := s.Convert(context.Background(), decimal.NewFromInt(100), "USD", "TRY")
	if err != nil {
		t.Fatalf("convert to base: %v", err)
	}
	if !got.Amount.Equal(decimal.NewFromInt(4000)) {
		t.Fatalf("to base = %s, want 4000", got.Amount)
	}

	got, err = s.Convert(context.Background(), decimal.NewFromInt(4000), "TRY", "USD")
	if err != nil {
		t.Fatalf("convert from base: %v", err)
	}
	if !got.Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("from base = %s, want 100", got.Amount)
	}
}

func TestConvertSameCurrencyShortCircuits(t *testing.T) {
	s := newTestService(&fakeSnapshots{err: repository.ErrNotFound})

	got, err := s.Convert(context.Background(), decimal.NewFromInt(5), "USD", "USD")
	if err != nil {
		t.Fatalf("same-currency convert hit the store: %v", err)
	}
	if !got.Amount.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("amount = %s, want 5", got.Amount)
	}
}

func TestConvertStaleSnapshotPassesAmountThrough(t *testing.T) {
	snap := freshSnapshot()
	snap.Timestamp = testClock.Add(-25 * time.Hour)
	s := newTestService(&fakeSnapshots{snap: snap})

	got, err := s.Convert(context.Background(), decimal.NewFromInt(100), "USD", "EUR")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !got.Stale {
		t.Fatal("day-old snapshot should flag stale")
	}
	if !got.Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("stale conversion changed the amount: %s", got.Amount)
	}
}

func TestConvertMissingSnapshotPassesAmountThrough(t *testing.T) {
	s := newTestService(&fakeSnapshots{err: repository.ErrNotFound})

	got, err := s.Convert(context.Background(), decimal.NewFromInt(7), "USD", "EUR")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !got.Stale || !got.Amount.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("missing snapshot should pass through flagged stale, got %+v", got)
	}
}

func TestConvertUnknownSymbol(t *testing.T) {
	s := newTestService(&fakeSnapshots{snap: freshSnapshot()})

	_, err := s.Convert(context.Background(), decimal.NewFromInt(1), "XXX", "EUR")
	if err == nil || !strings.Contains(err.Error(), "no rate for XXX") {
		t.Fatalf("err = %v, want unknown-symbol error", err)
	}
}

func TestRefreshStoresSnapshot(t *testing.T) {
	store := &fakeSnapshots{}
	s := New(store, fakeProvider{rates: map[string]decimal.Decimal{
		"USD": decimal.RequireFromString("0.025"),
	}}, "TRY", zap.NewNop())
	s.now = func() time.Time { return testClock }

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if store.last.BaseCurrency != "TRY" {
		t.Fatalf("base = %q, want TRY", store.last.BaseCurrency)
	}
	if !store.last.Timestamp.Equal(testClock) {
		t.Fatalf("timestamp = %v, want clock", store.last.Timestamp)
	}
}

func TestRefreshKeepsOldSnapshotOnProviderFailure(t *testing.T) {
	store := &fakeSnapshots{}
	s := New(store, fakeProvider{err: errors.New("upstream 503")}, "TRY", zap.NewNop())

	if err := s.Refresh(context.Background()); err == nil {
		t.Fatal("refresh should surface the provider error")
	}
	if store.last.BaseCurrency != "" {
		t.Fatal("failed refresh must not overwrite the snapshot")
	}
}
