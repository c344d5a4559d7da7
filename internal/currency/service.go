package currency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/oguzhanyavuz/tradeport/internal/model"
	"github.com/oguzhanyavuz/tradeport/internal/repository"
)

// staleAfter marks conversions computed from a snapshot older than this.
const staleAfter = 24 * time.Hour

// Service refreshes and serves the rate snapshot for one base currency.
type Service struct {
	store    repository.SnapshotStore
	provider Provider
	base     string
	log      *zap.Logger
	now      func() time.Time
}

// New builds the service around the configured default currency.
func New(store repository.SnapshotStore, provider Provider, base string, log *zap.Logger) *Service {
	return &Service{store: store, provider: provider, base: base, log: log, now: time.Now}
}

// Refresh pulls the latest rates and overwrites the snapshot. Failures are
// returned so the scheduler can log them; the old snapshot stays in place.
func (s *Service) Refresh(ctx context.Context) error {
	rates, err := s.provider.Latest(ctx, s.base)
	if err != nil {
		return err
	}
	snap := model.CurrencySnapshot{
		BaseCurrency: s.base,
		Timestamp:    s.now().UTC(),
		Rates:        rates,
	}
	if err := s.store.Upsert(ctx, snap); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	s.log.Info("currency snapshot refreshed",
		zap.String("base", s.base), zap.Int("symbols", len(rates)))
	return nil
}

// Conversion is one computed amount plus the snapshot's freshness. A stale
// result carries the input amount unchanged; callers decide policy.
type Conversion struct {
	Amount decimal.Decimal
	Stale  bool
}

// Convert computes amount expressed in 'from' as an amount in 'to' via the
// base snapshot. A missing snapshot or one older than 24h yields the amount
// unchanged, flagged Stale. An unknown symbol is an error.
func (s *Service) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (Conversion, error) {
	if from == to {
		return Conversion{Amount: amount}, nil
	}
	snap, err := s.store.Get(ctx, s.base)
	if errors.Is(err, repository.ErrNotFound) {
		return Conversion{Amount: amount, Stale: true}, nil
	}
	if err != nil {
		return Conversion{}, err
	}
	if s.now().UTC().Sub(snap.Timestamp) > staleAfter {
		return Conversion{Amount: amount, Stale: true}, nil
	}

	fromRate, err := s.rate(snap, from)
	if err != nil {
		return Conversion{}, err
	}
	toRate, err := s.rate(snap, to)
	if err != nil {
		return Conversion{}, err
	}

	// from -> base -> to, carried at full precision and rounded once.
	inBase := amount.Div(fromRate)
	out := inBase.Mul(toRate).Round(4)
	return Conversion{Amount: out}, nil
}

// rate resolves one symbol against the snapshot. The base converts at 1.
func (s *Service) rate(snap model.CurrencySnapshot, symbol string) (decimal.Decimal, error) {
	if symbol == snap.BaseCurrency {
		return decimal.NewFromInt(1), nil
	}
	r, ok := snap.Rates[symbol]
	if !ok || r.IsZero() {
		return decimal.Decimal{}, fmt.Errorf("no rate for %s", symbol)
	}
	return r, nil
}
