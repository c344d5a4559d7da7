package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/oguzhanyavuz/tradeport/internal/model"
)

// CurrencyRepo holds exactly one snapshot row per base currency,
// overwritten on every refresh.
type CurrencyRepo struct{ DB *sql.DB }

func NewCurrencyRepo(db *sql.DB) *CurrencyRepo { return &CurrencyRepo{DB: db} }

// Upsert replaces the snapshot for its base currency.
func (r *CurrencyRepo) Upsert(ctx context.Context, s model.CurrencySnapshot) error {
	rates, err := json.Marshal(s.Rates)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO currency_snapshots (base_currency, timestamp, rates) VALUES (?,?,?)
		 ON DUPLICATE KEY UPDATE timestamp=VALUES(timestamp), rates=VALUES(rates)`,
		s.BaseCurrency, s.Timestamp, string(rates))
	return err
}

// Get loads the snapshot for a base currency.
func (r *CurrencyRepo) Get(ctx context.Context, base string) (model.CurrencySnapshot, error) {
	var (
		s     model.CurrencySnapshot
		rates string
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT base_currency, timestamp, rates FROM currency_snapshots WHERE base_currency=? LIMIT 1",
		base).Scan(&s.BaseCurrency, &s.Timestamp, &rates)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	if err != nil {
		return s, err
	}
	s.Rates = map[string]decimal.Decimal{}
	if err := json.Unmarshal([]byte(rates), &s.Rates); err != nil {
		return s, err
	}
	return s, nil
}
