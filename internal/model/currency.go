package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencySnapshot is the single persisted rate table per base currency,
// overwritten on every refresh. Rates map symbol -> units of symbol per one
// unit of base.
type CurrencySnapshot struct {
	BaseCurrency string                     // currency_snapshots.base_currency (primary key)
	Timestamp    time.Time                  // currency_snapshots.timestamp (provider time)
	Rates        map[string]decimal.Decimal // currency_snapshots.rates (JSON column)
}
