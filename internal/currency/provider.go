// Package currency keeps one exchange-rate snapshot per base currency and
// converts listing prices against it. Rates come from an external provider,
// refreshed on a schedule; conversions against an old snapshot are marked
// stale rather than refused.
package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// Symbols is the curated set of quote currencies requested from the
// provider. The snapshot never stores anything outside this list.
var Symbols = []string{"USD", "EUR", "GBP", "TRY", "CNY", "JPY", "RUB", "AED", "INR"}

// Provider fetches the latest rates for a base currency.
type Provider interface {
	Latest(ctx context.Context, base string) (map[string]decimal.Decimal, error)
}

// HTTPProvider talks to a fixer-style rates endpoint:
// GET {baseURL}?access_key=...&base=USD&symbols=EUR,GBP -> {"rates":{...}}.
type HTTPProvider struct {
	baseURL string
	key     string
	client  *http.Client
}

// NewHTTPProvider builds a provider against baseURL with the given API key.
func NewHTTPProvider(baseURL, key string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		key:     key,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type ratesResponse struct {
	Success bool                       `json:"success"`
	Rates   map[string]decimal.Decimal `json:"rates"`
	Error   struct {
		Code int    `json:"code"`
		Type string `json:"type"`
	} `json:"error"`
}

// Latest fetches the current rates for base, restricted to Symbols.
func (p *HTTPProvider) Latest(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	q := url.Values{}
	q.Set("access_key", p.key)
	q.Set("base", base)
	symbols := ""
	for i, s := range Symbols {
		if i > 0 {
			symbols += ","
		}
		symbols += s
	}
	q.Set("symbols", symbols)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rate provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate provider: status %d", resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("rate provider: decode: %w", err)
	}
	if len(body.Rates) == 0 {
		return nil, fmt.Errorf("rate provider: empty rates (error type %q)", body.Error.Type)
	}

	out := make(map[string]decimal.Decimal, len(Symbols))
	for _, s := range Symbols {
		if r, ok := body.Rates[s]; ok {
			out[s] = r
		}
	}
	return out, nil
}
