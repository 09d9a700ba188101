// Package exchange converts purchase prices between currencies.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"fjacquet/purchase-ledger/internal/logging"
)

const (
	DefaultAPIURL            = "https://api.frankfurter.app"
	DefaultRequestsPerSecond = 5
	DefaultCacheTTL          = 24 * time.Hour
	DefaultTimeout           = 10 * time.Second
)

// RateSource returns the factor converting one unit of from into to on date.
type RateSource interface {
	Rate(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error)
}

// RateFunc adapts a function to RateSource.
type RateFunc func(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error)

func (f RateFunc) Rate(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error) {
	return f(ctx, from, to, date)
}

// HTTPRateSource queries a Frankfurter-compatible API:
// GET {base}/{YYYY-MM-DD}?from=USD&to=EUR.
type HTTPRateSource struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
	logger  logging.Logger
}

// NewHTTPRateSource creates a rate source limited to rps requests per second.
func NewHTTPRateSource(client *http.Client, baseURL string, rps float64, logger logging.Logger) *HTTPRateSource {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	return &HTTPRateSource{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logging.OrDefault(logger),
	}
}

type rateResponse struct {
	Base  string                 `json:"base"`
	Date  string                 `json:"date"`
	Rates map[string]json.Number `json:"rates"`
}

func (s *HTTPRateSource) Rate(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return decimal.Zero, err
	}

	q := url.Values{"from": {from}, "to": {to}}
	endpoint := fmt.Sprintf("%s/%s?%s", s.baseURL, date.UTC().Format("2006-01-02"), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate request %s->%s: %w", from, to, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("rate request %s->%s: unexpected status %d", from, to, resp.StatusCode)
	}

	var body rateResponse
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("rate response %s->%s: %w", from, to, err)
	}
	raw, ok := body.Rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("rate response %s->%s: no %s rate", from, to, to)
	}
	r, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate response %s->%s: %w", from, to, err)
	}

	s.logger.Debug("Fetched exchange rate",
		logging.F(logging.FieldCurrency, from+"/"+to),
		logging.F("date", body.Date),
		logging.F("rate", r.String()))
	return r, nil
}

// CachedRateSource memoizes another source per (from, to, day).
type CachedRateSource struct {
	next  RateSource
	cache *cache.Cache
}

// NewCachedRateSource wraps next with a cache whose entries live for ttl.
func NewCachedRateSource(next RateSource, ttl time.Duration) *CachedRateSource {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedRateSource{next: next, cache: cache.New(ttl, 2*ttl)}
}

func (s *CachedRateSource) Rate(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	key := from + "/" + to + "/" + date.UTC().Format("2006-01-02")
	if v, ok := s.cache.Get(key); ok {
		return v.(decimal.Decimal), nil
	}

	r, err := s.next.Rate(ctx, from, to, date)
	if err != nil {
		return decimal.Zero, err
	}
	s.cache.Set(key, r, cache.DefaultExpiration)
	return r, nil
}

// Len returns the number of cached rates.
func (s *CachedRateSource) Len() int {
	return s.cache.ItemCount()
}
