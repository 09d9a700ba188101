package allegroparser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"fjacquet/purchase-ledger/internal/logging"
	"fjacquet/purchase-ledger/internal/models"
	"fjacquet/purchase-ledger/internal/parser"
	"fjacquet/purchase-ledger/internal/parsererror"
)

const (
	DefaultAPIURL   = "https://api.allegro.pl"
	DefaultPageSize = 100
	maxPageSize     = 100

	mediaType = "application/vnd.allegro.public.v1+json"
)

// Fetcher pages through the checkout forms of the authenticated account.
// Token acquisition and refresh belong to the oauth2.TokenSource handed to
// NewOAuthFetcher.
type Fetcher struct {
	parser.BaseParser
	client   *http.Client
	baseURL  string
	pageSize int
}

// NewFetcher creates a Fetcher over an already authenticated client.
func NewFetcher(client *http.Client, baseURL string, pageSize int, logger logging.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = DefaultPageSize
	}
	return &Fetcher{
		BaseParser: parser.NewBaseParser(logger),
		client:     client,
		baseURL:    strings.TrimRight(baseURL, "/"),
		pageSize:   pageSize,
	}
}

// NewOAuthFetcher creates a Fetcher whose requests carry the bearer token
// from ts.
func NewOAuthFetcher(ctx context.Context, ts oauth2.TokenSource, baseURL string, pageSize int, logger logging.Logger) *Fetcher {
	return NewFetcher(oauth2.NewClient(ctx, ts), baseURL, pageSize, logger)
}

// Page is one response of the checkout-forms endpoint.
type Page struct {
	Forms      []parser.Record
	Offset     int
	TotalCount int
}

// HasMore reports whether forms remain after this page.
func (p Page) HasMore() bool {
	return len(p.Forms) > 0 && p.Offset+len(p.Forms) < p.TotalCount
}

// FetchPage requests the checkout forms starting at offset.
func (f *Fetcher) FetchPage(ctx context.Context, offset int) (Page, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(f.pageSize))
	endpoint := f.baseURL + "/order/checkout-forms?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Page{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", mediaType)

	resp, err := f.client.Do(req)
	if err != nil {
		return Page{}, &parsererror.FetchError{Provider: string(models.ProviderAllegro), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Page{}, &parsererror.FetchError{Provider: string(models.ProviderAllegro), Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return Page{}, &parsererror.FetchError{
			Provider: string(models.ProviderAllegro),
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("%s", snippet(body)),
		}
	}

	forms, err := parser.DecodeJSON(body, "checkoutForms")
	if err != nil {
		return Page{}, &parsererror.FetchError{Provider: string(models.ProviderAllegro), Status: resp.StatusCode, Err: err}
	}
	var meta struct {
		TotalCount int `json:"totalCount"`
	}
	if err := json.Unmarshal(body, &meta); err != nil {
		return Page{}, &parsererror.FetchError{Provider: string(models.ProviderAllegro), Status: resp.StatusCode, Err: err}
	}
	return Page{Forms: forms, Offset: offset, TotalCount: meta.TotalCount}, nil
}

// FetchAll walks every page and returns all checkout forms.
func (f *Fetcher) FetchAll(ctx context.Context) ([]parser.Record, error) {
	var all []parser.Record
	offset := 0
	for {
		page, err := f.FetchPage(ctx, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Forms...)
		f.GetLogger().Debug("Fetched checkout forms page",
			logging.F(logging.FieldProvider, models.ProviderAllegro),
			logging.F(logging.FieldCount, len(page.Forms)),
			logging.F(logging.FieldTotal, page.TotalCount))
		if !page.HasMore() {
			return all, nil
		}
		offset += len(page.Forms)
	}
}

// FetchPurchases fetches every checkout form and maps its line items with
// the same mapper used for JSON file imports. It returns the accepted
// purchases and the number of rejected lines.
func (f *Fetcher) FetchPurchases(ctx context.Context, now time.Time) ([]models.Purchase, int, error) {
	forms, err := f.FetchAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	var lines []parser.Record
	for _, form := range forms {
		lines = append(lines, ExpandCheckoutForm(form)...)
	}
	d, _ := Provider().Dialect(parser.FormatJSON)
	purchases, rejected := parser.MapRecords(d, lines, now)

	f.GetLogger().Info("Fetched Allegro purchases",
		logging.F(logging.FieldCount, len(purchases)),
		logging.F(logging.FieldSkipped, rejected))
	return purchases, rejected, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if s == "" {
		return "empty response body"
	}
	return s
}
