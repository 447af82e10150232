package coingecko

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

	"coinflow/pkg/source"
)

const (
	defaultBaseURL    = "https://api.coingecko.com/api/v3"
	defaultVsCurrency = "usd"
	defaultTimeout    = 10 * time.Second
)

// Client fetches market snapshots from the CoinGecko REST API. It performs
// exactly one attempt per call; retries are the scheduler's concern.
type Client struct {
	baseURL    string
	vsCurrency string
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures a new Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the default API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithVsCurrency overrides the quote currency (defaults to usd).
func WithVsCurrency(cur string) Option {
	return func(c *Client) {
		if cur != "" {
			c.vsCurrency = strings.ToLower(cur)
		}
	}
}

// WithTimeout overrides the per-call budget.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient constructs a CoinGecko client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		vsCurrency: defaultVsCurrency,
		httpClient: &http.Client{Timeout: defaultTimeout},
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: client.timeout}
	}
	return client
}

// Markets returns one snapshot per asset CoinGecko reports for ids, in the
// order the API returned them. A shorter result than ids is a partial
// result and is returned as-is.
func (c *Client) Markets(ctx context.Context, ids []string, limit int) ([]source.Snapshot, error) {
	if limit <= 0 {
		limit = len(ids)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("coingecko: no asset ids requested")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := url.Values{}
	query.Set("vs_currency", c.vsCurrency)
	if len(ids) > 0 {
		query.Set("ids", strings.Join(ids, ","))
	}
	query.Set("order", "market_cap_desc")
	query.Set("per_page", strconv.Itoa(limit))
	query.Set("page", "1")
	query.Set("sparkline", "false")
	endpoint := c.baseURL + "/coins/markets?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("coingecko: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", source.ErrUnavailable, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v", source.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", source.ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: http status %d: %s", source.ErrUnavailable, resp.StatusCode, truncate(body, 200))
	}

	return decodeMarkets(body, limit)
}

// decodeMarkets validates and converts the payload. Any missing required
// field or mistyped value fails the whole response.
func decodeMarkets(body []byte, limit int) ([]source.Snapshot, error) {
	var rows []marketRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", source.ErrSchema, err)
	}

	if len(rows) > limit {
		rows = rows[:limit]
	}
	snapshots := make([]source.Snapshot, 0, len(rows))
	for i, row := range rows {
		if strings.TrimSpace(row.ID) == "" {
			return nil, fmt.Errorf("%w: row %d missing id", source.ErrSchema, i)
		}
		if strings.TrimSpace(row.Symbol) == "" {
			return nil, fmt.Errorf("%w: row %d (%s) missing symbol", source.ErrSchema, i, row.ID)
		}
		if strings.TrimSpace(row.Name) == "" {
			return nil, fmt.Errorf("%w: row %d (%s) missing name", source.ErrSchema, i, row.ID)
		}
		snapshots = append(snapshots, source.Snapshot{
			ID:           row.ID,
			Symbol:       strings.ToUpper(row.Symbol),
			Name:         row.Name,
			CurrentPrice: row.CurrentPrice,
			MarketCap:    row.MarketCap,
			TotalVolume:  row.TotalVolume,
			LastUpdated:  row.LastUpdated,
		})
	}
	return snapshots, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
