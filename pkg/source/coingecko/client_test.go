package coingecko

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"coinflow/pkg/source"
)

const marketsPayload = `[
  {"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":65000.12,"market_cap":1280000000000,"total_volume":32000000000,"last_updated":"2026-08-29T10:00:05.123Z"},
  {"id":"ethereum","symbol":"eth","name":"Ethereum","current_price":3400.5,"market_cap":410000000000,"total_volume":18000000000,"last_updated":"2026-08-29T10:00:04.001Z"}
]`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	client := NewClient(
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()),
		WithTimeout(2*time.Second),
	)
	return server, client
}

func TestClientMarkets(t *testing.T) {
	server, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/coins/markets", r.URL.Path)
		require.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		require.Equal(t, "bitcoin,ethereum", r.URL.Query().Get("ids"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(marketsPayload))
	})
	defer server.Close()

	snapshots, err := client.Markets(context.Background(), []string{"bitcoin", "ethereum"}, 10)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)

	btc := snapshots[0]
	require.Equal(t, "bitcoin", btc.ID)
	require.Equal(t, "BTC", btc.Symbol)
	require.Equal(t, "Bitcoin", btc.Name)
	require.NotNil(t, btc.CurrentPrice)
	require.InDelta(t, 65000.12, *btc.CurrentPrice, 1e-9)
	require.NotNil(t, btc.LastUpdated)
	require.Equal(t, 2026, btc.LastUpdated.UTC().Year())
}

func TestClientMarketsPartialResult(t *testing.T) {
	// One requested id unknown to the provider: two ids in, one row out.
	server, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":65000.12,"market_cap":null,"total_volume":null,"last_updated":null}]`))
	})
	defer server.Close()

	snapshots, err := client.Markets(context.Background(), []string{"bitcoin", "no-such-coin"}, 10)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	require.Nil(t, snapshots[0].MarketCap)
	require.Nil(t, snapshots[0].LastUpdated)
}

func TestClientMarketsLimit(t *testing.T) {
	server, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "1", r.URL.Query().Get("per_page"))
		_, _ = w.Write([]byte(marketsPayload))
	})
	defer server.Close()

	snapshots, err := client.Markets(context.Background(), []string{"bitcoin", "ethereum"}, 1)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
}

func TestClientMarketsUnavailable(t *testing.T) {
	server, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})
	defer server.Close()

	_, err := client.Markets(context.Background(), []string{"bitcoin"}, 10)
	require.Error(t, err)
	require.ErrorIs(t, err, source.ErrUnavailable)
}

func TestClientMarketsTransportError(t *testing.T) {
	server, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close() // connection refused from here on

	_, err := client.Markets(context.Background(), []string{"bitcoin"}, 10)
	require.ErrorIs(t, err, source.ErrUnavailable)
}

func TestClientMarketsSchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "price as string", body: `[{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":"65000.12"}]`},
		{name: "missing id", body: `[{"symbol":"btc","name":"Bitcoin","current_price":65000.12}]`},
		{name: "missing symbol", body: `[{"id":"bitcoin","name":"Bitcoin","current_price":65000.12}]`},
		{name: "not an array", body: `{"error":"unexpected"}`},
		{name: "truncated body", body: `[{"id":"bitcoin"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			defer server.Close()

			_, err := client.Markets(context.Background(), []string{"bitcoin"}, 10)
			require.Error(t, err)
			require.ErrorIs(t, err, source.ErrSchema)
			require.False(t, errors.Is(err, source.ErrUnavailable))
		})
	}
}

func TestClientMarketsNoIDs(t *testing.T) {
	client := NewClient()
	_, err := client.Markets(context.Background(), nil, 0)
	require.Error(t, err)
}
