package velox

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veloxdex/velox-go/internal/domain"
)

func TestOrderbookMetas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/orderbookmetas", r.URL.Path)
		assert.Equal(t, "test-auth", r.Header.Get("Auth"))
		assert.Equal(t, "42161", r.URL.Query().Get("blockchain_id"))
		w.Write([]byte(`{"orderbookmetas":[{"symbol":"WETH_USDC","id":0,"pow_price_tick":100000,"pow_size_tick":1000000000000000,"token0_symbol":"WETH","token1_symbol":"USDC"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-auth", 42161, time.Second)
	metas, err := client.OrderbookMetas(context.Background())
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "WETH_USDC", metas[0].Symbol)
	assert.Equal(t, int64(100_000), metas[0].PowPriceTick)
}

func TestHintIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Non-public endpoint: no /api/v1 prefix.
		assert.Equal(t, "/hint_id", r.URL.Path)
		assert.Equal(t, "WETH_USDC", r.URL.Query().Get("orderbook_symbol"))
		assert.Equal(t, "1000,1000.2", r.URL.Query().Get("prices"))
		assert.Equal(t, "buy,sell", r.URL.Query().Get("sides"))
		w.Write([]byte(`{"hint_ids":[4,9]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 42161, time.Second)
	hints, err := client.HintIDs(context.Background(), "WETH_USDC",
		[]string{"1000", "1000.2"},
		[]domain.OrderSide{domain.OrderSideBuy, domain.OrderSideSell})
	require.NoError(t, err)
	assert.Equal(t, []uint32{4, 9}, hints)
}

func TestGasPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gas_price", r.URL.Path)
		w.Write([]byte(`{"gas_price":4000000000}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 1, time.Second)
	price, err := client.GasPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4_000_000_000), price.Int64())
}

func TestNon2xxIsProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 1, time.Second)
	_, err := client.GasPrice(context.Background())

	var provErr *domain.ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, http.StatusBadGateway, provErr.StatusCode)
	assert.Equal(t, "/gas_price", provErr.Endpoint)
}

func TestUndecodableBodyIsProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 1, time.Second)
	_, err := client.Blockchains(context.Background())

	var provErr *domain.ProviderError
	require.True(t, errors.As(err, &provErr))
}

func TestTimeoutCap(t *testing.T) {
	client := NewClient("http://localhost", "", 1, time.Minute)
	assert.Equal(t, DefaultTimeout, client.httpClient.Timeout)

	client = NewClient("http://localhost", "", 1, 500*time.Millisecond)
	assert.Equal(t, 500*time.Millisecond, client.httpClient.Timeout)
}
