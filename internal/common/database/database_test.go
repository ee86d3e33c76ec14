package database

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplychain-copilot/internal/common/config"
)

func TestNewSQL_SQLiteInMemory(t *testing.T) {
	client, err := NewSQL(config.StoreConfig{Driver: "sqlite", DSN: ":memory:", MaxConnections: 1, MaxIdle: 1})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, "sqlite", client.Driver)
}

func TestNewSQL_UnsupportedDriver(t *testing.T) {
	_, err := NewSQL(config.StoreConfig{Driver: "oracle", DSN: "x"})
	assert.Error(t, err)
}

func TestNewRedis_Ping(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))

	_, err = NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}

func TestNewElasticsearch(t *testing.T) {
	client, err := NewElasticsearch(config.RetrievalConfig{Addresses: []string{"http://localhost:9200"}, Username: "elastic", Password: "changeme"})
	require.NoError(t, err)
	assert.NotNil(t, client.Client)
}

func TestElasticsearchClient_Ready(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/":
			_, _ = w.Write([]byte(`{"version":{"number":"8.11.0"},"tagline":"You Know, for Search"}`))
		case r.Method == http.MethodHead && r.URL.Path == "/supply_docs":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client, err := NewElasticsearch(config.RetrievalConfig{Addresses: []string{server.URL}})
	require.NoError(t, err)

	ctx := context.Background()
	assert.NoError(t, client.Ready("supply_docs")(ctx))

	ok, err := client.IndexExists(ctx, "missing_docs")
	require.NoError(t, err)
	assert.False(t, ok)

	err = client.Ready("missing_docs")(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing_docs not found")
}

func TestElasticsearchClient_Ready_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	client, err := NewElasticsearch(config.RetrievalConfig{Addresses: []string{addr}})
	require.NoError(t, err)
	assert.Error(t, client.Ready("supply_docs")(context.Background()))
}
