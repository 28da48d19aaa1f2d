package odata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crownpoint-data/pos-sync/poller/internal/secrets"
)

type staticCreds struct{}

func (staticCreds) Credentials(ctx context.Context) (secrets.Credentials, error) {
	return secrets.Credentials{SiteID: "site-guid", AccessToken: "test-token"}, nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(ClientConfig{
		BaseURL:    srv.URL,
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		RetryWait:  time.Millisecond,
		PageSize:   1000,
	}, staticCreds{}, nil)
	return client, srv
}

func TestFetchPage_QueryAndAuth(t *testing.T) {
	var gotQuery map[string]string
	var gotAuth string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = map[string]string{}
		for key := range r.URL.Query() {
			gotQuery[key] = r.URL.Query().Get(key)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"d": []Record{{"Id": 1}}})
	})

	endpoint := DefaultEndpoints()["Checks"]
	target := time.Date(2023, 1, 1, 15, 4, 5, 0, time.UTC)
	records, err := client.FetchPage(context.Background(), endpoint, &target, 2000)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "AccessToken=test-token", gotAuth)
	assert.Equal(t, "1000", gotQuery["$top"])
	assert.Equal(t, "2000", gotQuery["$skip"])
	assert.Equal(t, "Id", gotQuery["$orderby"])
	assert.Equal(t, "json", gotQuery["$format"])
	assert.Equal(t,
		"BusinessDate eq datetime'2023-01-01T00:00:00' and Site_ObjectId eq guid'site-guid'",
		gotQuery["$filter"])
}

func TestFetchPage_NoDateNoSite(t *testing.T) {
	var rawQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(map[string]any{"d": []Record{}})
	})

	endpoint := Endpoint{Name: "Payments", TableName: "pos_payments"}
	records, err := client.FetchPage(context.Background(), endpoint, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NotContains(t, rawQuery, "%24filter")
}

func TestFetchPage_RetriesTransient(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"d": []Record{{"Id": 1}}})
	})

	endpoint := DefaultEndpoints()["Checks"]
	records, err := client.FetchPage(context.Background(), endpoint, nil, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchPage_ExhaustedRetries(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	endpoint := DefaultEndpoints()["Checks"]
	_, err := client.FetchPage(context.Background(), endpoint, nil, 0)
	require.Error(t, err)
	// Initial attempt plus the configured retry budget.
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchPage_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	endpoint := DefaultEndpoints()["Checks"]
	_, err := client.FetchPage(context.Background(), endpoint, nil, 0)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
