package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", WithRateLimit(1000, 1000))
}

func TestFetchField_OK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/fetch-field", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "tagline", payload["field"])
		assert.EqualValues(t, 5000, payload["budget_ms"])

		json.NewEncoder(w).Encode(FieldResult{
			Status: StatusOK,
			Value:  []string{"Hand-poured candles"},
		})
	})

	res, err := c.FetchField(context.Background(), FieldRequest{
		Field:    "tagline",
		RecordID: "rec-1",
		Budget:   5 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, []string{"Hand-poured candles"}, res.Value)
	assert.Equal(t, http.StatusOK, res.Diagnostics.HTTPStatus)
}

func TestFetchField_DefinitiveStatusesAreNotErrors(t *testing.T) {
	for _, status := range []Status{StatusNotFound, StatusNotDisclosed, StatusDeferred} {
		t.Run(string(status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(FieldResult{Status: status})
			})

			res, err := c.FetchField(context.Background(), FieldRequest{Field: "headquarters_location", RecordID: "rec-1"})
			require.NoError(t, err)
			assert.Equal(t, status, res.Status)
		})
	}
}

func TestFetchField_RateLimitMapsToDeferred(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	res, err := c.FetchField(context.Background(), FieldRequest{Field: "reviews", RecordID: "rec-1"})
	require.NoError(t, err)
	assert.Equal(t, StatusDeferred, res.Status)
	assert.True(t, res.Diagnostics.RateLimited)
}

func TestFetchField_ServerErrorMapsToUnreachable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	res, err := c.FetchField(context.Background(), FieldRequest{Field: "logo", RecordID: "rec-1"})
	require.NoError(t, err)
	assert.Equal(t, StatusUpstreamUnreachable, res.Status)
	assert.Equal(t, http.StatusBadGateway, res.Diagnostics.HTTPStatus)
}

func TestFetchField_GatewayTimeoutMapsToTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	})

	res, err := c.FetchField(context.Background(), FieldRequest{Field: "industries", RecordID: "rec-1"})
	require.NoError(t, err)
	assert.Equal(t, StatusUpstreamTimeout, res.Status)
}

func TestFetchField_BudgetRacesTheCall(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		json.NewEncoder(w).Encode(FieldResult{Status: StatusOK})
	})

	start := time.Now()
	res, err := c.FetchField(context.Background(), FieldRequest{
		Field:    "reviews",
		RecordID: "rec-1",
		Budget:   50 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusUpstreamTimeout, res.Status)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestFetchField_ConnectionRefusedMapsToUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "", WithRateLimit(1000, 1000))

	res, err := c.FetchField(context.Background(), FieldRequest{Field: "tagline", RecordID: "rec-1"})
	require.NoError(t, err)
	assert.Equal(t, StatusUpstreamUnreachable, res.Status)
	assert.NotEmpty(t, res.Diagnostics.Message)
}

func TestFetchField_ClientErrorIsAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad field", http.StatusBadRequest)
	})

	_, err := c.FetchField(context.Background(), FieldRequest{Field: "bogus", RecordID: "rec-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 400")
}
