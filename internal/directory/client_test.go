package directory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(ClientConfig{
		BaseURL:     srv.URL,
		APIKey:      "secret",
		MaxRetries:  2,
		BaseBackoff: time.Millisecond,
		Limiter:     rate.NewLimiter(rate.Inf, 1),
	}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(ClientConfig{BaseURL: "not a url"}, nil)
	assert.Error(t, err)
}

func TestClient_SearchCompany(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/companies/search", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		switch r.URL.Query().Get("q") {
		case "Bain & Company":
			writeJSON(w, map[string]any{"companies": []map[string]any{
				{"id": "", "name": "Broken"},
				{"id": "c-1", "name": "Bain & Company", "industry": "Management Consulting"},
			}})
		default:
			writeJSON(w, map[string]any{"companies": []any{}})
		}
	}))

	company, err := c.SearchCompany(context.Background(), "Bain & Company")
	require.NoError(t, err)
	require.NotNil(t, company)
	assert.Equal(t, "c-1", company.ID, "records failing validation are skipped")

	company, err = c.SearchCompany(context.Background(), "Nobody Inc")
	require.NoError(t, err)
	assert.Nil(t, company)

	company, err = c.SearchCompany(context.Background(), " ")
	require.NoError(t, err)
	assert.Nil(t, company)
}

func TestClient_ListEmployees(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/companies/c-1/employees", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("current"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "25", r.URL.Query().Get("per_page"))
		writeJSON(w, map[string]any{
			"people":      []map[string]string{{"id": "p-1", "full_name": "Ada"}},
			"page":        2,
			"total_pages": 3,
		})
	}))

	page, err := c.ListEmployees(context.Background(), "c-1", ListOptions{Page: 2})
	require.NoError(t, err)
	assert.Equal(t, []Member{{ID: "p-1", FullName: "Ada"}}, page.Members)
	assert.True(t, page.HasNext())
}

func TestClient_EnrichPerson(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/people/p-1":
			writeJSON(w, map[string]any{
				"id":        "p-1",
				"full_name": "Ada",
				"experience": []map[string]string{
					{"company_id": "c-1", "company_name": "Bain & Company", "title": "Consultant", "start_date": "2018-01", "end_date": "2020-06-01"},
					{"company_name": "Google", "title": "PM", "start_date": "2020-07-01"},
					{"company_name": "Broken", "start_date": "sometime"},
				},
			})
		case "/people/p-bad":
			writeJSON(w, map[string]any{"full_name": "No ID"})
		default:
			http.NotFound(w, r)
		}
	}))

	person, err := c.EnrichPerson(context.Background(), "p-1")
	require.NoError(t, err)
	require.NotNil(t, person)
	assert.Len(t, person.Positions, 2, "malformed positions are dropped")
	assert.Equal(t, "c-1", person.Positions[0].Company.ID)
	assert.Nil(t, person.Positions[1].EndDate)

	person, err = c.EnrichPerson(context.Background(), "p-missing")
	require.NoError(t, err)
	assert.Nil(t, person)

	_, err = c.EnrichPerson(context.Background(), "p-bad")
	assert.Error(t, err)
}

func TestClient_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			writeJSON(w, map[string]any{"companies": []map[string]any{{"id": "c-1", "name": "Stripe"}}})
		}
	}))

	company, err := c.SearchCompany(context.Background(), "Stripe")
	require.NoError(t, err)
	require.NotNil(t, company)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_RateLimitPersists(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.SearchCompany(context.Background(), "Stripe")
	require.Error(t, err)
	var rl *RateLimitedError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, 3, rl.Attempts)
	assert.Equal(t, int32(3), calls.Load())
	assert.True(t, IsRetryable(err))
}

func TestClient_ServerErrorPersists(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := c.EnrichPerson(context.Background(), "p-1")
	var te *TransientError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
}

func TestClient_ClientErrorFailsFast(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))

	_, err := c.SearchCompany(context.Background(), "Stripe")
	var re *RequestError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusUnauthorized, re.StatusCode)
	assert.Equal(t, "bad key", re.Body)
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, IsRetryable(err))
}

func TestClient_ContextCancelled(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.SearchCompany(ctx, "Stripe")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 5*time.Second, parseRetryAfter("5"))
	assert.Equal(t, maxRetryAfter, parseRetryAfter("3600"))
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))
}
