package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"epages-rest-layer/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	query  url.Values
	header http.Header
	body   []byte
}

type recorder struct {
	mu    sync.Mutex
	calls []recorded
}

func (r *recorder) add(c recorded) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

func (r *recorder) all() []recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recorded(nil), r.calls...)
}

// newTestClient starts a server running handler and returns a client
// connected to it with token "secret".
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *recorder, *Metrics) {
	t.Helper()
	calls := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls.add(recorded{r.Method, r.URL.Path, r.URL.Query(), r.Header.Clone(), body})
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	session := domain.NewSession()
	require.True(t, session.Connect(strings.TrimPrefix(srv.URL, "http://"), "DemoShop", "secret", false))
	metrics := NewMetrics(prometheus.NewRegistry())
	c := NewClientWithOptions(session, Options{Metrics: metrics, UserAgent: "epages-test"}, zerolog.Nop())
	return c, calls, metrics
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", MediaTypeVendor)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func TestClient_Do_BuildsURLAndHeaders(t *testing.T) {
	c, calls, _ := newTestClient(t, respond(http.StatusOK, `{"items":[]}`))

	resp, err := c.Do(context.Background(), domain.Request{
		Method:   domain.MethodGet,
		Path:     "products",
		Locale:   "de_DE",
		Currency: "EUR",
		Query:    url.Values{"resultsPerPage": {"10"}},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, map[string]any{"items": []any{}}, resp.JSON)
	assert.Positive(t, resp.BodySize)

	require.Len(t, calls.all(), 1)
	got := calls.all()[0]
	assert.Equal(t, "GET", got.method)
	assert.Equal(t, "/rs/shops/DemoShop/products", got.path)
	assert.Equal(t, "de_DE", got.query.Get("locale"))
	assert.Equal(t, "EUR", got.query.Get("currency"))
	assert.Equal(t, "10", got.query.Get("resultsPerPage"))
	assert.Equal(t, MediaTypeVendor, got.header.Get("Accept"))
	assert.Equal(t, "Bearer secret", got.header.Get("Authorization"))
	assert.Equal(t, "epages-test", got.header.Get("User-Agent"))
	assert.Empty(t, got.body)
}

func TestClient_Do_AnonymousSessionSendsNoAuthorization(t *testing.T) {
	c, calls, _ := newTestClient(t, respond(http.StatusOK, `{"default":"de_DE"}`))
	v := c.Session().View()
	require.True(t, c.Session().ConnectAnonymous(v.Host, v.Shop, false))

	_, err := c.Send(context.Background(), domain.MethodGet, "locales", nil)
	require.NoError(t, err)
	assert.Empty(t, calls.all()[0].header.Get("Authorization"))
}

func TestClient_Do_PatchIsWrappedInArray(t *testing.T) {
	c, calls, _ := newTestClient(t, respond(http.StatusOK, `{"id":"1","name":"New"}`))

	op := map[string]any{"op": "replace", "path": "/name", "value": "New"}
	_, err := c.Send(context.Background(), domain.MethodPatch, "products/1", op)
	require.NoError(t, err)

	got := calls.all()[0]
	assert.Equal(t, MediaTypeJSONPatch, got.header.Get("Content-Type"))
	var doc []map[string]any
	require.NoError(t, json.Unmarshal(got.body, &doc))
	assert.Equal(t, []map[string]any{op}, doc)
}

func TestClient_Do_PostSendsJSON(t *testing.T) {
	c, calls, _ := newTestClient(t, respond(http.StatusCreated, `{"id":"42"}`))

	out, err := c.Send(context.Background(), domain.MethodPost, "products", map[string]any{"name": "Widget"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "42"}, out)
	assert.Equal(t, MediaTypeJSON, calls.all()[0].header.Get("Content-Type"))
	assert.JSONEq(t, `{"name":"Widget"}`, string(calls.all()[0].body))
}

func TestClient_Do_Classification(t *testing.T) {
	tests := []struct {
		name     string
		method   domain.Method
		status   int
		body     string
		accepted []int
		want     error
		wantKind domain.Kind
		wantResp bool
	}{
		{
			name:     "rate limited even with a JSON error body",
			method:   domain.MethodGet,
			status:   http.StatusTooManyRequests,
			body:     `{"error":"invalid product id"}`,
			want:     domain.ErrRateLimited,
			wantKind: domain.KindRateLimited,
		},
		{
			name:     "status outside the default set",
			method:   domain.MethodGet,
			status:   http.StatusNotFound,
			body:     `{"message":"not found"}`,
			want:     domain.ErrWrongResponse,
			wantKind: domain.KindWrongResponse,
		},
		{
			name:     "redirects are not followed",
			method:   domain.MethodGet,
			status:   http.StatusFound,
			want:     domain.ErrWrongResponse,
			wantKind: domain.KindWrongResponse,
		},
		{
			name:     "caller accepted set overrides default",
			method:   domain.MethodGet,
			status:   http.StatusAccepted,
			body:     `{"ok":true}`,
			accepted: []int{202},
			wantResp: true,
		},
		{
			name:     "delete without content is a soft error",
			method:   domain.MethodDelete,
			status:   http.StatusNoContent,
			want:     domain.ErrEmptyBody,
			wantKind: domain.KindEmptyBody,
			wantResp: true,
		},
		{
			name:     "invalid JSON on an accepted status",
			method:   domain.MethodGet,
			status:   http.StatusOK,
			body:     `{"broken"`,
			want:     domain.ErrEmptyBody,
			wantKind: domain.KindEmptyBody,
			wantResp: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.status == http.StatusFound {
					w.Header().Set("Location", "/elsewhere")
				}
				respond(tt.status, tt.body)(w, r)
			})

			resp, err := c.Do(context.Background(), domain.Request{Method: tt.method, Path: "products/1", Accepted: tt.accepted})

			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
				assert.Equal(t, tt.wantKind, domain.KindOf(err))
				assert.Equal(t, err, c.LastError())
			}
			assert.Equal(t, tt.wantResp, resp != nil)
			if resp != nil {
				assert.Equal(t, tt.status, resp.Status)
			}
		})
	}
}

func TestClient_Do_WrongResponseCarriesBody(t *testing.T) {
	c, _, _ := newTestClient(t, respond(http.StatusBadRequest, `{"message":"bad"}`))

	_, err := c.Send(context.Background(), domain.MethodGet, "products", nil)

	var e *domain.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, http.StatusBadRequest, e.Status)
	assert.JSONEq(t, `{"message":"bad"}`, string(e.Body))
	assert.False(t, errors.Is(err, domain.ErrRateLimited))
}

func TestClient_Do_FailsFastWithoutNetworkCall(t *testing.T) {
	tests := []struct {
		name string
		req  domain.Request
		prep func(*Client)
		want error
	}{
		{
			name: "not connected",
			req:  domain.Request{Method: domain.MethodGet, Path: "products"},
			prep: func(c *Client) { c.Session().Disconnect() },
			want: domain.ErrNotConnected,
		},
		{
			name: "empty path",
			req:  domain.Request{Method: domain.MethodGet, Path: ""},
			want: domain.ErrValidation,
		},
		{
			name: "path with query",
			req:  domain.Request{Method: domain.MethodGet, Path: "products?page=1"},
			want: domain.ErrValidation,
		},
		{
			name: "invalid locale",
			req:  domain.Request{Method: domain.MethodGet, Path: "products", Locale: "german"},
			want: domain.ErrValidation,
		},
		{
			name: "invalid currency",
			req:  domain.Request{Method: domain.MethodGet, Path: "products", Currency: "euro"},
			want: domain.ErrValidation,
		},
		{
			name: "scalar payload",
			req:  domain.Request{Method: domain.MethodPost, Path: "products", Payload: "name=Widget"},
			want: domain.ErrValidation,
		},
		{
			name: "empty payload",
			req:  domain.Request{Method: domain.MethodPost, Path: "products", Payload: map[string]any{}},
			want: domain.ErrValidation,
		},
		{
			name: "unsupported verb",
			req:  domain.Request{Method: "TRACE", Path: "products"},
			want: domain.ErrUnsupportedMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, calls, _ := newTestClient(t, respond(http.StatusOK, `{}`))
			if tt.prep != nil {
				tt.prep(c)
			}

			resp, err := c.Do(context.Background(), tt.req)

			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
			assert.Empty(t, calls.all())
		})
	}
}

func TestClient_SendWithLocalization(t *testing.T) {
	c, calls, _ := newTestClient(t, respond(http.StatusOK, `{"title":"AGB"}`))

	out, err := c.SendWithLocalization(context.Background(), domain.MethodGet, "legal/terms-and-conditions", "de_DE", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "AGB"}, out)
	assert.Equal(t, "de_DE", calls.all()[0].query.Get("locale"))

	_, err = c.SendWithLocalization(context.Background(), domain.MethodGet, "legal/terms-and-conditions", "", nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Len(t, calls.all(), 1)
}

func TestClient_Do_UsesSessionDefaultVerb(t *testing.T) {
	c, calls, _ := newTestClient(t, respond(http.StatusCreated, `{"id":"1"}`))
	require.True(t, c.Session().SetRequestMethod(domain.MethodPost))

	_, err := c.Do(context.Background(), domain.Request{Path: "products", Payload: map[string]any{"name": "x"}})
	require.NoError(t, err)
	assert.Equal(t, "POST", calls.all()[0].method)
}

func TestClient_Do_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	host := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	session := domain.NewSession()
	require.True(t, session.Connect(host, "DemoShop", "secret", false))
	metrics := NewMetrics(prometheus.NewRegistry())
	c := NewClientWithOptions(session, Options{Metrics: metrics, ConnectTimeout: time.Second}, zerolog.Nop())

	resp, err := c.Do(context.Background(), domain.Request{Method: domain.MethodGet, Path: "products"})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "products", "network_error")))
}

func TestClient_LastErrorClearedAfterSuccess(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			respond(http.StatusInternalServerError, ``)(w, r)
			return
		}
		respond(http.StatusOK, `{"ok":true}`)(w, r)
	})

	_, err := c.Send(context.Background(), domain.MethodGet, "products", nil)
	require.Error(t, err)
	require.Error(t, c.LastError())

	fail.Store(false)
	_, err = c.Send(context.Background(), domain.MethodGet, "products", nil)
	require.NoError(t, err)
	assert.NoError(t, c.LastError())
}

func TestMetrics_CountsOutcomes(t *testing.T) {
	c, _, metrics := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/missing") {
			respond(http.StatusNotFound, `{}`)(w, r)
			return
		}
		respond(http.StatusOK, `{"id":"1"}`)(w, r)
	})

	_, _ = c.Send(context.Background(), domain.MethodGet, "products/1", nil)
	_, _ = c.Send(context.Background(), domain.MethodGet, "products/2", nil)
	_, _ = c.Send(context.Background(), domain.MethodGet, "orders/missing", nil)

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "products", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "orders", "wrong_response")))
}

func TestRateLimiter(t *testing.T) {
	assert.Nil(t, NewRateLimiter(0, 5))
	assert.NoError(t, (*RateLimiter)(nil).Wait(context.Background()))

	l := NewRateLimiter(0.001, 1)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, l.Wait(ctx))
}

func TestClient_Do_RateLimiterCancelledContextIsNetworkError(t *testing.T) {
	c, calls, _ := newTestClient(t, respond(http.StatusOK, `{}`))
	c.rateLimiter = NewRateLimiter(0.001, 1)
	require.NoError(t, c.rateLimiter.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Do(ctx, domain.Request{Method: domain.MethodGet, Path: "products"})

	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.Empty(t, calls.all())
}
