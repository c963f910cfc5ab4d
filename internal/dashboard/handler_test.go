package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/trend-dashboard/internal/core/domain"
	coreerrors "github.com/lueurxax/trend-dashboard/internal/core/errors"
	"github.com/lueurxax/trend-dashboard/internal/core/ports/mocks"
	"github.com/lueurxax/trend-dashboard/internal/snapshot"
	"github.com/lueurxax/trend-dashboard/internal/trends"
)

const testPassword = "geheim"

type refresherFunc func(ctx context.Context, trigger string) error

func (f refresherFunc) Refresh(ctx context.Context, trigger string) error {
	return f(ctx, trigger)
}

func sampleTrends() []domain.Trend {
	return []domain.Trend{
		{
			ID: "1", Topic: "KI-Playlists", Category: "Audio", Summary: "Personalisierte Playlists",
			RelevanceScore: domain.Float64(0.92), URL: "https://www.example.com/a", PublishedDate: "2026-01-29",
		},
		{
			ID: "2", Topic: "Hörbücher", Category: "Podcast", Summary: "Hörbuch-Abos wachsen",
			RelevanceScore: domain.Float64(0.55), URL: "https://news.example.org/b", PublishedDate: "2026-01-28",
		},
		{
			ID: "3", Topic: "Live-Events", Category: "Audio", Summary: "Konzert-Streams",
			RelevanceScore: domain.Float64(0.31), PublishedDate: "2026-02-10",
		},
	}
}

type testEnv struct {
	handler *Handler
	store   *snapshot.Store
}

func newTestEnv(t *testing.T, opts Options, load bool) testEnv {
	t.Helper()

	store, err := snapshot.New(snapshot.Options{Location: time.UTC})
	require.NoError(t, err)

	if load {
		require.NoError(t, store.Refresh(context.Background(), mocks.NewTrendSource(sampleTrends()...), snapshot.TriggerStartup))
	}

	opts.Store = store
	if opts.Password != "" && opts.Sessions == nil {
		opts.Sessions = NewSessionService(testSecret, time.Hour)
	}

	if opts.Export == (trends.RowOptions{}) {
		opts.Export = trends.RowOptions{SourceLabel: "Newsletter", PagePlaceholder: "-"}
	}

	handler, err := NewHandler(opts)
	require.NoError(t, err)

	return testEnv{handler: handler, store: store}
}

func (e testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	return rec
}

func TestNewHandler_RequiresStore(t *testing.T) {
	_, err := NewHandler(Options{})
	require.ErrorIs(t, err, coreerrors.ErrClientNotInitialized)
}

func TestHandler_NotReady(t *testing.T) {
	env := newTestEnv(t, Options{}, false)

	rec := env.do(httptest.NewRequest(http.MethodGet, pathView, nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "noch nicht geladen")
}

func TestHandler_View(t *testing.T) {
	env := newTestEnv(t, Options{}, true)

	rec := env.do(httptest.NewRequest(http.MethodGet, pathView+"?category=Audio&open=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(contentTypeHeader), "application/json")
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	var resp struct {
		View struct {
			Total   int `json:"total"`
			Buckets []struct {
				Key   string `json:"key"`
				Items []struct {
					ID string `json:"id"`
				} `json:"items"`
			} `json:"buckets"`
			Stats struct {
				Count int `json:"count"`
			} `json:"stats"`
			SourceClusters bool `json:"source_clusters"`
		} `json:"view"`
		Status   snapshot.Status `json:"status"`
		Expanded []string        `json:"expanded"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 3, resp.View.Total)
	assert.Equal(t, 2, resp.View.Stats.Count)
	assert.False(t, resp.View.SourceClusters)
	require.Len(t, resp.View.Buckets, 2)
	assert.Equal(t, "week:7", resp.View.Buckets[0].Key)
	assert.Equal(t, "week:5", resp.View.Buckets[1].Key)
	assert.True(t, resp.Status.Ready)
	assert.Equal(t, []string{"1"}, resp.Expanded)
}

func TestHandler_ViewBadGroup(t *testing.T) {
	env := newTestEnv(t, Options{}, true)

	rec := env.do(httptest.NewRequest(http.MethodGet, pathView+"?group=yearly", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Options(t *testing.T) {
	env := newTestEnv(t, Options{}, true)

	rec := env.do(httptest.NewRequest(http.MethodGet, pathOptions+"?group=month", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp OptionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, []string{"Audio", "Podcast"}, resp.Categories)
	require.Len(t, resp.BucketOptions, 2)
	assert.Equal(t, "month:2026-02", resp.BucketOptions[0].Value)
	assert.Len(t, resp.ExportOptions.Months, 2)
	assert.Len(t, resp.GroupModes, 3)
}

func TestHandler_IndexHTML(t *testing.T) {
	env := newTestEnv(t, Options{}, true)

	req := httptest.NewRequest(http.MethodGet, "/?q=playlists", nil)
	req.Header.Set("Accept", "text/html")

	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(contentTypeHeader), "text/html")
	assert.Equal(t, "private, no-store", rec.Header().Get("Cache-Control"))

	body := rec.Body.String()
	assert.Contains(t, body, "KI-Playlists")
	assert.NotContains(t, body, "Live-Events")
	assert.Contains(t, body, "KW 5")
	assert.Contains(t, body, "0.92")
}

func TestHandler_Auth(t *testing.T) {
	env := newTestEnv(t, Options{Password: testPassword}, true)

	t.Run("html redirects to login", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept", "text/html")

		rec := env.do(req)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, pathLogin, rec.Header().Get("Location"))
	})

	t.Run("api requires session", func(t *testing.T) {
		rec := env.do(httptest.NewRequest(http.MethodGet, pathView, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("login form renders", func(t *testing.T) {
		rec := env.do(httptest.NewRequest(http.MethodGet, pathLogin, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `name="password"`)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := env.do(loginRequest("falsch"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), errMsgWrongPassword)
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("session cookie round trip", func(t *testing.T) {
		rec := env.do(loginRequest(testPassword))
		require.Equal(t, http.StatusSeeOther, rec.Code)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, sessionCookieName, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)

		req := httptest.NewRequest(http.MethodGet, pathView, nil)
		req.AddCookie(cookies[0])

		assert.Equal(t, http.StatusOK, env.do(req).Code)
	})

	t.Run("forged cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, pathView, nil)
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "forged"})

		assert.Equal(t, http.StatusUnauthorized, env.do(req).Code)
	})
}

func loginRequest(password string) *http.Request {
	form := url.Values{passwordFormField: {password}}
	req := httptest.NewRequest(http.MethodPost, pathLogin, strings.NewReader(form.Encode()))
	req.Header.Set(contentTypeHeader, "application/x-www-form-urlencoded")

	return req
}

func TestHandler_Logout(t *testing.T) {
	env := newTestEnv(t, Options{Password: testPassword}, true)

	rec := env.do(httptest.NewRequest(http.MethodPost, pathLogout, nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, pathLogin, rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestHandler_Export(t *testing.T) {
	env := newTestEnv(t, Options{}, true)

	rec := env.do(httptest.NewRequest(http.MethodGet, pathExport+"?scope=week&value=5&format=csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, `attachment; filename="trends_KW05.csv"`, rec.Header().Get(contentDispositionHeader))
	assert.Contains(t, rec.Header().Get(contentTypeHeader), "text/csv")

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "\ufeff"))
	assert.Contains(t, body, "KI-Playlists")
	assert.Contains(t, body, "Hörbücher")
	assert.NotContains(t, body, "Live-Events")
}

func TestHandler_ExportXLSXDefault(t *testing.T) {
	env := newTestEnv(t, Options{}, true)

	rec := env.do(httptest.NewRequest(http.MethodGet, pathExport+"?scope=month&value=2026-02", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, `attachment; filename="trends_2026-02.xlsx"`, rec.Header().Get(contentDispositionHeader))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))
}

func TestHandler_ExportBadRequest(t *testing.T) {
	env := newTestEnv(t, Options{}, true)

	tests := []struct {
		name  string
		query string
	}{
		{name: "bad week", query: "scope=week&value=60"},
		{name: "bad month", query: "scope=month&value=Februar"},
		{name: "bad kind", query: "scope=year"},
		{name: "bad format", query: "scope=all&format=pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(httptest.NewRequest(http.MethodGet, pathExport+"?"+tt.query, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandler_Refresh(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "ok", wantStatus: http.StatusOK},
		{name: "stale is fine", err: coreerrors.ErrStaleRefresh, wantStatus: http.StatusOK},
		{name: "upstream down", err: errors.New("boom"), wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotTrigger string

			env := newTestEnv(t, Options{Refresher: refresherFunc(func(_ context.Context, trigger string) error {
				gotTrigger = trigger
				return tt.err
			})}, true)

			rec := env.do(httptest.NewRequest(http.MethodPost, pathRefresh, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, snapshot.TriggerManual, gotTrigger)
		})
	}
}

func TestHandler_RefreshFormRedirects(t *testing.T) {
	env := newTestEnv(t, Options{Refresher: refresherFunc(func(context.Context, string) error { return nil })}, true)

	req := httptest.NewRequest(http.MethodPost, pathRefresh, strings.NewReader(""))
	req.Header.Set(contentTypeHeader, "application/x-www-form-urlencoded")

	rec := env.do(req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, pathIndex, rec.Header().Get("Location"))
}

func TestHandler_MethodAndRoute(t *testing.T) {
	env := newTestEnv(t, Options{}, true)

	assert.Equal(t, http.StatusMethodNotAllowed, env.do(httptest.NewRequest(http.MethodGet, pathRefresh, nil)).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, env.do(httptest.NewRequest(http.MethodPost, pathExport, nil)).Code)
	assert.Equal(t, http.StatusNotFound, env.do(httptest.NewRequest(http.MethodGet, "/nope", nil)).Code)
}

func TestHandler_RateLimit(t *testing.T) {
	env := newTestEnv(t, Options{RateLimit: 0.001, RateBurst: 1}, true)

	first := httptest.NewRequest(http.MethodGet, pathView, nil)
	first.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, http.StatusOK, env.do(first).Code)

	second := httptest.NewRequest(http.MethodGet, pathView, nil)
	second.RemoteAddr = "10.0.0.1:5678"
	assert.Equal(t, http.StatusTooManyRequests, env.do(second).Code)

	other := httptest.NewRequest(http.MethodGet, pathView, nil)
	other.RemoteAddr = "10.0.0.2:1234"
	assert.Equal(t, http.StatusOK, env.do(other).Code)
}

func TestHandler_RateLimitIgnoresForwardedForByDefault(t *testing.T) {
	env := newTestEnv(t, Options{RateLimit: 0.001, RateBurst: 1}, true)

	for i, xff := range []string{"203.0.113.1", "203.0.113.2"} {
		req := httptest.NewRequest(http.MethodGet, pathView, nil)
		req.RemoteAddr = "10.0.0.9:1234"
		req.Header.Set("X-Forwarded-For", xff)

		want := http.StatusOK
		if i > 0 {
			want = http.StatusTooManyRequests
		}

		assert.Equal(t, want, env.do(req).Code, "X-Forwarded-For %s", xff)
	}
}

func TestHandler_RateLimitTracksBoundedClients(t *testing.T) {
	env := newTestEnv(t, Options{RateLimit: 0.001, RateBurst: 1, RateLimitClients: 1}, true)

	request := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, pathView, nil)
		req.RemoteAddr = addr

		return env.do(req).Code
	}

	assert.Equal(t, http.StatusOK, request("10.0.0.1:1"))
	assert.Equal(t, http.StatusTooManyRequests, request("10.0.0.1:2"))
	assert.Equal(t, http.StatusOK, request("10.0.0.2:1"))
	assert.Equal(t, 1, env.handler.limiters.Len())

	// 10.0.0.1 was evicted and starts over.
	assert.Equal(t, http.StatusOK, request("10.0.0.1:3"))
}

func TestHandler_ClientIP(t *testing.T) {
	tests := []struct {
		name       string
		trustProxy bool
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{name: "remote addr", remoteAddr: "192.0.2.1:4000", want: "192.0.2.1"},
		{name: "ipv6 remote addr", remoteAddr: "[2001:db8::1]:4000", want: "2001:db8::1"},
		{name: "no port", remoteAddr: "192.0.2.1", want: "192.0.2.1"},
		{
			name:       "headers ignored without trust",
			remoteAddr: "192.0.2.1:4000",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5", "X-Real-IP": "198.51.100.7"},
			want:       "192.0.2.1",
		},
		{
			name:       "real ip behind proxy",
			trustProxy: true,
			remoteAddr: "192.0.2.1:4000",
			headers:    map[string]string{"X-Real-IP": "198.51.100.7"},
			want:       "198.51.100.7",
		},
		{
			name:       "first forwarded hop behind proxy",
			trustProxy: true,
			remoteAddr: "192.0.2.1:4000",
			headers:    map[string]string{"X-Forwarded-For": " 203.0.113.5, 10.0.0.1", "X-Real-IP": "198.51.100.7"},
			want:       "203.0.113.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, Options{TrustProxyHeaders: tt.trustProxy}, false)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr

			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			assert.Equal(t, tt.want, env.handler.clientIP(req))
		})
	}
}
