// Package dashboard serves the trend dashboard: the HTML page, its JSON API and the
// spreadsheet download. All data comes from a snapshot.Store; the handler never talks to
// the upstream directly.
package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	coreerrors "github.com/lueurxax/trend-dashboard/internal/core/errors"
	"github.com/lueurxax/trend-dashboard/internal/export"
	"github.com/lueurxax/trend-dashboard/internal/snapshot"
	"github.com/lueurxax/trend-dashboard/internal/trends"
)

const (
	sessionCookieName = "trend_session"
	sessionCookiePath = "/"
	passwordFormField = "password"
	maxFormBytes      = 1 << 16
	pageTitle         = "Trend Dashboard"

	defaultRateLimitClients = 4096

	// Routes.
	pathIndex   = "/"
	pathLogin   = "/login"
	pathLogout  = "/logout"
	pathView    = "/api/view"
	pathOptions = "/api/options"
	pathRefresh = "/api/refresh"
	pathExport  = "/api/export"

	// Error titles.
	errTitleNotFound       = "Not Found"
	errTitleError          = "Error"
	errTitleMethodNotAllow = "Method Not Allowed"
	errTitleBadRequest     = "Bad Request"
	errTitleUnauthorized   = "Unauthorized"
	errTitleUnavailable    = "Daten nicht verfügbar"
	errTitleTooMany        = "Too Many Requests"

	// Error messages.
	errMsgLoginRequired = "Login required."
	errMsgWrongPassword = "Falsches Passwort."
	errMsgNotReady      = "Die Trenddaten wurden noch nicht geladen."
	errMsgRender        = "Failed to render page."
	errMsgRefresh       = "Refresh failed."
	errMsgExport        = "Export failed."
	errMsgRateLimited   = "Rate limit exceeded."

	// Headers.
	contentTypeHeader        = "Content-Type"
	contentTypeHTML          = "text/html; charset=utf-8"
	contentTypeJSON          = "application/json; charset=utf-8"
	contentDispositionHeader = "Content-Disposition"
	requestIDHeader          = "X-Request-ID"

	// Templates.
	tmplDashboard = "dashboard.html"
	tmplLogin     = "login.html"
	tmplError     = "error.html"

	// Log fields.
	logFieldRoute     = "route"
	logFieldRequestID = "request_id"
	logFieldStatus    = "status"

	resultSuccess = "success"
	resultFailure = "failure"
)

// Refresher reloads the snapshot on demand.
type Refresher interface {
	Refresh(ctx context.Context, trigger string) error
}

// Options configures a Handler.
type Options struct {
	Store     *snapshot.Store
	Refresher Refresher

	// Password enables the login gate when non-empty. Sessions must then be set.
	Password     string
	Sessions     *SessionService
	CookieSecure bool

	Export trends.RowOptions

	// RateLimit is the per client request rate. Zero disables limiting.
	RateLimit rate.Limit
	RateBurst int

	// RateLimitClients caps the tracked clients; the least recently seen is dropped first.
	RateLimitClients int

	// TrustProxyHeaders reads the client address from X-Forwarded-For and X-Real-IP.
	TrustProxyHeaders bool

	Logger *zerolog.Logger
}

// Handler serves the dashboard and its API.
type Handler struct {
	store        *snapshot.Store
	refresher    Refresher
	password     string
	sessions     *SessionService
	cookieSecure bool
	exportRows   trends.RowOptions
	renderer     *Renderer
	logger       *zerolog.Logger

	rateLimit  rate.Limit
	rateBurst  int
	trustProxy bool
	limiters   *lru.Cache[string, *rate.Limiter]
}

// NewHandler creates a dashboard handler.
func NewHandler(opts Options) (*Handler, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: snapshot store", coreerrors.ErrClientNotInitialized)
	}

	if opts.Password != "" && opts.Sessions == nil {
		return nil, fmt.Errorf("%w: session service", coreerrors.ErrMissingConfig)
	}

	renderer, err := NewRenderer(opts.Store.Location())
	if err != nil {
		return nil, err
	}

	clients := opts.RateLimitClients
	if clients <= 0 {
		clients = defaultRateLimitClients
	}

	limiters, err := lru.New[string, *rate.Limiter](clients)
	if err != nil {
		return nil, fmt.Errorf("rate limiter cache: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Handler{
		store:        opts.Store,
		refresher:    opts.Refresher,
		password:     opts.Password,
		sessions:     opts.Sessions,
		cookieSecure: opts.CookieSecure,
		exportRows:   opts.Export,
		renderer:     renderer,
		logger:       logger,
		rateLimit:    opts.RateLimit,
		rateBurst:    opts.RateBurst,
		trustProxy:   opts.TrustProxyHeaders,
		limiters:     limiters,
	}, nil
}

// ServeHTTP routes requests to dashboard endpoints.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
	if requestID == "" {
		requestID = uuid.NewString()
	}

	w.Header().Set(requestIDHeader, requestID)
	w.Header().Set("X-Robots-Tag", "noindex, nofollow")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, no-store")

	if !h.allowRequest(h.clientIP(r)) {
		status := h.writeError(w, r, http.StatusTooManyRequests, errTitleTooMany, errMsgRateLimited)
		h.recordMetrics("rate_limited", status, 0, start, requestID)

		return
	}

	route, status, resultSize := h.dispatch(w, r)

	h.recordMetrics(route, status, resultSize, start, requestID)
}

// dispatch matches the path and runs the endpoint.
func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request) (route string, status int, resultSize int) {
	switch r.URL.Path {
	case pathIndex:
		s, rs := h.handleIndex(w, r)
		return "index", s, rs
	case pathLogin:
		return "login", h.handleLogin(w, r), 0
	case pathLogout:
		return "logout", h.handleLogout(w, r), 0
	case pathView:
		s, rs := h.handleView(w, r)
		return "view", s, rs
	case pathOptions:
		return "options", h.handleOptions(w, r), 0
	case pathRefresh:
		return "refresh", h.handleRefresh(w, r), 0
	case pathExport:
		s, rs := h.handleExport(w, r)
		return "export", s, rs
	default:
		return "not_found", h.writeError(w, r, http.StatusNotFound, errTitleNotFound, "Unknown dashboard endpoint."), 0
	}
}

func (h *Handler) recordMetrics(route string, status, resultSize int, start time.Time, requestID string) {
	elapsed := time.Since(start)

	latencyHistogram.WithLabelValues(route).Observe(elapsed.Seconds())
	requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()

	if resultSize > 0 {
		resultSizeGauge.WithLabelValues(route).Set(float64(resultSize))
	}

	h.logger.Debug().
		Str(logFieldRoute, route).
		Int(logFieldStatus, status).
		Str(logFieldRequestID, requestID).
		Dur("elapsed", elapsed).
		Msg("dashboard request")
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) (int, int) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return h.writeError(w, r, http.StatusMethodNotAllowed, errTitleMethodNotAllow, "Use GET."), 0
	}

	if status, ok := h.requireSession(w, r); !ok {
		return status, 0
	}

	query := r.URL.Query()

	params, err := parseViewParams(query)
	if err != nil {
		return h.writeError(w, r, http.StatusBadRequest, errTitleBadRequest, err.Error()), 0
	}

	view, err := h.store.View(params)
	if err != nil {
		return h.writeViewError(w, r, err), 0
	}

	data := DashboardData{
		Title:       pageTitle,
		View:        view,
		Status:      h.store.Status(),
		Expand:      parseExpandState(query),
		GroupModes:  groupModeOptions(),
		AuthEnabled: h.authEnabled(),
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, tmplDashboard, data); err != nil {
		h.logger.Error().Err(err).Msg("render dashboard failed")
		return h.writeError(w, r, http.StatusInternalServerError, errTitleError, errMsgRender), 0
	}

	w.Header().Set(contentTypeHeader, contentTypeHTML)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)

	return http.StatusOK, view.Stats.Count
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) int {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		if !h.authEnabled() {
			http.Redirect(w, r, pathIndex, http.StatusSeeOther)
			return http.StatusSeeOther
		}

		return h.renderLogin(w, http.StatusOK, "")
	case http.MethodPost:
		return h.submitLogin(w, r)
	default:
		return h.writeError(w, r, http.StatusMethodNotAllowed, errTitleMethodNotAllow, "Use GET or POST to login.")
	}
}

func (h *Handler) submitLogin(w http.ResponseWriter, r *http.Request) int {
	if !h.authEnabled() {
		http.Redirect(w, r, pathIndex, http.StatusSeeOther)
		return http.StatusSeeOther
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return h.writeError(w, r, http.StatusBadRequest, errTitleBadRequest, "Invalid form.")
	}

	if !PasswordMatches(h.password, r.PostForm.Get(passwordFormField)) {
		loginsTotal.WithLabelValues(resultFailure).Inc()
		h.logger.Warn().Str("client_ip", h.clientIP(r)).Msg("dashboard login rejected")

		if wantsHTML(r) {
			return h.renderLogin(w, http.StatusUnauthorized, errMsgWrongPassword)
		}

		return h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": errMsgWrongPassword})
	}

	token, expiresAt, err := h.sessions.Issue()
	if err != nil {
		h.logger.Error().Err(err).Msg("issue session failed")
		return h.writeError(w, r, http.StatusInternalServerError, errTitleError, "Failed to create session.")
	}

	loginsTotal.WithLabelValues(resultSuccess).Inc()
	h.setSessionCookie(w, token, expiresAt)

	if !wantsHTML(r) {
		return h.writeJSON(w, http.StatusOK, map[string]any{"expires_at": expiresAt})
	}

	http.Redirect(w, r, pathIndex, http.StatusSeeOther)

	return http.StatusSeeOther
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) int {
	if r.Method != http.MethodPost {
		return h.writeError(w, r, http.StatusMethodNotAllowed, errTitleMethodNotAllow, "Use POST to logout.")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     sessionCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	target := pathIndex
	if h.authEnabled() {
		target = pathLogin
	}

	http.Redirect(w, r, target, http.StatusSeeOther)

	return http.StatusSeeOther
}

// ViewResponse is the JSON payload of /api/view.
type ViewResponse struct {
	View     trends.View     `json:"view"`
	Status   snapshot.Status `json:"status"`
	Expanded []string        `json:"expanded"`
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) (int, int) {
	if r.Method != http.MethodGet {
		return h.writeError(w, r, http.StatusMethodNotAllowed, errTitleMethodNotAllow, "Use GET."), 0
	}

	if status, ok := h.requireSession(w, r); !ok {
		return status, 0
	}

	query := r.URL.Query()

	params, err := parseViewParams(query)
	if err != nil {
		return h.writeError(w, r, http.StatusBadRequest, errTitleBadRequest, err.Error()), 0
	}

	view, err := h.store.View(params)
	if err != nil {
		return h.writeViewError(w, r, err), 0
	}

	return h.writeJSON(w, http.StatusOK, ViewResponse{
		View:     view,
		Status:   h.store.Status(),
		Expanded: parseExpandState(query).OpenIDs(),
	}), view.Stats.Count
}

// OptionsResponse is the JSON payload of /api/options.
type OptionsResponse struct {
	GroupModes    []trends.Option      `json:"group_modes"`
	Categories    []string             `json:"categories"`
	BucketOptions []trends.Option      `json:"bucket_options"`
	ExportOptions trends.ExportOptions `json:"export_options"`
	Formats       []export.Format      `json:"formats"`
}

func (h *Handler) handleOptions(w http.ResponseWriter, r *http.Request) int {
	if r.Method != http.MethodGet {
		return h.writeError(w, r, http.StatusMethodNotAllowed, errTitleMethodNotAllow, "Use GET.")
	}

	if status, ok := h.requireSession(w, r); !ok {
		return status
	}

	mode, err := trends.ParseGroupMode(r.URL.Query().Get(paramGroup))
	if err != nil {
		return h.writeError(w, r, http.StatusBadRequest, errTitleBadRequest, err.Error())
	}

	view, err := h.store.View(trends.ViewParams{Mode: mode})
	if err != nil {
		return h.writeViewError(w, r, err)
	}

	return h.writeJSON(w, http.StatusOK, OptionsResponse{
		GroupModes:    groupModeOptions(),
		Categories:    view.Categories,
		BucketOptions: view.BucketOptions,
		ExportOptions: view.ExportOptions,
		Formats:       []export.Format{export.FormatXLSX, export.FormatCSV},
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) int {
	if r.Method != http.MethodPost {
		return h.writeError(w, r, http.StatusMethodNotAllowed, errTitleMethodNotAllow, "Use POST to refresh.")
	}

	if status, ok := h.requireSession(w, r); !ok {
		return status
	}

	if h.refresher == nil {
		return h.writeError(w, r, http.StatusServiceUnavailable, errTitleUnavailable, "Refresh is not configured.")
	}

	// A stale result means a newer refresh already landed; the data is current either way.
	if err := h.refresher.Refresh(r.Context(), snapshot.TriggerManual); err != nil && !errors.Is(err, coreerrors.ErrStaleRefresh) {
		h.logger.Error().Err(err).Msg("manual refresh failed")
		return h.writeError(w, r, http.StatusBadGateway, errTitleError, errMsgRefresh)
	}

	if wantsHTML(r) {
		http.Redirect(w, r, pathIndex, http.StatusSeeOther)

		return http.StatusSeeOther
	}

	return h.writeJSON(w, http.StatusOK, h.store.Status())
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) (int, int) {
	if r.Method != http.MethodGet {
		return h.writeError(w, r, http.StatusMethodNotAllowed, errTitleMethodNotAllow, "Use GET."), 0
	}

	if status, ok := h.requireSession(w, r); !ok {
		return status, 0
	}

	query := r.URL.Query()

	scope, err := trends.ParseExportScope(query.Get(paramScope), query.Get(paramValue))
	if err != nil {
		return h.writeError(w, r, http.StatusBadRequest, errTitleBadRequest, err.Error()), 0
	}

	format, err := export.ParseFormat(query.Get(paramFormat))
	if err != nil {
		return h.writeError(w, r, http.StatusBadRequest, errTitleBadRequest, err.Error()), 0
	}

	records, err := h.store.ExportRecords(scope)
	if err != nil {
		return h.writeViewError(w, r, err), 0
	}

	rows := trends.ExportRows(records, h.exportRows)

	var buf bytes.Buffer
	if err := export.Write(&buf, rows, format); err != nil {
		h.logger.Error().Err(err).Str("format", string(format)).Msg("write export failed")
		return h.writeError(w, r, http.StatusInternalServerError, errTitleError, errMsgExport), 0
	}

	exportsTotal.WithLabelValues(string(scope.Kind), string(format)).Inc()

	w.Header().Set(contentTypeHeader, format.ContentType())
	w.Header().Set(contentDispositionHeader, fmt.Sprintf("attachment; filename=%q", export.FileName(scope, format)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)

	return http.StatusOK, len(rows)
}

func (h *Handler) authEnabled() bool {
	return h.password != ""
}

// requireSession checks the session cookie. Browsers asking for HTML are sent to the
// login page, API clients get 401.
func (h *Handler) requireSession(w http.ResponseWriter, r *http.Request) (int, bool) {
	if !h.authEnabled() {
		return http.StatusOK, true
	}

	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		if _, err = h.sessions.Verify(cookie.Value); err == nil {
			return http.StatusOK, true
		}
	}

	if err != nil && !errors.Is(err, http.ErrNoCookie) {
		h.logger.Debug().Err(err).Msg("session rejected")
	}

	if wantsHTML(r) && r.Method == http.MethodGet {
		http.Redirect(w, r, pathLogin, http.StatusSeeOther)
		return http.StatusSeeOther, false
	}

	return h.writeError(w, r, http.StatusUnauthorized, errTitleUnauthorized, errMsgLoginRequired), false
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     sessionCookiePath,
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) allowRequest(ip string) bool {
	if h.rateLimit <= 0 {
		return true
	}

	if limiter, ok := h.limiters.Get(ip); ok {
		return limiter.Allow()
	}

	limiter := rate.NewLimiter(h.rateLimit, h.rateBurst)
	if prev, found, _ := h.limiters.PeekOrAdd(ip, limiter); found {
		limiter = prev
	}

	return limiter.Allow()
}

// clientIP is the rate limit key. Forwarding headers are read only with TrustProxyHeaders.
func (h *Handler) clientIP(r *http.Request) string {
	if h.trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}

		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	return remoteHost(r.RemoteAddr)
}

func remoteHost(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}

	return addr
}

func wantsHTML(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		return true
	}

	// Plain HTML forms post url-encoded bodies.
	return strings.HasPrefix(r.Header.Get(contentTypeHeader), "application/x-www-form-urlencoded")
}

func groupModeOptions() []trends.Option {
	return []trends.Option{
		{Value: string(trends.GroupWeek), Label: "Woche"},
		{Value: string(trends.GroupDay), Label: "Tag"},
		{Value: string(trends.GroupMonth), Label: "Monat"},
	}
}

// writeViewError maps snapshot errors to 503 and everything else to 500.
func (h *Handler) writeViewError(w http.ResponseWriter, r *http.Request, err error) int {
	if errors.Is(err, coreerrors.ErrSnapshotNotReady) {
		w.Header().Set("Retry-After", "5")

		msg := errMsgNotReady
		if last := h.store.Status().LastError; last != "" {
			msg += " Letzter Fehler: " + last
		}

		return h.writeError(w, r, http.StatusServiceUnavailable, errTitleUnavailable, msg)
	}

	h.logger.Error().Err(err).Msg("build view failed")

	return h.writeError(w, r, http.StatusInternalServerError, errTitleError, errMsgRender)
}

func (h *Handler) renderLogin(w http.ResponseWriter, status int, message string) int {
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, tmplLogin, LoginData{Title: pageTitle, Error: message}); err != nil {
		h.logger.Error().Err(err).Msg("render login failed")
		http.Error(w, errMsgRender, http.StatusInternalServerError)

		return http.StatusInternalServerError
	}

	w.Header().Set(contentTypeHeader, contentTypeHTML)
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)

	return status
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) int {
	w.Header().Set(contentTypeHeader, contentTypeJSON)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error().Err(err).Msg("write json failed")
	}

	return status
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, title, message string) int {
	if wantsHTML(r) {
		w.Header().Set(contentTypeHeader, contentTypeHTML)
		w.WriteHeader(status)

		if err := h.renderer.Render(w, tmplError, ErrorViewData{
			Title:   title,
			Message: message,
			Status:  status,
		}); err != nil {
			h.logger.Error().Err(err).Msg("failed to render error page")
		}

		return status
	}

	return h.writeJSON(w, status, map[string]string{"error": message})
}
