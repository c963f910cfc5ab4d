// Package supabase reads trend records through the Supabase PostgREST endpoint. It is the
// upstream used when the dashboard has no direct database access.
package supabase

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

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lueurxax/trend-dashboard/internal/core/domain"
	coreerrors "github.com/lueurxax/trend-dashboard/internal/core/errors"
	"github.com/lueurxax/trend-dashboard/internal/platform/observability"
)

const (
	upstreamName    = "rest"
	defaultTimeout  = 30 * time.Second
	defaultPageSize = 1000
	defaultRPS      = 5.0
	restPathPrefix  = "/rest/v1/"
	maxErrorBody    = 512

	headerAPIKey        = "apikey"
	headerAuthorization = "Authorization"
	headerAccept        = "Accept"
	bearerPrefix        = "Bearer "
	contentTypeJSON     = "application/json"

	paramSelect = "select"
	paramOrder  = "order"
	paramLimit  = "limit"
	paramOffset = "offset"

	selectAll   = "*"
	recencyDesc = "published_date.desc.nullslast,relevance_score.desc.nullslast"

	errFmtStatus = "%w: %d %s"
)

// Config configures the PostgREST client.
type Config struct {
	BaseURL  string
	APIKey   string
	Table    string
	PageSize int
	// RequestsPerSecond throttles page requests. Zero means the default.
	RequestsPerSecond float64
	Timeout           time.Duration
	Logger            *zerolog.Logger
}

// Client fetches the trend table page by page.
type Client struct {
	baseURL    string
	apiKey     string
	table      string
	pageSize   int
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zerolog.Logger
}

// New creates a client. BaseURL and APIKey are required.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: supabase url and key", coreerrors.ErrMissingConfig)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRPS
	}

	table := cfg.Table
	if table == "" {
		table = "trends"
	}

	logger := cfg.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		table:      table,
		pageSize:   pageSize,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}, nil
}

// FetchTrends loads every row, newest first. Pages are requested until one comes back
// empty; the server may return fewer rows than asked for when its max-rows is lower.
func (c *Client) FetchTrends(ctx context.Context) ([]domain.Trend, error) {
	start := time.Now()
	all, err := c.fetchAll(ctx)
	observability.ObserveUpstream(upstreamName, start, len(all), err)

	return all, err
}

func (c *Client) fetchAll(ctx context.Context) ([]domain.Trend, error) {
	all := make([]domain.Trend, 0, c.pageSize)

	for offset := 0; ; {
		page, err := c.fetchPage(ctx, offset)
		if err != nil {
			return nil, err
		}

		if len(page) == 0 {
			break
		}

		all = append(all, page...)
		offset += len(page)
	}

	c.logger.Debug().Int("rows", len(all)).Str("table", c.table).Msg("fetched trends via rest")

	return all, nil
}

// Ping requests a single row to check credentials and reachability.
func (c *Client) Ping(ctx context.Context) error {
	params := url.Values{}
	params.Set(paramSelect, "id")
	params.Set(paramLimit, "1")

	_, err := c.get(ctx, params)

	return err
}

func (c *Client) fetchPage(ctx context.Context, offset int) ([]domain.Trend, error) {
	params := url.Values{}
	params.Set(paramSelect, selectAll)
	params.Set(paramOrder, recencyDesc)
	params.Set(paramLimit, strconv.Itoa(c.pageSize))
	params.Set(paramOffset, strconv.Itoa(offset))

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var page []domain.Trend
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode trends page at offset %d: %w", offset, err)
	}

	return page, nil
}

func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	endpoint := c.baseURL + restPathPrefix + url.PathEscape(c.table) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create supabase request: %w", err)
	}

	req.Header.Set(headerAPIKey, c.apiKey)
	req.Header.Set(headerAuthorization, bearerPrefix+c.apiKey)
	req.Header.Set(headerAccept, contentTypeJSON)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return nil, fmt.Errorf(errFmtStatus, coreerrors.ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read supabase response: %w", err)
	}

	return body, nil
}
