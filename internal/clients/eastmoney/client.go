// Package eastmoney provides a client for the Eastmoney kline feed.
package eastmoney

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

	"golang.org/x/time/rate"

	"github.com/linqiu/folio/internal/common"
	"github.com/linqiu/folio/internal/models"
)

const (
	DefaultBaseURL   = "https://push2his.eastmoney.com"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second

	klinePath = "/api/qt/stock/kline/get"

	// Daily bars, unadjusted. This is what the dashboard charts.
	kltDaily      = "101"
	fqtUnadjusted = "0"
)

// Client implements the MarketDataClient interface
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	now        func() time.Time // cache-buster timestamp, injectable for tests
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Eastmoney client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a transport-level API failure (non-2xx response).
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Eastmoney API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// UpstreamError represents an in-band failure: rc != 0 or an empty payload.
type UpstreamError struct {
	RC      int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("Eastmoney reported rc=%d", e.RC)
	}
	return fmt.Sprintf("Eastmoney: %s (rc=%d)", e.Message, e.RC)
}

// klineResponse mirrors the push2his kline envelope. Bars arrive as
// comma-joined strings: date,open,close,high,low,volume,amount.
type klineResponse struct {
	RC   int `json:"rc"`
	Data *struct {
		Code    string   `json:"code"`
		Name    string   `json:"name"`
		Decimal int      `json:"decimal"`
		DKTotal int      `json:"dktotal"`
		Klines  []string `json:"klines"`
	} `json:"data"`
}

// GetKline fetches up to limit daily bars for the given instrument.
func (c *Client) GetKline(ctx context.Context, secID string, limit int) (*models.PriceSeries, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("secid", secID)
	params.Set("ut", "bd1d9ddb7ed1f65f860a6")
	params.Set("fields1", "f1,f2,f3,f4,f5,f6")
	params.Set("fields2", "f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61")
	params.Set("klt", kltDaily)
	params.Set("fqt", fqtUnadjusted)
	params.Set("beg", "0")
	params.Set("end", "20500000")
	params.Set("lmt", strconv.Itoa(limit))
	params.Set("_", strconv.FormatInt(c.now().UnixMilli(), 10))

	reqURL := c.baseURL + klinePath + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("secid", secID).Int("limit", limit).Msg("Eastmoney kline request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   klinePath,
		}
	}

	var result klineResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if result.RC != 0 || result.Data == nil {
		return nil, &UpstreamError{RC: result.RC, Message: "kline data unavailable"}
	}

	series := &models.PriceSeries{
		SecID:   secID,
		Code:    result.Data.Code,
		Name:    result.Data.Name,
		Decimal: result.Data.Decimal,
		Total:   result.Data.DKTotal,
		Points:  make([]models.PricePoint, 0, len(result.Data.Klines)),
	}
	for _, line := range result.Data.Klines {
		series.Points = append(series.Points, parseBar(line))
	}

	c.logger.Debug().Str("secid", secID).Int("bars", len(series.Points)).Msg("Eastmoney kline complete")

	return series, nil
}

// parseBar splits one comma-joined kline string. Malformed numeric fields
// coerce to 0 rather than failing the whole series.
func parseBar(line string) models.PricePoint {
	fields := strings.Split(line, ",")
	get := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	return models.PricePoint{
		Date:   get(0),
		Open:   parseFloat(get(1)),
		Close:  parseFloat(get(2)),
		High:   parseFloat(get(3)),
		Low:    parseFloat(get(4)),
		Volume: parseInt(get(5)),
		Amount: parseFloat(get(6)),
	}
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
