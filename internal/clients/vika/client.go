// Package vika provides a client for the Vika fusion API, the spreadsheet
// service holding the asset and trade ledgers.
package vika

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/linqiu/folio/internal/common"
	"github.com/linqiu/folio/internal/models"
)

const (
	DefaultBaseURL   = "https://api.vika.cn"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second

	// maxPageSize is the fusion API's record page cap. The ledgers here are
	// small personal datasheets, so one page is the whole table.
	maxPageSize = 1000
)

// Client implements the LedgerClient interface
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
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

// NewClient creates a new Vika client
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
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
	return fmt.Sprintf("Vika API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// UpstreamError represents an in-band failure: the service answered 200 but
// flagged the payload unsuccessful.
type UpstreamError struct {
	Code    int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return "Vika reported an unsuccessful response"
	}
	return fmt.Sprintf("Vika: %s (code %d)", e.Message, e.Code)
}

// recordsResponse mirrors the fusion API record-query envelope.
type recordsResponse struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Total   int             `json:"total"`
		Records []models.Record `json:"records"`
	} `json:"data"`
}

// QueryRecords fetches all records of one datasheet view. fieldKey=name is
// used so projections can address columns by their spreadsheet headers.
func (c *Client) QueryRecords(ctx context.Context, datasheetID, viewID string) ([]models.Record, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("viewId", viewID)
	params.Set("fieldKey", "name")
	params.Set("pageSize", fmt.Sprintf("%d", maxPageSize))

	path := fmt.Sprintf("/fusion/v1/datasheets/%s/records", datasheetID)
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("datasheet", datasheetID).Str("view", viewID).Msg("Vika record query")

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
			Endpoint:   path,
		}
	}

	var result recordsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if !result.Success {
		return nil, &UpstreamError{Code: result.Code, Message: result.Message}
	}

	c.logger.Debug().
		Str("datasheet", datasheetID).
		Int("records", len(result.Data.Records)).
		Msg("Vika record query complete")

	return result.Data.Records, nil
}
