package odata

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

	"github.com/hashicorp/go-retryablehttp"

	"github.com/crownpoint-data/pos-sync/common/logging"
	"github.com/crownpoint-data/pos-sync/poller/internal/secrets"
)

// ClientConfig parameterizes the page fetcher's transport behavior.
type ClientConfig struct {
	// BaseURL is the vendor service root, e.g.
	// https://host/reportservice/salesdata.svc.
	BaseURL string

	// Timeout bounds one request including retries' individual attempts.
	Timeout time.Duration

	// MaxRetries is the retry budget for transient failures.
	MaxRetries int

	// RetryWait is the base of the linear backoff schedule.
	RetryWait time.Duration

	// PageSize is the $top value for every page request.
	PageSize int
}

// retryableStatuses are the 5xx-class responses worth retrying; the page GET
// is idempotent so retrying is always safe.
var retryableStatuses = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Client fetches one page of raw records per call from the vendor OData API.
type Client struct {
	baseURL  string
	pageSize int
	http     *http.Client
	creds    secrets.Provider
	log      *logging.Logger
}

// NewClient builds a page fetcher with a retrying transport: transient network
// errors and retryable 5xx responses are retried up to MaxRetries times with
// linear backoff before the error escalates to the caller.
func NewClient(cfg ClientConfig, creds secrets.Provider, log *logging.Logger) *Client {
	if log == nil {
		log = logging.Default()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 1000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = time.Second
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	rc.RetryWaitMin = cfg.RetryWait
	rc.RetryWaitMax = cfg.RetryWait * time.Duration(cfg.MaxRetries+1)
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.Logger = nil // failures are logged at the page level
	rc.Backoff = func(min, max time.Duration, attemptNum int, _ *http.Response) time.Duration {
		wait := min * time.Duration(attemptNum+1)
		if wait > max {
			return max
		}
		return wait
	}
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return true, nil
		}
		return retryableStatuses[resp.StatusCode], nil
	}

	return &Client{
		baseURL:  cfg.BaseURL,
		pageSize: cfg.PageSize,
		http:     rc.StandardClient(),
		creds:    creds,
		log:      log,
	}
}

// PageSize returns the configured $top value.
func (c *Client) PageSize() int {
	return c.pageSize
}

// pageResponse is the vendor's envelope: the page sits under a top-level "d".
type pageResponse struct {
	D []Record `json:"d"`
}

// FetchPage requests one (date, offset) window of the endpoint. targetDate is
// nil for unpartitioned endpoints. Records come back ordered by Id, so paging
// by $skip is deterministic.
func (c *Client) FetchPage(ctx context.Context, endpoint Endpoint, targetDate *time.Time, skip int) ([]Record, error) {
	creds, err := c.creds.Credentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint.Name,
		c.buildQuery(endpoint, creds.SiteID, targetDate, skip).Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "AccessToken="+creds.AccessToken)
	req.Header.Set("Accept", "application/json")

	c.log.Debug("requesting page", "url", reqURL)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", endpoint.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("fetch %s: status %d: %s", endpoint.Name, resp.StatusCode, string(body))
	}

	var page pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode %s page: %w", endpoint.Name, err)
	}
	return page.D, nil
}

// buildQuery assembles the OData query parameters for one page request: a
// fixed page window ordered by Id, plus an optional conjunction of equality
// filters on the business date and the site GUID.
func (c *Client) buildQuery(endpoint Endpoint, siteID string, targetDate *time.Time, skip int) url.Values {
	params := url.Values{}
	params.Set("$top", strconv.Itoa(c.pageSize))
	params.Set("$skip", strconv.Itoa(skip))
	params.Set("$orderby", "Id")
	params.Set("$format", "json")

	var filters []string
	if endpoint.DateField != "" && targetDate != nil {
		dayStart := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
		filters = append(filters, fmt.Sprintf("%s eq datetime'%s'", endpoint.DateField, dayStart.Format("2006-01-02T00:00:00")))
	}
	if endpoint.SiteField != "" && siteID != "" {
		filters = append(filters, fmt.Sprintf("%s eq guid'%s'", endpoint.SiteField, siteID))
	}
	if len(filters) > 0 {
		params.Set("$filter", strings.Join(filters, " and "))
	}
	return params
}
