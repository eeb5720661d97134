// Package hauler provides a client for the public endpoints of the
// household's waste hauler: the zip→region lookup, the per-region holiday
// schedule pages, and the cross-region service alerts page.
package hauler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/curbcycle/curbcycle/internal/resilience"
)

const (
	// DefaultBaseURL is the hauler's public site.
	DefaultBaseURL = "https://www.rumpke.com"

	regionPath = "/holiday-schedule/get-region"
	alertsPath = "/service-alerts"
)

// regionSchedulePaths maps the hauler's region names to their holiday
// schedule pages.
var regionSchedulePaths = map[string]string{
	"Bluegrass":  "/schedule/wbl",
	"Cincinnati": "/schedule/wci",
	"Cleveland":  "/schedule/ecl",
	"Columbus":   "/schedule/eco",
	"Dayton":     "/schedule/eda",
	"Greenville": "/schedule/wgr",
	"Louisville": "/schedule/wlo",
	"Waverly":    "/schedule/ewa",
}

// Client errors.
var (
	// ErrUnknownRegion is returned when the zip code is outside the
	// hauler's service area or maps to a region without a schedule page.
	ErrUnknownRegion = errors.New("zip code is not in a known service region")
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the hauler client.
type ClientConfig struct {
	// BaseURL overrides DefaultBaseURL.
	BaseURL string

	// HTTPClient is the HTTP client to use. If nil, a resilient default
	// is created.
	HTTPClient HTTPDoer

	// Timeout for individual requests (default 15s).
	Timeout time.Duration
}

// Client fetches the hauler's pages.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a hauler client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:    "hauler",
			Timeout: cfg.Timeout,
		})
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

type regionResponse struct {
	Region string `json:"region"`
}

// Region resolves a zip code to the hauler's region name.
func (c *Client) Region(ctx context.Context, zipCode string) (string, error) {
	body, err := c.get(ctx, regionPath, url.Values{"zipCode": {zipCode}})
	if err != nil {
		return "", fmt.Errorf("get region for zip %s: %w", zipCode, err)
	}

	var resp regionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode region response: %w", err)
	}
	if resp.Region == "" {
		return "", ErrUnknownRegion
	}
	return resp.Region, nil
}

// HolidaySchedule fetches the holiday schedule page for the zip code's
// region.
func (c *Client) HolidaySchedule(ctx context.Context, zipCode string) ([]byte, error) {
	region, err := c.Region(ctx, zipCode)
	if err != nil {
		return nil, err
	}

	path, ok := regionSchedulePaths[region]
	if !ok {
		return nil, fmt.Errorf("%w: region %q has no schedule page", ErrUnknownRegion, region)
	}

	body, err := c.get(ctx, path, url.Values{"zip": {zipCode}})
	if err != nil {
		return nil, fmt.Errorf("get holiday schedule for region %s: %w", region, err)
	}
	return body, nil
}

// ServiceAlerts fetches the cross-region service alerts page.
func (c *Client) ServiceAlerts(ctx context.Context) ([]byte, error) {
	body, err := c.get(ctx, alertsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("get service alerts: %w", err)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	return io.ReadAll(resp.Body)
}
