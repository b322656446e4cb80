// Package clearbit is a client for the Clearbit company enrichment API.
package clearbit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// Default base URL for the Clearbit Company API.
const defaultBaseURL = "https://company.clearbit.com/v2"

// Client defines the Clearbit API operations.
type Client interface {
	FindCompany(ctx context.Context, domain string) (*Company, error)
}

// Company is the company record from GET /companies/find.
type Company struct {
	Name          string   `json:"name"`
	LegalName     string   `json:"legalName"`
	Domain        string   `json:"domain"`
	Description   string   `json:"description"`
	FoundedYear   int      `json:"foundedYear"`
	TimeZone      string   `json:"timeZone"`
	Phone         string   `json:"phone"`
	Logo          string   `json:"logo"`
	Tags          []string `json:"tags,omitempty"`
	Category      Category `json:"category"`
	Geo           Geo      `json:"geo"`
	Metrics       Metrics  `json:"metrics"`
	LinkedIn      Handle   `json:"linkedin"`
}

// Category holds industry classification.
type Category struct {
	Sector        string `json:"sector"`
	IndustryGroup string `json:"industryGroup"`
	Industry      string `json:"industry"`
	SubIndustry   string `json:"subIndustry"`
}

// Geo holds the company's headquarters location.
type Geo struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

// Metrics holds size and revenue figures.
type Metrics struct {
	Employees              int    `json:"employees"`
	EmployeesRange         string `json:"employeesRange"`
	EstimatedAnnualRevenue string `json:"estimatedAnnualRevenue"`
}

// Handle is a social profile reference.
type Handle struct {
	Handle string `json:"handle"`
}

// APIError is returned when Clearbit responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("clearbit: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a new Clearbit client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) FindCompany(ctx context.Context, domain string) (*Company, error) {
	q := url.Values{}
	q.Set("domain", domain)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/companies/find?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "clearbit: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "clearbit: execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "clearbit: read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	var out Company
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrap(err, "clearbit: decode response")
	}

	return &out, nil
}
