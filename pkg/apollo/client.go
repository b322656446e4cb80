// Package apollo is a client for the Apollo.io people match API.
package apollo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Default base URL for the Apollo v1 API.
const defaultBaseURL = "https://api.apollo.io/v1"

// Client defines the Apollo API operations.
type Client interface {
	MatchPerson(ctx context.Context, email string) (*Person, error)
}

// matchRequest is the body for POST /people/match.
type matchRequest struct {
	Email string `json:"email"`
}

// matchResponse wraps the matched person.
type matchResponse struct {
	Person *Person `json:"person"`
}

// Person is a matched person record.
type Person struct {
	FirstName   string        `json:"first_name"`
	LastName    string        `json:"last_name"`
	Name        string        `json:"name"`
	Title       string        `json:"title"`
	Email       string        `json:"email"`
	EmailStatus string        `json:"email_status"`
	LinkedinURL string        `json:"linkedin_url"`
	City        string        `json:"city"`
	State       string        `json:"state"`
	Country     string        `json:"country"`
	TimeZone    string        `json:"time_zone"`
	Seniority   string        `json:"seniority"`
	PhotoURL    string        `json:"photo_url"`
	Headline    string        `json:"headline"`
	Organization *Organization `json:"organization,omitempty"`
}

// Organization is the person's current employer as known to Apollo.
type Organization struct {
	Name                  string `json:"name"`
	WebsiteURL            string `json:"website_url"`
	PrimaryDomain         string `json:"primary_domain"`
	Industry              string `json:"industry"`
	EstimatedNumEmployees int    `json:"estimated_num_employees"`
	AnnualRevenuePrinted  string `json:"annual_revenue_printed"`
	FoundedYear           int    `json:"founded_year"`
	LinkedinURL           string `json:"linkedin_url"`
}

// APIError is returned when Apollo responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("apollo: HTTP %d: %s", e.StatusCode, e.Body)
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

// NewClient creates a new Apollo client.
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

func (c *httpClient) MatchPerson(ctx context.Context, email string) (*Person, error) {
	body, err := json.Marshal(matchRequest{Email: email})
	if err != nil {
		return nil, eris.Wrap(err, "apollo: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/people/match", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "apollo: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "apollo: execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "apollo: read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	var out matchResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrap(err, "apollo: decode response")
	}
	if out.Person == nil {
		return nil, eris.Errorf("apollo: no person matched for %s", email)
	}

	return out.Person, nil
}
