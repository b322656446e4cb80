// Package hunter is a client for the Hunter.io v2 email verifier API.
package hunter

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

// Default base URL for the Hunter v2 API.
const defaultBaseURL = "https://api.hunter.io/v2"

// Client defines the Hunter API operations.
type Client interface {
	VerifyEmail(ctx context.Context, email string) (*Verification, error)
}

// Verification is the verification payload from GET /email-verifier.
type Verification struct {
	Status     string   `json:"status"`
	Result     string   `json:"result"`
	Score      int      `json:"score"`
	Email      string   `json:"email"`
	Regexp     bool     `json:"regexp"`
	Gibberish  bool     `json:"gibberish"`
	Disposable bool     `json:"disposable"`
	Webmail    bool     `json:"webmail"`
	MXRecords  bool     `json:"mx_records"`
	SMTPServer bool     `json:"smtp_server"`
	SMTPCheck  bool     `json:"smtp_check"`
	AcceptAll  bool     `json:"accept_all"`
	Block      bool     `json:"block"`
	Sources    []Source `json:"sources,omitempty"`
}

// Source is a web source where Hunter has seen the address.
type Source struct {
	Domain      string `json:"domain"`
	URI         string `json:"uri"`
	ExtractedOn string `json:"extracted_on"`
}

// verifyResponse wraps the verification payload.
type verifyResponse struct {
	Data Verification `json:"data"`
}

// APIError is returned when Hunter responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hunter: HTTP %d: %s", e.StatusCode, e.Body)
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

// NewClient creates a new Hunter client.
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

func (c *httpClient) VerifyEmail(ctx context.Context, email string) (*Verification, error) {
	q := url.Values{}
	q.Set("email", email)
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/email-verifier?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "hunter: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "hunter: execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "hunter: read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	var out verifyResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrap(err, "hunter: decode response")
	}

	return &out.Data, nil
}
