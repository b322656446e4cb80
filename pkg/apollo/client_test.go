package apollo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchPerson(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/people/match", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "jane@acme.com", body["email"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"person": {
				"first_name": "Jane",
				"last_name": "Doe",
				"name": "Jane Doe",
				"title": "VP of Engineering",
				"email": "jane@acme.com",
				"email_status": "verified",
				"linkedin_url": "https://linkedin.com/in/janedoe",
				"city": "Austin",
				"state": "Texas",
				"country": "United States",
				"time_zone": "America/Chicago",
				"organization": {
					"name": "Acme Corp",
					"primary_domain": "acme.com",
					"industry": "information technology",
					"estimated_num_employees": 250,
					"founded_year": 2009
				}
			}
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	p, err := c.MatchPerson(context.Background(), "jane@acme.com")
	require.NoError(t, err)

	assert.Equal(t, "Jane", p.FirstName)
	assert.Equal(t, "VP of Engineering", p.Title)
	assert.Equal(t, "verified", p.EmailStatus)
	require.NotNil(t, p.Organization)
	assert.Equal(t, "Acme Corp", p.Organization.Name)
	assert.Equal(t, 250, p.Organization.EstimatedNumEmployees)
}

func TestMatchPerson_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"person": null}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.MatchPerson(context.Background(), "nobody@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no person matched")
}

func TestMatchPerson_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer srv.Close()

	c := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := c.MatchPerson(context.Background(), "jane@acme.com")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
