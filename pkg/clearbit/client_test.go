package clearbit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindCompany(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/companies/find", r.URL.Path)
		assert.Equal(t, "acme.com", r.URL.Query().Get("domain"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"name": "Acme Corp",
			"legalName": "Acme Corporation",
			"domain": "acme.com",
			"description": "Industrial gadgets for discerning coyotes.",
			"foundedYear": 2009,
			"timeZone": "America/Chicago",
			"phone": "+1 512-555-0100",
			"category": {"sector": "Information Technology", "industry": "Software"},
			"geo": {"city": "Austin", "state": "Texas", "country": "United States"},
			"metrics": {"employees": 250, "employeesRange": "201-500", "estimatedAnnualRevenue": "$10M-$50M"},
			"linkedin": {"handle": "company/acme-corp"}
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	company, err := c.FindCompany(context.Background(), "acme.com")
	require.NoError(t, err)

	assert.Equal(t, "Acme Corp", company.Name)
	assert.Equal(t, "Software", company.Category.Industry)
	assert.Equal(t, 250, company.Metrics.Employees)
	assert.Equal(t, "$10M-$50M", company.Metrics.EstimatedAnnualRevenue)
	assert.Equal(t, "company/acme-corp", company.LinkedIn.Handle)
}

func TestFindCompany_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"type":"unknown_record"}}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.FindCompany(context.Background(), "unknown.example")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
