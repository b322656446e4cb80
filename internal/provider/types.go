package provider

// Envelope is the uniform response wrapper every capability call returns.
// A call that never reached the network (inactive provider, local rate
// limit, unsupported capability) still returns a well-formed envelope.
type Envelope struct {
	Success        bool    `json:"success"`
	Error          string  `json:"error,omitempty"`
	Cost           float64 `json:"cost,omitempty"`
	RateLimited    bool    `json:"rate_limited,omitempty"`
	Transient      bool    `json:"transient,omitempty"`
	ResponseTimeMs int64   `json:"response_time_ms"`
}

// EmailValidation is the canonical email validation result.
type EmailValidation struct {
	Valid       bool     `json:"valid"`
	Score       int      `json:"score"`
	Details     string   `json:"details"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// CompanyProfile is the canonical company enrichment result. Extras carries
// provider-specific values destined for the lead's metadata bag.
type CompanyProfile struct {
	Name        string         `json:"name,omitempty"`
	Domain      string         `json:"domain,omitempty"`
	Website     string         `json:"website,omitempty"`
	Size        string         `json:"size,omitempty"`
	Industry    string         `json:"industry,omitempty"`
	City        string         `json:"city,omitempty"`
	State       string         `json:"state,omitempty"`
	Country     string         `json:"country,omitempty"`
	Timezone    string         `json:"timezone,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	LinkedInURL string         `json:"linkedin_url,omitempty"`
	Extras      map[string]any `json:"extras,omitempty"`
}

// PersonProfile is the canonical person enrichment result.
type PersonProfile struct {
	FirstName   string         `json:"first_name,omitempty"`
	LastName    string         `json:"last_name,omitempty"`
	FullName    string         `json:"full_name,omitempty"`
	JobTitle    string         `json:"job_title,omitempty"`
	Company     string         `json:"company,omitempty"`
	City        string         `json:"city,omitempty"`
	State       string         `json:"state,omitempty"`
	Country     string         `json:"country,omitempty"`
	Timezone    string         `json:"timezone,omitempty"`
	Language    string         `json:"language,omitempty"`
	LinkedInURL string         `json:"linkedin_url,omitempty"`
	Extras      map[string]any `json:"extras,omitempty"`
}

// EmailResult is the envelope plus validation data for a successful call.
type EmailResult struct {
	Envelope
	Data *EmailValidation `json:"data,omitempty"`
}

// CompanyResult is the envelope plus company data for a successful call.
type CompanyResult struct {
	Envelope
	Data *CompanyProfile `json:"data,omitempty"`
}

// PersonResult is the envelope plus person data for a successful call.
type PersonResult struct {
	Envelope
	Data *PersonProfile `json:"data,omitempty"`
}
