package provider

import "strings"

// CleanDomain normalizes a raw website or domain string: strips the scheme
// and "www." prefix, lowercases, and cuts at the first slash.
func CleanDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.Index(d, "/"); i >= 0 {
		d = d[:i]
	}
	return d
}

// SizeBracket maps an employee count to the canonical company-size bracket.
func SizeBracket(employees int) string {
	switch {
	case employees <= 0:
		return ""
	case employees <= 10:
		return "1-10"
	case employees <= 50:
		return "11-50"
	case employees <= 200:
		return "51-200"
	case employees <= 500:
		return "201-500"
	case employees <= 1000:
		return "501-1000"
	default:
		return "1000+"
	}
}
