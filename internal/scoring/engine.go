package scoring

import (
	"strings"

	"github.com/sells-group/lead-enrich-cli/internal/model"
)

// Scorecard is the result of scoring a single lead.
type Scorecard struct {
	Total    int            `json:"total"`
	Priority int            `json:"priority"`
	Factors  map[string]int `json:"factors"`
}

// Score computes the additive lead score and priority. It reads the
// lead and never mutates it; the same lead and weights always produce
// the same scorecard.
func Score(lead *model.Lead, w Weights) Scorecard {
	factors := make(map[string]int)

	if lead.IsEmailValid {
		factors["email_valid"] = w.EmailValid
	}

	if pts := sizePoints(lead.CompanySize, w); pts > 0 {
		factors["company_size"] = pts
	}

	if pts := industryPoints(lead.Industry, w); pts > 0 {
		factors["industry"] = pts
	}

	if containsFold(w.TargetCountries, lead.Country) {
		factors["country"] = w.Country
	}

	if pts := titlePoints(lead.JobTitle, w); pts > 0 {
		factors["job_title"] = pts
	}

	if lead.LinkedInURL != "" {
		factors["linkedin"] = w.LinkedIn
	}

	if _, ok := lead.Metadata["revenue"]; ok {
		factors["revenue"] = w.Revenue
	}

	total := 0
	for _, pts := range factors {
		total += pts
	}
	if total > 100 {
		total = 100
	}

	return Scorecard{
		Total:    total,
		Priority: priorityFor(total),
		Factors:  factors,
	}
}

// Apply writes a scorecard onto the lead.
func Apply(lead *model.Lead, card Scorecard) {
	lead.Score = card.Total
	lead.Priority = card.Priority
	lead.ScoringFactors = card.Factors
}

// priorityFor maps a 0-100 score onto the 1-10 priority band.
func priorityFor(total int) int {
	p := total/10 + 1
	if p > 10 {
		p = 10
	}
	return p
}

func sizePoints(size string, w Weights) int {
	switch size {
	case "1-10":
		return w.Size1To10
	case "11-50":
		return w.Size11To50
	case "51-200":
		return w.Size51To200
	case "201-500":
		return w.Size201To500
	case "501-1000":
		return w.Size501To1000
	case "1000+":
		return w.Size1000Plus
	}
	return 0
}

func industryPoints(industry string, w Weights) int {
	if industry == "" {
		return 0
	}
	if containsFold(w.HighValueIndustries, industry) {
		return w.IndustryHigh
	}
	if containsFold(w.MediumValueIndustries, industry) {
		return w.IndustryMedium
	}
	return w.IndustryLow
}

// titlePoints awards the decision-maker weight when the title matches a
// leadership keyword, the technical weight otherwise. Decision-maker
// wins when a title matches both lists.
func titlePoints(title string, w Weights) int {
	if title == "" {
		return 0
	}
	lower := strings.ToLower(title)
	for _, kw := range w.DecisionMakerTitles {
		if strings.Contains(lower, kw) {
			return w.DecisionMaker
		}
	}
	for _, kw := range w.TechnicalTitles {
		if strings.Contains(lower, kw) {
			return w.Technical
		}
	}
	return 0
}

func containsFold(list []string, v string) bool {
	if v == "" {
		return false
	}
	lower := strings.ToLower(v)
	for _, item := range list {
		if strings.Contains(lower, item) || strings.Contains(item, lower) {
			return true
		}
	}
	return false
}
