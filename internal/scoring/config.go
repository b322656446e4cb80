// Package scoring implements additive lead scoring and priority assignment.
package scoring

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Weights holds the additive scoring weights. The maximum attainable
// total should be 100; Validate enforces this with a small tolerance.
type Weights struct {
	EmailValid int `yaml:"email_valid"`

	// Company size brackets.
	Size1To10      int `yaml:"size_1_10"`
	Size11To50     int `yaml:"size_11_50"`
	Size51To200    int `yaml:"size_51_200"`
	Size201To500   int `yaml:"size_201_500"`
	Size501To1000  int `yaml:"size_501_1000"`
	Size1000Plus   int `yaml:"size_1000_plus"`

	// Industry tiers.
	IndustryHigh   int `yaml:"industry_high"`
	IndustryMedium int `yaml:"industry_medium"`
	IndustryLow    int `yaml:"industry_low"`

	Country       int `yaml:"country"`
	DecisionMaker int `yaml:"decision_maker"`
	Technical     int `yaml:"technical"`
	LinkedIn      int `yaml:"linkedin"`
	Revenue       int `yaml:"revenue"`

	// Tier membership and target-market lists.
	HighValueIndustries   []string `yaml:"high_value_industries"`
	MediumValueIndustries []string `yaml:"medium_value_industries"`
	TargetCountries       []string `yaml:"target_countries"`
	DecisionMakerTitles   []string `yaml:"decision_maker_titles"`
	TechnicalTitles       []string `yaml:"technical_titles"`
}

// DefaultWeights returns the built-in scoring weights. Max total = 100:
// 25 email + 20 size + 20 industry + 10 country + 15 title + 5 linkedin
// + 5 revenue.
func DefaultWeights() Weights {
	return Weights{
		EmailValid: 25,

		Size1To10:     4,
		Size11To50:    8,
		Size51To200:   12,
		Size201To500:  15,
		Size501To1000: 18,
		Size1000Plus:  20,

		IndustryHigh:   20,
		IndustryMedium: 12,
		IndustryLow:    5,

		Country:       10,
		DecisionMaker: 15,
		Technical:     8,
		LinkedIn:      5,
		Revenue:       5,

		HighValueIndustries: []string{
			"software", "saas", "information technology", "fintech",
			"financial services", "internet",
		},
		MediumValueIndustries: []string{
			"healthcare", "manufacturing", "professional services",
			"e-commerce", "retail", "telecommunications",
		},
		TargetCountries: []string{
			"united states", "canada", "united kingdom", "germany",
			"france", "australia", "netherlands",
		},
		DecisionMakerTitles: []string{
			"ceo", "cto", "cfo", "coo", "chief", "founder", "co-founder",
			"owner", "president", "vp", "vice president", "head of",
			"director",
		},
		TechnicalTitles: []string{
			"engineer", "developer", "architect", "devops", "sre",
			"data scientist", "analyst",
		},
	}
}

// MaxTotal returns the highest attainable score under these weights.
func (w Weights) MaxTotal() int {
	maxSize := 0
	for _, s := range []int{
		w.Size1To10, w.Size11To50, w.Size51To200,
		w.Size201To500, w.Size501To1000, w.Size1000Plus,
	} {
		if s > maxSize {
			maxSize = s
		}
	}

	maxIndustry := w.IndustryHigh
	if w.IndustryMedium > maxIndustry {
		maxIndustry = w.IndustryMedium
	}
	if w.IndustryLow > maxIndustry {
		maxIndustry = w.IndustryLow
	}

	maxTitle := w.DecisionMaker
	if w.Technical > maxTitle {
		maxTitle = w.Technical
	}

	return w.EmailValid + maxSize + maxIndustry + w.Country + maxTitle +
		w.LinkedIn + w.Revenue
}

// Validate checks that the weights are internally consistent.
func (w Weights) Validate() error {
	var errs []string

	all := map[string]int{
		"email_valid":    w.EmailValid,
		"size_1_10":      w.Size1To10,
		"size_11_50":     w.Size11To50,
		"size_51_200":    w.Size51To200,
		"size_201_500":   w.Size201To500,
		"size_501_1000":  w.Size501To1000,
		"size_1000_plus": w.Size1000Plus,
		"industry_high":  w.IndustryHigh,
		"industry_medium": w.IndustryMedium,
		"industry_low":   w.IndustryLow,
		"country":        w.Country,
		"decision_maker": w.DecisionMaker,
		"technical":      w.Technical,
		"linkedin":       w.LinkedIn,
		"revenue":        w.Revenue,
	}
	for name, v := range all {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	if total := w.MaxTotal(); total != 100 {
		errs = append(errs, fmt.Sprintf("max attainable score should be 100, got %d", total))
	}

	if len(errs) > 0 {
		return eris.Errorf("scoring: weight validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadWeights reads scoring weights from a YAML file. Fields left at
// zero fall back to the defaults, so a partial override file works.
func LoadWeights(path string) (Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, eris.Wrapf(err, "scoring: read weights %s", path)
	}

	// The YAML has a top-level "scoring" key.
	var wrapper struct {
		Scoring Weights `yaml:"scoring"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Weights{}, eris.Wrap(err, "scoring: parse weights")
	}

	w := wrapper.Scoring
	def := DefaultWeights()

	fill := func(dst *int, fallback int) {
		if *dst == 0 {
			*dst = fallback
		}
	}
	fill(&w.EmailValid, def.EmailValid)
	fill(&w.Size1To10, def.Size1To10)
	fill(&w.Size11To50, def.Size11To50)
	fill(&w.Size51To200, def.Size51To200)
	fill(&w.Size201To500, def.Size201To500)
	fill(&w.Size501To1000, def.Size501To1000)
	fill(&w.Size1000Plus, def.Size1000Plus)
	fill(&w.IndustryHigh, def.IndustryHigh)
	fill(&w.IndustryMedium, def.IndustryMedium)
	fill(&w.IndustryLow, def.IndustryLow)
	fill(&w.Country, def.Country)
	fill(&w.DecisionMaker, def.DecisionMaker)
	fill(&w.Technical, def.Technical)
	fill(&w.LinkedIn, def.LinkedIn)
	fill(&w.Revenue, def.Revenue)

	if len(w.HighValueIndustries) == 0 {
		w.HighValueIndustries = def.HighValueIndustries
	}
	if len(w.MediumValueIndustries) == 0 {
		w.MediumValueIndustries = def.MediumValueIndustries
	}
	if len(w.TargetCountries) == 0 {
		w.TargetCountries = def.TargetCountries
	}
	if len(w.DecisionMakerTitles) == 0 {
		w.DecisionMakerTitles = def.DecisionMakerTitles
	}
	if len(w.TechnicalTitles) == 0 {
		w.TechnicalTitles = def.TechnicalTitles
	}

	return w, nil
}
