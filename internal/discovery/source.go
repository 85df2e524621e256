package discovery

import (
	"context"
	"fmt"
	"strings"
)

// SourceJob is a raw posting as returned by a job source, before
// fingerprinting and scoring.
type SourceJob struct {
	Source              string
	SourceJobID         string
	Company             string
	Title               string
	Location            string
	ApplyURL            string
	Description         string
	RequiredSkills      []string
	CoverLetterRequired bool
}

// Source supplies candidate jobs for one discovery run. Real connector
// integrations plug in here; the shipped implementation is a
// deterministic fixture set.
type Source interface {
	Fetch(ctx context.Context, sourceConfigID string) ([]SourceJob, error)
}

// FixtureSource returns a fixed set of six postings, one of which is a
// cross-source duplicate, seeded by the source config id so repeated
// runs stay repeatable.
type FixtureSource struct{}

// Fetch implements Source.
func (FixtureSource) Fetch(_ context.Context, sourceConfigID string) ([]SourceJob, error) {
	seed := strings.ToLower(strings.TrimSpace(sourceConfigID))
	return []SourceJob{
		{
			Source:              "venture_capital_careers",
			SourceJobID:         fmt.Sprintf("%s-vc-1", seed),
			Company:             "NorthBridge Ventures",
			Title:               "Investment Analyst (Economics + AI)",
			Location:            "London, UK",
			ApplyURL:            "https://jobs.northbridge.vc/investment-analyst",
			Description:         "Evaluate AI-native businesses, macro trends, incentives, and market dynamics for portfolio investment decisions.",
			RequiredSkills:      []string{"economics", "research", "market analysis", "excel"},
			CoverLetterRequired: false,
		},
		{
			Source:              "company_site",
			SourceJobID:         fmt.Sprintf("%s-co-2", seed),
			Company:             "Aurum Strategy Partners",
			Title:               "Economic Consulting Analyst",
			Location:            "Mumbai, India",
			ApplyURL:            "https://careers.aurumstrategy.com/econ-analyst",
			Description:         "Support consulting engagements across public policy, incentives design, and market strategy.",
			RequiredSkills:      []string{"econometrics", "stata", "excel", "policy analysis"},
			CoverLetterRequired: true,
		},
		// Duplicate of the first posting, mirrored by another board
		// with a tracking query parameter.
		{
			Source:              "wellfound",
			SourceJobID:         fmt.Sprintf("%s-wf-3", seed),
			Company:             "NorthBridge Ventures",
			Title:               "Investment Analyst (Economics + AI)",
			Location:            "London, UK",
			ApplyURL:            "https://jobs.northbridge.vc/investment-analyst?src=wellfound",
			Description:         "Evaluate AI-native businesses, macro trends, incentives, and market dynamics for portfolio investment decisions.",
			RequiredSkills:      []string{"economics", "research", "market analysis", "excel"},
			CoverLetterRequired: false,
		},
		{
			Source:              "imf",
			SourceJobID:         fmt.Sprintf("%s-imf-4", seed),
			Company:             "International Monetary Fund",
			Title:               "Research Officer - Emerging Markets",
			Location:            "Washington, US",
			ApplyURL:            "https://careers.imf.org/research-officer",
			Description:         "Economic policy analysis, macro monitoring, and writing for institutional audiences.",
			RequiredSkills:      []string{"economics", "research", "policy analysis", "stata"},
			CoverLetterRequired: true,
		},
		{
			Source:              "yc_jobs",
			SourceJobID:         fmt.Sprintf("%s-yc-5", seed),
			Company:             "SignalStack AI",
			Title:               "Strategy Analyst (AI Markets)",
			Location:            "Remote, International",
			ApplyURL:            "https://jobs.signalstack.ai/strategy-analyst",
			Description:         "Translate AI product and market data into strategic recommendations for growth.",
			RequiredSkills:      []string{"economics", "strategy", "excel", "research"},
			CoverLetterRequired: false,
		},
		{
			Source:              "devex",
			SourceJobID:         fmt.Sprintf("%s-dx-6", seed),
			Company:             "Global Development Advisory",
			Title:               "Policy and Economic Analyst",
			Location:            "Gurugram, India",
			ApplyURL:            "https://jobs.gda.example/policy-analyst",
			Description:         "Policy analytics for development finance clients; incentives and institutional analysis.",
			RequiredSkills:      []string{"policy analysis", "economics", "excel", "writing"},
			CoverLetterRequired: true,
		},
	}, nil
}
