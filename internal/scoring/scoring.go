// Package scoring holds the pure blocking and relevance functions
// applied to every discovered job. Both are deterministic for
// identical inputs; neither touches the store.
package scoring

import (
	"math"
	"strings"

	"github.com/joshijeet02/Career-huntin/internal/config"
	"github.com/joshijeet02/Career-huntin/internal/database"
)

// MaxScore caps the additive relevance score.
const MaxScore = 100.0

// ShouldBlock reports whether a job must never enter the review
// pipeline: suppressed company (case-insensitive exact match),
// suppressed domain substring in the apply URL, or blank
// title/company. A nil policy blocks nothing.
func ShouldBlock(job *database.JobRecord, policy *database.TargetingPolicy) bool {
	if policy == nil {
		return false
	}

	company := strings.ToLower(job.Company)
	for _, suppressed := range policy.SuppressionCompanies {
		if company == strings.ToLower(suppressed) {
			return true
		}
	}

	applyURL := strings.ToLower(job.ApplyURL)
	for _, domain := range policy.SuppressionDomains {
		if strings.Contains(applyURL, strings.ToLower(domain)) {
			return true
		}
	}

	if strings.TrimSpace(job.Title) == "" || strings.TrimSpace(job.Company) == "" {
		return true
	}

	return false
}

// Relevance computes the additive relevance score for a job, capped at
// MaxScore and rounded to two decimals. A nil profile scores zero.
func Relevance(job *database.JobRecord, profile *database.CandidateProfile, policy *database.TargetingPolicy, prefs config.PipelineConfig) float64 {
	if profile == nil {
		return 0
	}

	score := 0.0

	profileSkills := lowerSet(profile.Skills)
	required := lowerSet(job.RequiredSkills)
	if len(required) > 0 {
		overlap := 0
		for skill := range required {
			if _, ok := profileSkills[skill]; ok {
				overlap++
			}
		}
		score += float64(overlap) / float64(len(required)) * 60.0
	} else {
		score += 20.0
	}

	title := strings.ToLower(job.Title)
	if policy != nil {
		for _, family := range policy.RoleFamilies {
			if strings.Contains(title, strings.ToLower(family)) {
				score += 20.0
				break
			}
		}
	}

	location := strings.ToLower(job.Location)
	if prefersRemote(profile) && strings.Contains(location, "remote") {
		score += 10.0
	}

	// A required cover letter is a weak proxy for a more serious
	// application process.
	if job.CoverLetterRequired {
		score += 2.0
	}

	score += prefs.SourceWeights()[job.Source]

	// Geography is an if/else-if branch; the country bonus stacks on
	// top of either outcome.
	if matchesCity(location, prefs.GeographyPriority) {
		score += 12.0
	} else if containsFold(prefs.GeographyPriority, "international") && !matchesAny(location, prefs.DomesticCities) {
		score += 6.0
	}
	if matchesAny(location, prefs.InternationalPriority) {
		score += 8.0
	}

	desc := strings.ToLower(job.Description)
	if strings.Contains(title, "venture") || strings.Contains(title, "vc") || strings.Contains(desc, "venture capital") {
		score += 15.0
	}
	if strings.Contains(title, "econom") || strings.Contains(title, "policy") || strings.Contains(title, "strategy") {
		score += 10.0
	}
	if strings.Contains(title, "ai") || strings.Contains(desc, "llm") || strings.Contains(desc, "automation") {
		score += 8.0
	}

	return math.Round(math.Min(score, MaxScore)*100) / 100
}

func lowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}
	return set
}

func prefersRemote(profile *database.CandidateProfile) bool {
	v, ok := profile.Preferences["remote_preferred"]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// matchesCity checks the named cities of the priority list; the
// "International" pseudo-entry is handled by the caller.
func matchesCity(location string, priority []string) bool {
	for _, city := range priority {
		if strings.EqualFold(city, "international") {
			continue
		}
		if strings.Contains(location, strings.ToLower(city)) {
			return true
		}
	}
	return false
}

func matchesAny(location string, names []string) bool {
	for _, name := range names {
		if strings.Contains(location, strings.ToLower(name)) {
			return true
		}
	}
	return false
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
