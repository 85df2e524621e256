// Package profiles manages versioned candidate profiles, their CV
// variants and targeting policies. Profiles are immutable once
// ingested; each ingest creates the next version and only the highest
// version is active.
package profiles

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/joshijeet02/Career-huntin/internal/audit"
	"github.com/joshijeet02/Career-huntin/internal/database"
)

// CVInput is one CV variant supplied at ingest time.
type CVInput struct {
	Name     string                 `json:"name" binding:"required"`
	Content  string                 `json:"content" binding:"required"`
	Metadata map[string]interface{} `json:"metadata"`
}

// PolicyInput is the targeting policy supplied at ingest time.
type PolicyInput struct {
	RoleFamilies          []string               `json:"role_families"`
	Geos                  []string               `json:"geos"`
	Seniority             []string               `json:"seniority"`
	Compensation          map[string]interface{} `json:"compensation"`
	MustHave              []string               `json:"must_have"`
	Avoid                 []string               `json:"avoid"`
	SuppressionCompanies  []string               `json:"suppression_companies"`
	SuppressionDomains    []string               `json:"suppression_domains"`
	ApplicationDailyLimit int                    `json:"application_daily_limit"`
	OutreachDailyLimit    int                    `json:"outreach_daily_limit"`
}

// IngestRequest is a full profile snapshot: identity, skills, CV
// variants and the targeting policy for the new version.
type IngestRequest struct {
	FullName     string                 `json:"full_name" binding:"required"`
	Email        string                 `json:"email" binding:"required"`
	Skills       []string               `json:"skills"`
	Achievements []string               `json:"achievements"`
	Preferences  map[string]interface{} `json:"preferences"`
	RawProfile   map[string]interface{} `json:"raw_profile"`
	CVVariants   []CVInput              `json:"cv_variants"`
	Policy       PolicyInput            `json:"targeting_policy"`
}

// Service persists profile versions and resolves the active one.
type Service struct {
	db *gorm.DB
}

// NewService constructs a Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Ingest stores a new profile version with its CV variants and
// targeting policy, and returns the version number.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (int, error) {
	version := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest database.CandidateProfile
		switch err := tx.Order("version DESC").First(&latest).Error; {
		case err == nil:
			version = latest.Version + 1
		case errors.Is(err, gorm.ErrRecordNotFound):
			version = 1
		default:
			return fmt.Errorf("load latest profile: %w", err)
		}

		profile := database.CandidateProfile{
			Version:      version,
			FullName:     req.FullName,
			Email:        req.Email,
			Skills:       datatypes.NewJSONSlice(req.Skills),
			Achievements: datatypes.NewJSONSlice(req.Achievements),
			Preferences:  datatypes.JSONMap(req.Preferences),
			RawProfile:   datatypes.JSONMap(req.RawProfile),
		}
		if err := tx.Create(&profile).Error; err != nil {
			return fmt.Errorf("create profile: %w", err)
		}

		for _, variant := range req.CVVariants {
			cv := database.CVVariant{
				ProfileVersion: version,
				Name:           variant.Name,
				Metadata:       datatypes.JSONMap(variant.Metadata),
				Content:        variant.Content,
			}
			if err := tx.Create(&cv).Error; err != nil {
				return fmt.Errorf("create cv variant: %w", err)
			}
		}

		policy := database.TargetingPolicy{
			ProfileVersion:        version,
			RoleFamilies:          datatypes.NewJSONSlice(req.Policy.RoleFamilies),
			Geos:                  datatypes.NewJSONSlice(req.Policy.Geos),
			Seniority:             datatypes.NewJSONSlice(req.Policy.Seniority),
			Compensation:          datatypes.JSONMap(req.Policy.Compensation),
			MustHave:              datatypes.NewJSONSlice(req.Policy.MustHave),
			Avoid:                 datatypes.NewJSONSlice(req.Policy.Avoid),
			SuppressionCompanies:  datatypes.NewJSONSlice(req.Policy.SuppressionCompanies),
			SuppressionDomains:    datatypes.NewJSONSlice(req.Policy.SuppressionDomains),
			ApplicationDailyLimit: req.Policy.ApplicationDailyLimit,
			OutreachDailyLimit:    req.Policy.OutreachDailyLimit,
		}
		if policy.ApplicationDailyLimit <= 0 {
			policy.ApplicationDailyLimit = 40
		}
		if policy.OutreachDailyLimit <= 0 {
			policy.OutreachDailyLimit = 40
		}
		if err := tx.Create(&policy).Error; err != nil {
			return fmt.Errorf("create targeting policy: %w", err)
		}

		return audit.Log(ctx, tx, "candidate_profile", profile.ID, "ingested", map[string]interface{}{
			"version":  version,
			"cv_count": len(req.CVVariants),
		})
	})
	if err != nil {
		return 0, err
	}
	return version, nil
}

// Active returns the highest-version profile and its most recent
// targeting policy. Both are nil when nothing has been ingested yet.
func Active(ctx context.Context, db *gorm.DB) (*database.CandidateProfile, *database.TargetingPolicy, error) {
	var profile database.CandidateProfile
	switch err := db.WithContext(ctx).Order("version DESC").First(&profile).Error; {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil, nil
	case err != nil:
		return nil, nil, fmt.Errorf("load active profile: %w", err)
	}

	var policy database.TargetingPolicy
	switch err := db.WithContext(ctx).
		Where("profile_version = ?", profile.Version).
		Order("id DESC").
		First(&policy).Error; {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &profile, nil, nil
	case err != nil:
		return nil, nil, fmt.Errorf("load targeting policy: %w", err)
	}

	return &profile, &policy, nil
}

// Variants lists the CV variants of one profile version in creation
// order.
func Variants(ctx context.Context, db *gorm.DB, profileVersion int) ([]database.CVVariant, error) {
	var variants []database.CVVariant
	if err := db.WithContext(ctx).
		Where("profile_version = ?", profileVersion).
		Order("id ASC").
		Find(&variants).Error; err != nil {
		return nil, fmt.Errorf("load cv variants: %w", err)
	}
	return variants, nil
}
