package matching

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentora/backend/internal/errs"
	"github.com/rentora/backend/internal/models"
)

// AutoAssignThreshold is the minimum top score (on the 115-point scale) at
// which an issue is committed to a provider without human review.
const AutoAssignThreshold = 50.0

type Service struct {
	Repo   Repository
	Logger zerolog.Logger

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// FindBestProviders ranks every active provider with the given specialty
// against the property, descending by score. Equal scores order by provider
// id so the ranking is reproducible regardless of storage enumeration order.
// The full list is returned; callers truncate for display.
func (s *Service) FindBestProviders(ctx context.Context, propertyID string, category models.IssueCategory, priority models.IssuePriority) ([]models.ProviderScore, error) {
	if _, err := models.ParseCategory(string(category)); err != nil {
		return nil, errs.ErrInvalidCategory
	}
	if _, err := models.ParsePriority(string(priority)); err != nil {
		return nil, errs.ErrInvalidPriority
	}

	property, err := s.Repo.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	providers, err := s.Repo.ListActiveProvidersBySpecialty(ctx, category)
	if err != nil {
		return nil, err
	}

	scores := make([]models.ProviderScore, 0, len(providers))
	for _, provider := range providers {
		if !provider.Active || !provider.HasSpecialty(category) {
			continue
		}
		assignment, err := s.Repo.GetPropertyAssignment(ctx, provider.ID, property.ID)
		if err != nil {
			return nil, err
		}
		openIssues, err := s.Repo.CountOpenIssues(ctx, provider.ID)
		if err != nil {
			return nil, err
		}
		scores = append(scores, ScoreProvider(property, provider, assignment, openIssues, category, priority))
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score == scores[j].Score {
			return scores[i].ProviderID < scores[j].ProviderID
		}
		return scores[i].Score > scores[j].Score
	})
	return scores, nil
}
