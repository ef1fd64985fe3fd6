package matching

import (
	"context"

	"github.com/rentora/backend/internal/models"
)

// AutoAssignProvider ranks candidates for the issue and commits the top one
// when its score clears AutoAssignThreshold: the issue moves to ASSIGNED and
// an SLA tracking row is created, both in one transaction. A nil provider id
// with a nil error is a valid negative outcome (no candidates, a
// below-threshold top score, or an issue no longer open), distinct from
// failure.
func (s *Service) AutoAssignProvider(ctx context.Context, issueID string) (*string, error) {
	issue, err := s.Repo.GetIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.Status != models.StatusOpen {
		return nil, nil
	}

	scores, err := s.FindBestProviders(ctx, issue.PropertyID, issue.Category, issue.Priority)
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		s.Logger.Info().Str("issue_id", issueID).Str("category", string(issue.Category)).Msg("no eligible providers")
		return nil, nil
	}

	top := scores[0]
	if top.Score < AutoAssignThreshold {
		s.Logger.Info().
			Str("issue_id", issueID).
			Str("provider_id", top.ProviderID).
			Float64("score", top.Score).
			Msg("top score below auto-assign threshold, leaving issue for manual assignment")
		return nil, nil
	}

	targetResponse, targetResolution := SLATargets(issue.Priority)
	if err := s.Repo.AssignIssue(ctx, issue.ID, top.ProviderID, targetResponse, targetResolution); err != nil {
		return nil, err
	}

	s.Logger.Info().
		Str("issue_id", issueID).
		Str("provider_id", top.ProviderID).
		Float64("score", top.Score).
		Strs("reasons", top.Reasons).
		Msg("issue auto-assigned")
	return &top.ProviderID, nil
}
