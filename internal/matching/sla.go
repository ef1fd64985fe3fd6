package matching

import (
	"context"

	"github.com/rentora/backend/internal/models"
)

// SLATargets returns the response and resolution deadlines in hours for an
// issue priority.
func SLATargets(priority models.IssuePriority) (responseHours, resolutionHours float64) {
	switch priority {
	case models.PriorityUrgent:
		return 2, 24
	case models.PriorityHigh:
		return 8, 72
	case models.PriorityMedium:
		return 24, 168
	default:
		return 72, 336
	}
}

// HandleEscalation evaluates one issue's SLA deadlines against elapsed time
// since it was reported. A missed response deadline (no provider action
// recorded yet) and a missed resolution deadline are checked independently
// and may both fire in one call. Each breach flag is set once and never
// reset; the escalation level increments once per breach type, at first
// detection, so repeated sweeps over an already-breached record are no-ops.
// Issues in a terminal status are left untouched.
func (s *Service) HandleEscalation(ctx context.Context, issueID string) error {
	_, _, err := s.evaluateSLA(ctx, issueID)
	return err
}

func (s *Service) evaluateSLA(ctx context.Context, issueID string) (responseFired, resolutionFired bool, err error) {
	issue, err := s.Repo.GetIssue(ctx, issueID)
	if err != nil {
		return false, false, err
	}
	if issue.Status.Terminal() {
		return false, false, nil
	}

	tracking, err := s.Repo.GetSLATracking(ctx, issueID)
	if err != nil {
		return false, false, err
	}

	elapsed := s.now().Sub(issue.ReportedAt).Hours()
	update := SLAUpdate{}
	fired := 0

	if tracking.ActualResponseHours == nil && !tracking.ResponseBreached && elapsed > tracking.TargetResponseHours {
		breached := true
		update.ResponseBreached = &breached
		responseFired = true
		fired++
		s.Logger.Warn().
			Str("issue_id", issueID).
			Str("provider_id", tracking.ProviderID).
			Float64("elapsed_hours", elapsed).
			Float64("target_hours", tracking.TargetResponseHours).
			Msg("response SLA breached")
	}

	if !tracking.ResolutionBreached && elapsed > tracking.TargetResolutionHours {
		breached := true
		update.ResolutionBreached = &breached
		resolutionFired = true
		fired++
		s.Logger.Warn().
			Str("issue_id", issueID).
			Str("provider_id", tracking.ProviderID).
			Float64("elapsed_hours", elapsed).
			Float64("target_hours", tracking.TargetResolutionHours).
			Msg("resolution SLA breached")
	}

	if fired == 0 {
		return false, false, nil
	}

	level := tracking.EscalationLevel + fired
	at := s.now()
	update.EscalationLevel = &level
	update.EscalatedAt = &at
	if err := s.Repo.UpdateSLATracking(ctx, tracking.ID, update); err != nil {
		return false, false, err
	}
	return responseFired, resolutionFired, nil
}

// RecordResponse stores the provider's first action on an issue. The actual
// response time, once recorded, is never overwritten; an assigned issue moves
// to IN_PROGRESS.
func (s *Service) RecordResponse(ctx context.Context, issueID string) error {
	issue, err := s.Repo.GetIssue(ctx, issueID)
	if err != nil {
		return err
	}
	tracking, err := s.Repo.GetSLATracking(ctx, issueID)
	if err != nil {
		return err
	}

	if tracking.ActualResponseHours == nil {
		hours := s.now().Sub(issue.ReportedAt).Hours()
		if hours < 0 {
			hours = 0
		}
		if err := s.Repo.UpdateSLATracking(ctx, tracking.ID, SLAUpdate{ActualResponseHours: &hours}); err != nil {
			return err
		}
	}

	if issue.Status == models.StatusAssigned {
		return s.Repo.UpdateIssueStatus(ctx, issueID, models.StatusInProgress)
	}
	return nil
}

type SweepSummary struct {
	Checked            int `json:"checked"`
	ResponseBreaches   int `json:"response_breaches"`
	ResolutionBreaches int `json:"resolution_breaches"`
	Errors             int `json:"errors"`
}

// RunEscalationSweep evaluates every SLA-tracked, non-terminal issue. It is
// the entry point for the scheduled escalation check; per-issue failures are
// counted and logged rather than aborting the sweep.
func (s *Service) RunEscalationSweep(ctx context.Context) (SweepSummary, error) {
	issueIDs, err := s.Repo.ListTrackedIssueIDs(ctx)
	if err != nil {
		return SweepSummary{}, err
	}

	summary := SweepSummary{}
	for _, id := range issueIDs {
		summary.Checked++
		responseFired, resolutionFired, err := s.evaluateSLA(ctx, id)
		if err != nil {
			summary.Errors++
			s.Logger.Error().Err(err).Str("issue_id", id).Msg("escalation evaluation failed")
			continue
		}
		if responseFired {
			summary.ResponseBreaches++
		}
		if resolutionFired {
			summary.ResolutionBreaches++
		}
	}
	return summary, nil
}
