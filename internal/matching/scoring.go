package matching

import (
	"fmt"

	"github.com/rentora/backend/internal/geo"
	"github.com/rentora/backend/internal/models"
)

// Scoring weights. Contributions are additive and independent; the maximum
// achievable total is 115 points. Scores are raw points on that scale, not
// percentages; AutoAssignThreshold is calibrated against it.
const (
	weightPrimaryProvider    = 40.0
	weightExistingProvider   = 30.0
	weightLocalRatingBonus   = 10.0
	weightCompletionBonus    = 5.0
	weightGlobalRatingMax    = 20.0
	weightDistanceNear       = 15.0
	weightDistanceMid        = 10.0
	weightDistanceInRadius   = 5.0
	weightWorkloadIdle       = 10.0
	weightWorkloadLight      = 7.0
	weightWorkloadModerate   = 3.0
	weightResponseFast       = 10.0
	weightResponseSameDay    = 7.0
	weightResponseNextDay    = 3.0
	weightUrgentSpecialist   = 5.0
	weightPreferredProvider  = 5.0
	distanceNearKm           = 10.0
	distanceMidKm            = 20.0
	responseFastHours        = 4.0
	responseSameDayHours     = 12.0
	responseNextDayHours     = 24.0
	urgentResponseHours      = 2.0
	localRatingBonusFloor    = 4.0
	completionBonusFloorPct  = 90.0
)

// ScoreProvider computes the suitability score of one candidate provider for
// an issue at a property. Rules are evaluated in a fixed order and each rule
// that fires appends a human-readable reason; rules that do not fire add
// nothing, including when their inputs are missing.
//
// An inactive provider or one that does not list the category scores zero;
// the orchestrator filters those out upstream, but the scorer does not rely
// on it.
func ScoreProvider(property models.Property, provider models.Provider, assignment *models.PropertyAssignment, openIssues int, category models.IssueCategory, priority models.IssuePriority) models.ProviderScore {
	result := models.ProviderScore{ProviderID: provider.ID}
	if !provider.Active || !provider.HasSpecialty(category) {
		return result
	}

	// Rule 1: existing relationship with this property.
	if assignment != nil {
		if assignment.IsPrimary {
			result.Score += weightPrimaryProvider
			result.Reasons = append(result.Reasons, "primary provider for this property")
		} else {
			result.Score += weightExistingProvider
			result.Reasons = append(result.Reasons, "existing provider on this property")
		}
		if assignment.Rating != nil && *assignment.Rating > localRatingBonusFloor {
			result.Score += weightLocalRatingBonus
			result.Reasons = append(result.Reasons, fmt.Sprintf("rated %.1f/5 on this property", *assignment.Rating))
		}
		if assignment.CompletionRate != nil && *assignment.CompletionRate > completionBonusFloorPct {
			result.Score += weightCompletionBonus
			result.Reasons = append(result.Reasons, fmt.Sprintf("%.0f%% completion rate on this property", *assignment.CompletionRate))
		}
	}

	// Rule 2: global rating, scaled to 20 points.
	if provider.Rating != nil {
		contribution := (*provider.Rating / 5.0) * weightGlobalRatingMax
		result.Score += contribution
		result.Reasons = append(result.Reasons, fmt.Sprintf("global rating %.1f/5", *provider.Rating))
	}

	// Rule 3: proximity, only when both sides have coordinates.
	if dist, ok := geo.DistanceKm(property.Lat, property.Lon, provider.Lat, provider.Lon); ok {
		switch {
		case dist <= distanceNearKm:
			result.Score += weightDistanceNear
			result.Reasons = append(result.Reasons, fmt.Sprintf("%.1f km away", dist))
		case dist <= distanceMidKm:
			result.Score += weightDistanceMid
			result.Reasons = append(result.Reasons, fmt.Sprintf("%.1f km away", dist))
		case provider.MaxRadiusKm != nil && dist <= *provider.MaxRadiusKm:
			result.Score += weightDistanceInRadius
			result.Reasons = append(result.Reasons, fmt.Sprintf("%.1f km away, within service radius", dist))
		}
	}

	// Rule 4: current workload.
	switch {
	case openIssues == 0:
		result.Score += weightWorkloadIdle
		result.Reasons = append(result.Reasons, "no open issues")
	case openIssues <= 3:
		result.Score += weightWorkloadLight
		result.Reasons = append(result.Reasons, fmt.Sprintf("light workload (%d open issues)", openIssues))
	case openIssues <= 5:
		result.Score += weightWorkloadModerate
		result.Reasons = append(result.Reasons, fmt.Sprintf("moderate workload (%d open issues)", openIssues))
	}

	// Rule 5: average response time.
	if provider.AvgResponseTimeHours != nil {
		switch resp := *provider.AvgResponseTimeHours; {
		case resp <= responseFastHours:
			result.Score += weightResponseFast
			result.Reasons = append(result.Reasons, fmt.Sprintf("responds within %.0fh on average", resp))
		case resp <= responseSameDayHours:
			result.Score += weightResponseSameDay
			result.Reasons = append(result.Reasons, fmt.Sprintf("responds within %.0fh on average", resp))
		case resp <= responseNextDayHours:
			result.Score += weightResponseNextDay
			result.Reasons = append(result.Reasons, fmt.Sprintf("responds within %.0fh on average", resp))
		}
	}

	// Rule 6: urgent issues favor providers that respond within two hours.
	if priority == models.PriorityUrgent && provider.AvgResponseTimeHours != nil && *provider.AvgResponseTimeHours <= urgentResponseHours {
		result.Score += weightUrgentSpecialist
		result.Reasons = append(result.Reasons, "rapid responder for urgent issues")
	}

	// Rule 7: preferred providers.
	if provider.Preferred {
		result.Score += weightPreferredProvider
		result.Reasons = append(result.Reasons, "preferred provider")
	}

	return result
}
