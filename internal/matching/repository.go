package matching

import (
	"context"
	"time"

	"github.com/rentora/backend/internal/models"
)

// Repository is the data-access surface the matching core depends on. It is
// injected into Service so the core stays testable with an in-memory fake;
// internal/db.Store is the production implementation.
type Repository interface {
	GetProperty(ctx context.Context, id string) (models.Property, error)
	ListActiveProvidersBySpecialty(ctx context.Context, category models.IssueCategory) ([]models.Provider, error)
	// GetPropertyAssignment returns nil when the provider has no existing
	// relationship with the property.
	GetPropertyAssignment(ctx context.Context, providerID, propertyID string) (*models.PropertyAssignment, error)
	CountOpenIssues(ctx context.Context, providerID string) (int, error)

	GetIssue(ctx context.Context, id string) (models.Issue, error)
	UpdateIssueStatus(ctx context.Context, issueID string, status models.IssueStatus) error
	// AssignIssue applies the issue update and the SLA tracking creation in
	// one transaction. The tracking row is keyed unique per issue, so a
	// concurrent call cannot double-create it.
	AssignIssue(ctx context.Context, issueID, providerID string, targetResponseHours, targetResolutionHours float64) error

	GetSLATracking(ctx context.Context, issueID string) (models.SLATracking, error)
	UpdateSLATracking(ctx context.Context, trackingID string, update SLAUpdate) error
	// ListTrackedIssueIDs returns the ids of issues that have an SLA tracking
	// row and are not in a terminal status.
	ListTrackedIssueIDs(ctx context.Context) ([]string, error)

	ListProviderWork(ctx context.Context, providerID, propertyID string) ([]WorkRecord, error)
	UpdateAssignmentPerformance(ctx context.Context, providerID, propertyID string, perf Performance) error
}

// SLAUpdate carries the mutable SLA tracking fields. Nil means "leave as is".
type SLAUpdate struct {
	ActualResponseHours *float64
	ResponseBreached    *bool
	ResolutionBreached  *bool
	EscalationLevel     *int
	EscalatedAt         *time.Time
}

// WorkRecord is one historical issue a provider handled (or is handling) at a
// property, as input to the performance aggregation.
type WorkRecord struct {
	IssueID       string
	Completed     bool
	ResponseHours *float64
	Rating        *float64
}

// Performance is the aggregated result written back onto the
// property-provider assignment.
type Performance struct {
	AvgResponseHours *float64
	CompletionRate   *float64
	AvgRating        *float64
}
