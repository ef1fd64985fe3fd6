package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/rentora/backend/internal/errs"
	"github.com/rentora/backend/internal/models"
)

type fakeRepo struct {
	properties  map[string]models.Property
	providers   []models.Provider
	assignments map[string]*models.PropertyAssignment
	openCounts  map[string]int
	issues      map[string]models.Issue
	tracking    map[string]*models.SLATracking
	work        map[string][]WorkRecord
	perf        map[string]Performance

	assignCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		properties:  map[string]models.Property{},
		assignments: map[string]*models.PropertyAssignment{},
		openCounts:  map[string]int{},
		issues:      map[string]models.Issue{},
		tracking:    map[string]*models.SLATracking{},
		work:        map[string][]WorkRecord{},
		perf:        map[string]Performance{},
	}
}

func pairKey(providerID, propertyID string) string {
	return providerID + "|" + propertyID
}

func (f *fakeRepo) GetProperty(ctx context.Context, id string) (models.Property, error) {
	p, ok := f.properties[id]
	if !ok {
		return models.Property{}, errs.ErrPropertyNotFound
	}
	return p, nil
}

func (f *fakeRepo) ListActiveProvidersBySpecialty(ctx context.Context, category models.IssueCategory) ([]models.Provider, error) {
	var out []models.Provider
	for _, p := range f.providers {
		if p.Active && p.HasSpecialty(category) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetPropertyAssignment(ctx context.Context, providerID, propertyID string) (*models.PropertyAssignment, error) {
	return f.assignments[pairKey(providerID, propertyID)], nil
}

func (f *fakeRepo) CountOpenIssues(ctx context.Context, providerID string) (int, error) {
	return f.openCounts[providerID], nil
}

func (f *fakeRepo) GetIssue(ctx context.Context, id string) (models.Issue, error) {
	i, ok := f.issues[id]
	if !ok {
		return models.Issue{}, errs.ErrIssueNotFound
	}
	return i, nil
}

func (f *fakeRepo) UpdateIssueStatus(ctx context.Context, issueID string, status models.IssueStatus) error {
	issue, ok := f.issues[issueID]
	if !ok {
		return errs.ErrIssueNotFound
	}
	issue.Status = status
	f.issues[issueID] = issue
	return nil
}

func (f *fakeRepo) AssignIssue(ctx context.Context, issueID, providerID string, targetResponseHours, targetResolutionHours float64) error {
	f.assignCalls++
	issue, ok := f.issues[issueID]
	if !ok {
		return errs.ErrIssueNotFound
	}
	issue.Status = models.StatusAssigned
	issue.AssignedProviderID = &providerID
	f.issues[issueID] = issue

	if _, exists := f.tracking[issueID]; exists {
		return nil
	}
	f.tracking[issueID] = &models.SLATracking{
		ID:                    fmt.Sprintf("sla-%s", issueID),
		IssueID:               issueID,
		ProviderID:            providerID,
		TargetResponseHours:   targetResponseHours,
		TargetResolutionHours: targetResolutionHours,
		CreatedAt:             time.Now().UTC(),
	}
	return nil
}

func (f *fakeRepo) GetSLATracking(ctx context.Context, issueID string) (models.SLATracking, error) {
	t, ok := f.tracking[issueID]
	if !ok {
		return models.SLATracking{}, errs.ErrSLANotFound
	}
	return *t, nil
}

func (f *fakeRepo) UpdateSLATracking(ctx context.Context, trackingID string, update SLAUpdate) error {
	for _, t := range f.tracking {
		if t.ID != trackingID {
			continue
		}
		if update.ActualResponseHours != nil {
			t.ActualResponseHours = update.ActualResponseHours
		}
		if update.ResponseBreached != nil {
			t.ResponseBreached = *update.ResponseBreached
		}
		if update.ResolutionBreached != nil {
			t.ResolutionBreached = *update.ResolutionBreached
		}
		if update.EscalationLevel != nil {
			t.EscalationLevel = *update.EscalationLevel
		}
		if update.EscalatedAt != nil {
			t.EscalatedAt = update.EscalatedAt
		}
		return nil
	}
	return errs.ErrSLANotFound
}

func (f *fakeRepo) ListTrackedIssueIDs(ctx context.Context) ([]string, error) {
	var out []string
	for id := range f.tracking {
		if issue, ok := f.issues[id]; ok && !issue.Status.Terminal() {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListProviderWork(ctx context.Context, providerID, propertyID string) ([]WorkRecord, error) {
	return f.work[pairKey(providerID, propertyID)], nil
}

func (f *fakeRepo) UpdateAssignmentPerformance(ctx context.Context, providerID, propertyID string, perf Performance) error {
	f.perf[pairKey(providerID, propertyID)] = perf
	return nil
}

var _ Repository = (*fakeRepo)(nil)

func fptr(v float64) *float64 {
	return &v
}
