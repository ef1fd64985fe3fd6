package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rentora/backend/internal/errs"
	"github.com/rentora/backend/internal/models"
)

func seedOpenIssue(repo *fakeRepo, priority models.IssuePriority) {
	repo.properties["p1"] = models.Property{ID: "p1"}
	repo.issues["i1"] = models.Issue{
		ID:         "i1",
		PropertyID: "p1",
		Category:   models.CategoryPlumbing,
		Priority:   priority,
		Status:     models.StatusOpen,
		ReportedAt: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestAutoAssignCommitsAboveThreshold(t *testing.T) {
	repo := newFakeRepo()
	seedOpenIssue(repo, models.PriorityHigh)
	repo.providers = []models.Provider{
		{ID: "prov1", Active: true, Specialties: []models.IssueCategory{models.CategoryPlumbing}, Rating: fptr(5), AvgResponseTimeHours: fptr(3)},
	}
	repo.assignments[pairKey("prov1", "p1")] = &models.PropertyAssignment{IsPrimary: true}

	svc := newTestService(repo)
	providerID, err := svc.AutoAssignProvider(context.Background(), "i1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if providerID == nil || *providerID != "prov1" {
		t.Fatalf("expected prov1 assigned, got %v", providerID)
	}

	issue := repo.issues["i1"]
	if issue.Status != models.StatusAssigned {
		t.Fatalf("expected issue ASSIGNED, got %s", issue.Status)
	}
	if issue.AssignedProviderID == nil || *issue.AssignedProviderID != "prov1" {
		t.Fatalf("expected assigned provider recorded, got %v", issue.AssignedProviderID)
	}

	tracking, ok := repo.tracking["i1"]
	if !ok {
		t.Fatalf("expected SLA tracking created alongside the assignment")
	}
	if tracking.TargetResponseHours != 8 || tracking.TargetResolutionHours != 72 {
		t.Fatalf("expected HIGH targets (8, 72), got (%v, %v)", tracking.TargetResponseHours, tracking.TargetResolutionHours)
	}
}

func TestAutoAssignBelowThresholdLeavesIssueOpen(t *testing.T) {
	repo := newFakeRepo()
	seedOpenIssue(repo, models.PriorityMedium)
	repo.providers = []models.Provider{
		{ID: "prov2", Active: true, Specialties: []models.IssueCategory{models.CategoryPlumbing}, Rating: fptr(2.5), AvgResponseTimeHours: fptr(30)},
	}
	repo.openCounts["prov2"] = 6

	svc := newTestService(repo)
	providerID, err := svc.AutoAssignProvider(context.Background(), "i1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if providerID != nil {
		t.Fatalf("expected nil provider for below-threshold match, got %v", *providerID)
	}
	if repo.issues["i1"].Status != models.StatusOpen {
		t.Fatalf("expected issue to stay OPEN, got %s", repo.issues["i1"].Status)
	}
	if repo.assignCalls != 0 {
		t.Fatalf("expected no assignment write, got %d", repo.assignCalls)
	}
	if _, exists := repo.tracking["i1"]; exists {
		t.Fatalf("expected no SLA tracking without an assignment")
	}
}

func TestAutoAssignNoCandidates(t *testing.T) {
	repo := newFakeRepo()
	seedOpenIssue(repo, models.PriorityUrgent)

	svc := newTestService(repo)
	providerID, err := svc.AutoAssignProvider(context.Background(), "i1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if providerID != nil {
		t.Fatalf("expected nil provider with zero candidates, got %v", *providerID)
	}
}

func TestAutoAssignIssueNotFound(t *testing.T) {
	svc := newTestService(newFakeRepo())
	_, err := svc.AutoAssignProvider(context.Background(), "missing")
	if !errors.Is(err, errs.ErrIssueNotFound) {
		t.Fatalf("expected ErrIssueNotFound, got %v", err)
	}
}

func TestAutoAssignSkipsNonOpenIssue(t *testing.T) {
	repo := newFakeRepo()
	seedOpenIssue(repo, models.PriorityHigh)
	issue := repo.issues["i1"]
	issue.Status = models.StatusAssigned
	repo.issues["i1"] = issue
	repo.providers = []models.Provider{
		{ID: "prov1", Active: true, Specialties: []models.IssueCategory{models.CategoryPlumbing}, Rating: fptr(5)},
	}

	svc := newTestService(repo)
	providerID, err := svc.AutoAssignProvider(context.Background(), "i1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if providerID != nil {
		t.Fatalf("expected nil for an already-assigned issue, got %v", *providerID)
	}
	if repo.assignCalls != 0 {
		t.Fatalf("expected no assignment write for non-open issue")
	}
}
