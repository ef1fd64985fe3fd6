package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentora/backend/internal/errs"
	"github.com/rentora/backend/internal/models"
)

func newTestService(repo *fakeRepo) *Service {
	return &Service{
		Repo:   repo,
		Logger: zerolog.Nop(),
		Now:    func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestFindBestProvidersRanksDescending(t *testing.T) {
	repo := newFakeRepo()
	repo.properties["p1"] = models.Property{ID: "p1"}
	repo.providers = []models.Provider{
		{ID: "weak", Active: true, Specialties: []models.IssueCategory{models.CategoryPlumbing}, Rating: fptr(2.5)},
		{ID: "strong", Active: true, Specialties: []models.IssueCategory{models.CategoryPlumbing}, Rating: fptr(5), AvgResponseTimeHours: fptr(3)},
	}
	repo.assignments[pairKey("strong", "p1")] = &models.PropertyAssignment{IsPrimary: true}
	repo.openCounts["weak"] = 6

	svc := newTestService(repo)
	scores, err := svc.FindBestProviders(context.Background(), "p1", models.CategoryPlumbing, models.PriorityMedium)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("expected 2 scored providers, got %d", len(scores))
	}
	if scores[0].ProviderID != "strong" || scores[1].ProviderID != "weak" {
		t.Fatalf("expected strong before weak, got %+v", scores)
	}
	if scores[0].Score <= scores[1].Score {
		t.Fatalf("expected descending scores, got %v then %v", scores[0].Score, scores[1].Score)
	}
}

func TestFindBestProvidersExcludesOtherSpecialties(t *testing.T) {
	repo := newFakeRepo()
	repo.properties["p1"] = models.Property{ID: "p1"}
	repo.providers = []models.Provider{
		{ID: "plumber", Active: true, Specialties: []models.IssueCategory{models.CategoryPlumbing}},
		{ID: "electrician", Active: true, Specialties: []models.IssueCategory{models.CategoryElectrical}},
		{ID: "retired", Active: false, Specialties: []models.IssueCategory{models.CategoryPlumbing}},
	}

	svc := newTestService(repo)
	scores, err := svc.FindBestProviders(context.Background(), "p1", models.CategoryPlumbing, models.PriorityLow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scores) != 1 || scores[0].ProviderID != "plumber" {
		t.Fatalf("expected only the active plumber, got %+v", scores)
	}
}

func TestFindBestProvidersTieBreaksByProviderID(t *testing.T) {
	repo := newFakeRepo()
	repo.properties["p1"] = models.Property{ID: "p1"}
	// Identical signals, enumeration order deliberately reversed.
	repo.providers = []models.Provider{
		{ID: "prov-b", Active: true, Specialties: []models.IssueCategory{models.CategoryHVAC}, Rating: fptr(4)},
		{ID: "prov-a", Active: true, Specialties: []models.IssueCategory{models.CategoryHVAC}, Rating: fptr(4)},
	}

	svc := newTestService(repo)
	scores, err := svc.FindBestProviders(context.Background(), "p1", models.CategoryHVAC, models.PriorityMedium)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scores[0].ProviderID != "prov-a" || scores[1].ProviderID != "prov-b" {
		t.Fatalf("expected id-ordered tie break, got %+v", scores)
	}
}

func TestFindBestProvidersPropertyNotFound(t *testing.T) {
	svc := newTestService(newFakeRepo())
	_, err := svc.FindBestProviders(context.Background(), "missing", models.CategoryOther, models.PriorityLow)
	if !errors.Is(err, errs.ErrPropertyNotFound) {
		t.Fatalf("expected ErrPropertyNotFound, got %v", err)
	}
}

func TestFindBestProvidersRejectsBadEnums(t *testing.T) {
	repo := newFakeRepo()
	repo.properties["p1"] = models.Property{ID: "p1"}
	svc := newTestService(repo)

	if _, err := svc.FindBestProviders(context.Background(), "p1", "CARPENTRY", models.PriorityLow); !errors.Is(err, errs.ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	if _, err := svc.FindBestProviders(context.Background(), "p1", models.CategoryOther, "WHENEVER"); !errors.Is(err, errs.ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
}

func TestFindBestProvidersEmptyResult(t *testing.T) {
	repo := newFakeRepo()
	repo.properties["p1"] = models.Property{ID: "p1"}
	svc := newTestService(repo)

	scores, err := svc.FindBestProviders(context.Background(), "p1", models.CategoryStructural, models.PriorityHigh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scores) != 0 {
		t.Fatalf("expected empty result, got %+v", scores)
	}
}
