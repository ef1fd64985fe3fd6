package models

import (
	"fmt"
	"strings"
	"time"
)

type IssueCategory string

const (
	CategoryPlumbing   IssueCategory = "PLUMBING"
	CategoryElectrical IssueCategory = "ELECTRICAL"
	CategoryHVAC       IssueCategory = "HVAC"
	CategoryStructural IssueCategory = "STRUCTURAL"
	CategoryOther      IssueCategory = "OTHER"
)

type IssuePriority string

const (
	PriorityLow    IssuePriority = "LOW"
	PriorityMedium IssuePriority = "MEDIUM"
	PriorityHigh   IssuePriority = "HIGH"
	PriorityUrgent IssuePriority = "URGENT"
)

type IssueStatus string

const (
	StatusOpen       IssueStatus = "OPEN"
	StatusAssigned   IssueStatus = "ASSIGNED"
	StatusInProgress IssueStatus = "IN_PROGRESS"
	StatusCompleted  IssueStatus = "COMPLETED"
	StatusClosed     IssueStatus = "CLOSED"
)

func ParseCategory(value string) (IssueCategory, error) {
	c := IssueCategory(strings.ToUpper(strings.TrimSpace(value)))
	switch c {
	case CategoryPlumbing, CategoryElectrical, CategoryHVAC, CategoryStructural, CategoryOther:
		return c, nil
	}
	return "", fmt.Errorf("unknown issue category %q", value)
}

func ParsePriority(value string) (IssuePriority, error) {
	p := IssuePriority(strings.ToUpper(strings.TrimSpace(value)))
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p, nil
	}
	return "", fmt.Errorf("unknown issue priority %q", value)
}

func ParseStatus(value string) (IssueStatus, error) {
	s := IssueStatus(strings.ToUpper(strings.TrimSpace(value)))
	switch s {
	case StatusOpen, StatusAssigned, StatusInProgress, StatusCompleted, StatusClosed:
		return s, nil
	}
	return "", fmt.Errorf("unknown issue status %q", value)
}

// Terminal reports whether an issue in this status is out of the assignment
// and escalation workflow.
func (s IssueStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusClosed
}

type Property struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	Lat       *float64  `json:"lat,omitempty"`
	Lon       *float64  `json:"lon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Provider struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Specialties          []IssueCategory `json:"specialties"`
	Rating               *float64        `json:"rating,omitempty"`
	AvgResponseTimeHours *float64        `json:"avg_response_time_hours,omitempty"`
	MaxRadiusKm          *float64        `json:"max_radius_km,omitempty"`
	Preferred            bool            `json:"preferred"`
	Active               bool            `json:"active"`
	Address              string          `json:"address"`
	City                 string          `json:"city"`
	Lat                  *float64        `json:"lat,omitempty"`
	Lon                  *float64        `json:"lon,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
}

func (p Provider) HasSpecialty(category IssueCategory) bool {
	for _, s := range p.Specialties {
		if s == category {
			return true
		}
	}
	return false
}

// PropertyAssignment is the per-property relationship a provider has built
// up: primary vendor flag and locally observed quality numbers.
type PropertyAssignment struct {
	ProviderID     string    `json:"provider_id"`
	PropertyID     string    `json:"property_id"`
	IsPrimary      bool      `json:"is_primary"`
	Rating         *float64  `json:"rating,omitempty"`
	CompletionRate *float64  `json:"completion_rate,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Issue struct {
	ID                 string        `json:"id"`
	PropertyID         string        `json:"property_id"`
	Category           IssueCategory `json:"category"`
	Priority           IssuePriority `json:"priority"`
	Status             IssueStatus   `json:"status"`
	Title              string        `json:"title"`
	Description        string        `json:"description"`
	AssignedProviderID *string       `json:"assigned_provider_id,omitempty"`
	ReportedAt         time.Time     `json:"reported_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// ProviderScore is the ranked-match result for one candidate. Computed fresh
// on every request, never persisted.
type ProviderScore struct {
	ProviderID string   `json:"provider_id"`
	Score      float64  `json:"score"`
	Reasons    []string `json:"reasons"`
}

type SLATracking struct {
	ID                    string     `json:"id"`
	IssueID               string     `json:"issue_id"`
	ProviderID            string     `json:"provider_id"`
	TargetResponseHours   float64    `json:"target_response_hours"`
	TargetResolutionHours float64    `json:"target_resolution_hours"`
	ActualResponseHours   *float64   `json:"actual_response_hours,omitempty"`
	ResponseBreached      bool       `json:"response_breached"`
	ResolutionBreached    bool       `json:"resolution_breached"`
	EscalationLevel       int        `json:"escalation_level"`
	EscalatedAt           *time.Time `json:"escalated_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
}
