package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rentora/backend/internal/errs"
	"github.com/rentora/backend/internal/matching"
	"github.com/rentora/backend/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const propertyColumns = `id, name, address, city, lat, lon, created_at`

func scanProperty(row pgx.Row) (models.Property, error) {
	var p models.Property
	err := row.Scan(&p.ID, &p.Name, &p.Address, &p.City, &p.Lat, &p.Lon, &p.CreatedAt)
	return p, err
}

func (s *Store) GetProperty(ctx context.Context, id string) (models.Property, error) {
	p, err := scanProperty(s.Pool.QueryRow(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Property{}, errs.ErrPropertyNotFound
	}
	return p, err
}

func (s *Store) ListProperties(ctx context.Context) ([]models.Property, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+propertyColumns+` FROM properties ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const providerColumns = `id, name, specialties, rating, avg_response_time_hours, max_radius_km, preferred, active, address, city, lat, lon, created_at`

func scanProvider(row pgx.Row) (models.Provider, error) {
	var p models.Provider
	var specialties []string
	err := row.Scan(&p.ID, &p.Name, &specialties, &p.Rating, &p.AvgResponseTimeHours, &p.MaxRadiusKm, &p.Preferred, &p.Active, &p.Address, &p.City, &p.Lat, &p.Lon, &p.CreatedAt)
	if err != nil {
		return models.Provider{}, err
	}
	p.Specialties = make([]models.IssueCategory, 0, len(specialties))
	for _, sp := range specialties {
		p.Specialties = append(p.Specialties, models.IssueCategory(sp))
	}
	return p, nil
}

func (s *Store) GetProvider(ctx context.Context, id string) (models.Provider, error) {
	p, err := scanProvider(s.Pool.QueryRow(ctx, `SELECT `+providerColumns+` FROM providers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Provider{}, errs.ErrProviderNotFound
	}
	return p, err
}

func (s *Store) ListProviders(ctx context.Context, category string, activeOnly bool) ([]models.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers`
	var args []any
	var wheres []string
	if category != "" {
		args = append(args, category)
		wheres = append(wheres, fmt.Sprintf("$%d = ANY(specialties)", len(args)))
	}
	if activeOnly {
		wheres = append(wheres, "active = TRUE")
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY name ASC, id ASC"

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) ListActiveProvidersBySpecialty(ctx context.Context, category models.IssueCategory) ([]models.Provider, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+providerColumns+` FROM providers WHERE active = TRUE AND $1 = ANY(specialties) ORDER BY id ASC`, string(category))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetPropertyAssignment(ctx context.Context, providerID, propertyID string) (*models.PropertyAssignment, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT provider_id, property_id, is_primary, rating, completion_rate, updated_at
		FROM property_assignments
		WHERE provider_id = $1 AND property_id = $2
	`, providerID, propertyID)

	var a models.PropertyAssignment
	err := row.Scan(&a.ProviderID, &a.PropertyID, &a.IsPrimary, &a.Rating, &a.CompletionRate, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) CountOpenIssues(ctx context.Context, providerID string) (int, error) {
	var count int
	err := s.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM issues
		WHERE assigned_provider_id = $1 AND status NOT IN ('COMPLETED', 'CLOSED')
	`, providerID).Scan(&count)
	return count, err
}

const issueColumns = `id, property_id, category, priority, status, title, description, assigned_provider_id, reported_at, updated_at`

func scanIssue(row pgx.Row) (models.Issue, error) {
	var i models.Issue
	err := row.Scan(&i.ID, &i.PropertyID, &i.Category, &i.Priority, &i.Status, &i.Title, &i.Description, &i.AssignedProviderID, &i.ReportedAt, &i.UpdatedAt)
	return i, err
}

func (s *Store) GetIssue(ctx context.Context, id string) (models.Issue, error) {
	i, err := scanIssue(s.Pool.QueryRow(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Issue{}, errs.ErrIssueNotFound
	}
	return i, err
}

func (s *Store) CreateIssue(ctx context.Context, issue models.Issue) (models.Issue, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO issues (property_id, category, priority, status, title, description, reported_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING `+issueColumns, issue.PropertyID, issue.Category, issue.Priority, issue.Status, issue.Title, issue.Description, issue.ReportedAt)
	return scanIssue(row)
}

func (s *Store) ListIssues(ctx context.Context, status, category, priority, propertyID string, limit, offset int) ([]models.Issue, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + issueColumns + ` FROM issues`
	var args []any
	var wheres []string
	if status != "" {
		args = append(args, status)
		wheres = append(wheres, fmt.Sprintf("status = $%d", len(args)))
	}
	if category != "" {
		args = append(args, category)
		wheres = append(wheres, fmt.Sprintf("category = $%d", len(args)))
	}
	if priority != "" {
		args = append(args, priority)
		wheres = append(wheres, fmt.Sprintf("priority = $%d", len(args)))
	}
	if propertyID != "" {
		args = append(args, propertyID)
		wheres = append(wheres, fmt.Sprintf("property_id = $%d", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY reported_at DESC LIMIT $" + fmt.Sprint(len(args)+1) + " OFFSET $" + fmt.Sprint(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Issue
	for rows.Next() {
		i, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (s *Store) UpdateIssueStatus(ctx context.Context, issueID string, status models.IssueStatus) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE issues SET status = $1, updated_at = NOW() WHERE id = $2`, status, issueID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrIssueNotFound
	}
	return nil
}

// AssignIssue moves the issue to ASSIGNED and creates its SLA tracking row in
// one transaction. sla_tracking.issue_id is unique, so a concurrent call
// cannot leave a second tracking row behind.
func (s *Store) AssignIssue(ctx context.Context, issueID, providerID string, targetResponseHours, targetResolutionHours float64) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE issues SET status = $1, assigned_provider_id = $2, updated_at = NOW() WHERE id = $3
		`, models.StatusAssigned, providerID, issueID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errs.ErrIssueNotFound
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO sla_tracking (issue_id, provider_id, target_response_hours, target_resolution_hours, created_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (issue_id) DO NOTHING
		`, issueID, providerID, targetResponseHours, targetResolutionHours)
		return err
	})
}

const slaColumns = `id, issue_id, provider_id, target_response_hours, target_resolution_hours, actual_response_hours, response_breached, resolution_breached, escalation_level, escalated_at, created_at`

func (s *Store) GetSLATracking(ctx context.Context, issueID string) (models.SLATracking, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+slaColumns+` FROM sla_tracking WHERE issue_id = $1`, issueID)
	var t models.SLATracking
	err := row.Scan(&t.ID, &t.IssueID, &t.ProviderID, &t.TargetResponseHours, &t.TargetResolutionHours, &t.ActualResponseHours, &t.ResponseBreached, &t.ResolutionBreached, &t.EscalationLevel, &t.EscalatedAt, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.SLATracking{}, errs.ErrSLANotFound
	}
	return t, err
}

func (s *Store) UpdateSLATracking(ctx context.Context, trackingID string, update matching.SLAUpdate) error {
	var sets []string
	var args []any
	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.ActualResponseHours != nil {
		addSet("actual_response_hours", *update.ActualResponseHours)
	}
	if update.ResponseBreached != nil {
		addSet("response_breached", *update.ResponseBreached)
	}
	if update.ResolutionBreached != nil {
		addSet("resolution_breached", *update.ResolutionBreached)
	}
	if update.EscalationLevel != nil {
		addSet("escalation_level", *update.EscalationLevel)
	}
	if update.EscalatedAt != nil {
		addSet("escalated_at", *update.EscalatedAt)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, trackingID)
	query := fmt.Sprintf("UPDATE sla_tracking SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	tag, err := s.Pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrSLANotFound
	}
	return nil
}

func (s *Store) ListTrackedIssueIDs(ctx context.Context) ([]string, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT i.id FROM issues i
		JOIN sla_tracking t ON t.issue_id = i.id
		WHERE i.status NOT IN ('COMPLETED', 'CLOSED')
		ORDER BY i.reported_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) ListProviderWork(ctx context.Context, providerID, propertyID string) ([]matching.WorkRecord, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT i.id, i.status IN ('COMPLETED', 'CLOSED'), t.actual_response_hours, i.rating
		FROM issues i
		LEFT JOIN sla_tracking t ON t.issue_id = i.id
		WHERE i.assigned_provider_id = $1 AND i.property_id = $2
		ORDER BY i.reported_at ASC
	`, providerID, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []matching.WorkRecord
	for rows.Next() {
		var rec matching.WorkRecord
		if err := rows.Scan(&rec.IssueID, &rec.Completed, &rec.ResponseHours, &rec.Rating); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpdateAssignmentPerformance writes the refreshed aggregates onto the
// property assignment and mirrors the response-time average onto the
// provider's global figure.
func (s *Store) UpdateAssignmentPerformance(ctx context.Context, providerID, propertyID string, perf matching.Performance) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO property_assignments (provider_id, property_id, is_primary, rating, completion_rate, updated_at)
			VALUES ($1, $2, FALSE, $3, $4, NOW())
			ON CONFLICT (provider_id, property_id) DO UPDATE SET
				rating = COALESCE(EXCLUDED.rating, property_assignments.rating),
				completion_rate = COALESCE(EXCLUDED.completion_rate, property_assignments.completion_rate),
				updated_at = NOW()
		`, providerID, propertyID, perf.AvgRating, perf.CompletionRate)
		if err != nil {
			return err
		}
		if perf.AvgResponseHours != nil {
			_, err = tx.Exec(ctx, `UPDATE providers SET avg_response_time_hours = $1 WHERE id = $2`, *perf.AvgResponseHours, providerID)
		}
		return err
	})
}

func (s *Store) InsertProperties(ctx context.Context, properties []models.Property) (int64, error) {
	rows := make([][]any, 0, len(properties))
	for _, p := range properties {
		rows = append(rows, []any{p.ID, p.Name, p.Address, p.City, p.Lat, p.Lon, p.CreatedAt})
	}
	return s.Pool.CopyFrom(ctx, pgx.Identifier{"properties"}, []string{"id", "name", "address", "city", "lat", "lon", "created_at"}, pgx.CopyFromRows(rows))
}

func (s *Store) InsertProviders(ctx context.Context, providers []models.Provider) (int64, error) {
	rows := make([][]any, 0, len(providers))
	for _, p := range providers {
		specialties := make([]string, 0, len(p.Specialties))
		for _, sp := range p.Specialties {
			specialties = append(specialties, string(sp))
		}
		rows = append(rows, []any{p.ID, p.Name, specialties, p.Rating, p.AvgResponseTimeHours, p.MaxRadiusKm, p.Preferred, p.Active, p.Address, p.City, p.Lat, p.Lon, p.CreatedAt})
	}
	return s.Pool.CopyFrom(ctx, pgx.Identifier{"providers"},
		[]string{"id", "name", "specialties", "rating", "avg_response_time_hours", "max_radius_km", "preferred", "active", "address", "city", "lat", "lon", "created_at"},
		pgx.CopyFromRows(rows))
}

func (s *Store) TruncateCatalog(ctx context.Context) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `TRUNCATE properties, providers, property_assignments, issues, sla_tracking RESTART IDENTITY CASCADE`)
		return err
	})
}

type GeocodeTarget struct {
	Kind    string
	ID      string
	Address string
	City    string
}

func (s *Store) ListGeocodeTargets(ctx context.Context, force bool) ([]GeocodeTarget, error) {
	filter := ""
	if !force {
		filter = " WHERE lat IS NULL OR lon IS NULL"
	}
	query := `
		SELECT 'property' AS kind, id, address, city FROM properties` + filter + `
		UNION ALL
		SELECT 'provider' AS kind, id, address, city FROM providers` + filter

	rows, err := s.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GeocodeTarget
	for rows.Next() {
		var t GeocodeTarget
		if err := rows.Scan(&t.Kind, &t.ID, &t.Address, &t.City); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) UpdateCoords(ctx context.Context, kind, id string, lat, lon float64) error {
	table := "properties"
	if kind == "provider" {
		table = "providers"
	}
	_, err := s.Pool.Exec(ctx, fmt.Sprintf(`UPDATE %s SET lat = $1, lon = $2 WHERE id = $3`, table), lat, lon, id)
	return err
}

// IssueDetails is the combined read for the issue detail endpoint.
type IssueDetails struct {
	Issue    models.Issue        `json:"issue"`
	Provider *models.Provider    `json:"provider,omitempty"`
	SLA      *models.SLATracking `json:"sla,omitempty"`
}

func (s *Store) GetIssueDetails(ctx context.Context, issueID string) (IssueDetails, error) {
	issue, err := s.GetIssue(ctx, issueID)
	if err != nil {
		return IssueDetails{}, err
	}
	details := IssueDetails{Issue: issue}

	if issue.AssignedProviderID != nil {
		provider, err := s.GetProvider(ctx, *issue.AssignedProviderID)
		if err != nil && !errors.Is(err, errs.ErrProviderNotFound) {
			return IssueDetails{}, err
		}
		if err == nil {
			details.Provider = &provider
		}
	}

	sla, err := s.GetSLATracking(ctx, issueID)
	if err != nil && !errors.Is(err, errs.ErrSLANotFound) {
		return IssueDetails{}, err
	}
	if err == nil {
		details.SLA = &sla
	}
	return details, nil
}

var _ matching.Repository = (*Store)(nil)
