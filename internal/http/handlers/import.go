package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rentora/backend/internal/geo"
	"github.com/rentora/backend/internal/models"
)

type ImportSummary struct {
	Properties struct {
		Parsed   int `json:"parsed"`
		Inserted int `json:"inserted"`
		Errors   int `json:"errors"`
	} `json:"properties"`
	Providers struct {
		Parsed   int `json:"parsed"`
		Inserted int `json:"inserted"`
		Errors   int `json:"errors"`
	} `json:"providers"`
	Errors []string `json:"errors"`
}

// @Summary Import CSV data
// @Description Upload properties and providers CSV files, replacing the catalog
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param properties formData file true "properties.csv"
// @Param providers formData file true "providers.csv"
// @Success 200 {object} ImportSummary
// @Failure 400 {object} map[string]any
// @Router /api/import [post]
func (h *Handler) Import(c *gin.Context) {
	propertiesFile, err := c.FormFile("properties")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "properties file required", nil)
		return
	}
	providersFile, err := c.FormFile("providers")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "providers file required", nil)
		return
	}
	if !validateExt(propertiesFile.Filename) || !validateExt(providersFile.Filename) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "all files must be .csv", nil)
		return
	}

	summary := ImportSummary{Errors: []string{}}

	properties, errs := parsePropertiesCSV(propertiesFile)
	summary.Properties.Parsed = len(properties)
	summary.Properties.Errors = len(errs)
	summary.Errors = append(summary.Errors, errs...)

	providers, errs := parseProvidersCSV(providersFile)
	summary.Providers.Parsed = len(providers)
	summary.Providers.Errors = len(errs)
	summary.Errors = append(summary.Errors, errs...)

	if len(summary.Errors) > 0 {
		writeError(c, http.StatusBadRequest, "CSV_PARSE_ERROR", "CSV validation errors", summary.Errors)
		return
	}

	ctx := c.Request.Context()
	if err := h.Store.TruncateCatalog(ctx); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to reset tables", err.Error())
		return
	}

	inserted, err := h.Store.InsertProperties(ctx, properties)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert properties", err.Error())
		return
	}
	summary.Properties.Inserted = int(inserted)

	inserted, err = h.Store.InsertProviders(ctx, providers)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert providers", err.Error())
		return
	}
	summary.Providers.Inserted = int(inserted)

	c.JSON(http.StatusOK, summary)
}

// @Summary Geocode records missing coordinates
// @Tags geocode
// @Produce json
// @Param force query string false "Re-geocode even when coordinates exist"
// @Success 200 {object} map[string]any
// @Router /api/properties/regeocode [post]
func (h *Handler) Regeocode(c *gin.Context) {
	if h.Geocoder == nil {
		writeError(c, http.StatusServiceUnavailable, "GEOCODER_UNAVAILABLE", "No geocoder configured", nil)
		return
	}
	force := c.Query("force") == "1" || strings.EqualFold(c.Query("force"), "true")

	targets, err := h.Store.ListGeocodeTargets(c.Request.Context(), force)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list geocode targets", err.Error())
		return
	}

	updated := 0
	failed := 0
	for _, target := range targets {
		query := geo.BuildGeocodeQuery(h.CountryDefault, target.City, target.Address)
		lat, lon, _, _, err := h.Geocoder.Geocode(c.Request.Context(), query)
		if err != nil {
			failed++
			if !errors.Is(err, geo.ErrNotFound) {
				h.Logger.Warn().Err(err).Str("kind", target.Kind).Str("id", target.ID).Msg("geocode failed")
			}
			continue
		}
		if err := h.Store.UpdateCoords(c.Request.Context(), target.Kind, target.ID, lat, lon); err != nil {
			failed++
			h.Logger.Error().Err(err).Str("kind", target.Kind).Str("id", target.ID).Msg("coords update failed")
			continue
		}
		updated++
	}

	c.JSON(http.StatusOK, gin.H{"targets": len(targets), "updated": updated, "failed": failed})
}

func validateExt(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".csv")
}

func parsePropertiesCSV(file *multipart.FileHeader) ([]models.Property, []string) {
	f, err := file.Open()
	if err != nil {
		return nil, []string{err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, []string{"failed to read header"}
	}
	index := headerIndex(headers)
	var errs []string
	var out []models.Property

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}

		id := normalizeTrim(getFieldAny(rec, index, "id", "property_id"))
		name := normalizeTrim(getFieldAny(rec, index, "name", "property_name"))
		address := normalizeTrim(getFieldAny(rec, index, "address", "street"))
		city := normalizeTrim(getFieldAny(rec, index, "city"))
		lat := parseOptionalFloat(getFieldAny(rec, index, "lat", "latitude"))
		lon := parseOptionalFloat(getFieldAny(rec, index, "lon", "longitude"))

		if id == "" {
			id = fmt.Sprintf("PROP-%04d", len(out)+1)
		}
		if name == "" {
			errs = append(errs, fmt.Sprintf("property %s: name required", id))
			continue
		}

		out = append(out, models.Property{
			ID:        id,
			Name:      name,
			Address:   address,
			City:      city,
			Lat:       lat,
			Lon:       lon,
			CreatedAt: time.Now().UTC(),
		})
	}
	return out, errs
}

func parseProvidersCSV(file *multipart.FileHeader) ([]models.Provider, []string) {
	f, err := file.Open()
	if err != nil {
		return nil, []string{err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, []string{"failed to read header"}
	}
	index := headerIndex(headers)
	var errs []string
	var out []models.Provider

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}

		id := normalizeTrim(getFieldAny(rec, index, "id", "provider_id"))
		name := normalizeTrim(getFieldAny(rec, index, "name", "company", "company_name"))
		specialtiesRaw := normalizeTrim(getFieldAny(rec, index, "specialties", "categories", "skills"))
		address := normalizeTrim(getFieldAny(rec, index, "address", "street"))
		city := normalizeTrim(getFieldAny(rec, index, "city"))
		rating := parseOptionalFloat(getFieldAny(rec, index, "rating"))
		respTime := parseOptionalFloat(getFieldAny(rec, index, "avg_response_time_hours", "response_time_hours", "response_time"))
		radius := parseOptionalFloat(getFieldAny(rec, index, "max_radius_km", "radius_km", "radius"))
		preferred := parseBool(getFieldAny(rec, index, "preferred", "is_preferred"))
		activeRaw := normalizeTrim(getFieldAny(rec, index, "active", "is_active"))

		if id == "" {
			id = fmt.Sprintf("PROV-%03d", len(out)+1)
		}
		if name == "" {
			errs = append(errs, fmt.Sprintf("provider %s: name required", id))
			continue
		}

		specialties, badSpecialties := parseSpecialties(specialtiesRaw)
		if len(badSpecialties) > 0 {
			errs = append(errs, fmt.Sprintf("provider %s: unknown specialties %s", id, strings.Join(badSpecialties, ", ")))
			continue
		}
		if len(specialties) == 0 {
			specialties = []models.IssueCategory{models.CategoryOther}
		}

		active := true
		if activeRaw != "" {
			active = parseBool(activeRaw)
		}

		out = append(out, models.Provider{
			ID:                   id,
			Name:                 name,
			Specialties:          specialties,
			Rating:               rating,
			AvgResponseTimeHours: respTime,
			MaxRadiusKm:          radius,
			Preferred:            preferred,
			Active:               active,
			Address:              address,
			City:                 city,
			CreatedAt:            time.Now().UTC(),
		})
	}
	return out, errs
}

func parseSpecialties(raw string) ([]models.IssueCategory, []string) {
	if raw == "" {
		return nil, nil
	}
	var out []models.IssueCategory
	var bad []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ';' || r == '|' || r == ',' }) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		category, err := models.ParseCategory(part)
		if err != nil {
			bad = append(bad, part)
			continue
		}
		out = append(out, category)
	}
	return out, bad
}

func headerIndex(headers []string) map[string]int {
	index := make(map[string]int, len(headers))
	for i, head := range headers {
		index[strings.ToLower(strings.TrimSpace(head))] = i
	}
	return index
}

func getFieldAny(rec []string, index map[string]int, names ...string) string {
	for _, name := range names {
		if i, ok := index[name]; ok && i < len(rec) {
			return rec[i]
		}
	}
	return ""
}

func normalizeTrim(value string) string {
	return strings.TrimSpace(value)
}

func parseOptionalFloat(value string) *float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}
