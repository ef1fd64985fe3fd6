package handlers

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/rentora/backend/internal/models"
)

func TestParseProvidersCSV(t *testing.T) {
	content := "provider_id,name,specialties,rating,response_time_hours,preferred,active,city,address\n" +
		"prov1,AquaFix,PLUMBING;HVAC,4.5,3,yes,true,Astana,Main St 1\n" +
		"prov2,VoltWorks,electrical,,,no,,Almaty,Side St 2\n"
	fh := makeMultipartFile(t, "providers", "providers.csv", content)

	providers, errs := parseProvidersCSV(fh)
	if len(errs) > 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if len(providers) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(providers))
	}

	first := providers[0]
	if len(first.Specialties) != 2 || first.Specialties[0] != models.CategoryPlumbing || first.Specialties[1] != models.CategoryHVAC {
		t.Fatalf("unexpected specialties: %v", first.Specialties)
	}
	if first.Rating == nil || *first.Rating != 4.5 {
		t.Fatalf("unexpected rating: %v", first.Rating)
	}
	if !first.Preferred || !first.Active {
		t.Fatalf("expected preferred active provider, got %+v", first)
	}

	second := providers[1]
	if second.Rating != nil || second.AvgResponseTimeHours != nil {
		t.Fatalf("expected empty optional fields to stay nil, got %+v", second)
	}
	if !second.Active {
		t.Fatalf("expected active to default to true when the column is empty")
	}
}

func TestParseProvidersCSVRejectsUnknownSpecialty(t *testing.T) {
	content := "provider_id,name,specialties\nprov1,AquaFix,GARDENING\n"
	fh := makeMultipartFile(t, "providers", "providers.csv", content)

	providers, errs := parseProvidersCSV(fh)
	if len(providers) != 0 {
		t.Fatalf("expected provider rejected, got %+v", providers)
	}
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %v", errs)
	}
}

func TestParsePropertiesCSV(t *testing.T) {
	content := "property_id,name,address,city,lat,lon\n" +
		"p1,Riverside 12,River St 12,Astana,51.16,71.47\n" +
		"p2,Hilltop 3,Hill St 3,Almaty,,\n"
	fh := makeMultipartFile(t, "properties", "properties.csv", content)

	properties, errs := parsePropertiesCSV(fh)
	if len(errs) > 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if len(properties) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(properties))
	}
	if properties[0].Lat == nil || *properties[0].Lat != 51.16 {
		t.Fatalf("unexpected lat: %v", properties[0].Lat)
	}
	if properties[1].Lat != nil || properties[1].Lon != nil {
		t.Fatalf("expected missing coords to stay nil, got %+v", properties[1])
	}
}

func makeMultipartFile(t *testing.T, fieldName, filename, content string) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(fieldName, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(int64(buf.Len()))
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	files := form.File[fieldName]
	if len(files) == 0 {
		t.Fatalf("no file headers found")
	}
	return files[0]
}
