package geo

import "testing"

func TestBuildGeocodeQuery(t *testing.T) {
	q := BuildGeocodeQuery("Kazakhstan", "Astana", "Abay Ave 10")
	if q != "Kazakhstan, Astana, Abay Ave 10" {
		t.Fatalf("unexpected query: %s", q)
	}
	if q := BuildGeocodeQuery("", "Astana", ""); q != "Astana" {
		t.Fatalf("unexpected query: %s", q)
	}
}

func TestShouldGeocodeSkipWhenCoordsExist(t *testing.T) {
	lat := 51.0
	lon := 71.0
	if ShouldGeocode(&lat, &lon, false) {
		t.Fatalf("expected geocode to be skipped when lat/lon exist")
	}
	if !ShouldGeocode(&lat, nil, false) {
		t.Fatalf("expected geocode when lon missing")
	}
	if !ShouldGeocode(&lat, &lon, true) {
		t.Fatalf("expected geocode when force is true")
	}
}
