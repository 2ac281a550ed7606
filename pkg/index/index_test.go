package index

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"testing"
)

func sampleRecords() Records {
	return Records{
		{Region: "Sossusvlei", Country: "Namibia", Map: "https://maps.example/1", Image: "https://img.example/1003.jpg"},
		{Region: "Altiplano", Country: "Bolivia", Map: "https://maps.example/2", Image: "https://img.example/1004.jpg"},
		{Region: "Open Ocean", Country: "", Map: "https://maps.example/3", Image: "https://img.example/1005.jpg"},
		// Duplicate image URL, must be deduplicated.
		{Region: "Sossusvlei", Country: "Namibia", Map: "https://maps.example/1", Image: "https://img.example/1003.jpg"},
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	records := sampleRecords()

	if err := Save(path, records); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !reflect.DeepEqual(loaded, records) {
		t.Errorf("Roundtrip mismatch:\nwant %+v\ngot  %+v", records, loaded)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing index file")
	}
}

func TestImageURLsDeduplicated(t *testing.T) {
	urls := sampleRecords().ImageURLs()

	want := []string{
		"https://img.example/1003.jpg",
		"https://img.example/1004.jpg",
		"https://img.example/1005.jpg",
	}
	if !reflect.DeepEqual(urls, want) {
		t.Errorf("Expected %v, got %v", want, urls)
	}
}

func TestByCountryGroupsAndDefaults(t *testing.T) {
	byCountry := sampleRecords().ByCountry()

	if len(byCountry) != 3 {
		t.Fatalf("Expected 3 countries, got %d: %v", len(byCountry), byCountry)
	}

	if got := byCountry["Namibia"]; len(got) != 1 || got[0] != "https://img.example/1003.jpg" {
		t.Errorf("Unexpected Namibia group: %v", got)
	}

	// Empty country falls back to "None".
	if got := byCountry["None"]; len(got) != 1 || got[0] != "https://img.example/1005.jpg" {
		t.Errorf("Unexpected None group: %v", got)
	}
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"region": "Atacama", "country": "Chile", "map": "https://maps.example/9", "image": "https://img.example/9.jpg"}]`))
	}))
	defer server.Close()

	records, err := Fetch(context.Background(), server.Client(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if len(records) != 1 || records[0].Country != "Chile" {
		t.Errorf("Unexpected records: %+v", records)
	}
}

func TestFetchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	if _, err := Fetch(context.Background(), server.Client(), server.URL); err == nil {
		t.Error("Expected error for HTTP 404")
	}
}
