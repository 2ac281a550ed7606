// Package index reads and writes the Earth View image index: the JSON
// list of listing records the scraper produces and every other command
// consumes.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
)

// FileName is the canonical index file name.
const FileName = "earthview.json"

// StaticURL is the published copy of the index, usable when the local
// file is missing or stale.
const StaticURL = "https://raw.githubusercontent.com/PDillis/earthview/master/earthview.json"

// Record is one Earth View listing entry.
type Record struct {
	Region  string `json:"region"`
	Country string `json:"country"`
	Map     string `json:"map"`
	Image   string `json:"image"`
}

// Records is the full image index.
type Records []Record

// Load reads an index file from disk.
func Load(path string) (Records, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records Records
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing index %s: %w", path, err)
	}

	return records, nil
}

// Save writes the index to disk as indented JSON.
func Save(path string, records Records) error {
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, append(data, '\n'), 0644)
}

// Fetch retrieves an index over HTTP, typically from StaticURL.
func Fetch(ctx context.Context, client *http.Client, url string) (Records, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var records Records
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing index from %s: %w", url, err)
	}

	return records, nil
}

// ImageURLs returns the deduplicated image URLs of the index, sorted
// for a stable download order.
func (rs Records) ImageURLs() []string {
	seen := make(map[string]bool, len(rs))
	urls := make([]string, 0, len(rs))
	for _, r := range rs {
		if r.Image == "" || seen[r.Image] {
			continue
		}
		seen[r.Image] = true
		urls = append(urls, r.Image)
	}

	sort.Strings(urls)
	return urls
}

// ByCountry returns the deduplicated image URLs grouped by country.
// Records without a country are grouped under "None".
func (rs Records) ByCountry() map[string][]string {
	seen := make(map[string]bool, len(rs))
	byCountry := make(map[string][]string)
	for _, r := range rs {
		if r.Image == "" || seen[r.Image] {
			continue
		}
		seen[r.Image] = true

		country := r.Country
		if country == "" {
			country = "None"
		}
		byCountry[country] = append(byCountry[country], r.Image)
	}

	for _, urls := range byCountry {
		sort.Strings(urls)
	}
	return byCountry
}
