// Package scrape rebuilds the image index by crawling the Earth View
// listing pages.
package scrape

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/pdillis/earthview/pkg/index"
)

const (
	// DefaultBaseURL is the listing root; page <n> describes image <n>.
	DefaultBaseURL = "https://earthview.withgoogle.com"

	// DefaultImageURL is the full-resolution asset template.
	DefaultImageURL = "https://www.gstatic.com/prettyearth/assets/full/%d.jpg"

	// DefaultWorkers bounds concurrent page fetches.
	DefaultWorkers = 64
)

// Scraper crawls listing pages and extracts index records.
type Scraper struct {
	Client    *http.Client
	UserAgent string
	BaseURL   string
	ImageURL  string
	Workers   int
	Quiet     bool
}

// New creates a scraper with default endpoints and concurrency.
func New(userAgent string) *Scraper {
	return &Scraper{
		Client:    &http.Client{},
		UserAgent: userAgent,
		BaseURL:   DefaultBaseURL,
		ImageURL:  DefaultImageURL,
		Workers:   DefaultWorkers,
	}
}

// FetchOne retrieves and parses the listing page for a single image id.
// A missing page (HTTP 404) returns a nil record and no error: ids are
// probed blindly and most of the id space is unassigned.
func (s *Scraper) FetchOne(ctx context.Context, id int) (*index.Record, error) {
	url := fmt.Sprintf("%s/%d", s.BaseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}

	mapsURL, _ := doc.Find("a[href]").First().Attr("href")

	return &index.Record{
		Region:  strings.TrimSpace(doc.Find("div.location__region").First().Text()),
		Country: strings.TrimSpace(doc.Find("div.location__country").First().Text()),
		Map:     mapsURL,
		Image:   fmt.Sprintf(s.ImageURL, id),
	}, nil
}

// Crawl probes every id in [0, maxIndex) and returns the records of the
// pages that exist, ordered by id. Fetch errors on individual ids are
// logged and skipped; only context cancellation aborts the crawl.
func (s *Scraper) Crawl(ctx context.Context, maxIndex int) (index.Records, error) {
	if maxIndex <= 0 {
		return nil, fmt.Errorf("max index must be positive, got %d", maxIndex)
	}

	workers := s.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var bar *progressbar.ProgressBar
	if !s.Quiet {
		bar = progressbar.Default(int64(maxIndex), "fetching")
	}

	// One slot per id keeps the output ordered without coordination.
	results := make([]*index.Record, maxIndex)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for id := 0; id < maxIndex; id++ {
		id := id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			record, err := s.FetchOne(ctx, id)
			if err != nil {
				log.Printf("Can't fetch id %d: %v", id, err)
			} else {
				results[id] = record
			}

			if bar != nil {
				bar.Add(1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if bar != nil {
		bar.Finish()
	}

	records := make(index.Records, 0, len(results))
	for _, r := range results {
		if r != nil {
			records = append(records, *r)
		}
	}

	return records, nil
}
