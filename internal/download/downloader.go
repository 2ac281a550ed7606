// Package download fetches the images referenced by the index into
// local directory trees, flat or grouped by country.
package download

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sync"

	_ "image/jpeg"
	_ "image/png"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// Full-resolution Earth View assets are always this shape.
const (
	DefaultExpectedWidth  = 1800
	DefaultExpectedHeight = 1200
)

// DefaultWorkers bounds concurrent image downloads.
const DefaultWorkers = 16

// Downloader fetches batches of images. Exists is the resumability
// check: paths it reports as present are skipped without a request.
type Downloader struct {
	Client    *http.Client
	UserAgent string
	Workers   int
	Quiet     bool

	// ExpectedWidth/ExpectedHeight verify each downloaded image before
	// it is persisted; zero disables the check.
	ExpectedWidth  int
	ExpectedHeight int

	Exists func(path string) bool
}

// Summary reports the outcome of a download batch.
type Summary struct {
	mu         sync.Mutex
	Downloaded int
	Skipped    int
	Copied     int
	Failed     int
}

func (s *Summary) String() string {
	return fmt.Sprintf("%d downloaded, %d skipped, %d copied, %d failed",
		s.Downloaded, s.Skipped, s.Copied, s.Failed)
}

// New creates a downloader with default verification and concurrency.
func New(userAgent string) *Downloader {
	return &Downloader{
		Client:         &http.Client{},
		UserAgent:      userAgent,
		Workers:        DefaultWorkers,
		ExpectedWidth:  DefaultExpectedWidth,
		ExpectedHeight: DefaultExpectedHeight,
		Exists:         FileExists,
	}
}

// FileExists is the default Exists predicate: a readable regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// All downloads every URL into dir, named by the URL's base name.
// Existing files are skipped; per-URL failures are logged and counted,
// not fatal to the batch.
func (d *Downloader) All(ctx context.Context, urls []string, dir string) (*Summary, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	summary := &Summary{}
	bar := d.newBar(len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers())

	for _, url := range urls {
		url := url
		g.Go(func() error {
			defer barAdd(bar)

			if err := ctx.Err(); err != nil {
				return err
			}
			d.fetchOne(ctx, url, filepath.Join(dir, path.Base(url)), "", summary)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}
	barFinish(bar)
	return summary, nil
}

// ByCountry downloads every URL into a per-country subdirectory of dir.
// When allDir is non-empty and already holds the image from a previous
// flat download, the file is copied instead of fetched again.
func (d *Downloader) ByCountry(ctx context.Context, byCountry map[string][]string, dir, allDir string) (*Summary, error) {
	total := 0
	for country, urls := range byCountry {
		if err := os.MkdirAll(filepath.Join(dir, country), 0755); err != nil {
			return nil, err
		}
		total += len(urls)
	}

	summary := &Summary{}
	bar := d.newBar(total)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers())

	for country, urls := range byCountry {
		country := country
		for _, url := range urls {
			url := url
			g.Go(func() error {
				defer barAdd(bar)

				if err := ctx.Err(); err != nil {
					return err
				}

				dest := filepath.Join(dir, country, path.Base(url))
				var cached string
				if allDir != "" {
					cached = filepath.Join(allDir, path.Base(url))
				}
				d.fetchOne(ctx, url, dest, cached, summary)
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}
	barFinish(bar)
	return summary, nil
}

// fetchOne places one image at dest, preferring skip, then a local copy
// from cached, then a network fetch.
func (d *Downloader) fetchOne(ctx context.Context, url, dest, cached string, summary *Summary) {
	if d.Exists != nil && d.Exists(dest) {
		summary.add(func(s *Summary) { s.Skipped++ })
		return
	}

	if cached != "" && d.Exists != nil && d.Exists(cached) {
		if err := copyFile(cached, dest); err != nil {
			log.Printf("Can't copy %s: %v", cached, err)
			summary.add(func(s *Summary) { s.Failed++ })
			return
		}
		summary.add(func(s *Summary) { s.Copied++ })
		return
	}

	if err := d.download(ctx, url, dest); err != nil {
		log.Printf("Can't retrieve %s: %v", url, err)
		summary.add(func(s *Summary) { s.Failed++ })
		return
	}
	summary.add(func(s *Summary) { s.Downloaded++ })
}

// download fetches url, verifies the decoded dimensions, and writes the
// bytes to dest. Nothing is persisted for an image that fails the check.
func (d *Downloader) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", d.UserAgent)

	resp, err := d.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if d.ExpectedWidth > 0 && d.ExpectedHeight > 0 {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("decoding image: %w", err)
		}
		if cfg.Width != d.ExpectedWidth || cfg.Height != d.ExpectedHeight {
			return fmt.Errorf("got %dx%d image, expected %dx%d",
				cfg.Width, cfg.Height, d.ExpectedWidth, d.ExpectedHeight)
		}
	}

	return os.WriteFile(dest, data, 0644)
}

func (d *Downloader) workers() int {
	if d.Workers > 0 {
		return d.Workers
	}
	return DefaultWorkers
}

func (d *Downloader) newBar(total int) *progressbar.ProgressBar {
	if d.Quiet {
		return nil
	}
	return progressbar.Default(int64(total), "downloading")
}

func (s *Summary) add(update func(*Summary)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	update(s)
}

func barAdd(bar *progressbar.ProgressBar) {
	if bar != nil {
		bar.Add(1)
	}
}

func barFinish(bar *progressbar.ProgressBar) {
	if bar != nil {
		bar.Finish()
	}
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
