// Package process post-processes downloaded images on disk: splitting
// full-resolution images into fixed-size square crops and batch-resizing
// square images.
package process

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/pdillis/earthview/pkg/tiling"
)

// DefaultTargetSize is the side length of output tiles in pixels.
const DefaultTargetSize = 1024

// DefaultWorkers bounds images processed in parallel.
const DefaultWorkers = 4

// Summary reports the outcome of a processing batch.
type Summary struct {
	mu      sync.Mutex
	Written int
	Skipped int
	Failed  int
}

func (s *Summary) String() string {
	return fmt.Sprintf("%d written, %d skipped, %d failed", s.Written, s.Skipped, s.Failed)
}

func (s *Summary) add(update func(*Summary)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	update(s)
}

// Cropper splits every JPEG in a directory into TargetSize square
// crops, named <base>_<index>.jpg in the output directory.
type Cropper struct {
	TargetSize int
	Workers    int
	Quiet      bool
	Exists     func(path string) bool
}

// NewCropper creates a cropper with default tile size and concurrency.
func NewCropper() *Cropper {
	return &Cropper{
		TargetSize: DefaultTargetSize,
		Workers:    DefaultWorkers,
		Exists:     fileExists,
	}
}

// Run crops every *.jpg in inDir into outDir. Images are processed in
// parallel; crops whose output already exists are skipped, and images
// too small for a single tile are skipped with a notice.
func (c *Cropper) Run(ctx context.Context, inDir, outDir string) (*Summary, error) {
	paths, err := filepath.Glob(filepath.Join(inDir, "*.jpg"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no .jpg images in %s", inDir)
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}

	summary := &Summary{}
	bar := newBar(c.Quiet, len(paths), "cropping")

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(c.Workers))

	for _, path := range paths {
		path := path
		g.Go(func() error {
			defer barAdd(bar)

			if err := ctx.Err(); err != nil {
				return err
			}

			if err := c.cropOne(path, outDir, summary); err != nil {
				log.Printf("Can't crop %s: %v", path, err)
				summary.add(func(s *Summary) { s.Failed++ })
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}
	barFinish(bar)
	return summary, nil
}

// cropOne decodes one image, plans its grid, and extracts every crop
// whose output file is not already present.
func (c *Cropper) cropOne(path, outDir string, summary *Summary) error {
	img, err := imaging.Open(path)
	if err != nil {
		return err
	}

	bounds := img.Bounds()
	crops, err := tiling.Plan(bounds.Dx(), bounds.Dy(), c.TargetSize)
	if err != nil {
		return err
	}
	if len(crops) == 0 {
		log.Printf("Image %s is %dx%d, too small for a %d tile, skipping",
			path, bounds.Dx(), bounds.Dy(), c.TargetSize)
		summary.add(func(s *Summary) { s.Skipped++ })
		return nil
	}

	base := baseName(path)
	for _, crop := range crops {
		dest := filepath.Join(outDir, fmt.Sprintf("%s_%d.jpg", base, crop.Index))
		if c.Exists != nil && c.Exists(dest) {
			summary.add(func(s *Summary) { s.Skipped++ })
			continue
		}

		tile := imaging.Crop(img, crop.Rect)
		if err := imaging.Save(tile, dest); err != nil {
			return fmt.Errorf("saving %s: %w", dest, err)
		}
		summary.add(func(s *Summary) { s.Written++ })
	}

	return nil
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func workers(n int) int {
	if n > 0 {
		return n
	}
	return DefaultWorkers
}

func newBar(quiet bool, total int, description string) *progressbar.ProgressBar {
	if quiet {
		return nil
	}
	return progressbar.Default(int64(total), description)
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
