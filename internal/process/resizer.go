package process

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
)

// Resizer scales every square JPEG in a directory to TargetSize on both
// sides, named <base>_resized<TargetSize>.jpg in the output directory.
// Non-square inputs are skipped with a notice.
type Resizer struct {
	TargetSize int
	Workers    int
	Quiet      bool
	Exists     func(path string) bool
}

// NewResizer creates a resizer with default size and concurrency.
func NewResizer() *Resizer {
	return &Resizer{
		TargetSize: DefaultTargetSize,
		Workers:    DefaultWorkers,
		Exists:     fileExists,
	}
}

// Run resizes every *.jpg in inDir into outDir, skipping outputs that
// already exist.
func (r *Resizer) Run(ctx context.Context, inDir, outDir string) (*Summary, error) {
	if r.TargetSize <= 0 {
		return nil, fmt.Errorf("target size must be positive, got %d", r.TargetSize)
	}

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
	bar := newBar(r.Quiet, len(paths), "resizing")

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(r.Workers))

	for _, path := range paths {
		path := path
		g.Go(func() error {
			defer barAdd(bar)

			if err := ctx.Err(); err != nil {
				return err
			}

			if err := r.resizeOne(path, outDir, summary); err != nil {
				log.Printf("Can't resize %s: %v", path, err)
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

func (r *Resizer) resizeOne(path, outDir string, summary *Summary) error {
	dest := filepath.Join(outDir, fmt.Sprintf("%s_resized%d.jpg", baseName(path), r.TargetSize))
	if r.Exists != nil && r.Exists(dest) {
		summary.add(func(s *Summary) { s.Skipped++ })
		return nil
	}

	img, err := imaging.Open(path)
	if err != nil {
		return err
	}

	bounds := img.Bounds()
	if bounds.Dx() != bounds.Dy() {
		log.Printf("Image %s is %dx%d, not square, skipping", path, bounds.Dx(), bounds.Dy())
		summary.add(func(s *Summary) { s.Skipped++ })
		return nil
	}

	resized := imaging.Resize(img, r.TargetSize, r.TargetSize, imaging.Linear)
	if err := imaging.Save(resized, dest); err != nil {
		return fmt.Errorf("saving %s: %w", dest, err)
	}

	summary.add(func(s *Summary) { s.Written++ })
	return nil
}
