// Package tiling computes the grid of fixed-size square crops used to
// split a full-resolution image into training tiles. The planner is a
// pure function of the image dimensions and the target tile size; it
// performs no I/O and is safe to call concurrently.
package tiling

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrInvalidDimension reports a non-positive width, height or target size.
var ErrInvalidDimension = errors.New("invalid dimension")

// Crop is a single square region to extract from a source image.
// Index is stable across runs and is used to name the output file.
type Crop struct {
	Index int
	Rect  image.Rectangle
}

// Grid holds the per-axis crop derivation: Cols and Rows count the
// extra steps beyond the first tile on each axis, StepX and StepY are
// the pixel offsets applied per additional column and row.
type Grid struct {
	Cols  int
	Rows  int
	StepX int
	StepY int
}

// axisGrid derives the extra crop count and step size for one axis.
//
// An axis no larger than the tile is not subdivided. Otherwise the
// count is the size/target ratio rounded half away from zero, and the
// step spreads the leftover pixels evenly: the last tile's far edge is
// count*step + target, which may undershoot the axis size by up to
// count-1 pixels due to integer flooring. That residual gap is accepted.
func axisGrid(size, target int) (count, step int) {
	if float64(size)/float64(target) <= 1 {
		return 0, 0
	}
	count = int(math.Round(float64(size) / float64(target)))
	step = (size - target) / count
	return count, step
}

// PlanGrid derives the crop grid for an image of the given dimensions.
func PlanGrid(width, height, targetSize int) (Grid, error) {
	if width <= 0 || height <= 0 || targetSize <= 0 {
		return Grid{}, fmt.Errorf("%w: %dx%d with target size %d", ErrInvalidDimension, width, height, targetSize)
	}

	cols, stepX := axisGrid(width, targetSize)
	rows, stepY := axisGrid(height, targetSize)

	return Grid{Cols: cols, Rows: rows, StepX: stepX, StepY: stepY}, nil
}

// Plan returns the ordered sequence of square crops tiling an image of
// the given dimensions, columns outer and rows inner. Every returned
// rectangle has side targetSize and lies fully inside the image.
//
// An image too small to hold a single tile on either axis yields an
// empty plan and no error: there is nothing to do for that image.
func Plan(width, height, targetSize int) ([]Crop, error) {
	grid, err := PlanGrid(width, height, targetSize)
	if err != nil {
		return nil, err
	}

	if targetSize > width || targetSize > height {
		return nil, nil
	}

	crops := make([]Crop, 0, (grid.Cols+1)*(grid.Rows+1))
	for i := 0; i <= grid.Cols; i++ {
		for j := 0; j <= grid.Rows; j++ {
			left := i * grid.StepX
			top := j * grid.StepY
			crops = append(crops, Crop{
				Index: i*(grid.Rows+1) + j,
				Rect:  image.Rect(left, top, left+targetSize, top+targetSize),
			})
		}
	}

	return crops, nil
}
