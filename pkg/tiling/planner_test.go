package tiling

import (
	"errors"
	"image"
	"reflect"
	"testing"
)

func TestPlanSingleTileExactFit(t *testing.T) {
	crops, err := Plan(1024, 1024, 1024)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if len(crops) != 1 {
		t.Fatalf("Expected 1 crop, got %d", len(crops))
	}

	want := Crop{Index: 0, Rect: image.Rect(0, 0, 1024, 1024)}
	if crops[0] != want {
		t.Errorf("Expected %+v, got %+v", want, crops[0])
	}
}

func TestPlanImageSmallerThanTile(t *testing.T) {
	crops, err := Plan(800, 600, 1024)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if len(crops) != 0 {
		t.Errorf("Expected empty plan, got %d crops", len(crops))
	}
}

func TestPlanOneAxisSmallerThanTile(t *testing.T) {
	// A tile that fits one axis but not the other can't be placed
	// without breaching the short axis, so the plan is empty too.
	crops, err := Plan(1800, 1000, 1024)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if len(crops) != 0 {
		t.Errorf("Expected empty plan, got %d crops", len(crops))
	}
}

func TestPlanFullResolutionGrid(t *testing.T) {
	// The native Earth View shape: 1800/1024 rounds to 2 columns with
	// step (1800-1024)/2 = 388, 1200/1024 rounds to 1 row with step 176.
	crops, err := Plan(1800, 1200, 1024)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if len(crops) != 6 {
		t.Fatalf("Expected 6 crops, got %d", len(crops))
	}

	lefts := map[int]bool{}
	tops := map[int]bool{}
	for _, c := range crops {
		lefts[c.Rect.Min.X] = true
		tops[c.Rect.Min.Y] = true
	}

	wantLefts := map[int]bool{0: true, 388: true, 776: true}
	if !reflect.DeepEqual(lefts, wantLefts) {
		t.Errorf("Expected lefts %v, got %v", wantLefts, lefts)
	}

	wantTops := map[int]bool{0: true, 176: true}
	if !reflect.DeepEqual(tops, wantTops) {
		t.Errorf("Expected tops %v, got %v", wantTops, tops)
	}
}

func TestPlanGridDerivation(t *testing.T) {
	tests := []struct {
		name                  string
		width, height, target int
		cols, rows            int
		stepX, stepY          int
	}{
		{"full resolution", 1800, 1200, 1024, 2, 1, 388, 176},
		{"exact fit", 1024, 1024, 1024, 0, 0, 0, 0},
		{"ratio exactly 1.5 rounds up", 1536, 1024, 1024, 2, 0, 256, 0},
		{"barely larger", 1025, 1024, 1024, 1, 0, 1, 0},
		{"wide pano", 4096, 1024, 1024, 4, 0, 768, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := PlanGrid(tt.width, tt.height, tt.target)
			if err != nil {
				t.Fatalf("PlanGrid failed: %v", err)
			}

			want := Grid{Cols: tt.cols, Rows: tt.rows, StepX: tt.stepX, StepY: tt.stepY}
			if grid != want {
				t.Errorf("Expected %+v, got %+v", want, grid)
			}
		})
	}
}

func TestPlanContainmentAndSize(t *testing.T) {
	tests := []struct {
		width, height, target int
	}{
		{1800, 1200, 1024},
		{1024, 1024, 1024},
		{1536, 1536, 1024},
		{2500, 1900, 512},
		{3000, 3000, 700},
		{1025, 1025, 1024},
	}

	for _, tt := range tests {
		crops, err := Plan(tt.width, tt.height, tt.target)
		if err != nil {
			t.Fatalf("Plan(%d, %d, %d) failed: %v", tt.width, tt.height, tt.target, err)
		}

		grid, _ := PlanGrid(tt.width, tt.height, tt.target)
		if want := (grid.Cols + 1) * (grid.Rows + 1); len(crops) != want {
			t.Errorf("Plan(%d, %d, %d): expected %d crops, got %d", tt.width, tt.height, tt.target, want, len(crops))
		}

		bounds := image.Rect(0, 0, tt.width, tt.height)
		for _, c := range crops {
			if c.Rect.Dx() != tt.target || c.Rect.Dy() != tt.target {
				t.Errorf("Plan(%d, %d, %d): crop %d is %dx%d, want %dx%d",
					tt.width, tt.height, tt.target, c.Index, c.Rect.Dx(), c.Rect.Dy(), tt.target, tt.target)
			}
			if !c.Rect.In(bounds) {
				t.Errorf("Plan(%d, %d, %d): crop %d %v outside image bounds %v",
					tt.width, tt.height, tt.target, c.Index, c.Rect, bounds)
			}
		}
	}
}

func TestPlanLastTileResidualGap(t *testing.T) {
	// Integer flooring of the step can leave the last tile short of the
	// image edge by up to cols-1 pixels. 2501/1024 rounds to 2 columns
	// with step (2501-1024)/2 = 738, so the last tile ends at 2500.
	crops, err := Plan(2501, 1024, 1024)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	last := crops[len(crops)-1]
	if last.Rect.Max.X != 2500 {
		t.Errorf("Expected last tile right edge 2500, got %d", last.Rect.Max.X)
	}
	if last.Rect.Max.X > 2501 {
		t.Errorf("Last tile breaches the image edge: %v", last.Rect)
	}
}

func TestPlanIndexesInjectiveAndOrdered(t *testing.T) {
	// 3000x3000 at 700 gives a 4x4 grid (ratio 4.29 rounds to 4), which
	// is exactly the shape where the legacy 2*i+j naming would collide.
	crops, err := Plan(3000, 3000, 700)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	seen := map[int]bool{}
	for pos, c := range crops {
		if c.Index != pos {
			t.Errorf("Crop at position %d has index %d", pos, c.Index)
		}
		if seen[c.Index] {
			t.Errorf("Duplicate crop index %d", c.Index)
		}
		seen[c.Index] = true
	}
}

func TestPlanEnumerationOrder(t *testing.T) {
	// Columns outer, rows inner: the second crop shares the first
	// column and moves down one row.
	crops, err := Plan(1800, 1200, 1024)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if crops[0].Rect.Min != image.Pt(0, 0) {
		t.Errorf("Expected first crop at (0,0), got %v", crops[0].Rect.Min)
	}
	if crops[1].Rect.Min != image.Pt(0, 176) {
		t.Errorf("Expected second crop at (0,176), got %v", crops[1].Rect.Min)
	}
	if crops[2].Rect.Min != image.Pt(388, 0) {
		t.Errorf("Expected third crop at (388,0), got %v", crops[2].Rect.Min)
	}
}

func TestPlanInvalidDimensions(t *testing.T) {
	tests := []struct {
		name                  string
		width, height, target int
	}{
		{"zero width", 0, 1200, 1024},
		{"negative height", 1800, -1, 1024},
		{"zero target", 1800, 1200, 0},
		{"negative target", 1800, 1200, -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Plan(tt.width, tt.height, tt.target); !errors.Is(err, ErrInvalidDimension) {
				t.Errorf("Expected ErrInvalidDimension, got %v", err)
			}
		})
	}
}

func TestPlanDeterministic(t *testing.T) {
	a, err := Plan(2500, 1900, 512)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	b, err := Plan(2500, 1900, 512)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if !reflect.DeepEqual(a, b) {
		t.Error("Plan is not deterministic for identical inputs")
	}
}
