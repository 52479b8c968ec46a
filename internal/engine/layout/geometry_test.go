package layout

import (
	"math"
	"testing"
)

const tol = 1e-9

func TestSky(t *testing.T) {
	tests := []struct {
		depth, k int
		want     float64
	}{
		{0, 1, 2 * math.Pi},
		{0, 12, 2 * math.Pi},
		{1, 1, math.Pi / 2},
		{3, 4, math.Pi / 2},
		{1, 5, 1.5 * math.Pi},
		{7, 30, 1.5 * math.Pi},
	}
	for _, tt := range tests {
		if got := Sky(tt.depth, tt.k); math.Abs(got-tt.want) > tol {
			t.Errorf("Sky(%d, %d) = %v, want %v", tt.depth, tt.k, got, tt.want)
		}
	}
}

func TestZigZag(t *testing.T) {
	want := []float64{0, -1, 1, -2, 2, -3, 3}
	for i, w := range want {
		if got := ZigZag(i, 1); got != w {
			t.Errorf("ZigZag(%d, 1) = %v, want %v", i, got, w)
		}
	}
	if got := ZigZag(3, 0.5); got != -1 {
		t.Errorf("ZigZag(3, 0.5) = %v, want -1", got)
	}
}

func TestChildRadius_Cap(t *testing.T) {
	for _, delta := range []float64{0.01, 0.5, math.Pi / 2, math.Pi, 1.5 * math.Pi, 2 * math.Pi} {
		got := ChildRadius(100, delta)
		if got > 70+tol {
			t.Errorf("ChildRadius(100, %v) = %v exceeds cap", delta, got)
		}
		if got <= 0 {
			t.Errorf("ChildRadius(100, %v) = %v, want positive", delta, got)
		}
	}
	if got := ChildRadius(150, 2*math.Pi); math.Abs(got-105) > tol {
		t.Errorf("single root child radius = %v, want 105", got)
	}
}

// Every pair of siblings must not intersect, for any pushed-out subset.
func TestChildRadius_SiblingsDoNotOverlap(t *testing.T) {
	const parent = 150.0
	for _, sky := range []float64{math.Pi / 4, math.Pi / 2, 0.9 * math.Pi, math.Pi} {
		for k := 1; k <= 12; k++ {
			delta := sky / float64(k)
			r := ChildRadius(parent, delta)
			for _, crowded := range []int{0, CrowdedFanOut} {
				centers := make([]Point, k)
				for i := range centers {
					grand := 0
					if i%2 == 0 {
						grand = crowded
					}
					centers[i] = ChildCenter(Point{}, parent, r, 1.0+ZigZag(i, delta), grand)
				}
				for i := 0; i < k; i++ {
					for j := i + 1; j < k; j++ {
						if d := math.Sqrt(centers[i].DistSq(centers[j])); d < 2*r-tol {
							t.Fatalf("sky=%v k=%d: siblings %d and %d overlap (d=%v, 2r=%v)", sky, k, i, j, d, 2*r)
						}
					}
				}
			}
		}
	}
}

func TestChildCenter(t *testing.T) {
	c := ChildCenter(Point{10, 10}, 100, 20, 0, 4)
	if math.Abs(c.X-110) > tol || math.Abs(c.Y-10) > tol {
		t.Errorf("expected child on rim at (110,10), got %+v", c)
	}
	c = ChildCenter(Point{}, 100, 20, math.Pi/2, 5)
	if math.Abs(c.X) > tol || math.Abs(c.Y-130) > tol {
		t.Errorf("expected crowded child pushed to (0,130), got %+v", c)
	}
}
