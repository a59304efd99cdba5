package main

import "testing"

func TestProject(t *testing.T) {
	const cx, cy, radius = 40, 20, 20
	tests := []struct {
		name    string
		alt, az float64
		wantX   int
		wantY   int
	}{
		{"zenith", 90, 123, cx, cy},
		{"north horizon", 0, 0, cx, cy - radius},
		{"south horizon", 0, 180, cx, cy + radius},
		{"east horizon", 0, 90, cx + 2*radius, cy},
		{"west horizon", 0, 270, cx - 2*radius, cy},
		{"north at 45", 45, 0, cx, cy - 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Project(tt.alt, tt.az, cx, cy, radius)
			if got.X != tt.wantX || got.Y != tt.wantY {
				t.Errorf("Project(%g, %g) = %+v, want {X:%d Y:%d}", tt.alt, tt.az, got, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestProjectBelowHorizonFallsOutside(t *testing.T) {
	p := Project(-10, 0, 40, 20, 20)
	if p.Y >= 0 {
		t.Errorf("Project(-10, 0) = %+v, want above the horizon circle", p)
	}
}

func TestRingRadius(t *testing.T) {
	tests := []struct {
		alt  float64
		want int
	}{
		{90, 0},
		{60, 5},
		{30, 12},
		{0, 20},
	}
	for _, tt := range tests {
		if got := ringRadius(tt.alt, 20); got != tt.want {
			t.Errorf("ringRadius(%g) = %d, want %d", tt.alt, got, tt.want)
		}
	}
}

func TestChartBounds(t *testing.T) {
	tests := []struct {
		name                     string
		width, height            int
		zoom                     float64
		wantX, wantY, wantRadius int
	}{
		{"square-ish terminal", 80, 40, 1, 40, 20, 19},
		{"narrow", 40, 40, 1, 20, 20, 9},
		{"zoomed", 80, 40, 2, 40, 20, 38},
		{"tiny", 4, 2, 1, 2, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, r := chartBounds(0, 0, tt.width, tt.height, tt.zoom)
			if x != tt.wantX || y != tt.wantY || r != tt.wantRadius {
				t.Errorf("chartBounds = (%d, %d, %d), want (%d, %d, %d)", x, y, r, tt.wantX, tt.wantY, tt.wantRadius)
			}
		})
	}
}
