package astro

import (
	"math"
	"testing"
)

func TestProject(t *testing.T) {
	center := Point{X: 400, Y: 400}
	const radius = 400.0

	tests := []struct {
		name  string
		alt   float64
		az    float64
		wantX float64
		wantY float64
	}{
		{"zenith", 90, 0, 400, 400},
		{"north horizon", 0, 0, 400, 0},
		{"east horizon", 0, 90, 800, 400},
		{"south horizon", 0, 180, 400, 800},
		{"west horizon", 0, 270, 0, 400},
		{"halfway south", 45, 180, 400, 600},
		{"below horizon", -18, 0, 400, -80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Horizontal{Alt: FromDegrees(tt.alt), Az: FromDegrees(tt.az)}
			got := Project(center, h, radius)
			if math.Abs(got.X-tt.wantX) > 1e-9 || math.Abs(got.Y-tt.wantY) > 1e-9 {
				t.Errorf("Project() = (%v, %v), want (%v, %v)", got.X, got.Y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestProject_NaNAzimuth(t *testing.T) {
	h := Horizontal{Alt: FromDegrees(10), Az: FromRadians(math.NaN())}
	if p := Project(Point{}, h, 100); p.Valid() {
		t.Errorf("NaN azimuth should produce an invalid point, got %+v", p)
	}
}

func TestPointValid(t *testing.T) {
	tests := []struct {
		p    Point
		want bool
	}{
		{Point{1, 2}, true},
		{Point{math.NaN(), 2}, false},
		{Point{1, math.NaN()}, false},
		{Point{math.Inf(1), 0}, false},
	}
	for _, tt := range tests {
		if got := tt.p.Valid(); got != tt.want {
			t.Errorf("%+v.Valid() = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestFovFactor(t *testing.T) {
	tests := []struct {
		fov  float64
		want float64
	}{
		{180, 1},
		{90, 0.41421356},
		{60, 0.26794919},
		{0, 0},
	}
	for _, tt := range tests {
		if got := FovFactor(tt.fov); math.Abs(got-tt.want) > 1e-8 {
			t.Errorf("FovFactor(%v) = %v, want %v", tt.fov, got, tt.want)
		}
	}
}
