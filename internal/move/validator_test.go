package move

import (
	"strings"
	"testing"
)

func validOptions() Options {
	return Options{
		LineWidth: 5,
		LineColor: RGBA{R: 0, G: 0, B: 0, A: 1},
		FillColor: RGBA{R: 255, G: 255, B: 255, A: 0},
		Shape:     ShapeLine,
		Mode:      ModeDraw,
	}
}

func TestValidatePathMove(t *testing.T) {
	v := NewValidator(100, 1024)

	m := &Move{
		Path:    [][2]float64{{0, 0}, {5, 5}},
		Options: validOptions(),
	}
	if err := v.Validate(m); err != nil {
		t.Errorf("valid path move rejected: %v", err)
	}
}

func TestValidateMetadataOnlyMove(t *testing.T) {
	v := NewValidator(100, 1024)

	m := &Move{Options: validOptions()}
	m.Options.Mode = ModeSelect
	m.Options.Selection = &Selection{X: 0, Y: 0, Width: 10, Height: 10}
	if err := v.Validate(m); err != nil {
		t.Errorf("metadata-only move rejected: %v", err)
	}
}

func TestValidateRejectsMultipleVariants(t *testing.T) {
	v := NewValidator(100, 1024)

	m := &Move{
		Path:    [][2]float64{{0, 0}, {5, 5}},
		Circle:  &Circle{CX: 1, CY: 1, RadiusX: 2, RadiusY: 2},
		Options: validOptions(),
	}
	if err := v.Validate(m); err == nil {
		t.Error("move with two payload variants should be rejected")
	}

	m = &Move{
		Rect:    &Rect{Width: 10, Height: 10},
		Img:     &Image{Base64: "aGVsbG8="},
		Options: validOptions(),
	}
	if err := v.Validate(m); err == nil {
		t.Error("move with rect and img should be rejected")
	}
}

func TestValidateRejectsBadOptions(t *testing.T) {
	v := NewValidator(100, 1024)

	m := &Move{Options: validOptions()}
	m.Options.Shape = "triangle"
	if err := v.Validate(m); err == nil {
		t.Error("unknown shape should be rejected")
	}

	m = &Move{Options: validOptions()}
	m.Options.Mode = "spray"
	if err := v.Validate(m); err == nil {
		t.Error("unknown mode should be rejected")
	}

	m = &Move{Options: validOptions()}
	m.Options.LineWidth = 0
	if err := v.Validate(m); err == nil {
		t.Error("zero line width should be rejected")
	}
}

func TestValidateLimits(t *testing.T) {
	v := NewValidator(3, 8)

	long := &Move{
		Path:    [][2]float64{{0, 0}, {1, 1}, {2, 2}, {3, 3}},
		Options: validOptions(),
	}
	if err := v.Validate(long); err == nil {
		t.Error("path over the point limit should be rejected")
	}

	big := &Move{
		Img:     &Image{Base64: strings.Repeat("A", 9)},
		Options: validOptions(),
	}
	big.Options.Shape = ShapeImage
	if err := v.Validate(big); err == nil {
		t.Error("image over the size limit should be rejected")
	}

	far := &Move{
		Path:    [][2]float64{{2000000, 0}},
		Options: validOptions(),
	}
	if err := v.Validate(far); err == nil {
		t.Error("out-of-bounds path point should be rejected")
	}
}

func TestSanitizeString(t *testing.T) {
	got := SanitizeString(`<script>alert(1)</script>alice`)
	if strings.Contains(got, "<") || !strings.Contains(got, "alice") {
		t.Errorf("sanitize failed: %q", got)
	}
}
