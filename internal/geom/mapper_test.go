package geom

import (
	"math"
	"testing"
)

var testMargins = Margins{Left: 56, Right: 20, Top: 18, Bottom: 50}

func TestXAtEndpoints(t *testing.T) {
	for _, n := range []int{2, 3, 7, 30} {
		m := NewMapper(n, testMargins, Size{Width: 700, Height: 320}, 0, 100)
		if got := m.XAt(0); got != m.Margins.Left {
			t.Errorf("n=%d XAt(0) = %v, want %v", n, got, m.Margins.Left)
		}
		if got, want := m.XAt(n-1), m.Margins.Left+m.W; math.Abs(got-want) > 1e-9 {
			t.Errorf("n=%d XAt(n-1) = %v, want %v", n, got, want)
		}
	}
}

func TestXAtSinglePoint(t *testing.T) {
	m := NewMapper(1, testMargins, Size{Width: 700, Height: 320}, 0, 100)
	if got := m.XAt(0); got != testMargins.Left {
		t.Fatalf("XAt(0) = %v, want %v", got, testMargins.Left)
	}
}

func TestYAtBoundsAndMonotonic(t *testing.T) {
	m := NewMapper(5, testMargins, Size{Width: 700, Height: 320}, 0, 500)
	top, bottom := m.Margins.Top, m.Margins.Top+m.H
	prev := math.Inf(1)
	for v := 0.0; v <= 500; v += 12.5 {
		y := m.YAt(v)
		if y < top-1e-9 || y > bottom+1e-9 {
			t.Fatalf("YAt(%v) = %v outside [%v, %v]", v, y, top, bottom)
		}
		if y > prev {
			t.Fatalf("YAt not non-increasing at %v: %v > %v", v, y, prev)
		}
		prev = y
	}
	if got := m.YAt(500); got != top {
		t.Errorf("YAt(max) = %v, want %v", got, top)
	}
	if got := m.YAt(0); got != bottom {
		t.Errorf("YAt(min) = %v, want %v", got, bottom)
	}
}

func TestYAtDegenerateDomain(t *testing.T) {
	m := NewMapper(3, testMargins, Size{Width: 700, Height: 320}, 5, 5)
	y := m.YAt(5)
	if !IsFinite(y) {
		t.Fatalf("YAt on degenerate domain = %v, want finite", y)
	}
	if y != m.Margins.Top+m.H {
		t.Fatalf("YAt(5) = %v, want bottom %v", y, m.Margins.Top+m.H)
	}
}

func TestNearest(t *testing.T) {
	m := NewMapper(5, testMargins, Size{Width: 700, Height: 320}, 0, 100)
	// Rendered at half size: every point's screen x is halved.
	for i := 0; i < 5; i++ {
		x := m.XAt(i) / 2
		if got := m.Nearest(x+1, 700, 350); got != i {
			t.Errorf("Nearest(%v) = %d, want %d", x+1, got, i)
		}
	}
	if got := m.Nearest(-100, 700, 700); got != 0 {
		t.Errorf("Nearest far left = %d, want 0", got)
	}
	if got := m.Nearest(1e6, 700, 700); got != 4 {
		t.Errorf("Nearest far right = %d, want 4", got)
	}
	if got := (Mapper{}).Nearest(10, 700, 700); got != -1 {
		t.Errorf("Nearest on empty = %d, want -1", got)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 8, 100); got != 8 {
		t.Errorf("Clamp low = %v", got)
	}
	if got := Clamp(500, 8, 100); got != 100 {
		t.Errorf("Clamp high = %v", got)
	}
	// Box larger than the container: lower bound wins.
	if got := Clamp(50, 8, -20); got != 8 {
		t.Errorf("Clamp inverted = %v, want 8", got)
	}
}

func TestCeilTo(t *testing.T) {
	if got := CeilTo(576, 25); got != 600 {
		t.Errorf("CeilTo(576,25) = %v", got)
	}
	if got := CeilTo(600, 25); got != 600 {
		t.Errorf("CeilTo(600,25) = %v", got)
	}
}
