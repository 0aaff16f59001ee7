package tui

import "testing"

func TestOverlayAt(t *testing.T) {
	base := "aaaa\nbbbb\ncccc"

	tests := []struct {
		name string
		box  string
		x, y int
		want string
	}{
		{"inside", "XY", 1, 1, "aaaa\nbXYb\ncccc"},
		{"two lines", "X\nY", 0, 1, "aaaa\nXbbb\nYccc"},
		{"past line end", "Z", 6, 0, "aaaa  Z\nbbbb\ncccc"},
		{"below base", "Z", 0, 5, base},
		{"above base", "Z\nQ", 0, -1, "Qaaa\nbbbb\ncccc"},
		{"empty box", "", 0, 0, base},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := overlayAt(base, tt.box, tt.x, tt.y); got != tt.want {
				t.Errorf("overlayAt = %q, want %q", got, tt.want)
			}
		})
	}
}
