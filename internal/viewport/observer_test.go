package viewport

import (
	"testing"

	"github.com/asthmatracker/asthmaviz/internal/geom"
)

func TestSubscribeReceivesPublishes(t *testing.T) {
	o := NewObserver()
	var got []float64
	unsubscribe := o.Subscribe(func(s geom.Size) { got = append(got, s.Width) })

	o.Publish(geom.Size{Width: 400, Height: 800})
	o.Publish(geom.Size{Width: 1024, Height: 800})
	unsubscribe()
	o.Publish(geom.Size{Width: 320, Height: 800})

	if len(got) != 2 || got[0] != 400 || got[1] != 1024 {
		t.Fatalf("widths = %v, want [400 1024]", got)
	}
	if n := o.Subscribers(); n != 0 {
		t.Fatalf("subscribers = %d, want 0", n)
	}
	unsubscribe()
}

func TestZeroValueObserver(t *testing.T) {
	var o Observer
	o.Publish(geom.Size{Width: 500, Height: 300})

	var got []float64
	unsubscribe := o.Subscribe(func(s geom.Size) { got = append(got, s.Width) })
	o.Publish(geom.Size{Width: 900, Height: 300})
	unsubscribe()

	if len(got) != 2 || got[0] != 500 || got[1] != 900 {
		t.Fatalf("widths = %v, want [500 900]", got)
	}
}

func TestSubscribeReplaysLastMeasurement(t *testing.T) {
	o := NewObserver()
	o.Publish(geom.Size{Width: 600, Height: 400})

	var got geom.Size
	defer o.Subscribe(func(s geom.Size) { got = s })()
	if got.Width != 600 {
		t.Fatalf("replayed width = %v, want 600", got.Width)
	}
}

func TestOnBreakpointFiresOnCrossingOnly(t *testing.T) {
	classify := func(w float64) bool { return geom.IsMobile(w) }
	var calls []bool
	l := OnBreakpoint(classify, func(mobile bool, _ geom.Size) { calls = append(calls, mobile) })

	for _, w := range []float64{1200, 1000, 900, 700, 500, 800} {
		l(geom.Size{Width: w})
	}
	want := []bool{false, true, false}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
}
