// Package viewport models a container-size stream. Components subscribe when
// mounted, receive every measured size, and unsubscribe when unmounted.
package viewport

import (
	"sync"

	"github.com/asthmatracker/asthmaviz/internal/geom"
)

type Listener func(geom.Size)

// Observer fans measured container sizes out to its subscribers. The zero
// value is ready to use.
type Observer struct {
	mu        sync.Mutex
	next      int
	listeners map[int]Listener
	last      geom.Size
	measured  bool
}

func NewObserver() *Observer {
	return &Observer{listeners: make(map[int]Listener)}
}

// Subscribe registers fn and immediately replays the last measured size, if
// any. The returned function removes the subscription; calling it twice is safe.
func (o *Observer) Subscribe(fn Listener) (unsubscribe func()) {
	o.mu.Lock()
	if o.listeners == nil {
		o.listeners = make(map[int]Listener)
	}
	id := o.next
	o.next++
	o.listeners[id] = fn
	last, measured := o.last, o.measured
	o.mu.Unlock()

	if measured {
		fn(last)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.listeners, id)
			o.mu.Unlock()
		})
	}
}

// Publish records a new measurement and notifies subscribers synchronously.
func (o *Observer) Publish(size geom.Size) {
	o.mu.Lock()
	o.last, o.measured = size, true
	fns := make([]Listener, 0, len(o.listeners))
	for _, fn := range o.listeners {
		fns = append(fns, fn)
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(size)
	}
}

func (o *Observer) Subscribers() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.listeners)
}

// Last returns the most recent measurement.
func (o *Observer) Last() (geom.Size, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last, o.measured
}
