package visibility

import "sync"

// Rect is an axis-aligned box in host units. A zero Width means the box
// spans the full width, which suits hosts that only scroll vertically.
type Rect struct {
	Top, Left, Width, Height int
}

// Bottom returns the first row below the box.
func (r Rect) Bottom() int { return r.Top + r.Height }

// Right returns the first column right of the box.
func (r Rect) Right() int { return r.Left + r.Width }

// grow expands r by m. A full-width box stays full width.
func (r Rect) grow(m Margin) Rect {
	g := Rect{
		Top:    r.Top - m.Top,
		Left:   r.Left,
		Height: r.Height + m.Top + m.Bottom,
	}
	if r.Width != 0 {
		g.Left = r.Left - m.Left
		g.Width = r.Width + m.Left + m.Right
	}
	return g
}

func (r Rect) intersects(o Rect) bool {
	if r.Height <= 0 || o.Height <= 0 {
		return false
	}
	if r.Top >= o.Bottom() || o.Top >= r.Bottom() {
		return false
	}
	if r.Width == 0 || o.Width == 0 {
		return true
	}
	return r.Left < o.Right() && o.Left < r.Right()
}

// Viewport is an Observer host for scrolling surfaces that lay out their
// own content, such as a terminal grid. The host registers element bounds
// in content coordinates and moves the visible area; observers created by
// Factory are notified whenever an element crosses the margin-expanded area.
type Viewport struct {
	mu        sync.Mutex
	area      Rect
	bounds    map[Element]Rect
	observers map[*viewportObserver]struct{}
}

// NewViewport creates a viewport of the given size scrolled to the top.
func NewViewport(width, height int) *Viewport {
	return &Viewport{
		area:      Rect{Width: width, Height: height},
		bounds:    make(map[Element]Rect),
		observers: make(map[*viewportObserver]struct{}),
	}
}

// Factory returns an ObserverFactory bound to this viewport.
func (v *Viewport) Factory() ObserverFactory {
	return func(cb Callback, margin Margin) Observer {
		o := &viewportObserver{
			vp:      v,
			cb:      cb,
			margin:  margin,
			watched: make(map[Element]bool),
		}
		v.mu.Lock()
		v.observers[o] = struct{}{}
		v.mu.Unlock()
		return o
	}
}

// Area returns the visible area in content coordinates.
func (v *Viewport) Area() Rect {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.area
}

// ScrollTo moves the top edge of the visible area.
func (v *Viewport) ScrollTo(top int) {
	v.update(func() { v.area.Top = top })
}

// Resize changes the visible area's size.
func (v *Viewport) Resize(width, height int) {
	v.update(func() {
		v.area.Width = width
		v.area.Height = height
	})
}

// SetBounds records where el was laid out.
func (v *Viewport) SetBounds(el Element, r Rect) {
	v.update(func() { v.bounds[el] = r })
}

// RemoveBounds forgets el; observers see it as not intersecting.
func (v *Viewport) RemoveBounds(el Element) {
	v.update(func() { delete(v.bounds, el) })
}

// Observers reports how many observers are connected.
func (v *Viewport) Observers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.observers)
}

type delivery struct {
	o       *viewportObserver
	entries []Entry
}

// update applies mutate and notifies observers about changed elements.
func (v *Viewport) update(mutate func()) {
	v.mu.Lock()
	mutate()
	var out []delivery
	for o := range v.observers {
		var entries []Entry
		for el, last := range o.watched {
			now := v.intersectsLocked(el, o.margin)
			if now != last {
				o.watched[el] = now
				entries = append(entries, Entry{Target: el, IsIntersecting: now})
			}
		}
		if len(entries) > 0 {
			out = append(out, delivery{o: o, entries: entries})
		}
	}
	v.mu.Unlock()

	for _, d := range out {
		d.o.cb(d.entries, d.o)
	}
}

func (v *Viewport) intersectsLocked(el Element, margin Margin) bool {
	r, ok := v.bounds[el]
	if !ok {
		return false
	}
	return r.intersects(v.area.grow(margin))
}

type viewportObserver struct {
	vp      *Viewport
	cb      Callback
	margin  Margin
	watched map[Element]bool // guarded by vp.mu
}

func (o *viewportObserver) Observe(el Element) {
	o.vp.mu.Lock()
	if _, connected := o.vp.observers[o]; !connected {
		o.vp.mu.Unlock()
		return
	}
	now := o.vp.intersectsLocked(el, o.margin)
	o.watched[el] = now
	o.vp.mu.Unlock()

	o.cb([]Entry{{Target: el, IsIntersecting: now}}, o)
}

func (o *viewportObserver) Unobserve(el Element) {
	o.vp.mu.Lock()
	defer o.vp.mu.Unlock()
	delete(o.watched, el)
}

func (o *viewportObserver) Disconnect() {
	o.vp.mu.Lock()
	defer o.vp.mu.Unlock()
	delete(o.vp.observers, o)
	clear(o.watched)
}
