// Package visibility reports whether a rendered element has entered a
// margin-expanded viewport.
//
// The host environment provides the intersection primitive through the
// Observer interface; Tracker turns it into a single "has been revealed"
// flag that resets whenever a different element is attached.
package visibility

// Element is an opaque, comparable handle for something the host rendered.
type Element any

// Entry reports the intersection state of one observed element.
type Entry struct {
	Target         Element
	IsIntersecting bool
}

// Callback receives intersection changes. Like the browser primitive, an
// observer delivers the current state of an element right after Observe.
type Callback func(entries []Entry, observer Observer)

// Observer watches elements for entry into a trigger region.
// Implementations must not hold their own locks while invoking the callback.
type Observer interface {
	Observe(el Element)
	Unobserve(el Element)
	Disconnect()
}

// ObserverFactory creates an Observer whose trigger region is the host
// viewport grown by margin.
type ObserverFactory func(cb Callback, margin Margin) Observer
