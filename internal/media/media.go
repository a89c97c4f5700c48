// Package media defines the small operation set the session layer needs from
// a streaming media engine: build graphs from textual descriptions, get and
// set element properties, request and release dynamic pads, link pads,
// install idle probes, post and pop bus messages, and convert samples.
//
// The gstengine subpackage implements it on top of GStreamer; mediatest
// provides an in-memory engine for tests.
package media

import (
	"image"
	"time"
)

// State is the engine-level state of an element or graph.
type State int

const (
	StateNull State = iota
	StateReady
	StatePaused
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateNull:
		return "null"
	case StateReady:
		return "ready"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// Element is one processing stage of a graph.
type Element interface {
	Name() string
	SetState(State) error
	Property(name string) (any, error)
	SetProperty(name string, value any) error
	StaticPad(name string) (Pad, error)
	RequestPad(template string) (Pad, error)
	ReleaseRequestPad(Pad)
	// CallAsync runs fn on an engine worker thread, never on the caller's.
	CallAsync(fn func())
}

// Bin is an element containing other elements.
type Bin interface {
	Element
	ElementByName(name string) (Element, error)
	Add(Element) error
	Remove(Element) error
}

// Pipeline is a top-level bin with its own bus.
type Pipeline interface {
	Bin
	Bus() Bus
}

// Pad is a connection point on an element.
type Pad interface {
	Name() string
	Link(sink Pad) error
	Unlink(sink Pad) error
	// AddIdleProbe calls fn exactly once, from an unspecified engine thread,
	// as soon as no data is flowing through the pad. The probe is removed
	// afterwards.
	AddIdleProbe(fn func())
	// DropUpstreamReconfigure discards reconfigure events travelling
	// upstream through the pad.
	DropUpstreamReconfigure()
	SendEOS() bool
}

// Bus carries messages from the engine's threads to the application.
type Bus interface {
	Post(Message) bool
	// Pop waits up to timeout for the next message.
	Pop(timeout time.Duration) (Message, bool)
}

// Sample is an opaque captured frame handle owned by the engine.
type Sample interface{}

// Surface is the embeddable display target exposed by a display sink.
type Surface interface {
	// Frame returns the most recently rendered frame, if any.
	Frame() (image.Image, bool)
}

// Engine builds graphs and converts samples.
type Engine interface {
	ParseLaunch(description string) (Pipeline, error)
	// ParseBin builds a sub-graph; unlinked pads are exposed as ghost pads
	// named "sink"/"src".
	ParseBin(description string) (Bin, error)
	// ConvertSample converts sample to the given media type ("image/jpeg",
	// "image/png") asynchronously. done is called exactly once, on an engine
	// thread, with the encoded bytes or an error.
	ConvertSample(sample Sample, mediaType string, timeout time.Duration, done func([]byte, error))
	// HasElement reports whether an element factory with that name exists.
	HasElement(factory string) bool
}
