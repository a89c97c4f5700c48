// Package mediatest provides an in-memory media engine. Pipelines are built
// from the same textual descriptions the real engine takes, idle probes and
// async calls run on their own goroutines, and an EOS sent into a bin that
// lives in a pipeline is forwarded to the pipeline bus.
package mediatest

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kartoza/kartoza-webcam-viewer/internal/media"
)

// ErrParse is returned for descriptions containing an unknown element.
var ErrParse = errors.New("no such element")

// Engine is a fake media.Engine. The exported fields may be changed by tests
// before use; they are read under the engine lock.
type Engine struct {
	mu sync.Mutex

	// Known lists the element factories descriptions may reference.
	Known map[string]bool
	// FailState makes SetState to the given state fail for elements whose
	// name starts with the key.
	FailState map[string]media.State
	// FailLink makes every link towards a bin sink pad fail.
	FailLink bool
	// HoldDrain stops EOS from reaching the bus, simulating a stuck sub-graph.
	HoldDrain bool
	// HoldProbes queues idle probes until FireProbes is called.
	HoldProbes bool
	// ConvertDelay delays every conversion.
	ConvertDelay time.Duration
	// ConvertErr makes every conversion fail.
	ConvertErr error

	counters  map[string]int
	pipelines []*Pipeline
	probes    []func()
	async     sync.WaitGroup
}

// NewEngine returns an engine knowing the elements the application uses.
func NewEngine() *Engine {
	known := map[string]bool{}
	for _, f := range []string{
		"autovideosrc", "videotestsrc", "v4l2src", "tee", "queue", "videoconvert",
		"videoscale", "appsink", "gtksink", "autovideosink", "x264enc", "mp4mux",
		"vp8enc", "webmmux", "filesink", "fakesink", "audiotestsrc", "audioconvert",
		"autoaudiosink", "video/x-raw", "video/x-h264",
	} {
		known[f] = true
	}
	return &Engine{
		Known:     known,
		FailState: map[string]media.State{},
		counters:  map[string]int{},
	}
}

var _ media.Engine = (*Engine)(nil)

// ParseLaunch implements media.Engine.
func (e *Engine) ParseLaunch(description string) (media.Pipeline, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := &Pipeline{bus: newBus()}
	p.Bin = e.newBinLocked("pipeline", p)
	if err := e.populateLocked(p.Bin, description); err != nil {
		return nil, err
	}
	e.pipelines = append(e.pipelines, p)
	return p, nil
}

// ParseBin implements media.Engine.
func (e *Engine) ParseBin(description string) (media.Bin, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	b := e.newBinLocked("bin", nil)
	if err := e.populateLocked(b, description); err != nil {
		return nil, err
	}
	b.pads["sink"] = &Pad{name: "sink", owner: &b.Element, isGhostSink: true, bin: b}
	return b, nil
}

// ConvertSample implements media.Engine.
func (e *Engine) ConvertSample(sample media.Sample, mediaType string, timeout time.Duration, done func([]byte, error)) {
	e.mu.Lock()
	delay, convErr := e.ConvertDelay, e.ConvertErr
	e.mu.Unlock()

	e.async.Add(1)
	go func() {
		defer e.async.Done()
		if delay > timeout {
			time.Sleep(timeout)
			done(nil, fmt.Errorf("conversion timed out after %s", timeout))
			return
		}
		time.Sleep(delay)
		if convErr != nil {
			done(nil, convErr)
			return
		}
		s, ok := sample.(*Sample)
		if !ok {
			done(nil, fmt.Errorf("unsupported sample %T", sample))
			return
		}
		done([]byte(mediaType+":"+string(s.Data)), nil)
	}()
}

// HasElement implements media.Engine.
func (e *Engine) HasElement(factory string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Known[factory]
}

// Wait blocks until every async call, probe and conversion has returned.
func (e *Engine) Wait() {
	e.async.Wait()
}

// FireProbes runs the idle probes queued while HoldProbes was set, each on
// its own goroutine.
func (e *Engine) FireProbes() {
	e.mu.Lock()
	probes := e.probes
	e.probes = nil
	e.mu.Unlock()
	for _, fn := range probes {
		e.goAsync(fn)
	}
}

// ReleaseDrains forwards the EOS of every bin that received one while
// HoldDrain was set.
func (e *Engine) ReleaseDrains() {
	e.mu.Lock()
	e.HoldDrain = false
	var pending []*Bin
	for _, p := range e.pipelines {
		for _, child := range p.children {
			if b, ok := child.(*Bin); ok && b.gotEOS && !b.forwarded {
				pending = append(pending, b)
			}
		}
	}
	e.mu.Unlock()
	for _, b := range pending {
		e.forwardEOS(b)
	}
}

func (e *Engine) goAsync(fn func()) {
	e.async.Add(1)
	go func() {
		defer e.async.Done()
		fn()
	}()
}

func (e *Engine) nextNameLocked(factory string) string {
	base := factory
	if i := strings.IndexAny(base, "/,"); i >= 0 {
		base = "capsfilter"
	}
	n := e.counters[base]
	e.counters[base] = n + 1
	return fmt.Sprintf("%s%d", base, n)
}

func (e *Engine) newBinLocked(factory string, pipeline *Pipeline) *Bin {
	b := &Bin{pipeline: pipeline}
	b.Element = Element{
		engine:  e,
		name:    e.nextNameLocked(factory),
		factory: factory,
		props:   map[string]any{},
		pads:    map[string]*Pad{},
		self:    b,
	}
	return b
}

// populateLocked creates one element per "!"-separated segment, links the
// chain, and applies name= and other key=value properties.
func (e *Engine) populateLocked(b *Bin, description string) error {
	var prev *Element
	for _, segment := range strings.Split(description, "!") {
		fields := strings.Fields(segment)
		if len(fields) == 0 {
			return &media.GraphBuildError{Description: description, Err: fmt.Errorf("empty segment")}
		}
		factory := fields[0]
		if strings.Contains(factory, "/") {
			// caps filter such as video/x-raw,format=RGBA
			el := &Element{
				engine:  e,
				name:    e.nextNameLocked("capsfilter"),
				factory: "capsfilter",
				props:   map[string]any{"caps": strings.Join(fields, " ")},
				pads:    map[string]*Pad{},
			}
			el.self = el
			el.pads["sink"] = &Pad{name: "sink", owner: el}
			el.pads["src"] = &Pad{name: "src", owner: el}
			if err := e.linkChainLocked(prev, el, description); err != nil {
				return err
			}
			b.children = append(b.children, el)
			prev = el
			continue
		}
		if strings.Contains(factory, "=") {
			return &media.GraphBuildError{Description: description, Err: fmt.Errorf("property %q without element", factory)}
		}
		if !e.Known[factory] && !e.Known[strings.SplitN(factory, ",", 2)[0]] {
			return &media.GraphBuildError{Description: description, Err: fmt.Errorf("%w %q", ErrParse, factory)}
		}
		el := &Element{
			engine:  e,
			factory: factory,
			props:   map[string]any{},
			pads:    map[string]*Pad{},
		}
		el.self = el
		for _, kv := range fields[1:] {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return &media.GraphBuildError{Description: description, Err: fmt.Errorf("bad property %q", kv)}
			}
			if k == "name" {
				el.name = v
				continue
			}
			el.props[k] = v
		}
		if el.name == "" {
			el.name = e.nextNameLocked(factory)
		}
		el.pads["sink"] = &Pad{name: "sink", owner: el}
		if factory != "tee" {
			el.pads["src"] = &Pad{name: "src", owner: el}
		}
		if err := e.linkChainLocked(prev, el, description); err != nil {
			return err
		}
		b.children = append(b.children, el)
		prev = el
	}
	return nil
}

// linkChainLocked links prev's source pad to el's sink pad.
func (e *Engine) linkChainLocked(prev, el *Element, description string) error {
	if prev == nil {
		return nil
	}
	src, err := prev.requestOrStaticLocked()
	if err != nil {
		return &media.GraphBuildError{Description: description, Err: err}
	}
	src.peer = el.pads["sink"]
	el.pads["sink"].peer = src
	return nil
}
