package mediatest

import (
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/kartoza/kartoza-webcam-viewer/internal/media"
)

// Sample is the fake frame handle.
type Sample struct {
	Data []byte
}

// Surface is the fake display surface.
type Surface struct {
	Img image.Image
}

// Frame implements media.Surface.
func (s *Surface) Frame() (image.Image, bool) {
	return s.Img, s.Img != nil
}

// Element is a fake media.Element.
type Element struct {
	engine  *Engine
	name    string
	factory string
	state   media.State
	props   map[string]any
	pads    map[string]*Pad
	nextPad int
	self    media.Element
}

var _ media.Element = (*Element)(nil)

// Name implements media.Element.
func (e *Element) Name() string { return e.name }

// Factory returns the element factory name.
func (e *Element) Factory() string { return e.factory }

// State returns the element state.
func (e *Element) State() media.State {
	e.engine.mu.Lock()
	defer e.engine.mu.Unlock()
	return e.state
}

// SetState implements media.Element.
func (e *Element) SetState(s media.State) error {
	e.engine.mu.Lock()
	defer e.engine.mu.Unlock()
	for prefix, failing := range e.engine.FailState {
		if failing == s && strings.HasPrefix(e.name, prefix) {
			return &media.StateChangeError{Element: e.name, State: s, Err: fmt.Errorf("state change failure")}
		}
	}
	e.state = s
	return nil
}

// Property implements media.Element. Sinks report a nil last-sample until
// one is set.
func (e *Element) Property(name string) (any, error) {
	e.engine.mu.Lock()
	defer e.engine.mu.Unlock()
	if v, ok := e.props[name]; ok {
		return v, nil
	}
	if name == "last-sample" && strings.HasSuffix(e.factory, "sink") {
		return nil, nil
	}
	return nil, &media.PropertyError{Element: e.name, Property: name}
}

// SetProperty implements media.Element.
func (e *Element) SetProperty(name string, value any) error {
	e.engine.mu.Lock()
	defer e.engine.mu.Unlock()
	e.props[name] = value
	return nil
}

// Prop returns a property without error handling, for assertions.
func (e *Element) Prop(name string) any {
	e.engine.mu.Lock()
	defer e.engine.mu.Unlock()
	return e.props[name]
}

// StaticPad implements media.Element.
func (e *Element) StaticPad(name string) (media.Pad, error) {
	e.engine.mu.Lock()
	defer e.engine.mu.Unlock()
	p, ok := e.pads[name]
	if !ok {
		return nil, fmt.Errorf("%s has no pad %q", e.name, name)
	}
	return p, nil
}

// RequestPad implements media.Element; only tees hand out pads.
func (e *Element) RequestPad(template string) (media.Pad, error) {
	e.engine.mu.Lock()
	defer e.engine.mu.Unlock()
	if e.factory != "tee" || template != "src_%u" {
		return nil, fmt.Errorf("%s has no request template %q", e.name, template)
	}
	return e.newRequestPadLocked(), nil
}

func (e *Element) newRequestPadLocked() *Pad {
	name := fmt.Sprintf("src_%d", e.nextPad)
	e.nextPad++
	p := &Pad{name: name, owner: e, request: true}
	e.pads[name] = p
	return p
}

func (e *Element) requestOrStaticLocked() (*Pad, error) {
	if e.factory == "tee" {
		return e.newRequestPadLocked(), nil
	}
	p, ok := e.pads["src"]
	if !ok {
		return nil, fmt.Errorf("%s has no src pad", e.name)
	}
	return p, nil
}

// ReleaseRequestPad implements media.Element.
func (e *Element) ReleaseRequestPad(p media.Pad) {
	e.engine.mu.Lock()
	defer e.engine.mu.Unlock()
	fp := p.(*Pad)
	fp.released = true
	delete(e.pads, fp.name)
}

// RequestPads returns the names of the request pads currently held.
func (e *Element) RequestPads() []string {
	e.engine.mu.Lock()
	defer e.engine.mu.Unlock()
	var names []string
	for name, p := range e.pads {
		if p.request {
			names = append(names, name)
		}
	}
	return names
}

// Pad returns a pad for assertions.
func (e *Element) Pad(name string) *Pad {
	e.engine.mu.Lock()
	defer e.engine.mu.Unlock()
	return e.pads[name]
}

// CallAsync implements media.Element.
func (e *Element) CallAsync(fn func()) {
	e.engine.goAsync(fn)
}

// Bin is a fake media.Bin.
type Bin struct {
	Element
	children  []media.Element
	pipeline  *Pipeline
	gotEOS    bool
	forwarded bool
}

var _ media.Bin = (*Bin)(nil)

// ElementByName implements media.Bin.
func (b *Bin) ElementByName(name string) (media.Element, error) {
	b.engine.mu.Lock()
	defer b.engine.mu.Unlock()
	if el := b.findLocked(name); el != nil {
		return el, nil
	}
	return nil, fmt.Errorf("%s has no element %q", b.name, name)
}

func (b *Bin) findLocked(name string) media.Element {
	for _, child := range b.children {
		if child.Name() == name {
			return child
		}
		if cb, ok := child.(*Bin); ok {
			if el := cb.findLocked(name); el != nil {
				return el
			}
		}
	}
	return nil
}

// Child returns the named direct or nested child as a fake element.
func (b *Bin) Child(name string) *Element {
	b.engine.mu.Lock()
	defer b.engine.mu.Unlock()
	switch el := b.findLocked(name).(type) {
	case *Element:
		return el
	case *Bin:
		return &el.Element
	default:
		return nil
	}
}

// ChildBins returns the bins currently inside b.
func (b *Bin) ChildBins() []*Bin {
	b.engine.mu.Lock()
	defer b.engine.mu.Unlock()
	var bins []*Bin
	for _, child := range b.children {
		if cb, ok := child.(*Bin); ok {
			bins = append(bins, cb)
		}
	}
	return bins
}

// Add implements media.Bin.
func (b *Bin) Add(el media.Element) error {
	b.engine.mu.Lock()
	defer b.engine.mu.Unlock()
	if b.findLocked(el.Name()) != nil {
		return fmt.Errorf("%s already contains %q", b.name, el.Name())
	}
	if cb, ok := el.(*Bin); ok {
		cb.pipeline = b.pipeline
	}
	b.children = append(b.children, el)
	return nil
}

// Remove implements media.Bin.
func (b *Bin) Remove(el media.Element) error {
	b.engine.mu.Lock()
	defer b.engine.mu.Unlock()
	for i, child := range b.children {
		if child == el {
			b.children = append(b.children[:i], b.children[i+1:]...)
			if cb, ok := el.(*Bin); ok {
				cb.pipeline = nil
			}
			return nil
		}
	}
	return fmt.Errorf("%s does not contain %q", b.name, el.Name())
}

// SetProperty renames bins that are not parented yet, like the real engine.
func (b *Bin) SetProperty(name string, value any) error {
	if name == "name" {
		b.engine.mu.Lock()
		defer b.engine.mu.Unlock()
		if b.pipeline != nil {
			return fmt.Errorf("cannot rename parented bin %s", b.name)
		}
		b.Element.name = value.(string)
		return nil
	}
	return b.Element.SetProperty(name, value)
}

// GotEOS reports whether an EOS was sent into the bin.
func (b *Bin) GotEOS() bool {
	b.engine.mu.Lock()
	defer b.engine.mu.Unlock()
	return b.gotEOS
}

// Pipeline is a fake media.Pipeline.
type Pipeline struct {
	*Bin
	bus *Bus
}

var _ media.Pipeline = (*Pipeline)(nil)

// Bus implements media.Pipeline.
func (p *Pipeline) Bus() media.Bus { return p.bus }

// FakeBus returns the concrete bus.
func (p *Pipeline) FakeBus() *Bus { return p.bus }

// SetState posts a state-changed message when the pipeline starts playing.
func (p *Pipeline) SetState(s media.State) error {
	if err := p.Bin.SetState(s); err != nil {
		return err
	}
	if s == media.StatePlaying {
		p.bus.Post(media.Message{Kind: media.MessageStateChanged, Source: p.Name(), State: s})
	}
	return nil
}

// PostError simulates an engine error from the named element.
func (p *Pipeline) PostError(source, text string) {
	p.bus.Post(media.Message{Kind: media.MessageError, Source: source, Text: text, Debug: "fake debug"})
}

// Pipelines returns every pipeline built so far.
func (e *Engine) Pipelines() []*Pipeline {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Pipeline(nil), e.pipelines...)
}

// Pad is a fake media.Pad.
type Pad struct {
	name        string
	owner       *Element
	peer        *Pad
	request     bool
	released    bool
	dropReconf  bool
	isGhostSink bool
	bin         *Bin
}

var _ media.Pad = (*Pad)(nil)

// Name implements media.Pad.
func (p *Pad) Name() string { return p.name }

// Peer returns the linked pad, if any.
func (p *Pad) Peer() *Pad {
	p.owner.engine.mu.Lock()
	defer p.owner.engine.mu.Unlock()
	return p.peer
}

// Released reports whether the request pad was handed back.
func (p *Pad) Released() bool {
	p.owner.engine.mu.Lock()
	defer p.owner.engine.mu.Unlock()
	return p.released
}

// DropsReconfigure reports whether DropUpstreamReconfigure was called.
func (p *Pad) DropsReconfigure() bool {
	p.owner.engine.mu.Lock()
	defer p.owner.engine.mu.Unlock()
	return p.dropReconf
}

// Link implements media.Pad.
func (p *Pad) Link(sink media.Pad) error {
	e := p.owner.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	sp := sink.(*Pad)
	if sp.isGhostSink && e.FailLink {
		return fmt.Errorf("wrong hierarchy")
	}
	if p.peer != nil || sp.peer != nil {
		return fmt.Errorf("was linked")
	}
	p.peer = sp
	sp.peer = p
	return nil
}

// Unlink implements media.Pad.
func (p *Pad) Unlink(sink media.Pad) error {
	e := p.owner.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	sp := sink.(*Pad)
	if p.peer != sp {
		return fmt.Errorf("%s is not linked to %s", p.name, sp.name)
	}
	p.peer = nil
	sp.peer = nil
	return nil
}

// AddIdleProbe implements media.Pad.
func (p *Pad) AddIdleProbe(fn func()) {
	e := p.owner.engine
	e.mu.Lock()
	hold := e.HoldProbes
	if hold {
		e.probes = append(e.probes, fn)
	}
	e.mu.Unlock()
	if !hold {
		e.goAsync(fn)
	}
}

// DropUpstreamReconfigure implements media.Pad.
func (p *Pad) DropUpstreamReconfigure() {
	p.owner.engine.mu.Lock()
	defer p.owner.engine.mu.Unlock()
	p.dropReconf = true
}

// SendEOS implements media.Pad. An EOS sent into a bin's ghost sink pad
// drains the bin and, once it sits in a pipeline, is forwarded to the bus.
func (p *Pad) SendEOS() bool {
	e := p.owner.engine
	e.mu.Lock()
	if !p.isGhostSink {
		e.mu.Unlock()
		return true
	}
	b := p.bin
	b.gotEOS = true
	hold := e.HoldDrain
	e.mu.Unlock()
	if !hold {
		e.goAsync(func() { e.forwardEOS(b) })
	}
	return true
}

func (e *Engine) forwardEOS(b *Bin) {
	e.mu.Lock()
	if b.forwarded || b.pipeline == nil {
		e.mu.Unlock()
		return
	}
	b.forwarded = true
	bus, name := b.pipeline.bus, b.name
	e.mu.Unlock()
	bus.Post(media.Message{Kind: media.MessageForwardedEOS, Source: name})
}

// Bus is an unbounded in-memory media.Bus.
type Bus struct {
	mu     sync.Mutex
	queue  []media.Message
	notify chan struct{}
	posted []media.Message
}

func newBus() *Bus {
	return &Bus{notify: make(chan struct{}, 1)}
}

var _ media.Bus = (*Bus)(nil)

// Post implements media.Bus.
func (b *Bus) Post(m media.Message) bool {
	b.mu.Lock()
	b.queue = append(b.queue, m)
	b.posted = append(b.posted, m)
	b.mu.Unlock()
	select {
	case b.notify <- struct{}{}:
	default:
	}
	return true
}

// Pop implements media.Bus.
func (b *Bus) Pop(timeout time.Duration) (media.Message, bool) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		b.mu.Lock()
		if len(b.queue) > 0 {
			m := b.queue[0]
			b.queue = b.queue[1:]
			b.mu.Unlock()
			return m, true
		}
		b.mu.Unlock()
		select {
		case <-b.notify:
		case <-deadline.C:
			return media.Message{}, false
		}
	}
}

// Posted returns every message ever posted, popped or not.
func (b *Bus) Posted() []media.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]media.Message(nil), b.posted...)
}
