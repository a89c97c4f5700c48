package gstengine

import (
	"fmt"
	"time"

	"github.com/kartoza/kartoza-webcam-viewer/internal/media"
	"github.com/tinyzimmer/go-gst/gst"
)

// surfaceProperty is the property display sinks expose their embeddable
// surface under.
const surfaceProperty = "widget"

const lastSampleProperty = "last-sample"

type element struct {
	el *gst.Element
}

var _ media.Element = (*element)(nil)

func wrapElement(el *gst.Element) media.Element {
	return &element{el: el}
}

func (e *element) Name() string { return e.el.GetName() }

func (e *element) SetState(s media.State) error {
	if err := e.el.SetState(toGstState(s)); err != nil {
		return &media.StateChangeError{Element: e.Name(), State: s, Err: err}
	}
	return nil
}

func (e *element) isAppSink() bool {
	f := e.el.GetFactory()
	return f != nil && f.GetName() == "appsink"
}

func (e *element) Property(name string) (any, error) {
	// appsink has no widget of its own; it renders into a Go-side surface
	// that decodes its last sample on demand.
	if name == surfaceProperty && e.isAppSink() {
		return &frameSurface{el: e.el}, nil
	}
	if name == lastSampleProperty {
		if s := lastSample(e.el); s != nil {
			return s, nil
		}
		return nil, nil
	}
	v, err := e.el.GetProperty(name)
	if err != nil {
		return nil, &media.PropertyError{Element: e.Name(), Property: name, Err: err}
	}
	return v, nil
}

func (e *element) SetProperty(name string, value any) error {
	if err := e.el.SetProperty(name, value); err != nil {
		return &media.PropertyError{Element: e.Name(), Property: name, Err: err}
	}
	return nil
}

func (e *element) StaticPad(name string) (media.Pad, error) {
	p := e.el.GetStaticPad(name)
	if p == nil {
		return nil, fmt.Errorf("%s has no pad %q", e.Name(), name)
	}
	return &pad{p: p}, nil
}

func (e *element) RequestPad(template string) (media.Pad, error) {
	p := e.el.GetRequestPad(template)
	if p == nil {
		return nil, fmt.Errorf("%s refused request pad %q", e.Name(), template)
	}
	return &pad{p: p}, nil
}

func (e *element) ReleaseRequestPad(p media.Pad) {
	if gp, ok := p.(*pad); ok {
		e.el.ReleaseRequestPad(gp.p)
	}
}

func (e *element) CallAsync(fn func()) {
	e.el.CallAsync(fn)
}

func (e *element) raw() *gst.Element { return e.el }

type bin struct {
	element
	b *gst.Bin
}

var _ media.Bin = (*bin)(nil)

func (b *bin) ElementByName(name string) (media.Element, error) {
	el, err := b.b.GetElementByName(name)
	if err != nil {
		return nil, err
	}
	return wrapElement(el), nil
}

func (b *bin) Add(el media.Element) error {
	raw, err := unwrap(el)
	if err != nil {
		return err
	}
	return b.b.Add(raw)
}

func (b *bin) Remove(el media.Element) error {
	raw, err := unwrap(el)
	if err != nil {
		return err
	}
	return b.b.Remove(raw)
}

type pipeline struct {
	bin
	p *gst.Pipeline
}

var _ media.Pipeline = (*pipeline)(nil)

func (p *pipeline) Bus() media.Bus {
	return &bus{b: p.p.GetPipelineBus(), owner: p.p.Element}
}

func unwrap(el media.Element) (*gst.Element, error) {
	switch v := el.(type) {
	case *element:
		return v.raw(), nil
	case *bin:
		return v.raw(), nil
	case *pipeline:
		return v.raw(), nil
	default:
		return nil, fmt.Errorf("element %s does not belong to this engine", el.Name())
	}
}

type pad struct {
	p *gst.Pad
}

var _ media.Pad = (*pad)(nil)

func (p *pad) Name() string { return p.p.GetName() }

func (p *pad) Link(sink media.Pad) error {
	sp, ok := sink.(*pad)
	if !ok {
		return fmt.Errorf("pad %s does not belong to this engine", sink.Name())
	}
	if ret := p.p.Link(sp.p); ret != gst.PadLinkOK {
		return fmt.Errorf("link %s -> %s: %v", p.Name(), sp.Name(), ret)
	}
	return nil
}

func (p *pad) Unlink(sink media.Pad) error {
	sp, ok := sink.(*pad)
	if !ok {
		return fmt.Errorf("pad %s does not belong to this engine", sink.Name())
	}
	if !p.p.Unlink(sp.p) {
		return fmt.Errorf("unlink %s -> %s failed", p.Name(), sp.Name())
	}
	return nil
}

func (p *pad) AddIdleProbe(fn func()) {
	p.p.AddProbe(gst.PadProbeTypeIdle, func(*gst.Pad, *gst.PadProbeInfo) gst.PadProbeReturn {
		fn()
		return gst.PadProbeRemove
	})
}

func (p *pad) DropUpstreamReconfigure() {
	p.p.AddProbe(gst.PadProbeTypeEventUpstream, func(_ *gst.Pad, info *gst.PadProbeInfo) gst.PadProbeReturn {
		if ev := info.GetEvent(); ev != nil && ev.Type() == gst.EventTypeReconfigure {
			return gst.PadProbeDrop
		}
		return gst.PadProbeOK
	})
}

func (p *pad) SendEOS() bool {
	return p.p.SendEvent(gst.NewEOSEvent())
}

type bus struct {
	b     *gst.Bus
	owner *gst.Element
}

var _ media.Bus = (*bus)(nil)

// Post only carries application messages; other kinds come from the engine.
func (b *bus) Post(m media.Message) bool {
	if m.Kind != media.MessageApplication {
		return false
	}
	st := gst.NewStructure(m.Name)
	for k, v := range m.Fields {
		if err := st.SetValue(k, v); err != nil {
			return false
		}
	}
	return b.b.Post(gst.NewApplicationMessage(b.owner, st))
}

func (b *bus) Pop(timeout time.Duration) (media.Message, bool) {
	msg := b.b.TimedPop(timeout)
	if msg == nil {
		return media.Message{}, false
	}
	return b.translate(msg), true
}

func (b *bus) translate(msg *gst.Message) media.Message {
	out := media.Message{Kind: media.MessageOther, Source: msg.Source()}
	switch msg.Type() {
	case gst.MessageError:
		gerr := msg.ParseError()
		out.Kind = media.MessageError
		out.Text = gerr.Error()
		out.Debug = gerr.DebugString()
	case gst.MessageEOS:
		out.Kind = media.MessageEOS
	case gst.MessageApplication:
		out.Kind = media.MessageApplication
		if st := msg.GetStructure(); st != nil {
			out.Name = st.Name()
			out.Fields = map[string]string{}
			for k, v := range st.Values() {
				out.Fields[k] = fmt.Sprint(v)
			}
		}
	case gst.MessageElement:
		st := msg.GetStructure()
		if st == nil || st.Name() != "GstBinForwarded" {
			break
		}
		v, err := st.GetValue("message")
		if err != nil {
			break
		}
		if inner, ok := v.(*gst.Message); ok && inner.Type() == gst.MessageEOS {
			out.Kind = media.MessageForwardedEOS
			out.Source = inner.Source()
		}
	case gst.MessageStateChanged:
		if msg.Source() != b.owner.GetName() {
			break
		}
		_, newState := msg.ParseStateChanged()
		out.Kind = media.MessageStateChanged
		out.State = fromGstState(newState)
	}
	return out
}
