// Package graph owns the always-running capture graph: a camera source
// fanned out by a tee into a display chain, plus at most a few dynamically
// attached branches (recordings) that are linked to and drained from the
// tee while the preview keeps running.
//
// Every method must be called from the UI event loop. Engine threads never
// touch Graph state; they post closures through Options.Post instead.
package graph

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kartoza/kartoza-webcam-viewer/internal/logging"
	"github.com/kartoza/kartoza-webcam-viewer/internal/media"
	"github.com/kartoza/kartoza-webcam-viewer/internal/relay"
	"github.com/rs/zerolog"
)

const (
	// TeeName and SinkName are the element names the topology must contain.
	TeeName  = "tee"
	SinkName = "sink"

	// DefaultSource picks the platform's default camera.
	DefaultSource = "autovideosrc"
	// DefaultDisplay keeps the newest full-size RGBA frame in an appsink the
	// preview and snapshots read from.
	DefaultDisplay = "queue ! videoconvert ! video/x-raw,format=RGBA ! appsink name=sink max-buffers=1 drop=true sync=false"

	branchPrefix   = "record-bin-"
	surfaceProp    = "widget"
	lastSampleProp = "last-sample"
)

// Config selects the two variable ends of the fixed topology.
type Config struct {
	// Source is the capture element description, e.g. "v4l2src device=/dev/video2".
	Source string
	// Display is the chain after the tee; it must end in an element named "sink".
	Display string
}

// Description renders the full pipeline description.
func (c Config) Description() string {
	source, display := c.Source, c.Display
	if source == "" {
		source = DefaultSource
	}
	if display == "" {
		display = DefaultDisplay
	}
	return fmt.Sprintf("%s ! tee name=%s ! %s", source, TeeName, display)
}

// Options wires the graph to the UI loop.
type Options struct {
	// Post schedules a closure on the UI loop; it must never block.
	Post func(func()) bool
}

// BranchState is the lifecycle of an attached sub-graph.
type BranchState int

const (
	BranchRequested BranchState = iota
	BranchLinked
	BranchDraining
	BranchRemoved
)

func (s BranchState) String() string {
	switch s {
	case BranchRequested:
		return "requested"
	case BranchLinked:
		return "linked"
	case BranchDraining:
		return "draining"
	case BranchRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Branch is a sub-graph fed by one tee source pad.
type Branch struct {
	name   string
	bin    media.Bin
	teePad media.Pad
	state  BranchState
	probed bool
}

// Name is the unique element name bus messages from the branch carry.
func (b *Branch) Name() string { return b.name }

// State returns the current lifecycle state.
func (b *Branch) State() BranchState { return b.state }

// Probed reports whether the detach probe has fired and EOS was dispatched.
func (b *Branch) Probed() bool { return b.probed }

// Graph is the live capture graph.
type Graph struct {
	engine   media.Engine
	pipeline media.Pipeline
	tee      media.Element
	sink     media.Element
	state    media.State
	branches map[string]*Branch
	post     func(func()) bool
	logger   zerolog.Logger
}

// Build constructs the topology described by cfg. Nothing plays until Start.
func Build(engine media.Engine, cfg Config, opts Options) (*Graph, error) {
	if opts.Post == nil {
		return nil, errors.New("graph: Options.Post is required")
	}
	desc := cfg.Description()
	p, err := engine.ParseLaunch(desc)
	if err != nil {
		var gbe *media.GraphBuildError
		if errors.As(err, &gbe) {
			return nil, err
		}
		return nil, &media.GraphBuildError{Description: desc, Err: err}
	}

	tee, err := p.ElementByName(TeeName)
	if err != nil {
		return nil, &media.GraphBuildError{Description: desc, Element: TeeName, Err: err}
	}
	sink, err := p.ElementByName(SinkName)
	if err != nil {
		return nil, &media.GraphBuildError{Description: desc, Element: SinkName, Err: err}
	}

	// Some camera sources renegotiate whenever a branch is linked; the
	// reconfigure storm stalls the preview, so it stops at the tee.
	teeSink, err := tee.StaticPad("sink")
	if err != nil {
		return nil, &media.GraphBuildError{Description: desc, Element: TeeName, Err: err}
	}
	teeSink.DropUpstreamReconfigure()

	if err := p.SetProperty("message-forward", true); err != nil {
		return nil, err
	}

	g := &Graph{
		engine:   engine,
		pipeline: p,
		tee:      tee,
		sink:     sink,
		state:    media.StateNull,
		branches: map[string]*Branch{},
		post:     opts.Post,
		logger:   logging.WithComponent("graph"),
	}
	g.logger.Debug().
		Str("event", "graph.built").
		Str("description", desc).
		Msg("capture graph built")
	return g, nil
}

// Bus returns the pipeline bus for the relay.
func (g *Graph) Bus() media.Bus { return g.pipeline.Bus() }

// State returns the last state successfully requested.
func (g *Graph) State() media.State { return g.state }

// Start requests Playing. Calling it while playing does nothing.
func (g *Graph) Start() error {
	return g.setState(media.StatePlaying)
}

// Stop requests Null. Calling it while stopped does nothing.
func (g *Graph) Stop() error {
	return g.setState(media.StateNull)
}

func (g *Graph) setState(s media.State) error {
	if g.state == s {
		return nil
	}
	if err := g.pipeline.SetState(s); err != nil {
		var sce *media.StateChangeError
		if errors.As(err, &sce) {
			return err
		}
		return &media.StateChangeError{Element: g.pipeline.Name(), State: s, Err: err}
	}
	g.logger.Info().
		Str("event", "graph.state").
		Str("from", g.state.String()).
		Str("to", s.String()).
		Msg("graph state changed")
	g.state = s
	return nil
}

// DisplaySurface returns the surface the display sink renders into. The
// sink is always built with one, so a missing surface panics.
func (g *Graph) DisplaySurface() media.Surface {
	v, err := g.sink.Property(surfaceProp)
	if err != nil {
		var pe *media.PropertyError
		if !errors.As(err, &pe) {
			pe = &media.PropertyError{Element: g.sink.Name(), Property: surfaceProp, Err: err}
		}
		panic(pe)
	}
	s, ok := v.(media.Surface)
	if !ok {
		panic(&media.PropertyError{
			Element:  g.sink.Name(),
			Property: surfaceProp,
			Err:      fmt.Errorf("value of type %T is not a surface", v),
		})
	}
	return s
}

// LastSample returns the most recently displayed frame, if any.
func (g *Graph) LastSample() (media.Sample, bool) {
	v, err := g.sink.Property(lastSampleProp)
	if err != nil || v == nil {
		return nil, false
	}
	return v, true
}

// Engine returns the engine the graph was built with.
func (g *Graph) Engine() media.Engine { return g.engine }

// Branches returns the number of branches not yet removed.
func (g *Graph) Branches() int { return len(g.branches) }

// AttachBranch builds description as a sub-graph, lets configure set it up,
// starts it and links it to a new tee source pad. The sub-graph plays before
// it is linked so a broken branch never stalls the preview. On failure
// nothing of the branch is left in the graph.
func (g *Graph) AttachBranch(description string, configure func(media.Bin) error) (*Branch, error) {
	bin, err := g.engine.ParseBin(description)
	if err != nil {
		return nil, err
	}
	b := &Branch{name: branchPrefix + uuid.NewString(), bin: bin, state: BranchRequested}
	if err := bin.SetProperty("name", b.name); err != nil {
		return nil, err
	}
	if configure != nil {
		if err := configure(bin); err != nil {
			return nil, err
		}
	}

	if err := bin.SetState(media.StatePlaying); err != nil {
		_ = bin.SetState(media.StateNull)
		return nil, err
	}
	if err := g.pipeline.Add(bin); err != nil {
		_ = bin.SetState(media.StateNull)
		return nil, fmt.Errorf("add %s to pipeline: %w", b.name, err)
	}

	rollback := func() {
		if err := g.pipeline.Remove(bin); err != nil {
			g.logger.Warn().Err(err).Str("event", "graph.rollback").Str("branch", b.name).Msg("remove failed")
		}
		if err := bin.SetState(media.StateNull); err != nil {
			g.logger.Warn().Err(err).Str("event", "graph.rollback").Str("branch", b.name).Msg("stop failed")
		}
	}

	teePad, err := g.tee.RequestPad("src_%u")
	if err != nil {
		rollback()
		return nil, &media.LinkError{Src: g.tee.Name(), Sink: b.name, Err: err}
	}
	sinkPad, err := bin.StaticPad("sink")
	if err != nil {
		g.tee.ReleaseRequestPad(teePad)
		rollback()
		return nil, &media.LinkError{Src: teePad.Name(), Sink: b.name, Err: err}
	}
	if err := teePad.Link(sinkPad); err != nil {
		g.tee.ReleaseRequestPad(teePad)
		rollback()
		return nil, &media.LinkError{Src: teePad.Name(), Sink: b.name + ":sink", Err: err}
	}

	b.teePad = teePad
	b.state = BranchLinked
	g.branches[b.name] = b
	g.logger.Info().
		Str("event", "graph.branch_linked").
		Str("branch", b.name).
		Str("pad", teePad.Name()).
		Msg("branch attached")
	return b, nil
}

// DetachBranch starts draining a linked branch: once no buffer is in
// flight at the tee pad, the pad is unlinked and released and an EOS is sent
// into the branch. The branch is removed by CompleteBranch when that EOS
// comes out the other end. Detaching a branch that is not linked does nothing.
func (g *Graph) DetachBranch(b *Branch) {
	if b == nil || b.state != BranchLinked {
		return
	}
	b.state = BranchDraining

	tee, bin, teePad, name := g.tee, b.bin, b.teePad, b.name
	post, logger := g.post, g.logger
	teePad.AddIdleProbe(func() {
		// Streaming thread: touch only engine objects, hand the rest to the loop.
		sinkPad, err := bin.StaticPad("sink")
		if err == nil {
			if err := teePad.Unlink(sinkPad); err != nil {
				logger.Warn().Err(err).Str("event", "graph.unlink").Str("branch", name).Msg("unlink failed")
			}
		}
		tee.ReleaseRequestPad(teePad)
		bin.CallAsync(func() {
			if sinkPad == nil || !sinkPad.SendEOS() {
				logger.Warn().Str("event", "graph.eos").Str("branch", name).Msg("branch refused EOS")
			}
		})
		post(func() {
			b.probed = true
			logger.Debug().Str("event", "graph.probe_fired").Str("branch", name).Msg("branch unlinked, EOS dispatched")
		})
	})
	g.logger.Info().
		Str("event", "graph.branch_draining").
		Str("branch", name).
		Msg("branch detach requested")
}

// CompleteBranch handles the forwarded EOS of source. It reports the removed
// branch, or false when source is not a draining branch of this graph.
func (g *Graph) CompleteBranch(source string) (*Branch, bool) {
	b, ok := g.branches[source]
	if !ok || b.state != BranchDraining {
		return nil, false
	}
	b.state = BranchRemoved
	delete(g.branches, source)

	pipeline, bin, bus, logger := g.pipeline, b.bin, g.pipeline.Bus(), g.logger
	pipeline.CallAsync(func() {
		if err := pipeline.Remove(bin); err != nil {
			logger.Warn().Err(err).Str("event", "graph.branch_remove").Str("branch", source).Msg("remove failed")
		}
		if err := bin.SetState(media.StateNull); err != nil {
			relay.PostWarning(bus, fmt.Sprintf("Failed to stop recording: %v", err))
		}
	})
	g.logger.Info().
		Str("event", "graph.branch_removed").
		Str("branch", source).
		Msg("branch drained")
	return b, true
}
