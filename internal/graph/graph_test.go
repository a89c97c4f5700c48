package graph

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kartoza/kartoza-webcam-viewer/internal/eventloop"
	"github.com/kartoza/kartoza-webcam-viewer/internal/media"
	"github.com/kartoza/kartoza-webcam-viewer/internal/media/mediatest"
	"github.com/kartoza/kartoza-webcam-viewer/internal/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBranch = "queue ! videoconvert ! x264enc ! mp4mux ! filesink name=sink"

func startLoop(t *testing.T) *eventloop.Loop {
	t.Helper()
	l := eventloop.New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return l
}

func buildTest(t *testing.T) (*Graph, *mediatest.Engine, *mediatest.Pipeline, *eventloop.Loop) {
	t.Helper()
	engine := mediatest.NewEngine()
	loop := startLoop(t)
	g, err := Build(engine, Config{Source: "videotestsrc"}, Options{Post: loop.Post})
	require.NoError(t, err)
	t.Cleanup(engine.Wait)
	return g, engine, engine.Pipelines()[0], loop
}

func TestConfigDescription(t *testing.T) {
	assert.Equal(t,
		"autovideosrc ! tee name=tee ! "+DefaultDisplay,
		Config{}.Description())
	assert.Equal(t,
		"v4l2src device=/dev/video2 ! tee name=tee ! fakesink name=sink",
		Config{Source: "v4l2src device=/dev/video2", Display: "fakesink name=sink"}.Description())
}

func TestBuild(t *testing.T) {
	_, _, p, _ := buildTest(t)

	assert.Equal(t, true, p.Prop("message-forward"))
	tee := p.Child(TeeName)
	require.NotNil(t, tee)
	assert.True(t, tee.Pad("sink").DropsReconfigure())
	require.NotNil(t, p.Child(SinkName))
	assert.Equal(t, "appsink", p.Child(SinkName).Factory())
}

func TestBuild_Errors(t *testing.T) {
	engine := mediatest.NewEngine()
	post := func(func()) bool { return true }

	_, err := Build(engine, Config{Source: "nosuchsrc"}, Options{Post: post})
	var gbe *media.GraphBuildError
	require.ErrorAs(t, err, &gbe)
	assert.Empty(t, gbe.Element)
	assert.ErrorIs(t, err, mediatest.ErrParse)

	_, err = Build(engine, Config{Source: "videotestsrc", Display: "queue ! fakesink"}, Options{Post: post})
	require.ErrorAs(t, err, &gbe)
	assert.Equal(t, SinkName, gbe.Element)

	_, err = Build(engine, Config{}, Options{})
	assert.Error(t, err)
}

func TestStartStop_Idempotent(t *testing.T) {
	g, _, p, _ := buildTest(t)

	require.NoError(t, g.Start())
	require.NoError(t, g.Start())
	assert.Equal(t, media.StatePlaying, g.State())
	assert.Equal(t, media.StatePlaying, p.State())

	var playing int
	for _, m := range p.FakeBus().Posted() {
		if m.Kind == media.MessageStateChanged {
			playing++
		}
	}
	assert.Equal(t, 1, playing, "second Start must not reach the engine")

	require.NoError(t, g.Stop())
	require.NoError(t, g.Stop())
	assert.Equal(t, media.StateNull, g.State())
	assert.Equal(t, media.StateNull, p.State())
}

func TestStart_Refused(t *testing.T) {
	engine := mediatest.NewEngine()
	engine.FailState["pipeline"] = media.StatePlaying
	g, err := Build(engine, Config{Source: "videotestsrc"}, Options{Post: func(func()) bool { return true }})
	require.NoError(t, err)

	err = g.Start()
	var sce *media.StateChangeError
	require.ErrorAs(t, err, &sce)
	assert.Equal(t, media.StatePlaying, sce.State)
	assert.Equal(t, media.StateNull, g.State())
}

func TestDisplaySurface(t *testing.T) {
	g, _, p, _ := buildTest(t)

	assert.PanicsWithError(t, (&media.PropertyError{Element: SinkName, Property: "widget"}).Error(), func() {
		g.DisplaySurface()
	})

	require.NoError(t, p.Child(SinkName).SetProperty("widget", 42))
	assert.Panics(t, func() { g.DisplaySurface() })

	surface := &mediatest.Surface{}
	require.NoError(t, p.Child(SinkName).SetProperty("widget", surface))
	assert.Same(t, surface, g.DisplaySurface())
}

func TestLastSample(t *testing.T) {
	g, _, p, _ := buildTest(t)

	_, ok := g.LastSample()
	assert.False(t, ok)

	sample := &mediatest.Sample{Data: []byte("frame")}
	require.NoError(t, p.Child(SinkName).SetProperty("last-sample", sample))
	got, ok := g.LastSample()
	require.True(t, ok)
	assert.Same(t, sample, got)
}

func TestAttachBranch(t *testing.T) {
	g, _, p, _ := buildTest(t)
	require.NoError(t, g.Start())

	var configured media.Bin
	b, err := g.AttachBranch(testBranch, func(bin media.Bin) error {
		configured = bin
		sink, err := bin.ElementByName("sink")
		if err != nil {
			return err
		}
		return sink.SetProperty("location", "/tmp/out.mp4")
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(b.Name(), "record-bin-"))
	assert.Equal(t, BranchLinked, b.State())
	assert.Equal(t, 1, g.Branches())

	bins := p.ChildBins()
	require.Len(t, bins, 1)
	assert.Same(t, configured, media.Bin(bins[0]))
	assert.Equal(t, b.Name(), bins[0].Name())
	assert.Equal(t, media.StatePlaying, bins[0].State())
	assert.Equal(t, "/tmp/out.mp4", bins[0].Child("sink").Prop("location"))

	// src_0 feeds the display chain.
	tee := p.Child(TeeName)
	assert.ElementsMatch(t, []string{"src_0", "src_1"}, tee.RequestPads())
	assert.NotNil(t, tee.Pad("src_1").Peer())
	assert.NotNil(t, tee.Pad("src_0").Peer())
}

func TestAttachBranch_UniqueNames(t *testing.T) {
	g, _, _, _ := buildTest(t)

	a, err := g.AttachBranch(testBranch, nil)
	require.NoError(t, err)
	b, err := g.AttachBranch(testBranch, nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.Name(), b.Name())
}

func TestAttachBranch_LinkFailureRollsBack(t *testing.T) {
	g, engine, p, _ := buildTest(t)
	engine.FailLink = true

	_, err := g.AttachBranch(testBranch, nil)
	var le *media.LinkError
	require.ErrorAs(t, err, &le)

	assert.Empty(t, p.ChildBins())
	assert.Zero(t, g.Branches())
	assert.ElementsMatch(t, []string{"src_0"}, p.Child(TeeName).RequestPads())
}

func TestAttachBranch_BuildAndStateFailures(t *testing.T) {
	g, engine, p, _ := buildTest(t)

	_, err := g.AttachBranch("queue ! nosuchenc ! filesink name=sink", nil)
	var gbe *media.GraphBuildError
	require.ErrorAs(t, err, &gbe)

	engine.FailState["record-bin-"] = media.StatePlaying
	_, err = g.AttachBranch(testBranch, nil)
	var sce *media.StateChangeError
	require.ErrorAs(t, err, &sce)

	assert.Empty(t, p.ChildBins())
	assert.ElementsMatch(t, []string{"src_0"}, p.Child(TeeName).RequestPads())
}

func TestDetachAndComplete(t *testing.T) {
	g, engine, p, loop := buildTest(t)
	require.NoError(t, g.Start())

	b, err := g.AttachBranch(testBranch, nil)
	require.NoError(t, err)
	bin := p.ChildBins()[0]
	teePad := p.Child(TeeName).Pad("src_1")

	g.DetachBranch(b)
	assert.Equal(t, BranchDraining, b.State())

	var eos media.Message
	require.Eventually(t, func() bool {
		for _, m := range p.FakeBus().Posted() {
			if m.Kind == media.MessageForwardedEOS {
				eos = m
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)
	assert.Equal(t, b.Name(), eos.Source)
	assert.True(t, teePad.Released())
	assert.Nil(t, teePad.Peer())
	assert.True(t, bin.GotEOS())

	require.Eventually(t, func() bool {
		var probed bool
		err := loop.Invoke(context.Background(), func() { probed = b.Probed() })
		return err == nil && probed
	}, time.Second, time.Millisecond)

	removed, ok := g.CompleteBranch(eos.Source)
	require.True(t, ok)
	assert.Same(t, b, removed)
	assert.Equal(t, BranchRemoved, b.State())
	assert.Zero(t, g.Branches())

	engine.Wait()
	assert.Empty(t, p.ChildBins())
	assert.Equal(t, media.StateNull, bin.State())

	// the live preview branch is untouched
	assert.NotNil(t, p.Child(TeeName).Pad("src_0").Peer())
}

func TestDetachBranch_SecondDetachIsNoop(t *testing.T) {
	g, engine, _, _ := buildTest(t)
	engine.HoldProbes = true

	b, err := g.AttachBranch(testBranch, nil)
	require.NoError(t, err)

	g.DetachBranch(b)
	g.DetachBranch(b)
	g.DetachBranch(nil)

	engine.FireProbes()
	engine.Wait()
	assert.Equal(t, BranchDraining, b.State())
}

func TestCompleteBranch_IgnoresUnknownAndLinked(t *testing.T) {
	g, _, _, _ := buildTest(t)

	b, err := g.AttachBranch(testBranch, nil)
	require.NoError(t, err)

	_, ok := g.CompleteBranch("record-bin-unknown")
	assert.False(t, ok)
	_, ok = g.CompleteBranch(b.Name())
	assert.False(t, ok, "a linked branch is only removed after draining")
	assert.Equal(t, BranchLinked, b.State())
}

func TestCompleteBranch_NullFailurePostsWarning(t *testing.T) {
	g, engine, p, _ := buildTest(t)

	b, err := g.AttachBranch(testBranch, nil)
	require.NoError(t, err)
	g.DetachBranch(b)
	engine.Wait()

	engine.FailState["record-bin-"] = media.StateNull
	_, ok := g.CompleteBranch(b.Name())
	require.True(t, ok)
	engine.Wait()

	var warnings []string
	for _, m := range p.FakeBus().Posted() {
		if ev, ok := relay.Translate(m); ok && ev.Kind == relay.EventWarning {
			warnings = append(warnings, ev.Text)
		}
	}
	require.Len(t, warnings, 1)
	assert.True(t, strings.HasPrefix(warnings[0], "Failed to stop recording: "))
}
