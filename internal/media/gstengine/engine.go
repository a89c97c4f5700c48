// Package gstengine implements the media interfaces on GStreamer.
package gstengine

import (
	"fmt"
	"sync"
	"time"

	"github.com/kartoza/kartoza-webcam-viewer/internal/logging"
	"github.com/kartoza/kartoza-webcam-viewer/internal/media"
	"github.com/rs/zerolog"
	"github.com/tinyzimmer/go-glib/glib"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/video"
)

// Engine is the GStreamer-backed media.Engine.
type Engine struct {
	logger zerolog.Logger
}

var _ media.Engine = (*Engine)(nil)

var mainLoopOnce sync.Once

// New initialises GStreamer (safe to call multiple times) and returns an engine.
// The first call also starts the GLib main loop async conversions report on.
func New() *Engine {
	gst.Init(nil)
	e := &Engine{logger: logging.WithComponent("gstengine")}
	mainLoopOnce.Do(func() {
		loop := glib.NewMainLoop(glib.MainContextDefault(), false)
		go loop.Run()
		e.logger.Debug().Str("event", "gst.main_loop_started").Msg("GLib main loop running")
	})
	return e
}

// ParseLaunch implements media.Engine.
func (e *Engine) ParseLaunch(description string) (media.Pipeline, error) {
	p, err := gst.NewPipelineFromString(description)
	if err != nil {
		return nil, &media.GraphBuildError{Description: description, Err: err}
	}
	e.logger.Debug().
		Str("event", "gst.pipeline_parsed").
		Str("name", p.GetName()).
		Msg("pipeline built")
	return &pipeline{
		bin: bin{element: element{el: p.Element}, b: p.Bin},
		p:   p,
	}, nil
}

// ParseBin implements media.Engine.
func (e *Engine) ParseBin(description string) (media.Bin, error) {
	b, err := gst.NewBinFromString(description, true)
	if err != nil {
		return nil, &media.GraphBuildError{Description: description, Err: err}
	}
	return &bin{element: element{el: b.Element}, b: b}, nil
}

// HasElement implements media.Engine.
func (e *Engine) HasElement(factory string) bool {
	return gst.Find(factory) != nil
}

// ConvertSample implements media.Engine on GStreamer's async video
// conversion. GStreamer applies the timeout and delivers done on the GLib
// main loop.
func (e *Engine) ConvertSample(sample media.Sample, mediaType string, timeout time.Duration, done func([]byte, error)) {
	s, ok := sample.(*gst.Sample)
	if !ok || s == nil {
		go done(nil, fmt.Errorf("unsupported sample type %T", sample))
		return
	}
	switch mediaType {
	case "image/jpeg", "image/png":
	default:
		go done(nil, fmt.Errorf("unsupported target media type %q", mediaType))
		return
	}

	video.ConvertSampleAsync(s, gst.NewCapsFromString(mediaType), timeout, func(out *gst.Sample, err error) {
		if err != nil {
			done(nil, fmt.Errorf("convert to %s: %w", mediaType, err))
			return
		}
		data, err := sampleBytes(out)
		if err != nil {
			done(nil, fmt.Errorf("convert to %s: %w", mediaType, err))
			return
		}
		done(data, nil)
	})
}

// sampleBytes copies the encoded payload out of a converted sample.
func sampleBytes(s *gst.Sample) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("no sample produced")
	}
	buf := s.GetBuffer()
	if buf == nil {
		return nil, fmt.Errorf("sample has no buffer")
	}
	data := buf.Bytes()
	if len(data) == 0 {
		return nil, fmt.Errorf("sample buffer is empty")
	}
	return data, nil
}

func toGstState(s media.State) gst.State {
	switch s {
	case media.StateReady:
		return gst.StateReady
	case media.StatePaused:
		return gst.StatePaused
	case media.StatePlaying:
		return gst.StatePlaying
	default:
		return gst.StateNull
	}
}

func fromGstState(s gst.State) media.State {
	switch s {
	case gst.StateReady:
		return media.StateReady
	case gst.StatePaused:
		return media.StatePaused
	case gst.StatePlaying:
		return media.StatePlaying
	default:
		return media.StateNull
	}
}
