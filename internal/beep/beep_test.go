package beep

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/kartoza/kartoza-webcam-viewer/internal/media"
	"github.com/kartoza/kartoza-webcam-viewer/internal/media/mediatest"
)

func TestFrequenciesDescend(t *testing.T) {
	for n := 2; n <= 15; n++ {
		if Frequencies[n] <= Frequencies[n-1] {
			t.Errorf("frequency for %d (%d Hz) should be above %d (%d Hz)", n, Frequencies[n], n-1, Frequencies[n-1])
		}
	}
	if _, ok := Frequencies[0]; ok {
		t.Error("zero should not beep")
	}
}

func TestDescription(t *testing.T) {
	got := Description(698, 100*time.Millisecond)
	want := "audiotestsrc wave=sine freq=698 num-buffers=5 ! audioconvert ! autoaudiosink"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestPlay_UsesEngine(t *testing.T) {
	engine := mediatest.NewEngine()
	p := New(engine)
	p.wait = 20 * time.Millisecond
	var bell bytes.Buffer
	p.bell = &bell

	p.Play(3)
	p.Wait()

	pipelines := engine.Pipelines()
	if len(pipelines) != 1 {
		t.Fatalf("expected one audio pipeline, got %d", len(pipelines))
	}
	src := pipelines[0].Child("audiotestsrc0")
	if src == nil || src.Prop("freq") != "698" {
		t.Errorf("expected a 698 Hz source")
	}
	if pipelines[0].State() != media.StateNull {
		t.Errorf("expected tone pipeline to be stopped, got %s", pipelines[0].State())
	}
	if bell.Len() != 0 {
		t.Error("bell should not ring when the engine plays the tone")
	}
}

func TestPlay_StopsOnEOS(t *testing.T) {
	engine := mediatest.NewEngine()
	p := New(engine)
	p.wait = time.Minute

	p.Play(1)
	var pl *mediatest.Pipeline
	deadline := time.Now().Add(2 * time.Second)
	for pl == nil && time.Now().Before(deadline) {
		if ps := engine.Pipelines(); len(ps) == 1 {
			pl = ps[0]
		}
		time.Sleep(time.Millisecond)
	}
	if pl == nil {
		t.Fatal("tone pipeline was never built")
	}
	pl.FakeBus().Post(media.Message{Kind: media.MessageEOS})

	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tone did not finish on EOS")
	}
}

func TestPlay_FallsBackToBell(t *testing.T) {
	engine := mediatest.NewEngine()
	delete(engine.Known, "autoaudiosink")
	p := New(engine)
	var bell bytes.Buffer
	p.bell = &bell

	p.Play(2)
	p.Wait()
	if bell.String() != "\a" {
		t.Errorf("expected terminal bell, got %q", bell.String())
	}

	p.Play(0)
	p.Play(16)
	p.Wait()
	if strings.Count(bell.String(), "\a") != 1 {
		t.Error("counts without a frequency should be silent")
	}
}

func TestPlay_NilEngine(t *testing.T) {
	p := New(nil)
	var bell bytes.Buffer
	p.bell = &bell
	p.Play(5)
	if bell.String() != "\a" {
		t.Errorf("expected terminal bell, got %q", bell.String())
	}
}
