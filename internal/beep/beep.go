package beep

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/kartoza/kartoza-webcam-viewer/internal/logging"
	"github.com/kartoza/kartoza-webcam-viewer/internal/media"
	"github.com/rs/zerolog"
)

// Frequencies for countdown beeps (Hz), a whole tone apart and descending
// towards C#5 as the count runs out
var Frequencies = map[int]int{
	15: 2794,
	14: 2489,
	13: 2217,
	12: 1976,
	11: 1760,
	10: 1568,
	9:  1397,
	8:  1245,
	7:  1109,
	6:  988,
	5:  880,
	4:  784,
	3:  698,
	2:  622,
	1:  554,
}

const (
	// ToneDuration is how long each beep sounds
	ToneDuration = 100 * time.Millisecond
	// samples per buffer of audiotestsrc at its default 44.1 kHz rate
	samplesPerBuffer = 1024
	sampleRate       = 44100
)

// Description returns the audio graph playing one tone
func Description(freq int, d time.Duration) string {
	buffers := int(d.Seconds()*sampleRate)/samplesPerBuffer + 1
	return fmt.Sprintf("audiotestsrc wave=sine freq=%d num-buffers=%d ! audioconvert ! autoaudiosink", freq, buffers)
}

// Player plays countdown beeps through the media engine. If the engine
// cannot build an audio graph it falls back to the terminal bell.
type Player struct {
	engine   media.Engine
	duration time.Duration
	wait     time.Duration
	bell     io.Writer
	wg       sync.WaitGroup
	logger   zerolog.Logger
}

// New creates a player on engine. A nil engine always rings the bell.
func New(engine media.Engine) *Player {
	return &Player{
		engine:   engine,
		duration: ToneDuration,
		wait:     time.Second,
		bell:     os.Stderr,
		logger:   logging.WithComponent("beep"),
	}
}

// Play plays the beep for the countdown number without blocking
func (p *Player) Play(count int) {
	freq, ok := Frequencies[count]
	if !ok {
		return
	}
	if p.engine == nil {
		p.ring()
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.tone(freq)
	}()
}

// Wait blocks until every tone started so far has finished
func (p *Player) Wait() {
	p.wg.Wait()
}

func (p *Player) tone(freq int) {
	pl, err := p.engine.ParseLaunch(Description(freq, p.duration))
	if err != nil {
		p.logger.Debug().Err(err).Msg("no audio graph, using terminal bell")
		p.ring()
		return
	}
	defer func() {
		_ = pl.SetState(media.StateNull)
	}()

	if err := pl.SetState(media.StatePlaying); err != nil {
		p.logger.Debug().Err(err).Msg("audio graph refused to play, using terminal bell")
		p.ring()
		return
	}

	deadline := time.Now().Add(p.wait)
	for {
		left := time.Until(deadline)
		if left <= 0 {
			return
		}
		msg, ok := pl.Bus().Pop(left)
		if !ok {
			return
		}
		switch msg.Kind {
		case media.MessageEOS:
			return
		case media.MessageError:
			p.logger.Debug().Str("source", msg.Source).Msg(msg.Text)
			return
		}
	}
}

func (p *Player) ring() {
	fmt.Fprint(p.bell, "\a")
}
