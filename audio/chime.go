// Package audio plays a short tone whenever the zoom cycle changes phase
package audio

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/autozoom/zoom"
)

const (
	sampleRate    = beep.SampleRate(44100)
	chimeDuration = 400 * time.Millisecond
)

// Chime manages the speaker and the phase-change tones
type Chime struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	volume      float64
	initialized bool
}

// NewChime creates a chime at volume in [0,1]
func NewChime(volume float64) *Chime {
	return &Chime{
		mixer:  &beep.Mixer{},
		volume: math.Max(0, math.Min(1, volume)),
	}
}

// Initialize opens the speaker
func (c *Chime) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}

	if err := speaker.Init(sampleRate, sampleRate.N(time.Millisecond*100)); err != nil {
		return err
	}

	speaker.Play(c.mixer)
	c.initialized = true
	return nil
}

// Cleanup stops pending tones and closes the speaker
func (c *Chime) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return
	}

	speaker.Lock()
	c.mixer.Clear()
	speaker.Unlock()

	speaker.Close()
	c.initialized = false
}

// OnModeChange plays a rising tone entering zoom-in and a falling one entering zoom-out.
// Suitable as zoom.Controller.OnModeChange.
func (c *Chime) OnModeChange(m zoom.Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return
	}

	from, to := 330.0, 660.0
	if m == zoom.ZoomingOut {
		from, to = to, from
	}

	streamer := beep.Take(sampleRate.N(chimeDuration), NewSweepGenerator(sampleRate, from, to, chimeDuration, c.volume))
	speaker.Lock()
	c.mixer.Add(streamer)
	speaker.Unlock()
}

// SweepGenerator generates a sine sweeping linearly from one frequency to another with a decaying envelope
type SweepGenerator struct {
	sr       beep.SampleRate
	from, to float64
	samples  int
	volume   float64
	pos      int
	phase    float64
}

// NewSweepGenerator creates a sweep lasting d
func NewSweepGenerator(sr beep.SampleRate, from, to float64, d time.Duration, volume float64) *SweepGenerator {
	n := sr.N(d)
	if n < 1 {
		n = 1
	}
	return &SweepGenerator{
		sr:      sr,
		from:    from,
		to:      to,
		samples: n,
		volume:  volume,
	}
}

func (g *SweepGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	if g.pos >= g.samples {
		return 0, false
	}
	for i := range samples {
		if g.pos >= g.samples {
			return i, true
		}
		progress := float64(g.pos) / float64(g.samples)
		freq := g.from + (g.to-g.from)*progress

		// Phase accumulation keeps the sweep continuous
		g.phase += 2 * math.Pi * freq / float64(g.sr)

		// Short attack, exponential decay
		attack := math.Min(float64(g.pos)/float64(g.sr)/0.01, 1.0)
		envelope := attack * math.Exp(-progress*4)

		sample := 0.3 * g.volume * envelope * math.Sin(g.phase)
		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *SweepGenerator) Err() error {
	return nil
}
