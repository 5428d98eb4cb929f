package playback

import (
	"sync"
	"time"
)

// Transport is the audio playback surface the player drives. Positions are
// raw milliseconds on the recorded audio timeline. The player treats its own
// state as the source of truth and the transport as a best-effort follower,
// so implementations may be approximate but must never block the caller.
type Transport interface {
	Play() error
	Pause() error
	Seek(rawMs int64) error
	Position() int64
	SetRate(rate float64) error
	Close() error
}

// Wallclock is a Transport driven by the process clock. It is the fallback
// when a session has no audio and the degradation target when a real audio
// transport fails, keeping visual replay alive.
type Wallclock struct {
	mu       sync.Mutex
	now      func() time.Time
	duration int64
	base     int64 // position at anchor
	anchor   time.Time
	playing  bool
	rate     float64
}

// WallclockOption configures a Wallclock.
type WallclockOption func(*Wallclock)

// WithWallclockNow replaces the clock source, for tests.
func WithWallclockNow(now func() time.Time) WallclockOption {
	return func(w *Wallclock) { w.now = now }
}

// NewWallclock returns a Wallclock covering a raw timeline of durationMs.
func NewWallclock(durationMs int64, opts ...WallclockOption) *Wallclock {
	w := &Wallclock{now: time.Now, duration: durationMs, rate: 1}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Wallclock) Play() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.playing {
		w.anchor = w.now()
		w.playing = true
	}
	return nil
}

func (w *Wallclock) Pause() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.playing {
		w.base = w.positionLocked()
		w.playing = false
	}
	return nil
}

func (w *Wallclock) Seek(rawMs int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if rawMs < 0 {
		rawMs = 0
	}
	if rawMs > w.duration {
		rawMs = w.duration
	}
	w.base = rawMs
	w.anchor = w.now()
	return nil
}

func (w *Wallclock) Position() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.positionLocked()
}

func (w *Wallclock) SetRate(rate float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if rate <= 0 {
		rate = 1
	}
	w.base = w.positionLocked()
	w.anchor = w.now()
	w.rate = rate
	return nil
}

func (w *Wallclock) Close() error { return w.Pause() }

func (w *Wallclock) positionLocked() int64 {
	pos := w.base
	if w.playing {
		pos += int64(float64(w.now().Sub(w.anchor).Milliseconds()) * w.rate)
	}
	if pos > w.duration {
		pos = w.duration
	}
	return pos
}
