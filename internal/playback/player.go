// Package playback deterministically reconstructs the editor buffer of a
// recorded walkthrough at any point of its timeline and drives continuous,
// audio-synchronized replay.
package playback

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/codewalk-dev/codewalk/internal/session"
	"github.com/codewalk-dev/codewalk/internal/timemap"
)

// ErrInteractiveMode is returned by Play while an interactive edit is open.
var ErrInteractiveMode = errors.New("playback is in interactive mode")

// Status is a point-in-time snapshot of the player for the UI layer.
type Status struct {
	Time        int64 // effective milliseconds
	Duration    int64 // total effective milliseconds
	Code        string
	Playing     bool
	Interactive bool
}

// Player reconstructs code state as a function of elapsed audio time. All
// methods are safe for concurrent use; the update loop runs on its own
// goroutine and is cancelled whenever playback halts, so at most one loop is
// ever live.
type Player struct {
	rec    *session.Recording
	mapper *timemap.Mapper
	events []session.CodeEvent // sorted private copy

	mu        sync.Mutex
	transport Transport
	duration  int64
	time      int64
	code      string
	lastRecon string
	playing   bool
	cancel    context.CancelFunc
	seq       int64 // invalidates pending post-seek resumes

	interactive     bool
	userCode        string
	transitionUntil time.Time

	tick       time.Duration
	settle     time.Duration
	transition time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Player.
type Option func(*Player)

// WithTick sets the update-loop interval.
func WithTick(d time.Duration) Option {
	return func(p *Player) { p.tick = d }
}

// WithSettle sets the delay before playback restarts after a seek, covering
// the transport's own asynchronous repositioning.
func WithSettle(d time.Duration) Option {
	return func(p *Player) { p.settle = d }
}

// WithTransitionLock sets the re-entrancy guard window for interactive-mode
// transitions.
func WithTransitionLock(d time.Duration) Option {
	return func(p *Player) { p.transition = d }
}

// WithLogger sets the logger used on degraded paths.
func WithLogger(l *slog.Logger) Option {
	return func(p *Player) { p.logger = l }
}

// WithNow replaces the wall clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(p *Player) { p.now = now }
}

// New builds a Player for the recording, driven by the given transport. The
// event log is copied and re-sorted so a malformed document can never corrupt
// lookup, and the recording itself is never mutated.
func New(rec *session.Recording, transport Transport, opts ...Option) *Player {
	events := make([]session.CodeEvent, len(rec.CodeEvents))
	copy(events, rec.CodeEvents)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp < events[j].Timestamp
	})

	p := &Player{
		rec:        rec,
		mapper:     timemap.New(rec.AudioEvents),
		events:     events,
		transport:  transport,
		duration:   rec.Duration(),
		code:       rec.InitialCode,
		lastRecon:  rec.InitialCode,
		tick:       50 * time.Millisecond,
		settle:     100 * time.Millisecond,
		transition: 100 * time.Millisecond,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RawDuration returns the recording's total duration on the raw audio
// timeline, i.e. with paused intervals included. Transports cover this span.
func RawDuration(rec *session.Recording) int64 {
	return timemap.New(rec.AudioEvents).EffectiveToAudio(rec.Duration())
}

// CodeAt returns the exact buffer contents at an effective time: the snapshot
// of the last event at or before it, or the initial code when none qualifies.
// Pure and idempotent, which is what makes seek and resume exact.
func (p *Player) CodeAt(effectiveMs int64) string {
	return snapshotAt(p.events, p.rec.InitialCode, effectiveMs)
}

// ReconstructAt reconstructs the buffer at an effective time directly from a
// recording, for callers that do not need a running Player.
func ReconstructAt(rec *session.Recording, effectiveMs int64) string {
	events := make([]session.CodeEvent, len(rec.CodeEvents))
	copy(events, rec.CodeEvents)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp < events[j].Timestamp
	})
	return snapshotAt(events, rec.InitialCode, effectiveMs)
}

func snapshotAt(events []session.CodeEvent, initial string, effectiveMs int64) string {
	// First event with Timestamp > effectiveMs; the one before it applies.
	i := sort.Search(len(events), func(i int) bool {
		return events[i].Timestamp > effectiveMs
	})
	if i == 0 {
		return initial
	}
	return events[i-1].Data
}

// Play starts or resumes continuous playback. At or past the end the timeline
// resets to the beginning first.
func (p *Player) Play() error {
	p.mu.Lock()
	if p.interactive {
		p.mu.Unlock()
		return ErrInteractiveMode
	}
	if p.playing {
		p.mu.Unlock()
		return nil
	}
	if p.time >= p.duration {
		p.time = 0
	}
	recon := p.CodeAt(p.time)
	p.code = recon
	p.lastRecon = recon
	p.playing = true
	p.startLoopLocked()
	raw := p.mapper.EffectiveToAudio(p.time)
	p.mu.Unlock()

	if err := p.tr().Seek(raw); err != nil {
		p.degrade("seek", err)
	}
	p.playTransport()
	return nil
}

// Pause halts the loop and the transport in place.
func (p *Player) Pause() {
	p.mu.Lock()
	p.seq++
	p.playing = false
	p.stopLoopLocked()
	p.mu.Unlock()
	p.tr().Pause()
}

// Stop halts playback and rewinds to the beginning.
func (p *Player) Stop() {
	p.Pause()
	p.mu.Lock()
	p.time = 0
	p.code = p.rec.InitialCode
	p.lastRecon = p.rec.InitialCode
	p.mu.Unlock()
	p.tr().Seek(0)
}

// Seek moves to an effective time, clamped to the session bounds. If playback
// was running it resumes after a short settle delay, because repositioning a
// transport is itself asynchronous.
func (p *Player) Seek(effectiveMs int64) {
	p.mu.Lock()
	if effectiveMs < 0 {
		effectiveMs = 0
	}
	if effectiveMs > p.duration {
		effectiveMs = p.duration
	}
	wasPlaying := p.playing
	p.playing = false
	p.stopLoopLocked()
	recon := p.CodeAt(effectiveMs)
	p.time = effectiveMs
	if !p.interactive {
		p.code = recon
	}
	p.lastRecon = recon
	p.seq++
	seq := p.seq
	raw := p.mapper.EffectiveToAudio(effectiveMs)
	p.mu.Unlock()

	t := p.tr()
	t.Pause()
	if err := t.Seek(raw); err != nil {
		p.degrade("seek", err)
	}
	if wasPlaying {
		time.AfterFunc(p.settle, func() { p.resumeAfterSeek(seq) })
	}
}

// SetRate forwards a playback-rate change to the transport.
func (p *Player) SetRate(rate float64) {
	if err := p.tr().SetRate(rate); err != nil {
		p.logger.Warn("transport rejected rate change", "rate", rate, "err", err)
	}
}

// Status returns a consistent snapshot for rendering.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	code := p.code
	if p.interactive {
		code = p.userCode
	}
	return Status{
		Time:        p.time,
		Duration:    p.duration,
		Code:        code,
		Playing:     p.playing,
		Interactive: p.interactive,
	}
}

// Close halts playback and releases the transport.
func (p *Player) Close() error {
	p.mu.Lock()
	p.seq++
	p.playing = false
	p.stopLoopLocked()
	p.mu.Unlock()
	return p.tr().Close()
}

func (p *Player) resumeAfterSeek(seq int64) {
	p.mu.Lock()
	if p.seq != seq || p.playing || p.interactive {
		p.mu.Unlock()
		return
	}
	p.playing = true
	p.startLoopLocked()
	p.mu.Unlock()
	p.playTransport()
}

// startLoopLocked launches the update loop, cancelling any previous one so
// duplicate loops can never race. Caller holds the lock.
func (p *Player) startLoopLocked() {
	p.stopLoopLocked()
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go p.loop(ctx)
}

func (p *Player) stopLoopLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// loop advances the timeline once per tick: it reads the transport position,
// maps it to effective time and updates the reconstructed code only when the
// reconstruction changed since the last tick. Reaching the total duration
// snaps exactly to the recorded final code, so timing drift can never leave a
// stale intermediate snapshot on screen.
func (p *Player) loop(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pos := p.tr().Position()
			p.mu.Lock()
			if !p.playing || p.interactive {
				p.mu.Unlock()
				return
			}
			eff := p.mapper.AudioToEffective(pos)
			if eff >= p.duration {
				p.time = p.duration
				p.code = p.rec.FinalCode
				p.lastRecon = p.rec.FinalCode
				p.playing = false
				p.stopLoopLocked()
				p.mu.Unlock()
				p.tr().Pause()
				return
			}
			p.time = eff
			if recon := p.CodeAt(eff); recon != p.lastRecon {
				p.code = recon
				p.lastRecon = recon
			}
			p.mu.Unlock()
		}
	}
}

// playTransport starts the transport, degrading to the wall clock on failure
// so visual playback keeps going instead of freezing.
func (p *Player) playTransport() {
	if err := p.tr().Play(); err != nil {
		p.degrade("play", err)
		p.tr().Play()
	}
}

// tr reads the current transport under the lock; degrade may swap it.
func (p *Player) tr() Transport {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.transport
}

// degrade swaps in a wall-clock transport at the current position after an
// audio failure. Playback continues code-only.
func (p *Player) degrade(op string, err error) {
	p.logger.Warn("audio transport failed, continuing code-only", "op", op, "err", err)
	p.mu.Lock()
	raw := p.mapper.EffectiveToAudio(p.time)
	wc := NewWallclock(RawDuration(p.rec))
	wc.Seek(raw)
	old := p.transport
	p.transport = wc
	p.mu.Unlock()
	old.Close()
}
