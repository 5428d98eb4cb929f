// Package recorder captures a replayable log of editor and audio activity
// during a live walkthrough recording.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codewalk-dev/codewalk/internal/session"
)

// ErrAlreadyRecording is returned by Start when a session is live.
var ErrAlreadyRecording = errors.New("recording already in progress")

// ErrNotRecording is returned by operations that require a live session.
var ErrNotRecording = errors.New("no recording in progress")

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Capture is the audio capture device owned by the recorder for the duration
// of a session. Stopping does not synchronously yield the payload: the device
// flush may lag by up to about a second, so Stop blocks until the flush
// completes or ctx expires.
type Capture interface {
	Start(ctx context.Context) error
	Pause() error
	Resume() error
	Stop(ctx context.Context) (*session.AudioPayload, error)
}

// State is the recorder lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRecording
	StatePaused
	StateStopped
)

// Recorder assembles a Recording from buffer-change notifications and
// pause/resume/stop transitions. Buffer notifications may arrive from a
// watcher goroutine, so all state is mutex-guarded.
type Recorder struct {
	mu      sync.Mutex
	clock   Clock
	capture Capture

	state        State
	startedAt    time.Time
	pausedAt     time.Time
	pausedTotal  time.Duration
	current      string // latest buffer value observed
	lastRecorded string // value of the most recent CodeEvent
	rec          *session.Recording
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock replaces the wall clock, for tests.
func WithClock(c Clock) Option {
	return func(r *Recorder) { r.clock = c }
}

// New creates a Recorder that owns the given capture device.
func New(capture Capture, opts ...Option) *Recorder {
	r := &Recorder{clock: systemClock{}, capture: capture}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins a session: opens the capture device, seeds the event log with a
// synthetic snapshot of the initial buffer at timestamp 0 and starts the
// timeline. A capture failure is fatal to starting and leaves the recorder
// idle.
func (r *Recorder) Start(ctx context.Context, initialCode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateIdle {
		return ErrAlreadyRecording
	}
	if err := r.capture.Start(ctx); err != nil {
		return fmt.Errorf("starting audio capture: %w", err)
	}

	now := r.clock.Now()
	r.startedAt = now
	r.pausedTotal = 0
	r.current = initialCode
	r.lastRecorded = initialCode
	r.rec = &session.Recording{
		ID:          uuid.New().String(),
		RecordedAt:  now,
		InitialCode: initialCode,
		CodeEvents: []session.CodeEvent{
			{Timestamp: 0, Type: session.EventKeypress, Data: initialCode},
		},
		AudioEvents: []session.AudioEvent{
			{Timestamp: 0, Type: session.AudioStart},
		},
	}
	r.state = StateRecording
	return nil
}

// OnCodeChange records a full-buffer snapshot. Notifications equal to the most
// recently recorded value are dropped, so no-op editor events never produce
// redundant events. While paused the buffer is tracked but no event is
// written; Resume flushes it at the effective resume instant.
func (r *Recorder) OnCodeChange(value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case StateRecording:
		r.current = value
		r.flushLocked()
	case StatePaused:
		r.current = value
	}
}

// Pause flushes any pending edit, pauses the capture device and freezes the
// effective timeline.
func (r *Recorder) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRecording {
		return ErrNotRecording
	}
	r.flushLocked()
	r.rec.AudioEvents = append(r.rec.AudioEvents, session.AudioEvent{
		Timestamp: r.rawMillisLocked(),
		Type:      session.AudioPause,
	})
	r.pausedAt = r.clock.Now()
	r.state = StatePaused
	if err := r.capture.Pause(); err != nil {
		return fmt.Errorf("pausing audio capture: %w", err)
	}
	return nil
}

// Resume folds the elapsed pause into the paused-duration accumulator, flushes
// any edit made while paused at the effective resume instant and restarts the
// capture device.
func (r *Recorder) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StatePaused {
		return ErrNotRecording
	}
	r.pausedTotal += r.clock.Now().Sub(r.pausedAt)
	r.state = StateRecording
	r.flushLocked()
	r.rec.AudioEvents = append(r.rec.AudioEvents, session.AudioEvent{
		Timestamp: r.rawMillisLocked(),
		Type:      session.AudioResume,
	})
	if err := r.capture.Resume(); err != nil {
		return fmt.Errorf("resuming audio capture: %w", err)
	}
	return nil
}

// Stop finalizes the session. The capture device is always stopped and
// released; a flush failure or timeout yields the assembled recording without
// audio alongside the error, so the caller can keep the session.
func (r *Recorder) Stop(ctx context.Context) (*session.Recording, error) {
	r.mu.Lock()
	if r.state != StateRecording && r.state != StatePaused {
		r.mu.Unlock()
		return nil, ErrNotRecording
	}
	if r.state == StatePaused {
		r.pausedTotal += r.clock.Now().Sub(r.pausedAt)
		r.state = StateRecording
	}
	r.flushLocked()
	rec := r.rec
	rec.FinalCode = r.current
	rec.EndTime = r.effectiveMillisLocked()
	rec.AudioEvents = append(rec.AudioEvents, session.AudioEvent{
		Timestamp: r.rawMillisLocked(),
		Type:      session.AudioStop,
	})
	r.state = StateStopped
	r.rec = nil
	r.mu.Unlock()

	// The flush may take up to ~1s; run it outside the lock so buffer
	// notifications racing with stop are not blocked.
	payload, err := r.capture.Stop(ctx)
	if err != nil {
		return rec, fmt.Errorf("finalizing audio capture: %w", err)
	}
	rec.Audio = payload
	return rec, nil
}

// State returns the current lifecycle state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Elapsed returns the effective recorded duration so far, for UI display.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case StateRecording:
		return time.Duration(r.effectiveMillisLocked()) * time.Millisecond
	case StatePaused:
		return r.pausedAt.Sub(r.startedAt) - r.pausedTotal
	default:
		return 0
	}
}

// EventCount returns the number of code events recorded so far.
func (r *Recorder) EventCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rec == nil {
		return 0
	}
	return len(r.rec.CodeEvents)
}

// flushLocked appends a snapshot event when the buffer differs from the last
// recorded value. Caller holds the lock and has already settled pausedTotal.
func (r *Recorder) flushLocked() {
	if r.current == r.lastRecorded {
		return
	}
	r.rec.CodeEvents = append(r.rec.CodeEvents, session.CodeEvent{
		Timestamp: r.effectiveMillisLocked(),
		Type:      session.EventKeypress,
		Data:      r.current,
	})
	r.lastRecorded = r.current
}

// rawMillisLocked is wall-clock milliseconds since recording start.
func (r *Recorder) rawMillisLocked() int64 {
	ms := r.clock.Now().Sub(r.startedAt).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}

// effectiveMillisLocked is rawMillis with the paused total subtracted,
// clamped to zero so paused wall-clock time never enters the event timeline.
func (r *Recorder) effectiveMillisLocked() int64 {
	ms := (r.clock.Now().Sub(r.startedAt) - r.pausedTotal).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}
