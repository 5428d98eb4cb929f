package recorder_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/codewalk-dev/codewalk/internal/recorder"
	"github.com/codewalk-dev/codewalk/internal/session"
)

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// scriptedCapture records every device call and returns a fixed payload.
type scriptedCapture struct {
	calls   []string
	payload *session.AudioPayload
	stopErr error
}

func (s *scriptedCapture) Start(context.Context) error {
	s.calls = append(s.calls, "start")
	return nil
}
func (s *scriptedCapture) Pause() error  { s.calls = append(s.calls, "pause"); return nil }
func (s *scriptedCapture) Resume() error { s.calls = append(s.calls, "resume"); return nil }
func (s *scriptedCapture) Stop(context.Context) (*session.AudioPayload, error) {
	s.calls = append(s.calls, "stop")
	return s.payload, s.stopErr
}

func newRecorder(t *testing.T) (*recorder.Recorder, *fakeClock, *scriptedCapture) {
	t.Helper()
	clock := newFakeClock()
	cap := &scriptedCapture{payload: session.InlinePayload("audio/wav", []byte("RIFFdata"))}
	return recorder.New(cap, recorder.WithClock(clock)), clock, cap
}

func TestStartSeedsInitialSnapshot(t *testing.T) {
	r, _, _ := newRecorder(t)
	if err := r.Start(context.Background(), "package main\n"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	rec, err := r.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if rec.InitialCode != "package main\n" {
		t.Errorf("InitialCode = %q", rec.InitialCode)
	}
	if len(rec.CodeEvents) != 1 {
		t.Fatalf("CodeEvents = %d, want 1", len(rec.CodeEvents))
	}
	ev := rec.CodeEvents[0]
	if ev.Timestamp != 0 || ev.Type != session.EventKeypress || ev.Data != "package main\n" {
		t.Errorf("seed event = %+v", ev)
	}
	if rec.ID == "" {
		t.Error("recording has no id")
	}
	if rec.AudioEvents[0].Type != session.AudioStart {
		t.Errorf("first audio event = %+v", rec.AudioEvents[0])
	}
}

func TestDuplicateChangesAreDropped(t *testing.T) {
	r, clock, _ := newRecorder(t)
	if err := r.Start(context.Background(), "a"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	clock.Advance(100 * time.Millisecond)
	r.OnCodeChange("ab")
	r.OnCodeChange("ab") // no-op editor event
	clock.Advance(100 * time.Millisecond)
	r.OnCodeChange("ab")
	r.OnCodeChange("abc")

	rec, err := r.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if len(rec.CodeEvents) != 3 {
		t.Fatalf("CodeEvents = %d, want 3 (seed + 2 changes)", len(rec.CodeEvents))
	}
	if rec.CodeEvents[1].Timestamp != 100 || rec.CodeEvents[1].Data != "ab" {
		t.Errorf("event 1 = %+v", rec.CodeEvents[1])
	}
	if rec.CodeEvents[2].Timestamp != 200 || rec.CodeEvents[2].Data != "abc" {
		t.Errorf("event 2 = %+v", rec.CodeEvents[2])
	}
}

func TestPausedTimeIsExcluded(t *testing.T) {
	r, clock, cap := newRecorder(t)
	if err := r.Start(context.Background(), "a"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	clock.Advance(200 * time.Millisecond)
	if err := r.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	clock.Advance(500 * time.Millisecond) // paused wall time
	if err := r.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	clock.Advance(200 * time.Millisecond)
	r.OnCodeChange("ab")

	rec, err := r.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}

	// The change landed at raw 900ms but effective 400ms.
	last := rec.CodeEvents[len(rec.CodeEvents)-1]
	if last.Timestamp != 400 {
		t.Errorf("change timestamp = %d, want 400", last.Timestamp)
	}
	if rec.EndTime != 400 {
		t.Errorf("EndTime = %d, want 400", rec.EndTime)
	}

	// Audio events carry raw timestamps.
	var pauseAt, resumeAt int64 = -1, -1
	for _, ev := range rec.AudioEvents {
		switch ev.Type {
		case session.AudioPause:
			pauseAt = ev.Timestamp
		case session.AudioResume:
			resumeAt = ev.Timestamp
		}
	}
	if pauseAt != 200 || resumeAt != 700 {
		t.Errorf("pause/resume raw timestamps = %d/%d, want 200/700", pauseAt, resumeAt)
	}

	wantCalls := []string{"start", "pause", "resume", "stop"}
	if len(cap.calls) != len(wantCalls) {
		t.Fatalf("capture calls = %v, want %v", cap.calls, wantCalls)
	}
	for i, c := range wantCalls {
		if cap.calls[i] != c {
			t.Fatalf("capture calls = %v, want %v", cap.calls, wantCalls)
		}
	}
}

func TestEditsDuringPauseFlushAtResume(t *testing.T) {
	r, clock, _ := newRecorder(t)
	if err := r.Start(context.Background(), "a"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	clock.Advance(300 * time.Millisecond)
	if err := r.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	clock.Advance(1 * time.Second)
	r.OnCodeChange("edited while paused") // tracked, not yet recorded
	if r.EventCount() != 1 {
		t.Errorf("EventCount during pause = %d, want 1", r.EventCount())
	}
	clock.Advance(1 * time.Second)
	if err := r.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}

	rec, err := r.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if len(rec.CodeEvents) != 2 {
		t.Fatalf("CodeEvents = %d, want 2", len(rec.CodeEvents))
	}
	// Flushed at the effective resume instant: 300ms, not 2300ms.
	ev := rec.CodeEvents[1]
	if ev.Timestamp != 300 || ev.Data != "edited while paused" {
		t.Errorf("flushed event = %+v", ev)
	}
}

func TestStopAssemblesSession(t *testing.T) {
	r, clock, _ := newRecorder(t)
	if err := r.Start(context.Background(), "a"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	clock.Advance(time.Second)
	r.OnCodeChange("ab")

	rec, err := r.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if rec.FinalCode != "ab" {
		t.Errorf("FinalCode = %q, want \"ab\"", rec.FinalCode)
	}
	if rec.EndTime != 1000 {
		t.Errorf("EndTime = %d, want 1000", rec.EndTime)
	}
	if !rec.HasAudio() {
		t.Error("expected audio payload")
	}
	if rec.AudioEvents[len(rec.AudioEvents)-1].Type != session.AudioStop {
		t.Error("missing trailing audio stop event")
	}
	if r.State() != recorder.StateStopped {
		t.Errorf("State = %v, want StateStopped", r.State())
	}
}

func TestStopFlushFailureKeepsSession(t *testing.T) {
	clock := newFakeClock()
	cap := &scriptedCapture{stopErr: errors.New("flush timed out")}
	r := recorder.New(cap, recorder.WithClock(clock))
	if err := r.Start(context.Background(), "a"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	rec, err := r.Stop(context.Background())
	if err == nil {
		t.Fatal("expected flush error")
	}
	if rec == nil {
		t.Fatal("recording must still be assembled on flush failure")
	}
	if rec.HasAudio() {
		t.Error("recording should have no audio after flush failure")
	}
}

func TestLifecycleErrors(t *testing.T) {
	r, _, _ := newRecorder(t)
	ctx := context.Background()

	if err := r.Pause(); !errors.Is(err, recorder.ErrNotRecording) {
		t.Errorf("Pause before start = %v", err)
	}
	if _, err := r.Stop(ctx); !errors.Is(err, recorder.ErrNotRecording) {
		t.Errorf("Stop before start = %v", err)
	}

	if err := r.Start(ctx, ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Start(ctx, ""); !errors.Is(err, recorder.ErrAlreadyRecording) {
		t.Errorf("second Start = %v", err)
	}
	if err := r.Resume(); !errors.Is(err, recorder.ErrNotRecording) {
		t.Errorf("Resume while recording = %v", err)
	}

	// Changes after stop are ignored.
	if _, err := r.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	r.OnCodeChange("late")
}

func TestTimestampsAreMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		clock := newFakeClock()
		cap := &scriptedCapture{}
		r := recorder.New(cap, recorder.WithClock(clock))
		if err := r.Start(context.Background(), "seed"); err != nil {
			t.Fatalf("Start: %v", err)
		}

		paused := false
		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			clock.Advance(time.Duration(rapid.Int64Range(0, 500).Draw(t, "advance")) * time.Millisecond)
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				r.OnCodeChange(rapid.StringN(0, 20, -1).Draw(t, "value"))
			case 1:
				if !paused {
					if err := r.Pause(); err != nil {
						t.Fatalf("Pause: %v", err)
					}
					paused = true
				}
			case 2:
				if paused {
					if err := r.Resume(); err != nil {
						t.Fatalf("Resume: %v", err)
					}
					paused = false
				}
			}
		}

		rec, err := r.Stop(context.Background())
		if err != nil {
			t.Fatalf("Stop: %v", err)
		}

		var prev int64
		for i, ev := range rec.CodeEvents {
			if ev.Timestamp < prev {
				t.Fatalf("code event %d timestamp %d < previous %d", i, ev.Timestamp, prev)
			}
			prev = ev.Timestamp
		}
		if prev > rec.EndTime {
			t.Fatalf("last event %d past EndTime %d", prev, rec.EndTime)
		}
		prev = 0
		for i, ev := range rec.AudioEvents {
			if ev.Timestamp < prev {
				t.Fatalf("audio event %d timestamp %d < previous %d", i, ev.Timestamp, prev)
			}
			prev = ev.Timestamp
		}
	})
}
