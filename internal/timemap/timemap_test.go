package timemap_test

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/codewalk-dev/codewalk/internal/session"
	"github.com/codewalk-dev/codewalk/internal/timemap"
)

func pairEvents(pairs [][2]int64) []session.AudioEvent {
	var events []session.AudioEvent
	for _, p := range pairs {
		events = append(events,
			session.AudioEvent{Timestamp: p[0], Type: session.AudioPause},
			session.AudioEvent{Timestamp: p[1], Type: session.AudioResume},
		)
	}
	return events
}

func TestNoPausesIsIdentity(t *testing.T) {
	m := timemap.New(nil)
	for _, v := range []int64{0, 1, 500, 123456} {
		if got := m.AudioToEffective(v); got != v {
			t.Errorf("AudioToEffective(%d) = %d, want %d", v, got, v)
		}
		if got := m.EffectiveToAudio(v); got != v {
			t.Errorf("EffectiveToAudio(%d) = %d, want %d", v, got, v)
		}
	}
}

func TestSinglePauseMapping(t *testing.T) {
	m := timemap.New(pairEvents([][2]int64{{200, 700}}))

	cases := []struct {
		raw, effective int64
	}{
		{0, 0},
		{199, 199},
		{200, 200}, // pause boundary
		{450, 200}, // inside the pause, effective time stalls
		{700, 200}, // resume instant, the 500ms pause is excluded
		{900, 400},
		{1200, 700},
	}
	for _, c := range cases {
		if got := m.AudioToEffective(c.raw); got != c.effective {
			t.Errorf("AudioToEffective(%d) = %d, want %d", c.raw, got, c.effective)
		}
	}

	// Inverse direction for effective times outside the collapsed interval.
	inverse := []struct {
		effective, raw int64
	}{
		{0, 0},
		{199, 199},
		{200, 200}, // boundary maps to the pause start
		{201, 701},
		{400, 900},
	}
	for _, c := range inverse {
		if got := m.EffectiveToAudio(c.effective); got != c.raw {
			t.Errorf("EffectiveToAudio(%d) = %d, want %d", c.effective, got, c.raw)
		}
	}
}

func TestMultiplePauses(t *testing.T) {
	m := timemap.New(pairEvents([][2]int64{{100, 300}, {500, 600}}))

	if got := m.AudioToEffective(450); got != 250 {
		t.Errorf("AudioToEffective(450) = %d, want 250", got)
	}
	if got := m.AudioToEffective(800); got != 500 {
		t.Errorf("AudioToEffective(800) = %d, want 500", got)
	}
	if got := m.EffectiveToAudio(500); got != 800 {
		t.Errorf("EffectiveToAudio(500) = %d, want 800", got)
	}
	if got := m.TotalPaused(); got != 300 {
		t.Errorf("TotalPaused() = %d, want 300", got)
	}
}

func TestTrailingOpenPause(t *testing.T) {
	m := timemap.New([]session.AudioEvent{
		{Timestamp: 400, Type: session.AudioPause},
	})

	// Effective time is capped at the pause boundary.
	for _, raw := range []int64{400, 500, 10000} {
		if got := m.AudioToEffective(raw); got != 400 {
			t.Errorf("AudioToEffective(%d) = %d, want 400", raw, got)
		}
	}
	if !m.PausedAt(999) {
		t.Error("PausedAt(999) = false, want true inside open pause")
	}
	if m.PauseCount() != 1 {
		t.Errorf("PauseCount() = %d, want 1", m.PauseCount())
	}
}

func TestStrayResumeIgnored(t *testing.T) {
	m := timemap.New([]session.AudioEvent{
		{Timestamp: 50, Type: session.AudioResume},
		{Timestamp: 100, Type: session.AudioPause},
		{Timestamp: 200, Type: session.AudioResume},
	})
	if m.PauseCount() != 1 {
		t.Errorf("PauseCount() = %d, want 1", m.PauseCount())
	}
	if got := m.AudioToEffective(300); got != 200 {
		t.Errorf("AudioToEffective(300) = %d, want 200", got)
	}
}

func TestUnsortedEventsAreSorted(t *testing.T) {
	m := timemap.New([]session.AudioEvent{
		{Timestamp: 700, Type: session.AudioResume},
		{Timestamp: 200, Type: session.AudioPause},
	})
	if got := m.AudioToEffective(900); got != 400 {
		t.Errorf("AudioToEffective(900) = %d, want 400", got)
	}
}

// generateSchedule produces a valid alternating pause/resume schedule of
// closed pairs and returns the mapper plus the raw end of the timeline.
func generateSchedule(t *rapid.T) (*timemap.Mapper, int64, int64) {
	n := rapid.IntRange(0, 6).Draw(t, "pairs")
	var (
		events []session.AudioEvent
		cursor int64
		paused int64
	)
	for i := 0; i < n; i++ {
		gap := rapid.Int64Range(1, 1000).Draw(t, "gap")
		dur := rapid.Int64Range(1, 1000).Draw(t, "dur")
		start := cursor + gap
		end := start + dur
		events = append(events,
			session.AudioEvent{Timestamp: start, Type: session.AudioPause},
			session.AudioEvent{Timestamp: end, Type: session.AudioResume},
		)
		cursor = end
		paused += dur
	}
	tail := rapid.Int64Range(1, 1000).Draw(t, "tail")
	rawEnd := cursor + tail
	return timemap.New(events), rawEnd, paused
}

func TestInverseLaw(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m, rawEnd, _ := generateSchedule(t)
		effEnd := m.AudioToEffective(rawEnd)

		e := rapid.Int64Range(0, effEnd).Draw(t, "effective")
		raw := m.EffectiveToAudio(e)
		if back := m.AudioToEffective(raw); back != e {
			t.Fatalf("AudioToEffective(EffectiveToAudio(%d)) = %d via raw %d", e, back, raw)
		}
	})
}

func TestPauseExclusion(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m, rawEnd, paused := generateSchedule(t)
		if got, want := m.AudioToEffective(rawEnd), rawEnd-paused; got != want {
			t.Fatalf("AudioToEffective(%d) = %d, want %d (total paused %d)", rawEnd, got, want, paused)
		}
		if got := m.TotalPaused(); got != paused {
			t.Fatalf("TotalPaused() = %d, want %d", got, paused)
		}
	})
}

func TestMappingIsMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m, rawEnd, _ := generateSchedule(t)
		t1 := rapid.Int64Range(0, rawEnd).Draw(t, "t1")
		t2 := rapid.Int64Range(t1, rawEnd).Draw(t, "t2")
		if m.AudioToEffective(t1) > m.AudioToEffective(t2) {
			t.Fatalf("AudioToEffective not monotonic: f(%d) > f(%d)", t1, t2)
		}
	})
}
