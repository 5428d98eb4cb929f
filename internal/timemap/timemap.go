// Package timemap converts between the raw time reported by an audio
// transport and the effective recording time that code events are stamped in.
//
// Raw time counts every wall-clock millisecond since recording start. Effective
// time excludes the intervals between a pause event and its matching resume,
// so a session with no pauses has identical raw and effective timelines. Both
// directions are needed: playback maps transport positions to effective time
// for event lookup, and seeking maps effective targets back to transport
// positions.
package timemap

import (
	"sort"

	"github.com/codewalk-dev/codewalk/internal/session"
)

// span is one paused interval in raw milliseconds. end < 0 marks a trailing
// pause that was never resumed.
type span struct {
	start, end int64
}

// Mapper performs the bidirectional raw/effective conversion for one session's
// audio-event log. It is immutable after construction and safe for concurrent
// use.
type Mapper struct {
	pauses []span
}

// New builds a Mapper from an audio-event log. Events are re-sorted, a resume
// without an open pause is ignored, and a trailing unmatched pause is kept
// open, capping effective time at the pause boundary.
func New(events []session.AudioEvent) *Mapper {
	sorted := make([]session.AudioEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	m := &Mapper{}
	open := int64(-1)
	for _, ev := range sorted {
		switch ev.Type {
		case session.AudioPause:
			if open < 0 {
				open = ev.Timestamp
			}
		case session.AudioResume:
			if open >= 0 {
				m.pauses = append(m.pauses, span{start: open, end: ev.Timestamp})
				open = -1
			}
		}
	}
	if open >= 0 {
		m.pauses = append(m.pauses, span{start: open, end: -1})
	}
	return m
}

// AudioToEffective maps a raw transport position to effective time by
// subtracting every paused interval that precedes it. Positions inside a
// paused interval map to the pause boundary.
func (m *Mapper) AudioToEffective(t int64) int64 {
	var paused int64
	for _, p := range m.pauses {
		if p.start > t {
			break
		}
		if p.end >= 0 && p.end <= t {
			paused += p.end - p.start
			continue
		}
		// t falls inside this pause (or the pause never resumed).
		paused += t - p.start
		break
	}
	return t - paused
}

// EffectiveToAudio maps an effective time back to a raw transport position by
// re-adding every paused interval whose effective position precedes e. It is
// the inverse of AudioToEffective for all raw positions outside paused
// intervals.
func (m *Mapper) EffectiveToAudio(e int64) int64 {
	var added int64
	for _, p := range m.pauses {
		eff := p.start - added
		if eff >= e {
			break
		}
		if p.end < 0 {
			// Effective time cannot progress past an open trailing pause.
			break
		}
		added += p.end - p.start
	}
	return e + added
}

// PausedAt reports whether a raw position falls inside a paused interval.
func (m *Mapper) PausedAt(t int64) bool {
	for _, p := range m.pauses {
		if t < p.start {
			return false
		}
		if p.end < 0 || t < p.end {
			return true
		}
	}
	return false
}

// PauseCount returns the number of paused intervals, including a trailing
// open one.
func (m *Mapper) PauseCount() int {
	return len(m.pauses)
}

// TotalPaused returns the summed duration of all closed paused intervals.
func (m *Mapper) TotalPaused() int64 {
	var total int64
	for _, p := range m.pauses {
		if p.end >= 0 {
			total += p.end - p.start
		}
	}
	return total
}
