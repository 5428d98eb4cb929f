// Package session defines the walkthrough recording model and its disk store.
package session

import (
	"sort"
	"time"
)

// CodeEventType classifies a code event. Playback only interprets keypress
// events, which carry full-buffer snapshots; the other kinds are recorded for
// completeness.
type CodeEventType string

const (
	EventKeypress CodeEventType = "keypress"
	EventDelete   CodeEventType = "delete"
	EventPaste    CodeEventType = "paste"
)

// AudioEventType classifies an audio lifecycle event.
type AudioEventType string

const (
	AudioStart  AudioEventType = "start"
	AudioStop   AudioEventType = "stop"
	AudioPause  AudioEventType = "pause"
	AudioResume AudioEventType = "resume"
)

// CodeEvent is one entry in the replayable editor log. Data holds the complete
// buffer at this instant, not a delta, so replay never depends on earlier
// events being applied.
type CodeEvent struct {
	// Timestamp is in effective milliseconds since recording start, i.e. with
	// paused intervals already subtracted.
	Timestamp int64         `json:"timestamp"`
	Type      CodeEventType `json:"type"`
	Data      string        `json:"data"`
}

// AudioEvent marks a transition of the audio capture device.
type AudioEvent struct {
	// Timestamp is in raw milliseconds since recording start; no pause
	// accounting is applied. The timemap package converts between this space
	// and the effective space CodeEvents live in.
	Timestamp int64          `json:"timestamp"`
	Type      AudioEventType `json:"type"`
}

// Recording is one complete walkthrough: the event logs, the buffer bounds and
// the captured narration audio. It is mutated only by the recorder while a
// session is live and is immutable afterwards.
type Recording struct {
	ID          string       `json:"id"`
	RecordedAt  time.Time    `json:"recorded_at"`
	StartTime   int64        `json:"start_time"`
	EndTime     int64        `json:"end_time"` // last effective timestamp observed at stop
	InitialCode string       `json:"initial_code"`
	FinalCode   string       `json:"final_code"`
	CodeEvents  []CodeEvent  `json:"code_events"`
	AudioEvents []AudioEvent `json:"audio_events"`

	// Audio is the normalized narration payload, nil when the session has no
	// audio. It never travels through plain struct marshalling; Encode and
	// Decode translate it to and from the wire forms.
	Audio *AudioPayload `json:"-"`
}

// Duration returns the total effective duration in milliseconds. A recording
// whose EndTime was never set falls back to the latest code-event timestamp.
func (r *Recording) Duration() int64 {
	d := r.EndTime - r.StartTime
	for _, ev := range r.CodeEvents {
		if ev.Timestamp > d {
			d = ev.Timestamp
		}
	}
	if d < 0 {
		return 0
	}
	return d
}

// HasAudio reports whether a narration payload is attached.
func (r *Recording) HasAudio() bool {
	return r.Audio != nil && r.Audio.Kind != PayloadNone
}

// SortEvents orders both event logs by timestamp. The recorder appends in
// order already; this is the defensive re-sort applied at decode boundaries.
func (r *Recording) SortEvents() {
	sort.SliceStable(r.CodeEvents, func(i, j int) bool {
		return r.CodeEvents[i].Timestamp < r.CodeEvents[j].Timestamp
	})
	sort.SliceStable(r.AudioEvents, func(i, j int) bool {
		return r.AudioEvents[i].Timestamp < r.AudioEvents[j].Timestamp
	})
}

// Meta is the summary row a store returns when listing recordings.
type Meta struct {
	ID         string    `json:"id"`
	RecordedAt time.Time `json:"recorded_at"`
	DurationMS int64     `json:"duration_ms"`
	CodeEvents int       `json:"code_events"`
	HasAudio   bool      `json:"has_audio"`
}
