package session_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/codewalk-dev/codewalk/internal/session"
)

// The wire format accepts three audio representations produced by different
// exporters: a {data,type} object with a numeric byte array, a bare base64
// string, and an external URL reference. All three normalize to the same
// AudioPayload at decode time.

func TestDecodeAudioBlobObjectForm(t *testing.T) {
	doc := `{
		"id": "s1",
		"end_time": 500,
		"initial_code": "a",
		"final_code": "ab",
		"code_events": [
			{"timestamp": 0, "type": "keypress", "data": "a"},
			{"timestamp": 500, "type": "keypress", "data": "ab"}
		],
		"audio_events": [],
		"audio_blob": {"data": [72, 105, 33], "type": "audio/ogg"}
	}`
	rec, err := session.Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !rec.HasAudio() || rec.Audio.Kind != session.PayloadInline {
		t.Fatalf("audio = %+v, want inline payload", rec.Audio)
	}
	if rec.Audio.MIME != "audio/ogg" {
		t.Errorf("MIME = %q, want audio/ogg", rec.Audio.MIME)
	}
	if !bytes.Equal(rec.Audio.Data, []byte("Hi!")) {
		t.Errorf("Data = %v, want %v", rec.Audio.Data, []byte("Hi!"))
	}
}

func TestDecodeAudioBlobBase64String(t *testing.T) {
	doc := `{
		"id": "s2",
		"end_time": 0,
		"code_events": [{"timestamp": 0, "type": "keypress", "data": ""}],
		"audio_events": [],
		"audio_blob": "SGkh"
	}`
	rec, err := session.Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(rec.Audio.Data, []byte("Hi!")) {
		t.Errorf("Data = %v, want %v", rec.Audio.Data, []byte("Hi!"))
	}
	// No audio_type anywhere falls back to the recorder default.
	if rec.Audio.MIME != "audio/webm" {
		t.Errorf("MIME = %q, want audio/webm", rec.Audio.MIME)
	}
}

func TestDecodeAudioURLReference(t *testing.T) {
	doc := `{
		"id": "s3",
		"end_time": 0,
		"code_events": [],
		"audio_events": [],
		"audio_url": "https://cdn.example.com/walk.mp3"
	}`
	rec, err := session.Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.Audio == nil || rec.Audio.Kind != session.PayloadExternal {
		t.Fatalf("audio = %+v, want external payload", rec.Audio)
	}
	if rec.Audio.URL != "https://cdn.example.com/walk.mp3" {
		t.Errorf("URL = %q", rec.Audio.URL)
	}
	// MIME inferred from the reference extension.
	if rec.Audio.MIME != "audio/mpeg" {
		t.Errorf("MIME = %q, want audio/mpeg", rec.Audio.MIME)
	}
}

func TestDecodeBlobWinsOverURL(t *testing.T) {
	doc := `{
		"id": "s4",
		"end_time": 0,
		"code_events": [],
		"audio_events": [],
		"audio_blob": "SGkh",
		"audio_url": "https://cdn.example.com/walk.webm"
	}`
	rec, err := session.Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.Audio.Kind != session.PayloadInline {
		t.Errorf("kind = %v, want inline when both forms are present", rec.Audio.Kind)
	}
}

func TestDecodeRejectsBadBlobs(t *testing.T) {
	cases := []struct {
		name string
		blob string
	}{
		{"byte out of range", `{"data": [0, 300], "type": "audio/webm"}`},
		{"corrupted base64", `"!!!not-base64!!!"`},
		{"non-numeric array", `{"data": ["x"], "type": "audio/webm"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := `{"id": "bad", "code_events": [], "audio_events": [], "audio_blob": ` + tc.blob + `}`
			if _, err := session.Decode([]byte(doc)); err == nil {
				t.Error("expected decode error, got nil")
			}
		})
	}
}

func TestDecodeSortsEventLogs(t *testing.T) {
	doc := `{
		"id": "s5",
		"end_time": 900,
		"code_events": [
			{"timestamp": 900, "type": "keypress", "data": "late"},
			{"timestamp": 100, "type": "keypress", "data": "early"}
		],
		"audio_events": [
			{"timestamp": 700, "type": "resume"},
			{"timestamp": 200, "type": "pause"}
		]
	}`
	rec, err := session.Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.CodeEvents[0].Data != "early" {
		t.Errorf("code events not sorted: %+v", rec.CodeEvents)
	}
	if rec.AudioEvents[0].Type != session.AudioPause {
		t.Errorf("audio events not sorted: %+v", rec.AudioEvents)
	}
}

func TestEncodeInlineAudioAsBase64Blob(t *testing.T) {
	rec := &session.Recording{
		ID:         "s6",
		EndTime:    100,
		CodeEvents: []session.CodeEvent{{Timestamp: 0, Type: session.EventKeypress, Data: "x"}},
		Audio:      session.InlinePayload("audio/webm", []byte("Hi!")),
	}
	data, err := session.Encode(rec)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(data), `"audio_blob": "SGkh"`) {
		t.Errorf("encoded document missing base64 blob:\n%s", data)
	}
	if !strings.Contains(string(data), `"audio_type": "audio/webm"`) {
		t.Errorf("encoded document missing audio_type:\n%s", data)
	}
}

func TestDurationFallsBackToLastEvent(t *testing.T) {
	rec := &session.Recording{
		CodeEvents: []session.CodeEvent{
			{Timestamp: 0, Type: session.EventKeypress, Data: "a"},
			{Timestamp: 1200, Type: session.EventKeypress, Data: "ab"},
		},
	}
	if got := rec.Duration(); got != 1200 {
		t.Errorf("Duration = %d, want 1200", got)
	}
	rec.EndTime = 1500
	if got := rec.Duration(); got != 1500 {
		t.Errorf("Duration = %d, want 1500", got)
	}
}
