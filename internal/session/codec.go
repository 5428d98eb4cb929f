package session

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"
)

// wireRecording is the JSON document shape. The audio payload travels either
// as audio_blob (a base64 string or a {data,type} object with a numeric byte
// array, as produced by browser exporters) or as an audio_url reference.
type wireRecording struct {
	ID          string          `json:"id"`
	RecordedAt  time.Time       `json:"recorded_at"`
	StartTime   int64           `json:"start_time"`
	EndTime     int64           `json:"end_time"`
	InitialCode string          `json:"initial_code"`
	FinalCode   string          `json:"final_code"`
	CodeEvents  []CodeEvent     `json:"code_events"`
	AudioEvents []AudioEvent    `json:"audio_events"`
	AudioBlob   json.RawMessage `json:"audio_blob,omitempty"`
	AudioType   string          `json:"audio_type,omitempty"`
	AudioURL    string          `json:"audio_url,omitempty"`
}

// wireBlob is the object form of an inline payload.
type wireBlob struct {
	Data json.RawMessage `json:"data"`
	Type string          `json:"type"`
}

// Encode serializes a recording to its JSON document. Inline payloads are
// written as a base64 audio_blob string, external payloads as audio_url.
func Encode(r *Recording) ([]byte, error) {
	w := wireRecording{
		ID:          r.ID,
		RecordedAt:  r.RecordedAt,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		InitialCode: r.InitialCode,
		FinalCode:   r.FinalCode,
		CodeEvents:  r.CodeEvents,
		AudioEvents: r.AudioEvents,
	}
	if r.Audio != nil {
		w.AudioType = r.Audio.MIME
		switch r.Audio.Kind {
		case PayloadInline:
			encoded, err := json.Marshal(base64.StdEncoding.EncodeToString(r.Audio.Data))
			if err != nil {
				return nil, fmt.Errorf("encoding audio payload: %w", err)
			}
			w.AudioBlob = encoded
		case PayloadExternal:
			w.AudioURL = r.Audio.URL
		}
	}
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding session: %w", err)
	}
	return data, nil
}

// Decode parses a session JSON document, resolving whichever audio
// representation it carries into the normalized AudioPayload and defensively
// re-sorting both event logs. When both blob and URL are present the blob
// wins, since it is self-contained.
func Decode(data []byte) (*Recording, error) {
	var w wireRecording
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}

	r := &Recording{
		ID:          w.ID,
		RecordedAt:  w.RecordedAt,
		StartTime:   w.StartTime,
		EndTime:     w.EndTime,
		InitialCode: w.InitialCode,
		FinalCode:   w.FinalCode,
		CodeEvents:  w.CodeEvents,
		AudioEvents: w.AudioEvents,
	}

	switch {
	case len(w.AudioBlob) > 0:
		mime, raw, err := decodeBlob(w.AudioBlob, w.AudioType)
		if err != nil {
			return nil, err
		}
		r.Audio = InlinePayload(mime, raw)
	case w.AudioURL != "":
		mime := w.AudioType
		if mime == "" {
			mime = mimeForExt(filepath.Ext(w.AudioURL))
		}
		r.Audio = ExternalPayload(mime, w.AudioURL)
	}

	r.SortEvents()
	return r, nil
}

// decodeBlob handles both inline forms: a base64 JSON string, or a
// {data,type} object whose data is a numeric byte array or a base64 string.
func decodeBlob(blob json.RawMessage, fallbackMIME string) (string, []byte, error) {
	blob = bytes.TrimSpace(blob)
	mime := fallbackMIME

	if len(blob) > 0 && blob[0] == '{' {
		var obj wireBlob
		if err := json.Unmarshal(blob, &obj); err != nil {
			return "", nil, fmt.Errorf("parsing audio blob: %w", err)
		}
		if obj.Type != "" {
			mime = obj.Type
		}
		raw, err := decodeBlobData(obj.Data)
		if err != nil {
			return "", nil, err
		}
		return defaultMIME(mime), raw, nil
	}

	raw, err := decodeBlobData(blob)
	if err != nil {
		return "", nil, err
	}
	return defaultMIME(mime), raw, nil
}

func decodeBlobData(data json.RawMessage) ([]byte, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	if data[0] == '[' {
		var nums []int
		if err := json.Unmarshal(data, &nums); err != nil {
			return nil, fmt.Errorf("parsing audio byte array: %w", err)
		}
		raw := make([]byte, len(nums))
		for i, n := range nums {
			if n < 0 || n > 255 {
				return nil, fmt.Errorf("audio byte array value out of range: %d", n)
			}
			raw[i] = byte(n)
		}
		return raw, nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing audio blob string: %w", err)
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("corrupted base64 audio payload: %w", err)
	}
	return raw, nil
}

func defaultMIME(mime string) string {
	if mime == "" {
		return "audio/webm"
	}
	return mime
}

// Inline returns an in-memory copy of the payload, reading local external
// references from disk. Inline payloads are returned as-is.
func (p *AudioPayload) Inline() (*AudioPayload, error) {
	if p == nil || p.Kind != PayloadExternal {
		return p, nil
	}
	data, err := p.Bytes()
	if err != nil {
		return nil, err
	}
	return InlinePayload(p.MIME, data), nil
}
