package session

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// PayloadKind discriminates the audio payload union.
type PayloadKind int

const (
	// PayloadNone means the session carries no audio.
	PayloadNone PayloadKind = iota
	// PayloadInline means the bytes are held in memory (Data).
	PayloadInline
	// PayloadExternal means the bytes live behind a reference (URL), either a
	// local file path or a remote URL.
	PayloadExternal
)

// AudioPayload is the single normalized representation of a session's audio.
// Wire documents may carry the payload as a {data,type} object, a base64
// string or a URL reference; Decode resolves all of them into this union once,
// so downstream code never dispatches on serialized shapes.
type AudioPayload struct {
	Kind PayloadKind
	MIME string
	Data []byte // populated for PayloadInline
	URL  string // populated for PayloadExternal
}

// InlinePayload builds an in-memory payload. Empty data yields nil: a capture
// that produced zero chunks means the session simply has no audio.
func InlinePayload(mime string, data []byte) *AudioPayload {
	if len(data) == 0 {
		return nil
	}
	return &AudioPayload{Kind: PayloadInline, MIME: mime, Data: data}
}

// ExternalPayload builds a reference payload pointing at a file path or URL.
func ExternalPayload(mime, ref string) *AudioPayload {
	if ref == "" {
		return nil
	}
	return &AudioPayload{Kind: PayloadExternal, MIME: mime, URL: ref}
}

// Bytes materializes the payload. Inline payloads return their data directly;
// external payloads backed by a local file are read from disk. Remote URLs are
// not fetched here.
func (p *AudioPayload) Bytes() ([]byte, error) {
	switch p.Kind {
	case PayloadInline:
		return p.Data, nil
	case PayloadExternal:
		if isRemote(p.URL) {
			return nil, fmt.Errorf("audio payload is remote: %s", p.URL)
		}
		data, err := os.ReadFile(p.URL)
		if err != nil {
			return nil, fmt.Errorf("reading audio file: %w", err)
		}
		return data, nil
	default:
		return nil, nil
	}
}

// FilePath returns the local file backing an external payload, or "".
func (p *AudioPayload) FilePath() string {
	if p.Kind == PayloadExternal && !isRemote(p.URL) {
		return p.URL
	}
	return ""
}

func isRemote(ref string) bool {
	u, err := url.Parse(ref)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// extForMIME maps an audio MIME type to a sidecar file extension.
func extForMIME(mime string) string {
	switch {
	case strings.Contains(mime, "wav"):
		return ".wav"
	case strings.Contains(mime, "webm"):
		return ".webm"
	case strings.Contains(mime, "ogg"):
		return ".ogg"
	case strings.Contains(mime, "mpeg"), strings.Contains(mime, "mp3"):
		return ".mp3"
	default:
		return ".bin"
	}
}

// mimeForExt is the inverse of extForMIME, used when re-attaching sidecars.
func mimeForExt(ext string) string {
	switch ext {
	case ".wav":
		return "audio/wav"
	case ".webm":
		return "audio/webm"
	case ".ogg":
		return "audio/ogg"
	case ".mp3":
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}
