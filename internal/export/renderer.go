package export

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/codewalk-dev/codewalk/internal/session"
	"github.com/codewalk-dev/codewalk/internal/timemap"
)

// Renderer serializes a recording to bytes for sharing outside the store.
type Renderer interface {
	Render(rec *session.Recording) ([]byte, error)
}

// JSONRenderer renders a recording in the session wire format. With
// InlineAudio set, audio stored in a sidecar file is embedded so the
// export is a single self-contained document.
type JSONRenderer struct {
	InlineAudio bool
}

func (r *JSONRenderer) Render(rec *session.Recording) ([]byte, error) {
	out := rec
	if r.InlineAudio && rec.HasAudio() {
		inline, err := rec.Audio.Inline()
		if err != nil {
			return nil, fmt.Errorf("inline audio: %w", err)
		}
		cp := *rec
		cp.Audio = inline
		out = &cp
	}
	return session.Encode(out)
}

// MarkdownRenderer renders a recording as human-readable Markdown with an
// embedded base64 JSON payload for lossless round-trip parsing.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(rec *session.Recording) ([]byte, error) {
	data, err := (&JSONRenderer{InlineAudio: true}).Render(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(data)

	mapper := timemap.New(rec.AudioEvents)

	var sb strings.Builder

	// Sentinel and embedded payload.
	sb.WriteString("<!-- codewalk-session-version: 1 -->\n")
	fmt.Fprintf(&sb, "<!-- codewalk-data: %s -->\n\n", encoded)

	fmt.Fprintf(&sb, "# Code Walkthrough — %s\n\n", rec.RecordedAt.Format("2006-01-02 15:04:05 MST"))

	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(&sb, "- Session: %s\n", rec.ID)
	fmt.Fprintf(&sb, "- Duration: %s\n", formatMillis(rec.Duration()))
	fmt.Fprintf(&sb, "- Snapshots: %d\n", len(rec.CodeEvents))
	if n := mapper.PauseCount(); n > 0 {
		fmt.Fprintf(&sb, "- Pauses: %d (%s paused)\n", n, formatMillis(mapper.TotalPaused()))
	}
	if rec.HasAudio() {
		sb.WriteString("- Audio: yes\n")
	} else {
		sb.WriteString("- Audio: no\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Starting Code\n\n")
	writeCodeBlock(&sb, rec.InitialCode)

	sb.WriteString("## Final Code\n\n")
	writeCodeBlock(&sb, rec.FinalCode)

	sb.WriteString("## Timeline\n\n")
	if len(rec.CodeEvents) == 0 {
		sb.WriteString("_No snapshots recorded._\n")
	} else {
		sb.WriteString("| Time | Event | Size |\n")
		sb.WriteString("|------|-------|------|\n")
		for _, ev := range rec.CodeEvents {
			fmt.Fprintf(&sb, "| %s | %s | %d bytes |\n",
				formatMillis(ev.Timestamp), ev.Type, len(ev.Data))
		}
	}
	sb.WriteString("\n")

	return []byte(sb.String()), nil
}

func writeCodeBlock(sb *strings.Builder, code string) {
	if code == "" {
		sb.WriteString("_Empty buffer._\n\n")
		return
	}
	sb.WriteString("```\n")
	sb.WriteString(code)
	if !strings.HasSuffix(code, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("```\n\n")
}

func formatMillis(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	if d < time.Second {
		return fmt.Sprintf("%dms", ms)
	}
	return d.Truncate(100 * time.Millisecond).String()
}
