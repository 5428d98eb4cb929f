package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/codewalk-dev/codewalk/internal/export"
	"github.com/codewalk-dev/codewalk/internal/session"
)

// splitCommand breaks a configured command line into argv form.
func splitCommand(s string) []string {
	return strings.Fields(s)
}

// loadRecording resolves a session argument: a path to a .json/.md export
// when such a file exists, otherwise an id in the store.
func loadRecording(arg string) (*session.Recording, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, err
		}
		return export.ParserFor(data).Parse(data)
	}

	store, err := sessionStore()
	if err != nil {
		return nil, err
	}
	rec, err := store.Load(arg)
	if err != nil {
		return nil, fmt.Errorf("loading session %q: %w", arg, err)
	}
	return rec, nil
}

// formatDuration renders milliseconds as m:ss.
func formatDuration(ms int64) string {
	secs := ms / 1000
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
