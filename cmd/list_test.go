package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/codewalk-dev/codewalk/internal/session"
)

func seedStore(t *testing.T, storeDir, id string) *session.Recording {
	t.Helper()
	store, err := session.NewStoreAt(storeDir)
	if err != nil {
		t.Fatal(err)
	}
	rec := &session.Recording{
		ID:          id,
		RecordedAt:  time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC),
		EndTime:     65_000,
		InitialCode: "a",
		FinalCode:   "abc",
		CodeEvents: []session.CodeEvent{
			{Timestamp: 0, Type: session.EventKeypress, Data: "a"},
			{Timestamp: 30_000, Type: session.EventKeypress, Data: "ab"},
			{Timestamp: 65_000, Type: session.EventKeypress, Data: "abc"},
		},
	}
	if err := store.Save(rec); err != nil {
		t.Fatal(err)
	}
	return rec
}

func TestListEmptyStore(t *testing.T) {
	isolateEnv(t)
	out, err := executeCommand(rootCmd, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "No sessions recorded yet") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestListShowsSessions(t *testing.T) {
	storeDir := isolateEnv(t)
	seedStore(t, storeDir, "walk-list")

	out, err := executeCommand(rootCmd, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "walk-list") {
		t.Errorf("output missing session id: %s", out)
	}
	if !strings.Contains(out, "1:05") {
		t.Errorf("output missing duration: %s", out)
	}
	if !strings.Contains(out, "3") {
		t.Errorf("output missing snapshot count: %s", out)
	}
}

func TestShowSummary(t *testing.T) {
	storeDir := isolateEnv(t)
	seedStore(t, storeDir, "walk-show")

	out, err := executeCommand(rootCmd, "show", "walk-show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"walk-show", "Duration:  1:05", "Snapshots: 3", "## Final Code", "abc"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestShowMissingSession(t *testing.T) {
	isolateEnv(t)
	_, err := executeCommand(rootCmd, "show", "nope")
	if err == nil {
		t.Fatal("expected error for unknown session")
	}
}
