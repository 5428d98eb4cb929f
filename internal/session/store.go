package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound is returned by Load and Delete when no recording has the id.
var ErrNotFound = errors.New("recording not found")

// ErrExists is returned by Save when a recording with the id already exists.
var ErrExists = errors.New("recording already exists")

// Store persists finished recordings.
type Store interface {
	Save(r *Recording) error
	Load(id string) (*Recording, error) // returns ErrNotFound if absent
	List() ([]Meta, error)
	Delete(id string) error
}

// diskStore is the concrete Store that writes one JSON document per recording
// plus an audio sidecar file next to it.
type diskStore struct {
	dir string
}

// NewStore returns a Store backed by the XDG data directory.
// Path: $XDG_DATA_HOME/codewalk/sessions or ~/.local/share/codewalk/sessions
func NewStore() (Store, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving data directory: %w", err)
		}
		base = filepath.Join(home, ".local", "share")
	}
	return NewStoreAt(filepath.Join(base, "codewalk", "sessions"))
}

// NewStoreAt returns a Store rooted at an explicit directory.
func NewStoreAt(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating sessions directory: %w", err)
	}
	return &diskStore{dir: dir}, nil
}

// Save writes the recording atomically via a temp file + os.Rename. An inline
// audio payload is externalized into a sidecar file so the JSON document stays
// small; the stored document then references the sidecar by name.
func (d *diskStore) Save(r *Recording) error {
	if r.ID == "" {
		return errors.New("recording has no id")
	}
	jsonPath := d.jsonPath(r.ID)
	if _, err := os.Stat(jsonPath); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, r.ID)
	}

	stored := *r
	if r.Audio != nil && r.Audio.Kind == PayloadInline {
		sidecar := r.ID + extForMIME(r.Audio.MIME)
		if err := os.WriteFile(filepath.Join(d.dir, sidecar), r.Audio.Data, 0o644); err != nil {
			return fmt.Errorf("writing audio sidecar: %w", err)
		}
		stored.Audio = ExternalPayload(r.Audio.MIME, sidecar)
	}

	data, err := Encode(&stored)
	if err != nil {
		return fmt.Errorf("failed to persist recording: %w", err)
	}

	// Write to a temp file in the same directory so os.Rename is atomic.
	tmp, err := os.CreateTemp(d.dir, "session-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to persist recording: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist recording: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to persist recording: %w", err)
	}
	if err = os.Rename(tmpName, jsonPath); err != nil {
		return fmt.Errorf("failed to persist recording: %w", err)
	}
	return nil
}

// Load reads and decodes a stored recording. Sidecar references are resolved
// to absolute paths so callers can open the audio directly.
func (d *diskStore) Load(id string) (*Recording, error) {
	data, err := os.ReadFile(d.jsonPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read recording: %w", err)
	}
	r, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if r.Audio != nil && r.Audio.Kind == PayloadExternal && !isRemote(r.Audio.URL) && !filepath.IsAbs(r.Audio.URL) {
		r.Audio.URL = filepath.Join(d.dir, r.Audio.URL)
	}
	return r, nil
}

// List returns summary metadata for every stored recording, newest first.
func (d *diskStore) List() ([]Meta, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("reading sessions directory: %w", err)
	}
	var metas []Meta
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		r, err := d.Load(strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			continue // skip unreadable entries
		}
		metas = append(metas, Meta{
			ID:         r.ID,
			RecordedAt: r.RecordedAt,
			DurationMS: r.Duration(),
			CodeEvents: len(r.CodeEvents),
			HasAudio:   r.HasAudio(),
		})
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].RecordedAt.After(metas[j].RecordedAt) })
	return metas, nil
}

// Delete removes the recording document and any audio sidecar.
func (d *diskStore) Delete(id string) error {
	if err := os.Remove(d.jsonPath(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to delete recording: %w", err)
	}
	matches, _ := filepath.Glob(filepath.Join(d.dir, id+".*"))
	for _, m := range matches {
		if !strings.HasSuffix(m, ".json") {
			os.Remove(m)
		}
	}
	return nil
}

func (d *diskStore) jsonPath(id string) string {
	return filepath.Join(d.dir, id+".json")
}
