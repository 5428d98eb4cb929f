// Package capture provides microphone capture backends for the recorder.
package capture

import (
	"context"
	"errors"

	"github.com/codewalk-dev/codewalk/internal/session"
)

// ErrNoAudio is returned by Stop when the device produced zero bytes.
var ErrNoAudio = errors.New("no audio captured")

// Null is the capture backend for audio-less recordings. Every operation
// succeeds and Stop yields no payload.
type Null struct{}

func (Null) Start(context.Context) error { return nil }
func (Null) Pause() error                { return nil }
func (Null) Resume() error               { return nil }
func (Null) Stop(context.Context) (*session.AudioPayload, error) {
	return nil, nil
}
