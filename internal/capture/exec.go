package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/codewalk-dev/codewalk/internal/session"
)

// defaultCommand records from the default ALSA device. The {out} placeholder
// is replaced with the temporary output path.
var defaultCommand = []string{"arecord", "-q", "-f", "cd", "{out}"}

// Exec captures audio by running an external recorder process that writes to
// a temporary file. Pause and resume are delivered as SIGSTOP/SIGCONT; stop
// sends SIGINT and waits for the process to flush and exit, bounded by the
// caller's context.
type Exec struct {
	command []string
	mime    string

	dir     string
	outPath string
	cmd     *exec.Cmd
}

// NewExec builds an Exec backend. An empty command selects the arecord
// default; an empty mime is inferred from the output extension.
func NewExec(command []string, mime string) *Exec {
	if len(command) == 0 {
		command = defaultCommand
	}
	if mime == "" {
		mime = "audio/wav"
	}
	return &Exec{command: command, mime: mime}
}

// Start launches the recorder process.
func (e *Exec) Start(ctx context.Context) error {
	dir, err := os.MkdirTemp("", "codewalk-capture-")
	if err != nil {
		return fmt.Errorf("creating capture directory: %w", err)
	}
	e.dir = dir
	e.outPath = filepath.Join(dir, "narration"+extForMIME(e.mime))

	args := make([]string, 0, len(e.command))
	substituted := false
	for _, a := range e.command {
		if strings.Contains(a, "{out}") {
			a = strings.ReplaceAll(a, "{out}", e.outPath)
			substituted = true
		}
		args = append(args, a)
	}
	if !substituted {
		args = append(args, e.outPath)
	}

	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		os.RemoveAll(dir)
		return fmt.Errorf("starting capture command %q: %w", args[0], err)
	}
	e.cmd = cmd
	return nil
}

// Pause suspends the recorder process.
func (e *Exec) Pause() error {
	if e.cmd == nil || e.cmd.Process == nil {
		return errors.New("capture not running")
	}
	return e.cmd.Process.Signal(syscall.SIGSTOP)
}

// Resume continues a suspended recorder process.
func (e *Exec) Resume() error {
	if e.cmd == nil || e.cmd.Process == nil {
		return errors.New("capture not running")
	}
	return e.cmd.Process.Signal(syscall.SIGCONT)
}

// Stop interrupts the process and waits for it to flush its output. If ctx
// expires before the process exits it is killed; whatever was flushed so far
// is still returned when non-empty.
func (e *Exec) Stop(ctx context.Context) (*session.AudioPayload, error) {
	if e.cmd == nil || e.cmd.Process == nil {
		return nil, nil
	}
	defer func() {
		os.RemoveAll(e.dir)
		e.cmd = nil
	}()

	// A suspended process cannot handle SIGINT; wake it first.
	e.cmd.Process.Signal(syscall.SIGCONT)
	e.cmd.Process.Signal(os.Interrupt)

	done := make(chan error, 1)
	go func() { done <- e.cmd.Wait() }()

	select {
	case <-done:
	case <-ctx.Done():
		e.cmd.Process.Kill()
		<-done
	}

	data, err := os.ReadFile(e.outPath)
	if err != nil || len(data) == 0 {
		return nil, ErrNoAudio
	}
	return session.InlinePayload(e.mime, data), nil
}

func extForMIME(mime string) string {
	switch {
	case strings.Contains(mime, "wav"):
		return ".wav"
	case strings.Contains(mime, "ogg"):
		return ".ogg"
	case strings.Contains(mime, "mpeg"), strings.Contains(mime, "mp3"):
		return ".mp3"
	default:
		return ".webm"
	}
}
