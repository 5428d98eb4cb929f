package playback

import (
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"syscall"
)

// ExecFollower couples a Wallclock position authority with an external audio
// player process. The process is a best-effort follower: it is launched at the
// current position on play, suspended on pause and relaunched after a seek.
// If it dies, position and code replay keep running from the wall clock.
//
// The command may use {file} for the audio path and {pos} for the start
// offset in seconds, e.g. ffplay -nodisp -autoexit -ss {pos} {file}.
type ExecFollower struct {
	*Wallclock

	mu      sync.Mutex
	command []string
	file    string
	cmd     *exec.Cmd
}

// NewExecFollower builds a follower for the audio file at path.
func NewExecFollower(path string, command []string, durationMs int64) *ExecFollower {
	return &ExecFollower{
		Wallclock: NewWallclock(durationMs),
		command:   command,
		file:      path,
	}
}

func (f *ExecFollower) Play() error {
	if err := f.Wallclock.Play(); err != nil {
		return err
	}
	return f.spawn(f.Wallclock.Position())
}

func (f *ExecFollower) Pause() error {
	f.Wallclock.Pause()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cmd != nil && f.cmd.Process != nil {
		f.cmd.Process.Signal(syscall.SIGSTOP)
	}
	return nil
}

func (f *ExecFollower) Seek(rawMs int64) error {
	f.Wallclock.Seek(rawMs)
	f.mu.Lock()
	running := f.cmd != nil
	f.mu.Unlock()
	if running {
		f.kill()
		return f.spawn(f.Wallclock.Position())
	}
	return nil
}

func (f *ExecFollower) Close() error {
	f.kill()
	return f.Wallclock.Close()
}

func (f *ExecFollower) spawn(rawMs int64) error {
	f.kill()

	args := make([]string, 0, len(f.command))
	for _, a := range f.command {
		a = strings.ReplaceAll(a, "{file}", f.file)
		a = strings.ReplaceAll(a, "{pos}", fmt.Sprintf("%.3f", float64(rawMs)/1000))
		args = append(args, a)
	}
	if len(args) == 0 {
		return nil
	}

	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting audio player %q: %w", args[0], err)
	}

	f.mu.Lock()
	f.cmd = cmd
	f.mu.Unlock()
	go cmd.Wait() // reap on exit
	return nil
}

func (f *ExecFollower) kill() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cmd != nil && f.cmd.Process != nil {
		f.cmd.Process.Signal(syscall.SIGCONT)
		f.cmd.Process.Kill()
	}
	f.cmd = nil
}
