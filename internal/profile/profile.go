// Package profile manages the user's persistent codewalk profile.
// The profile is stored at ~/.config/codewalk/profile.json and is created
// once via the interactive setup flow, then referenced on every command.
package profile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Profile holds user-level preferences set during first-run setup.
type Profile struct {
	Name           string `json:"name"`
	DefaultFormat  string `json:"default_format"`  // "markdown" | "json"
	RecordAudio    bool   `json:"record_audio"`    // capture narration while recording
	CaptureCommand string `json:"capture_command"` // recorder binary, {out} = output path
	PlayerCommand  string `json:"player_command"`  // playback binary, {file}/{pos} placeholders
}

// profilePath returns the path to the profile file.
func profilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "codewalk", "profile.json"), nil
}

// ConfigDir returns the codewalk config directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "codewalk"), nil
}

// Exists reports whether a profile file is present on disk.
func Exists() bool {
	p, err := profilePath()
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Load reads the profile from disk. Returns an error if the file is missing or malformed.
func Load() (*Profile, error) {
	p, err := profilePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("profile not found — run 'codewalk setup' to configure: %w", err)
	}
	var prof Profile
	if err := json.Unmarshal(data, &prof); err != nil {
		return nil, fmt.Errorf("malformed profile at %s: %w", p, err)
	}
	return &prof, nil
}

// Save writes the profile to disk, creating the config directory if needed.
func Save(prof *Profile) error {
	p, err := profilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(prof, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// RunSetup runs the interactive setup wizard and saves the resulting profile.
// If existing is non-nil, it is used as the default for each prompt (edit mode).
func RunSetup(existing *Profile) (*Profile, error) {
	r := bufio.NewReader(os.Stdin)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Printf("%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Printf("%s: ", prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	askBool := func(prompt string, defaultVal bool) (bool, error) {
		def := "n"
		if defaultVal {
			def = "y"
		}
		ans, err := ask(prompt+" (y/n)", def)
		if err != nil {
			return false, err
		}
		return strings.ToLower(ans) == "y" || strings.ToLower(ans) == "yes", nil
	}

	prof := &Profile{
		DefaultFormat: "markdown",
		RecordAudio:   true,
	}
	if existing != nil {
		*prof = *existing
	}

	fmt.Println()
	fmt.Println("  ┌─────────────────────────────────┐")
	fmt.Println("  │   codewalk — first-time setup   │")
	fmt.Println("  └─────────────────────────────────┘")
	fmt.Println()

	var err error

	prof.Name, err = ask("  Your name (shown in exports)", prof.Name)
	if err != nil {
		return nil, err
	}

	format, err := ask("  Default export format (markdown/json)", prof.DefaultFormat)
	if err != nil {
		return nil, err
	}
	if format == "json" {
		prof.DefaultFormat = "json"
	} else {
		prof.DefaultFormat = "markdown"
	}

	prof.RecordAudio, err = askBool("  Record narration audio while recording", prof.RecordAudio)
	if err != nil {
		return nil, err
	}

	if prof.RecordAudio {
		capture := prof.CaptureCommand
		if capture == "" {
			capture = detectCaptureCommand()
		}
		prof.CaptureCommand, err = ask("  Audio capture command ({out} = output file)", capture)
		if err != nil {
			return nil, err
		}
		player := prof.PlayerCommand
		if player == "" {
			player = detectPlayerCommand()
		}
		prof.PlayerCommand, err = ask("  Audio player command ({file} = audio, {pos} = seconds)", player)
		if err != nil {
			return nil, err
		}
	}

	fmt.Println()
	return prof, nil
}

// detectCaptureCommand picks the first available recording binary.
func detectCaptureCommand() string {
	candidates := [][2]string{
		{"arecord", "arecord -q -f cd {out}"},
		{"rec", "rec -q {out}"},
		{"ffmpeg", "ffmpeg -loglevel quiet -f pulse -i default {out}"},
	}
	for _, c := range candidates {
		if _, err := exec.LookPath(c[0]); err == nil {
			return c[1]
		}
	}
	return "arecord -q -f cd {out}"
}

// detectPlayerCommand picks the first available playback binary.
func detectPlayerCommand() string {
	candidates := [][2]string{
		{"ffplay", "ffplay -nodisp -autoexit -loglevel quiet -ss {pos} {file}"},
		{"mpv", "mpv --no-video --start={pos} {file}"},
		{"aplay", "aplay -q {file}"},
	}
	for _, c := range candidates {
		if _, err := exec.LookPath(c[0]); err == nil {
			return c[1]
		}
	}
	return "ffplay -nodisp -autoexit -loglevel quiet -ss {pos} {file}"
}
