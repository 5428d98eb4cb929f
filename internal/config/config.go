package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config holds all configurable codewalk settings.
type Config struct {
	SessionsDir    string   `json:"sessions_dir"`    // override the XDG store location
	CaptureCommand []string `json:"capture_command"` // recorder binary, {out} = output path
	PlayerCommand  []string `json:"player_command"`  // playback binary, {file}/{pos} placeholders
	TickMs         int      `json:"tick_ms"`         // playback update interval
	SeekStepMs     int      `json:"seek_step_ms"`    // arrow-key seek distance
	DefaultFormat  string   `json:"default_format"`  // "markdown" | "json"
	ListenAddr     string   `json:"listen_addr"`     // serve bind address
	RedisAddr      string   `json:"redis_addr"`      // serve with a redis store when set
	SessionTTLMin  int      `json:"session_ttl_min"` // redis expiry, 0 = keep forever
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		TickMs:        50,
		SeekStepMs:    5000,
		DefaultFormat: "markdown",
		ListenAddr:    ":8632",
	}
}

// LoadGlobal reads ~/.config/codewalk/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(home, ".config", "codewalk", "config.json")
	return loadFile(path, true)
}

// LoadProject reads .codewalkrc in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(".codewalkrc", false)
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, cfg := range []*Config{global, project} {
		if cfg == nil {
			continue
		}
		if cfg.SessionsDir != "" {
			result.SessionsDir = cfg.SessionsDir
		}
		if len(cfg.CaptureCommand) > 0 {
			result.CaptureCommand = cfg.CaptureCommand
		}
		if len(cfg.PlayerCommand) > 0 {
			result.PlayerCommand = cfg.PlayerCommand
		}
		if cfg.TickMs > 0 {
			result.TickMs = cfg.TickMs
		}
		if cfg.SeekStepMs > 0 {
			result.SeekStepMs = cfg.SeekStepMs
		}
		if cfg.DefaultFormat != "" {
			result.DefaultFormat = cfg.DefaultFormat
		}
		if cfg.ListenAddr != "" {
			result.ListenAddr = cfg.ListenAddr
		}
		if cfg.RedisAddr != "" {
			result.RedisAddr = cfg.RedisAddr
		}
		if cfg.SessionTTLMin > 0 {
			result.SessionTTLMin = cfg.SessionTTLMin
		}
	}
	return result
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
