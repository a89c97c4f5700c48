package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/google/renameio/v2"
	"github.com/kartoza/kartoza-webcam-viewer/internal/models"
)

const (
	// AppName names the per-user configuration directory
	AppName = "kartoza-webcam-viewer"
	// FileName is the name of the settings file
	FileName = "settings.toml"
	// LogFileName is where the TUI writes its log
	LogFileName = "webcam-viewer.log"

	// DefaultPicturesDir and DefaultVideosDir are relative to the home directory
	DefaultPicturesDir = "Pictures"
	DefaultVideosDir   = "Videos"

	// DefaultTimer is the default countdown length in seconds
	DefaultTimer = 3
	// MaxTimer is the longest countdown allowed
	MaxTimer = 15
)

// Settings is the persisted user configuration
type Settings struct {
	SnapshotDir    string                `toml:"snapshot_dir"`
	SnapshotFormat models.SnapshotFormat `toml:"snapshot_format"`
	Timer          int                   `toml:"timer"`
	RecordDir      string                `toml:"record_dir"`
	RecordFormat   models.RecordFormat   `toml:"record_format"`
}

// Default returns the default settings
func Default() Settings {
	return Settings{
		SnapshotDir:    GetDefaultPicturesDir(),
		SnapshotFormat: models.SnapshotJPEG,
		Timer:          DefaultTimer,
		RecordDir:      GetDefaultVideosDir(),
		RecordFormat:   models.RecordH264MP4,
	}
}

// Normalize clamps the timer to 0..MaxTimer and fills empty fields with defaults
func (s Settings) Normalize() Settings {
	def := Default()
	if s.SnapshotDir == "" {
		s.SnapshotDir = def.SnapshotDir
	}
	if s.RecordDir == "" {
		s.RecordDir = def.RecordDir
	}
	if s.SnapshotFormat == "" {
		s.SnapshotFormat = def.SnapshotFormat
	}
	if s.RecordFormat == "" {
		s.RecordFormat = def.RecordFormat
	}
	s.Timer = ClampTimer(s.Timer)
	return s
}

// ClampTimer limits a countdown length to 0..MaxTimer
func ClampTimer(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxTimer {
		return MaxTimer
	}
	return n
}

// setters maps settings keys to parsers, used by "settings set"
var setters = map[string]func(*Settings, string) error{
	"snapshot_dir": func(s *Settings, v string) error {
		s.SnapshotDir = v
		return nil
	},
	"snapshot_format": func(s *Settings, v string) error {
		f, err := models.ParseSnapshotFormat(v)
		if err != nil {
			return err
		}
		s.SnapshotFormat = f
		return nil
	},
	"timer": func(s *Settings, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("timer must be a number of seconds: %w", err)
		}
		s.Timer = ClampTimer(n)
		return nil
	},
	"record_dir": func(s *Settings, v string) error {
		s.RecordDir = v
		return nil
	},
	"record_format": func(s *Settings, v string) error {
		f, err := models.ParseRecordFormat(v)
		if err != nil {
			return err
		}
		s.RecordFormat = f
		return nil
	},
}

// Keys returns the settable keys in sorted order
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set parses value and assigns it to the named key
func (s *Settings) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown setting %q", key)
	}
	return set(s, value)
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".config", AppName)
	}
	return filepath.Join(dir, AppName)
}

// DefaultPath returns the settings file path
func DefaultPath() string {
	return filepath.Join(GetConfigDir(), FileName)
}

// GetDefaultPicturesDir returns the default snapshot directory path
func GetDefaultPicturesDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultPicturesDir
	}
	return filepath.Join(home, DefaultPicturesDir)
}

// GetDefaultVideosDir returns the default recording directory path
func GetDefaultVideosDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultVideosDir
	}
	return filepath.Join(home, DefaultVideosDir)
}

// Load reads settings from path. A missing file yields the defaults. An
// unreadable or corrupt file also yields the defaults, together with the
// error so the caller can warn about it.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("read settings: %w", err)
	}

	s := Default()
	if _, err := toml.Decode(string(data), &s); err != nil {
		return Default(), fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s.Normalize(), nil
}

// Save writes settings to path atomically, creating the directory first
func Save(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s.Normalize()); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := renameio.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
