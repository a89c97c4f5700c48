package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kartoza/kartoza-webcam-viewer/internal/logging"
	"github.com/rs/zerolog"
)

// Store holds the current settings and reloads them when the file changes.
type Store struct {
	mu      sync.RWMutex
	current Settings
	path    string
	logger  zerolog.Logger

	debounce time.Duration

	listenMu  sync.RWMutex
	listeners []func(Settings, error)
}

// NewStore loads path into a new store. A load error is returned alongside a
// usable store holding the defaults.
func NewStore(path string) (*Store, error) {
	s, err := Load(path)
	return &Store{
		current:  s,
		path:     path,
		logger:   logging.WithComponent("config"),
		debounce: 300 * time.Millisecond,
	}, err
}

// Path returns the settings file path.
func (s *Store) Path() string { return s.path }

// Get returns the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update applies fn to a copy of the settings and saves the result. The
// in-memory settings only change when the save succeeds.
func (s *Store) Update(fn func(*Settings) error) error {
	s.mu.Lock()
	next := s.current
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return err
	}
	next = next.Normalize()
	if err := Save(s.path, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.current = next
	s.mu.Unlock()

	s.logger.Info().
		Str("event", "config.saved").
		Str("path", s.path).
		Msg("settings saved")
	return nil
}

// Reload rereads the file. On error the previous settings are kept. Listeners
// are not called; the caller handles the result itself.
func (s *Store) Reload() error {
	_, _, err := s.reload()
	return err
}

// reload rereads the file and reports the settings now held and whether
// they changed.
func (s *Store) reload() (Settings, bool, error) {
	next, err := Load(s.path)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("event", "config.reload_failed").
			Msg("failed to reload settings")
		return s.Get(), false, err
	}

	s.mu.Lock()
	changed := s.current != next
	s.current = next
	s.mu.Unlock()

	if changed {
		s.logger.Info().
			Str("event", "config.reloaded").
			Str("snapshot_format", string(next.SnapshotFormat)).
			Str("record_format", string(next.RecordFormat)).
			Int("timer", next.Timer).
			Msg("settings reloaded")
	}
	return next, changed, nil
}

// reloadFromWatch reloads after a file event and tells the listeners about
// a change or a failure.
func (s *Store) reloadFromWatch() {
	next, changed, err := s.reload()
	if err != nil || changed {
		s.notify(next, err)
	}
}

// OnChange registers fn to be called, from the watcher goroutine, after
// every file event whose reload changed the settings or failed.
func (s *Store) OnChange(fn func(Settings, error)) {
	s.listenMu.Lock()
	defer s.listenMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify(next Settings, err error) {
	s.listenMu.RLock()
	defer s.listenMu.RUnlock()
	for _, fn := range s.listeners {
		fn(next, err)
	}
}

// Watch reloads the settings whenever the file is written, until ctx is
// done. The directory is watched rather than the file because saves replace
// the file by renaming over it.
func (s *Store) Watch(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	s.logger.Debug().
		Str("event", "config.watcher_started").
		Str("path", s.path).
		Msg("watching settings file")

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(s.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			s.reloadFromWatch()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error().
				Err(err).
				Str("event", "config.watcher_error").
				Msg("settings watcher error")
		}
	}
}
