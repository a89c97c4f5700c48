package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kartoza/kartoza-webcam-viewer/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Update(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	store, err := NewStore(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), store.Get())

	require.NoError(t, store.Update(func(s *Settings) error {
		s.Timer = 99
		s.SnapshotFormat = models.SnapshotPNG
		return nil
	}))
	assert.Equal(t, MaxTimer, store.Get().Timer)

	onDisk, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, store.Get(), onDisk)
}

func TestStore_UpdateErrorKeepsSettings(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.Update(func(s *Settings) error {
		s.Timer = 1
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, DefaultTimer, store.Get().Timer)
}

func TestStore_ReloadFailureKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Update(func(s *Settings) error {
		s.Timer = 7
		return nil
	}))

	calls := 0
	store.OnChange(func(Settings, error) { calls++ })

	require.NoError(t, os.WriteFile(path, []byte("timer = ["), 0644))
	assert.Error(t, store.Reload())
	assert.Error(t, store.Reload())
	assert.Equal(t, 7, store.Get().Timer)
	// a caller-driven reload reports through its return value only
	assert.Zero(t, calls)
}

func TestStore_WatchReportsCorruptWriteOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))

	store, err := NewStore(path)
	require.NoError(t, err)
	store.debounce = 50 * time.Millisecond

	var mu sync.Mutex
	var errs []error
	store.OnChange(func(_ Settings, err error) {
		if err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.Watch(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("timer = ["), 0644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(errs) > 0
	}, 2*time.Second, 10*time.Millisecond)

	// no further events, no further reports
	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, errs, 1)
	assert.Equal(t, DefaultTimer, store.Get().Timer)
}

func TestStore_WatchReloadsOnExternalWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, Save(path, Default()))

	store, err := NewStore(path)
	require.NoError(t, err)
	store.debounce = 10 * time.Millisecond

	var mu sync.Mutex
	var seen []Settings
	store.OnChange(func(s Settings, err error) {
		if err == nil {
			mu.Lock()
			seen = append(seen, s)
			mu.Unlock()
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.Watch(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	// give the watcher a moment to register the directory
	time.Sleep(50 * time.Millisecond)

	next := Default()
	next.Timer = 12
	require.NoError(t, Save(path, next))

	require.Eventually(t, func() bool {
		return store.Get().Timer == 12
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.Equal(t, 12, seen[len(seen)-1].Timer)
}
