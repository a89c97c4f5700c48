package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kartoza/kartoza-webcam-viewer/internal/models"
)

func TestDefault(t *testing.T) {
	s := Default()

	if !strings.HasSuffix(s.SnapshotDir, DefaultPicturesDir) {
		t.Errorf("expected snapshot dir to end in %q, got %q", DefaultPicturesDir, s.SnapshotDir)
	}
	if !strings.HasSuffix(s.RecordDir, DefaultVideosDir) {
		t.Errorf("expected record dir to end in %q, got %q", DefaultVideosDir, s.RecordDir)
	}
	if s.SnapshotFormat != models.SnapshotJPEG {
		t.Errorf("expected JPEG snapshots by default, got %q", s.SnapshotFormat)
	}
	if s.Timer != 3 {
		t.Errorf("expected a 3 second timer by default, got %d", s.Timer)
	}
	if s.RecordFormat != models.RecordH264MP4 {
		t.Errorf("expected H264/MP4 recordings by default, got %q", s.RecordFormat)
	}
}

func TestGetConfigDir(t *testing.T) {
	dir := GetConfigDir()
	if filepath.Base(dir) != AppName {
		t.Errorf("expected config dir to end in %q, got %q", AppName, dir)
	}
	if filepath.Base(DefaultPath()) != FileName {
		t.Errorf("expected settings file %q, got %q", FileName, DefaultPath())
	}
}

func TestLoad_NoFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != Default() {
		t.Errorf("expected defaults, got %+v", s)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("timer = [not toml"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err == nil {
		t.Fatal("expected an error for a corrupt file")
	}
	if s != Default() {
		t.Errorf("expected defaults alongside the error, got %+v", s)
	}
}

func TestLoad_BadEnumFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(`snapshot_format = "gif"`), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err == nil {
		t.Fatal("expected an error for an unknown format")
	}
	if s.SnapshotFormat != models.SnapshotJPEG {
		t.Errorf("expected default format, got %q", s.SnapshotFormat)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("timer = 40\nrecord_format = \"webm\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Timer != MaxTimer {
		t.Errorf("expected timer clamped to %d, got %d", MaxTimer, s.Timer)
	}
	if s.RecordFormat != models.RecordVP8WebM {
		t.Errorf("expected VP8/WebM, got %q", s.RecordFormat)
	}
	if s.SnapshotDir != Default().SnapshotDir {
		t.Errorf("expected default snapshot dir, got %q", s.SnapshotDir)
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", FileName)

	for _, sf := range []models.SnapshotFormat{models.SnapshotJPEG, models.SnapshotPNG} {
		for _, rf := range []models.RecordFormat{models.RecordH264MP4, models.RecordVP8WebM} {
			for timer := -2; timer <= MaxTimer+2; timer++ {
				in := Settings{
					SnapshotDir:    filepath.Join(dir, "shots with spaces"),
					SnapshotFormat: sf,
					Timer:          timer,
					RecordDir:      filepath.Join(dir, "clips"),
					RecordFormat:   rf,
				}
				if err := Save(path, in); err != nil {
					t.Fatalf("Save: %v", err)
				}
				out, err := Load(path)
				if err != nil {
					t.Fatalf("Load: %v", err)
				}

				want := in
				want.Timer = ClampTimer(timer)
				if out != want {
					t.Errorf("round trip mismatch:\n got %+v\nwant %+v", out, want)
				}
			}
		}
	}
}

func TestClampTimer(t *testing.T) {
	tests := map[int]int{-5: 0, 0: 0, 7: 7, 15: 15, 16: 15, 100: 15}
	for in, want := range tests {
		if got := ClampTimer(in); got != want {
			t.Errorf("ClampTimer(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestSettings_Set(t *testing.T) {
	s := Default()

	if err := s.Set("timer", "9"); err != nil || s.Timer != 9 {
		t.Errorf("Set timer: %v, timer=%d", err, s.Timer)
	}
	if err := s.Set("snapshot_format", "PNG"); err != nil || s.SnapshotFormat != models.SnapshotPNG {
		t.Errorf("Set snapshot_format: %v, format=%q", err, s.SnapshotFormat)
	}
	if err := s.Set("record_format", "vp8"); err != nil || s.RecordFormat != models.RecordVP8WebM {
		t.Errorf("Set record_format: %v, format=%q", err, s.RecordFormat)
	}
	if err := s.Set("record_dir", "/srv/clips"); err != nil || s.RecordDir != "/srv/clips" {
		t.Errorf("Set record_dir: %v, dir=%q", err, s.RecordDir)
	}
	if err := s.Set("timer", "soon"); err == nil {
		t.Error("expected error for non-numeric timer")
	}
	if err := s.Set("colour", "blue"); err == nil {
		t.Error("expected error for unknown key")
	}

	keys := Keys()
	if len(keys) != 5 || keys[0] != "record_dir" {
		t.Errorf("unexpected keys %v", keys)
	}
}
