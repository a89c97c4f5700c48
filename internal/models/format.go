package models

import (
	"fmt"
	"strings"
)

// SnapshotFormat is the image format snapshots are written in
type SnapshotFormat string

const (
	SnapshotJPEG SnapshotFormat = "jpeg"
	SnapshotPNG  SnapshotFormat = "png"
)

// ParseSnapshotFormat accepts "jpeg", "jpg" and "png" in any case
func ParseSnapshotFormat(s string) (SnapshotFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jpeg", "jpg":
		return SnapshotJPEG, nil
	case "png":
		return SnapshotPNG, nil
	}
	return "", fmt.Errorf("unknown snapshot format %q (want jpeg or png)", s)
}

// Extension returns the file extension without the dot
func (f SnapshotFormat) Extension() string {
	if f == SnapshotPNG {
		return "png"
	}
	return "jpg"
}

// MediaType returns the media type a frame is converted to
func (f SnapshotFormat) MediaType() string {
	if f == SnapshotPNG {
		return "image/png"
	}
	return "image/jpeg"
}

// Label is the human readable name shown in the TUI
func (f SnapshotFormat) Label() string {
	if f == SnapshotPNG {
		return "PNG"
	}
	return "JPEG"
}

// MarshalText implements encoding.TextMarshaler
func (f SnapshotFormat) MarshalText() ([]byte, error) {
	return []byte(f), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (f *SnapshotFormat) UnmarshalText(text []byte) error {
	parsed, err := ParseSnapshotFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// RecordFormat is the codec/container pair recordings are written in
type RecordFormat string

const (
	RecordH264MP4 RecordFormat = "h264/mp4"
	RecordVP8WebM RecordFormat = "vp8/webm"
)

// ParseRecordFormat accepts the pair or either half of it, in any case
func ParseRecordFormat(s string) (RecordFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "h264/mp4", "h264", "mp4":
		return RecordH264MP4, nil
	case "vp8/webm", "vp8", "webm":
		return RecordVP8WebM, nil
	}
	return "", fmt.Errorf("unknown record format %q (want h264/mp4 or vp8/webm)", s)
}

// Extension returns the container file extension
func (f RecordFormat) Extension() string {
	if f == RecordVP8WebM {
		return "webm"
	}
	return "mp4"
}

// Label is the human readable name shown in the TUI
func (f RecordFormat) Label() string {
	if f == RecordVP8WebM {
		return "VP8/WebM"
	}
	return "H264/MP4"
}

// MarshalText implements encoding.TextMarshaler
func (f RecordFormat) MarshalText() ([]byte, error) {
	return []byte(f), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (f *RecordFormat) UnmarshalText(text []byte) error {
	parsed, err := ParseRecordFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
