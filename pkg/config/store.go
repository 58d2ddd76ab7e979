package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrOutOfRange is returned when a device setting lies outside its limits.
var ErrOutOfRange = errors.New("value out of range")

// Limits bounds a persisted device setting and names its fallback.
type Limits struct {
	Name    string
	Min     int64
	Max     int64
	Default int64
}

// Device setting limits.
var (
	OffsetLimits         = Limits{Name: "offset", Min: 0, Max: 99, Default: 0}
	SensitivityLimits    = Limits{Name: "sensitivity", Min: 1, Max: 10, Default: 5}
	BrightnessLimits     = Limits{Name: "brightness", Min: 1, Max: 255, Default: 100}
	ReportIntervalLimits = Limits{Name: "report_interval_ms", Min: 1000, Max: 3_600_000, Default: 10_000}
)

// Contains reports whether v is within the limits.
func (l Limits) Contains(v int64) bool {
	return v >= l.Min && v <= l.Max
}

// Check returns ErrOutOfRange if v is outside the limits.
func (l Limits) Check(v int64) error {
	if !l.Contains(v) {
		return fmt.Errorf("%s %d not in [%d, %d]: %w", l.Name, v, l.Min, l.Max, ErrOutOfRange)
	}
	return nil
}

// Resolve returns the stored value, or the default if it is absent or out
// of range.
func (l Limits) Resolve(p *int64) int64 {
	if p == nil || !l.Contains(*p) {
		return l.Default
	}
	return *p
}

// Snapshot is the read-only view of the device settings taken at startup.
type Snapshot struct {
	Offset           int8
	Sensitivity      int8
	Brightness       uint8
	ReportIntervalMs int32
}

// settings is the on-disk layout. Values are kept wide so that a corrupted
// or hand-edited file still parses and falls back per field.
type settings struct {
	Offset           *int64 `yaml:"offset,omitempty"`
	Sensitivity      *int64 `yaml:"sensitivity,omitempty"`
	Brightness       *int64 `yaml:"brightness,omitempty"`
	ReportIntervalMs *int64 `yaml:"report_interval_ms,omitempty"`
}

// Store persists the device settings. Writes are staged in memory and only
// reach the file on Commit, and only if something changed.
type Store struct {
	path  string
	data  settings
	dirty bool
}

// OpenStore reads the settings file at path. A missing file yields an empty
// store whose snapshot is all defaults.
func OpenStore(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, &s.data); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}

	return s, nil
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// Dirty reports whether there are uncommitted changes.
func (s *Store) Dirty() bool {
	return s.dirty
}

// WriteOffset stages a new offset. It returns true if the value was in range
// and differs from the stored one.
func (s *Store) WriteOffset(v int8) bool {
	return s.write(&s.data.Offset, int64(v), OffsetLimits)
}

// WriteSensitivity stages a new sensitivity.
func (s *Store) WriteSensitivity(v int8) bool {
	return s.write(&s.data.Sensitivity, int64(v), SensitivityLimits)
}

// WriteBrightness stages a new brightness.
func (s *Store) WriteBrightness(v uint8) bool {
	return s.write(&s.data.Brightness, int64(v), BrightnessLimits)
}

// WriteReportInterval stages a new report interval in milliseconds.
func (s *Store) WriteReportInterval(ms int32) bool {
	return s.write(&s.data.ReportIntervalMs, int64(ms), ReportIntervalLimits)
}

func (s *Store) write(field **int64, v int64, l Limits) bool {
	if !l.Contains(v) {
		return false
	}
	if *field != nil && **field == v {
		return false
	}
	*field = &v
	s.dirty = true
	return true
}

// Commit writes staged changes to disk. It is a no-op when nothing changed.
func (s *Store) Commit() error {
	if !s.dirty {
		return nil
	}

	data, err := yaml.Marshal(&s.data)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	s.dirty = false
	return nil
}

// Snapshot resolves every setting against its limits.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Offset:           int8(OffsetLimits.Resolve(s.data.Offset)),
		Sensitivity:      int8(SensitivityLimits.Resolve(s.data.Sensitivity)),
		Brightness:       uint8(BrightnessLimits.Resolve(s.data.Brightness)),
		ReportIntervalMs: int32(ReportIntervalLimits.Resolve(s.data.ReportIntervalMs)),
	}
}
