package screen

import (
	"errors"
	"fmt"
)

// ErrWorkerFailed is wrapped by every error that aborts a run from inside
// the worker pool: an aligner error or a panic.
var ErrWorkerFailed = errors.New("screening worker failed")

// ErrNoReferences is wrapped by the ConfigError raised when a manifest is
// readable but lists nothing for the requested preset.
var ErrNoReferences = errors.New("no references for preset")

// ConfigError reports an unusable manifest, preset or setting. Fatal, and
// always raised before any worker starts.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %v", e.Msg, e.Err)
	}
	return "config: " + e.Msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configErrorf(format string, a ...any) error {
	return &ConfigError{Msg: fmt.Sprintf(format, a...)}
}

// AlignerInitError reports a reference whose aligner could not be built.
type AlignerInitError struct {
	Reference string
	Path      string
	Err       error
}

func (e *AlignerInitError) Error() string {
	return fmt.Sprintf("failed to load aligner for reference %s (%s): %v", e.Reference, e.Path, e.Err)
}

func (e *AlignerInitError) Unwrap() error { return e.Err }

// RecordFormatError reports a record that lacks a field a check needs. It is
// counted and logged; the record keeps its alignment outcome.
type RecordFormatError struct {
	Index int
	Name  string
	Field string
}

func (e *RecordFormatError) Error() string {
	return fmt.Sprintf("record %d (%s) has no %s", e.Index, e.Name, e.Field)
}

// IOError reports a source or sink failure. Fatal.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
