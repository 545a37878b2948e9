// Package logx is the leveled stderr logger shared by the screening pipeline
// and the CLI. Lines look like "[INFO] message", matching the audit trail
// operators grep for in long runs.
package logx

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
)

type Logger struct {
	out   *log.Logger
	quiet atomic.Bool
}

// New returns a Logger writing to w. A nil w means os.Stderr.
func New(w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{out: log.New(w, "", 0)}
}

// Discard returns a Logger that drops everything, for tests and library use.
func Discard() *Logger {
	return New(io.Discard)
}

// SetQuiet mutes INFO and NOTE lines. Warnings and failures always print.
func (l *Logger) SetQuiet(q bool) { l.quiet.Store(q) }

func (l *Logger) emit(level, f string, a ...any) {
	l.out.Printf("[%s] %s", level, fmt.Sprintf(f, a...))
}

func (l *Logger) Infof(f string, a ...any) {
	if l.quiet.Load() {
		return
	}
	l.emit("INFO", f, a...)
}

// Notef is for periodic progress lines.
func (l *Logger) Notef(f string, a ...any) {
	if l.quiet.Load() {
		return
	}
	l.emit("NOTE", f, a...)
}

func (l *Logger) Warnf(f string, a ...any) { l.emit("WARN", f, a...) }
func (l *Logger) Failf(f string, a ...any) { l.emit("FAIL", f, a...) }
