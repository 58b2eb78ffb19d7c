package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Logger is the leveled progress reporter handed to the engine. It is purely
// observational; nothing branches on it.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelSilent
)

// ParseLevel maps a config string onto a Level, defaulting to info.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "silent", "off", "none":
		return LevelSilent, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

type consoleLogger struct {
	mu    sync.Mutex
	w     io.Writer
	level Level
	debug *color.Color
	info  *color.Color
	warn  *color.Color
}

// New returns a Logger writing colored lines to w.
func New(w io.Writer, level Level) Logger {
	return &consoleLogger{
		w:     w,
		level: level,
		debug: color.New(color.FgCyan),
		info:  color.New(color.FgGreen),
		warn:  color.New(color.FgYellow, color.Bold),
	}
}

func (l *consoleLogger) Debugf(format string, args ...any) {
	l.write(LevelDebug, l.debug, "🔍 ", format, args...)
}

func (l *consoleLogger) Infof(format string, args ...any) {
	l.write(LevelInfo, l.info, "✅ ", format, args...)
}

func (l *consoleLogger) Warnf(format string, args ...any) {
	l.write(LevelWarn, l.warn, "⚠️  ", format, args...)
}

func (l *consoleLogger) write(level Level, c *color.Color, prefix, format string, args ...any) {
	if level < l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	c.Fprint(l.w, prefix)
	fmt.Fprintf(l.w, format+"\n", args...)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}

// Nop discards everything.
func Nop() Logger {
	return nopLogger{}
}
