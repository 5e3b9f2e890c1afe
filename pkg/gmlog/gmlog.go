// Package gmlog provides leveled, TTY-aware structured logging for gitmux.
// Call sites log with a message plus flat key/value pairs, the way the
// rest of the pipeline's diagnostics are emitted; colors are used only
// when the logger's output (stderr by default) is a terminal, so piped
// output stays ANSI-free.
package gmlog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Level is a diagnostics severity, strictly ordered debug < info < warning < error.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

// ParseLevel parses a level name from the CLI/env surface.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Logger is a leveled, TTY-colored diagnostics sink.
type Logger struct {
	mu     sync.Mutex
	out    io.Writer
	level  Level
	color  bool
	clock  func() time.Time
	debugC *color.Color
	infoC  *color.Color
	warnC  *color.Color
	errC   *color.Color
}

// Option configures a Logger.
type Option func(*Logger)

// WithOutput overrides the destination writer (default os.Stderr).
func WithOutput(w io.Writer) Option {
	return func(l *Logger) { l.out = w }
}

// WithColor forces color on or off, overriding TTY auto-detection.
func WithColor(enabled bool) Option {
	return func(l *Logger) { l.color = enabled }
}

// New creates a Logger at the given level. Color is enabled automatically
// when the output is a terminal, matching the corpus convention of
// gating ANSI output behind an isatty check.
func New(level Level, opts ...Option) *Logger {
	l := &Logger{
		out:    os.Stderr,
		level:  level,
		clock:  time.Now,
		debugC: color.New(color.FgHiBlack),
		infoC:  color.New(color.FgCyan),
		warnC:  color.New(color.FgYellow, color.Bold),
		errC:   color.New(color.FgRed, color.Bold),
	}
	if f, ok := l.out.(*os.File); ok {
		l.color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetLevel updates the minimum emitted level. Verbose mode (-v) calls
// this with LevelDebug.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level returns the currently configured minimum level.
func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *Logger) emit(level Level, tag string, c *color.Color, msg string, kv ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] ", tag)
	b.WriteString(msg)
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	line := b.String()

	if l.color {
		fmt.Fprintln(l.out, c.Sprint(line))
		return
	}
	fmt.Fprintln(l.out, line)
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, kv ...interface{}) {
	l.emit(LevelDebug, "debug", l.debugC, msg, kv...)
}

// Info logs at info level.
func (l *Logger) Info(msg string, kv ...interface{}) {
	l.emit(LevelInfo, "info", l.infoC, msg, kv...)
}

// Warn logs at warning level.
func (l *Logger) Warn(msg string, kv ...interface{}) {
	l.emit(LevelWarning, "warn", l.warnC, msg, kv...)
}

// Error logs at error level. Error messages are always emitted
// regardless of the configured level.
func (l *Logger) Error(msg string, kv ...interface{}) {
	l.emit(LevelError, "error", l.errC, msg, kv...)
}

// def is the package-level logger used by components that don't
// thread a *Logger through their constructors (mirroring the teacher's
// package-level pkg/log call sites: log.Info(...), log.Warn(...)).
var def = New(LevelInfo)

// SetDefault replaces the package-level default logger, used once by
// cmd/gitmux after flags are parsed.
func SetDefault(l *Logger) { def = l }

// Default returns the package-level default logger.
func Default() *Logger { return def }

func Debug(msg string, kv ...interface{}) { def.Debug(msg, kv...) }
func Info(msg string, kv ...interface{})  { def.Info(msg, kv...) }
func Warn(msg string, kv ...interface{})  { def.Warn(msg, kv...) }
func Error(msg string, kv ...interface{}) { def.Error(msg, kv...) }
