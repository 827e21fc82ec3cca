// Package logging writes one JSON object per line with a timestamp and level.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger serializes structured entries to w. It is safe for concurrent use.
type Logger struct {
	mu  sync.Mutex
	w   io.Writer
	loc *time.Location
}

// New returns a Logger writing to w with timestamps in loc.
func New(w io.Writer, loc *time.Location) *Logger {
	if loc == nil {
		loc = time.UTC
	}
	return &Logger{w: w, loc: loc}
}

// FileOptions configures the optional rotating log file.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
}

// NewWriter returns stdout, or stdout teed into a rotating file when a path is set.
// The returned closer releases the file.
func NewWriter(opts FileOptions) (io.Writer, func() error) {
	if opts.Path == "" {
		return os.Stdout, func() error { return nil }
	}
	lj := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		Compress:   true,
	}
	return io.MultiWriter(os.Stdout, lj), lj.Close
}

// Location returns the timezone used for timestamps.
func (l *Logger) Location() *time.Location { return l.loc }

// Writer returns the underlying sink.
func (l *Logger) Writer() io.Writer { return l.w }

// Log writes data as one line. "ts" is always set; "level" defaults to
// "error" when status is "error" and "info" otherwise.
func (l *Logger) Log(data map[string]any) {
	data["ts"] = time.Now().In(l.loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		b = []byte(fmt.Sprintf(`{"level":"error","msg":"log_marshal_failed","error":%q}`, err.Error()))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.w.Write(append(b, '\n'))
}

// Info logs msg with fields at info level.
func (l *Logger) Info(msg string, fields map[string]any) {
	l.with("info", msg, fields)
}

// Warn logs msg with fields at warn level.
func (l *Logger) Warn(msg string, fields map[string]any) {
	l.with("warn", msg, fields)
}

// Error logs msg with err and fields at error level.
func (l *Logger) Error(msg string, err error, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	l.with("error", msg, fields)
}

func (l *Logger) with(level, msg string, fields map[string]any) {
	data := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		data[k] = v
	}
	data["level"] = level
	data["msg"] = msg
	l.Log(data)
}

// Nop discards everything.
func Nop() *Logger { return New(io.Discard, time.UTC) }
