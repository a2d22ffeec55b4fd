package logging

import (
	"fmt"
	"sync"
)

// discardLogger drops every message.
type discardLogger struct{}

// Discard is a Logger that drops every message.
var Discard Logger = discardLogger{}

func (discardLogger) Errorf(string, ...any) {}
func (discardLogger) Warnf(string, ...any)  {}
func (discardLogger) Infof(string, ...any)  {}
func (discardLogger) Debugf(string, ...any) {}

// Recorder keeps every message in memory, prefixed with its level.
// Tests use it to assert on migration and adapter messages.
type Recorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *Recorder) add(level Level, format string, args ...any) {
	r.mu.Lock()
	r.lines = append(r.lines, level.String()+" "+fmt.Sprintf(format, args...))
	r.mu.Unlock()
}

// Lines returns a copy of the recorded messages in order.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// Errorf implements Logger.
func (r *Recorder) Errorf(format string, args ...any) { r.add(LevelError, format, args...) }

// Warnf implements Logger.
func (r *Recorder) Warnf(format string, args ...any) { r.add(LevelWarn, format, args...) }

// Infof implements Logger.
func (r *Recorder) Infof(format string, args ...any) { r.add(LevelInfo, format, args...) }

// Debugf implements Logger.
func (r *Recorder) Debugf(format string, args ...any) { r.add(LevelDebug, format, args...) }
