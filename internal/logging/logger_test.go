package logging

import (
	"bytes"
	"log/slog"
	"regexp"
	"strings"
	"testing"
)

func TestDefaultLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level     Level
		wantError bool
		wantWarn  bool
		wantInfo  bool
		wantDebug bool
	}{
		{LevelError, true, false, false, false},
		{LevelWarn, true, true, false, false},
		{LevelInfo, true, true, true, false},
		{LevelDebug, true, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, tt.level)

			logger.Errorf("error %d", 1)
			logger.Warnf("warn %d", 2)
			logger.Infof("info %d", 3)
			logger.Debugf("debug %d", 4)

			output := buf.String()

			if got := strings.Contains(output, "ERROR error 1"); got != tt.wantError {
				t.Errorf("Error logged: got %v, want %v", got, tt.wantError)
			}
			if got := strings.Contains(output, "WARN warn 2"); got != tt.wantWarn {
				t.Errorf("Warn logged: got %v, want %v", got, tt.wantWarn)
			}
			if got := strings.Contains(output, "INFO info 3"); got != tt.wantInfo {
				t.Errorf("Info logged: got %v, want %v", got, tt.wantInfo)
			}
			if got := strings.Contains(output, "DEBUG debug 4"); got != tt.wantDebug {
				t.Errorf("Debug logged: got %v, want %v", got, tt.wantDebug)
			}
		})
	}
}

func TestDiscardLogger(t *testing.T) {
	// Must not panic.
	Discard.Errorf("x %d", 1)
	Discard.Warnf("x %d", 1)
	Discard.Infof("x %d", 1)
	Discard.Debugf("x %d", 1)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	var l Logger = &r
	l.Warnf(NSMigrate+"upgraded %d stores", 2)
	l.Debugf("detail")

	lines := r.Lines()
	want := []string{"WARN [migrate] upgraded 2 stores", "DEBUG detail"}
	if len(lines) != len(want) {
		t.Fatalf("Lines() = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelError, "ERROR"},
		{LevelWarn, "WARN"},
		{LevelInfo, "INFO"},
		{LevelDebug, "DEBUG"},
		{Level(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"error", LevelError, false},
		{"WARN", LevelWarn, false},
		{"warning", LevelWarn, false},
		{" Info ", LevelInfo, false},
		{"debug", LevelDebug, false},
		{"verbose", LevelWarn, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogFormat_Standard(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelInfo)

	logger.Infof(NSDB+"decoded %d stores", 3)

	pattern := regexp.MustCompile(`^\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2} INFO \[db\] decoded 3 stores\n$`)
	if !pattern.MatchString(buf.String()) {
		t.Errorf("unexpected log line %q", buf.String())
	}
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: SlogLevel(LevelInfo)})
	logger := NewSlogLogger(slog.New(handler))

	logger.Debugf("hidden %d", 1)
	logger.Warnf(NSMigrate+"upgrading from v%d", 1)

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Errorf("debug message leaked through info handler: %q", output)
	}
	if !strings.Contains(output, "level=WARN") || !strings.Contains(output, "upgrading from v1") {
		t.Errorf("warn message missing: %q", output)
	}
}

func TestIsNilAndOrDefault(t *testing.T) {
	var typedNil *DefaultLogger
	if !IsNil(nil) {
		t.Error("IsNil(nil) = false")
	}
	if !IsNil(typedNil) {
		t.Error("IsNil(typed nil) = false")
	}
	if IsNil(Discard) {
		t.Error("IsNil(Discard) = true")
	}
	if OrDefault(typedNil) == nil {
		t.Error("OrDefault(typed nil) returned nil")
	}
	if OrDefault(Discard) != Discard {
		t.Error("OrDefault(Discard) did not return Discard")
	}
}
