package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := tt.level.String()
			if result != tt.expected {
				t.Errorf("Expected %s, got: %s", tt.expected, result)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{"WARNING", WarnLevel},
		{"error", ErrorLevel},
		{"Error", ErrorLevel},
		{"invalid", InfoLevel},
		{"", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("Expected %v, got: %v", tt.expected, result)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("json") != FormatJSON {
		t.Error("Expected json to parse as FormatJSON")
	}
	if ParseFormat("JSON") != FormatJSON {
		t.Error("Expected JSON to parse as FormatJSON")
	}
	if ParseFormat("console") != FormatConsole {
		t.Error("Expected console to parse as FormatConsole")
	}
	if ParseFormat("") != FormatConsole {
		t.Error("Expected empty string to default to FormatConsole")
	}
}

func TestSetLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewWithOutput(InfoLevel, buf)
	logger.SetLevel(ErrorLevel)

	if logger.Level() != ErrorLevel {
		t.Errorf("Expected level ErrorLevel, got: %v", logger.Level())
	}

	logger.Warn("dropped")
	if buf.Len() != 0 {
		t.Errorf("Expected no output after raising level, got: %s", buf.String())
	}
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name  string
		level Level
		log   func(*Logger, string)
	}{
		{"DEBUG", DebugLevel, func(l *Logger, m string) { l.Debug(m) }},
		{"INFO", InfoLevel, func(l *Logger, m string) { l.Info(m) }},
		{"WARN", WarnLevel, func(l *Logger, m string) { l.Warn(m) }},
		{"ERROR", ErrorLevel, func(l *Logger, m string) { l.Error(m) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewWithOutput(tt.level, buf)

			tt.log(logger, "test message")

			output := buf.String()
			if !strings.Contains(output, tt.name) {
				t.Errorf("Expected output to contain %s, got: %s", tt.name, output)
			}
			if !strings.Contains(output, "test message") {
				t.Errorf("Expected output to contain message, got: %s", output)
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewWithOutput(WarnLevel, buf)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()

	if strings.Contains(output, "debug message") {
		t.Error("Debug message should not appear at WARN level")
	}
	if strings.Contains(output, "info message") {
		t.Error("Info message should not appear at WARN level")
	}
	if !strings.Contains(output, "warn message") {
		t.Error("Warn message should appear at WARN level")
	}
	if !strings.Contains(output, "error message") {
		t.Error("Error message should appear at WARN level")
	}
}

func TestLogger_JSONFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewWithOptions(InfoLevel, FormatJSON, buf)

	logger.Info("test message",
		String("key1", "value1"),
		Int("key2", 42),
		Bool("key3", true),
		Duration("key4", 1500*time.Millisecond),
		Error(errors.New("boom")),
	)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected a JSON line, got %q: %v", buf.String(), err)
	}

	expected := map[string]any{
		"message": "test message",
		"level":   "INFO",
		"key1":    "value1",
		"key2":    float64(42),
		"key3":    true,
		"key4":    "1.5s",
		"error":   "boom",
	}
	for k, v := range expected {
		if entry[k] != v {
			t.Errorf("Expected %s=%v, got: %v", k, v, entry[k])
		}
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("Expected timestamp key")
	}
}

func TestLogger_With(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewWithOptions(DebugLevel, FormatJSON, buf).With(String("conn_id", "abc"))

	logger.Debug("first")
	logger.Debug("second")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d: %s", len(lines), buf.String())
	}
	for _, line := range lines {
		if !strings.Contains(line, `"conn_id":"abc"`) {
			t.Errorf("Expected conn_id on every line, got: %s", line)
		}
	}
}

func TestLogger_Nil(t *testing.T) {
	var logger *Logger

	logger.Info("ignored", String("k", "v"))
	logger.SetLevel(DebugLevel)
	if logger.With(String("k", "v")) != nil {
		t.Error("Expected With on nil logger to return nil")
	}
	if err := logger.Sync(); err != nil {
		t.Errorf("Expected nil error from Sync, got: %v", err)
	}
}

func TestField_Error(t *testing.T) {
	field := Error(errors.New("test error"))

	if field.Key != "error" {
		t.Errorf("Expected key 'error', got: %s", field.Key)
	}
	if field.Value != "test error" {
		t.Errorf("Expected value 'test error', got: %v", field.Value)
	}

	if Error(nil).Value != "<nil>" {
		t.Errorf("Expected nil error to render as <nil>, got: %v", Error(nil).Value)
	}
}

func TestField_Any(t *testing.T) {
	type customStruct struct {
		Name string
		Age  int
	}

	value := customStruct{Name: "test", Age: 30}
	field := Any("custom", value)

	if field.Key != "custom" {
		t.Errorf("Expected key 'custom', got: %s", field.Key)
	}
	if field.Value != value {
		t.Errorf("Expected value %v, got: %v", value, field.Value)
	}
}

func TestLogger_OutputFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewWithOutput(InfoLevel, buf)

	logger.Info("test message", String("key", "value"))

	output := buf.String()

	// timestamp level message {fields}
	parts := strings.Fields(output)
	if len(parts) < 4 {
		t.Fatalf("Expected at least 4 parts in output, got: %d", len(parts))
	}
	if len(parts[0]) < 10 {
		t.Errorf("Expected timestamp in first part, got: %s", parts[0])
	}
	if parts[1] != "INFO" {
		t.Errorf("Expected level INFO, got: %s", parts[1])
	}
	if parts[2] != "test" {
		t.Errorf("Expected message part 'test', got: %s", parts[2])
	}
	if !strings.Contains(output, `"key": "value"`) {
		t.Errorf("Expected field in output, got: %s", output)
	}
}
