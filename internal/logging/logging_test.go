package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: HumanFormat, Level: WarnLevel, Output: &buf})

	logger.Debug("debug msg", nil)
	logger.Info("info msg", nil)
	logger.Warn("warn msg", nil)
	logger.Error("error msg", nil)

	out := buf.String()
	if strings.Contains(out, "debug msg") || strings.Contains(out, "info msg") {
		t.Errorf("messages below warn should be filtered, got: %s", out)
	}
	if !strings.Contains(out, "warn msg") || !strings.Contains(out, "error msg") {
		t.Errorf("warn and error should be logged, got: %s", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: JSONFormat, Level: DebugLevel, Output: &buf})

	logger.Info("resolved symbol", map[string]interface{}{"fqn": "com.example.Foo"})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["message"] != "resolved symbol" {
		t.Errorf("message = %v", entry["message"])
	}
	fields, ok := entry["fields"].(map[string]interface{})
	if !ok || fields["fqn"] != "com.example.Foo" {
		t.Errorf("fields = %v", entry["fields"])
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: JSONFormat, Level: DebugLevel, Output: &buf})
	child := logger.With(map[string]interface{}{"requestId": "abc-123"})

	child.Info("step", map[string]interface{}{"strategy": "static-member"})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	fields := entry["fields"].(map[string]interface{})
	if fields["requestId"] != "abc-123" {
		t.Errorf("child logger should carry base fields, got %v", fields)
	}
	if fields["strategy"] != "static-member" {
		t.Errorf("call fields should be preserved, got %v", fields)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != DebugLevel {
		t.Error("debug should parse")
	}
	if ParseLevel("bogus") != InfoLevel {
		t.Error("unknown levels should default to info")
	}
}
