package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"off", LevelNone, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v; wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v; want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevel_String(t *testing.T) {
	if LevelWarn.String() != "warn" {
		t.Errorf("LevelWarn.String() = %q; want warn", LevelWarn.String())
	}
	if Level(42).String() != "" {
		t.Errorf("Level(42).String() = %q; want empty", Level(42).String())
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("JSON"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(JSON) = %q, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn, FormatText)

	l.Info("hidden")
	l.Warn("xref document loaded", "records", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, "records=3") {
		t.Errorf("output = %q; want records=3", out)
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	Component(New(&buf, LevelDebug, FormatJSON), "mesh").Debug("loaded")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if rec["component"] != "mesh" || rec["msg"] != "loaded" {
		t.Errorf("record = %v", rec)
	}
}

func TestNew_None(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, LevelNone, FormatText).Error("dropped")
	if buf.Len() != 0 {
		t.Errorf("LevelNone wrote %q", buf.String())
	}
}

func TestSetDefault(t *testing.T) {
	prev := Default()
	defer SetDefault(prev)

	var buf bytes.Buffer
	SetDefault(New(&buf, LevelInfo, FormatText))
	Default().Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("Default() did not use the new logger: %q", buf.String())
	}

	SetDefault(nil)
	if Default() == nil {
		t.Error("SetDefault(nil) left a nil logger")
	}
}
