package format

import (
	"bytes"
	"strings"
	"testing"
)

type payload struct {
	Key  string `json:"key" yaml:"key"`
	Size int64  `json:"size" yaml:"size"`
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (JSONFormatter{}).Write(&buf, payload{Key: "GENES", Size: 10}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := buf.String(); got != "{\"key\":\"GENES\",\"size\":10}\n" {
		t.Fatalf("unexpected json: %q", got)
	}
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (YAMLFormatter{}).Write(&buf, payload{Key: "GENES", Size: 10}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := buf.String(); got != "key: GENES\nsize: 10\n" {
		t.Fatalf("unexpected yaml: %q", got)
	}
}

func TestForName(t *testing.T) {
	tests := []struct {
		name    string
		want    Formatter
		wantErr bool
	}{
		{name: "", want: nil},
		{name: "text", want: nil},
		{name: "json", want: JSONFormatter{}},
		{name: " YAML ", want: YAMLFormatter{}},
		{name: "xml", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ForName(tt.name)
		if tt.wantErr {
			if err == nil || !strings.Contains(err.Error(), "unknown output format") {
				t.Fatalf("%q: expected unknown format error, got %v", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("%q: expected %#v, got %#v", tt.name, tt.want, got)
		}
	}
}

func TestHumanBytes(t *testing.T) {
	tests := map[float64]string{
		0:               "0 B",
		-3:              "0 B",
		10:              "10 B",
		3 * 1024 * 1024: "3.0 MiB",
		1536:            "1.5 KiB",
	}
	for in, want := range tests {
		if got := HumanBytes(in); got != want {
			t.Fatalf("HumanBytes(%v): expected %q, got %q", in, want, got)
		}
	}
}
