package format

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Output format names accepted by ForName.
const (
	Text = "text"
	JSON = "json"
	YAML = "yaml"
)

// Formatter abstracts output formatting.
type Formatter interface {
	Write(w io.Writer, payload any) error
}

// JSONFormatter writes JSON output.
type JSONFormatter struct{}

// Write writes JSON payload to a writer.
func (f JSONFormatter) Write(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	return enc.Encode(payload)
}

// YAMLFormatter writes YAML output.
type YAMLFormatter struct{}

// Write writes YAML payload to a writer.
func (f YAMLFormatter) Write(w io.Writer, payload any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(payload); err != nil {
		return err
	}
	return enc.Close()
}

// ForName returns the structured formatter for name. Text output has no
// formatter; callers render it line by line.
func ForName(name string) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case JSON:
		return JSONFormatter{}, nil
	case YAML:
		return YAMLFormatter{}, nil
	case Text, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (allowed: %s, %s, %s)", name, Text, JSON, YAML)
	}
}

// HumanBytes renders a byte count with IEC units, e.g. "1.5 MiB".
func HumanBytes(n float64) string {
	if n <= 0 || math.IsNaN(n) {
		return "0 B"
	}
	return humanize.IBytes(uint64(math.Round(n)))
}
