// ABOUTME: Output format selection and machine-readable encoders
// ABOUTME: Renders values as human text, indented JSON, or YAML

package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects how command results are written.
type Format int

const (
	Human Format = iota
	JSON
	YAML
)

// ErrConflictingFormats is returned when both --json and --yaml are set.
var ErrConflictingFormats = errors.New("--json and --yaml are mutually exclusive")

// FormatFromFlags picks a format from the --json and --yaml flags.
func FormatFromFlags(jsonOut, yamlOut bool) (Format, error) {
	switch {
	case jsonOut && yamlOut:
		return Human, ErrConflictingFormats
	case jsonOut:
		return JSON, nil
	case yamlOut:
		return YAML, nil
	default:
		return Human, nil
	}
}

func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case YAML:
		return "yaml"
	default:
		return "human"
	}
}

// EncodeJSON returns v as indented JSON.
func EncodeJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding JSON: %w", err)
	}
	return string(data), nil
}

// EncodeYAML returns v as YAML using its JSON field names. Going through
// JSON keeps the keys identical to the wire format.
func EncodeYAML(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding YAML: %w", err)
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return "", fmt.Errorf("encoding YAML: %w", err)
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("encoding YAML: %w", err)
	}
	return strings.TrimRight(string(out), "\n"), nil
}

// Write renders v to w in format f. human is only called for Human.
func Write(w io.Writer, f Format, v any, human func() string) error {
	var (
		text string
		err  error
	)
	switch f {
	case JSON:
		text, err = EncodeJSON(v)
	case YAML:
		text, err = EncodeYAML(v)
	default:
		text = human()
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, text)
	return err
}
