// Package output reads and writes record lists in the persisted
// intermediate formats: a JSON array, JSON lines, or a YAML sequence.
package output

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Format represents output format types.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatJSONL, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "ndjson":
		return FormatJSONL, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// FormatFromPath infers a format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	if f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f
	}
	return FormatJSON
}

// Writer serializes a list of records.
type Writer interface {
	// Write adds one item.
	Write(item any) error

	// Flush ensures all data is written.
	Flush() error

	// Close flushes and releases resources.
	Close() error
}

// WriterOption configures a writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	pretty bool
	indent string
}

// WithPretty enables pretty-printing.
func WithPretty(enabled bool) WriterOption {
	return func(c *writerConfig) {
		c.pretty = enabled
	}
}

// WithIndent sets the indentation string.
func WithIndent(indent string) WriterOption {
	return func(c *writerConfig) {
		c.indent = indent
	}
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format, opts ...WriterOption) (Writer, error) {
	cfg := &writerConfig{
		pretty: true,
		indent: "  ",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatJSON:
		return NewJSONWriter(w, cfg.pretty, cfg.indent), nil
	case FormatJSONL:
		return NewJSONLWriter(w), nil
	case FormatYAML:
		return NewYAMLWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteRecords writes every record and closes the writer.
func WriteRecords[T any](w Writer, records []T) error {
	for i := range records {
		if err := w.Write(records[i]); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	return w.Close()
}
