package output

import (
	"bufio"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLWriter writes a YAML sequence.
type YAMLWriter struct {
	w      *bufio.Writer
	items  []any
	closed bool
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	return &YAMLWriter{
		w:     bufio.NewWriter(w),
		items: make([]any, 0),
	}
}

// Write buffers a single item.
func (w *YAMLWriter) Write(item any) error {
	w.items = append(w.items, item)
	return nil
}

// Flush writes the buffered items as one YAML document.
func (w *YAMLWriter) Flush() error {
	encoder := yaml.NewEncoder(w.w)
	encoder.SetIndent(2)

	if err := encoder.Encode(w.items); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	w.items = w.items[:0]
	return w.w.Flush()
}

// Close flushes the document once.
func (w *YAMLWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.Flush()
}
