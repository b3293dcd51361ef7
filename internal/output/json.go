package output

import (
	"bufio"
	"encoding/json"
	"io"
)

// JSONWriter writes a JSON array. Items are buffered until Flush so the
// array is always well formed, even when empty.
type JSONWriter struct {
	w      *bufio.Writer
	pretty bool
	indent string
	items  []any
	closed bool
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, pretty bool, indent string) *JSONWriter {
	return &JSONWriter{
		w:      bufio.NewWriter(w),
		pretty: pretty,
		indent: indent,
		items:  make([]any, 0),
	}
}

// Write buffers a single item.
func (w *JSONWriter) Write(item any) error {
	w.items = append(w.items, item)
	return nil
}

// Flush writes the buffered items as a JSON array.
func (w *JSONWriter) Flush() error {
	var (
		out []byte
		err error
	)
	if w.pretty {
		out, err = json.MarshalIndent(w.items, "", w.indent)
	} else {
		out, err = json.Marshal(w.items)
	}
	if err != nil {
		return err
	}

	if _, err := w.w.Write(out); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	w.items = w.items[:0]
	return w.w.Flush()
}

// Close flushes the array once.
func (w *JSONWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.Flush()
}

// JSONLWriter writes newline-delimited JSON (JSONL), one record per line.
type JSONLWriter struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewJSONLWriter creates a JSONL writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	bw := bufio.NewWriter(w)
	return &JSONLWriter{w: bw, enc: json.NewEncoder(bw)}
}

// Write writes a single item as a JSON line.
func (w *JSONLWriter) Write(item any) error {
	return w.enc.Encode(item)
}

// Flush flushes the buffer.
func (w *JSONLWriter) Flush() error {
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONLWriter) Close() error {
	return w.Flush()
}
