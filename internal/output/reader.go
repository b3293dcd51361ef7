package output

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/gradfetch/pkg/record"
)

// ReadRaw decodes a persisted raw record list.
func ReadRaw(r io.Reader, format Format) ([]record.RawRecord, error) {
	return ReadRecords[record.RawRecord](r, format)
}

// ReadNormalized decodes a persisted normalized record list.
func ReadNormalized(r io.Reader, format Format) ([]record.NormalizedRecord, error) {
	return ReadRecords[record.NormalizedRecord](r, format)
}

// ReadRecords decodes a record list written in format.
func ReadRecords[T any](r io.Reader, format Format) ([]T, error) {
	switch format {
	case FormatJSON:
		var out []T
		if err := json.NewDecoder(r).Decode(&out); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
		return out, nil

	case FormatJSONL:
		var out []T
		dec := json.NewDecoder(bufio.NewReader(r))
		for {
			var item T
			err := dec.Decode(&item)
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			if err != nil {
				return nil, fmt.Errorf("decode JSONL record %d: %w", len(out), err)
			}
			out = append(out, item)
		}

	case FormatYAML:
		var out []T
		if err := yaml.NewDecoder(r).Decode(&out); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported input format: %s", format)
	}
}

// LoadFile reads a record list, inferring the format from the extension.
func LoadFile[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadRecords[T](f, FormatFromPath(path))
}

// SaveFile writes a record list, inferring the format from the extension.
func SaveFile[T any](path string, records []T) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w, err := NewWriter(f, FormatFromPath(path))
	if err != nil {
		return err
	}
	return WriteRecords(w, records)
}
