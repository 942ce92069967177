package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/maltedev/amazon-bestsellers/internal/models"
)

const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

var ErrUnknownFormat = errors.New("unknown output format")

// FileName returns the dump name for a run finished at now.
func FileName(format string, now time.Time) string {
	return fmt.Sprintf("amazon_best_sellers_%d.%s", now.Unix(), format)
}

// Save writes records to dir in the given format and returns the file path.
// An empty record list still produces a file.
func Save(dir, format string, records []models.ProductRecord, now time.Time) (string, error) {
	var (
		data []byte
		err  error
	)

	switch format {
	case FormatJSON:
		data, err = encodeJSON(records)
	case FormatCSV:
		data, err = encodeCSV(records)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", format, err)
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, FileName(format, now))
	if err := writeFile(path, data); err != nil {
		return "", err
	}

	return path, nil
}

func writeFile(path string, data []byte) error {
	// Write to temp file first for atomicity
	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpFile, err)
	}

	if err := os.Rename(tmpFile, path); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename %s: %w", tmpFile, err)
	}
	return nil
}

func encodeJSON(records []models.ProductRecord) ([]byte, error) {
	if records == nil {
		records = []models.ProductRecord{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func encodeCSV(records []models.ProductRecord) ([]byte, error) {
	var buf bytes.Buffer
	if len(records) == 0 {
		return buf.Bytes(), nil
	}

	w := csv.NewWriter(&buf)
	if err := w.Write(records[0].Fields()); err != nil {
		return nil, err
	}
	for i := range records {
		if err := w.Write(records[i].Row()); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
